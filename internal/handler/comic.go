package handler

import (
	"errors"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/user/reelverse/internal/model"
	"github.com/user/reelverse/internal/utils"
)

// comicForm 漫画表单，multipart 提交
type comicForm struct {
	Title       string `form:"title" validate:"required,max=255"`
	Slug        string `form:"slug" validate:"max=255"`
	Author      string `form:"author" validate:"max=255"`
	Description string `form:"description"`
	Genres      string `form:"genres"`
	Status      string `form:"status" validate:"omitempty,oneof=ongoing completed"`
}

func (f *comicForm) toModel() *model.Comic {
	return &model.Comic{
		Title:       f.Title,
		Slug:        f.Slug,
		Author:      f.Author,
		Description: f.Description,
		Genres:      f.Genres,
		Status:      f.Status,
	}
}

// bindComicForm 解析表单与可选的封面文件，出错时已写入响应
func bindComicForm(c *gin.Context) (*comicForm, *multipart.FileHeader, bool) {
	var form comicForm
	if err := c.ShouldBind(&form); err != nil {
		utils.RespondBindError(c, err)
		return nil, nil, false
	}
	if fields := utils.ValidateStruct(&form); fields != nil {
		utils.ValidationError(c, fields)
		return nil, nil, false
	}

	cover, err := c.FormFile("cover")
	if err != nil {
		if !errors.Is(err, http.ErrMissingFile) && !errors.Is(err, http.ErrNotMultipart) {
			utils.BadRequest(c, "封面上传失败")
			return nil, nil, false
		}
		cover = nil
	}
	return &form, cover, true
}

// ListComics 漫画列表
func (h *Handler) ListComics(c *gin.Context) {
	page, pageSize, offset := paging(c)
	items, total, err := h.Services.Catalog.ListComics(c.Query("q"), c.Query("genre"), pageSize, offset)
	if err != nil {
		utils.HandleError(c, err)
		return
	}
	utils.Success(c, utils.Page{Items: items, Total: total, Page: page, PageSize: pageSize})
}

// GetComic 漫画详情，包含按章节排列的页面
func (h *Handler) GetComic(c *gin.Context) {
	id, ok := utils.ParseID(c, "id")
	if !ok {
		return
	}
	comic, err := h.Services.Catalog.GetComic(id)
	if err != nil {
		utils.HandleError(c, err)
		return
	}
	utils.Success(c, comic)
}

// CreateComic 创建漫画
func (h *Handler) CreateComic(c *gin.Context) {
	form, cover, ok := bindComicForm(c)
	if !ok {
		return
	}
	comic := form.toModel()
	if err := h.Services.Catalog.CreateComic(c.Request.Context(), comic, cover); err != nil {
		utils.HandleError(c, err)
		return
	}
	utils.Created(c, comic)
}

// UpdateComic 更新漫画，可替换封面
func (h *Handler) UpdateComic(c *gin.Context) {
	id, ok := utils.ParseID(c, "id")
	if !ok {
		return
	}
	form, cover, ok := bindComicForm(c)
	if !ok {
		return
	}
	comic := form.toModel()
	comic.ID = id
	if err := h.Services.Catalog.UpdateComic(c.Request.Context(), comic, cover); err != nil {
		utils.HandleError(c, err)
		return
	}
	utils.Success(c, comic)
}

// DeleteComic 删除漫画
func (h *Handler) DeleteComic(c *gin.Context) {
	id, ok := utils.ParseID(c, "id")
	if !ok {
		return
	}
	if err := h.Services.Catalog.DeleteComic(c.Request.Context(), id); err != nil {
		utils.HandleError(c, err)
		return
	}
	utils.SuccessWithMessage(c, "已删除", nil)
}

// AddComicPages 上传章节页面，字段 chapter 与一个或多个 pages 文件
func (h *Handler) AddComicPages(c *gin.Context) {
	id, ok := utils.ParseID(c, "id")
	if !ok {
		return
	}
	form, err := c.MultipartForm()
	if err != nil {
		utils.BadRequest(c, "请使用 multipart/form-data 上传")
		return
	}
	chapter, err := strconv.Atoi(c.PostForm("chapter"))
	if err != nil {
		utils.ValidationError(c, map[string]string{"chapter": "格式不正确"})
		return
	}

	pages, err := h.Services.Catalog.AddPages(c.Request.Context(), id, chapter, form.File["pages"])
	if err != nil {
		utils.HandleError(c, err)
		return
	}
	utils.Created(c, pages)
}

// DeleteComicPage 删除漫画页面
func (h *Handler) DeleteComicPage(c *gin.Context) {
	id, ok := utils.ParseID(c, "id")
	if !ok {
		return
	}
	pageID, ok := utils.ParseID(c, "pageId")
	if !ok {
		return
	}
	if err := h.Services.Catalog.DeletePage(c.Request.Context(), id, pageID); err != nil {
		utils.HandleError(c, err)
		return
	}
	utils.SuccessWithMessage(c, "已删除", nil)
}
