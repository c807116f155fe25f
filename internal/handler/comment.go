package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/user/reelverse/internal/middleware"
	"github.com/user/reelverse/internal/repository"
	"github.com/user/reelverse/internal/utils"
)

type commentRequest struct {
	Content  string `json:"content" binding:"required"`
	ParentID *uint  `json:"parent_id"`
}

type commentUpdateRequest struct {
	Content string `json:"content" binding:"required"`
}

func episodeTarget(id uint) repository.CommentTarget {
	return repository.CommentTarget{EpisodeID: &id}
}

func comicTarget(id uint) repository.CommentTarget {
	return repository.CommentTarget{ComicID: &id}
}

// ListEpisodeComments 分集评论
func (h *Handler) ListEpisodeComments(c *gin.Context) {
	h.listComments(c, episodeTarget)
}

// ListComicComments 漫画评论
func (h *Handler) ListComicComments(c *gin.Context) {
	h.listComments(c, comicTarget)
}

// CreateEpisodeComment 评论分集
func (h *Handler) CreateEpisodeComment(c *gin.Context) {
	h.createComment(c, episodeTarget)
}

// CreateComicComment 评论漫画
func (h *Handler) CreateComicComment(c *gin.Context) {
	h.createComment(c, comicTarget)
}

func (h *Handler) listComments(c *gin.Context, target func(uint) repository.CommentTarget) {
	id, ok := utils.ParseID(c, "id")
	if !ok {
		return
	}
	page, pageSize, offset := paging(c)
	result, err := h.Services.Comments.ListByTarget(target(id), pageSize, offset)
	if err != nil {
		utils.HandleError(c, err)
		return
	}
	utils.Success(c, utils.Page{Items: result.Items, Total: result.Total, Page: page, PageSize: pageSize})
}

func (h *Handler) createComment(c *gin.Context, target func(uint) repository.CommentTarget) {
	id, ok := utils.ParseID(c, "id")
	if !ok {
		return
	}
	var req commentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondBindError(c, err)
		return
	}

	comment, err := h.Services.Comments.Create(c.Request.Context(), middleware.GetUserID(c), target(id), req.Content, req.ParentID)
	if err != nil {
		utils.HandleError(c, err)
		return
	}
	utils.Created(c, comment)
}

// GetComment 单条评论及其全部回复
func (h *Handler) GetComment(c *gin.Context) {
	id, ok := utils.ParseID(c, "id")
	if !ok {
		return
	}
	comment, err := h.Services.Comments.Get(id)
	if err != nil {
		utils.HandleError(c, err)
		return
	}
	utils.Success(c, comment)
}

// UpdateComment 修改自己的评论
func (h *Handler) UpdateComment(c *gin.Context) {
	id, ok := utils.ParseID(c, "id")
	if !ok {
		return
	}
	var req commentUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondBindError(c, err)
		return
	}

	comment, err := h.Services.Comments.Update(actor(c), id, req.Content)
	if err != nil {
		utils.HandleError(c, err)
		return
	}
	utils.Success(c, comment)
}

// DeleteComment 删除评论及其全部回复，作者或版主可操作
func (h *Handler) DeleteComment(c *gin.Context) {
	id, ok := utils.ParseID(c, "id")
	if !ok {
		return
	}
	deleted, err := h.Services.Comments.Delete(actor(c), id)
	if err != nil {
		utils.HandleError(c, err)
		return
	}
	utils.SuccessWithMessage(c, "已删除", gin.H{"deleted": deleted})
}
