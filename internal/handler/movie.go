package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/user/reelverse/internal/model"
	"github.com/user/reelverse/internal/repository"
	"github.com/user/reelverse/internal/utils"
)

type movieRequest struct {
	Title       string `json:"title" binding:"required,max=255"`
	Slug        string `json:"slug" binding:"max=255"`
	Description string `json:"description"`
	ReleaseYear int    `json:"release_year" binding:"omitempty,min=1870,max=2100"`
	Genres      string `json:"genres"`
	PosterURL   string `json:"poster_url" binding:"omitempty,url"`
	Type        string `json:"type" binding:"omitempty,oneof=movie series"`
}

func (r *movieRequest) toModel() *model.Movie {
	return &model.Movie{
		Title:       r.Title,
		Slug:        r.Slug,
		Description: r.Description,
		ReleaseYear: r.ReleaseYear,
		Genres:      r.Genres,
		PosterURL:   r.PosterURL,
		Type:        r.Type,
	}
}

type episodeRequest struct {
	Season      int    `json:"season" binding:"omitempty,min=1"`
	Number      int    `json:"number" binding:"required,min=1"`
	Title       string `json:"title" binding:"max=255"`
	Description string `json:"description"`
	VideoURL    string `json:"video_url" binding:"omitempty,url"`
	DurationSec int    `json:"duration_sec" binding:"omitempty,min=0"`
}

func (r *episodeRequest) toModel() *model.Episode {
	return &model.Episode{
		Season:      r.Season,
		Number:      r.Number,
		Title:       r.Title,
		Description: r.Description,
		VideoURL:    r.VideoURL,
		DurationSec: r.DurationSec,
	}
}

// ListMovies 影片列表，支持关键词、类型与分类筛选
func (h *Handler) ListMovies(c *gin.Context) {
	page, pageSize, offset := paging(c)
	list, err := h.Services.Catalog.ListMovies(repository.MovieFilter{
		Query:  c.Query("q"),
		Genre:  c.Query("genre"),
		Type:   c.Query("type"),
		Limit:  pageSize,
		Offset: offset,
	})
	if err != nil {
		utils.HandleError(c, err)
		return
	}
	utils.Success(c, utils.Page{Items: list.Items, Total: list.Total, Page: page, PageSize: pageSize})
}

// GetMovie 影片详情，包含分集
func (h *Handler) GetMovie(c *gin.Context) {
	id, ok := utils.ParseID(c, "id")
	if !ok {
		return
	}
	movie, err := h.Services.Catalog.GetMovie(c.Request.Context(), id)
	if err != nil {
		utils.HandleError(c, err)
		return
	}
	utils.Success(c, movie)
}

// CreateMovie 创建影片
func (h *Handler) CreateMovie(c *gin.Context) {
	var req movieRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondBindError(c, err)
		return
	}
	movie := req.toModel()
	if err := h.Services.Catalog.CreateMovie(movie); err != nil {
		utils.HandleError(c, err)
		return
	}
	utils.Created(c, movie)
}

// UpdateMovie 更新影片
func (h *Handler) UpdateMovie(c *gin.Context) {
	id, ok := utils.ParseID(c, "id")
	if !ok {
		return
	}
	var req movieRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondBindError(c, err)
		return
	}
	movie := req.toModel()
	movie.ID = id
	if err := h.Services.Catalog.UpdateMovie(movie); err != nil {
		utils.HandleError(c, err)
		return
	}
	updated, err := h.Services.Catalog.GetMovie(c.Request.Context(), id)
	if err != nil {
		utils.HandleError(c, err)
		return
	}
	utils.Success(c, updated)
}

// DeleteMovie 删除影片
func (h *Handler) DeleteMovie(c *gin.Context) {
	id, ok := utils.ParseID(c, "id")
	if !ok {
		return
	}
	if err := h.Services.Catalog.DeleteMovie(id); err != nil {
		utils.HandleError(c, err)
		return
	}
	utils.SuccessWithMessage(c, "已删除", nil)
}

// ListEpisodes 影片分集列表
func (h *Handler) ListEpisodes(c *gin.Context) {
	id, ok := utils.ParseID(c, "id")
	if !ok {
		return
	}
	episodes, err := h.Services.Catalog.ListEpisodes(id)
	if err != nil {
		utils.HandleError(c, err)
		return
	}
	utils.Success(c, episodes)
}

// CreateEpisode 添加分集
func (h *Handler) CreateEpisode(c *gin.Context) {
	movieID, ok := utils.ParseID(c, "id")
	if !ok {
		return
	}
	var req episodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondBindError(c, err)
		return
	}
	ep := req.toModel()
	ep.MovieID = movieID
	if err := h.Services.Catalog.CreateEpisode(ep); err != nil {
		utils.HandleError(c, err)
		return
	}
	utils.Created(c, ep)
}

// GetEpisode 分集详情
func (h *Handler) GetEpisode(c *gin.Context) {
	id, ok := utils.ParseID(c, "id")
	if !ok {
		return
	}
	ep, err := h.Services.Catalog.GetEpisode(id)
	if err != nil {
		utils.HandleError(c, err)
		return
	}
	utils.Success(c, ep)
}

// UpdateEpisode 更新分集
func (h *Handler) UpdateEpisode(c *gin.Context) {
	id, ok := utils.ParseID(c, "id")
	if !ok {
		return
	}
	var req episodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondBindError(c, err)
		return
	}
	ep := req.toModel()
	ep.ID = id
	if err := h.Services.Catalog.UpdateEpisode(ep); err != nil {
		utils.HandleError(c, err)
		return
	}
	utils.Success(c, ep)
}

// DeleteEpisode 删除分集
func (h *Handler) DeleteEpisode(c *gin.Context) {
	id, ok := utils.ParseID(c, "id")
	if !ok {
		return
	}
	if err := h.Services.Catalog.DeleteEpisode(id); err != nil {
		utils.HandleError(c, err)
		return
	}
	utils.SuccessWithMessage(c, "已删除", nil)
}
