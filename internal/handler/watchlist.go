package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/user/reelverse/internal/middleware"
	"github.com/user/reelverse/internal/utils"
)

type watchlistRequest struct {
	Name     string `json:"name" binding:"required,max=100"`
	IsPublic bool   `json:"is_public"`
}

type watchlistUpdateRequest struct {
	Name     string `json:"name" binding:"max=100"`
	IsPublic *bool  `json:"is_public"`
}

type watchlistMovieRequest struct {
	MovieID uint `json:"movie_id" binding:"required"`
}

// ListWatchlists 我的片单
func (h *Handler) ListWatchlists(c *gin.Context) {
	lists, err := h.Services.Watchlists.List(middleware.GetUserID(c))
	if err != nil {
		utils.HandleError(c, err)
		return
	}
	utils.Success(c, lists)
}

// CreateWatchlist 创建片单
func (h *Handler) CreateWatchlist(c *gin.Context) {
	var req watchlistRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondBindError(c, err)
		return
	}
	w, err := h.Services.Watchlists.Create(middleware.GetUserID(c), req.Name, req.IsPublic)
	if err != nil {
		utils.HandleError(c, err)
		return
	}
	utils.Created(c, w)
}

// GetWatchlist 片单详情，公开片单无需登录
func (h *Handler) GetWatchlist(c *gin.Context) {
	id, ok := utils.ParseID(c, "id")
	if !ok {
		return
	}
	w, err := h.Services.Watchlists.Get(middleware.GetUserID(c), id)
	if err != nil {
		utils.HandleError(c, err)
		return
	}
	utils.Success(c, w)
}

// UpdateWatchlist 修改片单
func (h *Handler) UpdateWatchlist(c *gin.Context) {
	id, ok := utils.ParseID(c, "id")
	if !ok {
		return
	}
	var req watchlistUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondBindError(c, err)
		return
	}
	w, err := h.Services.Watchlists.Update(middleware.GetUserID(c), id, req.Name, req.IsPublic)
	if err != nil {
		utils.HandleError(c, err)
		return
	}
	utils.Success(c, w)
}

// DeleteWatchlist 删除片单
func (h *Handler) DeleteWatchlist(c *gin.Context) {
	id, ok := utils.ParseID(c, "id")
	if !ok {
		return
	}
	if err := h.Services.Watchlists.Delete(middleware.GetUserID(c), id); err != nil {
		utils.HandleError(c, err)
		return
	}
	utils.SuccessWithMessage(c, "已删除", nil)
}

// AddWatchlistMovie 向片单添加影片
func (h *Handler) AddWatchlistMovie(c *gin.Context) {
	id, ok := utils.ParseID(c, "id")
	if !ok {
		return
	}
	var req watchlistMovieRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondBindError(c, err)
		return
	}
	if err := h.Services.Watchlists.AddMovie(c.Request.Context(), middleware.GetUserID(c), id, req.MovieID); err != nil {
		utils.HandleError(c, err)
		return
	}
	utils.Created(c, gin.H{"watchlist_id": id, "movie_id": req.MovieID})
}

// RemoveWatchlistMovie 从片单移除影片
func (h *Handler) RemoveWatchlistMovie(c *gin.Context) {
	id, ok := utils.ParseID(c, "id")
	if !ok {
		return
	}
	movieID, ok := utils.ParseID(c, "movieId")
	if !ok {
		return
	}
	if err := h.Services.Watchlists.RemoveMovie(middleware.GetUserID(c), id, movieID); err != nil {
		utils.HandleError(c, err)
		return
	}
	utils.SuccessWithMessage(c, "已移除", nil)
}
