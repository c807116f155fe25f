package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/user/reelverse/internal/middleware"
	"github.com/user/reelverse/internal/utils"
)

type ratingRequest struct {
	Score  int    `json:"score" binding:"required,min=1,max=5"`
	Review string `json:"review"`
}

// ListRatings 影片评分与汇总
func (h *Handler) ListRatings(c *gin.Context) {
	id, ok := utils.ParseID(c, "id")
	if !ok {
		return
	}
	page, pageSize, offset := paging(c)
	result, err := h.Services.Ratings.List(id, pageSize, offset)
	if err != nil {
		utils.HandleError(c, err)
		return
	}
	utils.Success(c, gin.H{
		"items":     result.Items,
		"summary":   result.Summary,
		"page":      page,
		"page_size": pageSize,
	})
}

// RateMovie 评分，已评过则更新
func (h *Handler) RateMovie(c *gin.Context) {
	id, ok := utils.ParseID(c, "id")
	if !ok {
		return
	}
	var req ratingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondBindError(c, err)
		return
	}

	rating, err := h.Services.Ratings.Rate(c.Request.Context(), middleware.GetUserID(c), id, req.Score, req.Review)
	if err != nil {
		utils.HandleError(c, err)
		return
	}
	utils.Success(c, rating)
}

// DeleteRating 撤销自己的评分
func (h *Handler) DeleteRating(c *gin.Context) {
	id, ok := utils.ParseID(c, "id")
	if !ok {
		return
	}
	if err := h.Services.Ratings.Remove(middleware.GetUserID(c), id); err != nil {
		utils.HandleError(c, err)
		return
	}
	utils.SuccessWithMessage(c, "已删除", nil)
}
