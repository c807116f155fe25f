package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/user/reelverse/internal/middleware"
	"github.com/user/reelverse/internal/utils"
)

// MyGamification 我的积分、徽章与最近积分记录
func (h *Handler) MyGamification(c *gin.Context) {
	profile, err := h.Services.Gamification.Profile(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		utils.HandleError(c, err)
		return
	}
	utils.Success(c, profile)
}

// Leaderboard 积分排行榜
func (h *Handler) Leaderboard(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))
	entries, err := h.Services.Gamification.Leaderboard(c.Request.Context(), limit)
	if err != nil {
		utils.HandleError(c, err)
		return
	}
	utils.Success(c, entries)
}

// ListBadges 全部徽章
func (h *Handler) ListBadges(c *gin.Context) {
	badges, err := h.Services.Gamification.Badges()
	if err != nil {
		utils.HandleError(c, err)
		return
	}
	utils.Success(c, badges)
}
