package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/user/reelverse/internal/logger"
	"github.com/user/reelverse/internal/middleware"
	"github.com/user/reelverse/internal/model"
	"github.com/user/reelverse/internal/utils"
	"go.uber.org/zap"
)

// ==================== 管理后台 ====================

type rolesRequest struct {
	Roles []string `json:"roles" binding:"required,min=1,dive,required"`
}

type badgeRequest struct {
	Code        string `json:"code" binding:"required,max=64"`
	Name        string `json:"name" binding:"required,max=100"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
	Kind        string `json:"kind" binding:"required,oneof=comments ratings watches points"`
	Threshold   int    `json:"threshold" binding:"required,min=1"`
}

// AdminStats 后台统计
func (h *Handler) AdminStats(c *gin.Context) {
	counters := []struct {
		name  string
		count func() (int64, error)
	}{
		{"users", h.Repos.User.Count},
		{"movies", h.Repos.Movie.Count},
		{"episodes", h.Repos.Episode.Count},
		{"comics", h.Repos.Comic.Count},
		{"comments", h.Repos.Comment.Count},
	}

	stats := gin.H{}
	for _, ct := range counters {
		n, err := ct.count()
		if err != nil {
			utils.HandleError(c, err)
			return
		}
		stats[ct.name] = n
	}
	utils.Success(c, stats)
}

// AdminUsers 用户列表
func (h *Handler) AdminUsers(c *gin.Context) {
	page, pageSize, offset := paging(c)
	users, total, err := h.Repos.User.List(pageSize, offset)
	if err != nil {
		utils.HandleError(c, err)
		return
	}
	utils.Success(c, utils.Page{Items: users, Total: total, Page: page, PageSize: pageSize})
}

// AdminSetRoles 替换用户角色，角色名必须全部存在
func (h *Handler) AdminSetRoles(c *gin.Context) {
	id, ok := utils.ParseID(c, "id")
	if !ok {
		return
	}
	var req rolesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondBindError(c, err)
		return
	}

	user, err := h.Repos.User.FindByID(id)
	if err != nil {
		utils.HandleError(c, err)
		return
	}
	if user == nil {
		utils.NotFound(c, "用户不存在")
		return
	}

	names := uniqueStrings(req.Roles)
	roles, err := h.Repos.User.FindRoles(names)
	if err != nil {
		utils.HandleError(c, err)
		return
	}
	if len(roles) != len(names) {
		utils.BadRequest(c, "包含未知的角色")
		return
	}
	if err := h.Repos.User.ReplaceRoles(user, roles); err != nil {
		utils.HandleError(c, err)
		return
	}

	logger.Log.Info("修改用户角色",
		logger.WithUserID(middleware.GetUserID(c)),
		zap.Uint("target_user_id", id),
		zap.Strings("roles", names),
	)
	updated, err := h.Repos.User.FindByID(id)
	if err != nil {
		utils.HandleError(c, err)
		return
	}
	utils.Success(c, updated)
}

// AdminDeleteUser 删除用户及其全部数据
func (h *Handler) AdminDeleteUser(c *gin.Context) {
	id, ok := utils.ParseID(c, "id")
	if !ok {
		return
	}
	if id == middleware.GetUserID(c) {
		utils.BadRequest(c, "不能删除自己")
		return
	}
	user, err := h.Repos.User.FindByID(id)
	if err != nil {
		utils.HandleError(c, err)
		return
	}
	if user == nil {
		utils.NotFound(c, "用户不存在")
		return
	}

	if err := h.Repos.User.Delete(id); err != nil {
		utils.HandleError(c, err)
		return
	}
	h.Services.Gamification.ForgetUser(c.Request.Context(), id)
	h.Services.Catalog.InvalidateAllMovies()

	logger.Log.Info("删除用户", logger.WithUserID(middleware.GetUserID(c)), zap.Uint("target_user_id", id))
	utils.SuccessWithMessage(c, "已删除", nil)
}

// AdminCreateBadge 创建徽章
func (h *Handler) AdminCreateBadge(c *gin.Context) {
	var req badgeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondBindError(c, err)
		return
	}
	badge := &model.Badge{
		Code:        req.Code,
		Name:        req.Name,
		Description: req.Description,
		Icon:        req.Icon,
		Kind:        req.Kind,
		Threshold:   req.Threshold,
	}
	if err := h.Services.Gamification.CreateBadge(badge); err != nil {
		utils.HandleError(c, err)
		return
	}
	utils.Created(c, badge)
}

// AdminDeleteBadge 删除徽章
func (h *Handler) AdminDeleteBadge(c *gin.Context) {
	id, ok := utils.ParseID(c, "id")
	if !ok {
		return
	}
	if err := h.Services.Gamification.DeleteBadge(id); err != nil {
		utils.HandleError(c, err)
		return
	}
	utils.SuccessWithMessage(c, "已删除", nil)
}

func uniqueStrings(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}
