package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/user/reelverse/internal/middleware"
	"github.com/user/reelverse/internal/utils"
)

type historyRequest struct {
	EpisodeID uint `json:"episode_id" binding:"required"`
	Progress  int  `json:"progress" binding:"min=0"`
	Completed bool `json:"completed"`
}

// ListHistory 观看记录，最近观看在前
func (h *Handler) ListHistory(c *gin.Context) {
	page, pageSize, offset := paging(c)
	items, total, err := h.Services.History.List(middleware.GetUserID(c), pageSize, offset)
	if err != nil {
		utils.HandleError(c, err)
		return
	}
	utils.Success(c, utils.Page{Items: items, Total: total, Page: page, PageSize: pageSize})
}

// RecordHistory 上报观看进度
func (h *Handler) RecordHistory(c *gin.Context) {
	var req historyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondBindError(c, err)
		return
	}
	record, err := h.Services.History.Record(c.Request.Context(), middleware.GetUserID(c), req.EpisodeID, req.Progress, req.Completed)
	if err != nil {
		utils.HandleError(c, err)
		return
	}
	utils.Success(c, record)
}

// DeleteHistory 删除一条观看记录
func (h *Handler) DeleteHistory(c *gin.Context) {
	id, ok := utils.ParseID(c, "id")
	if !ok {
		return
	}
	if err := h.Services.History.Delete(middleware.GetUserID(c), id); err != nil {
		utils.HandleError(c, err)
		return
	}
	utils.SuccessWithMessage(c, "已删除", nil)
}

// ClearHistory 清空观看记录
func (h *Handler) ClearHistory(c *gin.Context) {
	n, err := h.Services.History.Clear(middleware.GetUserID(c))
	if err != nil {
		utils.HandleError(c, err)
		return
	}
	utils.SuccessWithMessage(c, "已清空", gin.H{"deleted": n})
}
