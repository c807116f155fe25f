package service

import (
	"context"
	"time"

	"github.com/user/reelverse/internal/logger"
	"go.uber.org/zap"
)

// CleanupService 清理服务
type CleanupService struct {
	history  *HistoryService
	catalog  *CatalogService
	interval time.Duration
	log      *zap.Logger
}

// NewCleanupService 创建清理服务
func NewCleanupService(history *HistoryService, catalog *CatalogService) *CleanupService {
	return &CleanupService{
		history:  history,
		catalog:  catalog,
		interval: 24 * time.Hour,
		log:      logger.Named("cleanup"),
	}
}

// Start 启动定时清理任务，ctx 取消后停止
func (s *CleanupService) Start(ctx context.Context) {
	ticker := time.NewTicker(s.interval)

	// 启动时先运行一次
	go s.RunOnce()

	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.RunOnce()
			}
		}
	}()
}

// CleanupResult 一次清理的结果
type CleanupResult struct {
	HistoryTrimmed int64
	CachePurged    int
}

// RunOnce 执行一次清理
func (s *CleanupService) RunOnce() CleanupResult {
	s.log.Info("开始清理过期数据")
	var res CleanupResult

	// 1. 将观看记录裁剪到上限
	trimmed, err := s.history.TrimAll()
	if err != nil {
		s.log.Error("裁剪观看记录失败", zap.Error(err))
	} else if trimmed > 0 {
		s.log.Info("已裁剪超出上限的观看记录", zap.Int64("count", trimmed), zap.Int("limit", s.history.Limit()))
	}
	res.HistoryTrimmed = trimmed

	// 2. 清理过期缓存
	res.CachePurged = s.catalog.PurgeCaches()
	if res.CachePurged > 0 {
		s.log.Info("已清理过期搜索缓存", zap.Int("count", res.CachePurged))
	}
	return res
}
