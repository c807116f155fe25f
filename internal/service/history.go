package service

import (
	"context"
	"time"

	"github.com/user/reelverse/internal/model"
	"github.com/user/reelverse/internal/repository"
	"github.com/user/reelverse/internal/utils"
)

// DefaultHistoryLimit 每个用户保留的观看记录条数
const DefaultHistoryLimit = 500

// HistoryService 观看历史
type HistoryService struct {
	repos        *repository.Repositories
	gamification *GamificationService
	limit        int
}

func NewHistoryService(repos *repository.Repositories, gamification *GamificationService, limit int) *HistoryService {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	return &HistoryService{repos: repos, gamification: gamification, limit: limit}
}

// Limit 观看记录上限
func (s *HistoryService) Limit() int { return s.limit }

// Record 记录观看进度，首次看完某一集时记分
func (s *HistoryService) Record(ctx context.Context, userID, episodeID uint, progress int, completed bool) (*model.WatchHistory, error) {
	if progress < 0 {
		return nil, utils.NewError(utils.ErrInvalid, "进度不能为负数")
	}
	ep, err := s.repos.Episode.FindByID(episodeID)
	if err != nil {
		return nil, err
	}
	if ep == nil {
		return nil, utils.NewError(utils.ErrNotFound, "分集不存在")
	}

	h := &model.WatchHistory{
		UserID:    userID,
		EpisodeID: episodeID,
		MovieID:   ep.MovieID,
		Progress:  progress,
		Completed: completed,
		WatchedAt: time.Now(),
	}
	if err := s.repos.History.Upsert(h, s.limit); err != nil {
		return nil, err
	}
	if completed {
		s.gamification.OnAction(ctx, userID, model.ActionWatch, episodeID)
	}
	return s.repos.History.FindByUserAndEpisode(userID, episodeID)
}

// List 分页获取观看历史
func (s *HistoryService) List(userID uint, limit, offset int) ([]*model.WatchHistory, int64, error) {
	items, err := s.repos.History.ListByUser(userID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.repos.History.CountByUser(userID)
	return items, total, err
}

// Delete 删除一条观看记录
func (s *HistoryService) Delete(userID, id uint) error {
	return s.repos.History.Delete(userID, id)
}

// Clear 清空观看记录
func (s *HistoryService) Clear(userID uint) (int64, error) {
	return s.repos.History.Clear(userID)
}

// TrimAll 将所有超出上限的用户裁剪到上限以内
func (s *HistoryService) TrimAll() (int64, error) {
	ids, err := s.repos.History.UsersOverLimit(s.limit)
	if err != nil {
		return 0, err
	}
	var total int64
	for _, id := range ids {
		n, err := s.repos.History.Trim(id, s.limit)
		if err != nil {
			return total, err
		}
		total += n
	}
	return total, nil
}
