package service

import (
	"context"
	"fmt"

	"github.com/user/reelverse/internal/logger"
	"github.com/user/reelverse/internal/metrics"
	"github.com/user/reelverse/internal/model"
	"github.com/user/reelverse/internal/repository"
	"github.com/user/reelverse/internal/utils"
	"go.uber.org/zap"
)

// 各行为对应的积分
var pointValues = map[string]int{
	model.ActionComment:   5,
	model.ActionRating:    3,
	model.ActionWatch:     2,
	model.ActionWatchlist: 1,
}

// 徽章维度对应的积分流水行为
var badgeKindActions = map[string]string{
	model.BadgeKindComments: model.ActionComment,
	model.BadgeKindRatings:  model.ActionRating,
	model.BadgeKindWatches:  model.ActionWatch,
}

// GamificationService 积分与徽章
type GamificationService struct {
	repo  *repository.GamificationRepository
	board Leaderboard
	db    *DBLeaderboard
	log   *zap.Logger
}

// NewGamificationService 创建积分服务，board 为空时使用数据库排行
func NewGamificationService(repo *repository.GamificationRepository, board Leaderboard) *GamificationService {
	db := NewDBLeaderboard(repo)
	if board == nil {
		board = db
	}
	return &GamificationService{
		repo:  repo,
		board: board,
		db:    db,
		log:   logger.Named("gamification"),
	}
}

// PointsFor 行为对应的积分
func PointsFor(action string) (int, bool) {
	p, ok := pointValues[action]
	return p, ok
}

// AwardPoints 为用户的一次行为记分，同一对象重复触发不再计分
// 返回用户最新总积分与本次所得积分
func (s *GamificationService) AwardPoints(ctx context.Context, userID uint, action string, refID uint) (total int, awarded int, err error) {
	points, ok := pointValues[action]
	if !ok {
		return 0, 0, utils.NewError(utils.ErrInvalid, fmt.Sprintf("未知的积分行为: %s", action))
	}

	total, inserted, err := s.repo.AddPoints(userID, action, refID, points)
	if err != nil {
		return 0, 0, err
	}
	if !inserted {
		return total, 0, nil
	}
	metrics.Get().PointsAwardedTotal.WithLabelValues(action).Add(float64(points))

	if err := s.board.Update(ctx, userID, total); err != nil {
		s.log.Warn("更新排行榜失败", logger.WithUserID(userID), zap.Error(err))
	}
	return total, points, nil
}

// CheckAndAwardBadges 发放用户已满足条件但尚未拥有的徽章，返回本次新获得的徽章
func (s *GamificationService) CheckAndAwardBadges(ctx context.Context, userID uint) ([]*model.Badge, error) {
	counts, err := s.repo.ActionCounts(userID)
	if err != nil {
		return nil, err
	}
	points, err := s.repo.UserPoints(userID)
	if err != nil {
		return nil, err
	}
	badges, err := s.repo.ListBadges()
	if err != nil {
		return nil, err
	}

	var awarded []*model.Badge
	for _, b := range badges {
		var progress int64
		if b.Kind == model.BadgeKindPoints {
			progress = int64(points)
		} else if action, ok := badgeKindActions[b.Kind]; ok {
			progress = counts[action]
		} else {
			continue
		}
		if progress < int64(b.Threshold) {
			continue
		}

		inserted, err := s.repo.AwardBadge(userID, b.ID)
		if err != nil {
			return awarded, err
		}
		if inserted {
			awarded = append(awarded, b)
			metrics.Get().BadgesAwardedTotal.WithLabelValues(b.Code).Inc()
			s.log.Info("发放徽章", logger.WithUserID(userID), zap.String("badge", b.Code))
		}
	}
	return awarded, nil
}

// OnAction 写操作之后的积分与徽章副作用，失败只记录日志
func (s *GamificationService) OnAction(ctx context.Context, userID uint, action string, refID uint) {
	if _, _, err := s.AwardPoints(ctx, userID, action, refID); err != nil {
		s.log.Error("记分失败",
			logger.WithUserID(userID),
			zap.String("action", action),
			zap.Uint("ref_id", refID),
			zap.Error(err),
		)
		return
	}
	if _, err := s.CheckAndAwardBadges(ctx, userID); err != nil {
		s.log.Error("检查徽章失败", logger.WithUserID(userID), zap.Error(err))
	}
}

// Profile 用户积分概览
type Profile struct {
	Points int                 `json:"points"`
	Badges []*model.UserBadge  `json:"badges"`
	Recent []*model.PointEvent `json:"recent_events"`
}

// Profile 获取用户积分、徽章与最近积分记录
func (s *GamificationService) Profile(ctx context.Context, userID uint) (*Profile, error) {
	points, err := s.repo.UserPoints(userID)
	if err != nil {
		return nil, err
	}
	badges, err := s.repo.UserBadges(userID)
	if err != nil {
		return nil, err
	}
	recent, err := s.repo.RecentEvents(userID, 20)
	if err != nil {
		return nil, err
	}
	return &Profile{Points: points, Badges: badges, Recent: recent}, nil
}

// Leaderboard 积分排行，Redis 不可用时回退到数据库
func (s *GamificationService) Leaderboard(ctx context.Context, limit int) ([]LeaderboardEntry, error) {
	if limit <= 0 || limit > 100 {
		limit = 10
	}
	entries, err := s.board.Top(ctx, limit)
	if err == nil {
		return entries, nil
	}
	if s.board == Leaderboard(s.db) {
		return nil, err
	}
	s.log.Warn("读取排行榜失败，回退到数据库", zap.Error(err))
	return s.db.Top(ctx, limit)
}

// ForgetUser 用户删除后清理排行榜
func (s *GamificationService) ForgetUser(ctx context.Context, userID uint) {
	r, ok := s.board.(interface {
		Remove(ctx context.Context, userID uint) error
	})
	if !ok {
		return
	}
	if err := r.Remove(ctx, userID); err != nil {
		s.log.Warn("从排行榜移除用户失败", logger.WithUserID(userID), zap.Error(err))
	}
}

// Badges 全部徽章
func (s *GamificationService) Badges() ([]*model.Badge, error) {
	return s.repo.ListBadges()
}

// CreateBadge 创建徽章
func (s *GamificationService) CreateBadge(b *model.Badge) error {
	switch b.Kind {
	case model.BadgeKindComments, model.BadgeKindRatings, model.BadgeKindWatches, model.BadgeKindPoints:
	default:
		return utils.NewError(utils.ErrInvalid, "未知的徽章类型")
	}
	if b.Threshold < 1 {
		return utils.NewError(utils.ErrInvalid, "门槛必须大于 0")
	}
	if err := s.repo.CreateBadge(b); err != nil {
		return err
	}
	return nil
}

// DeleteBadge 删除徽章
func (s *GamificationService) DeleteBadge(id uint) error {
	return s.repo.DeleteBadge(id)
}
