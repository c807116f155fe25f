package repository

import (
	"errors"
	"time"

	"github.com/user/reelverse/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type GamificationRepository struct {
	db *gorm.DB
}

func NewGamificationRepository(db *gorm.DB) *GamificationRepository {
	return &GamificationRepository{db: db}
}

// AddPoints 写入积分流水并累加用户积分，同一用户、行为与对象只记一次
// 返回最新总积分以及本次是否记分
func (r *GamificationRepository) AddPoints(userID uint, action string, refID uint, points int) (int, bool, error) {
	var (
		total    int
		inserted bool
	)
	err := r.db.Transaction(func(tx *gorm.DB) error {
		event := &model.PointEvent{UserID: userID, Action: action, RefID: refID, Points: points}
		res := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "action"}, {Name: "ref_id"}},
			DoNothing: true,
		}).Create(event)
		if res.Error != nil {
			return res.Error
		}
		inserted = res.RowsAffected > 0

		if inserted {
			res = tx.Model(&model.User{}).Where("id = ?", userID).
				UpdateColumn("points", gorm.Expr("points + ?", points))
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return gorm.ErrRecordNotFound
			}
		}

		var pts []int
		if err := tx.Model(&model.User{}).Where("id = ?", userID).Pluck("points", &pts).Error; err != nil {
			return err
		}
		if len(pts) == 0 {
			return gorm.ErrRecordNotFound
		}
		total = pts[0]
		return nil
	})
	if err != nil {
		return 0, false, err
	}
	return total, inserted, nil
}

// ActionCounts 按行为统计用户的积分流水条数
func (r *GamificationRepository) ActionCounts(userID uint) (map[string]int64, error) {
	var rows []struct {
		Action string
		Total  int64
	}
	if err := r.db.Model(&model.PointEvent{}).
		Select("action, COUNT(*) AS total").
		Where("user_id = ?", userID).
		Group("action").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	out := make(map[string]int64, len(rows))
	for _, row := range rows {
		out[row.Action] = row.Total
	}
	return out, nil
}

// UserPoints 用户当前积分
func (r *GamificationRepository) UserPoints(userID uint) (int, error) {
	var points []int
	if err := r.db.Model(&model.User{}).Where("id = ?", userID).Pluck("points", &points).Error; err != nil {
		return 0, err
	}
	if len(points) == 0 {
		return 0, gorm.ErrRecordNotFound
	}
	return points[0], nil
}

// RecentEvents 最近的积分流水
func (r *GamificationRepository) RecentEvents(userID uint, limit int) ([]*model.PointEvent, error) {
	var events []*model.PointEvent
	err := r.db.Where("user_id = ?", userID).Order("created_at DESC").Order("id DESC").Limit(limit).Find(&events).Error
	return events, err
}

// ListBadges 全部徽章，按维度和门槛排序
func (r *GamificationRepository) ListBadges() ([]*model.Badge, error) {
	var badges []*model.Badge
	err := r.db.Order("kind ASC").Order("threshold ASC").Order("id ASC").Find(&badges).Error
	return badges, err
}

// FindBadge 根据 ID 查找徽章
func (r *GamificationRepository) FindBadge(id uint) (*model.Badge, error) {
	var b model.Badge
	err := r.db.First(&b, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// CreateBadge 创建徽章，code 重复时返回 gorm.ErrDuplicatedKey
func (r *GamificationRepository) CreateBadge(b *model.Badge) error {
	return r.db.Create(b).Error
}

// DeleteBadge 删除徽章及其发放记录
func (r *GamificationRepository) DeleteBadge(id uint) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("badge_id = ?", id).Delete(&model.UserBadge{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&model.Badge{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

// UserBadges 用户已获得的徽章
func (r *GamificationRepository) UserBadges(userID uint) ([]*model.UserBadge, error) {
	var ubs []*model.UserBadge
	err := r.db.Preload("Badge").Where("user_id = ?", userID).Order("awarded_at ASC").Find(&ubs).Error
	return ubs, err
}

// AwardBadge 发放徽章，已拥有时返回 false
func (r *GamificationRepository) AwardBadge(userID, badgeID uint) (bool, error) {
	res := r.db.Clauses(clause.OnConflict{DoNothing: true}).Create(&model.UserBadge{
		UserID:    userID,
		BadgeID:   badgeID,
		AwardedAt: time.Now(),
	})
	return res.RowsAffected > 0, res.Error
}

// TopUsers 积分排行
func (r *GamificationRepository) TopUsers(limit int) ([]*model.Author, error) {
	var users []*model.Author
	err := r.db.Order("points DESC").Order("id ASC").Limit(limit).Find(&users).Error
	return users, err
}

// AuthorsByIDs 批量获取用户公开信息
func (r *GamificationRepository) AuthorsByIDs(ids []uint) (map[uint]*model.Author, error) {
	var users []*model.Author
	if err := r.db.Where("id IN ?", ids).Find(&users).Error; err != nil {
		return nil, err
	}
	out := make(map[uint]*model.Author, len(users))
	for _, u := range users {
		out[u.ID] = u
	}
	return out, nil
}
