package repository

import (
	"errors"
	"time"

	"github.com/user/reelverse/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type HistoryRepository struct {
	db *gorm.DB
}

func NewHistoryRepository(db *gorm.DB) *HistoryRepository {
	return &HistoryRepository{db: db}
}

// Upsert 更新或插入观看记录，随后淘汰超出上限的最旧记录
func (r *HistoryRepository) Upsert(h *model.WatchHistory, limit int) error {
	if h.WatchedAt.IsZero() {
		h.WatchedAt = time.Now()
	}
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Episode", "Movie").Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "episode_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"movie_id", "progress", "completed", "watched_at"}),
		}).Create(h).Error; err != nil {
			return err
		}
		_, err := trimHistory(tx, h.UserID, limit)
		return err
	})
}

// Trim 将用户观看记录裁剪到 limit 条以内，返回删除条数
func (r *HistoryRepository) Trim(userID uint, limit int) (int64, error) {
	return trimHistory(r.db, userID, limit)
}

func trimHistory(db *gorm.DB, userID uint, limit int) (int64, error) {
	if limit <= 0 {
		return 0, nil
	}

	var count int64
	if err := db.Model(&model.WatchHistory{}).Where("user_id = ?", userID).Count(&count).Error; err != nil {
		return 0, err
	}
	excess := int(count) - limit
	if excess <= 0 {
		return 0, nil
	}

	var oldest []uint
	if err := db.Model(&model.WatchHistory{}).
		Where("user_id = ?", userID).
		Order("watched_at ASC").
		Order("id ASC").
		Limit(excess).
		Pluck("id", &oldest).Error; err != nil {
		return 0, err
	}

	res := db.Where("id IN ?", oldest).Delete(&model.WatchHistory{})
	return res.RowsAffected, res.Error
}

// UsersOverLimit 记录数超过 limit 的用户
func (r *HistoryRepository) UsersOverLimit(limit int) ([]uint, error) {
	var ids []uint
	err := r.db.Model(&model.WatchHistory{}).
		Select("user_id").
		Group("user_id").
		Having("COUNT(*) > ?", limit).
		Pluck("user_id", &ids).Error
	return ids, err
}

// FindByUserAndEpisode 查找用户某一集的观看记录
func (r *HistoryRepository) FindByUserAndEpisode(userID, episodeID uint) (*model.WatchHistory, error) {
	var h model.WatchHistory
	err := r.db.Where("user_id = ? AND episode_id = ?", userID, episodeID).First(&h).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &h, nil
}

// ListByUser 获取用户观看历史，最近的在前
func (r *HistoryRepository) ListByUser(userID uint, limit, offset int) ([]*model.WatchHistory, error) {
	var histories []*model.WatchHistory
	err := r.db.Preload("Episode").Preload("Movie").
		Where("user_id = ?", userID).
		Order("watched_at DESC").
		Order("id DESC").
		Limit(limit).
		Offset(offset).
		Find(&histories).Error
	return histories, err
}

// CountByUser 统计用户观看记录数量
func (r *HistoryRepository) CountByUser(userID uint) (int64, error) {
	var count int64
	err := r.db.Model(&model.WatchHistory{}).Where("user_id = ?", userID).Count(&count).Error
	return count, err
}

// Delete 删除一条观看记录，不属于该用户或不存在时返回 gorm.ErrRecordNotFound
func (r *HistoryRepository) Delete(userID, id uint) error {
	res := r.db.Where("user_id = ? AND id = ?", userID, id).Delete(&model.WatchHistory{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// Clear 清空用户观看记录
func (r *HistoryRepository) Clear(userID uint) (int64, error) {
	res := r.db.Where("user_id = ?", userID).Delete(&model.WatchHistory{})
	return res.RowsAffected, res.Error
}
