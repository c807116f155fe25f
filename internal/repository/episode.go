package repository

import (
	"errors"

	"github.com/user/reelverse/internal/model"
	"gorm.io/gorm"
)

type EpisodeRepository struct {
	db *gorm.DB
}

func NewEpisodeRepository(db *gorm.DB) *EpisodeRepository {
	return &EpisodeRepository{db: db}
}

// ListByMovie 获取影片的全部分集
func (r *EpisodeRepository) ListByMovie(movieID uint) ([]*model.Episode, error) {
	var episodes []*model.Episode
	err := r.db.Where("movie_id = ?", movieID).
		Order("season ASC").
		Order("number ASC").
		Find(&episodes).Error
	return episodes, err
}

// FindByID 根据 ID 查找分集
func (r *EpisodeRepository) FindByID(id uint) (*model.Episode, error) {
	var ep model.Episode
	err := r.db.First(&ep, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &ep, nil
}

// Create 创建分集，同一季集数重复时返回 gorm.ErrDuplicatedKey
func (r *EpisodeRepository) Create(ep *model.Episode) error {
	return r.db.Omit("Movie").Create(ep).Error
}

// Update 更新分集
func (r *EpisodeRepository) Update(ep *model.Episode) error {
	return r.db.Model(ep).Select("season", "number", "title", "description", "video_url", "duration_sec").Updates(ep).Error
}

// Delete 删除分集及其评论与观看记录
func (r *EpisodeRepository) Delete(id uint) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("episode_id = ?", id).Delete(&model.Comment{}).Error; err != nil {
			return err
		}
		if err := tx.Where("episode_id = ?", id).Delete(&model.WatchHistory{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&model.Episode{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

// Count 分集总数
func (r *EpisodeRepository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&model.Episode{}).Count(&count).Error
	return count, err
}
