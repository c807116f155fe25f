package repository

import (
	"errors"

	"github.com/user/reelverse/internal/model"
	"gorm.io/gorm"
)

type MovieRepository struct {
	db *gorm.DB
}

func NewMovieRepository(db *gorm.DB) *MovieRepository {
	return &MovieRepository{db: db}
}

// MovieFilter 影片列表筛选条件
type MovieFilter struct {
	Query  string
	Genre  string
	Type   string
	Limit  int
	Offset int
}

// List 按条件分页查询影片
func (r *MovieRepository) List(f MovieFilter) ([]*model.Movie, int64, error) {
	q := r.db.Model(&model.Movie{})
	if f.Query != "" {
		q = q.Where(`LOWER(title) LIKE ? ESCAPE '\'`, containsPattern(f.Query))
	}
	if f.Genre != "" {
		q = genreMatch(q, f.Genre)
	}
	if f.Type != "" {
		q = q.Where("type = ?", f.Type)
	}

	q = q.Session(&gorm.Session{})
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var movies []*model.Movie
	err := q.Order("created_at DESC").Order("id DESC").Limit(f.Limit).Offset(f.Offset).Find(&movies).Error
	return movies, total, err
}

// FindByID 根据 ID 查找影片
func (r *MovieRepository) FindByID(id uint) (*model.Movie, error) {
	var movie model.Movie
	err := r.db.First(&movie, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &movie, nil
}

// FindWithEpisodes 查找影片及其分集（按季、集排序）
func (r *MovieRepository) FindWithEpisodes(id uint) (*model.Movie, error) {
	var movie model.Movie
	err := r.db.Preload("Episodes", func(db *gorm.DB) *gorm.DB {
		return db.Order("season ASC").Order("number ASC")
	}).First(&movie, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &movie, nil
}

// Create 创建影片
func (r *MovieRepository) Create(movie *model.Movie) error {
	return r.db.Omit("Episodes").Create(movie).Error
}

// Update 更新影片基础信息
func (r *MovieRepository) Update(movie *model.Movie) error {
	return r.db.Model(movie).Select("title", "slug", "description", "release_year", "genres", "poster_url", "type").Updates(movie).Error
}

// Delete 删除影片及其分集、评分、片单关联、观看记录和分集评论
func (r *MovieRepository) Delete(id uint) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var episodeIDs []uint
		if err := tx.Model(&model.Episode{}).Where("movie_id = ?", id).Pluck("id", &episodeIDs).Error; err != nil {
			return err
		}
		if len(episodeIDs) > 0 {
			if err := tx.Where("episode_id IN ?", episodeIDs).Delete(&model.Comment{}).Error; err != nil {
				return err
			}
		}

		for _, m := range []interface{}{
			&model.WatchHistory{}, &model.Rating{}, &model.WatchlistMovie{}, &model.Episode{},
		} {
			if err := tx.Where("movie_id = ?", id).Delete(m).Error; err != nil {
				return err
			}
		}

		res := tx.Delete(&model.Movie{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

// Count 影片总数
func (r *MovieRepository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&model.Movie{}).Count(&count).Error
	return count, err
}
