package repository

import (
	"errors"

	"github.com/user/reelverse/internal/model"
	"gorm.io/gorm"
)

type WatchlistRepository struct {
	db *gorm.DB
}

func NewWatchlistRepository(db *gorm.DB) *WatchlistRepository {
	return &WatchlistRepository{db: db}
}

// Create 创建片单
func (r *WatchlistRepository) Create(w *model.Watchlist) error {
	return r.db.Omit("Movies").Create(w).Error
}

// FindByID 查找片单
func (r *WatchlistRepository) FindByID(id uint) (*model.Watchlist, error) {
	var w model.Watchlist
	err := r.db.First(&w, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &w, nil
}

// FindWithMovies 查找片单及其影片，最近添加的在前
func (r *WatchlistRepository) FindWithMovies(id uint) (*model.Watchlist, error) {
	w, err := r.FindByID(id)
	if err != nil || w == nil {
		return w, err
	}
	err = r.db.Model(&model.Movie{}).
		Select("movies.*").
		Joins("JOIN watchlist_movies wm ON wm.movie_id = movies.id").
		Where("wm.watchlist_id = ?", id).
		Order("wm.created_at DESC").
		Find(&w.Movies).Error
	w.MovieCount = int64(len(w.Movies))
	return w, err
}

// ListByUser 获取用户的片单及影片数量
func (r *WatchlistRepository) ListByUser(userID uint) ([]*model.Watchlist, error) {
	var lists []*model.Watchlist
	if err := r.db.Where("user_id = ?", userID).Order("created_at DESC").Order("id DESC").Find(&lists).Error; err != nil {
		return nil, err
	}
	if len(lists) == 0 {
		return lists, nil
	}

	ids := make([]uint, len(lists))
	for i, w := range lists {
		ids[i] = w.ID
	}
	var counts []struct {
		WatchlistID uint
		Total       int64
	}
	if err := r.db.Model(&model.WatchlistMovie{}).
		Select("watchlist_id, COUNT(*) AS total").
		Where("watchlist_id IN ?", ids).
		Group("watchlist_id").
		Scan(&counts).Error; err != nil {
		return nil, err
	}
	byID := make(map[uint]int64, len(counts))
	for _, c := range counts {
		byID[c.WatchlistID] = c.Total
	}
	for _, w := range lists {
		w.MovieCount = byID[w.ID]
	}
	return lists, nil
}

// Update 更新片单名称和公开状态
func (r *WatchlistRepository) Update(w *model.Watchlist) error {
	return r.db.Model(w).Select("name", "is_public").Updates(w).Error
}

// Delete 删除片单及其关联
func (r *WatchlistRepository) Delete(id uint) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("watchlist_id = ?", id).Delete(&model.WatchlistMovie{}).Error; err != nil {
			return err
		}
		return tx.Delete(&model.Watchlist{}, id).Error
	})
}

// HasMovie 片单中是否已有该影片
func (r *WatchlistRepository) HasMovie(watchlistID, movieID uint) (bool, error) {
	var count int64
	err := r.db.Model(&model.WatchlistMovie{}).
		Where("watchlist_id = ? AND movie_id = ?", watchlistID, movieID).
		Count(&count).Error
	return count > 0, err
}

// AddMovie 添加影片，重复添加返回 gorm.ErrDuplicatedKey
func (r *WatchlistRepository) AddMovie(watchlistID, movieID uint) error {
	exists, err := r.HasMovie(watchlistID, movieID)
	if err != nil {
		return err
	}
	if exists {
		return gorm.ErrDuplicatedKey
	}
	return r.db.Create(&model.WatchlistMovie{WatchlistID: watchlistID, MovieID: movieID}).Error
}

// RemoveMovie 移除影片，不存在时返回 gorm.ErrRecordNotFound
func (r *WatchlistRepository) RemoveMovie(watchlistID, movieID uint) error {
	res := r.db.Where("watchlist_id = ? AND movie_id = ?", watchlistID, movieID).Delete(&model.WatchlistMovie{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
