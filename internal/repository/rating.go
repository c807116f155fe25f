package repository

import (
	"errors"
	"math"
	"time"

	"github.com/user/reelverse/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type RatingRepository struct {
	db *gorm.DB
}

func NewRatingRepository(db *gorm.DB) *RatingRepository {
	return &RatingRepository{db: db}
}

// Upsert 创建或更新用户对影片的评分，并刷新影片汇总
func (r *RatingRepository) Upsert(rating *model.Rating) (*model.Rating, error) {
	err := r.db.Transaction(func(tx *gorm.DB) error {
		rating.UpdatedAt = time.Now()
		if err := tx.Omit("User").Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "movie_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"score", "review", "updated_at"}),
		}).Create(rating).Error; err != nil {
			return err
		}
		return refreshMovieRating(tx, rating.MovieID)
	})
	if err != nil {
		return nil, err
	}
	return r.FindByUserAndMovie(rating.UserID, rating.MovieID)
}

// FindByUserAndMovie 查找用户对影片的评分
func (r *RatingRepository) FindByUserAndMovie(userID, movieID uint) (*model.Rating, error) {
	var rating model.Rating
	err := r.db.Preload("User").Where("user_id = ? AND movie_id = ?", userID, movieID).First(&rating).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rating, nil
}

// Delete 删除用户对影片的评分，不存在时返回 gorm.ErrRecordNotFound
func (r *RatingRepository) Delete(userID, movieID uint) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Where("user_id = ? AND movie_id = ?", userID, movieID).Delete(&model.Rating{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return refreshMovieRating(tx, movieID)
	})
}

// ListByMovie 分页获取影片的评分与短评
func (r *RatingRepository) ListByMovie(movieID uint, limit, offset int) ([]*model.Rating, error) {
	var ratings []*model.Rating
	err := r.db.Preload("User").
		Where("movie_id = ?", movieID).
		Order("updated_at DESC").
		Order("id DESC").
		Limit(limit).
		Offset(offset).
		Find(&ratings).Error
	return ratings, err
}

// Summary 影片评分汇总
func (r *RatingRepository) Summary(movieID uint) (model.RatingSummary, error) {
	return ratingSummary(r.db, movieID)
}

func ratingSummary(db *gorm.DB, movieID uint) (model.RatingSummary, error) {
	var s model.RatingSummary
	err := db.Model(&model.Rating{}).
		Select("COALESCE(AVG(score), 0) AS avg, COUNT(*) AS count").
		Where("movie_id = ?", movieID).
		Scan(&s).Error
	return s, err
}

// refreshMovieRating 重新计算影片平均分与评分人数
func refreshMovieRating(tx *gorm.DB, movieID uint) error {
	s, err := ratingSummary(tx, movieID)
	if err != nil {
		return err
	}
	return tx.Model(&model.Movie{}).Where("id = ?", movieID).Updates(map[string]interface{}{
		"avg_rating":   math.Round(s.Avg*100) / 100,
		"rating_count": s.Count,
	}).Error
}
