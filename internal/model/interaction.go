package model

import (
	"time"
)

// Comment 评论，ParentID 非空时为回复
// EpisodeID 与 ComicID 有且只有一个非空，回复继承父评论的目标
type Comment struct {
	ID        uint       `json:"id" gorm:"primaryKey"`
	UserID    uint       `json:"user_id" gorm:"not null;index"`
	EpisodeID *uint      `json:"episode_id,omitempty" gorm:"index"`
	ComicID   *uint      `json:"comic_id,omitempty" gorm:"index"`
	ParentID  *uint      `json:"parent_id,omitempty" gorm:"index"`
	Content   string     `json:"content" gorm:"type:text;not null"`
	User      *Author    `json:"user,omitempty" gorm:"foreignKey:UserID"`
	Replies   []*Comment `json:"replies" gorm:"foreignKey:ParentID"`
	CreatedAt time.Time  `json:"created_at" gorm:"index"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// Rating 评分与短评
type Rating struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	UserID    uint      `json:"user_id" gorm:"not null;uniqueIndex:idx_user_movie_rating"`
	MovieID   uint      `json:"movie_id" gorm:"not null;uniqueIndex:idx_user_movie_rating;index"`
	Score     int       `json:"score" gorm:"not null;check:score >= 1 AND score <= 5"`
	Review    string    `json:"review" gorm:"type:text"`
	User      *Author   `json:"user,omitempty" gorm:"foreignKey:UserID"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// RatingSummary 影片评分汇总
type RatingSummary struct {
	Avg   float64 `json:"avg"`
	Count int64   `json:"count"`
}

// Watchlist 片单
type Watchlist struct {
	ID         uint      `json:"id" gorm:"primaryKey"`
	UserID     uint      `json:"user_id" gorm:"not null;index"`
	Name       string    `json:"name" gorm:"size:100;not null"`
	IsPublic   bool      `json:"is_public" gorm:"not null;default:false"`
	Movies     []Movie   `json:"movies,omitempty" gorm:"many2many:watchlist_movies"`
	MovieCount int64     `json:"movie_count" gorm:"-"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// WatchlistMovie 片单与影片的关联表，(watchlist_id, movie_id) 唯一
type WatchlistMovie struct {
	WatchlistID uint      `json:"watchlist_id" gorm:"primaryKey"`
	MovieID     uint      `json:"movie_id" gorm:"primaryKey"`
	CreatedAt   time.Time `json:"added_at"`
}

// WatchHistory 观看记录，每个用户每集一条
type WatchHistory struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	UserID    uint      `json:"user_id" gorm:"not null;uniqueIndex:idx_user_episode_history"`
	EpisodeID uint      `json:"episode_id" gorm:"not null;uniqueIndex:idx_user_episode_history"`
	MovieID   uint      `json:"movie_id" gorm:"not null;index"`
	Progress  int       `json:"progress"` // 秒
	Completed bool      `json:"completed" gorm:"not null;default:false"`
	WatchedAt time.Time `json:"watched_at" gorm:"index"`
	Episode   *Episode  `json:"episode,omitempty"`
	Movie     *Movie    `json:"movie,omitempty"`
}
