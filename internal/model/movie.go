package model

import (
	"time"
)

// 影片类型
const (
	MovieTypeMovie  = "movie"
	MovieTypeSeries = "series"
)

// 漫画连载状态
const (
	ComicStatusOngoing   = "ongoing"
	ComicStatusCompleted = "completed"
)

// Movie 电影/剧集
type Movie struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	Title       string    `json:"title" gorm:"size:255;not null;index"`
	Slug        string    `json:"slug" gorm:"uniqueIndex;size:255;not null"`
	Description string    `json:"description" gorm:"type:text"`
	ReleaseYear int       `json:"release_year" gorm:"index"`
	Genres      string    `json:"genres"` // 逗号分隔
	PosterURL   string    `json:"poster_url"`
	Type        string    `json:"type" gorm:"size:16;not null;default:movie"`
	AvgRating   float64   `json:"avg_rating" gorm:"not null;default:0"`
	RatingCount int       `json:"rating_count" gorm:"not null;default:0"`
	Episodes    []Episode `json:"episodes,omitempty" gorm:"constraint:OnDelete:CASCADE"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" gorm:"index"`
}

// Episode 分集
type Episode struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	MovieID     uint      `json:"movie_id" gorm:"not null;uniqueIndex:idx_episode_number"`
	Season      int       `json:"season" gorm:"not null;default:1;uniqueIndex:idx_episode_number"`
	Number      int       `json:"number" gorm:"not null;uniqueIndex:idx_episode_number"`
	Title       string    `json:"title" gorm:"size:255"`
	Description string    `json:"description" gorm:"type:text"`
	VideoURL    string    `json:"video_url"`
	DurationSec int       `json:"duration_sec"`
	Movie       *Movie    `json:"movie,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Comic 漫画
type Comic struct {
	ID           uint        `json:"id" gorm:"primaryKey"`
	Title        string      `json:"title" gorm:"size:255;not null;index"`
	Slug         string      `json:"slug" gorm:"uniqueIndex;size:255;not null"`
	Author       string      `json:"author" gorm:"size:255"`
	Description  string      `json:"description" gorm:"type:text"`
	Genres       string      `json:"genres"`
	CoverURL     string      `json:"cover_url"`
	ThumbnailURL string      `json:"thumbnail_url"`
	Status       string      `json:"status" gorm:"size:16;not null;default:ongoing"`
	Pages        []ComicPage `json:"pages,omitempty" gorm:"constraint:OnDelete:CASCADE"`
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`
}

// ComicPage 漫画页
type ComicPage struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	ComicID   uint      `json:"comic_id" gorm:"not null;uniqueIndex:idx_comic_page"`
	Chapter   int       `json:"chapter" gorm:"not null;uniqueIndex:idx_comic_page"`
	Number    int       `json:"number" gorm:"not null;uniqueIndex:idx_comic_page"`
	ImageURL  string    `json:"image_url"`
	Width     int       `json:"width"`
	Height    int       `json:"height"`
	CreatedAt time.Time `json:"created_at"`
}
