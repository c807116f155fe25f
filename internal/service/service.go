package service

import (
	"github.com/user/reelverse/internal/repository"
	"github.com/user/reelverse/internal/storage"
)

// Services 服务集合
type Services struct {
	Auth         *AuthService
	Catalog      *CatalogService
	Comments     *CommentService
	Ratings      *RatingService
	Watchlists   *WatchlistService
	History      *HistoryService
	Gamification *GamificationService
	Media        *MediaService
	Cleanup      *CleanupService

	// 未配置时为 nil
	Google   GoogleProvider
	Firebase FirebaseVerifier
}

// Options 创建服务集合所需的外部依赖
type Options struct {
	Storage       storage.Storage
	MaxUploadSize int64
	HistoryLimit  int
	Leaderboard   Leaderboard
	Google        GoogleProvider
	Firebase      FirebaseVerifier
}

// NewServices 创建服务集合
func NewServices(repos *repository.Repositories, opts Options) *Services {
	gamification := NewGamificationService(repos.Gamification, opts.Leaderboard)
	media := NewMediaService(opts.Storage, opts.MaxUploadSize)
	catalog := NewCatalogService(repos, media)
	history := NewHistoryService(repos, gamification, opts.HistoryLimit)

	return &Services{
		Auth:         NewAuthService(repos.User),
		Catalog:      catalog,
		Comments:     NewCommentService(repos, gamification),
		Ratings:      NewRatingService(repos, catalog, gamification),
		Watchlists:   NewWatchlistService(repos, gamification),
		History:      history,
		Gamification: gamification,
		Media:        media,
		Cleanup:      NewCleanupService(history, catalog),
		Google:       opts.Google,
		Firebase:     opts.Firebase,
	}
}
