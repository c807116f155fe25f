package router

import (
	"net/http"
	"strings"

	"github.com/gin-contrib/gzip"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/user/reelverse/internal/handler"
	"github.com/user/reelverse/internal/middleware"
)

// NewEngine 创建 Gin 引擎并挂载公共中间件与全部路由
func NewEngine(h *handler.Handler, extra ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(extra...)

	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Metrics())
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS(h.Config.CORSOrigins))

	// 启用 gzip，默认压缩级别
	r.Use(gzip.Gzip(gzip.DefaultCompression))

	// Session 仅用于保存 OAuth state
	store := cookie.NewStore([]byte(h.Config.AppSecret))
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   600,
		HttpOnly: true,
		Secure:   h.Config.IsProduction(),
		SameSite: http.SameSiteLaxMode,
	})
	r.Use(sessions.Sessions("reelverse_session", store))

	RegisterRoutes(r, h)
	return r
}

// RegisterRoutes 注册所有路由
func RegisterRoutes(r *gin.Engine, h *handler.Handler) {
	secret := h.Config.AppSecret
	loadUser := middleware.UserLoader(h.Repos.User.FindByID)

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// 本地存储的上传文件
	if up := h.Config.Upload; (up.Driver == "" || up.Driver == "local") && strings.HasPrefix(up.BaseURL, "/") {
		r.Static(up.BaseURL, up.Dir)
	}

	api := r.Group("/api")
	api.Use(middleware.OptionalAuth(secret, loadUser))

	requireAuth := middleware.RequireAuth(secret, loadUser)
	admin := []gin.HandlerFunc{requireAuth, middleware.RequireAdmin()}

	// ==================== 认证 ====================
	limiter := middleware.NewRateLimiter(middleware.AuthRateLimitConfig())
	auth := api.Group("/auth")
	{
		auth.POST("/register", limiter.Middleware(), h.Register)
		auth.POST("/login", limiter.Middleware(), h.Login)
		auth.POST("/firebase", limiter.Middleware(), h.FirebaseLogin)
		auth.POST("/logout", h.Logout)
		auth.GET("/google/login", h.GoogleLogin)
		auth.GET("/google/callback", h.GoogleCallback)
		auth.GET("/me", requireAuth, h.Me)
		auth.PUT("/profile", requireAuth, h.UpdateProfile)
		auth.PUT("/password", requireAuth, h.UpdatePassword)
	}

	// ==================== 影片与分集 ====================
	movies := api.Group("/movies")
	{
		movies.GET("", h.ListMovies)
		movies.GET("/:id", h.GetMovie)
		movies.POST("", append(admin, h.CreateMovie)...)
		movies.PUT("/:id", append(admin, h.UpdateMovie)...)
		movies.DELETE("/:id", append(admin, h.DeleteMovie)...)

		movies.GET("/:id/episodes", h.ListEpisodes)
		movies.POST("/:id/episodes", append(admin, h.CreateEpisode)...)

		movies.GET("/:id/ratings", h.ListRatings)
		movies.POST("/:id/ratings", requireAuth, h.RateMovie)
		movies.DELETE("/:id/ratings", requireAuth, h.DeleteRating)
	}

	episodes := api.Group("/episodes")
	{
		episodes.GET("/:id", h.GetEpisode)
		episodes.PUT("/:id", append(admin, h.UpdateEpisode)...)
		episodes.DELETE("/:id", append(admin, h.DeleteEpisode)...)
		episodes.GET("/:id/comments", h.ListEpisodeComments)
		episodes.POST("/:id/comments", requireAuth, h.CreateEpisodeComment)
	}

	// ==================== 漫画 ====================
	comics := api.Group("/comics")
	{
		comics.GET("", h.ListComics)
		comics.GET("/:id", h.GetComic)
		comics.POST("", append(admin, h.CreateComic)...)
		comics.PUT("/:id", append(admin, h.UpdateComic)...)
		comics.DELETE("/:id", append(admin, h.DeleteComic)...)
		comics.POST("/:id/pages", append(admin, h.AddComicPages)...)
		comics.DELETE("/:id/pages/:pageId", append(admin, h.DeleteComicPage)...)
		comics.GET("/:id/comments", h.ListComicComments)
		comics.POST("/:id/comments", requireAuth, h.CreateComicComment)
	}

	// ==================== 评论 ====================
	comments := api.Group("/comments")
	{
		comments.GET("/:id", h.GetComment)
		comments.PUT("/:id", requireAuth, h.UpdateComment)
		comments.DELETE("/:id", requireAuth, h.DeleteComment)
	}

	// ==================== 片单 ====================
	watchlists := api.Group("/watchlists")
	{
		watchlists.GET("", requireAuth, h.ListWatchlists)
		watchlists.POST("", requireAuth, h.CreateWatchlist)
		watchlists.GET("/:id", h.GetWatchlist)
		watchlists.PUT("/:id", requireAuth, h.UpdateWatchlist)
		watchlists.DELETE("/:id", requireAuth, h.DeleteWatchlist)
		watchlists.POST("/:id/movies", requireAuth, h.AddWatchlistMovie)
		watchlists.DELETE("/:id/movies/:movieId", requireAuth, h.RemoveWatchlistMovie)
	}

	// ==================== 观看记录 ====================
	history := api.Group("/history", requireAuth)
	{
		history.GET("", h.ListHistory)
		history.POST("", h.RecordHistory)
		history.DELETE("", h.ClearHistory)
		history.DELETE("/:id", h.DeleteHistory)
	}

	// ==================== 积分与徽章 ====================
	api.GET("/gamification/me", requireAuth, h.MyGamification)
	api.GET("/gamification/leaderboard", h.Leaderboard)
	api.GET("/badges", h.ListBadges)

	// ==================== 管理后台 ====================
	adminGroup := api.Group("/admin", admin...)
	{
		adminGroup.GET("/stats", h.AdminStats)
		adminGroup.GET("/users", h.AdminUsers)
		adminGroup.PUT("/users/:id/roles", h.AdminSetRoles)
		adminGroup.DELETE("/users/:id", h.AdminDeleteUser)
		adminGroup.POST("/badges", h.AdminCreateBadge)
		adminGroup.DELETE("/badges/:id", h.AdminDeleteBadge)
	}
}
