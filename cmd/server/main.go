package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata" // 确保在精简镜像中也能识别时区

	"github.com/getsentry/sentry-go"
	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/user/reelverse/internal/config"
	"github.com/user/reelverse/internal/handler"
	"github.com/user/reelverse/internal/logger"
	"github.com/user/reelverse/internal/repository"
	"github.com/user/reelverse/internal/router"
	"github.com/user/reelverse/internal/service"
	"github.com/user/reelverse/internal/storage"
	"github.com/user/reelverse/internal/utils"
	"go.uber.org/zap"
)

func main() {
	// 加载环境变量
	envErr := godotenv.Load()

	// 加载配置
	cfg := config.Load()

	if err := logger.Init(cfg.LogLevel, cfg.LogFile); err != nil {
		panic(err)
	}
	defer logger.Sync()
	log := logger.Log

	if envErr != nil {
		log.Info("未找到 .env 文件，使用系统环境变量")
	}

	// 错误上报
	var extra []gin.HandlerFunc
	if cfg.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              cfg.SentryDSN,
			Environment:      cfg.Env,
			AttachStacktrace: true,
		}); err != nil {
			log.Fatal("Sentry 初始化失败", zap.Error(err))
		}
		defer sentry.Flush(2 * time.Second)
		extra = append(extra, sentrygin.New(sentrygin.Options{Repanic: true}))
	}

	// 初始化数据库
	db, err := repository.InitDB(cfg.DatabaseURL, !cfg.IsProduction())
	if err != nil {
		log.Fatal("数据库连接失败", zap.Error(err))
	}
	sqlDB, _ := db.DB()
	defer sqlDB.Close()

	if err := repository.Migrate(db); err != nil {
		log.Fatal("数据库迁移失败", zap.Error(err))
	}

	// 初始化仓库
	repos := repository.NewRepositories(db)

	// 初始化缓存
	utils.InitCache()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := storage.New(ctx, cfg.Upload)
	if err != nil {
		log.Fatal("初始化文件存储失败", zap.Error(err))
	}

	opts := service.Options{
		Storage:       store,
		MaxUploadSize: cfg.Upload.MaxSize,
		HistoryLimit:  cfg.HistoryLimit,
		Leaderboard:   newLeaderboard(ctx, cfg, repos),
	}
	if g := service.NewGoogleOAuth(cfg.OAuth.GoogleClientID, cfg.OAuth.GoogleClientSecret, cfg.OAuth.RedirectURL); g != nil {
		opts.Google = g
	}
	if cfg.FirebaseCredentialsFile != "" {
		fb, err := service.NewFirebaseAuth(ctx, cfg.FirebaseCredentialsFile)
		if err != nil {
			log.Fatal("初始化 Firebase 失败", zap.Error(err))
		}
		opts.Firebase = fb
	}
	svc := service.NewServices(repos, opts)

	// 初始化 Gin
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	h := handler.NewHandler(repos, cfg, svc)
	r := router.NewEngine(h, extra...)

	// 启动定时清理任务
	svc.Cleanup.Start(ctx)

	srv := &http.Server{
		Addr:           ":" + cfg.Port,
		Handler:        r,
		ReadTimeout:    15 * time.Second,
		WriteTimeout:   30 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	go func() {
		log.Info("服务器启动", zap.String("addr", "http://localhost:"+cfg.Port), zap.String("storage", store.Driver()))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("服务器启动失败", zap.Error(err))
		}
	}()

	// 等待中断信号以优雅地关闭服务器
	<-ctx.Done()
	log.Info("正在关闭服务器...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("服务器强制关闭", zap.Error(err))
	}
	log.Info("服务器已退出")
}

// newLeaderboard 配置了 Redis 时使用有序集合排行榜，否则直接查库
func newLeaderboard(ctx context.Context, cfg *config.Config, repos *repository.Repositories) service.Leaderboard {
	if cfg.RedisAddr == "" {
		return service.NewDBLeaderboard(repos.Gamification)
	}

	client := redis.NewClient(&redis.Options{
		Addr:         cfg.RedisAddr,
		Password:     cfg.RedisPassword,
		MaxRetries:   3,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		logger.Log.Warn("Redis 不可用，排行榜使用数据库", zap.String("addr", cfg.RedisAddr), zap.Error(err))
		_ = client.Close()
		return service.NewDBLeaderboard(repos.Gamification)
	}

	board := service.NewRedisLeaderboard(client, repos.Gamification)
	n, err := board.Rebuild(pingCtx, 1000)
	if err != nil {
		logger.Log.Warn("重建排行榜失败", zap.Error(err))
	} else {
		logger.Log.Info("排行榜已从数据库重建", zap.Int("users", n))
	}
	return board
}
