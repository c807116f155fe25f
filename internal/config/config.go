package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const defaultSecret = "your-secret-key-change-in-production"

// Config 应用配置
type Config struct {
	Env         string
	AppSecret   string
	DatabaseURL string
	JWTExpiry   time.Duration
	Port        string
	SiteName    string
	SiteUrl     string

	LogLevel  string
	LogFile   string
	SentryDSN string

	RedisAddr     string
	RedisPassword string

	Upload UploadConfig
	OAuth  OAuthConfig

	FirebaseCredentialsFile string

	HistoryLimit int
	CORSOrigins  []string
}

// UploadConfig 文件上传配置
type UploadConfig struct {
	Driver  string // local | s3
	Dir     string
	BaseURL string
	Bucket  string
	Region  string
	MaxSize int64
}

// OAuthConfig Google 登录配置
type OAuthConfig struct {
	GoogleClientID     string
	GoogleClientSecret string
	RedirectURL        string
}

// Load 加载配置
func Load() *Config {
	v := viper.New()
	v.AutomaticEnv()
	setDefaults(v)

	dbURL := v.GetString("DATABASE_URL")
	if dbURL == "" {
		dbURL = fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
			v.GetString("DB_USER"), v.GetString("DB_PASSWORD"), v.GetString("DB_HOST"),
			v.GetString("DB_PORT"), v.GetString("DB_NAME"), v.GetString("DB_SSLMODE"))
	}

	appSecret := v.GetString("APP_SECRET")
	if appSecret == "" {
		appSecret = v.GetString("JWT_SECRET")
	}

	env := v.GetString("APP_ENV")
	if env == "production" && appSecret == defaultSecret {
		fmt.Println("【严重警告】生产环境正在使用默认密钥！请立即设置 APP_SECRET 环境变量。")
	}

	historyLimit := v.GetInt("HISTORY_LIMIT")
	if historyLimit <= 0 {
		historyLimit = 500
	}

	return &Config{
		Env:           env,
		AppSecret:     appSecret,
		DatabaseURL:   dbURL,
		JWTExpiry:     time.Duration(v.GetInt("JWT_EXPIRY_HOURS")) * time.Hour,
		Port:          v.GetString("PORT"),
		SiteName:      v.GetString("SITE_NAME"),
		SiteUrl:       v.GetString("SITE_URL"),
		LogLevel:      v.GetString("LOG_LEVEL"),
		LogFile:       v.GetString("LOG_FILE"),
		SentryDSN:     v.GetString("SENTRY_DSN"),
		RedisAddr:     v.GetString("REDIS_ADDR"),
		RedisPassword: v.GetString("REDIS_PASSWORD"),
		Upload: UploadConfig{
			Driver:  v.GetString("UPLOAD_DRIVER"),
			Dir:     v.GetString("UPLOAD_DIR"),
			BaseURL: v.GetString("UPLOAD_BASE_URL"),
			Bucket:  v.GetString("S3_BUCKET"),
			Region:  v.GetString("S3_REGION"),
			MaxSize: v.GetInt64("UPLOAD_MAX_BYTES"),
		},
		OAuth: OAuthConfig{
			GoogleClientID:     v.GetString("GOOGLE_CLIENT_ID"),
			GoogleClientSecret: v.GetString("GOOGLE_CLIENT_SECRET"),
			RedirectURL:        v.GetString("OAUTH_REDIRECT_URL"),
		},
		FirebaseCredentialsFile: v.GetString("FIREBASE_CREDENTIALS_FILE"),
		HistoryLimit:            historyLimit,
		CORSOrigins:             splitList(v.GetString("CORS_ORIGINS")),
	}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("APP_SECRET", "")
	v.SetDefault("JWT_SECRET", defaultSecret)
	v.SetDefault("JWT_EXPIRY_HOURS", 72)
	v.SetDefault("PORT", "5005")
	v.SetDefault("SITE_NAME", "Reelverse")
	v.SetDefault("SITE_URL", "http://localhost:5005")

	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_NAME", "reelverse")
	v.SetDefault("DB_SSLMODE", "disable")

	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FILE", "logs/server.log")

	v.SetDefault("UPLOAD_DRIVER", "local")
	v.SetDefault("UPLOAD_DIR", "./uploads")
	v.SetDefault("UPLOAD_BASE_URL", "/uploads")
	v.SetDefault("S3_REGION", "us-east-1")
	v.SetDefault("UPLOAD_MAX_BYTES", 10<<20)

	v.SetDefault("OAUTH_REDIRECT_URL", "http://localhost:5005/api/auth/google/callback")
	v.SetDefault("HISTORY_LIMIT", 500)
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000")
}

// IsProduction 是否为生产环境
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
