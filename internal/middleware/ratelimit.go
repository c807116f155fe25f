package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"github.com/user/reelverse/internal/metrics"
	"github.com/user/reelverse/internal/utils"
	"golang.org/x/time/rate"
)

// RateLimitConfig 限流配置
type RateLimitConfig struct {
	// 窗口内允许的请求数
	Limit int
	// 窗口长度
	Window time.Duration
}

// AuthRateLimitConfig 登录注册接口的限流
func AuthRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{Limit: 10, Window: time.Minute}
}

// RateLimiter 按客户端 IP 的令牌桶限流
type RateLimiter struct {
	cfg      RateLimitConfig
	limiters *cache.Cache
}

// NewRateLimiter 创建限流器，闲置的 IP 在两个窗口后被清理
func NewRateLimiter(cfg RateLimitConfig) *RateLimiter {
	if cfg.Limit <= 0 {
		cfg.Limit = 1
	}
	if cfg.Window <= 0 {
		cfg.Window = time.Minute
	}
	return &RateLimiter{
		cfg:      cfg,
		limiters: cache.New(2*cfg.Window, 4*cfg.Window),
	}
}

func (rl *RateLimiter) limiter(key string) *rate.Limiter {
	if v, ok := rl.limiters.Get(key); ok {
		l := v.(*rate.Limiter)
		rl.limiters.SetDefault(key, l)
		return l
	}
	every := rate.Every(rl.cfg.Window / time.Duration(rl.cfg.Limit))
	l := rate.NewLimiter(every, rl.cfg.Limit)
	// 并发首次访问时以先写入者为准
	if err := rl.limiters.Add(key, l, cache.DefaultExpiration); err != nil {
		if v, ok := rl.limiters.Get(key); ok {
			return v.(*rate.Limiter)
		}
	}
	return l
}

// Allow 该 key 是否还有配额
func (rl *RateLimiter) Allow(key string) bool {
	return rl.limiter(key).Allow()
}

// Middleware 超出配额返回 429
func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !rl.Allow(c.ClientIP()) {
			metrics.Get().RateLimitedTotal.WithLabelValues(c.FullPath()).Inc()
			c.Header("Retry-After", "60")
			utils.TooManyRequests(c)
			c.Abort()
			return
		}
		c.Next()
	}
}
