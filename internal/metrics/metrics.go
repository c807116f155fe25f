package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics 应用的 Prometheus 指标
type Metrics struct {
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	PointsAwardedTotal *prometheus.CounterVec
	BadgesAwardedTotal *prometheus.CounterVec

	UploadsTotal     *prometheus.CounterVec
	CacheHitsTotal   *prometheus.CounterVec
	RateLimitedTotal *prometheus.CounterVec
}

var (
	instance *Metrics
	once     sync.Once
)

// Get 返回全局指标，首次调用时注册
func Get() *Metrics {
	once.Do(func() {
		instance = &Metrics{
			HTTPRequestsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "http_requests_total",
					Help: "Total number of HTTP requests",
				},
				[]string{"method", "path", "status"},
			),
			HTTPRequestDuration: promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "http_request_duration_seconds",
					Help:    "HTTP request latency in seconds",
					Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
				},
				[]string{"method", "path"},
			),
			PointsAwardedTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "gamification_points_awarded_total",
					Help: "Points awarded to users, by action",
				},
				[]string{"action"},
			),
			BadgesAwardedTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "gamification_badges_awarded_total",
					Help: "Badges awarded to users, by badge code",
				},
				[]string{"badge"},
			),
			UploadsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "uploads_total",
					Help: "Uploaded files, by kind and storage driver",
				},
				[]string{"kind", "driver"},
			),
			CacheHitsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "cache_lookups_total",
					Help: "In-process cache lookups, by cache and result",
				},
				[]string{"cache", "result"},
			),
			RateLimitedTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "rate_limited_requests_total",
					Help: "Requests rejected by the rate limiter",
				},
				[]string{"path"},
			),
		}
	})
	return instance
}

// CacheLookup 记录一次缓存查询
func CacheLookup(cache string, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	Get().CacheHitsTotal.WithLabelValues(cache, result).Inc()
}
