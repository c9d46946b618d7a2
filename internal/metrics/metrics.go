package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "company_service_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "company_service_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	cacheHitsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "company_service_cache_hits_total",
			Help: "Total number of cache hits",
		},
		[]string{"key_kind"},
	)

	cacheMissesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "company_service_cache_misses_total",
			Help: "Total number of cache misses",
		},
		[]string{"key_kind"},
	)

	deletionsStartedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "company_service_deletions_started_total",
			Help: "Total number of company deletions started",
		},
	)

	deletionsCompletedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "company_service_deletions_completed_total",
			Help: "Total number of company deletions completed",
		},
	)
)

// Middleware tracks request counts and latency per method, route and status.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		duration := time.Since(start).Seconds()
		method := c.Request.Method
		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		status := strconv.Itoa(c.Writer.Status())

		httpRequestsTotal.WithLabelValues(method, path, status).Inc()
		httpRequestDuration.WithLabelValues(method, path, status).Observe(duration)
	}
}

// Handler exposes the prometheus scrape endpoint.
func Handler() gin.HandlerFunc {
	return gin.WrapH(promhttp.Handler())
}

// RecordCacheHit increments the cache hit counter for a key kind.
func RecordCacheHit(keyKind string) {
	cacheHitsTotal.WithLabelValues(keyKind).Inc()
}

// RecordCacheMiss increments the cache miss counter for a key kind.
func RecordCacheMiss(keyKind string) {
	cacheMissesTotal.WithLabelValues(keyKind).Inc()
}

// RecordDeletionStarted increments the deletions-started counter.
func RecordDeletionStarted() {
	deletionsStartedTotal.Inc()
}

// RecordDeletionCompleted increments the deletions-completed counter.
func RecordDeletionCompleted() {
	deletionsCompletedTotal.Inc()
}
