package metrics

import (
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RequestTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	CapacityAdjustments = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "capacity_adjustments_total",
			Help: "Capacity adjustment attempts by outcome",
		},
		[]string{"outcome"},
	)
	LockWaitDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "capacity_lock_wait_seconds",
			Help:    "Time spent acquiring capacity locks",
			Buckets: []float64{.0005, .001, .005, .01, .05, .1, .5, 1, 5},
		},
	)
	HoldTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hold_transitions_total",
			Help: "Hold lifecycle transitions by target status",
		},
		[]string{"status"},
	)
	HoldRejections = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hold_rejections_total",
			Help: "Rejected hold requests by reason",
		},
		[]string{"reason"},
	)
	SweepFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "hold_sweep_failures_total",
			Help: "Expired holds the sweep could not transition",
		},
	)
)

// NormalizePath keeps the first two path segments after the API prefix so ids do not explode label cardinality.
func NormalizePath(p string) string {
	p = strings.TrimPrefix(p, "/")
	p = strings.TrimPrefix(p, "api/v1/")
	if idx := strings.Index(p, "/"); idx >= 0 {
		p = p[:idx]
	}
	if p == "" {
		return "root"
	}
	return p
}

func Middleware(c *gin.Context) {
	if c.Request.URL.Path == "/metrics" {
		c.Next()
		return
	}
	start := time.Now()
	c.Next()
	duration := time.Since(start).Seconds()
	path := NormalizePath(c.Request.URL.Path)
	status := strconv.Itoa(c.Writer.Status())
	RequestTotal.WithLabelValues(c.Request.Method, path, status).Inc()
	RequestDuration.WithLabelValues(c.Request.Method, path).Observe(duration)
}
