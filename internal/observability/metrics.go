package observability

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "schemaforge_http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "schemaforge_http_request_duration_seconds",
			Help:    "HTTP request latency by route.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	generationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "schemaforge_generations_total",
			Help: "SQL generation requests by outcome.",
		},
		[]string{"outcome"},
	)

	generationDurationSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "schemaforge_generation_upstream_duration_seconds",
			Help:    "Latency of the upstream generation call.",
			Buckets: []float64{0.5, 1, 2, 5, 10, 20, 30, 60},
		},
	)

	promptBytes = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "schemaforge_prompt_bytes",
			Help:    "Size of composed prompts in bytes.",
			Buckets: prometheus.ExponentialBuckets(256, 4, 8),
		},
	)
)

func init() {
	prometheus.MustRegister(
		httpRequestsTotal,
		httpRequestDurationSeconds,
		generationsTotal,
		generationDurationSeconds,
		promptBytes,
	)
}

// MetricsHandler serves the prometheus scrape endpoint
func MetricsHandler() gin.HandlerFunc {
	return gin.WrapH(promhttp.Handler())
}

// RequestMetrics instruments every request with count and latency
func RequestMetrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		status := strconv.Itoa(c.Writer.Status())
		httpRequestsTotal.WithLabelValues(c.Request.Method, path, status).Inc()
		httpRequestDurationSeconds.WithLabelValues(c.Request.Method, path, status).Observe(time.Since(start).Seconds())
	}
}

// ObserveGeneration records one generation attempt
func ObserveGeneration(outcome string, upstreamDuration time.Duration, promptSize int) {
	generationsTotal.WithLabelValues(outcome).Inc()
	if upstreamDuration > 0 {
		generationDurationSeconds.Observe(upstreamDuration.Seconds())
	}
	if promptSize > 0 {
		promptBytes.Observe(float64(promptSize))
	}
}
