// Package observability owns Prometheus collectors and the OpenTelemetry tracer.
package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RedisErrors counts failed Redis commands by command name.
	RedisErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "scribe_redis_errors_total",
		Help: "Total number of Redis errors by command",
	}, []string{"command"})

	// PageCacheResults counts home feed cache lookups by outcome.
	PageCacheResults = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "scribe_page_cache_results_total",
		Help: "Home feed page cache lookups by result",
	}, []string{"result"})

	// PageCacheInvalidations counts explicit page cache flushes.
	PageCacheInvalidations = promauto.NewCounter(prometheus.CounterOpts{
		Name: "scribe_page_cache_invalidations_total",
		Help: "Explicit home feed cache invalidations",
	})

	// DatabaseQueryLatency records repository query latency by operation and table.
	DatabaseQueryLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "scribe_database_query_latency_seconds",
		Help:    "Database query latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "table"})

	// ContentCreated counts successfully stored posts, comments and follow edges.
	ContentCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "scribe_content_created_total",
		Help: "Created records by kind",
	}, []string{"kind"})

	// ImageProcessingLatency records decode, resize and encode time for uploads.
	ImageProcessingLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "scribe_image_processing_seconds",
		Help:    "Time spent normalizing uploaded post images",
		Buckets: prometheus.DefBuckets,
	})
)

// TrackQuery returns a function that records query latency when called (e.g. defer).
func TrackQuery(operation, table string) func() {
	start := time.Now()
	return func() {
		DatabaseQueryLatency.WithLabelValues(operation, table).Observe(time.Since(start).Seconds())
	}
}
