// Package metrics provides Prometheus metrics for the driveshelf server.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTP request metrics
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "driveshelf_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "driveshelf_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	// Content cache metrics
	contentCacheHitsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "driveshelf_content_cache_hits_total",
			Help: "Total content cache hits",
		},
	)

	contentCacheMissesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "driveshelf_content_cache_misses_total",
			Help: "Total content cache misses",
		},
	)

	contentCacheEvictionsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "driveshelf_content_cache_evictions_total",
			Help: "Total content cache entries evicted on expired reads",
		},
	)

	// Catalog metrics
	catalogWalkDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "driveshelf_catalog_walk_duration_seconds",
			Help:    "Time to walk the remote catalog",
			Buckets: prometheus.DefBuckets,
		},
	)

	catalogWalkFiles = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "driveshelf_catalog_walk_files",
			Help: "Number of locators found by the last catalog walk",
		},
	)

	// Adapter metrics
	adapterLoadDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "driveshelf_adapter_load_duration_seconds",
			Help:    "Adapter load duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"kind"},
	)

	adapterLoadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "driveshelf_adapter_loads_total",
			Help: "Total adapter loads",
		},
		[]string{"kind", "status"},
	)

	// Manifest metrics
	manifestRefreshesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "driveshelf_manifest_refreshes_total",
			Help: "Total manifest refresh checks",
		},
		[]string{"result"},
	)

	// Auth metrics
	authAttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "driveshelf_auth_attempts_total",
			Help: "Total authentication attempts",
		},
		[]string{"result"},
	)

	// Database metrics (ingest record store)
	dbQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "driveshelf_db_query_duration_seconds",
			Help:    "Database query duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"query"},
	)

	ingestRecordsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "driveshelf_ingest_records_total",
			Help: "Total RAG records built",
		},
		[]string{"element_type"},
	)

	// Remote store metrics
	remoteOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "driveshelf_remote_operation_duration_seconds",
			Help:    "Remote store operation duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	remoteOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "driveshelf_remote_operations_total",
			Help: "Total remote store operations",
		},
		[]string{"operation", "status"},
	)

	sseConnectionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "driveshelf_sse_connections_active",
			Help: "Number of active SSE subscribers",
		},
	)

	sseEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "driveshelf_sse_events_total",
			Help: "Total SSE events published",
		},
		[]string{"type"},
	)

	rateLimitHitsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "driveshelf_rate_limit_hits_total",
			Help: "Total requests rejected by the rate limiter",
		},
	)
)

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordHTTPRequest records an HTTP request metric.
func RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	httpRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// RecordContentCacheHit records a content cache hit.
func RecordContentCacheHit() {
	contentCacheHitsTotal.Inc()
}

// RecordContentCacheMiss records a content cache miss.
func RecordContentCacheMiss() {
	contentCacheMissesTotal.Inc()
}

// RecordContentCacheEviction records a lazy eviction of an expired entry.
func RecordContentCacheEviction() {
	contentCacheEvictionsTotal.Inc()
}

// RecordCatalogWalk records a catalog walk.
func RecordCatalogWalk(duration time.Duration, files int) {
	catalogWalkDuration.Observe(duration.Seconds())
	catalogWalkFiles.Set(float64(files))
}

// RecordAdapterLoad records an adapter load.
func RecordAdapterLoad(kind string, duration time.Duration, success bool) {
	adapterLoadDuration.WithLabelValues(kind).Observe(duration.Seconds())
	status := "success"
	if !success {
		status = "error"
	}
	adapterLoadsTotal.WithLabelValues(kind, status).Inc()
}

// RecordManifestRefresh records a manifest refresh check.
// result is one of "initial", "unchanged", "replaced", "error".
func RecordManifestRefresh(result string) {
	manifestRefreshesTotal.WithLabelValues(result).Inc()
}

// RecordAuthAttempt records an authentication attempt.
func RecordAuthAttempt(success bool) {
	result := "success"
	if !success {
		result = "failure"
	}
	authAttemptsTotal.WithLabelValues(result).Inc()
}

// RecordDBQuery records a database query duration.
func RecordDBQuery(query string, duration time.Duration) {
	dbQueryDuration.WithLabelValues(query).Observe(duration.Seconds())
}

// RecordIngestRecords records RAG record builds by element type.
func RecordIngestRecords(elementType string, count int) {
	ingestRecordsTotal.WithLabelValues(elementType).Add(float64(count))
}

// RecordRemoteOperation records a remote store operation.
func RecordRemoteOperation(operation string, duration time.Duration, success bool) {
	remoteOperationDuration.WithLabelValues(operation).Observe(duration.Seconds())
	status := "success"
	if !success {
		status = "error"
	}
	remoteOperationsTotal.WithLabelValues(operation, status).Inc()
}

// SetSSEConnectionsActive sets the active SSE subscriber count.
func SetSSEConnectionsActive(count int64) {
	sseConnectionsActive.Set(float64(count))
}

// RecordSSEEvent records a published SSE event.
func RecordSSEEvent(eventType string) {
	sseEventsTotal.WithLabelValues(eventType).Inc()
}

// RecordRateLimitHit records a rate-limited request.
func RecordRateLimitHit() {
	rateLimitHitsTotal.Inc()
}

type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Middleware records request counts and latency for every HTTP request.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(rw, r)
		RecordHTTPRequest(r.Method, r.URL.Path, rw.statusCode, time.Since(start))
	})
}
