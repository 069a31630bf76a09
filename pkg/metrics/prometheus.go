// Package metrics provides Prometheus metrics for the signal import service.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Default metrics configuration constants.
const (
	defaultRefreshInterval = 10 * time.Second
)

// Manager owns all Prometheus metrics for the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	refreshInterval  time.Duration
	registry         prometheus.Registerer

	// Import pipeline metrics
	signalsImported    prometheus.Counter
	signalsSkipped     *prometheus.CounterVec
	signalsErrored     prometheus.Counter
	batchesProcessed   prometheus.Counter
	batchesRejected    *prometheus.CounterVec
	batchSize          prometheus.Histogram
	itemLatency        prometheus.Histogram
	enrichmentsApplied prometheus.Counter

	// Dedup index metrics
	indexBuildDuration prometheus.Histogram
	indexKeysLoaded    prometheus.Gauge
	indexFailOpen      prometheus.Counter

	// Store metrics
	storeInsertLatency prometheus.Histogram
	storeQueryLatency  prometheus.Histogram
	storeInsertErrors  prometheus.Counter
	storeRecordsTotal  prometheus.Gauge

	// Rate limiter metrics
	ratelimitAllowed prometheus.Counter
	ratelimitDenied  prometheus.Counter
	ratelimitBuckets prometheus.Gauge

	// HTTP metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// System metrics
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "securelab",
		subsystem:        "intel",
		histogramBuckets: prometheus.DefBuckets,
		enabled:          true,
		refreshInterval:  defaultRefreshInterval,
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.signalsImported = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "signals_imported_total",
		Help:      "Total number of signals persisted by the import pipeline",
	})

	m.signalsSkipped = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "signals_skipped_total",
			Help:      "Total number of signals skipped as duplicates, by match dimension",
		},
		[]string{"reason"},
	)

	m.signalsErrored = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "signals_errored_total",
		Help:      "Total number of signals that failed during item processing",
	})

	m.batchesProcessed = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "batches_processed_total",
		Help:      "Total number of import batches that ran to completion",
	})

	m.batchesRejected = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "batches_rejected_total",
			Help:      "Total number of batches rejected before processing, by cause",
		},
		[]string{"cause"},
	)

	m.batchSize = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "batch_size_signals",
		Help:      "Number of candidate signals per import batch",
		Buckets:   []float64{1, 5, 10, 25, 50, 100, 250, 500},
	})

	m.itemLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "item_processing_latency_milliseconds",
		Help:      "Per-item processing latency in milliseconds",
		Buckets:   m.histogramBuckets,
	})

	m.enrichmentsApplied = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "enrichments_applied_total",
		Help:      "Total number of signals that received derived metadata",
	})

	m.indexBuildDuration = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "dedup_index_build_duration_milliseconds",
		Help:      "Dedup index build duration in milliseconds",
		Buckets:   m.histogramBuckets,
	})

	m.indexKeysLoaded = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "dedup_index_keys",
		Help:      "Number of keys loaded into the last dedup index snapshot",
	})

	m.indexFailOpen = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "dedup_index_fail_open_total",
		Help:      "Times the dedup index degraded to empty because the store was unavailable",
	})

	m.storeInsertLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "store_insert_latency_milliseconds",
		Help:      "Store insert latency in milliseconds",
		Buckets:   m.histogramBuckets,
	})

	m.storeQueryLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "store_query_latency_milliseconds",
		Help:      "Store key-fetch latency in milliseconds",
		Buckets:   m.histogramBuckets,
	})

	m.storeInsertErrors = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "store_insert_errors_total",
		Help:      "Total number of store insert failures",
	})

	m.storeRecordsTotal = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "store_records_total",
		Help:      "Total number of signals in the persistent store",
	})

	m.ratelimitAllowed = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "ratelimit_allowed_total",
		Help:      "Total number of requests allowed by the rate limiter",
	})

	m.ratelimitDenied = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "ratelimit_denied_total",
		Help:      "Total number of requests denied by the rate limiter",
	})

	m.ratelimitBuckets = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "ratelimit_buckets",
		Help:      "Current number of live rate limit buckets",
	})

	m.httpRequests = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests by endpoint and method",
		},
		[]string{"endpoint", "method", "status_code"},
	)

	m.httpRequestDuration = auto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "http_request_duration_milliseconds",
			Help:      "HTTP request duration in milliseconds",
			Buckets:   m.histogramBuckets,
		},
		[]string{"endpoint", "method", "status_code"},
	)

	m.systemMemoryUsage = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "system_memory_usage_bytes",
		Help:      "Process memory usage in bytes",
	})

	m.systemGoroutineCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "system_goroutine_count",
		Help:      "Number of goroutines",
	})

	m.systemGCPauseTime = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "system_gc_pause_time_milliseconds",
		Help:      "GC pause time in milliseconds",
		Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000},
	})
}

// RecordSignalImported increments the imported signals counter.
func RecordSignalImported() {
	globalManager.signalsImported.Inc()
}

// RecordSignalSkipped increments the skipped signals counter for a reason ("url" or "cve").
func RecordSignalSkipped(reason string) {
	globalManager.signalsSkipped.WithLabelValues(reason).Inc()
}

// RecordSignalError increments the errored signals counter.
func RecordSignalError() {
	globalManager.signalsErrored.Inc()
}

// RecordBatchProcessed increments the processed batches counter.
func RecordBatchProcessed() {
	globalManager.batchesProcessed.Inc()
}

// RecordBatchRejected increments the rejected batches counter for a cause ("validation" or "auth").
func RecordBatchRejected(cause string) {
	globalManager.batchesRejected.WithLabelValues(cause).Inc()
}

// RecordBatchSize observes the candidate count of a batch.
func RecordBatchSize(n int) {
	globalManager.batchSize.Observe(float64(n))
}

// RecordItemLatency records per-item processing latency.
func RecordItemLatency(latencyMs float64) {
	globalManager.itemLatency.Observe(latencyMs)
}

// RecordEnrichmentApplied increments the enrichment counter.
func RecordEnrichmentApplied() {
	globalManager.enrichmentsApplied.Inc()
}

// RecordIndexBuildDuration records how long the dedup index took to build.
func RecordIndexBuildDuration(latencyMs float64) {
	globalManager.indexBuildDuration.Observe(latencyMs)
}

// UpdateIndexKeysLoaded sets the size of the last dedup index snapshot.
func UpdateIndexKeysLoaded(n int) {
	globalManager.indexKeysLoaded.Set(float64(n))
}

// RecordIndexFailOpen counts a fail-open (empty) index build.
func RecordIndexFailOpen() {
	globalManager.indexFailOpen.Inc()
}

// RecordStoreInsertLatency records store insert latency.
func RecordStoreInsertLatency(latencyMs float64) {
	globalManager.storeInsertLatency.Observe(latencyMs)
}

// RecordStoreQueryLatency records store key-fetch latency.
func RecordStoreQueryLatency(latencyMs float64) {
	globalManager.storeQueryLatency.Observe(latencyMs)
}

// RecordStoreInsertError increments the store insert error counter.
func RecordStoreInsertError() {
	globalManager.storeInsertErrors.Inc()
}

// UpdateStoreRecordsTotal sets the total record count gauge.
func UpdateStoreRecordsTotal(count int) {
	globalManager.storeRecordsTotal.Set(float64(count))
}

// RecordRatelimitAllowed increments the limiter allowed counter.
func RecordRatelimitAllowed() {
	globalManager.ratelimitAllowed.Inc()
}

// RecordRatelimitDenied increments the limiter denied counter.
func RecordRatelimitDenied() {
	globalManager.ratelimitDenied.Inc()
}

// UpdateRatelimitBuckets sets the live bucket count gauge.
func UpdateRatelimitBuckets(count int) {
	globalManager.ratelimitBuckets.Set(float64(count))
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// UpdateSystemMemoryUsage sets the process memory usage gauge.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the goroutine count gauge.
func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutineCount.Set(float64(count))
}

// RecordSystemGCPauseTime records GC pause time in milliseconds.
func RecordSystemGCPauseTime(pauseMs float64) {
	globalManager.systemGCPauseTime.Observe(pauseMs)
}

// GetRegistry returns the custom Prometheus registry used by the service.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
