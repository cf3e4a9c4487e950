// Package metrics provides Prometheus metrics for the coinboard service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns all Prometheus collectors for the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	registry         prometheus.Registerer

	// Business metrics
	observationWrites prometheus.Counter
	boardQueries      *prometheus.CounterVec
	seriesQueries     *prometheus.CounterVec
	registeredUsers   prometheus.Gauge

	// Cache metrics
	cacheHits          prometheus.Counter
	cacheMisses        prometheus.Counter
	cacheInvalidations prometheus.Counter

	// Store metrics
	storeQueryLatency prometheus.Histogram

	// HTTP metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// System metrics
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithRegistry(customRegistry))
}

// Option applies a configuration option to the Manager.
type Option func(*Manager)

// WithRegistry overrides the Prometheus registerer.
func WithRegistry(r prometheus.Registerer) Option {
	return func(m *Manager) {
		if r != nil {
			m.registry = r
		}
	}
}

// WithHistogramBuckets overrides the latency histogram buckets.
func WithHistogramBuckets(buckets []float64) Option {
	return func(m *Manager) {
		if len(buckets) > 0 {
			m.histogramBuckets = buckets
		}
	}
}

// NewManager creates a metrics manager and registers its collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "coinboard",
		subsystem:        "ranking",
		histogramBuckets: prometheus.DefBuckets,
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

	m.observationWrites = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "observation_writes_total",
		Help:      "Total number of coin observations written or updated",
	})

	m.boardQueries = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "board_queries_total",
			Help:      "Total number of board snapshot queries by metric",
		},
		[]string{"metric"},
	)

	m.seriesQueries = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "series_queries_total",
			Help:      "Total number of chart series queries by metric",
		},
		[]string{"metric"},
	)

	m.registeredUsers = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "registered_users",
		Help:      "Number of registered users",
	})

	m.cacheHits = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "cache_hits_total",
		Help:      "Total number of result cache hits",
	})

	m.cacheMisses = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "cache_misses_total",
		Help:      "Total number of result cache misses",
	})

	m.cacheInvalidations = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "cache_invalidations_total",
		Help:      "Total number of full result cache invalidations",
	})

	m.storeQueryLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "store_query_latency_milliseconds",
		Help:      "Observation store query latency in milliseconds",
		Buckets:   m.histogramBuckets,
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
		Subsystem: "system",
		Name:      "memory_usage_bytes",
		Help:      "Current memory usage in bytes",
	})

	m.systemGoroutineCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: "system",
		Name:      "goroutine_count",
		Help:      "Current number of goroutines",
	})
}

// RecordObservationWrite increments the observation write counter.
func RecordObservationWrite() {
	globalManager.observationWrites.Inc()
}

// RecordBoardQuery counts a board snapshot query for a metric.
func RecordBoardQuery(metric string) {
	globalManager.boardQueries.WithLabelValues(metric).Inc()
}

// RecordSeriesQuery counts a chart series query for a metric.
func RecordSeriesQuery(metric string) {
	globalManager.seriesQueries.WithLabelValues(metric).Inc()
}

// UpdateRegisteredUsers sets the registered user gauge.
func UpdateRegisteredUsers(count int) {
	globalManager.registeredUsers.Set(float64(count))
}

// RecordCacheHit increments the cache hit counter.
func RecordCacheHit() {
	globalManager.cacheHits.Inc()
}

// RecordCacheMiss increments the cache miss counter.
func RecordCacheMiss() {
	globalManager.cacheMisses.Inc()
}

// RecordCacheInvalidation increments the cache invalidation counter.
func RecordCacheInvalidation() {
	globalManager.cacheInvalidations.Inc()
}

// RecordStoreQueryLatency records observation store query latency.
func RecordStoreQueryLatency(latencyMs float64) {
	globalManager.storeQueryLatency.Observe(latencyMs)
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, durationMs float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(durationMs)
}

// UpdateSystemMemoryUsage sets the memory usage gauge.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the goroutine count gauge.
func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutineCount.Set(float64(count))
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
