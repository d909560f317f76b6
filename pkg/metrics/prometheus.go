// Package metrics provides Prometheus metrics for the prizewheel service.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	defaultRefreshInterval = 10 * time.Second
)

// Manager owns every Prometheus collector used by the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	refreshInterval  time.Duration
	customLabels     map[string]string
	registry         prometheus.Registerer

	// Store client
	storeOps       *prometheus.CounterVec
	storeLatency   *prometheus.HistogramVec
	subscribeRetry *prometheus.CounterVec

	// Snapshot path
	snapshotsApplied *prometheus.CounterVec
	cacheSize        *prometheus.GaugeVec
	queueSize        prometheus.Gauge
	queueCapacity    prometheus.Gauge
	queueErrors      *prometheus.CounterVec
	applyLatency     prometheus.Histogram

	// Draws
	draws         *prometheus.CounterVec
	drawEntries   prometheus.Histogram
	spinPlayback  prometheus.Histogram
	notifications *prometheus.CounterVec

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	errorsByEndpoint    *prometheus.CounterVec

	// System
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // metrics registry without default Go collectors

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "prizewheel",
		subsystem:        "",
		histogramBuckets: prometheus.DefBuckets,
		enabled:          true,
		refreshInterval:  defaultRefreshInterval,
		customLabels:     make(map[string]string),
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) initializeMetrics() { //nolint:funlen // one place for every collector
	auto := promauto.With(m.registry)
	labels := prometheus.Labels(m.customLabels)

	m.storeOps = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "store_operations_total",
		Help:        "Store operations by operation, collection and outcome",
		ConstLabels: labels,
	}, []string{"op", "collection", "outcome"})

	m.storeLatency = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "store_operation_latency_milliseconds",
		Help:        "Store operation latency in milliseconds",
		Buckets:     []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500},
		ConstLabels: labels,
	}, []string{"op", "collection"})

	m.subscribeRetry = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "subscription_restarts_total",
		Help:        "Subscription restarts after an error, by collection",
		ConstLabels: labels,
	}, []string{"collection"})

	m.snapshotsApplied = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "snapshots_applied_total",
		Help:        "Snapshots applied to the state cache, by collection",
		ConstLabels: labels,
	}, []string{"collection"})

	m.cacheSize = auto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "cache_records",
		Help:        "Records currently held by the state cache, by collection",
		ConstLabels: labels,
	}, []string{"collection"})

	m.queueSize = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "snapshot_queue_size",
		Help:        "Snapshots waiting to be applied",
		ConstLabels: labels,
	})

	m.queueCapacity = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "snapshot_queue_capacity",
		Help:        "Capacity of the snapshot queue",
		ConstLabels: labels,
	})

	m.queueErrors = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "snapshot_queue_errors_total",
		Help:        "Snapshot enqueue failures by reason",
		ConstLabels: labels,
	}, []string{"reason"})

	m.applyLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "snapshot_apply_latency_milliseconds",
		Help:        "Time from snapshot receipt to cache replacement",
		Buckets:     m.histogramBuckets,
		ConstLabels: labels,
	})

	m.draws = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "draws_total",
		Help:        "Draw attempts by outcome",
		ConstLabels: labels,
	}, []string{"outcome"})

	m.drawEntries = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "draw_entries",
		Help:        "Number of entries in committed draws",
		Buckets:     []float64{1, 2, 5, 10, 25, 50, 100, 250, 500, 1000},
		ConstLabels: labels,
	})

	m.spinPlayback = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "spin_playback_milliseconds",
		Help:        "Wall-clock duration of spin animation playback",
		Buckets:     []float64{100, 500, 1000, 2000, 3000, 4000, 6000, 10000},
		ConstLabels: labels,
	})

	m.notifications = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "notifications_total",
		Help:        "Notifications raised, by severity",
		ConstLabels: labels,
	}, []string{"severity"})

	m.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "http_requests_total",
		Help:        "HTTP requests by endpoint, method and status code",
		ConstLabels: labels,
	}, []string{"endpoint", "method", "status_code"})

	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "http_request_duration_milliseconds",
		Help:        "HTTP request duration in milliseconds",
		Buckets:     m.histogramBuckets,
		ConstLabels: labels,
	}, []string{"endpoint", "method", "status_code"})

	m.errorsByEndpoint = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "http_errors_total",
		Help:        "HTTP errors by endpoint, method and error type",
		ConstLabels: labels,
	}, []string{"endpoint", "method", "error_type"})

	m.systemMemoryUsage = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "system_memory_usage_bytes",
		Help:        "Heap bytes allocated",
		ConstLabels: labels,
	})

	m.systemGoroutineCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "system_goroutine_count",
		Help:        "Number of goroutines",
		ConstLabels: labels,
	})

	m.systemGCPauseTime = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "system_gc_pause_time_milliseconds",
		Help:        "Average GC pause time in milliseconds",
		Buckets:     []float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000},
		ConstLabels: labels,
	})
}

// RecordStoreOperation counts one store operation and observes its latency.
func (m *Manager) RecordStoreOperation(op, collection string, ok bool, latency time.Duration) {
	if !m.enabled {
		return
	}
	outcome := "success"
	if !ok {
		outcome = "failure"
	}
	m.storeOps.WithLabelValues(op, collection, outcome).Inc()
	m.storeLatency.WithLabelValues(op, collection).Observe(float64(latency.Milliseconds()))
}

// RecordStoreOperation records a store operation on the global manager.
func RecordStoreOperation(op, collection string, ok bool, latency time.Duration) {
	globalManager.RecordStoreOperation(op, collection, ok, latency)
}

// RecordSubscriptionRestart increments the restart counter for collection.
func RecordSubscriptionRestart(collection string) {
	if !globalManager.enabled {
		return
	}
	globalManager.subscribeRetry.WithLabelValues(collection).Inc()
}

// RecordSnapshotApplied counts a cache replacement and sets the cache size.
func RecordSnapshotApplied(collection string, records int, latency time.Duration) {
	if !globalManager.enabled {
		return
	}
	globalManager.snapshotsApplied.WithLabelValues(collection).Inc()
	globalManager.cacheSize.WithLabelValues(collection).Set(float64(records))
	globalManager.applyLatency.Observe(float64(latency.Milliseconds()))
}

// UpdateQueueSize sets the current snapshot queue length.
func UpdateQueueSize(size int) {
	if !globalManager.enabled {
		return
	}
	globalManager.queueSize.Set(float64(size))
}

// UpdateQueueCapacity sets the snapshot queue capacity.
func UpdateQueueCapacity(capacity int) {
	if !globalManager.enabled {
		return
	}
	globalManager.queueCapacity.Set(float64(capacity))
}

// RecordQueueError counts a failed enqueue.
func RecordQueueError(reason string) {
	if !globalManager.enabled {
		return
	}
	globalManager.queueErrors.WithLabelValues(reason).Inc()
}

// RecordDraw counts a draw attempt by outcome ("committed", "no_entries", ...).
func RecordDraw(outcome string) {
	if !globalManager.enabled {
		return
	}
	globalManager.draws.WithLabelValues(outcome).Inc()
}

// RecordDrawEntries observes the entry count of a committed draw.
func RecordDrawEntries(n int) {
	if !globalManager.enabled {
		return
	}
	globalManager.drawEntries.Observe(float64(n))
}

// RecordSpinPlayback observes how long an animation took to play.
func RecordSpinPlayback(d time.Duration) {
	if !globalManager.enabled {
		return
	}
	globalManager.spinPlayback.Observe(float64(d.Milliseconds()))
}

// RecordNotification counts a notification by severity.
func RecordNotification(severity string) {
	if !globalManager.enabled {
		return
	}
	globalManager.notifications.WithLabelValues(severity).Inc()
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	if !globalManager.enabled {
		return
	}
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, durationMs float64) {
	if !globalManager.enabled {
		return
	}
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(durationMs)
}

// RecordErrorByEndpoint records an error with endpoint, method, and error type labels.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	if !globalManager.enabled {
		return
	}
	globalManager.errorsByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// UpdateSystemMemoryUsage sets the system memory usage in bytes.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the number of goroutines.
func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutineCount.Set(float64(count))
}

// RecordSystemGCPauseTime records GC pause time in milliseconds.
func RecordSystemGCPauseTime(pauseMs float64) {
	globalManager.systemGCPauseTime.Observe(pauseMs)
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}

// RefreshInterval reports how often system gauges should be refreshed.
func RefreshInterval() time.Duration {
	return globalManager.refreshInterval
}
