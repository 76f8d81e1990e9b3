package metrics

import (
	"runtime"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const nanosecondsPerMillisecond = 1e6

// latencyBuckets suit in-memory recomputes measured in milliseconds.
var latencyBuckets = []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 25, 50, 100, 250, 500}

// Manager owns every Prometheus collector of the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	registry         prometheus.Registerer

	// Analytics
	recomputes        *prometheus.CounterVec
	recomputeLatency  *prometheus.HistogramVec
	projections       prometheus.Counter
	projectionLatency prometheus.Histogram
	projectionRows    prometheus.Gauge
	filteredRows      prometheus.Gauge
	activeRows        prometheus.Gauge

	// Dataset
	rowsLoaded  prometheus.Gauge
	rowsDropped prometheus.Counter

	// Sessions and intents
	sessionsActive prometheus.Gauge
	intents        *prometheus.CounterVec
	intentLatency  prometheus.Histogram

	// Queue
	queueSize          prometheus.Gauge
	queueCapacity      prometheus.Gauge
	queueUtilization   prometheus.Gauge
	queueEnqueued      prometheus.Counter
	queueDequeued      prometheus.Counter
	queueEnqueueErrors prometheus.Counter

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Errors
	errorsByComponent *prometheus.CounterVec

	// System
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // metrics registry

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a metrics manager and registers its collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "podium",
		subsystem:        "analytics",
		histogramBuckets: latencyBuckets,
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) counter(name, help string) prometheus.Counter {
	return promauto.With(m.registry).NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help,
	})
}

func (m *Manager) gauge(name, help string) prometheus.Gauge {
	return promauto.With(m.registry).NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help,
	})
}

func (m *Manager) histogram(name, help string) prometheus.Histogram {
	return promauto.With(m.registry).NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help,
		Buckets: m.histogramBuckets,
	})
}

func (m *Manager) initializeMetrics() { //nolint:funlen // one place for every collector
	auto := promauto.With(m.registry)

	m.recomputes = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "recomputes_total",
		Help: "Recompute cascades by change kind (full or selection)",
	}, []string{"kind"})
	m.recomputeLatency = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name:    "recompute_latency_milliseconds",
		Help:    "Duration of recompute cascades in milliseconds",
		Buckets: m.histogramBuckets,
	}, []string{"kind"})
	m.projections = m.counter("projections_total", "Projections computed")
	m.projectionLatency = m.histogram("projection_latency_milliseconds", "Projection duration in milliseconds")
	m.projectionRows = m.gauge("projection_rows", "Rows in the most recent projection")
	m.filteredRows = m.gauge("filtered_rows", "Rows in the most recently computed filtered set")
	m.activeRows = m.gauge("active_rows", "Rows in the most recently computed active view")

	m.rowsLoaded = m.gauge("rows_loaded", "Rows in the loaded dataset")
	m.rowsDropped = m.counter("rows_dropped_total", "Rows rejected at ingestion")

	m.sessionsActive = m.gauge("sessions_active", "Open analysis sessions")
	m.intents = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "intents_total",
		Help: "Intents applied by kind and outcome",
	}, []string{"kind", "outcome"})
	m.intentLatency = m.histogram("intent_latency_milliseconds", "Time from submit to applied intent in milliseconds")

	m.queueSize = m.gauge("queue_size", "Pending intents in the queue")
	m.queueCapacity = m.gauge("queue_capacity", "Intent queue capacity")
	m.queueUtilization = m.gauge("queue_utilization_ratio", "Intent queue fill ratio")
	m.queueEnqueued = m.counter("queue_enqueue_total", "Intents enqueued")
	m.queueDequeued = m.counter("queue_dequeue_total", "Intents dequeued")
	m.queueEnqueueErrors = m.counter("queue_enqueue_errors_total", "Intents rejected by the queue")

	m.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "http_requests_total",
		Help: "HTTP requests by endpoint, method and status",
	}, []string{"endpoint", "method", "status_code"})
	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name:    "http_request_duration_milliseconds",
		Help:    "HTTP request duration in milliseconds",
		Buckets: m.histogramBuckets,
	}, []string{"endpoint", "method", "status_code"})

	m.errorsByComponent = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "errors_total",
		Help: "Errors by component and type",
	}, []string{"component", "error_type"})

	m.systemMemoryUsage = m.gauge("system_memory_bytes", "Allocated heap bytes")
	m.systemGoroutineCount = m.gauge("system_goroutines", "Number of goroutines")
	m.systemGCPauseTime = m.histogram("system_gc_pause_milliseconds", "Average GC pause in milliseconds")
}

// RecordRecompute counts a recompute cascade of kind and its duration.
func RecordRecompute(kind string, latencyMs float64) {
	globalManager.recomputes.WithLabelValues(kind).Inc()
	globalManager.recomputeLatency.WithLabelValues(kind).Observe(latencyMs)
}

// RecordProjection counts a projection over rows rows.
func RecordProjection(rows int, latencyMs float64) {
	globalManager.projections.Inc()
	globalManager.projectionLatency.Observe(latencyMs)
	globalManager.projectionRows.Set(float64(rows))
}

// UpdateViewSizes sets the filtered and active row gauges.
func UpdateViewSizes(filtered, active int) {
	globalManager.filteredRows.Set(float64(filtered))
	globalManager.activeRows.Set(float64(active))
}

// UpdateRowsLoaded sets the dataset size.
func UpdateRowsLoaded(count int) {
	globalManager.rowsLoaded.Set(float64(count))
}

// RecordRowsDropped adds rows rejected at ingestion.
func RecordRowsDropped(count int) {
	globalManager.rowsDropped.Add(float64(count))
}

// UpdateSessionsActive sets the number of open sessions.
func UpdateSessionsActive(count int) {
	globalManager.sessionsActive.Set(float64(count))
}

// RecordIntent counts an intent by kind and outcome ("ok" or "error").
func RecordIntent(kind, outcome string, latencyMs float64) {
	globalManager.intents.WithLabelValues(kind, outcome).Inc()
	globalManager.intentLatency.Observe(latencyMs)
}

// UpdateQueueSize sets the number of pending intents.
func UpdateQueueSize(size int) {
	globalManager.queueSize.Set(float64(size))
}

// UpdateQueueCapacity sets the maximum queue capacity.
func UpdateQueueCapacity(capacity int) {
	globalManager.queueCapacity.Set(float64(capacity))
}

// UpdateQueueUtilization sets the queue utilization ratio.
func UpdateQueueUtilization(utilization float64) {
	globalManager.queueUtilization.Set(utilization)
}

// RecordQueueEnqueue increments the enqueue counter.
func RecordQueueEnqueue() {
	globalManager.queueEnqueued.Inc()
}

// RecordQueueDequeue increments the dequeue counter.
func RecordQueueDequeue() {
	globalManager.queueDequeued.Inc()
}

// RecordQueueEnqueueError increments the enqueue error counter.
func RecordQueueEnqueueError() {
	globalManager.queueEnqueueErrors.Inc()
}

// RecordHTTPRequest records a completed HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string, durationMs float64) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(durationMs)
}

// RecordErrorByComponent records an error with component and type labels.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorsByComponent.WithLabelValues(component, errorType).Inc()
}

// UpdateSystemMetrics samples memory, goroutine and GC statistics.
func UpdateSystemMetrics() {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	globalManager.systemMemoryUsage.Set(float64(ms.Alloc))
	globalManager.systemGoroutineCount.Set(float64(runtime.NumGoroutine()))
	if ms.NumGC > 0 {
		globalManager.systemGCPauseTime.Observe(float64(ms.PauseTotalNs) / float64(ms.NumGC) / nanosecondsPerMillisecond)
	}
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
