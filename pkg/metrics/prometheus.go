// Package metrics provides Prometheus metrics for the redzone ranking service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager manages all Prometheus metrics for the redzone service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	registry         prometheus.Registerer

	// Cycle Metrics - one poll/derive/rank/actuate pass per tenant
	cyclesTotal     *prometheus.CounterVec
	cycleDuration   prometheus.Histogram
	eventsTracked   *prometheus.GaugeVec
	eventsEvicted   prometheus.Counter
	excitementScore *prometheus.GaugeVec

	// Derivation Metrics - debounce, data quality, plays
	debounceActivations *prometheus.CounterVec
	scoreRegressions    prometheus.Counter
	playsObserved       prometheus.Counter
	possessionTier      *prometheus.CounterVec

	// Provider Metrics
	providerErrors  *prometheus.CounterVec
	providerLatency prometheus.Histogram

	// Actuation Metrics
	channelSwitches *prometheus.CounterVec

	// Fetch Queue / Worker Metrics
	queueSize               prometheus.Gauge
	queueCapacity           prometheus.Gauge
	queueEnqueueErrors      *prometheus.CounterVec
	workerActiveCount       prometheus.Gauge
	workerProcessingLatency prometheus.Histogram

	// HTTP / Streaming Metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	wsClients           prometheus.Gauge

	// Tenant Metrics
	tenants prometheus.Gauge

	// System Performance Metrics
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "redzone",
		subsystem:        "engine",
		histogramBuckets: prometheus.DefBuckets,
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() { //nolint:funlen // long function required for comprehensive metrics initialization
	auto := promauto.With(m.registry)

	m.cyclesTotal = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "cycles_total",
		Help:      "Total number of ranking cycles by outcome",
	}, []string{"outcome"})

	m.cycleDuration = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "cycle_duration_milliseconds",
		Help:      "Duration of a full poll/derive/rank cycle in milliseconds",
		Buckets:   []float64{10, 50, 100, 250, 500, 1000, 2500, 5000, 10000, 20000},
	})

	m.eventsTracked = auto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "events_tracked",
		Help:      "Number of live events tracked per tenant",
	}, []string{"tenant"})

	m.eventsEvicted = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "events_evicted_total",
		Help:      "Total number of event states discarded after leaving the live list",
	})

	m.excitementScore = auto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "excitement_score",
		Help:      "Latest excitement score per tenant and event",
	}, []string{"tenant", "event_id"})

	m.debounceActivations = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "debounce_transitions_total",
		Help:      "Debounce transitions by kind (timeout, score_change) and direction",
	}, []string{"kind", "transition"})

	m.scoreRegressions = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "score_regressions_total",
		Help:      "Snapshots whose score decreased for a live event (data error indicator)",
	})

	m.playsObserved = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "plays_observed_total",
		Help:      "Distinct plays observed across all events",
	})

	m.possessionTier = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "possession_resolutions_total",
		Help:      "Possession resolutions by the tier that succeeded",
	}, []string{"tier"})

	m.providerErrors = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "provider_errors_total",
		Help:      "Sports data provider failures by operation",
	}, []string{"op"})

	m.providerLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "provider_latency_milliseconds",
		Help:      "Sports data provider snapshot latency in milliseconds",
		Buckets:   m.histogramBuckets,
	})

	m.channelSwitches = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "channel_switches_total",
		Help:      "Channel actuation attempts by result (ok, rejected, auth_lost)",
	}, []string{"result"})

	m.queueSize = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "fetch_queue_size",
		Help:      "Current number of pending snapshot fetch jobs",
	})

	m.queueCapacity = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "fetch_queue_capacity",
		Help:      "Maximum fetch queue capacity",
	})

	m.queueEnqueueErrors = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "fetch_queue_enqueue_errors_total",
		Help:      "Fetch jobs rejected by the queue by reason",
	}, []string{"reason"})

	m.workerActiveCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "fetch_workers",
		Help:      "Number of fetch workers",
	})

	m.workerProcessingLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "fetch_worker_latency_milliseconds",
		Help:      "Time a fetch job spends in a worker in milliseconds",
		Buckets:   m.histogramBuckets,
	})

	m.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "http_requests_total",
		Help:      "Total number of HTTP requests by endpoint and method",
	}, []string{"endpoint", "method", "status_code"})

	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "http_request_duration_milliseconds",
		Help:      "HTTP request duration in milliseconds",
		Buckets:   m.histogramBuckets,
	}, []string{"endpoint", "method", "status_code"})

	m.wsClients = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "ws_clients",
		Help:      "Connected websocket ranking subscribers",
	})

	m.tenants = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "tenants",
		Help:      "Number of registered tenants",
	})

	m.systemMemoryUsage = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "system_memory_usage_bytes",
		Help:      "System memory usage in bytes",
	})

	m.systemGoroutineCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "system_goroutine_count",
		Help:      "Number of goroutines",
	})
}

// Cycle Metrics Functions.

// RecordCycle increments the cycle counter for an outcome (ok, degraded).
func RecordCycle(outcome string) {
	globalManager.cyclesTotal.WithLabelValues(outcome).Inc()
}

// RecordCycleDuration records the duration of a cycle in milliseconds.
func RecordCycleDuration(ms float64) {
	globalManager.cycleDuration.Observe(ms)
}

// UpdateEventsTracked sets the number of tracked events for a tenant.
func UpdateEventsTracked(tenant string, count int) {
	globalManager.eventsTracked.WithLabelValues(tenant).Set(float64(count))
}

// RecordEventEvicted increments the evicted events counter and drops the event's score series.
func RecordEventEvicted(tenant, eventID string) {
	globalManager.eventsEvicted.Inc()
	globalManager.excitementScore.DeleteLabelValues(tenant, eventID)
}

// UpdateExcitementScore sets the latest excitement score of an event.
func UpdateExcitementScore(tenant, eventID string, score float64) {
	globalManager.excitementScore.WithLabelValues(tenant, eventID).Set(score)
}

// ForgetTenant removes the per-tenant series of an evicted tenant.
func ForgetTenant(tenant string) {
	globalManager.eventsTracked.DeleteLabelValues(tenant)
	globalManager.excitementScore.DeletePartialMatch(prometheus.Labels{"tenant": tenant})
}

// Derivation Metrics Functions.

// RecordDebounceTransition counts a debounce activation or clear.
func RecordDebounceTransition(kind, transition string) {
	globalManager.debounceActivations.WithLabelValues(kind, transition).Inc()
}

// RecordScoreRegression increments the score regression counter.
func RecordScoreRegression() {
	globalManager.scoreRegressions.Inc()
}

// RecordPlayObserved increments the distinct plays counter.
func RecordPlayObserved() {
	globalManager.playsObserved.Inc()
}

// RecordPossessionTier counts which possession tier resolved a snapshot.
func RecordPossessionTier(tier string) {
	globalManager.possessionTier.WithLabelValues(tier).Inc()
}

// Provider Metrics Functions.

// RecordProviderError increments the provider error counter for an operation.
func RecordProviderError(op string) {
	globalManager.providerErrors.WithLabelValues(op).Inc()
}

// RecordProviderLatency records provider call latency in milliseconds.
func RecordProviderLatency(ms float64) {
	globalManager.providerLatency.Observe(ms)
}

// Actuation Metrics Functions.

// RecordChannelSwitch counts an actuation attempt by result.
func RecordChannelSwitch(result string) {
	globalManager.channelSwitches.WithLabelValues(result).Inc()
}

// Fetch Queue / Worker Metrics Functions.

// UpdateQueueSize sets the current fetch queue size.
func UpdateQueueSize(size int) {
	globalManager.queueSize.Set(float64(size))
}

// UpdateQueueCapacity sets the fetch queue capacity.
func UpdateQueueCapacity(capacity int) {
	globalManager.queueCapacity.Set(float64(capacity))
}

// RecordQueueEnqueueError counts a rejected fetch job.
func RecordQueueEnqueueError(reason string) {
	globalManager.queueEnqueueErrors.WithLabelValues(reason).Inc()
}

// UpdateWorkerActiveCount sets the number of fetch workers.
func UpdateWorkerActiveCount(count int) {
	globalManager.workerActiveCount.Set(float64(count))
}

// RecordWorkerProcessingLatency records fetch worker latency in milliseconds.
func RecordWorkerProcessingLatency(ms float64) {
	globalManager.workerProcessingLatency.Observe(ms)
}

// HTTP / Streaming Metrics Functions.

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// UpdateWSClients sets the number of connected websocket clients.
func UpdateWSClients(count int) {
	globalManager.wsClients.Set(float64(count))
}

// UpdateTenants sets the number of registered tenants.
func UpdateTenants(count int) {
	globalManager.tenants.Set(float64(count))
}

// System Performance Metrics Functions.

// UpdateSystemMemoryUsage sets the system memory usage in bytes.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the number of goroutines.
func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutineCount.Set(float64(count))
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
