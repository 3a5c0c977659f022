// Package metrics provides Prometheus metrics for the popow ranking service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// difficultyBuckets cover the leading-zero-bit range seen on public relays.
var difficultyBuckets = []float64{1, 4, 8, 12, 16, 20, 24, 28, 32, 40, 48}

// Manager owns every Prometheus collector of the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	registry         prometheus.Registerer

	// Ingestion
	eventsSeen       prometheus.Counter
	eventsQualifying prometheus.Counter
	eventsMalformed  prometheus.Counter
	eventsDuplicate  prometheus.Counter
	difficulty       prometheus.Histogram
	maxDifficulty    prometheus.Gauge
	rankedSize       prometheus.Gauge
	snapshotLoads    prometheus.Counter
	snapshotSize     prometheus.Gauge

	// Connectivity
	connectivityState *prometheus.GaugeVec
	connectFailures   *prometheus.CounterVec

	// Queue
	queueSize     prometheus.Gauge
	queueCapacity prometheus.Gauge

	// Workers
	workerCount             prometheus.Gauge
	workerProcessingLatency prometheus.Histogram

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // metrics registry

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a metrics manager and registers its collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "popow",
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

func (m *Manager) initializeMetrics() { //nolint:funlen // one place for every collector
	auto := promauto.With(m.registry)

	m.eventsSeen = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "events_seen_total",
		Help:      "Distinct events observed, qualifying or not",
	})
	m.eventsQualifying = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "events_qualifying_total",
		Help:      "Events admitted to the ranked set",
	})
	m.eventsMalformed = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "events_malformed_total",
		Help:      "Events whose id could not be read as hex",
	})
	m.eventsDuplicate = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "events_duplicate_total",
		Help:      "Events dropped because their id was already observed",
	})
	m.difficulty = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "event_difficulty_bits",
		Help:      "Difficulty of qualifying events in leading zero bits",
		Buckets:   difficultyBuckets,
	})
	m.maxDifficulty = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "max_difficulty_bits",
		Help:      "Highest difficulty observed in the current run",
	})
	m.rankedSize = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "ranked_events",
		Help:      "Number of events in the ranked set",
	})
	m.snapshotLoads = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "snapshot_loads_total",
		Help:      "Historical bulk loads applied",
	})
	m.snapshotSize = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "snapshot_last_size",
		Help:      "Records returned by the last historical fetch",
	})

	m.connectivityState = auto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "connectivity_state",
		Help:      "1 for the current connectivity state, 0 otherwise",
	}, []string{"state"})
	m.connectFailures = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "connectivity_failures_total",
		Help:      "Connectivity failures by stage",
	}, []string{"stage"})

	m.queueSize = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "queue_size",
		Help:      "Live events waiting to be scored",
	})
	m.queueCapacity = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "queue_capacity",
		Help:      "Capacity of the live event queue",
	})

	m.workerCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "worker_count",
		Help:      "Number of scoring workers",
	})
	m.workerProcessingLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "worker_processing_latency_milliseconds",
		Help:      "Time to score and admit one live event",
		Buckets:   m.histogramBuckets,
	})

	m.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "http_requests_total",
		Help:      "HTTP requests by endpoint, method and status",
	}, []string{"endpoint", "method", "status_code"})
	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "http_request_duration_milliseconds",
		Help:      "HTTP request duration in milliseconds",
		Buckets:   m.histogramBuckets,
	}, []string{"endpoint", "method", "status_code"})
}

// RecordEventSeen increments the distinct events counter.
func RecordEventSeen() {
	globalManager.eventsSeen.Inc()
}

// RecordEventQualifying counts an admitted event and observes its difficulty.
func RecordEventQualifying(difficulty int) {
	globalManager.eventsQualifying.Inc()
	globalManager.difficulty.Observe(float64(difficulty))
}

// RecordEventMalformed increments the malformed id counter.
func RecordEventMalformed() {
	globalManager.eventsMalformed.Inc()
}

// RecordEventDuplicate increments the duplicate events counter.
func RecordEventDuplicate() {
	globalManager.eventsDuplicate.Inc()
}

// UpdateMaxDifficulty sets the max difficulty gauge.
func UpdateMaxDifficulty(bits int) {
	globalManager.maxDifficulty.Set(float64(bits))
}

// UpdateRankedSize sets the ranked set size.
func UpdateRankedSize(n int) {
	globalManager.rankedSize.Set(float64(n))
}

// RecordSnapshotLoad counts a bulk load of n records.
func RecordSnapshotLoad(n int) {
	globalManager.snapshotLoads.Inc()
	globalManager.snapshotSize.Set(float64(n))
}

// knownStates lists every label value of the connectivity gauge.
var knownStates = []string{"idle", "connecting", "connected", "disconnected"}

// UpdateConnectivityState flags state as current and clears the others.
func UpdateConnectivityState(state string) {
	for _, s := range knownStates {
		v := 0.0
		if s == state {
			v = 1
		}
		globalManager.connectivityState.WithLabelValues(s).Set(v)
	}
}

// RecordConnectivityFailure counts a failure at the given stage.
func RecordConnectivityFailure(stage string) {
	globalManager.connectFailures.WithLabelValues(stage).Inc()
}

// UpdateQueueSize sets the current queue size.
func UpdateQueueSize(size int) {
	globalManager.queueSize.Set(float64(size))
}

// UpdateQueueCapacity sets the maximum queue capacity.
func UpdateQueueCapacity(capacity int) {
	globalManager.queueCapacity.Set(float64(capacity))
}

// UpdateWorkerCount sets the current worker count.
func UpdateWorkerCount(count int) {
	globalManager.workerCount.Set(float64(count))
}

// RecordWorkerProcessingLatency records worker processing latency.
func RecordWorkerProcessingLatency(latencyMs float64) {
	globalManager.workerProcessingLatency.Observe(latencyMs)
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
