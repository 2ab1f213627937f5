// Package metrics provides Prometheus metrics for the drawtree game service.
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

// Label values shared by callers.
const (
	TriggerStop    = "stop"
	TriggerTimeout = "timeout"

	SampleAccepted = "accepted"
	SampleRejected = "rejected"

	ShareQueued    = "queued"
	ShareDuplicate = "duplicate"
	ShareRejected  = "rejected"
	ShareSucceeded = "succeeded"
	ShareFailed    = "failed"
)

// Manager manages all Prometheus metrics for the drawtree service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	scoreBuckets     []float64
	enabled          bool
	refreshInterval  time.Duration
	customLabels     map[string]string
	metricPrefix     string
	registry         prometheus.Registerer

	// Game Metrics - what players actually do
	sessionsCreated prometheus.Counter
	sessionsActive  prometheus.Gauge
	sessionsEvicted prometheus.Counter
	gamesStarted    prometheus.Counter
	gamesScored     *prometheus.CounterVec
	scores          prometheus.Histogram
	samples         *prometheus.CounterVec
	staleTicks      prometheus.Counter
	blockedCommands *prometheus.CounterVec
	scoringLatency  prometheus.Histogram
	scoringErrors   prometheus.Counter

	// Share Pipeline Metrics
	shareJobs    *prometheus.CounterVec
	shareLatency prometheus.Histogram

	// HTTP Performance Metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	httpErrors          *prometheus.CounterVec

	// Repository Metrics - Shard and session management
	repositoryShardCount      prometheus.Gauge
	repositoryRecordsPerShard *prometheus.GaugeVec

	// Queue Metrics - Share queue performance
	queueSize          prometheus.Gauge
	queueCapacity      prometheus.Gauge
	queueUtilization   prometheus.Gauge
	queueEnqueueRate   prometheus.Counter
	queueDequeueRate   prometheus.Counter
	queueEnqueueErrors prometheus.Counter

	// Worker Metrics - Processing performance
	workerCount             prometheus.Gauge
	workerActiveCount       prometheus.Gauge
	workerProcessingLatency prometheus.Histogram
	workerErrorRate         prometheus.Counter

	// System Performance Metrics
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

// Initialize global metrics.
func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "drawtree",
		subsystem:        "game",
		histogramBuckets: prometheus.DefBuckets,
		scoreBuckets:     prometheus.LinearBuckets(10, 10, 10),
		enabled:          true,
		refreshInterval:  defaultRefreshInterval,
		customLabels:     make(map[string]string),
		metricPrefix:     "",
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

// RefreshInterval returns how often periodic gauges should be refreshed.
func (m *Manager) RefreshInterval() time.Duration { return m.refreshInterval }

// Enabled reports whether recording is active.
func (m *Manager) Enabled() bool { return m.enabled }

func (m *Manager) name(n string) string {
	if m.metricPrefix == "" {
		return n
	}
	return m.metricPrefix + "_" + n
}

func (m *Manager) counterOpts(name, help string) prometheus.CounterOpts {
	return prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name(name),
		Help:        help,
		ConstLabels: m.customLabels,
	}
}

func (m *Manager) gaugeOpts(name, help string) prometheus.GaugeOpts {
	return prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name(name),
		Help:        help,
		ConstLabels: m.customLabels,
	}
}

func (m *Manager) histogramOpts(name, help string, buckets []float64) prometheus.HistogramOpts {
	return prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name(name),
		Help:        help,
		ConstLabels: m.customLabels,
		Buckets:     buckets,
	}
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() { //nolint:funlen // long function required for comprehensive metrics initialization
	auto := promauto.With(m.registry)

	m.sessionsCreated = auto.NewCounter(m.counterOpts("sessions_created_total", "Total number of sessions created"))
	m.sessionsActive = auto.NewGauge(m.gaugeOpts("sessions_active", "Current number of live sessions"))
	m.sessionsEvicted = auto.NewCounter(m.counterOpts("sessions_evicted_total", "Total number of idle sessions evicted"))
	m.gamesStarted = auto.NewCounter(m.counterOpts("games_started_total", "Total number of drawing attempts started"))
	m.gamesScored = auto.NewCounterVec(
		m.counterOpts("games_scored_total", "Total number of attempts scored by trigger"),
		[]string{"trigger"},
	)
	m.scores = auto.NewHistogram(m.histogramOpts("score", "Distribution of attempt scores", m.scoreBuckets))
	m.samples = auto.NewCounterVec(
		m.counterOpts("samples_total", "Pointer samples by filter result"),
		[]string{"result"},
	)
	m.staleTicks = auto.NewCounter(m.counterOpts("stale_ticks_total", "Countdown ticks ignored because their epoch was superseded"))
	m.blockedCommands = auto.NewCounterVec(
		m.counterOpts("blocked_commands_total", "Commands rejected by a gating state"),
		[]string{"state"},
	)
	m.scoringLatency = auto.NewHistogram(m.histogramOpts(
		"scoring_latency_milliseconds", "Histogram of scoring latency in milliseconds", m.histogramBuckets))
	m.scoringErrors = auto.NewCounter(m.counterOpts("scoring_errors_total", "Total number of scoring errors"))

	m.shareJobs = auto.NewCounterVec(
		m.counterOpts("share_jobs_total", "Share jobs by status"),
		[]string{"status"},
	)
	m.shareLatency = auto.NewHistogram(m.histogramOpts(
		"share_latency_milliseconds", "End-to-end share job latency in milliseconds", m.histogramBuckets))

	m.httpRequests = auto.NewCounterVec(
		m.counterOpts("http_requests_total", "Total number of HTTP requests by endpoint and method"),
		[]string{"endpoint", "method", "status_code"},
	)
	m.httpRequestDuration = auto.NewHistogramVec(
		m.histogramOpts("http_request_duration_milliseconds", "HTTP request duration in milliseconds", m.histogramBuckets),
		[]string{"endpoint", "method", "status_code"},
	)
	m.httpErrors = auto.NewCounterVec(
		m.counterOpts("http_errors_total", "Total number of HTTP error responses by endpoint, type and severity"),
		[]string{"endpoint", "method", "error_type", "severity"},
	)

	m.repositoryShardCount = auto.NewGauge(m.gaugeOpts("repository_shard_count", "Total number of session store shards"))
	m.repositoryRecordsPerShard = auto.NewGaugeVec(
		m.gaugeOpts("repository_records_per_shard", "Number of sessions per shard"),
		[]string{"shard_id"},
	)

	m.queueSize = auto.NewGauge(m.gaugeOpts("queue_size", "Current size of the share queue (backlog indicator)"))
	m.queueCapacity = auto.NewGauge(m.gaugeOpts("queue_capacity", "Maximum share queue capacity"))
	m.queueUtilization = auto.NewGauge(m.gaugeOpts("queue_utilization_ratio", "Queue utilization ratio (current size / capacity)"))
	m.queueEnqueueRate = auto.NewCounter(m.counterOpts("queue_enqueue_total", "Total number of jobs enqueued"))
	m.queueDequeueRate = auto.NewCounter(m.counterOpts("queue_dequeue_total", "Total number of jobs dequeued"))
	m.queueEnqueueErrors = auto.NewCounter(m.counterOpts("queue_enqueue_errors_total", "Total number of enqueue errors"))

	m.workerCount = auto.NewGauge(m.gaugeOpts("worker_count", "Configured number of share workers"))
	m.workerActiveCount = auto.NewGauge(m.gaugeOpts("worker_active_count", "Number of share workers currently processing a job"))
	m.workerProcessingLatency = auto.NewHistogram(m.histogramOpts(
		"worker_processing_latency_milliseconds", "Worker processing latency in milliseconds", m.histogramBuckets))
	m.workerErrorRate = auto.NewCounter(m.counterOpts("worker_errors_total", "Total number of worker errors"))

	m.systemMemoryUsage = auto.NewGauge(m.gaugeOpts("system_memory_usage_bytes", "System memory usage in bytes"))
	m.systemGoroutineCount = auto.NewGauge(m.gaugeOpts("system_goroutine_count", "Number of goroutines"))
}

// Game Metrics Functions.

// RecordSessionCreated increments the sessions created counter.
func RecordSessionCreated() {
	if globalManager.enabled {
		globalManager.sessionsCreated.Inc()
	}
}

// UpdateSessionsActive sets the number of live sessions.
func UpdateSessionsActive(count int) {
	if globalManager.enabled {
		globalManager.sessionsActive.Set(float64(count))
	}
}

// RecordSessionsEvicted adds n evicted sessions.
func RecordSessionsEvicted(n int) {
	if globalManager.enabled && n > 0 {
		globalManager.sessionsEvicted.Add(float64(n))
	}
}

// RecordGameStarted increments the attempts started counter.
func RecordGameStarted() {
	if globalManager.enabled {
		globalManager.gamesStarted.Inc()
	}
}

// RecordGameScored records a finished attempt and its score. trigger is
// TriggerStop or TriggerTimeout.
func RecordGameScored(trigger string, score int) {
	if !globalManager.enabled {
		return
	}
	globalManager.gamesScored.WithLabelValues(trigger).Inc()
	globalManager.scores.Observe(float64(score))
}

// RecordSample counts a pointer sample. result is SampleAccepted or SampleRejected.
func RecordSample(result string) {
	if globalManager.enabled {
		globalManager.samples.WithLabelValues(result).Inc()
	}
}

// RecordStaleTick increments the stale tick counter.
func RecordStaleTick() {
	if globalManager.enabled {
		globalManager.staleTicks.Inc()
	}
}

// RecordBlockedCommand counts a command rejected in state.
func RecordBlockedCommand(state string) {
	if globalManager.enabled {
		globalManager.blockedCommands.WithLabelValues(state).Inc()
	}
}

// RecordScoringLatency records scoring latency in milliseconds.
func RecordScoringLatency(latencyMs float64) {
	if globalManager.enabled {
		globalManager.scoringLatency.Observe(latencyMs)
	}
}

// RecordScoringError increments the scoring errors counter.
func RecordScoringError() {
	if globalManager.enabled {
		globalManager.scoringErrors.Inc()
	}
}

// Share Pipeline Functions.

// RecordShareJob counts a share job transition. status is one of the Share* constants.
func RecordShareJob(status string) {
	if globalManager.enabled {
		globalManager.shareJobs.WithLabelValues(status).Inc()
	}
}

// RecordShareLatency records how long a share job took end to end.
func RecordShareLatency(latencyMs float64) {
	if globalManager.enabled {
		globalManager.shareLatency.Observe(latencyMs)
	}
}

// HTTP Metrics Functions.

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	if globalManager.enabled {
		globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
	}
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	if globalManager.enabled {
		globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
	}
}

// RecordHTTPError records an error response.
func RecordHTTPError(endpoint, method, errorType, severity string) {
	if globalManager.enabled {
		globalManager.httpErrors.WithLabelValues(endpoint, method, errorType, severity).Inc()
	}
}

// Repository Metrics Functions.

// UpdateRepositoryShardCount sets the total number of session store shards.
func UpdateRepositoryShardCount(count int) {
	if globalManager.enabled {
		globalManager.repositoryShardCount.Set(float64(count))
	}
}

// UpdateRepositoryRecordsPerShard sets the number of sessions for a specific shard.
func UpdateRepositoryRecordsPerShard(shardID string, count int) {
	if globalManager.enabled {
		globalManager.repositoryRecordsPerShard.WithLabelValues(shardID).Set(float64(count))
	}
}

// Queue Metrics Functions.

// UpdateQueueSize sets the current queue size.
func UpdateQueueSize(size int) {
	if globalManager.enabled {
		globalManager.queueSize.Set(float64(size))
	}
}

// UpdateQueueCapacity sets the maximum queue capacity.
func UpdateQueueCapacity(capacity int) {
	if globalManager.enabled {
		globalManager.queueCapacity.Set(float64(capacity))
	}
}

// UpdateQueueUtilization sets the queue utilization ratio.
func UpdateQueueUtilization(utilization float64) {
	if globalManager.enabled {
		globalManager.queueUtilization.Set(utilization)
	}
}

// RecordQueueEnqueue increments the enqueue counter.
func RecordQueueEnqueue() {
	if globalManager.enabled {
		globalManager.queueEnqueueRate.Inc()
	}
}

// RecordQueueDequeue increments the dequeue counter.
func RecordQueueDequeue() {
	if globalManager.enabled {
		globalManager.queueDequeueRate.Inc()
	}
}

// RecordQueueEnqueueError increments the enqueue error counter.
func RecordQueueEnqueueError() {
	if globalManager.enabled {
		globalManager.queueEnqueueErrors.Inc()
	}
}

// Worker Metrics Functions.

// UpdateWorkerCount sets the configured worker count.
func UpdateWorkerCount(count int) {
	if globalManager.enabled {
		globalManager.workerCount.Set(float64(count))
	}
}

// UpdateWorkerActiveCount sets the number of busy workers.
func UpdateWorkerActiveCount(count int) {
	if globalManager.enabled {
		globalManager.workerActiveCount.Set(float64(count))
	}
}

// RecordWorkerProcessingLatency records worker processing latency.
func RecordWorkerProcessingLatency(latencyMs float64) {
	if globalManager.enabled {
		globalManager.workerProcessingLatency.Observe(latencyMs)
	}
}

// RecordWorkerError increments the worker error counter.
func RecordWorkerError() {
	if globalManager.enabled {
		globalManager.workerErrorRate.Inc()
	}
}

// System Performance Metrics Functions.

// UpdateSystemMemoryUsage sets the system memory usage in bytes.
func UpdateSystemMemoryUsage(bytes uint64) {
	if globalManager.enabled {
		globalManager.systemMemoryUsage.Set(float64(bytes))
	}
}

// UpdateSystemGoroutineCount sets the number of goroutines.
func UpdateSystemGoroutineCount(count int) {
	if globalManager.enabled {
		globalManager.systemGoroutineCount.Set(float64(count))
	}
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}

// Global returns the process-wide manager.
func Global() *Manager {
	return globalManager
}
