// Package metrics provides Prometheus metrics for the perfcore scoring service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// defaultLatencyBuckets are in milliseconds; scoring runs are sub-millisecond.
var defaultLatencyBuckets = []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 25, 50, 100, 250, 500, 1000} //nolint:gochecknoglobals // constant bucket layout

// Manager owns every Prometheus collector of the service.
type Manager struct {
	namespace      string
	subsystem      string
	latencyBuckets []float64
	scoreBuckets   []float64
	registry       prometheus.Registerer

	// Scoring
	scoringRuns        *prometheus.CounterVec
	compositeScore     prometheus.Histogram
	gradeTotal         *prometheus.CounterVec
	baselineDimensions *prometheus.CounterVec
	scoringLatency     prometheus.Histogram

	// Goal risk
	riskAssessments   *prometheus.CounterVec
	riskNotApplicable prometheus.Counter

	// Peers
	peerRankings   prometheus.Counter
	peerPopulation prometheus.Gauge

	// Team scoring
	teamRuns           *prometheus.CounterVec
	teamScoringLatency prometheus.Histogram

	// Queue
	queueSize              prometheus.Gauge
	queueCapacity          prometheus.Gauge
	queueUtilization       prometheus.Gauge
	queueEnqueueRate       prometheus.Counter
	queueDequeueRate       prometheus.Counter
	queueEnqueueErrors     prometheus.Counter
	queueProcessingLatency prometheus.Histogram

	// Workers
	workerActiveCount       prometheus.Gauge
	workerMessagesPerSecond prometheus.Gauge
	workerProcessingLatency prometheus.Histogram
	workerErrorRate         prometheus.Counter

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	rateLimited         *prometheus.CounterVec

	// Errors
	errorRateByComponent *prometheus.CounterVec
	errorRateByEndpoint  *prometheus.CounterVec

	// System
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

// NewManager creates a metrics manager and registers its collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:      "perfcore",
		subsystem:      "engine",
		latencyBuckets: defaultLatencyBuckets,
		scoreBuckets:   prometheus.LinearBuckets(10, 10, 9),
		registry:       prometheus.DefaultRegisterer,
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

func (m *Manager) counterVec(name, help string, labels ...string) *prometheus.CounterVec {
	return promauto.With(m.registry).NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help,
	}, labels)
}

func (m *Manager) gauge(name, help string) prometheus.Gauge {
	return promauto.With(m.registry).NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help,
	})
}

func (m *Manager) histogram(name, help string, buckets []float64) prometheus.Histogram {
	return promauto.With(m.registry).NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, Buckets: buckets,
	})
}

func (m *Manager) initializeMetrics() { //nolint:funlen // one place for every collector
	m.scoringRuns = m.counterVec("scoring_runs_total", "Composite scoring runs by policy", "policy")
	m.compositeScore = m.histogram("composite_score", "Distribution of composite scores", m.scoreBuckets)
	m.gradeTotal = m.counterVec("grades_total", "Composite results by letter grade", "grade")
	m.baselineDimensions = m.counterVec("baseline_dimensions_total",
		"Dimensions that fell back to the neutral baseline", "dimension")
	m.scoringLatency = m.histogram("scoring_latency_milliseconds", "Latency of one composite scoring run", m.latencyBuckets)

	m.riskAssessments = m.counterVec("goal_risk_assessments_total", "Goal risk assessments by level", "level")
	m.riskNotApplicable = m.counter("goal_risk_not_applicable_total",
		"Goals skipped because they had no due date or were already finished")

	m.peerRankings = m.counter("peer_rankings_total", "Peer ranking runs")
	m.peerPopulation = m.gauge("peer_population_size", "Population size of the last peer ranking")

	m.teamRuns = m.counterVec("team_runs_total", "Team scoring runs by outcome", "outcome")
	m.teamScoringLatency = m.histogram("team_scoring_latency_milliseconds", "Latency of a full team scoring run", m.latencyBuckets)

	m.queueSize = m.gauge("queue_size", "Current number of queued scoring jobs")
	m.queueCapacity = m.gauge("queue_capacity", "Maximum queue capacity")
	m.queueUtilization = m.gauge("queue_utilization_ratio", "Queue utilization ratio (current size / capacity)")
	m.queueEnqueueRate = m.counter("queue_enqueue_total", "Total number of jobs enqueued")
	m.queueDequeueRate = m.counter("queue_dequeue_total", "Total number of jobs dequeued")
	m.queueEnqueueErrors = m.counter("queue_enqueue_errors_total", "Total number of rejected enqueues")
	m.queueProcessingLatency = m.histogram("queue_processing_latency_milliseconds", "Enqueue latency in milliseconds", m.latencyBuckets)

	m.workerActiveCount = m.gauge("worker_active_count", "Number of running workers")
	m.workerMessagesPerSecond = m.gauge("worker_messages_per_second", "Jobs processed per second across the pool")
	m.workerProcessingLatency = m.histogram("worker_processing_latency_milliseconds", "Worker job latency in milliseconds", m.latencyBuckets)
	m.workerErrorRate = m.counter("worker_errors_total", "Total number of failed jobs")

	m.httpRequests = m.counterVec("http_requests_total", "HTTP requests by endpoint, method and status",
		"endpoint", "method", "status_code")
	m.httpRequestDuration = promauto.With(m.registry).NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "http_request_duration_milliseconds",
		Help:      "HTTP request duration in milliseconds",
		Buckets:   m.latencyBuckets,
	}, []string{"endpoint", "method", "status_code"})
	m.rateLimited = m.counterVec("http_rate_limited_total", "Requests rejected by the rate limiter", "endpoint")

	m.errorRateByComponent = m.counterVec("errors_by_component_total", "Errors by component", "component", "error_type")
	m.errorRateByEndpoint = m.counterVec("errors_by_endpoint_total", "Errors by endpoint", "endpoint", "method", "error_type")

	m.systemMemoryUsage = m.gauge("system_memory_usage_bytes", "Heap memory in use in bytes")
	m.systemGoroutineCount = m.gauge("system_goroutine_count", "Number of goroutines")
	m.systemGCPauseTime = m.histogram("system_gc_pause_time_milliseconds", "GC pause time in milliseconds",
		[]float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000})
}

// Scoring.

// RecordScoringRun records one composite result.
func RecordScoringRun(policy, grade string, score int, latencyMs float64) {
	globalManager.scoringRuns.WithLabelValues(policy).Inc()
	globalManager.gradeTotal.WithLabelValues(grade).Inc()
	globalManager.compositeScore.Observe(float64(score))
	globalManager.scoringLatency.Observe(latencyMs)
}

// RecordBaselineDimension counts a dimension scored without data.
func RecordBaselineDimension(dimension string) {
	globalManager.baselineDimensions.WithLabelValues(dimension).Inc()
}

// Goal risk.

// RecordRiskAssessment counts an assessment at the given level.
func RecordRiskAssessment(level string) {
	globalManager.riskAssessments.WithLabelValues(level).Inc()
}

// RecordRiskNotApplicable counts a goal that could not be assessed.
func RecordRiskNotApplicable() {
	globalManager.riskNotApplicable.Inc()
}

// Peers.

// RecordPeerRanking counts a ranking run and records its population size.
func RecordPeerRanking(population int) {
	globalManager.peerRankings.Inc()
	globalManager.peerPopulation.Set(float64(population))
}

// Team scoring.

// RecordTeamRun records a team scoring run; outcome is "ok" or an error kind.
func RecordTeamRun(outcome string, latencyMs float64) {
	globalManager.teamRuns.WithLabelValues(outcome).Inc()
	globalManager.teamScoringLatency.Observe(latencyMs)
}

// Queue.

// UpdateQueueSize sets the current queue size.
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
	globalManager.queueEnqueueRate.Inc()
}

// RecordQueueDequeue increments the dequeue counter.
func RecordQueueDequeue() {
	globalManager.queueDequeueRate.Inc()
}

// RecordQueueEnqueueError increments the enqueue error counter.
func RecordQueueEnqueueError() {
	globalManager.queueEnqueueErrors.Inc()
}

// RecordQueueProcessingLatency records queue processing latency.
func RecordQueueProcessingLatency(latencyMs float64) {
	globalManager.queueProcessingLatency.Observe(latencyMs)
}

// Workers.

// UpdateWorkerActiveCount sets the number of running workers.
func UpdateWorkerActiveCount(count int) {
	globalManager.workerActiveCount.Set(float64(count))
}

// UpdateWorkerMessagesPerSecond sets the pool throughput.
func UpdateWorkerMessagesPerSecond(rate float64) {
	globalManager.workerMessagesPerSecond.Set(rate)
}

// RecordWorkerProcessingLatency records worker processing latency.
func RecordWorkerProcessingLatency(latencyMs float64) {
	globalManager.workerProcessingLatency.Observe(latencyMs)
}

// RecordWorkerError increments the worker error counter.
func RecordWorkerError() {
	globalManager.workerErrorRate.Inc()
}

// HTTP.

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordRateLimited counts a request rejected by the rate limiter.
func RecordRateLimited(endpoint string) {
	globalManager.rateLimited.WithLabelValues(endpoint).Inc()
}

// Errors.

// RecordErrorByComponent records an error with component and type labels.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorRateByComponent.WithLabelValues(component, errorType).Inc()
}

// RecordErrorByEndpoint records an error with endpoint, method, and error type labels.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.errorRateByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// System.

// UpdateSystemMemoryUsage sets the heap memory in use in bytes.
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
