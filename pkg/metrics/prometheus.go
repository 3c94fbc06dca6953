// Package metrics provides Prometheus metrics for the sports intelligence service.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Latency buckets in milliseconds. Runs span seconds to tens of minutes,
// provider calls span milliseconds to the collector timeout.
var (
	defaultLatencyBuckets = []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 10000, 30000}
	defaultRunBuckets     = []float64{100, 500, 1000, 5000, 10000, 30000, 60000, 300000, 900000, 1800000}
)

// Manager owns every Prometheus collector the service exports.
type Manager struct {
	namespace      string
	subsystem      string
	metricPrefix   string
	latencyBuckets []float64
	runBuckets     []float64
	enabled        bool
	constLabels    map[string]string
	registry       prometheus.Registerer

	// Pipeline
	runsTotal        *prometheus.CounterVec
	runDuration      prometheus.Histogram
	phaseDuration    *prometheus.HistogramVec
	triggersSkipped  *prometheus.CounterVec
	catchUpRuns      prometheus.Counter
	running          prometheus.Gauge
	lastRunTimestamp prometheus.Gauge
	dataPoints       prometheus.Gauge

	// Collectors
	collectorCalls   *prometheus.CounterVec
	collectorLatency *prometheus.HistogramVec

	// Reconciliation and roster
	sportConfidence    *prometheus.GaugeVec
	sportAgreement     *prometheus.GaugeVec
	sportDiscrepancies *prometheus.GaugeVec
	rosterEntries      *prometheus.GaugeVec

	// Store and notifications
	storeErrors   *prometheus.CounterVec
	storeLatency  *prometheus.HistogramVec
	notifications *prometheus.CounterVec

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	errorRateByEndpoint *prometheus.CounterVec
	errorRateByType     *prometheus.CounterVec

	// System
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // registry without default Go collectors

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithRegistry(customRegistry))
}

// NewManager creates a metrics manager and registers its collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:      "sportsintel",
		subsystem:      "pipeline",
		latencyBuckets: defaultLatencyBuckets,
		runBuckets:     defaultRunBuckets,
		enabled:        true,
		registry:       prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) name(n string) string {
	if m.metricPrefix == "" {
		return n
	}
	return m.metricPrefix + "_" + n
}

func (m *Manager) counterOpts(n, help string) prometheus.CounterOpts {
	return prometheus.CounterOpts{Namespace: m.namespace, Subsystem: m.subsystem, Name: m.name(n), Help: help, ConstLabels: m.constLabels}
}

func (m *Manager) gaugeOpts(n, help string) prometheus.GaugeOpts {
	return prometheus.GaugeOpts{Namespace: m.namespace, Subsystem: m.subsystem, Name: m.name(n), Help: help, ConstLabels: m.constLabels}
}

func (m *Manager) histogramOpts(n, help string, buckets []float64) prometheus.HistogramOpts {
	return prometheus.HistogramOpts{Namespace: m.namespace, Subsystem: m.subsystem, Name: m.name(n), Help: help, Buckets: buckets, ConstLabels: m.constLabels}
}

func (m *Manager) initializeMetrics() { //nolint:funlen // one place for every collector
	auto := promauto.With(m.registry)

	m.runsTotal = auto.NewCounterVec(m.counterOpts("runs_total", "Pipeline runs by final status"), []string{"status"})
	m.runDuration = auto.NewHistogram(m.histogramOpts("run_duration_milliseconds", "Wall-clock duration of pipeline runs", m.runBuckets))
	m.phaseDuration = auto.NewHistogramVec(m.histogramOpts("phase_duration_milliseconds", "Duration of each pipeline phase", m.runBuckets), []string{"phase"})
	m.triggersSkipped = auto.NewCounterVec(m.counterOpts("triggers_skipped_total", "Triggers ignored because a run was in progress"), []string{"trigger"})
	m.catchUpRuns = auto.NewCounter(m.counterOpts("catch_up_runs_total", "Catch-up runs scheduled after missed-run detection"))
	m.running = auto.NewGauge(m.gaugeOpts("running", "1 while a pipeline run is in progress"))
	m.lastRunTimestamp = auto.NewGauge(m.gaugeOpts("last_run_timestamp_seconds", "Unix time of the last completed run"))
	m.dataPoints = auto.NewGauge(m.gaugeOpts("data_points_collected", "Records ingested by the last run"))

	m.collectorCalls = auto.NewCounterVec(m.counterOpts("collector_calls_total", "Provider calls by source and outcome"), []string{"source", "outcome"})
	m.collectorLatency = auto.NewHistogramVec(m.histogramOpts("collector_latency_milliseconds", "Provider call latency", m.latencyBuckets), []string{"source"})

	m.sportConfidence = auto.NewGaugeVec(m.gaugeOpts("sport_confidence", "Reconciliation confidence per sport (0-100)"), []string{"sport"})
	m.sportAgreement = auto.NewGaugeVec(m.gaugeOpts("sport_agreement", "Reference/corroborating agreement per sport (0-100)"), []string{"sport"})
	m.sportDiscrepancies = auto.NewGaugeVec(m.gaugeOpts("sport_discrepancies", "Discrepancies found per sport"), []string{"sport"})
	m.rosterEntries = auto.NewGaugeVec(m.gaugeOpts("roster_entries", "Materialized roster entries per sport"), []string{"sport"})

	m.storeErrors = auto.NewCounterVec(m.counterOpts("store_errors_total", "Run store failures by operation"), []string{"op"})
	m.storeLatency = auto.NewHistogramVec(m.histogramOpts("store_latency_milliseconds", "Run store latency by operation", m.latencyBuckets), []string{"op"})
	m.notifications = auto.NewCounterVec(m.counterOpts("notifications_total", "Run-completed notifications by outcome"), []string{"outcome"})

	m.httpRequests = auto.NewCounterVec(m.counterOpts("http_requests_total", "HTTP requests by endpoint and method"), []string{"endpoint", "method", "status_code"})
	m.httpRequestDuration = auto.NewHistogramVec(m.histogramOpts("http_request_duration_milliseconds", "HTTP request duration", m.latencyBuckets), []string{"endpoint", "method", "status_code"})
	m.errorRateByEndpoint = auto.NewCounterVec(m.counterOpts("errors_by_endpoint_total", "HTTP errors by endpoint"), []string{"endpoint", "method", "error_type"})
	m.errorRateByType = auto.NewCounterVec(m.counterOpts("errors_by_type_total", "Errors by type and severity"), []string{"error_type", "severity"})

	m.systemMemoryUsage = auto.NewGauge(m.gaugeOpts("system_memory_bytes", "Heap bytes allocated"))
	m.systemGoroutineCount = auto.NewGauge(m.gaugeOpts("system_goroutines", "Number of goroutines"))
	m.systemGCPauseTime = auto.NewHistogram(m.histogramOpts("system_gc_pause_milliseconds", "Average GC pause", m.latencyBuckets))
}

// Enabled reports whether recording is active.
func (m *Manager) Enabled() bool { return m.enabled }

// Package-level recorders delegate to the global manager.

// RecordRun records a finished run.
func RecordRun(status string, durationMs float64) {
	if !globalManager.enabled {
		return
	}
	globalManager.runsTotal.WithLabelValues(status).Inc()
	globalManager.runDuration.Observe(durationMs)
}

// RecordPhase records how long a phase took.
func RecordPhase(phase string, durationMs float64) {
	if !globalManager.enabled {
		return
	}
	globalManager.phaseDuration.WithLabelValues(phase).Observe(durationMs)
}

// RecordTriggerSkipped counts a trigger rejected by the single-flight guard.
func RecordTriggerSkipped(trigger string) {
	if !globalManager.enabled {
		return
	}
	globalManager.triggersSkipped.WithLabelValues(trigger).Inc()
}

// RecordCatchUpRun counts a scheduled catch-up run.
func RecordCatchUpRun() {
	if !globalManager.enabled {
		return
	}
	globalManager.catchUpRuns.Inc()
}

// SetRunning flips the in-progress gauge.
func SetRunning(running bool) {
	if !globalManager.enabled {
		return
	}
	if running {
		globalManager.running.Set(1)
		return
	}
	globalManager.running.Set(0)
}

// UpdateLastRun sets the last completed run timestamp.
func UpdateLastRun(t time.Time) {
	if !globalManager.enabled {
		return
	}
	globalManager.lastRunTimestamp.Set(float64(t.Unix()))
}

// UpdateDataPoints sets the number of records collected by the last run.
func UpdateDataPoints(n int) {
	if !globalManager.enabled {
		return
	}
	globalManager.dataPoints.Set(float64(n))
}

// RecordCollectorCall records one provider call.
func RecordCollectorCall(source, outcome string, latencyMs float64) {
	if !globalManager.enabled {
		return
	}
	globalManager.collectorCalls.WithLabelValues(source, outcome).Inc()
	globalManager.collectorLatency.WithLabelValues(source).Observe(latencyMs)
}

// UpdateSportReconciliation publishes the per-sport reconciliation figures.
func UpdateSportReconciliation(sport string, agreement, confidence float64, discrepancies int) {
	if !globalManager.enabled {
		return
	}
	globalManager.sportAgreement.WithLabelValues(sport).Set(agreement)
	globalManager.sportConfidence.WithLabelValues(sport).Set(confidence)
	globalManager.sportDiscrepancies.WithLabelValues(sport).Set(float64(discrepancies))
}

// UpdateRosterEntries sets the materialized roster size for a sport.
func UpdateRosterEntries(sport string, n int) {
	if !globalManager.enabled {
		return
	}
	globalManager.rosterEntries.WithLabelValues(sport).Set(float64(n))
}

// RecordStoreOp records a run store operation and whether it failed.
func RecordStoreOp(op string, latencyMs float64, err error) {
	if !globalManager.enabled {
		return
	}
	globalManager.storeLatency.WithLabelValues(op).Observe(latencyMs)
	if err != nil {
		globalManager.storeErrors.WithLabelValues(op).Inc()
	}
}

// RecordNotification records a run-completed notification attempt.
func RecordNotification(outcome string) {
	if !globalManager.enabled {
		return
	}
	globalManager.notifications.WithLabelValues(outcome).Inc()
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	if !globalManager.enabled {
		return
	}
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	if !globalManager.enabled {
		return
	}
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordErrorByEndpoint records an HTTP error by endpoint.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	if !globalManager.enabled {
		return
	}
	globalManager.errorRateByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// RecordErrorByType records an error by type and severity.
func RecordErrorByType(errorType, severity string) {
	if !globalManager.enabled {
		return
	}
	globalManager.errorRateByType.WithLabelValues(errorType, severity).Inc()
}

// UpdateSystemMemoryUsage sets heap bytes in use.
func UpdateSystemMemoryUsage(bytes uint64) {
	if !globalManager.enabled {
		return
	}
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the goroutine count.
func UpdateSystemGoroutineCount(count int) {
	if !globalManager.enabled {
		return
	}
	globalManager.systemGoroutineCount.Set(float64(count))
}

// RecordSystemGCPauseTime records average GC pause.
func RecordSystemGCPauseTime(pauseMs float64) {
	if !globalManager.enabled {
		return
	}
	globalManager.systemGCPauseTime.Observe(pauseMs)
}

// GetRegistry returns the registry backing the global manager.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
