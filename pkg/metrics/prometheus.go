// Package metrics provides Prometheus metrics for the kaliber feedback
// service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns all Prometheus metrics for the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	registry         prometheus.Registerer

	// Feedback loop business metrics.
	feedbackRecorded *prometheus.CounterVec
	outcomesMeasured *prometheus.CounterVec

	// Maturation batch metrics.
	maturationRuns     prometheus.Counter
	maturationMeasured prometheus.Counter
	maturationErrors   prometheus.Counter

	// Loop state gauges.
	pendingOutcomes  prometheus.Gauge
	untrainedEvents  prometheus.Gauge
	totalFeedback    prometheus.Gauge
	calibrationScore prometheus.Gauge
	healthScore      prometheus.Gauge

	// HTTP performance metrics.
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Store and error metrics.
	storeLatency     *prometheus.HistogramVec
	errorByComponent *prometheus.CounterVec
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
		namespace:        "kaliber",
		subsystem:        "feedback",
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

	m.feedbackRecorded = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "events_recorded_total",
			Help:      "Total number of feedback events recorded, by feedback type",
		},
		[]string{"feedback_type"},
	)

	m.outcomesMeasured = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "outcomes_measured_total",
			Help:      "Total number of outcomes written, by outcome type and source (manual or batch)",
		},
		[]string{"outcome_type", "source"},
	)

	m.maturationRuns = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "maturation_runs_total",
		Help:      "Total number of maturation batch scans",
	})

	m.maturationMeasured = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "maturation_measured_total",
		Help:      "Total number of outcomes auto-measured by the maturation scanner",
	})

	m.maturationErrors = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "maturation_errors_total",
		Help:      "Total number of per-item failures during maturation scans",
	})

	m.pendingOutcomes = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "pending_outcomes",
		Help:      "Feedback events still awaiting outcome measurement",
	})

	m.untrainedEvents = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "untrained_events",
		Help:      "Feedback events not yet used for model training",
	})

	m.totalFeedback = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "events_total",
		Help:      "Total feedback events in the store",
	})

	m.calibrationScore = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "calibration_score",
		Help:      "Most recently computed confidence calibration score (0-1)",
	})

	m.healthScore = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "health_score",
		Help:      "Most recently computed overall model health score (0-100)",
	})

	m.httpRequests = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests by endpoint, method and status",
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

	m.storeLatency = auto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "store_latency_milliseconds",
			Help:      "Feedback store operation latency in milliseconds",
			Buckets:   m.histogramBuckets,
		},
		[]string{"operation"},
	)

	m.errorByComponent = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "errors_total",
			Help:      "Total errors by component and kind",
		},
		[]string{"component", "kind"},
	)
}

// GetRegistry returns the registry the global manager registers on.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}

// RecordFeedbackRecorded counts a recorded feedback event.
func RecordFeedbackRecorded(feedbackType string) {
	globalManager.feedbackRecorded.WithLabelValues(feedbackType).Inc()
}

// RecordOutcomeMeasured counts a written outcome. Source is "manual" or
// "batch".
func RecordOutcomeMeasured(outcomeType, source string) {
	globalManager.outcomesMeasured.WithLabelValues(outcomeType, source).Inc()
}

// RecordMaturationRun counts one maturation batch scan.
func RecordMaturationRun() {
	globalManager.maturationRuns.Inc()
}

// RecordMaturationMeasured counts one auto-measured outcome.
func RecordMaturationMeasured() {
	globalManager.maturationMeasured.Inc()
}

// RecordMaturationError counts one per-item maturation failure.
func RecordMaturationError() {
	globalManager.maturationErrors.Inc()
}

// UpdatePendingOutcomes sets the pending-outcome gauge.
func UpdatePendingOutcomes(n int) {
	globalManager.pendingOutcomes.Set(float64(n))
}

// UpdateUntrainedEvents sets the untrained-events gauge.
func UpdateUntrainedEvents(n int) {
	globalManager.untrainedEvents.Set(float64(n))
}

// UpdateTotalFeedback sets the total stored feedback gauge.
func UpdateTotalFeedback(n int) {
	globalManager.totalFeedback.Set(float64(n))
}

// UpdateCalibrationScore sets the last computed calibration score.
func UpdateCalibrationScore(v float64) {
	globalManager.calibrationScore.Set(v)
}

// UpdateHealthScore sets the last computed health score.
func UpdateHealthScore(v float64) {
	globalManager.healthScore.Set(v)
}

// RecordHTTPRequest counts an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration observes an HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, durationMs float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(durationMs)
}

// RecordStoreLatency observes a feedback store operation latency.
func RecordStoreLatency(operation string, durationMs float64) {
	globalManager.storeLatency.WithLabelValues(operation).Observe(durationMs)
}

// RecordErrorByComponent counts an error for a component.
func RecordErrorByComponent(component, kind string) {
	globalManager.errorByComponent.WithLabelValues(component, kind).Inc()
}
