package feedback

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics names as constants for consistency.
const (
	MetricFeedbackEventsTotal        = "feedback_events_total"
	MetricFeedbackRecomputeTotal     = "feedback_recompute_total"
	MetricFeedbackRecomputeErrors    = "feedback_recompute_errors_total"
	MetricFeedbackRecomputeDuration  = "feedback_recompute_duration_seconds"
	MetricFeedbackLastRecomputeTime  = "feedback_last_recompute_timestamp"
	MetricFeedbackLastRecomputeUsers = "feedback_last_recompute_user_count"
)

// Metrics contains Prometheus metrics for feedback recording and
// multiplier recomputation. All operations are thread-safe.
type Metrics struct {
	eventsRecorded         *prometheus.CounterVec
	recomputeTotal         prometheus.Counter
	recomputeErrors        prometheus.Counter
	recomputeDuration      prometheus.Histogram
	lastRecomputeTimestamp prometheus.Gauge
	lastRecomputeUserCount prometheus.Gauge
}

// NewMetrics creates and returns a new Metrics instance with all collectors initialized.
// The metrics are not registered; call Register to register them with a registry.
func NewMetrics() *Metrics {
	return &Metrics{
		eventsRecorded: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: MetricFeedbackEventsTotal,
				Help: "Total number of feedback events recorded by label",
			},
			[]string{"label"},
		),
		recomputeTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: MetricFeedbackRecomputeTotal,
			Help: "Total number of multiplier recomputation operations",
		}),
		recomputeErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: MetricFeedbackRecomputeErrors,
			Help: "Total number of multiplier recomputation errors",
		}),
		recomputeDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    MetricFeedbackRecomputeDuration,
			Help:    "Histogram of multiplier recomputation duration in seconds",
			Buckets: []float64{0.1, 0.25, 0.5, 1.0, 2.0, 5.0, 10.0},
		}),
		lastRecomputeTimestamp: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: MetricFeedbackLastRecomputeTime,
			Help: "Unix timestamp of the last multiplier recomputation",
		}),
		lastRecomputeUserCount: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: MetricFeedbackLastRecomputeUsers,
			Help: "Number of users processed in the last multiplier recomputation",
		}),
	}
}

// Register registers all metrics with the given registry.
// Returns an error if registration fails.
func (m *Metrics) Register(reg prometheus.Registerer) error {
	for _, c := range m.Collectors() {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

// IncEventsRecorded increments the recorded events counter for a label.
func (m *Metrics) IncEventsRecorded(label string) {
	m.eventsRecorded.WithLabelValues(label).Inc()
}

// IncRecomputeTotal increments the recompute total counter.
func (m *Metrics) IncRecomputeTotal() {
	m.recomputeTotal.Inc()
}

// IncRecomputeErrors increments the recompute errors counter.
func (m *Metrics) IncRecomputeErrors() {
	m.recomputeErrors.Inc()
}

// ObserveRecomputeDuration records a recompute duration sample.
func (m *Metrics) ObserveRecomputeDuration(seconds float64) {
	m.recomputeDuration.Observe(seconds)
}

// SetLastRecomputeTimestamp sets the last recompute timestamp gauge.
func (m *Metrics) SetLastRecomputeTimestamp(timestamp float64) {
	m.lastRecomputeTimestamp.Set(timestamp)
}

// SetLastRecomputeUserCount sets the last recompute user count gauge.
func (m *Metrics) SetLastRecomputeUserCount(count float64) {
	m.lastRecomputeUserCount.Set(count)
}

// Collectors returns all Prometheus collectors for testing.
func (m *Metrics) Collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.eventsRecorded,
		m.recomputeTotal,
		m.recomputeErrors,
		m.recomputeDuration,
		m.lastRecomputeTimestamp,
		m.lastRecomputeUserCount,
	}
}
