package ranking

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metric names as constants for consistency.
const (
	MetricRankRequestsTotal      = "rank_requests_total"
	MetricRankDurationSeconds    = "rank_duration_seconds"
	MetricCandidatesScoredTotal  = "rank_candidates_scored_total"
	MetricCandidatesSkippedTotal = "rank_candidates_skipped_total"
)

// Metrics contains Prometheus metrics for ranking operations.
// All operations are thread-safe.
type Metrics struct {
	rankRequests      *prometheus.CounterVec
	rankDuration      prometheus.Histogram
	candidatesScored  prometheus.Counter
	candidatesSkipped prometheus.Counter
}

// NewMetrics creates and returns a new Metrics instance with all collectors
// initialized. The metrics are not registered; call Register to register
// them with a registry.
func NewMetrics() *Metrics {
	return &Metrics{
		rankRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: MetricRankRequestsTotal,
				Help: "Total number of ranking calls by scoring method",
			},
			[]string{"method"},
		),
		rankDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    MetricRankDurationSeconds,
			Help:    "Histogram of ranking call duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0},
		}),
		candidatesScored: prometheus.NewCounter(prometheus.CounterOpts{
			Name: MetricCandidatesScoredTotal,
			Help: "Total number of candidates scored across all ranking calls",
		}),
		candidatesSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: MetricCandidatesSkippedTotal,
			Help: "Total number of malformed candidates skipped from batches",
		}),
	}
}

// Register registers all metrics with the given registry.
// Returns an error if registration fails.
func (m *Metrics) Register(reg prometheus.Registerer) error {
	collectors := []prometheus.Collector{
		m.rankRequests,
		m.rankDuration,
		m.candidatesScored,
		m.candidatesSkipped,
	}

	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

// IncRankRequests increments the ranking call counter for a scoring method.
func (m *Metrics) IncRankRequests(method string) {
	m.rankRequests.WithLabelValues(method).Inc()
}

// ObserveRankDuration records a ranking call duration sample.
func (m *Metrics) ObserveRankDuration(seconds float64) {
	m.rankDuration.Observe(seconds)
}

// AddCandidatesScored adds to the scored candidate counter.
func (m *Metrics) AddCandidatesScored(n int) {
	m.candidatesScored.Add(float64(n))
}

// AddCandidatesSkipped adds to the skipped candidate counter.
func (m *Metrics) AddCandidatesSkipped(n int) {
	m.candidatesSkipped.Add(float64(n))
}

// Collectors returns all Prometheus collectors for testing.
func (m *Metrics) Collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.rankRequests,
		m.rankDuration,
		m.candidatesScored,
		m.candidatesSkipped,
	}
}
