package ingest

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics names as constants for consistency.
const (
	MetricIngestMessagesTotal = "ingest_messages_total"
	MetricIngestLastSequence  = "ingest_last_sequence"
)

// Message status labels.
const (
	StatusProcessed = "processed"
	StatusSkipped   = "skipped"
	StatusDuplicate = "duplicate"
	StatusInvalid   = "invalid"
	StatusError     = "error"
)

// Metrics contains Prometheus metrics for firehose ingestion.
// All operations are thread-safe.
type Metrics struct {
	messagesTotal *prometheus.CounterVec
	lastSequence  prometheus.Gauge
}

// NewMetrics creates and returns a new Metrics instance with all collectors initialized.
// The metrics are not registered; call Register to register them with a registry.
func NewMetrics() *Metrics {
	return &Metrics{
		messagesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: MetricIngestMessagesTotal,
				Help: "Total number of firehose messages by processing status",
			},
			[]string{"status"},
		),
		lastSequence: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: MetricIngestLastSequence,
			Help: "Last firehose sequence number committed to the cursor",
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

// IncMessages increments the message counter for a status.
func (m *Metrics) IncMessages(status string) {
	m.messagesTotal.WithLabelValues(status).Inc()
}

// SetLastSequence sets the last committed sequence gauge.
func (m *Metrics) SetLastSequence(seq float64) {
	m.lastSequence.Set(seq)
}

// Collectors returns all Prometheus collectors for testing.
func (m *Metrics) Collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.messagesTotal,
		m.lastSequence,
	}
}
