package messaging

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics makes consumer-side failures observable; the terminating HTTP
// caller never sees them.
type Metrics struct {
	Deliveries      *prometheus.CounterVec
	HandlerFailures *prometheus.CounterVec
	HandlerDuration *prometheus.HistogramVec
	OutboxPublished *prometheus.CounterVec
}

// NewMetrics registers on reg. A nil reg builds unregistered collectors,
// which keeps tests free of global registry collisions.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Deliveries: f.NewCounterVec(prometheus.CounterOpts{
			Name: "hive_cascade_deliveries_total",
			Help: "Deliveries handled per subscription, by outcome",
		}, []string{"subscription", "outcome"}),
		HandlerFailures: f.NewCounterVec(prometheus.CounterOpts{
			Name: "hive_cascade_handler_failures_total",
			Help: "Failed handler attempts per subscription",
		}, []string{"subscription"}),
		HandlerDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "hive_cascade_handler_duration_seconds",
			Help:    "Handler attempt latency per subscription",
			Buckets: prometheus.DefBuckets,
		}, []string{"subscription"}),
		OutboxPublished: f.NewCounterVec(prometheus.CounterOpts{
			Name: "hive_outbox_publish_total",
			Help: "Outbox relay publish attempts, by result",
		}, []string{"result"}),
	}
}

func (m *Metrics) observeOutcome(subscription string, outcome Outcome) {
	if m == nil {
		return
	}
	m.Deliveries.WithLabelValues(subscription, outcome.String()).Inc()
}

func (m *Metrics) observeFailure(subscription string) {
	if m == nil {
		return
	}
	m.HandlerFailures.WithLabelValues(subscription).Inc()
}

func (m *Metrics) observeDuration(subscription string, seconds float64) {
	if m == nil {
		return
	}
	m.HandlerDuration.WithLabelValues(subscription).Observe(seconds)
}

// ObserveOutboxPublish records one relay attempt; result is "sent" or "failed".
func (m *Metrics) ObserveOutboxPublish(result string) {
	if m == nil {
		return
	}
	m.OutboxPublished.WithLabelValues(result).Inc()
}
