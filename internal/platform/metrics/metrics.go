package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the workflow engine.
type Metrics struct {
	ReviewsSubmitted  *prometheus.CounterVec
	Escalations       *prometheus.CounterVec
	EscalationReplies prometheus.Counter
	Deputizations     prometheus.Counter
	WriteConflicts    prometheus.Counter
	AuditAppendMs     prometheus.Histogram
}

// New creates and registers all Prometheus metrics.
func New() *Metrics {
	return &Metrics{
		ReviewsSubmitted: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "crossgate_reviews_submitted_total",
			Help: "Total review submissions by overall decision",
		}, []string{"decision"}),
		Escalations: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "crossgate_escalations_total",
			Help: "Total escalations by target authority team",
		}, []string{"target"}),
		EscalationReplies: promauto.NewCounter(prometheus.CounterOpts{
			Name: "crossgate_escalation_responses_total",
			Help: "Total escalation responses recorded",
		}),
		Deputizations: promauto.NewCounter(prometheus.CounterOpts{
			Name: "crossgate_deputizations_total",
			Help: "Total deputy assignments",
		}),
		WriteConflicts: promauto.NewCounter(prometheus.CounterOpts{
			Name: "crossgate_write_conflicts_total",
			Help: "Total optimistic-concurrency conflicts returned to callers",
		}),
		AuditAppendMs: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "crossgate_audit_append_duration_ms",
			Help:    "Latency of audit trail appends in milliseconds",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 25, 50},
		}),
	}
}
