package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the compliance module.
type Metrics struct {
	Audits        *prometheus.CounterVec
	Scores        prometheus.Histogram
	AuditDuration prometheus.Histogram
}

// New creates a Metrics instance with all compliance module metrics
// registered.
func New() *Metrics {
	return &Metrics{
		Audits: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "sovereign_compliance_audits_total",
			Help: "Compliance audits by overall status",
		}, []string{"status"}),
		Scores: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "sovereign_compliance_score",
			Help:    "Distribution of compliance scores",
			Buckets: []float64{10, 20, 30, 40, 50, 60, 70, 80, 90, 100},
		}),
		AuditDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "sovereign_compliance_audit_duration_seconds",
			Help:    "Duration of compliance audits",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
	}
}

// ObserveAudit records one completed audit.
func (m *Metrics) ObserveAudit(status string, score float64, start time.Time) {
	m.Audits.WithLabelValues(status).Inc()
	m.Scores.Observe(score)
	m.AuditDuration.Observe(time.Since(start).Seconds())
}
