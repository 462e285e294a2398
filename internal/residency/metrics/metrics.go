package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the residency module.
type Metrics struct {
	Enforcements    *prometheus.CounterVec
	RulesCreated    prometheus.Counter
	EnforceDuration prometheus.Histogram
}

// New creates a Metrics instance with all residency module metrics registered.
func New() *Metrics {
	return &Metrics{
		Enforcements: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "sovereign_residency_enforcements_total",
			Help: "Residency enforcement decisions by outcome",
		}, []string{"outcome"}),
		RulesCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "sovereign_residency_rules_created_total",
			Help: "Total number of residency rules created",
		}),
		EnforceDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "sovereign_residency_enforce_duration_seconds",
			Help:    "Duration of residency enforcement evaluations",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
	}
}

// IncrementEnforcement records an enforcement decision outcome.
func (m *Metrics) IncrementEnforcement(outcome string) {
	m.Enforcements.WithLabelValues(outcome).Inc()
}

// IncrementRuleCreated records a successful rule creation.
func (m *Metrics) IncrementRuleCreated() {
	m.RulesCreated.Inc()
}

// ObserveEnforce records the duration of an enforcement evaluation.
// Call with time.Now() at the start of the operation.
func (m *Metrics) ObserveEnforce(start time.Time) {
	m.EnforceDuration.Observe(time.Since(start).Seconds())
}
