package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the transfer module.
type Metrics struct {
	Checks            *prometheus.CounterVec
	ExemptionsGranted prometheus.Counter
}

// New creates a Metrics instance with all transfer module metrics registered.
func New() *Metrics {
	return &Metrics{
		Checks: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "sovereign_transfer_checks_total",
			Help: "Cross-border transfer checks by outcome",
		}, []string{"outcome"}),
		ExemptionsGranted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "sovereign_transfer_exemptions_granted_total",
			Help: "Total number of transfer exemptions granted",
		}),
	}
}

// IncrementCheck records a transfer check outcome.
func (m *Metrics) IncrementCheck(outcome string) {
	m.Checks.WithLabelValues(outcome).Inc()
}

// IncrementExemptionGranted records a granted exemption.
func (m *Metrics) IncrementExemptionGranted() {
	m.ExemptionsGranted.Inc()
}
