package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the keys module.
type Metrics struct {
	Imports     *prometheus.CounterVec
	Rotations   prometheus.Counter
	Revocations prometheus.Counter
}

// New creates a Metrics instance with all keys module metrics registered.
func New() *Metrics {
	return &Metrics{
		Imports: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "sovereign_keys_imports_total",
			Help: "Customer keys imported by algorithm",
		}, []string{"algorithm"}),
		Rotations: promauto.NewCounter(prometheus.CounterOpts{
			Name: "sovereign_keys_rotations_total",
			Help: "Key rotations performed",
		}),
		Revocations: promauto.NewCounter(prometheus.CounterOpts{
			Name: "sovereign_keys_revocations_total",
			Help: "Keys revoked",
		}),
	}
}

// IncrementImports records one key import.
func (m *Metrics) IncrementImports(algorithm string) {
	m.Imports.WithLabelValues(algorithm).Inc()
}

// IncrementRotations records one key rotation.
func (m *Metrics) IncrementRotations() {
	m.Rotations.Inc()
}

// IncrementRevocations records one key revocation.
func (m *Metrics) IncrementRevocations() {
	m.Revocations.Inc()
}
