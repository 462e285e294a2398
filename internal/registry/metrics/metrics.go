package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the registry module.
type Metrics struct {
	Registrations  prometheus.Counter
	Transitions    *prometheus.CounterVec
	Certifications prometheus.Counter
	SyncedModels   prometheus.Counter
	SkippedModels  prometheus.Counter
}

// New creates a Metrics instance with all registry module metrics
// registered.
func New() *Metrics {
	return &Metrics{
		Registrations: promauto.NewCounter(prometheus.CounterOpts{
			Name: "sovereign_registry_registrations_total",
			Help: "Models registered in the sovereign registry",
		}),
		Transitions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "sovereign_registry_transitions_total",
			Help: "Approval state transitions by target status",
		}, []string{"status"}),
		Certifications: promauto.NewCounter(prometheus.CounterOpts{
			Name: "sovereign_registry_certifications_total",
			Help: "Certification records appended",
		}),
		SyncedModels: promauto.NewCounter(prometheus.CounterOpts{
			Name: "sovereign_registry_synced_models_total",
			Help: "Registry entries replicated across jurisdictions",
		}),
		SkippedModels: promauto.NewCounter(prometheus.CounterOpts{
			Name: "sovereign_registry_sync_skipped_total",
			Help: "Registry entries skipped during synchronization",
		}),
	}
}

// IncrementRegistrations records one model registration.
func (m *Metrics) IncrementRegistrations() {
	m.Registrations.Inc()
}

// IncrementTransition records one approval state transition.
func (m *Metrics) IncrementTransition(status string) {
	m.Transitions.WithLabelValues(status).Inc()
}

// IncrementCertifications records one certification.
func (m *Metrics) IncrementCertifications() {
	m.Certifications.Inc()
}

// ObserveSync records the outcome counts of one synchronization run.
func (m *Metrics) ObserveSync(synced, skipped int) {
	m.SyncedModels.Add(float64(synced))
	m.SkippedModels.Add(float64(skipped))
}
