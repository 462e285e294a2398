package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the routing module.
type Metrics struct {
	Decisions     *prometheus.CounterVec
	RouteDuration prometheus.Histogram
}

// New creates a Metrics instance with all routing module metrics registered.
func New() *Metrics {
	return &Metrics{
		Decisions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "sovereign_routing_decisions_total",
			Help: "Routing decisions by result",
		}, []string{"result"}),
		RouteDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "sovereign_routing_route_duration_seconds",
			Help:    "Duration of route resolutions",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
	}
}

// IncrementDecision records a routing decision result
// (primary, fallback or exhausted).
func (m *Metrics) IncrementDecision(result string) {
	m.Decisions.WithLabelValues(result).Inc()
}

// ObserveRoute records the duration of a route resolution.
// Call with time.Now() at the start of the operation.
func (m *Metrics) ObserveRoute(start time.Time) {
	m.RouteDuration.Observe(time.Since(start).Seconds())
}
