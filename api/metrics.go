/*
metrics.go - Prometheus metrics for the engine

PURPOSE:
  Observability for the two writer paths: event submissions on the live
  path and sweep activity on the scheduler path. Exposed on /metrics via
  promhttp.

SEE ALSO:
  - scheduler.go: Records sweep counters
  - handlers.go: Records submission outcomes
*/
package api

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the journey engine.
type Metrics struct {
	// Event submissions by kind and outcome ("ok", "rejected", "conflict", "error")
	EventsSubmitted *prometheus.CounterVec

	// Sweep runs and their per-journey outcomes
	SweepsTotal    prometheus.Counter
	SweepDuration  prometheus.Histogram
	JourneysClosed prometheus.Counter
	SweepConflicts prometheus.Counter
	SweepErrors    prometheus.Counter
}

// NewMetrics registers all engine metrics with reg. Pass a dedicated
// registry in tests to avoid duplicate registration.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		EventsSubmitted: f.NewCounterVec(prometheus.CounterOpts{
			Name: "journey_events_submitted_total",
			Help: "Clock events submitted on the live path, by kind and outcome",
		}, []string{"kind", "outcome"}),

		SweepsTotal: f.NewCounter(prometheus.CounterOpts{
			Name: "journey_sweeps_total",
			Help: "Auto-close sweep runs",
		}),
		SweepDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "journey_sweep_duration_seconds",
			Help:    "Duration of auto-close sweep runs",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 15, 60},
		}),
		JourneysClosed: f.NewCounter(prometheus.CounterOpts{
			Name: "journey_auto_closed_total",
			Help: "Journeys closed by the scheduler",
		}),
		SweepConflicts: f.NewCounter(prometheus.CounterOpts{
			Name: "journey_sweep_conflicts_total",
			Help: "Compare-and-swap conflicts hit during sweeps",
		}),
		SweepErrors: f.NewCounter(prometheus.CounterOpts{
			Name: "journey_sweep_errors_total",
			Help: "Per-journey failures during sweeps",
		}),
	}
}
