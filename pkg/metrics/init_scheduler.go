package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func (r *Registry) initSchedulerMetrics() {
	r.RoundsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "ofdp_sdg_rounds_total",
			Help: "Total number of probing rounds by how the schedule was chosen",
		},
		[]string{"mode"},
	)

	r.RoundDuration = promauto.With(r.registry).NewHistogram(
		prometheus.HistogramOpts{
			Name:    "ofdp_sdg_round_duration_seconds",
			Help:    "Probing round duration in seconds, pacing included",
			Buckets: prometheus.DefBuckets,
		},
	)

	r.ProbesTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "ofdp_sdg_probes_total",
			Help: "Total number of probe emissions by outcome",
		},
		[]string{"status"},
	)

	r.ActiveSwitches = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "ofdp_sdg_active_switches",
			Help: "Switches selected to probe in the last round",
		},
	)

	r.LastRoundTimestamp = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "ofdp_sdg_last_round_timestamp_seconds",
			Help: "Unix time the last probing round finished",
		},
	)
}

func (r *Registry) initSolverMetrics() {
	r.SolverSweeps = promauto.With(r.registry).NewHistogram(
		prometheus.HistogramOpts{
			Name:    "ofdp_sdg_solver_sweeps",
			Help:    "Best response sweeps per solver run",
			Buckets: prometheus.ExponentialBuckets(1, 2, 10),
		},
	)

	r.SolverNotConverged = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "ofdp_sdg_solver_not_converged_total",
			Help: "Solver runs that hit the sweep bound without a fixed point",
		},
	)

	r.SolverScore = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "ofdp_sdg_solver_score",
			Help: "Total weight of the switches selected by the last solver run",
		},
	)
}
