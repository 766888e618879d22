package metrics

import (
	"time"
)

// Round modes
const (
	ModeSolved    = "solved"
	ModeBootstrap = "bootstrap"
	ModePartial   = "partial"
)

// Probe outcomes
const (
	ProbeSent   = "sent"
	ProbeFailed = "failed"
)

// RecordRound records a finished probing round
func (r *Registry) RecordRound(mode string, active int, duration time.Duration) {
	r.RoundsTotal.WithLabelValues(mode).Inc()
	r.RoundDuration.Observe(duration.Seconds())
	r.ActiveSwitches.Set(float64(active))
	r.LastRoundTimestamp.SetToCurrentTime()
}

// RecordSolve records a solver run
func (r *Registry) RecordSolve(sweeps, score int, converged bool) {
	r.SolverSweeps.Observe(float64(sweeps))
	r.SolverScore.Set(float64(score))
	if !converged {
		r.SolverNotConverged.Inc()
	}
}

// RecordProbe records one probe emission
func (r *Registry) RecordProbe(status string) {
	r.ProbesTotal.WithLabelValues(status).Inc()
}

// UpdateTopology sets the topology size gauges
func (r *Registry) UpdateTopology(switches, links int) {
	r.TopologySwitches.Set(float64(switches))
	r.TopologyLinks.Set(float64(links))
}

// RecordTopologyChange counts registered or removed switches and links.
// kind is "switch" or "link", op is "add" or "remove".
func (r *Registry) RecordTopologyChange(kind, op string, n int) {
	if n > 0 {
		r.TopologyChanges.WithLabelValues(kind, op).Add(float64(n))
	}
}

// RecordReload records a topology file reload
func (r *Registry) RecordReload(status string) {
	r.TopologyReloads.WithLabelValues(status).Inc()
}

// RecordHTTPRequest records an HTTP request with its duration
func (r *Registry) RecordHTTPRequest(method, path, status string, duration time.Duration) {
	r.HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	r.HTTPRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}
