package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func (r *Registry) initTopologyMetrics() {
	r.TopologySwitches = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "ofdp_sdg_topology_switches",
			Help: "Switches in the topology snapshot of the last round",
		},
	)

	r.TopologyLinks = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "ofdp_sdg_topology_links",
			Help: "Links in the topology snapshot of the last round",
		},
	)

	r.TopologyChanges = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "ofdp_sdg_topology_changes_total",
			Help: "Switches and links registered or removed",
		},
		[]string{"kind", "op"},
	)

	r.TopologyReloads = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "ofdp_sdg_topology_reloads_total",
			Help: "Topology file reloads by outcome",
		},
		[]string{"status"},
	)
}
