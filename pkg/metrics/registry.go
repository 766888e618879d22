package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry holds all metrics for the controller
type Registry struct {
	// Scheduler Metrics
	RoundsTotal        *prometheus.CounterVec
	RoundDuration      prometheus.Histogram
	ProbesTotal        *prometheus.CounterVec
	ActiveSwitches     prometheus.Gauge
	LastRoundTimestamp prometheus.Gauge

	// Solver Metrics
	SolverSweeps       prometheus.Histogram
	SolverNotConverged prometheus.Counter
	SolverScore        prometheus.Gauge

	// Topology Metrics
	TopologySwitches prometheus.Gauge
	TopologyLinks    prometheus.Gauge
	TopologyChanges  *prometheus.CounterVec
	TopologyReloads  *prometheus.CounterVec

	// HTTP Metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	registry *prometheus.Registry
}

var (
	defaultRegistry *Registry
	once            sync.Once
)

// DefaultRegistry returns the process wide registry
func DefaultRegistry() *Registry {
	once.Do(func() {
		defaultRegistry = NewRegistry()
	})
	return defaultRegistry
}

// NewRegistry creates a new metrics registry with all metrics initialized
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	r := &Registry{
		registry: reg,
	}

	r.initSchedulerMetrics()
	r.initSolverMetrics()
	r.initTopologyMetrics()
	r.initHTTPMetrics()

	return r
}

// GetPrometheusRegistry returns the underlying Prometheus registry
func (r *Registry) GetPrometheusRegistry() *prometheus.Registry {
	return r.registry
}

// Handler serves the registry in the Prometheus exposition format
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}
