// Package telemetry exports run and node metrics to Prometheus. The
// Listener plugs into the executor's lifecycle events; Handler serves the
// scrape endpoint.
package telemetry

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vk/edgeflow/internal/executor"
	"github.com/vk/edgeflow/internal/flow"
	"github.com/vk/edgeflow/internal/runctx"
)

// Listener records engine metrics for every observed run.
type Listener struct {
	executor.NopListener

	activeRuns   prometheus.Gauge
	runsTotal    *prometheus.CounterVec
	nodesTotal   *prometheus.CounterVec
	nodeDuration *prometheus.HistogramVec
}

// NewListener creates a metrics listener and registers its collectors.
func NewListener(reg prometheus.Registerer) *Listener {
	l := &Listener{
		activeRuns: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "edgeflow_active_runs",
			Help: "Number of flow runs currently executing.",
		}),
		runsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "edgeflow_runs_total",
			Help: "Completed flow runs by final status.",
		}, []string{"flow", "status"}),
		nodesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "edgeflow_nodes_total",
			Help: "Terminal node results by node type and status.",
		}, []string{"type", "status"}),
		nodeDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "edgeflow_node_duration_seconds",
			Help:    "Node execution time by node type.",
			Buckets: prometheus.DefBuckets,
		}, []string{"type"}),
	}
	reg.MustRegister(l.activeRuns, l.runsTotal, l.nodesTotal, l.nodeDuration)
	return l
}

func (l *Listener) RunStarted(runID, flowName string) {
	l.activeRuns.Inc()
}

func (l *Listener) NodeFinished(result flow.NodeResult) {
	l.nodesTotal.WithLabelValues(result.NodeType, result.Status.String()).Inc()
	if result.Status == flow.NodeStatusCompleted || result.Status == flow.NodeStatusFailed {
		l.nodeDuration.WithLabelValues(result.NodeType).Observe(result.Duration().Seconds())
	}
}

func (l *Listener) RunFinished(runID string, status flow.RunStatus, summary runctx.Summary) {
	l.activeRuns.Dec()
	l.runsTotal.WithLabelValues(summary.FlowName, status.String()).Inc()
}

// Handler serves the Prometheus scrape endpoint for the given gatherer.
func Handler(g prometheus.Gatherer) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(g, promhttp.HandlerOpts{}))
	return mux
}
