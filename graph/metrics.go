package graph

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics collects Prometheus metrics for workflow execution.
//
// All metrics are namespaced "tripflow":
//
//	steps_total (counter, node_id): executed node steps
//	node_latency_ms (histogram, node_id + status): per-node duration
//	runs_total (counter, status): run outcomes by terminal status
//	suspensions_total (counter): runs that paused for user input
//	replans_total (counter): replan loop iterations taken
//	sessions_active (gauge): sessions currently running or suspended
//
// Attach with Engine.SetMetrics. Expose via promhttp on the registry
// passed to NewMetrics.
type Metrics struct {
	steps       *prometheus.CounterVec
	nodeLatency *prometheus.HistogramVec
	runs        *prometheus.CounterVec
	suspensions prometheus.Counter
	replans     prometheus.Counter
	active      prometheus.Gauge
}

// NewMetrics creates and registers all workflow metrics with the given
// registry. Pass prometheus.DefaultRegisterer for the global registry,
// or a private registry for isolation in tests.
func NewMetrics(registry prometheus.Registerer) *Metrics {
	if registry == nil {
		registry = prometheus.DefaultRegisterer
	}
	factory := promauto.With(registry)

	return &Metrics{
		steps: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tripflow",
			Name:      "steps_total",
			Help:      "Executed workflow node steps",
		}, []string{"node_id"}),
		nodeLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "tripflow",
			Name:      "node_latency_ms",
			Help:      "Node execution duration in milliseconds",
			Buckets:   []float64{1, 5, 10, 50, 100, 500, 1000, 5000, 10000, 30000, 60000},
		}, []string{"node_id", "status"}),
		runs: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tripflow",
			Name:      "runs_total",
			Help:      "Workflow run segments by terminal status",
		}, []string{"status"}),
		suspensions: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "tripflow",
			Name:      "suspensions_total",
			Help:      "Runs paused at a suspension point awaiting user input",
		}),
		replans: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "tripflow",
			Name:      "replans_total",
			Help:      "Replan loop iterations taken across all sessions",
		}),
		active: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "tripflow",
			Name:      "sessions_active",
			Help:      "Sessions currently running or suspended",
		}),
	}
}

// RecordStep records one executed node step with its duration and
// status (success, error, timeout).
func (m *Metrics) RecordStep(nodeID string, latency time.Duration, status string) {
	m.steps.WithLabelValues(nodeID).Inc()
	m.nodeLatency.WithLabelValues(nodeID, status).Observe(float64(latency.Milliseconds()))
}

// IncRunOutcome counts a finished run segment by terminal status.
func (m *Metrics) IncRunOutcome(status string) {
	m.runs.WithLabelValues(status).Inc()
}

// IncSuspensions counts a run pausing for user input.
func (m *Metrics) IncSuspensions() {
	m.suspensions.Inc()
}

// IncReplans counts one replan loop iteration.
func (m *Metrics) IncReplans() {
	m.replans.Inc()
}

// SessionStarted / SessionEnded track the active-session gauge.
func (m *Metrics) SessionStarted() { m.active.Inc() }

// SessionEnded decrements the active-session gauge.
func (m *Metrics) SessionEnded() { m.active.Dec() }
