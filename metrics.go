package venom

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics exposes Prometheus instrumentation for one or more explorations,
// adapted from the teacher's PrometheusMetrics (inflight_nodes,
// queue_depth, step_latency, retries_total) relabeled for exploration
// instead of node execution.
type Metrics struct {
	mu sync.Mutex

	statesVisited    *prometheus.GaugeVec
	transitionsTaken *prometheus.CounterVec
	coveragePercent  *prometheus.GaugeVec
	violationsTotal  *prometheus.CounterVec

	registry *prometheus.Registry
}

// NewMetrics registers exploration gauges/counters on reg. If reg is nil, a
// fresh private registry is created.
func NewMetrics(reg *prometheus.Registry) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}

	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		statesVisited: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "venomqa",
			Name:      "states_visited",
			Help:      "Number of distinct states discovered in the current exploration.",
		}, []string{"exploration_id"}),
		transitionsTaken: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "venomqa",
			Name:      "transitions_taken_total",
			Help:      "Number of transitions executed.",
		}, []string{"exploration_id"}),
		coveragePercent: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "venomqa",
			Name:      "coverage_percent",
			Help:      "Fraction of declared actions executed at least once.",
		}, []string{"exploration_id"}),
		violationsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "venomqa",
			Name:      "violations_total",
			Help:      "Number of violations recorded, labeled by severity.",
		}, []string{"exploration_id", "severity"}),
	}
}

// Registry returns the Prometheus registry metrics are recorded on.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) recordStep(explorationID string, statesVisited, transitionsTaken int, coveragePercent float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.statesVisited.WithLabelValues(explorationID).Set(float64(statesVisited))
	m.transitionsTaken.WithLabelValues(explorationID).Add(float64(transitionsTaken))
	m.coveragePercent.WithLabelValues(explorationID).Set(coveragePercent)
}

func (m *Metrics) recordViolation(explorationID string, severity Severity) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.violationsTotal.WithLabelValues(explorationID, severity.String()).Inc()
}
