package cfgraph

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// RunMetrics collects Prometheus-compatible metrics for one compiled graph's
// executions, namespaced "cfgraph_".
//
//  1. inflight_tasks (gauge): tasks currently executing concurrently.
//  2. task_latency_ms (histogram): per-task duration, labeled by task id and
//     status (success/error; a recovered panic is recorded as error).
//  3. branches_spawned_total (counter): successor tasks spawned, labeled by
//     spawn policy (parallel/match/resultmatch).
//  4. dependency_builds_total (counter): dependency constructions, labeled by
//     dependency name. It changes only through RecordDependencyBuild; the
//     driver and DependencyCache do not call it.
type RunMetrics struct {
	inflightTasks   prometheus.Gauge
	taskLatency     *prometheus.HistogramVec
	branchesSpawned *prometheus.CounterVec
	dependencyBuild *prometheus.CounterVec

	mu      sync.RWMutex
	enabled bool
}

// NewRunMetrics registers a fresh metric set with registry (the default
// global registerer if nil).
func NewRunMetrics(registry prometheus.Registerer) *RunMetrics {
	if registry == nil {
		registry = prometheus.DefaultRegisterer
	}
	factory := promauto.With(registry)

	return &RunMetrics{
		enabled: true,
		inflightTasks: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "cfgraph",
			Name:      "inflight_tasks",
			Help:      "Current number of tasks executing concurrently across all runs",
		}),
		taskLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "cfgraph",
			Name:      "task_latency_ms",
			Help:      "Task execution duration in milliseconds",
			Buckets:   []float64{1, 5, 10, 50, 100, 500, 1000, 5000, 10000},
		}, []string{"task_id", "status"}),
		branchesSpawned: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "cfgraph",
			Name:      "branches_spawned_total",
			Help:      "Successor tasks spawned from a branching point",
		}, []string{"policy"}),
		dependencyBuild: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "cfgraph",
			Name:      "dependency_builds_total",
			Help:      "Provider invocations that constructed a new dependency value",
		}, []string{"name"}),
	}
}

func (m *RunMetrics) RecordTaskLatency(taskID string, d time.Duration, status string) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if !m.enabled {
		return
	}
	m.taskLatency.WithLabelValues(taskID, status).Observe(float64(d.Milliseconds()))
}

func (m *RunMetrics) IncInflightTasks(delta float64) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if !m.enabled {
		return
	}
	m.inflightTasks.Add(delta)
}

func (m *RunMetrics) RecordBranchSpawn(policy SpawnPolicy, count int) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if !m.enabled || count == 0 {
		return
	}
	m.branchesSpawned.WithLabelValues(policyLabel(policy)).Add(float64(count))
}

func (m *RunMetrics) RecordDependencyBuild(name string) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if !m.enabled {
		return
	}
	m.dependencyBuild.WithLabelValues(name).Inc()
}

func policyLabel(p SpawnPolicy) string {
	switch p {
	case SpawnParallel:
		return "parallel"
	case SpawnMatch:
		return "match"
	case SpawnResultMatch:
		return "resultmatch"
	default:
		return "none"
	}
}

// Disable stops metric recording without unregistering collectors, useful
// for tests that share a process-global registry.
func (m *RunMetrics) Disable() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.enabled = false
}

// Enable re-enables metric recording after Disable.
func (m *RunMetrics) Enable() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.enabled = true
}
