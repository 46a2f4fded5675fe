package futurepool

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus collectors a pool reports to.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	TasksSubmitted prometheus.Counter
	TasksCompleted prometheus.Counter
	TasksCancelled prometheus.Counter
	TasksPanicked  prometheus.Counter
	QueueDepth     prometheus.Gauge
	RunningTasks   prometheus.Gauge
	LiveFutures    prometheus.Gauge
	TaskLatency    prometheus.Histogram
}

// NewMetrics creates the pool collectors and registers them with reg.
// A nil reg leaves them unregistered.
func NewMetrics(reg prometheus.Registerer, namespace, subsystem string) (*Metrics, error) {
	m := &Metrics{
		TasksSubmitted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "tasks_submitted_total",
			Help:      "Total number of tasks submitted to the pool",
		}),
		TasksCompleted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "tasks_completed_total",
			Help:      "Total number of tasks that ran to completion",
		}),
		TasksCancelled: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "tasks_cancelled_total",
			Help:      "Total number of queued tasks discarded by pool teardown",
		}),
		TasksPanicked: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "tasks_panicked_total",
			Help:      "Total number of tasks whose function panicked",
		}),
		QueueDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "queue_depth",
			Help:      "Current number of tasks waiting for a worker",
		}),
		RunningTasks: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "running_tasks",
			Help:      "Current number of tasks being executed",
		}),
		LiveFutures: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "live_futures",
			Help:      "Current number of futures not yet reclaimed",
		}),
		TaskLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "task_latency_seconds",
			Help:      "Histogram of task execution latency",
			Buckets:   prometheus.DefBuckets,
		}),
	}
	if reg == nil {
		return m, nil
	}
	for _, c := range m.collectors() {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.TasksSubmitted,
		m.TasksCompleted,
		m.TasksCancelled,
		m.TasksPanicked,
		m.QueueDepth,
		m.RunningTasks,
		m.LiveFutures,
		m.TaskLatency,
	}
}

func (m *Metrics) enqueued() {
	if m == nil {
		return
	}
	m.QueueDepth.Inc()
	m.LiveFutures.Inc()
}

// rejected undoes enqueued for a task the queue refused.
func (m *Metrics) rejected() {
	if m == nil {
		return
	}
	m.QueueDepth.Dec()
	m.LiveFutures.Dec()
}

func (m *Metrics) submitted() {
	if m == nil {
		return
	}
	m.TasksSubmitted.Inc()
}

func (m *Metrics) dequeued() {
	if m == nil {
		return
	}
	m.QueueDepth.Dec()
}

func (m *Metrics) taskStarted() {
	if m == nil {
		return
	}
	m.RunningTasks.Inc()
}

func (m *Metrics) taskFinished(d time.Duration, panicked bool) {
	if m == nil {
		return
	}
	m.RunningTasks.Dec()
	m.TaskLatency.Observe(d.Seconds())
	if panicked {
		m.TasksPanicked.Inc()
		return
	}
	m.TasksCompleted.Inc()
}

func (m *Metrics) cancelled(n int) {
	if m == nil || n == 0 {
		return
	}
	m.TasksCancelled.Add(float64(n))
	m.QueueDepth.Sub(float64(n))
}

func (m *Metrics) futureFreed() {
	if m == nil {
		return
	}
	m.LiveFutures.Dec()
}
