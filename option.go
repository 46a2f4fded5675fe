package futurepool

import "go.uber.org/zap"

type Option func(*Pool)

// WorkerStartHook runs before worker id is launched. Returning an error aborts
// New and rolls back the workers already started.
type WorkerStartHook func(id int) error

// WithLogger sets the pool logger. A nil logger is ignored.
func WithLogger(log *zap.Logger) Option {
	return func(p *Pool) {
		if log != nil {
			p.log = log
		}
	}
}

// WithMetrics makes the pool record to m.
func WithMetrics(m *Metrics) Option {
	return func(p *Pool) {
		p.metrics = m
	}
}

// WithTaskQueue sets the initial queue capacity. The queue grows past it on
// demand, so this never limits how many tasks can be submitted.
func WithTaskQueue(size int) Option {
	return func(p *Pool) {
		p.taskQueueSize = size
	}
}

// WithWorkerStartHook installs a hook run before each worker starts.
func WithWorkerStartHook(hook WorkerStartHook) Option {
	return func(p *Pool) {
		p.startHook = hook
	}
}
