package futurepool

import (
	"runtime"

	"go.uber.org/zap"
)

type PoolBuilder struct {
	log       *zap.Logger
	metrics   *Metrics
	startHook WorkerStartHook

	workers       int
	taskQueueSize int
}

// NewPoolBuilder returns a builder defaulting to one worker per CPU.
func NewPoolBuilder() *PoolBuilder {
	return &PoolBuilder{
		log:           zap.NewNop(),
		workers:       runtime.NumCPU(),
		taskQueueSize: defaultTaskQueueSize,
	}
}

func (pb *PoolBuilder) Build() (*Pool, error) {
	return New(pb.workers,
		WithLogger(pb.log),
		WithMetrics(pb.metrics),
		WithTaskQueue(pb.taskQueueSize),
		WithWorkerStartHook(pb.startHook),
	)
}

func (pb *PoolBuilder) WithWorkers(workers int) *PoolBuilder {
	pb.workers = workers
	return pb
}

func (pb *PoolBuilder) WithLogger(log *zap.Logger) *PoolBuilder {
	pb.log = log
	return pb
}

func (pb *PoolBuilder) WithMetrics(m *Metrics) *PoolBuilder {
	pb.metrics = m
	return pb
}

func (pb *PoolBuilder) WithTaskQueue(size int) *PoolBuilder {
	pb.taskQueueSize = size
	return pb
}

func (pb *PoolBuilder) WithWorkerStartHook(hook WorkerStartHook) *PoolBuilder {
	pb.startHook = hook
	return pb
}
