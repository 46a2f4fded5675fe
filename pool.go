package futurepool

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
)

// WorkerPool is the contract a futurepool exposes to its callers.
type WorkerPool interface {
	Submit(fn TaskFunc, arg any) (*Future, error)
	Join() error
	Terminate() error
	WorkerCount() int
	QueueSize() int
	Running() int
}

const (
	stateRunning int32 = iota
	stateJoining
	stateTerminating
	stateClosed
)

const defaultTaskQueueSize = 64

// Pool runs submitted tasks on a fixed set of worker goroutines in
// submission order. It is shut down exactly once, by Join or Terminate.
type Pool struct {
	queue *taskQueue
	wg    sync.WaitGroup

	// cancelled by Terminate; workers observe it only while waiting for work
	ctx    context.Context
	cancel context.CancelFunc

	workerCount   int
	taskQueueSize int
	startHook     WorkerStartHook

	log     *zap.Logger
	metrics *Metrics

	state        atomic.Int32
	nextTaskID   atomic.Uint64
	runningTasks atomic.Int64
	liveFutures  atomic.Int64

	// test hook, called after a future is reclaimed
	onReclaim func(*Future)
}

var _ WorkerPool = (*Pool)(nil)

// New starts a pool of workers goroutines. Creation is all or nothing: if a
// WorkerStartHook fails, every worker already started is stopped and joined
// before New returns the error.
func New(workers int, opts ...Option) (*Pool, error) {
	if workers <= 0 {
		return nil, ErrInvalidWorkerCount
	}

	ctx, cancel := context.WithCancel(context.Background())
	p := &Pool{
		ctx:           ctx,
		cancel:        cancel,
		workerCount:   workers,
		taskQueueSize: defaultTaskQueueSize,
		log:           zap.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.queue = newTaskQueue(ctx, p.taskQueueSize)

	for i := 0; i < workers; i++ {
		if p.startHook != nil {
			if err := p.startHook(i); err != nil {
				p.log.Error("worker failed to start, rolling back pool",
					zap.Int("worker", i), zap.Int("started", i), zap.Error(err))
				p.cancel()
				p.wg.Wait()
				p.queue.drain()
				p.state.Store(stateClosed)
				return nil, fmt.Errorf("%w: worker %d: %w", ErrWorkerStart, i, err)
			}
		}
		p.wg.Add(1)
		newWorker(p, i).start()
	}

	p.log.Info("pool started", zap.Int("workers", workers))
	return p, nil
}

// Submit queues fn(arg) and returns the future its result will be published
// to. The caller owns the returned future and must Release it.
func (p *Pool) Submit(fn TaskFunc, arg any) (*Future, error) {
	if fn == nil {
		return nil, ErrNilTask
	}
	if p.state.Load() != stateRunning {
		return nil, ErrPoolClosed
	}

	t := &task{
		id:     p.nextTaskID.Add(1),
		fn:     fn,
		arg:    arg,
		future: newFuture(p.reclaim),
	}

	p.liveFutures.Add(1)
	p.metrics.enqueued()
	if err := p.queue.enqueue(t); err != nil {
		p.liveFutures.Add(-1)
		p.metrics.rejected()
		return nil, err
	}
	p.metrics.submitted()
	return t.future, nil
}

// Join stops accepting work, lets the workers finish everything already
// queued, and waits for them to exit.
func (p *Pool) Join() error {
	if !p.state.CompareAndSwap(stateRunning, stateJoining) {
		return ErrPoolClosed
	}
	p.log.Info("joining pool", zap.Int("queued", p.queue.len()))

	// one sentinel per worker, each queued behind all real work
	if err := p.queue.enqueueSentinels(p.workerCount); err != nil {
		return err
	}
	p.wg.Wait()
	p.teardown()
	return nil
}

// Terminate stops the workers without running queued work. Tasks already
// running finish normally; every task still queued is cancelled.
func (p *Pool) Terminate() error {
	if !p.state.CompareAndSwap(stateRunning, stateTerminating) {
		return ErrPoolClosed
	}
	p.log.Info("terminating pool", zap.Int("queued", p.queue.len()))

	p.cancel()
	p.wg.Wait()
	p.teardown()
	return nil
}

// teardown runs once all workers have exited.
func (p *Pool) teardown() {
	cancelled := 0
	for _, t := range p.queue.drain() {
		if t.sentinel() {
			continue
		}
		if t.future.cancel() {
			cancelled++
		}
	}
	p.metrics.cancelled(cancelled)
	p.cancel()
	p.state.Store(stateClosed)
	p.log.Info("pool closed", zap.Int("cancelled", cancelled))
}

func (p *Pool) reclaim(f *Future) {
	p.liveFutures.Add(-1)
	p.metrics.futureFreed()
	if p.onReclaim != nil {
		p.onReclaim(f)
	}
}

// WorkerCount returns the fixed number of workers.
func (p *Pool) WorkerCount() int {
	return p.workerCount
}

// QueueSize returns the number of tasks waiting for a worker.
func (p *Pool) QueueSize() int {
	return p.queue.len()
}

// Running returns the number of tasks currently executing.
func (p *Pool) Running() int {
	return int(p.runningTasks.Load())
}

// LiveFutures returns the number of futures handed out by Submit that have
// not been reclaimed yet.
func (p *Pool) LiveFutures() int {
	return int(p.liveFutures.Load())
}
