package futurepool

import (
	"time"

	"go.uber.org/zap"
)

// worker is one goroutine of the pool. It loops WAITING (blocked in
// dequeue) -> RUNNING (executing a task) until it takes a sentinel or the
// pool is terminated while it waits.
type worker struct {
	// Reference to the worker pool
	pool *Pool
	id   int
	log  *zap.Logger
}

func newWorker(pool *Pool, id int) *worker {
	return &worker{
		pool: pool,
		id:   id,
		log:  pool.log.With(zap.Int("worker", id)),
	}
}

func (w *worker) start() {
	go w.run()
}

func (w *worker) run() {
	defer w.pool.wg.Done()

	for {
		t, ok := w.pool.queue.dequeue(w.pool.ctx)
		if !ok {
			w.log.Debug("worker stopped by terminate")
			return
		}
		if t.sentinel() {
			w.log.Debug("worker stopped by join")
			return
		}
		w.pool.metrics.dequeued()
		w.executeTask(t)
	}
}

// executeTask runs t and publishes its outcome. Nothing here looks at the
// pool context, so a task that has started always finishes.
func (w *worker) executeTask(t *task) {
	w.pool.runningTasks.Add(1)
	w.pool.metrics.taskStarted()
	start := time.Now()

	result, err := w.call(t)

	w.pool.runningTasks.Add(-1)
	w.pool.metrics.taskFinished(time.Since(start), err != nil)

	t.future.publish(result, err)
}

func (w *worker) call(t *task) (result any, err error) {
	defer func() {
		if r := recover(); r != nil {
			w.log.Error("task panicked", zap.Uint64("task", t.id), zap.Any("panic", r))
			err = &PanicError{TaskID: t.id, Value: r}
		}
	}()
	return t.fn(t.arg), nil
}
