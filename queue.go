package futurepool

import (
	"context"
	"sync"
)

// TaskFunc is the work a pool runs. The returned value is handed back
// untouched through the task's Future.
type TaskFunc func(arg any) any

// task binds one unit of work to its future. A nil fn marks a sentinel that
// tells the worker dequeuing it to stop.
type task struct {
	id     uint64
	fn     TaskFunc
	arg    any
	future *Future
}

func (t *task) sentinel() bool {
	return t.fn == nil
}

// taskQueue is the FIFO shared by the pool's workers. Producers and consumers
// are serialized by mu; consumers sleep on nonEmpty while the queue is empty.
type taskQueue struct {
	mu       sync.Mutex
	nonEmpty *sync.Cond
	tasks    *ring[*task]
	closed   bool

	stopWake func() bool
}

func newTaskQueue(ctx context.Context, capacity int) *taskQueue {
	q := &taskQueue{
		tasks: newRing[*task](capacity),
	}
	q.nonEmpty = sync.NewCond(&q.mu)
	// Waking under the lock means a worker that has just checked ctx and is
	// about to Wait cannot miss the broadcast.
	q.stopWake = context.AfterFunc(ctx, func() {
		q.mu.Lock()
		q.nonEmpty.Broadcast()
		q.mu.Unlock()
	})
	return q
}

// enqueue appends t and wakes the workers if the queue was empty.
func (q *taskQueue) enqueue(t *task) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return ErrPoolClosed
	}
	wasEmpty := q.tasks.Len() == 0
	q.tasks.Push(t)
	if wasEmpty {
		q.nonEmpty.Broadcast()
	}
	return nil
}

// enqueueSentinels closes the queue to producers and appends n stop markers
// behind all the work already queued.
func (q *taskQueue) enqueueSentinels(n int) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return ErrPoolClosed
	}
	q.closed = true
	for i := 0; i < n; i++ {
		q.tasks.Push(&task{})
	}
	q.nonEmpty.Broadcast()
	return nil
}

// dequeue blocks until a task is available and removes the oldest one. It
// returns false once ctx is cancelled; this is the only place a worker
// observes an abrupt stop.
func (q *taskQueue) dequeue(ctx context.Context) (*task, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for {
		if ctx.Err() != nil {
			return nil, false
		}
		if t, ok := q.tasks.Pop(); ok {
			return t, true
		}
		q.nonEmpty.Wait()
	}
}

// drain closes the queue and hands back everything still in it.
func (q *taskQueue) drain() []*task {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.closed = true
	q.stopWake()
	remaining := make([]*task, 0, q.tasks.Len())
	for {
		t, ok := q.tasks.Pop()
		if !ok {
			return remaining
		}
		remaining = append(remaining, t)
	}
}

func (q *taskQueue) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.tasks.Len()
}
