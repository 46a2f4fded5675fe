package futurepool

import (
	"context"
	"errors"
	"sync"
	"time"
)

// Status is the outcome state of a Future.
type Status int32

const (
	StatusPending Status = iota
	StatusReady
	StatusCancelled
)

func (s Status) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusReady:
		return "ready"
	case StatusCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Future holds the eventual result of exactly one submitted task.
//
// A Future has two owners: the caller that submitted the task and the worker
// (or pool teardown) that completes it. Whichever of them is done with it
// last reclaims it, so Release may be called at any time, including before
// the task has run.
type Future struct {
	mu sync.Mutex

	status           Status
	timedOut         bool
	releaseRequested bool
	freed            bool

	result any
	err    error

	// closed on the transition out of StatusPending
	done chan struct{}

	onFree func(*Future)
}

func newFuture(onFree func(*Future)) *Future {
	return &Future{
		done:   make(chan struct{}),
		onFree: onFree,
	}
}

// Get waits for the task result.
//
// A zero timeout blocks until the task completes or is cancelled. A positive
// timeout bounds the wait; on expiry Get returns ErrTimeout, TimedOut reports
// true and the future stays pending. A negative timeout polls without
// blocking.
func (f *Future) Get(timeout time.Duration) (any, error) {
	f.mu.Lock()
	if f.freed || f.releaseRequested {
		f.mu.Unlock()
		return nil, ErrFutureReleased
	}
	f.timedOut = false
	if f.status != StatusPending {
		defer f.mu.Unlock()
		return f.outcomeLocked()
	}
	f.mu.Unlock()

	switch {
	case timeout == 0:
		<-f.done
	case timeout < 0:
		select {
		case <-f.done:
		default:
			return f.expire()
		}
	default:
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		select {
		case <-f.done:
		case <-timer.C:
			return f.expire()
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	return f.outcomeLocked()
}

// Wait is Get bounded by a context instead of a timeout. Only a context
// deadline marks the future as timed out; plain cancellation does not.
func (f *Future) Wait(ctx context.Context) (any, error) {
	f.mu.Lock()
	if f.freed || f.releaseRequested {
		f.mu.Unlock()
		return nil, ErrFutureReleased
	}
	f.timedOut = false
	f.mu.Unlock()

	select {
	case <-f.done:
	case <-ctx.Done():
		f.mu.Lock()
		defer f.mu.Unlock()
		if f.status != StatusPending {
			return f.outcomeLocked()
		}
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			f.timedOut = true
		}
		return nil, ctx.Err()
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	return f.outcomeLocked()
}

// expire records a timed out wait. The task may have finished between the
// timer firing and the lock being taken, in which case its outcome wins.
func (f *Future) expire() (any, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.status != StatusPending {
		return f.outcomeLocked()
	}
	f.timedOut = true
	return nil, ErrTimeout
}

// outcomeLocked reports the terminal outcome. A waiter woken after the holder
// released the future gets ErrFutureReleased, never the cleared result.
func (f *Future) outcomeLocked() (any, error) {
	if f.freed || f.releaseRequested {
		return nil, ErrFutureReleased
	}
	switch f.status {
	case StatusReady:
		if f.err != nil {
			return nil, f.err
		}
		return f.result, nil
	case StatusCancelled:
		return nil, ErrCancelled
	default:
		return nil, ErrTimeout
	}
}

// TimedOut reports whether the most recent wait attempt expired.
func (f *Future) TimedOut() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.timedOut
}

// Ready reports whether the task ran and its result is available.
func (f *Future) Ready() bool {
	return f.Status() == StatusReady
}

// Status returns the current state of the future.
func (f *Future) Status() Status {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.status
}

// Done returns a channel that is closed when the future leaves StatusPending.
func (f *Future) Done() <-chan struct{} {
	return f.done
}

// Release gives up the caller's interest in the future. If the task already
// reached a terminal status the future is reclaimed immediately, otherwise
// reclaiming is left to whoever completes or cancels the task. Calling Release
// twice returns ErrFutureReleased.
func (f *Future) Release() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.freed || f.releaseRequested {
		return ErrFutureReleased
	}
	if f.status == StatusPending {
		f.releaseRequested = true
		return nil
	}
	f.freeLocked()
	return nil
}

// publish stores the task outcome. It returns false when the future was not
// pending, so a result is never written twice.
func (f *Future) publish(result any, err error) bool {
	return f.finish(StatusReady, result, err)
}

// cancel marks a task that never ran.
func (f *Future) cancel() bool {
	return f.finish(StatusCancelled, nil, nil)
}

func (f *Future) finish(status Status, result any, err error) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.freed || f.status != StatusPending {
		return false
	}
	if f.releaseRequested {
		// nobody is waiting, the holder is gone
		f.status = status
		close(f.done)
		f.freeLocked()
		return true
	}
	f.status = status
	f.result = result
	f.err = err
	close(f.done)
	return true
}

func (f *Future) freeLocked() {
	f.freed = true
	f.result = nil
	f.err = nil
	if f.onFree != nil {
		f.onFree(f)
	}
}
