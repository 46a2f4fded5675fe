package futurepool

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidWorkerCount is returned by New when the worker count is not positive.
	ErrInvalidWorkerCount = errors.New("futurepool: worker count must be greater than 0")

	// ErrWorkerStart wraps the hook error that aborted pool creation.
	ErrWorkerStart = errors.New("futurepool: worker failed to start")

	// ErrNilTask is returned when Submit is called without a function.
	ErrNilTask = errors.New("futurepool: nil task function")

	// ErrPoolClosed is returned once Join or Terminate has started.
	ErrPoolClosed = errors.New("futurepool: pool is closed")

	// ErrTimeout is returned by Get when the bounded wait expires.
	// The future is still pending and the call may be retried.
	ErrTimeout = errors.New("futurepool: wait timed out")

	// ErrCancelled is returned when the task was discarded before it ran.
	ErrCancelled = errors.New("futurepool: task cancelled")

	// ErrFutureReleased is returned when a future is used after Release.
	ErrFutureReleased = errors.New("futurepool: future already released")
)

// PanicError is the error a future reports when its task function panicked.
type PanicError struct {
	TaskID uint64
	Value  any
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("futurepool: task %d panicked: %v", e.TaskID, e.Value)
}
