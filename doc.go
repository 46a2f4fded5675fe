// Package futurepool provides a fixed-size goroutine worker pool whose tasks
// report their results through futures.
//
// Typical usage:
//
//	pool, err := futurepool.New(4, futurepool.WithLogger(logger))
//	if err != nil {
//		return err
//	}
//
//	f, err := pool.Submit(func(arg any) any {
//		return arg.(int) * 2
//	}, 21)
//	if err != nil {
//		return err
//	}
//	res, err := f.Get(time.Second)
//	f.Release()
//
//	pool.Join()
//
// Tasks run in submission order. Join lets the workers finish everything
// already queued; Terminate cancels queued work but lets running tasks
// finish. Every future returned by Submit must be released exactly once,
// before or after its task completes. The pool reclaims it when both the
// holder and the worker are done with it.
package futurepool
