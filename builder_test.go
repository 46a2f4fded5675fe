package futurepool

import (
	"errors"
	"runtime"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestPoolBuilderDefaults(t *testing.T) {
	pool, err := NewPoolBuilder().Build()
	if err != nil {
		t.Fatalf("Build() failed: %v", err)
	}
	defer pool.Join()

	if pool.WorkerCount() != runtime.NumCPU() {
		t.Errorf("Expected %d workers, got %d", runtime.NumCPU(), pool.WorkerCount())
	}
	if pool.taskQueueSize != defaultTaskQueueSize {
		t.Errorf("Expected queue size %d, got %d", defaultTaskQueueSize, pool.taskQueueSize)
	}
	if pool.metrics != nil {
		t.Error("Expected no metrics by default")
	}
}

func TestPoolBuilder(t *testing.T) {
	m, _ := NewMetrics(nil, "", "")
	pool, err := NewPoolBuilder().
		WithWorkers(3).
		WithTaskQueue(10).
		WithMetrics(m).
		WithLogger(zap.NewNop()).
		Build()
	if err != nil {
		t.Fatalf("Build() failed: %v", err)
	}

	if pool.WorkerCount() != 3 {
		t.Errorf("Expected 3 workers, got %d", pool.WorkerCount())
	}
	if pool.queue.tasks.Cap() != minRingCapacity {
		t.Errorf("Expected queue capacity %d, got %d", minRingCapacity, pool.queue.tasks.Cap())
	}
	if pool.metrics != m {
		t.Error("Expected builder metrics to be used")
	}

	f, _ := pool.Submit(square, 7)
	if res, err := f.Get(0); err != nil || res != 49 {
		t.Errorf("Expected (49, nil), got (%v, %v)", res, err)
	}
	f.Release()
	pool.Join()
}

func TestPoolBuilderInvalid(t *testing.T) {
	if _, err := NewPoolBuilder().WithWorkers(0).Build(); !errors.Is(err, ErrInvalidWorkerCount) {
		t.Errorf("Expected ErrInvalidWorkerCount, got %v", err)
	}

	hookErr := errors.New("no threads left")
	_, err := NewPoolBuilder().
		WithWorkers(2).
		WithWorkerStartHook(func(id int) error {
			if id == 1 {
				return hookErr
			}
			return nil
		}).
		Build()
	if !errors.Is(err, ErrWorkerStart) || !errors.Is(err, hookErr) {
		t.Errorf("Expected ErrWorkerStart wrapping hook error, got %v", err)
	}
}

func TestPoolLogging(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	pool := newTestPool(t, 2, WithLogger(zap.New(core)))

	f, _ := pool.Submit(func(any) any { panic("boom") }, nil)
	f.Get(0)
	f.Release()
	pool.Join()

	if n := logs.FilterMessage("pool started").Len(); n != 1 {
		t.Errorf("Expected 1 start entry, got %d", n)
	}
	panics := logs.FilterMessage("task panicked").All()
	if len(panics) != 1 {
		t.Fatalf("Expected 1 panic entry, got %d", len(panics))
	}
	if panics[0].Level != zapcore.ErrorLevel {
		t.Errorf("Expected panic logged at error level, got %v", panics[0].Level)
	}
	if _, ok := panics[0].ContextMap()["worker"]; !ok {
		t.Error("Expected panic entry to carry the worker id")
	}
	if n := logs.FilterMessage("worker stopped by join").Len(); n != 2 {
		t.Errorf("Expected 2 worker stop entries, got %d", n)
	}
	if n := logs.FilterMessage("pool closed").Len(); n != 1 {
		t.Errorf("Expected 1 close entry, got %d", n)
	}
}
