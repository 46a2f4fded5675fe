package futurepool

import (
	"fmt"
	"testing"
)

// TestNewRing tests capacity rounding
func TestNewRing(t *testing.T) {
	tests := []struct {
		name     string
		capacity int
		wantCap  int
	}{
		{"Zero uses minimum", 0, minRingCapacity},
		{"Negative uses minimum", -1, minRingCapacity},
		{"Below minimum", 3, minRingCapacity},
		{"Power of 2", 64, 64},
		{"Rounded up - 100", 100, 128},
		{"Rounded up - 1025", 1025, 2048},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newRing[int](tt.capacity)
			if r.Cap() != tt.wantCap {
				t.Errorf("newRing(%d) capacity = %d, want %d", tt.capacity, r.Cap(), tt.wantCap)
			}
			if !isPowerOfTwo(r.Cap()) {
				t.Errorf("newRing(%d) capacity %d is not a power of two", tt.capacity, r.Cap())
			}
			if r.capMask != uint64(r.Cap()-1) {
				t.Errorf("newRing(%d) capMask = %d, want %d", tt.capacity, r.capMask, r.Cap()-1)
			}
			if r.Len() != 0 {
				t.Errorf("newRing(%d) Len() = %d, want 0", tt.capacity, r.Len())
			}
		})
	}
}

// TestRingBasicOperations tests push and pop
func TestRingBasicOperations(t *testing.T) {
	r := newRing[int](16)

	if _, ok := r.Pop(); ok {
		t.Error("Pop() on empty ring should return false")
	}

	r.Push(42)
	if r.Len() != 1 {
		t.Errorf("Expected length 1, got %d", r.Len())
	}

	val, ok := r.Pop()
	if !ok {
		t.Fatal("Pop() should succeed on non-empty ring")
	}
	if val != 42 {
		t.Errorf("Expected 42, got %d", val)
	}
	if r.Len() != 0 {
		t.Errorf("Expected length 0, got %d", r.Len())
	}
}

// TestRingFIFO tests that elements come out in insertion order
func TestRingFIFO(t *testing.T) {
	r := newRing[int](16)

	for i := 0; i < 10; i++ {
		r.Push(i)
	}
	for i := 0; i < 10; i++ {
		val, ok := r.Pop()
		if !ok {
			t.Fatalf("Pop() %d failed", i)
		}
		if val != i {
			t.Errorf("Expected %d, got %d", i, val)
		}
	}
}

// TestRingWrapAround tests index wrapping without growth
func TestRingWrapAround(t *testing.T) {
	r := newRing[int](16)

	next := 0
	expected := 0
	for round := 0; round < 10; round++ {
		for i := 0; i < 12; i++ {
			r.Push(next)
			next++
		}
		for i := 0; i < 12; i++ {
			val, _ := r.Pop()
			if val != expected {
				t.Fatalf("Round %d: expected %d, got %d", round, expected, val)
			}
			expected++
		}
	}
	if r.Cap() != 16 {
		t.Errorf("Ring should not have grown, capacity = %d", r.Cap())
	}
}

// TestRingGrow tests growth while the contents wrap the buffer
func TestRingGrow(t *testing.T) {
	sizes := []int{16, 17, 100, 1000}

	for _, size := range sizes {
		t.Run(fmt.Sprintf("Items%d", size), func(t *testing.T) {
			r := newRing[int](16)

			// move head off zero so the grow copies a wrapped range
			for i := 0; i < 10; i++ {
				r.Push(-1)
			}
			for i := 0; i < 10; i++ {
				r.Pop()
			}

			for i := 0; i < size; i++ {
				r.Push(i)
			}
			if r.Len() != size {
				t.Fatalf("Expected length %d, got %d", size, r.Len())
			}
			if r.Cap() < size {
				t.Errorf("Capacity %d smaller than length %d", r.Cap(), size)
			}
			for i := 0; i < size; i++ {
				val, ok := r.Pop()
				if !ok || val != i {
					t.Fatalf("Expected %d, got %d (ok=%v)", i, val, ok)
				}
			}
		})
	}
}

// TestRingPopClearsSlot tests that popped pointers are not retained
func TestRingPopClearsSlot(t *testing.T) {
	r := newRing[*task](16)
	r.Push(&task{id: 1})

	if _, ok := r.Pop(); !ok {
		t.Fatal("Pop() should succeed")
	}
	for i, slot := range r.buf {
		if slot != nil {
			t.Errorf("Slot %d still references a task after Pop()", i)
		}
	}
}

// TestRingStructType tests the ring with struct values
func TestRingStructType(t *testing.T) {
	type item struct {
		ID   int
		Name string
	}

	r := newRing[item](16)
	items := []item{{1, "first"}, {2, "second"}, {3, "third"}}
	for _, it := range items {
		r.Push(it)
	}
	for i, want := range items {
		got, ok := r.Pop()
		if !ok {
			t.Fatalf("Pop() %d failed", i)
		}
		if got != want {
			t.Errorf("Expected %+v, got %+v", want, got)
		}
	}
}

func TestNearestPowerOfTwo(t *testing.T) {
	tests := map[int]int{-5: 1, 0: 1, 1: 1, 2: 2, 3: 4, 5: 8, 64: 64, 65: 128}
	for in, want := range tests {
		if got := nearestPowerOfTwo(in); got != want {
			t.Errorf("nearestPowerOfTwo(%d) = %d, want %d", in, got, want)
		}
	}
}

// BenchmarkRingPushPop benchmarks alternating operations
func BenchmarkRingPushPop(b *testing.B) {
	r := newRing[int](1024)
	for i := 0; i < 512; i++ {
		r.Push(i)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		r.Push(i)
		r.Pop()
	}
}

// BenchmarkRingGrow benchmarks pushes that force growth
func BenchmarkRingGrow(b *testing.B) {
	for i := 0; i < b.N; i++ {
		r := newRing[int](16)
		for j := 0; j < 4096; j++ {
			r.Push(j)
		}
	}
}
