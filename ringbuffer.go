package futurepool

// ring is a growable FIFO ring buffer. It is not safe for concurrent use;
// taskQueue guards it with its own lock.
//
// The capacity is always a power of two so indices wrap with a mask.
type ring[T any] struct {
	buf     []T
	capMask uint64 // capacity - 1
	head    uint64 // index of the next element to be read
	tail    uint64 // index of the next element to be written
}

const minRingCapacity = 16

// newRing creates a ring able to hold at least capacity elements before it
// has to grow. The capacity is rounded up to a power of two.
func newRing[T any](capacity int) *ring[T] {
	if capacity < minRingCapacity {
		capacity = minRingCapacity
	}
	capacity = nearestPowerOfTwo(capacity)
	return &ring[T]{
		buf:     make([]T, capacity),
		capMask: uint64(capacity - 1),
	}
}

// Len returns the number of elements currently in the ring.
// head and tail only grow, so their difference is the length even after
// they wrap the buffer.
func (r *ring[T]) Len() int {
	return int(r.tail - r.head)
}

func (r *ring[T]) Cap() int {
	return len(r.buf)
}

// Push appends an item at the back, doubling the buffer when full.
func (r *ring[T]) Push(item T) {
	if r.Len() == len(r.buf) {
		r.grow()
	}
	r.buf[r.tail&r.capMask] = item
	r.tail++
}

// Pop removes the oldest item. It returns false when the ring is empty.
func (r *ring[T]) Pop() (T, bool) {
	var zero T
	if r.head == r.tail {
		return zero, false
	}
	idx := r.head & r.capMask
	item := r.buf[idx]
	// drop the reference so popped tasks can be collected
	r.buf[idx] = zero
	r.head++
	return item, true
}

// grow doubles the capacity and lays the elements out from index 0.
func (r *ring[T]) grow() {
	n := r.Len()
	buf := make([]T, len(r.buf)*2)
	for i := 0; i < n; i++ {
		buf[i] = r.buf[(r.head+uint64(i))&r.capMask]
	}
	r.buf = buf
	r.capMask = uint64(len(buf) - 1)
	r.head = 0
	r.tail = uint64(n)
}

func nearestPowerOfTwo(n int) int {
	if n <= 0 {
		return 1
	}
	n--
	n |= n >> 1
	n |= n >> 2
	n |= n >> 4
	n |= n >> 8
	n |= n >> 16
	n |= n >> 32
	n++
	return n
}

func isPowerOfTwo(n int) bool {
	return n > 0 && (n&(n-1)) == 0
}
