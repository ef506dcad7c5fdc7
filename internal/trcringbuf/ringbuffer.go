package trcringbuf

import (
	"sync"
)

// RingBuffer is a fixed-size collection of recent items. It's safe for
// concurrent use.
type RingBuffer[T any] struct {
	mtx sync.Mutex
	buf []T // fully allocated at construction
	cur int // index for next write
	len int // count of actual values
}

// NewRingBuffer returns an empty ring buffer with the given capacity. A
// capacity of zero or less means every add is dropped.
func NewRingBuffer[T any](cap int) *RingBuffer[T] {
	if cap < 0 {
		cap = 0
	}
	return &RingBuffer[T]{
		buf: make([]T, cap),
	}
}

// Add the value to the ring buffer, overwriting the oldest value if the ring
// buffer is full.
func (rb *RingBuffer[T]) Add(val T) {
	rb.mtx.Lock()
	defer rb.mtx.Unlock()

	if len(rb.buf) <= 0 {
		return
	}

	rb.buf[rb.cur] = val

	if rb.len < len(rb.buf) {
		rb.len++
	}

	rb.cur++
	if rb.cur >= len(rb.buf) {
		rb.cur -= len(rb.buf)
	}
}

// Len returns the number of values in the ring buffer.
func (rb *RingBuffer[T]) Len() int {
	rb.mtx.Lock()
	defer rb.mtx.Unlock()
	return rb.len
}

// Snapshot returns a copy of the values in the ring buffer, oldest first.
func (rb *RingBuffer[T]) Snapshot() []T {
	rb.mtx.Lock()
	defer rb.mtx.Unlock()

	res := make([]T, 0, rb.len)

	// The oldest value is len values back from the write cursor.
	cur := rb.cur - rb.len
	if cur < 0 {
		cur += len(rb.buf)
	}

	for i := 0; i < rb.len; i++ {
		res = append(res, rb.buf[cur])
		cur++
		if cur >= len(rb.buf) {
			cur -= len(rb.buf)
		}
	}

	return res
}
