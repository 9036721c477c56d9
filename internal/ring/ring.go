// Package ring provides a lock-free single-producer single-consumer queue.
package ring

import (
	"runtime"
	"sync/atomic"
)

// Buffer is a lock-free spsc queue. Push must only be called from one
// goroutine at a time, and likewise for the consuming methods.
type Buffer[T any] struct {
	items       []T
	read, write atomic.Uint32
}

func New[T any](size int) *Buffer[T] {
	if size <= 0 || size&(size-1) != 0 {
		panic("ring buffer size must be a power of 2")
	}
	return &Buffer[T]{items: make([]T, size)}
}

// Push appends v, yielding to the consumer while the buffer is full.
func (b *Buffer[T]) Push(v T) {
	for b.write.Load()-b.read.Load() == uint32(len(b.items)) {
		runtime.Gosched()
	}
	write := b.write.Load()
	b.items[write%uint32(len(b.items))] = v
	b.write.Store(write + 1)
}

// Peek returns the oldest item without removing it.
func (b *Buffer[T]) Peek() (T, bool) {
	read := b.read.Load()
	if read == b.write.Load() {
		var zero T
		return zero, false
	}
	return b.items[read%uint32(len(b.items))], true
}

// Pop removes and returns the oldest item.
func (b *Buffer[T]) Pop() (T, bool) {
	v, ok := b.Peek()
	if ok {
		b.read.Add(1)
	}
	return v, ok
}

// Len returns the number of queued items.
func (b *Buffer[T]) Len() int {
	return int(b.write.Load() - b.read.Load())
}
