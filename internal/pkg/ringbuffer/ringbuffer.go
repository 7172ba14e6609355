// Package ringbuffer provides a fixed-capacity FIFO that evicts the oldest item when full.
package ringbuffer

import "sync"

// Buffer is a bounded FIFO safe for concurrent use
type Buffer[T any] struct {
	mu    sync.Mutex
	items []T
	head  int
	size  int
	total uint64
}

// New creates a buffer holding at most capacity items
func New[T any](capacity int) *Buffer[T] {
	if capacity <= 0 {
		capacity = 1
	}
	return &Buffer[T]{items: make([]T, capacity)}
}

// Push appends v, dropping the oldest item when full, and returns the number of items ever pushed
func (b *Buffer[T]) Push(v T) uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()

	idx := (b.head + b.size) % len(b.items)
	if b.size == len(b.items) {
		b.items[b.head] = v
		b.head = (b.head + 1) % len(b.items)
	} else {
		b.items[idx] = v
		b.size++
	}
	b.total++
	return b.total
}

// Snapshot returns a copy of the items, oldest first
func (b *Buffer[T]) Snapshot() []T {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make([]T, b.size)
	for i := 0; i < b.size; i++ {
		out[i] = b.items[(b.head+i)%len(b.items)]
	}
	return out
}

// Last returns up to n of the most recent items, oldest first
func (b *Buffer[T]) Last(n int) []T {
	b.mu.Lock()
	defer b.mu.Unlock()

	if n > b.size {
		n = b.size
	}
	if n <= 0 {
		return nil
	}
	out := make([]T, n)
	start := b.size - n
	for i := 0; i < n; i++ {
		out[i] = b.items[(b.head+start+i)%len(b.items)]
	}
	return out
}

// Len returns the number of buffered items
func (b *Buffer[T]) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.size
}

// Cap returns the buffer capacity
func (b *Buffer[T]) Cap() int {
	return len(b.items)
}

// Total returns the number of items ever pushed
func (b *Buffer[T]) Total() uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.total
}
