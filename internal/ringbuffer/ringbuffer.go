// Package ringbuffer keeps the most recent entries of an unbounded stream.
package ringbuffer

import "sync"

// Buffer is a thread-safe ring buffer holding at most Cap entries.
type Buffer[T any] struct {
	mu      sync.RWMutex
	entries []T
	next    uint64
	dropped uint64
}

// New creates a buffer for capacity entries. It panics if capacity is zero.
func New[T any](capacity int) *Buffer[T] {
	if capacity <= 0 {
		panic("ringbuffer: capacity must be greater than 0")
	}
	return &Buffer[T]{entries: make([]T, 0, capacity)}
}

// Push appends v, overwriting the oldest entry when the buffer is full.
func (b *Buffer[T]) Push(v T) {
	b.mu.Lock()
	defer b.mu.Unlock()

	capacity := uint64(cap(b.entries))
	if uint64(len(b.entries)) < capacity {
		b.entries = append(b.entries, v)
	} else {
		b.entries[b.next%capacity] = v
		b.dropped++
	}
	b.next++
}

// Last returns up to n of the most recent entries, oldest first.
func (b *Buffer[T]) Last(n int) []T {
	b.mu.RLock()
	defer b.mu.RUnlock()

	count := min(n, len(b.entries))
	if count <= 0 {
		return []T{}
	}

	capacity := uint64(cap(b.entries))
	result := make([]T, count)
	start := b.next - uint64(count)
	for i := range result {
		result[i] = b.entries[(start+uint64(i))%capacity]
	}
	return result
}

// All returns every entry held, oldest first.
func (b *Buffer[T]) All() []T {
	return b.Last(b.Cap())
}

// Len returns the number of entries held.
func (b *Buffer[T]) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.entries)
}

// Cap returns the maximum number of entries.
func (b *Buffer[T]) Cap() int {
	return cap(b.entries)
}

// Dropped returns how many entries were overwritten.
func (b *Buffer[T]) Dropped() uint64 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.dropped
}
