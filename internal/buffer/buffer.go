// Package buffer holds the bounded queue between the scheduler and the
// playback consumer.
package buffer

import (
	"sync"
	"time"

	"github.com/cbegin/chordsheet-go/internal/errkind"
)

// ErrClosed is returned by Push once the buffer has been closed.
var ErrClosed = errkind.New(errkind.BufferClosed, "event buffer closed")

// Buffer is a bounded FIFO shared by one producer and one consumer.
// Waiters block on a broadcast channel that is closed and replaced on every
// state change, so Close wakes everything that is waiting.
type Buffer[T any] struct {
	mu      sync.Mutex
	items   []T
	head    int
	count   int
	closed  bool
	changed chan struct{}
}

func New[T any](capacity int) *Buffer[T] {
	if capacity <= 0 {
		capacity = 1
	}
	return &Buffer[T]{
		items:   make([]T, capacity),
		changed: make(chan struct{}),
	}
}

// Push appends v, blocking while the buffer is full. A negative timeout
// waits indefinitely and a zero timeout tries once. It returns false when
// the wait elapses and ErrClosed when the buffer is (or becomes) closed.
func (b *Buffer[T]) Push(v T, timeout time.Duration) (bool, error) {
	expired, stop := deadline(timeout)
	defer stop()
	for {
		b.mu.Lock()
		if b.closed {
			b.mu.Unlock()
			return false, ErrClosed
		}
		if b.count < len(b.items) {
			b.items[(b.head+b.count)%len(b.items)] = v
			b.count++
			b.broadcastLocked()
			b.mu.Unlock()
			return true, nil
		}
		wake := b.changed
		b.mu.Unlock()
		select {
		case <-wake:
		case <-expired:
			return false, nil
		}
	}
}

// Pop removes the head, blocking while the buffer is empty. It returns false
// when the wait elapses or once the buffer is closed and drained.
func (b *Buffer[T]) Pop(timeout time.Duration) (T, bool) {
	expired, stop := deadline(timeout)
	defer stop()
	for {
		b.mu.Lock()
		if b.count > 0 {
			v := b.items[b.head]
			var zero T
			b.items[b.head] = zero
			b.head = (b.head + 1) % len(b.items)
			b.count--
			b.broadcastLocked()
			b.mu.Unlock()
			return v, true
		}
		if b.closed {
			b.mu.Unlock()
			var zero T
			return zero, false
		}
		wake := b.changed
		b.mu.Unlock()
		select {
		case <-wake:
		case <-expired:
			var zero T
			return zero, false
		}
	}
}

// Peek returns the head without removing it.
func (b *Buffer[T]) Peek() (T, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.count == 0 {
		var zero T
		return zero, false
	}
	return b.items[b.head], true
}

// Close is idempotent. Pending and later pushes fail; pops drain what is left.
func (b *Buffer[T]) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	b.broadcastLocked()
}

// Clear drops all queued items without closing the buffer.
func (b *Buffer[T]) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	var zero T
	for i := range b.items {
		b.items[i] = zero
	}
	b.head = 0
	b.count = 0
	b.broadcastLocked()
}

func (b *Buffer[T]) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.count
}

func (b *Buffer[T]) Cap() int { return len(b.items) }

func (b *Buffer[T]) IsFull() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.count == len(b.items)
}

func (b *Buffer[T]) Closed() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.closed
}

func (b *Buffer[T]) broadcastLocked() {
	close(b.changed)
	b.changed = make(chan struct{})
}

// deadline returns a channel that fires after timeout. A negative timeout
// yields a nil channel, which never fires.
func deadline(timeout time.Duration) (<-chan time.Time, func()) {
	if timeout < 0 {
		return nil, func() {}
	}
	t := time.NewTimer(timeout)
	return t.C, func() { t.Stop() }
}
