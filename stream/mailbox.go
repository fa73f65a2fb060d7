package stream

import (
	"sync"
	"sync/atomic"
)

// Mailbox is a single-slot, latest-wins handoff. Put never blocks; a value
// that is not taken before the next Put is dropped.
type Mailbox[T any] struct {
	mu    sync.Mutex
	val   T
	full  bool
	ready chan struct{}
	drops atomic.Uint64
}

// NewMailbox creates an empty Mailbox.
func NewMailbox[T any]() *Mailbox[T] {
	return &Mailbox[T]{ready: make(chan struct{}, 1)}
}

// Put stores v, replacing any value not yet taken. It reports whether a
// value was replaced.
func (m *Mailbox[T]) Put(v T) bool {
	m.mu.Lock()
	replaced := m.full
	m.val, m.full = v, true
	m.mu.Unlock()

	if replaced {
		m.drops.Add(1)
	}
	select {
	case m.ready <- struct{}{}:
	default:
	}
	return replaced
}

// Take removes and returns the stored value, if any.
func (m *Mailbox[T]) Take() (T, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var zero T
	if !m.full {
		return zero, false
	}
	v := m.val
	m.val, m.full = zero, false
	return v, true
}

// Ready is signalled after a Put. A receive does not guarantee that Take
// will find a value, since another consumer may have taken it first.
func (m *Mailbox[T]) Ready() <-chan struct{} {
	return m.ready
}

// Drops returns the number of values replaced before being taken.
func (m *Mailbox[T]) Drops() uint64 {
	return m.drops.Load()
}
