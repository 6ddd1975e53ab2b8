package discovery

import (
	"context"
	"sync"
)

// Memo is a compute-once value that can be replaced on demand. A computed
// zero value is cached like any other; a failed computation is not.
type Memo[T any] struct {
	mu      sync.Mutex
	compute func(context.Context) (T, error)
	value   T
	ok      bool
}

// NewMemo creates a Memo backed by compute.
func NewMemo[T any](compute func(context.Context) (T, error)) *Memo[T] {
	return &Memo[T]{compute: compute}
}

// Get returns the memoized value, computing it on first use. Concurrent
// callers wait for a single computation.
func (m *Memo[T]) Get(ctx context.Context) (T, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ok {
		return m.value, nil
	}
	v, err := m.compute(ctx)
	if err != nil {
		var zero T
		return zero, err
	}
	m.value, m.ok = v, true
	return v, nil
}

// Peek returns the memoized value without computing it.
func (m *Memo[T]) Peek() (T, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.value, m.ok
}

// Set replaces the value.
func (m *Memo[T]) Set(v T) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.value, m.ok = v, true
}

// Update applies fn to the memoized value. It reports false, without
// calling fn, when nothing has been computed yet.
func (m *Memo[T]) Update(fn func(T) T) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.ok {
		return false
	}
	m.value = fn(m.value)
	return true
}

// Reset forgets the value; the next Get recomputes it.
func (m *Memo[T]) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	var zero T
	m.value, m.ok = zero, false
}
