package broker

import (
	"context"
	"sync"
)

// Memo caches the first successful result of a fetch. Failed fetches are not
// cached, so a later call tries again. The zero Memo is ready to use and is
// safe for concurrent use.
type Memo[T any] struct {
	mu    sync.Mutex
	done  bool
	value T
}

// Get returns the cached value, or calls fetch and caches its result when it
// succeeds. Concurrent callers wait for an in-flight fetch.
func (m *Memo[T]) Get(ctx context.Context, fetch func(context.Context) (T, error)) (T, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.done {
		return m.value, nil
	}
	v, err := fetch(ctx)
	if err != nil {
		var zero T
		return zero, err
	}
	m.value, m.done = v, true
	return v, nil
}
