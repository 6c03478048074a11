// Package cache provides a tiny TTL cache for derived ledger views. The
// summary aggregates are recomputed from the full transaction list, so the
// HTTP layer memoizes them between mutations.
package cache

import (
	"sync"
	"time"
)

// Snapshot caches a single computed value with a TTL. Any ledger mutation
// calls Invalidate, so the TTL only matters as a backstop against writers
// that bypass the service layer (e.g. a manual sqlite3 session).
type Snapshot[T any] struct {
	mu        sync.Mutex
	ttl       time.Duration
	value     T
	expiresAt time.Time
	valid     bool
}

func NewSnapshot[T any](ttl time.Duration) *Snapshot[T] {
	return &Snapshot[T]{ttl: ttl}
}

// Get returns the cached value if it is still fresh.
func (s *Snapshot[T]) Get() (T, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var zero T
	if !s.valid || time.Now().After(s.expiresAt) {
		s.valid = false
		return zero, false
	}
	return s.value, true
}

// Set stores a freshly computed value.
func (s *Snapshot[T]) Set(value T) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.value = value
	s.expiresAt = time.Now().Add(s.ttl)
	s.valid = true
}

// Invalidate drops the cached value. Called after every mutation.
func (s *Snapshot[T]) Invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()

	var zero T
	s.value = zero
	s.valid = false
}
