// Package memory provides an in-memory KeyValueStore.
// Used by tests and by the "memory" storage backend, which forgets everything on exit.
package memory

import (
	"context"
	"errors"
	"sync"

	"github.com/tejashwikalptaru/studybeats/internal/domain"
	"github.com/tejashwikalptaru/studybeats/internal/ports"
)

// ErrInjected is returned by operations configured to fail.
var ErrInjected = errors.New("injected store failure")

// Store implements ports.KeyValueStore with a map.
//
// Thread-safe: All operations protected by sync.RWMutex.
type Store struct {
	mu     sync.RWMutex
	values map[string]string

	// Behavior configuration (for testing error scenarios)
	failReads  bool
	failWrites bool

	writes int
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{values: make(map[string]string)}
}

// SetFailReads makes Get fail (for testing).
func (s *Store) SetFailReads(fail bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failReads = fail
}

// SetFailWrites makes Set and Remove fail (for testing).
func (s *Store) SetFailWrites(fail bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failWrites = fail
}

// Get returns the value stored under key.
func (s *Store) Get(ctx context.Context, key string) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, domain.NewRepositoryError("get", "memory", key, "context done", err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.failReads {
		return "", false, domain.NewRepositoryError("get", "memory", key, "read failed", ErrInjected)
	}
	v, ok := s.values[key]
	return v, ok, nil
}

// Set stores value under key.
func (s *Store) Set(ctx context.Context, key, value string) error {
	if err := ctx.Err(); err != nil {
		return domain.NewRepositoryError("set", "memory", key, "context done", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.failWrites {
		return domain.NewRepositoryError("set", "memory", key, "write failed", ErrInjected)
	}
	s.values[key] = value
	s.writes++
	return nil
}

// Remove deletes key.
func (s *Store) Remove(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return domain.NewRepositoryError("remove", "memory", key, "context done", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.failWrites {
		return domain.NewRepositoryError("remove", "memory", key, "write failed", ErrInjected)
	}
	delete(s.values, key)
	s.writes++
	return nil
}

// Writes returns the number of successful Set and Remove calls.
func (s *Store) Writes() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.writes
}

// Verify that Store implements the KeyValueStore interface
var _ ports.KeyValueStore = (*Store)(nil)
