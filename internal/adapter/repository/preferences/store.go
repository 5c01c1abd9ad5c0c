// Package preferences provides a KeyValueStore backed by Fyne preferences.
// This lets a desktop front-end keep the session next to its other settings.
package preferences

import (
	"context"
	"sync"

	"fyne.io/fyne/v2"

	"github.com/tejashwikalptaru/studybeats/internal/domain"
	"github.com/tejashwikalptaru/studybeats/internal/ports"
)

// KeyPrefix namespaces every key written by the store.
const KeyPrefix = "studybeats."

// missing is returned by Fyne when a key does not exist.
// It contains a NUL byte so it cannot collide with a stored JSON document.
const missing = "\x00missing"

// Store implements ports.KeyValueStore using Fyne preferences.
//
// Thread-safe: All operations protected by sync.RWMutex.
type Store struct {
	prefs fyne.Preferences
	mu    sync.RWMutex
}

// NewStore creates a preferences-backed store.
// The preferences parameter should be obtained from app.Preferences().
func NewStore(prefs fyne.Preferences) *Store {
	return &Store{prefs: prefs}
}

// Get returns the value stored under key.
func (s *Store) Get(ctx context.Context, key string) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, domain.NewRepositoryError("get", "preferences", key, "context done", err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	v := s.prefs.StringWithFallback(KeyPrefix+key, missing)
	if v == missing {
		return "", false, nil
	}
	return v, true, nil
}

// Set stores value under key.
func (s *Store) Set(ctx context.Context, key, value string) error {
	if err := ctx.Err(); err != nil {
		return domain.NewRepositoryError("set", "preferences", key, "context done", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.prefs.SetString(KeyPrefix+key, value)
	return nil
}

// Remove deletes key.
func (s *Store) Remove(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return domain.NewRepositoryError("remove", "preferences", key, "context done", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.prefs.RemoveValue(KeyPrefix + key)
	return nil
}

// Verify that Store implements the KeyValueStore interface
var _ ports.KeyValueStore = (*Store)(nil)
