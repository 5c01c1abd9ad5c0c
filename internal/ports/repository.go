// Package ports define repository interfaces for data persistence abstraction.
// These interfaces enable the repository pattern and allow swapping persistence mechanisms.
package ports

import "context"

// KeyValueStore is the durable string store that holds the persisted session.
// Implementations can use SQLite, platform preferences, or in-memory storage.
//
// Thread-safety: Implementations must be thread-safe.
type KeyValueStore interface {
	// Get returns the value stored under key.
	// The boolean is false when the key does not exist; that is not an error.
	Get(ctx context.Context, key string) (string, bool, error)

	// Set stores value under key, replacing any previous value.
	Set(ctx context.Context, key, value string) error

	// Remove deletes key. Removing a missing key is a no-op.
	Remove(ctx context.Context, key string) error
}
