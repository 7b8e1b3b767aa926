// Package store provides key-value persistence for dashboard state.
//
// This package defines the Store interface used by the layout guard and the
// settings binder, with implementations for different backends:
//   - memory: In-memory storage for development/testing
//   - file: File-based storage for CLI usage
//   - redis: Redis-backed storage for multi-instance server deployments
//   - mongo: MongoDB-backed storage for durable deployments
//
// # Architecture
//
// Values are opaque strings (callers serialize to JSON before writing).
// Every operation is a single atomic read or write against the backend;
// the store performs no multi-step transactions, so no locking is needed
// beyond what each backend does internally.
//
// # Usage
//
// Create a store:
//
//	// Development
//	s := store.NewMemoryStore()
//
//	// CLI
//	s, err := store.NewFileStore("")  // Uses ~/.local/share/deckhand/store/
//
//	// Server
//	s, err := store.NewRedisStore(ctx, "redis://localhost:6379")
//
// Read and write:
//
//	if err := s.Set(ctx, "layout:default", data); err != nil {
//	    return err
//	}
//	value, err := s.Get(ctx, "layout:default")
//	if errors.Is(err, store.ErrNotFound) {
//	    // Key absent
//	}
package store

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Get when a key does not exist.
var ErrNotFound = errors.New("key not found")

// Store is the interface for key-value persistence backends.
type Store interface {
	// Get retrieves the value stored under key.
	// Returns ErrNotFound when the key is absent.
	Get(ctx context.Context, key string) (string, error)

	// Set stores value under key, overwriting any previous value.
	Set(ctx context.Context, key, value string) error

	// Delete removes key. Deleting a missing key is a no-op.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}
