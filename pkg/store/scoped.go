package store

import "context"

// Scoped wraps a Store with a key prefix for namespace isolation.
// This keeps different consumers (layouts, settings) from colliding in a
// shared backend, and supports per-user scoping in multi-tenant setups.
//
// Example usage:
//
//	layouts := store.NewScoped(backend, "layout:")
//	settings := store.NewScoped(backend, "settings:")
//
//	// Per-user isolation on a shared backend
//	userStore := store.NewScoped(backend, "user:abc123:")
type Scoped struct {
	inner  Store
	prefix string
}

// NewScoped creates a store view that prepends prefix to every key.
// Scoped views can be nested; prefixes accumulate.
func NewScoped(inner Store, prefix string) *Scoped {
	return &Scoped{inner: inner, prefix: prefix}
}

// Get retrieves the value stored under the prefixed key.
func (s *Scoped) Get(ctx context.Context, key string) (string, error) {
	return s.inner.Get(ctx, s.prefix+key)
}

// Set stores value under the prefixed key.
func (s *Scoped) Set(ctx context.Context, key, value string) error {
	return s.inner.Set(ctx, s.prefix+key, value)
}

// Delete removes the prefixed key.
func (s *Scoped) Delete(ctx context.Context, key string) error {
	return s.inner.Delete(ctx, s.prefix+key)
}

// Close closes the underlying store.
func (s *Scoped) Close() error {
	return s.inner.Close()
}

// Ensure Scoped implements Store.
var _ Store = (*Scoped)(nil)
