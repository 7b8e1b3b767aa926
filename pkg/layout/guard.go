package layout

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"strings"
	"time"

	"github.com/tkarrer/deckhand/pkg/errors"
	"github.com/tkarrer/deckhand/pkg/store"
)

// Envelope is the versioned wrapper persisted around a layout.
type Envelope struct {
	Version   string `json:"version"`
	Timestamp string `json:"timestamp"`
	Layout    Layout `json:"layout"`
}

// Guard validates layouts against a persistence store: strict before a
// write, lenient after a read. See the package documentation for the
// rationale behind the asymmetry.
type Guard struct {
	store    store.Store
	reporter Reporter
	now      func() time.Time
}

// Option configures a Guard.
type Option func(*Guard)

// WithReporter attaches a Reporter for drop/discard events.
// The default guard reports nothing.
func WithReporter(r Reporter) Option {
	return func(g *Guard) {
		if r != nil {
			g.reporter = r
		}
	}
}

// WithClock overrides the timestamp source for envelope writes.
// Tests use this to get deterministic envelopes.
func WithClock(now func() time.Time) Option {
	return func(g *Guard) {
		if now != nil {
			g.now = now
		}
	}
}

// NewGuard creates a layout guard over the given store.
func NewGuard(s store.Store, opts ...Option) *Guard {
	g := &Guard{
		store:    s,
		reporter: NoopReporter{},
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Sanitize filters invalid widgets out of l, reporting drops through the
// guard's reporter. See the package-level Sanitize for semantics.
func (g *Guard) Sanitize(l Layout) Layout {
	return Sanitize(l, g.reporter)
}

// Save validates l strictly and, on success, persists it under key wrapped
// in a versioned envelope with the current UTC timestamp. On validation
// failure nothing is written and the previous stored value is untouched.
// Store write failures surface as STORAGE_ERROR.
func (g *Guard) Save(ctx context.Context, key string, l Layout) error {
	if err := errors.ValidateStoreKey(key); err != nil {
		return err
	}
	if err := Validate(l); err != nil {
		return err
	}

	env := Envelope{
		Version:   SchemaVersion,
		Timestamp: g.now().UTC().Format(time.RFC3339),
		Layout:    l,
	}
	data, err := json.Marshal(env)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "encode layout envelope")
	}

	if err := g.store.Set(ctx, key, string(data)); err != nil {
		return errors.Wrap(errors.ErrCodeStorage, err, "save layout %q", key)
	}
	return nil
}

// Load reads the value stored under key and returns the salvageable layout.
//
// The result is (nil, nil) when the key is absent, the stored value is not
// valid JSON, its top-level shape is neither a bare array (legacy) nor an
// object with a layout array (current), or no widget survives sanitizing.
// A corrupt stored layout degrades to "no usable layout" rather than an
// error so the caller falls back to a default instead of failing; only
// store read failures return an error.
func (g *Guard) Load(ctx context.Context, key string) (Layout, error) {
	if err := errors.ValidateStoreKey(key); err != nil {
		return nil, err
	}

	raw, err := g.store.Get(ctx, key)
	if stderrors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStorage, err, "load layout %q", key)
	}

	l, ok := g.decode(key, raw)
	if !ok {
		return nil, nil
	}

	sanitized := g.Sanitize(l)
	if sanitized == nil {
		g.reporter.LayoutDiscarded(key, "no valid widgets")
		return nil, nil
	}
	return sanitized, nil
}

// decode extracts the layout sequence from a stored value, accepting both
// the current envelope and the legacy bare-array format.
func (g *Guard) decode(key, raw string) (Layout, bool) {
	trimmed := strings.TrimSpace(raw)

	switch {
	case strings.HasPrefix(trimmed, "["):
		// Legacy format: bare widget array.
		var l Layout
		if err := json.Unmarshal([]byte(trimmed), &l); err != nil {
			g.reporter.LayoutDiscarded(key, "unparsable legacy array")
			return nil, false
		}
		return l, true

	case strings.HasPrefix(trimmed, "{"):
		var env Envelope
		if err := json.Unmarshal([]byte(trimmed), &env); err != nil {
			g.reporter.LayoutDiscarded(key, "unparsable envelope")
			return nil, false
		}
		if env.Layout == nil {
			g.reporter.LayoutDiscarded(key, "envelope has no layout array")
			return nil, false
		}
		return env.Layout, true

	default:
		g.reporter.LayoutDiscarded(key, "unrecognized stored shape")
		return nil, false
	}
}

// Reset unconditionally deletes the layout stored under key.
// Deleting a missing key is a no-op; only store failures error.
func (g *Guard) Reset(ctx context.Context, key string) error {
	if err := errors.ValidateStoreKey(key); err != nil {
		return err
	}
	if err := g.store.Delete(ctx, key); err != nil {
		return errors.Wrap(errors.ErrCodeStorage, err, "reset layout %q", key)
	}
	return nil
}
