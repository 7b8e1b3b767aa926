package settings

import (
	"context"
	"testing"

	"github.com/tkarrer/deckhand/pkg/errors"
	"github.com/tkarrer/deckhand/pkg/store"
)

func newBinder() (*Binder, *store.MemoryStore) {
	backend := store.NewMemoryStore()
	return NewBinder(backend), backend
}

func TestGet_DefaultsWhenUnset(t *testing.T) {
	ctx := context.Background()
	b, _ := newBinder()

	tests := []struct {
		name string
		want string
	}{
		{KeyLanguage, "en"},
		{KeyTimeFormat, "24h"},
		{KeyRefreshSeconds, "60"},
		{KeyThemeName, "default"},
		{KeyUpdateChannel, "stable"},
		{KeyAutoCheckUpdates, "true"},
	}

	for _, tt := range tests {
		got, err := b.Get(ctx, tt.name)
		if err != nil {
			t.Fatalf("Get(%q) failed: %v", tt.name, err)
		}
		if got != tt.want {
			t.Errorf("Get(%q) = %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestSetGet_RoundTrip(t *testing.T) {
	ctx := context.Background()
	b, _ := newBinder()

	if err := b.Set(ctx, KeyLanguage, "de"); err != nil {
		t.Fatalf("Set() failed: %v", err)
	}
	got, err := b.Language(ctx)
	if err != nil || got != "de" {
		t.Errorf("Language() = %q, %v; want de", got, err)
	}
}

func TestSet_ValidatesValues(t *testing.T) {
	ctx := context.Background()
	b, _ := newBinder()

	tests := []struct {
		name  string
		value string
	}{
		{KeyTimeFormat, "25h"},
		{KeyRefreshSeconds, "soon"},
		{KeyUpdateChannel, "nightly"},
		{KeyAutoCheckUpdates, "maybe"},
		{KeyLanguage, ""},
		{"unknown_setting", "x"},
	}

	for _, tt := range tests {
		if err := b.Set(ctx, tt.name, tt.value); !errors.Is(err, errors.ErrCodeInvalidSetting) {
			t.Errorf("Set(%q, %q) error = %v, want INVALID_SETTING", tt.name, tt.value, err)
		}
	}
}

func TestSet_ClampsRefreshSeconds(t *testing.T) {
	ctx := context.Background()
	b, _ := newBinder()

	if err := b.Set(ctx, KeyRefreshSeconds, "1"); err != nil {
		t.Fatalf("Set() failed: %v", err)
	}
	if got, _ := b.RefreshSeconds(ctx); got != MinRefreshSeconds {
		t.Errorf("RefreshSeconds() = %d, want clamped to %d", got, MinRefreshSeconds)
	}

	if err := b.Set(ctx, KeyRefreshSeconds, "99999"); err != nil {
		t.Fatalf("Set() failed: %v", err)
	}
	if got, _ := b.RefreshSeconds(ctx); got != MaxRefreshSeconds {
		t.Errorf("RefreshSeconds() = %d, want clamped to %d", got, MaxRefreshSeconds)
	}
}

func TestGet_UnparsableStoredValueFallsBack(t *testing.T) {
	ctx := context.Background()
	b, backend := newBinder()

	// Simulate a stale value written by an older build.
	if err := backend.Set(ctx, Prefix+KeyTimeFormat, "military"); err != nil {
		t.Fatal(err)
	}

	got, err := b.TimeFormat(ctx)
	if err != nil {
		t.Fatalf("TimeFormat() failed: %v", err)
	}
	if got != DefaultTimeFormat {
		t.Errorf("TimeFormat() = %q, want default %q", got, DefaultTimeFormat)
	}
}

func TestApply_PartialBinding(t *testing.T) {
	ctx := context.Background()
	b, _ := newBinder()

	err := b.Apply(ctx, map[string]string{
		KeyLanguage:      "fr",
		KeyUpdateChannel: "beta",
	})
	if err != nil {
		t.Fatalf("Apply() failed: %v", err)
	}

	snap, err := b.Snapshot(ctx)
	if err != nil {
		t.Fatalf("Snapshot() failed: %v", err)
	}
	if snap.Language != "fr" || snap.UpdateChannel != "beta" {
		t.Errorf("applied fields not bound: %+v", snap)
	}
	// Untouched fields keep their defaults.
	if snap.TimeFormat != DefaultTimeFormat || snap.RefreshSeconds != DefaultRefreshSeconds {
		t.Errorf("unapplied fields changed: %+v", snap)
	}
}

func TestApply_RejectsWithoutPartialWrites(t *testing.T) {
	ctx := context.Background()
	b, _ := newBinder()

	err := b.Apply(ctx, map[string]string{
		KeyLanguage:   "it",
		KeyTimeFormat: "13h",
	})
	if !errors.Is(err, errors.ErrCodeInvalidSetting) {
		t.Fatalf("Apply() error = %v, want INVALID_SETTING", err)
	}

	// The valid field must not have been written either.
	got, _ := b.Language(ctx)
	if got != DefaultLanguage {
		t.Errorf("Language() = %q after failed Apply, want default", got)
	}
}

// brokenStore fails every write; reads delegate to an inner store.
type brokenStore struct {
	*store.MemoryStore
}

func (s *brokenStore) Set(ctx context.Context, key, value string) error {
	return context.DeadlineExceeded
}

func TestApply_SurfacesStorageErrors(t *testing.T) {
	ctx := context.Background()
	b := NewBinder(&brokenStore{store.NewMemoryStore()})

	// Values are valid, so Apply reaches the write phase; writes are
	// per-key with no transaction, so the failure surfaces as a coded
	// storage error.
	err := b.Apply(ctx, map[string]string{KeyLanguage: "fr"})
	if !errors.Is(err, errors.ErrCodeStorage) {
		t.Fatalf("Apply() error = %v, want STORAGE_ERROR", err)
	}
}

func TestReset_RevertsToDefaults(t *testing.T) {
	ctx := context.Background()
	b, _ := newBinder()

	if err := b.Set(ctx, KeyLanguage, "es"); err != nil {
		t.Fatal(err)
	}
	if err := b.Reset(ctx); err != nil {
		t.Fatalf("Reset() failed: %v", err)
	}

	got, _ := b.Language(ctx)
	if got != DefaultLanguage {
		t.Errorf("Language() after Reset = %q, want %q", got, DefaultLanguage)
	}
}

func TestNames_Sorted(t *testing.T) {
	names := Names()
	if len(names) != 6 {
		t.Fatalf("Names() has %d entries, want 6", len(names))
	}
	for i := 1; i < len(names); i++ {
		if names[i-1] >= names[i] {
			t.Errorf("Names() not sorted: %v", names)
		}
	}
}
