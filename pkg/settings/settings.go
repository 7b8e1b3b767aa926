// Package settings binds dashboard settings to the persistence store.
//
// Each setting lives under its own key in a "settings:"-scoped view of the
// store, string-encoded. Getters fall back to the documented default when a
// key is missing or its stored value no longer parses; setters validate and
// clamp before writing, so the store never holds a value a getter would
// reject.
//
// Apply binds a partial name/value map (the settings form POST) onto the
// store in one call, validating every field before any write.
package settings

import (
	"context"
	stderrors "errors"
	"sort"
	"strconv"

	"github.com/tkarrer/deckhand/pkg/errors"
	"github.com/tkarrer/deckhand/pkg/store"
)

// Prefix is the store namespace for settings keys.
const Prefix = "settings:"

// Setting names accepted by Get, Set, and Apply.
const (
	KeyLanguage         = "language"
	KeyTimeFormat       = "time_format"
	KeyRefreshSeconds   = "refresh_seconds"
	KeyThemeName        = "theme_name"
	KeyUpdateChannel    = "update_channel"
	KeyAutoCheckUpdates = "auto_check_updates"
)

// Defaults and bounds.
const (
	DefaultLanguage       = "en"
	DefaultTimeFormat     = "24h"
	DefaultRefreshSeconds = 60
	DefaultThemeName      = "default"
	DefaultUpdateChannel  = "stable"

	MinRefreshSeconds = 5
	MaxRefreshSeconds = 3600
)

// Snapshot is the complete settings document.
type Snapshot struct {
	Language         string `json:"language"`
	TimeFormat       string `json:"time_format"`
	RefreshSeconds   int    `json:"refresh_seconds"`
	ThemeName        string `json:"theme_name"`
	UpdateChannel    string `json:"update_channel"`
	AutoCheckUpdates bool   `json:"auto_check_updates"`
}

// Binder reads and writes dashboard settings against a store.
type Binder struct {
	store store.Store
}

// NewBinder creates a settings binder over the given store.
// Keys are automatically scoped under the settings namespace.
func NewBinder(s store.Store) *Binder {
	return &Binder{store: store.NewScoped(s, Prefix)}
}

// definition describes one setting: how to validate an incoming string and
// normalize it for storage.
type definition struct {
	fallback  string
	normalize func(string) (string, error)
}

var definitions = map[string]definition{
	KeyLanguage: {
		fallback: DefaultLanguage,
		normalize: func(v string) (string, error) {
			if v == "" {
				return "", errors.New(errors.ErrCodeInvalidSetting, "language cannot be empty")
			}
			return v, nil
		},
	},
	KeyTimeFormat: {
		fallback: DefaultTimeFormat,
		normalize: func(v string) (string, error) {
			if v != "24h" && v != "12h" {
				return "", errors.New(errors.ErrCodeInvalidSetting, "time format must be 24h or 12h, got %q", v)
			}
			return v, nil
		},
	},
	KeyRefreshSeconds: {
		fallback: strconv.Itoa(DefaultRefreshSeconds),
		normalize: func(v string) (string, error) {
			n, err := strconv.Atoi(v)
			if err != nil {
				return "", errors.New(errors.ErrCodeInvalidSetting, "refresh interval must be a number, got %q", v)
			}
			// Clamp rather than reject so a form slider can overshoot.
			if n < MinRefreshSeconds {
				n = MinRefreshSeconds
			}
			if n > MaxRefreshSeconds {
				n = MaxRefreshSeconds
			}
			return strconv.Itoa(n), nil
		},
	},
	KeyThemeName: {
		fallback: DefaultThemeName,
		normalize: func(v string) (string, error) {
			if v == "" {
				return "", errors.New(errors.ErrCodeInvalidSetting, "theme name cannot be empty")
			}
			return v, nil
		},
	},
	KeyUpdateChannel: {
		fallback: DefaultUpdateChannel,
		normalize: func(v string) (string, error) {
			if v != "stable" && v != "beta" {
				return "", errors.New(errors.ErrCodeInvalidSetting, "update channel must be stable or beta, got %q", v)
			}
			return v, nil
		},
	},
	KeyAutoCheckUpdates: {
		fallback: "true",
		normalize: func(v string) (string, error) {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return "", errors.New(errors.ErrCodeInvalidSetting, "auto check updates must be a boolean, got %q", v)
			}
			return strconv.FormatBool(b), nil
		},
	},
}

// Names returns all recognized setting names, sorted.
func Names() []string {
	names := make([]string, 0, len(definitions))
	for name := range definitions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Get returns the stored string value for a setting, or its default when
// the key is absent or the stored value no longer parses.
func (b *Binder) Get(ctx context.Context, name string) (string, error) {
	def, ok := definitions[name]
	if !ok {
		return "", errors.New(errors.ErrCodeInvalidSetting, "unknown setting %q", name)
	}

	raw, err := b.store.Get(ctx, name)
	if stderrors.Is(err, store.ErrNotFound) {
		return def.fallback, nil
	}
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeStorage, err, "read setting %q", name)
	}

	// A stored value that fails validation (written by an older build,
	// edited by hand) degrades to the default instead of erroring.
	normalized, err := def.normalize(raw)
	if err != nil {
		return def.fallback, nil
	}
	return normalized, nil
}

// Set validates, normalizes, and stores a setting value.
func (b *Binder) Set(ctx context.Context, name, value string) error {
	def, ok := definitions[name]
	if !ok {
		return errors.New(errors.ErrCodeInvalidSetting, "unknown setting %q", name)
	}
	normalized, err := def.normalize(value)
	if err != nil {
		return err
	}
	if err := b.store.Set(ctx, name, normalized); err != nil {
		return errors.Wrap(errors.ErrCodeStorage, err, "write setting %q", name)
	}
	return nil
}

// Apply binds a partial name/value map onto the store. Every field is
// validated before any write, so an unknown name or bad value leaves all
// settings untouched. Writes themselves are per-key: the store has no
// transactions, and a storage failure mid-way can leave earlier keys
// applied.
func (b *Binder) Apply(ctx context.Context, changes map[string]string) error {
	normalized := make(map[string]string, len(changes))
	for name, value := range changes {
		def, ok := definitions[name]
		if !ok {
			return errors.New(errors.ErrCodeInvalidSetting, "unknown setting %q", name)
		}
		v, err := def.normalize(value)
		if err != nil {
			return err
		}
		normalized[name] = v
	}

	for name, value := range normalized {
		if err := b.store.Set(ctx, name, value); err != nil {
			return errors.Wrap(errors.ErrCodeStorage, err, "write setting %q", name)
		}
	}
	return nil
}

// Reset deletes every settings key, reverting all settings to defaults.
func (b *Binder) Reset(ctx context.Context) error {
	for name := range definitions {
		if err := b.store.Delete(ctx, name); err != nil {
			return errors.Wrap(errors.ErrCodeStorage, err, "delete setting %q", name)
		}
	}
	return nil
}

// Typed accessors. Each falls back to its default on missing or unparsable
// stored values, mirroring Get.

// Language returns the UI language code.
func (b *Binder) Language(ctx context.Context) (string, error) {
	return b.Get(ctx, KeyLanguage)
}

// TimeFormat returns "24h" or "12h".
func (b *Binder) TimeFormat(ctx context.Context) (string, error) {
	return b.Get(ctx, KeyTimeFormat)
}

// RefreshSeconds returns the widget refresh interval in seconds.
func (b *Binder) RefreshSeconds(ctx context.Context) (int, error) {
	v, err := b.Get(ctx, KeyRefreshSeconds)
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return DefaultRefreshSeconds, nil
	}
	return n, nil
}

// ThemeName returns the active theme name.
func (b *Binder) ThemeName(ctx context.Context) (string, error) {
	return b.Get(ctx, KeyThemeName)
}

// UpdateChannel returns "stable" or "beta".
func (b *Binder) UpdateChannel(ctx context.Context) (string, error) {
	return b.Get(ctx, KeyUpdateChannel)
}

// AutoCheckUpdates reports whether background update checks are enabled.
func (b *Binder) AutoCheckUpdates(ctx context.Context) (bool, error) {
	v, err := b.Get(ctx, KeyAutoCheckUpdates)
	if err != nil {
		return false, err
	}
	enabled, err := strconv.ParseBool(v)
	if err != nil {
		return true, nil
	}
	return enabled, nil
}

// Snapshot returns the whole settings document.
func (b *Binder) Snapshot(ctx context.Context) (*Snapshot, error) {
	language, err := b.Language(ctx)
	if err != nil {
		return nil, err
	}
	timeFormat, err := b.TimeFormat(ctx)
	if err != nil {
		return nil, err
	}
	refresh, err := b.RefreshSeconds(ctx)
	if err != nil {
		return nil, err
	}
	themeName, err := b.ThemeName(ctx)
	if err != nil {
		return nil, err
	}
	channel, err := b.UpdateChannel(ctx)
	if err != nil {
		return nil, err
	}
	autoCheck, err := b.AutoCheckUpdates(ctx)
	if err != nil {
		return nil, err
	}

	return &Snapshot{
		Language:         language,
		TimeFormat:       timeFormat,
		RefreshSeconds:   refresh,
		ThemeName:        themeName,
		UpdateChannel:    channel,
		AutoCheckUpdates: autoCheck,
	}, nil
}
