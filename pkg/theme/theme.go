// Package theme provides the widget style table for list rendering.
//
// A Theme maps widget types to their display style (color, icon, label).
// It is built once at startup from a TOML table and is read-only afterwards;
// consumers receive it by reference instead of reading ambient global state.
//
// The embedded default table covers the built-in widget types and can be
// overridden by a user-supplied file:
//
//	[fallback]
//	color = "#9e9e9e"
//	icon = "widget"
//	label = "Widget"
//
//	[widgets.clock]
//	color = "#4a90d9"
//	icon = "clock"
//	label = "Clock"
//
// Icon values may be plain icon names or inline SVG markup. Markup is
// sanitized at load time with a strict allowlist policy, so a theme file is
// never a vector for script injection into the rendering layer.
package theme

import (
	"bytes"
	_ "embed"
	"os"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/tkarrer/deckhand/pkg/errors"
)

//go:embed default.toml
var defaultTOML []byte

// Style is the display configuration for one widget type.
type Style struct {
	Color string `toml:"color" json:"color"`
	Icon  string `toml:"icon" json:"icon"`
	Label string `toml:"label" json:"label"`
}

// Theme is an immutable widget style table.
type Theme struct {
	styles   map[string]Style
	fallback Style
	name     string
}

// themeFile is the TOML shape for theme tables.
type themeFile struct {
	Name     string           `toml:"name"`
	Fallback Style            `toml:"fallback"`
	Widgets  map[string]Style `toml:"widgets"`
}

// Default returns the embedded default theme.
// The embedded table is validated by tests, so failure to parse it is a
// programming error and panics.
func Default() *Theme {
	t, err := Parse(defaultTOML)
	if err != nil {
		panic("theme: invalid embedded default table: " + err.Error())
	}
	return t
}

// Parse builds a Theme from TOML data, validating every entry.
func Parse(data []byte) (*Theme, error) {
	var file themeFile
	if _, err := toml.NewDecoder(bytes.NewReader(data)).Decode(&file); err != nil {
		return nil, errors.Wrap(errors.ErrCodeParse, err, "decode theme table")
	}
	return build(file)
}

// LoadFile builds a Theme from a TOML file on disk.
func LoadFile(path string) (*Theme, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStorage, err, "read theme file %q", path)
	}
	return Parse(data)
}

func build(file themeFile) (*Theme, error) {
	styles := make(map[string]Style, len(file.Widgets))

	for widgetType, style := range file.Widgets {
		if err := errors.ValidateWidgetType(widgetType); err != nil {
			return nil, err
		}
		cleaned, err := normalizeStyle(widgetType, style)
		if err != nil {
			return nil, err
		}
		styles[widgetType] = cleaned
	}

	fallback, err := normalizeStyle("fallback", file.Fallback)
	if err != nil {
		return nil, err
	}

	name := file.Name
	if name == "" {
		name = "default"
	}
	return &Theme{styles: styles, fallback: fallback, name: name}, nil
}

func normalizeStyle(widgetType string, s Style) (Style, error) {
	if err := errors.ValidateHexColor(s.Color); err != nil {
		return Style{}, errors.Wrap(errors.ErrCodeInvalidTheme, err, "widget %q", widgetType)
	}

	// Inline SVG markup goes through the sanitizer; plain icon names pass
	// through untouched.
	if strings.Contains(s.Icon, "<") {
		cleaned := sanitizeIconMarkup(s.Icon)
		if cleaned == "" {
			return Style{}, errors.New(errors.ErrCodeInvalidTheme, "widget %q: icon markup is empty after sanitizing", widgetType)
		}
		s.Icon = cleaned
	}
	return s, nil
}

// Name returns the theme's display name.
func (t *Theme) Name() string { return t.name }

// Style returns the style for a widget type, or the fallback when the type
// is unknown.
func (t *Theme) Style(widgetType string) Style {
	if s, ok := t.styles[widgetType]; ok {
		return s
	}
	return t.fallback
}

// Known reports whether the widget type has an explicit style entry.
func (t *Theme) Known(widgetType string) bool {
	_, ok := t.styles[widgetType]
	return ok
}

// Fallback returns the style used for unknown widget types.
func (t *Theme) Fallback() Style { return t.fallback }

// Types returns the widget types with explicit entries, sorted.
func (t *Theme) Types() []string {
	types := make([]string, 0, len(t.styles))
	for widgetType := range t.styles {
		types = append(types, widgetType)
	}
	sort.Strings(types)
	return types
}

// Table returns a copy of the full style table keyed by widget type.
// The copy keeps the Theme itself immutable.
func (t *Theme) Table() map[string]Style {
	table := make(map[string]Style, len(t.styles))
	for widgetType, style := range t.styles {
		table[widgetType] = style
	}
	return table
}
