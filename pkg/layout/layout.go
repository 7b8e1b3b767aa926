// Package layout implements the widget layout guard.
//
// The guard protects the dashboard from a transient rendering bug writing a
// layout that would make it unrenderable on next load. Write-side validation
// is strict (one bad widget rejects the whole save); read-side validation is
// lenient (invalid widgets are dropped so a partially corrupt stored layout
// degrades gracefully instead of locking the user out).
//
// # Data Model
//
// A Widget is a positioned, typed dashboard element. A Layout is an ordered
// sequence of widgets; order is meaningful for rendering but not otherwise
// constrained. Widgets carry unknown fields transparently through Extra.
//
// # Persistence
//
// Layouts are persisted as a versioned envelope:
//
//	{"version":"1.0","timestamp":"2026-08-30T12:00:00Z","layout":[...]}
//
// A legacy format (bare widget array, no envelope) is accepted on read for
// backward compatibility.
package layout

import (
	"encoding/json"
	"math"
	"sort"

	"github.com/tkarrer/deckhand/pkg/errors"
)

// SchemaVersion is the envelope version written on save.
// The version is advisory on load: unknown versions pass through the same
// sanitizer rather than being rejected.
const SchemaVersion = "1.0"

// dimension names in canonical order, used in error messages.
var dimensionNames = [4]string{"x", "y", "w", "h"}

// Widget is a positioned, typed dashboard element with grid coordinates and
// size. Fields beyond type and geometry are carried transparently in Extra
// and never validated.
type Widget struct {
	Type string
	X    float64
	Y    float64
	W    float64
	H    float64

	// Extra holds fields outside the validated set, preserved across
	// encode/decode so the guard never strips renderer-specific data.
	Extra map[string]any
}

// Layout is the ordered set of widgets composing one dashboard arrangement.
type Layout []Widget

// check reports why the widget is invalid, or nil when it is usable.
func (w Widget) check() error {
	switch w.Type {
	case "":
		return errors.New(errors.ErrCodeInvalidWidget, "widget has no type")
	case "undefined", "null":
		// Artifacts of a buggy writer stringifying a missing value.
		return errors.New(errors.ErrCodeInvalidWidget, "widget has placeholder type %q", w.Type)
	}

	for i, v := range [4]float64{w.X, w.Y, w.W, w.H} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return errors.New(errors.ErrCodeInvalidWidget, "dimension %q is not a finite number", dimensionNames[i])
		}
	}
	return nil
}

// Valid reports whether the widget passes the type and dimension checks.
// Geometry is not constrained: zero or negative sizes are valid as far as
// the guard is concerned, only the field types matter.
func (w Widget) Valid() bool {
	return w.check() == nil
}

// UnmarshalJSON decodes a widget from its wire form. Decoding is lenient by
// design: a malformed entry (wrong container shape, non-string type,
// non-numeric dimension) decodes as an invalid widget instead of failing the
// surrounding array, so the sanitizer can drop it while salvaging the rest.
// Missing or non-numeric dimensions decode as NaN, which the validity check
// rejects.
func (w *Widget) UnmarshalJSON(data []byte) error {
	*w = Widget{X: math.NaN(), Y: math.NaN(), W: math.NaN(), H: math.NaN()}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil
	}

	for key, value := range raw {
		switch key {
		case "type":
			var s string
			if err := json.Unmarshal(value, &s); err == nil {
				w.Type = s
			}
		case "x":
			w.X = decodeNumber(value)
		case "y":
			w.Y = decodeNumber(value)
		case "w":
			w.W = decodeNumber(value)
		case "h":
			w.H = decodeNumber(value)
		default:
			var v any
			if err := json.Unmarshal(value, &v); err == nil {
				if w.Extra == nil {
					w.Extra = make(map[string]any)
				}
				w.Extra[key] = v
			}
		}
	}
	return nil
}

// MarshalJSON encodes the widget with its extra fields inlined alongside the
// validated ones.
func (w Widget) MarshalJSON() ([]byte, error) {
	fields := map[string]any{
		"type": w.Type,
		"x":    w.X,
		"y":    w.Y,
		"w":    w.W,
		"h":    w.H,
	}
	for key, value := range w.Extra {
		switch key {
		case "type", "x", "y", "w", "h":
			// Validated fields win over stale extras.
		default:
			fields[key] = value
		}
	}
	return json.Marshal(fields)
}

func decodeNumber(data json.RawMessage) float64 {
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return math.NaN()
	}
	return f
}

// Validate checks a layout for saving: strict and all-or-nothing. It returns
// nil only when every widget is valid; one bad widget rejects the whole
// layout, and the error names the first offending index and reason.
// An empty layout is valid.
func Validate(l Layout) error {
	for i, w := range l {
		if err := w.check(); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidLayout, err, "widget %d rejected", i)
		}
	}
	return nil
}

// Sanitize filters a layout for loading: lenient and best-effort. Invalid
// widgets are dropped (never repaired), valid ones are kept in their
// original order. Returns nil when nothing survives. Each drop and a final
// summary are reported through r; pass nil for silent operation.
//
// Sanitize is idempotent: sanitizing an already-sanitized layout is a no-op.
func Sanitize(l Layout, r Reporter) Layout {
	if r == nil {
		r = NoopReporter{}
	}
	if l == nil {
		return nil
	}

	kept := make(Layout, 0, len(l))
	dropped := 0
	for i, w := range l {
		if err := w.check(); err != nil {
			r.WidgetDropped(i, errors.UserMessage(err))
			dropped++
			continue
		}
		kept = append(kept, w)
	}

	if dropped > 0 {
		r.SanitizeDone(len(kept), dropped)
	}
	if len(kept) == 0 {
		return nil
	}
	return kept
}

// ParseStrict decodes caller-supplied JSON (HTTP bodies, files) into a
// layout. The input must be a JSON array of fully valid widgets; anything
// else yields a coded error. Use this on the write path, where salvaging
// would mask caller bugs.
func ParseStrict(data []byte) (Layout, error) {
	var l Layout
	if err := json.Unmarshal(data, &l); err != nil {
		return nil, errors.Wrap(errors.ErrCodeParse, err, "layout is not a JSON array")
	}
	if err := Validate(l); err != nil {
		return nil, err
	}
	return l, nil
}

// Types returns the distinct widget types present in the layout, sorted.
func (l Layout) Types() []string {
	seen := make(map[string]struct{}, len(l))
	for _, w := range l {
		seen[w.Type] = struct{}{}
	}
	types := make([]string, 0, len(seen))
	for t := range seen {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}
