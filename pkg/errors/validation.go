package errors

import (
	"regexp"
	"strings"
	"unicode"
)

// ValidateStoreKey validates a layout storage key for safety and correctness.
// Keys are caller-supplied (CLI arguments, URL path segments) and end up in
// store backends that treat them opaquely, so the rules are conservative:
//   - No empty or whitespace-only keys
//   - No control characters
//   - No path separators (keys travel through URL paths)
//   - Maximum length of 128 characters
func ValidateStoreKey(key string) error {
	if strings.TrimSpace(key) == "" {
		return New(ErrCodeInvalidKey, "storage key cannot be empty")
	}

	if len(key) > 128 {
		return New(ErrCodeInvalidKey, "storage key too long (max 128 characters)")
	}

	for _, r := range key {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidKey, "storage key contains control characters")
		}
	}

	if strings.ContainsAny(key, "/\\") {
		return New(ErrCodeInvalidKey, "storage key cannot contain path separators")
	}

	return nil
}

// widgetTypeRegex matches widget type identifiers: lowercase alphanumeric
// segments separated by single hyphens or dots (e.g. "todo-list", "news.rss").
var widgetTypeRegex = regexp.MustCompile(`^[a-z0-9]+([.-][a-z0-9]+)*$`)

// ValidateWidgetType validates a widget type identifier as used in theme
// tables and default layouts. The layout guard itself is intentionally more
// permissive (any non-placeholder string renders); this stricter form keeps
// configuration files tidy.
func ValidateWidgetType(name string) error {
	if name == "" {
		return New(ErrCodeInvalidWidget, "widget type cannot be empty")
	}

	if len(name) > 64 {
		return New(ErrCodeInvalidWidget, "widget type too long (max 64 characters)")
	}

	if !widgetTypeRegex.MatchString(name) {
		return New(ErrCodeInvalidWidget, "invalid widget type: %q", name)
	}

	return nil
}

// hexColorRegex matches #rgb and #rrggbb hex color notation.
var hexColorRegex = regexp.MustCompile(`^#([0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)

// ValidateHexColor validates a color value from a theme table.
// An empty color is allowed and means "use the fallback".
func ValidateHexColor(color string) error {
	if color == "" {
		return nil
	}

	if !hexColorRegex.MatchString(color) {
		return New(ErrCodeInvalidTheme, "invalid color %q (expected #rgb or #rrggbb)", color)
	}

	return nil
}

// ValidateBaseURL validates a release feed or API base URL.
// It ensures the URL has a safe scheme (http or https).
func ValidateBaseURL(rawURL string) error {
	if rawURL == "" {
		return New(ErrCodeInvalidInput, "URL cannot be empty")
	}

	if !strings.HasPrefix(rawURL, "http://") && !strings.HasPrefix(rawURL, "https://") {
		return New(ErrCodeInvalidInput, "URL must use http or https scheme")
	}

	return nil
}
