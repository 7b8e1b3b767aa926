package layout

import "github.com/charmbracelet/log"

// Reporter receives observability events from lenient validation. Keeping
// reporting behind an interface keeps the sanitizer pure and independently
// testable; the events are not part of the validation contract.
type Reporter interface {
	// WidgetDropped records one invalid widget removed during sanitize.
	WidgetDropped(index int, reason string)

	// LayoutDiscarded records a stored value thrown away wholesale
	// (unparsable, unexpected shape, or nothing salvageable).
	LayoutDiscarded(key, reason string)

	// SanitizeDone records a sanitize pass that dropped at least one widget.
	SanitizeDone(kept, dropped int)
}

// NoopReporter is a Reporter that discards all events. It is the default
// for guards constructed without WithReporter.
type NoopReporter struct{}

func (NoopReporter) WidgetDropped(int, string)      {}
func (NoopReporter) LayoutDiscarded(string, string) {}
func (NoopReporter) SanitizeDone(int, int)          {}

// LogReporter emits drop events as warnings through a charmbracelet logger.
type LogReporter struct {
	Logger *log.Logger
}

// NewLogReporter creates a Reporter backed by the given logger.
// A nil logger falls back to log.Default().
func NewLogReporter(logger *log.Logger) *LogReporter {
	if logger == nil {
		logger = log.Default()
	}
	return &LogReporter{Logger: logger}
}

func (r *LogReporter) WidgetDropped(index int, reason string) {
	r.Logger.Warn("dropped invalid widget", "index", index, "reason", reason)
}

func (r *LogReporter) LayoutDiscarded(key, reason string) {
	r.Logger.Warn("discarded stored layout", "key", key, "reason", reason)
}

func (r *LogReporter) SanitizeDone(kept, dropped int) {
	r.Logger.Warn("layout sanitized", "kept", kept, "dropped", dropped)
}
