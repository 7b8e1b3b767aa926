// Package update implements the application update check and its polling
// surface: fetch the latest release from a feed, compare it against the
// running build, and expose the check's progress as a pollable status.
package update

import "time"

// State describes where an update check currently stands.
type State string

// Update check states.
const (
	StateIdle      State = "idle"
	StateChecking  State = "checking"
	StateUpToDate  State = "up-to-date"
	StateAvailable State = "available"
	StateFailed    State = "failed"
)

// Terminal reports whether the state is final; a poller stops once the
// status reaches a terminal state.
func (s State) Terminal() bool {
	switch s {
	case StateUpToDate, StateAvailable, StateFailed:
		return true
	}
	return false
}

// Status is one observable sample of an update check's progress.
type Status struct {
	State     State     `json:"state"`
	Message   string    `json:"message,omitempty"`
	Progress  float64   `json:"progress"` // 0..1
	Release   *Release  `json:"release,omitempty"`
	CheckedAt time.Time `json:"checked_at,omitempty"`
}
