package update

import (
	"context"
	"time"
)

// Producer yields the current status of an ongoing operation.
type Producer func(ctx context.Context) Status

// Observer receives each status sample during polling.
type Observer func(Status)

// Poller samples a Producer at a fixed interval until the status reaches a
// terminal state or the context is cancelled. It is the generalized form of
// the browser's update-progress polling loop: the HTTP API exposes check
// jobs, and the CLI watch view polls them through this type.
type Poller struct {
	interval time.Duration
	produce  Producer
}

// NewPoller creates a poller sampling produce every interval.
// Intervals below 100ms are raised to 100ms to keep a misconfigured caller
// from busy-looping against the producer.
func NewPoller(interval time.Duration, produce Producer) *Poller {
	const minInterval = 100 * time.Millisecond
	if interval < minInterval {
		interval = minInterval
	}
	return &Poller{interval: interval, produce: produce}
}

// Run polls until a terminal status or cancellation, invoking observe (when
// non-nil) for every sample including the final one. It returns the last
// observed status; the error is non-nil only when the context ended the
// poll, in which case the returned status is the last one seen.
func (p *Poller) Run(ctx context.Context, observe Observer) (Status, error) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	var last Status
	sample := func() bool {
		last = p.produce(ctx)
		if observe != nil {
			observe(last)
		}
		return last.State.Terminal()
	}

	// First sample immediately; a fast producer shouldn't cost one interval.
	if sample() {
		return last, nil
	}

	for {
		select {
		case <-ctx.Done():
			return last, ctx.Err()
		case <-ticker.C:
			if sample() {
				return last, nil
			}
		}
	}
}
