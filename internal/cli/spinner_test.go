package cli

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"
)

func TestSpinnerWritesMessage(t *testing.T) {
	var buf bytes.Buffer
	s := newSpinner("Checking for updates")
	s.out = &buf

	s.Start()
	time.Sleep(3 * spinnerInterval)
	s.Stop()

	out := buf.String()
	if !strings.Contains(out, "Checking for updates") {
		t.Errorf("spinner output %q should contain the message", out)
	}
	if !strings.HasSuffix(out, "\r") {
		t.Error("spinner should clear the line after stopping")
	}
}

func TestSpinnerStopsOnContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	var buf bytes.Buffer
	s := newSpinnerWithContext(ctx, "Contacting release feed")
	s.out = &buf
	s.Start()

	cancel()
	time.Sleep(2 * spinnerInterval)

	if !s.Cancelled() {
		t.Error("spinner should report cancelled after its context is cancelled")
	}
	s.Stop()
}

func TestSpinnerStopsOnContextTimeout(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), spinnerInterval)
	defer cancel()

	var buf bytes.Buffer
	s := newSpinnerWithContext(ctx, "Saving layout")
	s.out = &buf
	s.Start()

	time.Sleep(3 * spinnerInterval)

	if !s.Cancelled() {
		t.Error("spinner should report cancelled after its context times out")
	}
	s.Stop()
}

func TestSpinnerStopIsIdempotent(t *testing.T) {
	var buf bytes.Buffer
	s := newSpinner("Opening store")
	s.out = &buf
	s.Start()

	// Repeated stops must not panic or block.
	s.Stop()
	s.Stop()
	s.Stop()
}

func TestSpinnerStopWithOutcome(t *testing.T) {
	var buf bytes.Buffer
	s := newSpinner("Checking for updates")
	s.out = &buf
	s.Start()
	time.Sleep(spinnerInterval)
	s.StopWithSuccess("Up to date")

	s = newSpinner("Checking for updates")
	s.out = &buf
	s.Start()
	time.Sleep(spinnerInterval)
	s.StopWithError("Release feed unreachable")
}

func TestSpinnerSharesWatchFrames(t *testing.T) {
	// The watch view renders the same frame set; an empty slice would
	// panic both surfaces.
	if len(spinnerFrames) == 0 {
		t.Fatal("spinnerFrames must not be empty")
	}
	for i, frame := range spinnerFrames {
		if frame == "" {
			t.Errorf("frame %d is empty", i)
		}
	}
}
