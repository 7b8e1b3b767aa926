package cli

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/tkarrer/deckhand/pkg/errors"
	"github.com/tkarrer/deckhand/pkg/update"
)

// watchPollInterval is how often the live view samples check progress.
const watchPollInterval = 200 * time.Millisecond

// updateWatchCommand creates the "update watch" subcommand.
func (c *CLI) updateWatchCommand() *cobra.Command {
	var channel string

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Run an update check with a live status view",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			checker, err := update.NewChecker("", update.WithChannel(channel))
			if err != nil {
				printError("%s", errors.UserMessage(err))
				return err
			}
			return runWatch(commandContext(cmd), checker)
		},
	}

	cmd.Flags().StringVar(&channel, "channel", "stable", "release channel (stable or beta)")

	return cmd
}

// runWatch drives an update check in the background and renders its
// polled status until it reaches a terminal state.
func runWatch(ctx context.Context, checker *update.Checker) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	tracker := newStatusTracker()
	go tracker.run(ctx, checker)

	statuses := make(chan update.Status, 1)
	poller := update.NewPoller(watchPollInterval, tracker.sample)
	go func() {
		defer close(statuses)
		_, _ = poller.Run(ctx, func(s update.Status) {
			select {
			case statuses <- s:
			case <-ctx.Done():
			}
		})
	}()

	p := tea.NewProgram(newWatchModel(statuses))
	final, err := p.Run()
	cancel()
	if err != nil {
		return fmt.Errorf("run status view: %w", err)
	}

	if m, ok := final.(watchModel); ok && m.status.State == update.StateFailed {
		return errors.New(errors.ErrCodeNetwork, "%s", m.status.Message)
	}
	return nil
}

// statusTracker runs one check and exposes its progress as samples.
type statusTracker struct {
	mu     sync.Mutex
	status update.Status
}

func newStatusTracker() *statusTracker {
	return &statusTracker{status: update.Status{State: update.StateIdle}}
}

func (t *statusTracker) set(s update.Status) {
	t.mu.Lock()
	t.status = s
	t.mu.Unlock()
}

func (t *statusTracker) sample(ctx context.Context) update.Status {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.status
}

func (t *statusTracker) run(ctx context.Context, checker *update.Checker) {
	t.set(update.Status{State: update.StateChecking, Message: "contacting release feed", Progress: 0.1})

	result, err := checker.Check(ctx, true)
	if err != nil {
		t.set(update.Status{State: update.StateFailed, Message: errors.UserMessage(err), Progress: 1})
		return
	}

	status := update.Status{Progress: 1, Release: result.Release, CheckedAt: result.CheckedAt}
	if result.Available {
		status.State = update.StateAvailable
		status.Message = fmt.Sprintf("update available: %s → %s", result.Current, result.Latest)
	} else {
		status.State = update.StateUpToDate
		status.Message = fmt.Sprintf("up to date (%s)", result.Current)
	}
	t.set(status)
}

// =============================================================================
// WatchModel - Live update check status
// =============================================================================

// statusMsg carries one polled status sample into the model.
type statusMsg update.Status

// statusClosedMsg signals that the poller finished.
type statusClosedMsg struct{}

// watchModel is the bubbletea model for the live update check view.
type watchModel struct {
	statuses <-chan update.Status
	status   update.Status
	frame    int
}

func newWatchModel(statuses <-chan update.Status) watchModel {
	return watchModel{
		statuses: statuses,
		status:   update.Status{State: update.StateIdle},
	}
}

func (m watchModel) waitForStatus() tea.Cmd {
	return func() tea.Msg {
		s, ok := <-m.statuses
		if !ok {
			return statusClosedMsg{}
		}
		return statusMsg(s)
	}
}

type watchTickMsg struct{}

func watchTick() tea.Cmd {
	return tea.Tick(watchPollInterval/2, func(time.Time) tea.Msg {
		return watchTickMsg{}
	})
}

func (m watchModel) Init() tea.Cmd {
	return tea.Batch(m.waitForStatus(), watchTick())
}

func (m watchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		}
	case statusMsg:
		m.status = update.Status(msg)
		if m.status.State.Terminal() {
			return m, tea.Quit
		}
		return m, m.waitForStatus()
	case statusClosedMsg:
		return m, tea.Quit
	case watchTickMsg:
		m.frame++
		return m, watchTick()
	}
	return m, nil
}

func (m watchModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Update check"))
	b.WriteString("\n")
	b.WriteString(StyleDim.Render("q quit"))
	b.WriteString("\n\n")

	icon := styleIconSpinner.Render(spinnerFrames[m.frame%len(spinnerFrames)])
	switch m.status.State {
	case update.StateAvailable:
		icon = styleIconWarning.Render(iconWarning)
	case update.StateUpToDate:
		icon = styleIconSuccess.Render(iconSuccess)
	case update.StateFailed:
		icon = styleIconError.Render(iconError)
	}

	message := m.status.Message
	if message == "" {
		message = string(m.status.State)
	}
	b.WriteString(fmt.Sprintf("  %s %s\n", icon, StyleValue.Render(message)))
	b.WriteString("  " + renderProgressBar(m.status.Progress) + "\n")

	if rel := m.status.Release; rel != nil && m.status.State == update.StateAvailable {
		b.WriteString("\n")
		b.WriteString("  " + StyleHighlight.Render(rel.Version) + "\n")
		if rel.URL != "" {
			b.WriteString("  " + StyleLink.Render(rel.URL) + "\n")
		}
	}

	return b.String()
}

// renderProgressBar draws a fixed-width progress bar for a 0..1 value.
func renderProgressBar(progress float64) string {
	const width = 30
	if progress < 0 {
		progress = 0
	}
	if progress > 1 {
		progress = 1
	}
	filled := int(progress * width)

	bar := strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
	pct := fmt.Sprintf(" %3.0f%%", progress*100)
	return lipgloss.NewStyle().Foreground(colorCyan).Render(bar) + StyleDim.Render(pct)
}
