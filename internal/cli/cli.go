package cli

import (
	"context"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/tkarrer/deckhand/pkg/buildinfo"
	"github.com/tkarrer/deckhand/pkg/layout"
	"github.com/tkarrer/deckhand/pkg/store"
)

// =============================================================================
// Constants
// =============================================================================

// defaultLayoutKey is the layout slot used when none is given.
const defaultLayoutKey = "default"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	// storeBackend selects the persistence backend (file or memory),
	// bound to the --store persistent flag.
	storeBackend string
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger:       newLogger(w, level),
		storeBackend: "file",
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          "deckhand",
		Short:        "Deckhand manages dashboard layouts, settings, and updates",
		Long:         `Deckhand is the state backend for a personal-assistant dashboard: it validates and persists widget layouts, binds settings, serves the widget style table, and checks for application updates.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cmd.SetContext(withLogger(commandContext(cmd), c.Logger))
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.storeBackend, "store", "file", "persistence backend: file (default), memory")

	// Register all subcommands
	root.AddCommand(c.layoutCommand())
	root.AddCommand(c.settingsCommand())
	root.AddCommand(c.themeCommand())
	root.AddCommand(c.updateCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.storeCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Store & Guard Factories
// =============================================================================

// openStore creates the persistence backend selected by --store.
// The environment variable DECKHAND_STORE_DIR overrides the file location.
func (c *CLI) openStore() (store.Store, error) {
	switch c.storeBackend {
	case "memory":
		return store.NewMemoryStore(), nil
	default:
		return store.NewFileStore(os.Getenv("DECKHAND_STORE_DIR"))
	}
}

// newGuard creates a layout guard over the selected store, reporting drops
// through the CLI logger.
func (c *CLI) newGuard() (*layout.Guard, store.Store, error) {
	st, err := c.openStore()
	if err != nil {
		return nil, nil, err
	}
	guard := layout.NewGuard(
		store.NewScoped(st, "layout:"),
		layout.WithReporter(layout.NewLogReporter(c.Logger)),
	)
	return guard, st, nil
}

// =============================================================================
// Context Helper
// =============================================================================

// commandContext returns the command's context, falling back to Background.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
