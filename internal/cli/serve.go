package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tkarrer/deckhand/internal/server"
)

// serveCommand creates the "serve" subcommand.
func (c *CLI) serveCommand() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the dashboard state HTTP server",
		Long: `Run the dashboard state HTTP server.

Configuration comes from DECKHAND_* environment variables (a .env file in
the working directory is loaded first). The --addr flag overrides
DECKHAND_ADDR. The server exposes layouts, settings, the theme table, and
async update checks under /api.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := server.LoadConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if addr != "" {
				cfg.Addr = addr
			}

			ctx := commandContext(cmd)
			srv, err := server.FromConfig(ctx, cfg, loggerFromContext(ctx))
			if err != nil {
				return fmt.Errorf("start server: %w", err)
			}
			defer srv.Close()

			printInfo("Listening on %s (store: %s)", cfg.Addr, cfg.StoreBackend)
			return srv.ListenAndServe(ctx, cfg.Addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides DECKHAND_ADDR)")

	return cmd
}
