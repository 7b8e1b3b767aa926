package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/tkarrer/deckhand/pkg/store"
)

// storeCommand creates the local store management command.
func (c *CLI) storeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "store",
		Short: "Manage the local persistence store",
	}

	cmd.AddCommand(c.storeClearCommand())
	cmd.AddCommand(c.storePathCommand())

	return cmd
}

// openFileStore opens the on-disk store regardless of the --store flag;
// clear and path only make sense for the file backend.
func (c *CLI) openFileStore() (*store.FileStore, error) {
	return store.NewFileStore(os.Getenv("DECKHAND_STORE_DIR"))
}

// storeClearCommand creates the "store clear" subcommand.
func (c *CLI) storeClearCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Delete all locally stored layouts and settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := c.openFileStore()
			if err != nil {
				return fmt.Errorf("open store: %w", err)
			}
			defer st.Close()

			count, err := st.Clear()
			if err != nil {
				return fmt.Errorf("clear store: %w", err)
			}
			if count == 0 {
				printInfo("Store is empty")
				return nil
			}
			printSuccess("Cleared %d stored entries", count)
			printDetail("Directory: %s", st.Path())
			return nil
		},
	}
}

// storePathCommand creates the "store path" subcommand.
func (c *CLI) storePathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the store directory path",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := c.openFileStore()
			if err != nil {
				return fmt.Errorf("open store: %w", err)
			}
			defer st.Close()

			fmt.Println(st.Path())
			return nil
		},
	}
}
