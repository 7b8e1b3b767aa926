package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tkarrer/deckhand/pkg/errors"
	"github.com/tkarrer/deckhand/pkg/settings"
	"github.com/tkarrer/deckhand/pkg/store"
)

// settingsCommand creates the settings command group.
func (c *CLI) settingsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Read and write dashboard settings",
	}

	cmd.AddCommand(c.settingsListCommand())
	cmd.AddCommand(c.settingsGetCommand())
	cmd.AddCommand(c.settingsSetCommand())
	cmd.AddCommand(c.settingsResetCommand())

	return cmd
}

// newBinder opens the configured store and wraps it in a settings binder.
// The caller owns closing the returned store.
func (c *CLI) newBinder() (*settings.Binder, store.Store, error) {
	st, err := c.openStore()
	if err != nil {
		return nil, nil, err
	}
	return settings.NewBinder(st), st, nil
}

// settingsListCommand creates the "settings list" subcommand.
func (c *CLI) settingsListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Show all settings with their current values",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			binder, st, err := c.newBinder()
			if err != nil {
				return fmt.Errorf("open store: %w", err)
			}
			defer st.Close()

			ctx := commandContext(cmd)
			for _, name := range settings.Names() {
				value, err := binder.Get(ctx, name)
				if err != nil {
					printError("%s", errors.UserMessage(err))
					return err
				}
				printKeyValue(name, value)
			}
			return nil
		},
	}
}

// settingsGetCommand creates the "settings get" subcommand.
func (c *CLI) settingsGetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "get [name]",
		Short: "Print one setting value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			binder, st, err := c.newBinder()
			if err != nil {
				return fmt.Errorf("open store: %w", err)
			}
			defer st.Close()

			value, err := binder.Get(commandContext(cmd), args[0])
			if err != nil {
				printError("%s", errors.UserMessage(err))
				return err
			}
			fmt.Println(value)
			return nil
		},
	}
}

// settingsSetCommand creates the "settings set" subcommand.
func (c *CLI) settingsSetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "set [name] [value]",
		Short: "Validate and persist one setting",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			binder, st, err := c.newBinder()
			if err != nil {
				return fmt.Errorf("open store: %w", err)
			}
			defer st.Close()

			if err := binder.Set(commandContext(cmd), args[0], args[1]); err != nil {
				printError("%s", errors.UserMessage(err))
				return err
			}
			printSuccess("Set %s = %s", args[0], args[1])
			return nil
		},
	}
}

// settingsResetCommand creates the "settings reset" subcommand.
func (c *CLI) settingsResetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Restore all settings to their defaults",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			binder, st, err := c.newBinder()
			if err != nil {
				return fmt.Errorf("open store: %w", err)
			}
			defer st.Close()

			if err := binder.Reset(commandContext(cmd)); err != nil {
				printError("%s", errors.UserMessage(err))
				return err
			}
			printSuccess("Settings restored to defaults")
			return nil
		},
	}
}
