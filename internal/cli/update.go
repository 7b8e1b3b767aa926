package cli

import (
	"github.com/spf13/cobra"

	"github.com/tkarrer/deckhand/pkg/errors"
	"github.com/tkarrer/deckhand/pkg/update"
)

// updateCommand creates the update command group.
func (c *CLI) updateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "update",
		Short: "Check for newer application releases",
	}

	cmd.AddCommand(c.updateCheckCommand())
	cmd.AddCommand(c.updateWatchCommand())

	return cmd
}

// updateCheckCommand creates the "update check" subcommand.
func (c *CLI) updateCheckCommand() *cobra.Command {
	var (
		channel string
		refresh bool
	)

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Compare the running build against the latest release",
		Long: `Compare the running build against the latest published release.

Results are cached for an hour; pass --refresh to bypass the cache. The
beta channel accepts prereleases, the default stable channel ignores them.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			checker, err := update.NewChecker("", update.WithChannel(channel))
			if err != nil {
				printError("%s", errors.UserMessage(err))
				return err
			}

			sp := newSpinnerWithContext(commandContext(cmd), "Checking for updates")
			sp.Start()
			result, err := checker.Check(commandContext(cmd), refresh)
			if err != nil {
				sp.StopWithError("Update check failed")
				printError("%s", errors.UserMessage(err))
				return err
			}
			sp.Stop()

			printUpdateResult(result, refresh)
			return nil
		},
	}

	cmd.Flags().StringVar(&channel, "channel", "stable", "release channel (stable or beta)")
	cmd.Flags().BoolVar(&refresh, "refresh", false, "bypass the check cache")

	return cmd
}

func printUpdateResult(result *update.Result, refreshed bool) {
	if result.Available {
		printWarning("Update available: %s → %s", result.Current, result.Latest)
		if result.Release != nil && result.Release.URL != "" {
			printDetail("%s", result.Release.URL)
		}
		return
	}

	if result.Current == "dev" {
		printInfo("Development build; latest release is %s", result.Latest)
	} else {
		printSuccess("Up to date (%s)", result.Current)
	}
	printFreshness(!refreshed)
}
