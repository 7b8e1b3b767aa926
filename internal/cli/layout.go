package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/tkarrer/deckhand/pkg/errors"
	"github.com/tkarrer/deckhand/pkg/layout"
	"github.com/tkarrer/deckhand/pkg/theme"
)

// layoutCommand creates the layout command group.
func (c *CLI) layoutCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "layout",
		Short: "Validate, persist, and inspect widget layouts",
	}

	cmd.AddCommand(c.layoutValidateCommand())
	cmd.AddCommand(c.layoutSaveCommand())
	cmd.AddCommand(c.layoutGetCommand())
	cmd.AddCommand(c.layoutResetCommand())
	cmd.AddCommand(c.layoutPreviewCommand())

	return cmd
}

// layoutValidateCommand creates the "layout validate" subcommand.
func (c *CLI) layoutValidateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate [layout.json]",
		Short: "Strictly validate a layout file",
		Long: `Strictly validate a layout file.

The file must contain a JSON array of widgets, each with a usable type and
numeric x, y, w, h. Validation is all-or-nothing: one bad widget fails the
whole layout, exactly as it would on save.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			l, err := readLayoutFile(args[0])
			if err != nil {
				printError("%s", errors.UserMessage(err))
				return err
			}
			printSuccess("Layout is valid")
			printLayoutStats(l)
			return nil
		},
	}
}

// layoutSaveCommand creates the "layout save" subcommand.
func (c *CLI) layoutSaveCommand() *cobra.Command {
	var (
		key    string
		dryRun bool
	)

	cmd := &cobra.Command{
		Use:   "save [layout.json]",
		Short: "Validate a layout file and persist it",
		Long: `Validate a layout file and persist it under a key.

The layout is wrapped in a versioned envelope with the current timestamp.
Nothing is written when validation fails, so a previously saved layout is
never clobbered by a bad one.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			l, err := readLayoutFile(args[0])
			if err != nil {
				printError("%s", errors.UserMessage(err))
				return err
			}

			if dryRun {
				printSuccess("Layout is valid (dry run, nothing written)")
				printLayoutStats(l)
				return nil
			}

			guard, st, err := c.newGuard()
			if err != nil {
				return fmt.Errorf("open store: %w", err)
			}
			defer st.Close()

			ctx := commandContext(cmd)
			prog := newProgress(loggerFromContext(ctx))
			if err := guard.Save(ctx, key, l); err != nil {
				printError("%s", errors.UserMessage(err))
				return err
			}
			prog.done(fmt.Sprintf("Persisted %d widgets", len(l)))

			printSuccess("Saved layout %q", key)
			printLayoutStats(l)
			printNewline()
			printNextStep("Preview", "deckhand layout preview "+key)
			return nil
		},
	}

	cmd.Flags().StringVarP(&key, "key", "k", defaultLayoutKey, "layout slot to save into")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "validate without writing")

	return cmd
}

// layoutGetCommand creates the "layout get" subcommand.
func (c *CLI) layoutGetCommand() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "get [key]",
		Short: "Load a persisted layout as JSON",
		Long: `Load a persisted layout and print it as JSON.

Loading is lenient: invalid widgets in the stored value are dropped and
reported, and a completely unusable value behaves like an absent one.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := defaultLayoutKey
			if len(args) > 0 {
				key = args[0]
			}

			guard, st, err := c.newGuard()
			if err != nil {
				return fmt.Errorf("open store: %w", err)
			}
			defer st.Close()

			l, err := guard.Load(commandContext(cmd), key)
			if err != nil {
				printError("%s", errors.UserMessage(err))
				return err
			}
			if l == nil {
				printInfo("No usable layout under %q", key)
				return nil
			}

			data, err := json.MarshalIndent(l, "", "  ")
			if err != nil {
				return fmt.Errorf("encode layout: %w", err)
			}

			if output == "" {
				fmt.Println(string(data))
				return nil
			}
			if err := os.WriteFile(output, append(data, '\n'), 0o644); err != nil {
				return fmt.Errorf("write %s: %w", output, err)
			}
			printSuccess("Wrote layout %q", key)
			printFile(output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "write JSON to a file instead of stdout")

	return cmd
}

// layoutResetCommand creates the "layout reset" subcommand.
func (c *CLI) layoutResetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "reset [key]",
		Short: "Delete a persisted layout",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := defaultLayoutKey
			if len(args) > 0 {
				key = args[0]
			}

			guard, st, err := c.newGuard()
			if err != nil {
				return fmt.Errorf("open store: %w", err)
			}
			defer st.Close()

			if err := guard.Reset(commandContext(cmd), key); err != nil {
				printError("%s", errors.UserMessage(err))
				return err
			}
			printSuccess("Reset layout %q", key)
			return nil
		},
	}
}

// layoutPreviewCommand creates the "layout preview" subcommand.
func (c *CLI) layoutPreviewCommand() *cobra.Command {
	var themeFile string

	cmd := &cobra.Command{
		Use:   "preview [key|layout.json]",
		Short: "Render a layout as a terminal grid",
		Long: `Render a layout as a colored terminal grid.

The argument is either a stored layout key or a path to a layout JSON file.
Widget boxes are colored using the active theme table.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			target := defaultLayoutKey
			if len(args) > 0 {
				target = args[0]
			}

			l, err := c.resolvePreviewLayout(cmd, target)
			if err != nil {
				return err
			}
			if l == nil {
				printInfo("No usable layout under %q", target)
				return nil
			}

			th := theme.Default()
			if themeFile != "" {
				th, err = theme.LoadFile(themeFile)
				if err != nil {
					printError("%s", errors.UserMessage(err))
					return err
				}
			}

			fmt.Println(renderPreview(l, th))
			printLayoutStats(l)
			return nil
		},
	}

	cmd.Flags().StringVar(&themeFile, "theme", "", "theme table file (default: embedded table)")

	return cmd
}

// resolvePreviewLayout loads the preview target: a file path when one
// exists on disk, a stored key otherwise.
func (c *CLI) resolvePreviewLayout(cmd *cobra.Command, target string) (layout.Layout, error) {
	if _, err := os.Stat(target); err == nil {
		l, err := readLayoutFile(target)
		if err != nil {
			printError("%s", errors.UserMessage(err))
			return nil, err
		}
		return l, nil
	}

	guard, st, err := c.newGuard()
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	l, err := guard.Load(commandContext(cmd), target)
	if err != nil {
		printError("%s", errors.UserMessage(err))
		return nil, err
	}
	return l, nil
}

// readLayoutFile reads and strictly parses a layout JSON file.
func readLayoutFile(path string) (layout.Layout, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStorage, err, "read %s", path)
	}
	return layout.ParseStrict(data)
}
