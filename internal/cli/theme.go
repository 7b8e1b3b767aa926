package cli

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/tkarrer/deckhand/pkg/errors"
	"github.com/tkarrer/deckhand/pkg/theme"
)

// themeCommand creates the theme command group.
func (c *CLI) themeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "theme",
		Short: "Inspect and check widget theme tables",
	}

	cmd.AddCommand(c.themeShowCommand())
	cmd.AddCommand(c.themeCheckCommand())

	return cmd
}

// loadTheme resolves the theme to operate on: an explicit file when
// given, the embedded default otherwise.
func loadTheme(path string) (*theme.Theme, error) {
	if path == "" {
		return theme.Default(), nil
	}
	return theme.LoadFile(path)
}

// themeShowCommand creates the "theme show" subcommand.
func (c *CLI) themeShowCommand() *cobra.Command {
	var themeFile string

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the theme table with color swatches",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			th, err := loadTheme(themeFile)
			if err != nil {
				printError("%s", errors.UserMessage(err))
				return err
			}

			fmt.Println(StyleTitle.Render("Theme: " + th.Name()))
			printNewline()
			for _, t := range th.Types() {
				printThemeRow(t, th.Style(t))
			}
			printNewline()
			printThemeRow("(fallback)", th.Fallback())
			return nil
		},
	}

	cmd.Flags().StringVar(&themeFile, "file", "", "theme table file (default: embedded table)")

	return cmd
}

// themeCheckCommand creates the "theme check" subcommand.
func (c *CLI) themeCheckCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "check [theme.toml]",
		Short: "Validate a theme table file",
		Long: `Validate a theme table file.

Every entry must carry a usable hex color, and embedded SVG icons are
sanitized; an icon that sanitizes to nothing fails the check.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			th, err := theme.LoadFile(args[0])
			if err != nil {
				printError("%s", errors.UserMessage(err))
				return err
			}
			printSuccess("Theme %q is valid", th.Name())
			printDetail("%d widget styles", len(th.Types()))
			return nil
		},
	}
}

func swatchStyle(color string) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(color))
}

func printThemeRow(widgetType string, s theme.Style) {
	swatch := swatchStyle(s.Color).Render("■■")
	label := StyleValue.Render(s.Label)
	fmt.Printf("  %s %-14s %s %s\n", swatch, widgetType, label, StyleDim.Render(s.Color))
}
