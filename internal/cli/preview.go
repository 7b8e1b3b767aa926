package cli

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/tkarrer/deckhand/pkg/layout"
	"github.com/tkarrer/deckhand/pkg/theme"
)

// Preview grid dimensions in terminal cells.
const (
	previewCols = 60
	previewRows = 18
)

// renderPreview draws a layout as a character grid, one box per widget,
// colored from the theme table.
func renderPreview(l layout.Layout, th *theme.Theme) string {
	bounds := layoutBounds(l)

	grid := make([][]rune, previewRows)
	colors := make([][]string, previewRows)
	for r := range grid {
		grid[r] = make([]rune, previewCols)
		colors[r] = make([]string, previewCols)
		for c := range grid[r] {
			grid[r][c] = '·'
		}
	}

	for _, w := range l {
		style := th.Style(w.Type)
		drawBox(grid, colors, bounds, w, style.Color)
	}

	var b strings.Builder
	b.WriteString(StyleTitle.Render("Layout preview"))
	b.WriteString("\n\n")
	for r := range grid {
		b.WriteString("  ")
		for c := range grid[r] {
			ch := string(grid[r][c])
			if colors[r][c] != "" {
				ch = lipgloss.NewStyle().Foreground(lipgloss.Color(colors[r][c])).Render(ch)
			} else {
				ch = StyleDim.Render(ch)
			}
			b.WriteString(ch)
		}
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(renderLegend(l, th))
	return b.String()
}

// gridBounds is the world-coordinate box enclosing every widget.
type gridBounds struct {
	minX, minY, maxX, maxY float64
}

func layoutBounds(l layout.Layout) gridBounds {
	b := gridBounds{minX: math.Inf(1), minY: math.Inf(1), maxX: math.Inf(-1), maxY: math.Inf(-1)}
	for _, w := range l {
		b.minX = math.Min(b.minX, w.X)
		b.minY = math.Min(b.minY, w.Y)
		b.maxX = math.Max(b.maxX, w.X+w.W)
		b.maxY = math.Max(b.maxY, w.Y+w.H)
	}
	if b.maxX <= b.minX {
		b.maxX = b.minX + 1
	}
	if b.maxY <= b.minY {
		b.maxY = b.minY + 1
	}
	return b
}

// drawBox rasterizes one widget onto the grid. Zero-area widgets still
// get a single marker cell so they show up in the preview.
func drawBox(grid [][]rune, colors [][]string, b gridBounds, w layout.Widget, color string) {
	scaleX := float64(previewCols) / (b.maxX - b.minX)
	scaleY := float64(previewRows) / (b.maxY - b.minY)

	c0 := clampInt(int((w.X-b.minX)*scaleX), 0, previewCols-1)
	r0 := clampInt(int((w.Y-b.minY)*scaleY), 0, previewRows-1)
	c1 := clampInt(int((w.X+w.W-b.minX)*scaleX)-1, c0, previewCols-1)
	r1 := clampInt(int((w.Y+w.H-b.minY)*scaleY)-1, r0, previewRows-1)

	for r := r0; r <= r1; r++ {
		for c := c0; c <= c1; c++ {
			ch := '█'
			if r == r0 || r == r1 || c == c0 || c == c1 {
				ch = boxEdgeRune(r, c, r0, r1, c0, c1)
			}
			grid[r][c] = ch
			colors[r][c] = color
		}
	}
}

func boxEdgeRune(r, c, r0, r1, c0, c1 int) rune {
	switch {
	case (r == r0 || r == r1) && (c == c0 || c == c1):
		return '+'
	case r == r0 || r == r1:
		return '─'
	default:
		return '│'
	}
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// renderLegend lists each widget type once with its themed icon and color.
func renderLegend(l layout.Layout, th *theme.Theme) string {
	counts := make(map[string]int)
	for _, w := range l {
		counts[w.Type]++
	}
	types := make([]string, 0, len(counts))
	for t := range counts {
		types = append(types, t)
	}
	sort.Strings(types)

	var b strings.Builder
	for _, t := range types {
		s := th.Style(t)
		swatch := lipgloss.NewStyle().Foreground(lipgloss.Color(s.Color)).Render("■")
		line := fmt.Sprintf("  %s %s", swatch, StyleValue.Render(s.Label))
		if counts[t] > 1 {
			line += StyleDim.Render(fmt.Sprintf(" ×%d", counts[t]))
		}
		if !th.Known(t) {
			line += " " + StyleDim.Render("(fallback)")
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	return b.String()
}
