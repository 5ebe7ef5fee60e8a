// Package vision renders the player's 5x5 field of view.
package vision

import (
	"strings"

	"github.com/catamaze/client/internal/theme"
	"github.com/charmbracelet/lipgloss"
)

// Grid renders vision rows as a colored grid, two columns per cell. An
// empty grid renders a placeholder.
func Grid(rows [][]string) string {
	if len(rows) == 0 {
		return theme.StyleDimmed.Render("(no vision)")
	}
	lines := make([]string, 0, len(rows))
	for _, row := range rows {
		var b strings.Builder
		for _, cell := range row {
			b.WriteString(Cell(cell))
		}
		lines = append(lines, b.String())
	}
	return strings.Join(lines, "\n")
}

// Cell renders one vision symbol.
func Cell(cell string) string {
	style := lipgloss.NewStyle().Foreground(theme.TerrainColor(cell))
	if cell == "@" || cell == "P" || cell == "E" {
		style = style.Bold(true)
	}
	if cell == "" {
		cell = "?"
	}
	return style.Render(cell + " ")
}

// Plain renders vision rows without styling, one row per line.
func Plain(rows [][]string) []string {
	out := make([]string, 0, len(rows))
	for _, row := range rows {
		out = append(out, strings.Join(row, " "))
	}
	return out
}

// Legend renders the symbol key on one line.
func Legend() string {
	parts := make([]string, 0, len(theme.Legend))
	for _, sym := range theme.Legend {
		parts = append(parts, Cell(sym)+theme.StyleDimmed.Render(theme.TerrainName(sym)))
	}
	return strings.Join(parts, "  ")
}

// View renders the grid with a title and legend inside a border.
func View(rows [][]string) string {
	content := lipgloss.JoinVertical(lipgloss.Left,
		theme.StyleHeader.Render("Vision"),
		"",
		Grid(rows),
		"",
		Legend(),
	)
	return theme.StyleBorder.Padding(0, 1).Render(content)
}
