// Package watch renders the spectator view of the whole maze.
package watch

import (
	"fmt"
	"strings"

	"github.com/catamaze/client/internal/client"
	"github.com/catamaze/client/internal/theme"
	"github.com/catamaze/client/internal/views/vision"
	"github.com/charmbracelet/lipgloss"
)

// View renders the full map with entities and bullets drawn over it.
func View(w *client.WatchResponse, width int) string {
	if w == nil {
		return ""
	}
	rows := Overlay(w)

	title := theme.StyleHeader.Render(fmt.Sprintf("WATCH %s  tick %d", w.GameID, w.Tick))
	var ents []string
	for _, e := range w.Entities {
		state := theme.StyleOK.Render("alive")
		if !e.Alive {
			state = theme.StyleError.Render("dead")
		}
		ents = append(ents, fmt.Sprintf("%s (%d,%d) hp %d %s", e.ID, e.X, e.Y, e.HP, state))
	}
	if len(ents) == 0 {
		ents = append(ents, theme.StyleDimmed.Render("no entities"))
	}
	footer := theme.StyleDimmed.Render(fmt.Sprintf("%d bullets in flight  g:refresh  esc:close", len(w.Bullets)))

	content := lipgloss.JoinVertical(lipgloss.Left,
		title, "", vision.Grid(rows), "", strings.Join(ents, "\n"), "", footer)
	return lipgloss.NewStyle().
		MaxWidth(width).
		Padding(0, 1).
		BorderStyle(lipgloss.DoubleBorder()).
		BorderForeground(theme.ColorAccent).
		Render(content)
}

// Overlay copies the full map and marks bullets and entities on it.
// Entities outside the map are skipped.
func Overlay(w *client.WatchResponse) [][]string {
	rows := make([][]string, len(w.FullMap))
	for y, row := range w.FullMap {
		rows[y] = append([]string(nil), row...)
	}
	set := func(x, y int, sym string) {
		if y >= 0 && y < len(rows) && x >= 0 && x < len(rows[y]) {
			rows[y][x] = sym
		}
	}
	for _, b := range w.Bullets {
		set(b.X, b.Y, "o")
	}
	for _, e := range w.Entities {
		if !e.Alive {
			continue
		}
		sym := "P"
		if e.Type == "player" || e.ID == "player" {
			sym = "@"
		}
		set(e.X, e.Y, sym)
	}
	return rows
}
