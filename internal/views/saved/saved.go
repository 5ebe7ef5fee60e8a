// Package saved renders the list of locally recorded games.
package saved

import (
	"fmt"
	"strings"
	"time"

	"github.com/catamaze/client/internal/storage"
	"github.com/catamaze/client/internal/theme"
	"github.com/charmbracelet/lipgloss"
)

// Model holds the list and the cursor.
type Model struct {
	Games    []storage.Game
	Selected int
	Err      error
}

// New creates a list model.
func New(games []storage.Game, err error) Model {
	return Model{Games: games, Err: err}
}

// Up moves the cursor up.
func (m *Model) Up() {
	if len(m.Games) > 0 {
		m.Selected = (m.Selected - 1 + len(m.Games)) % len(m.Games)
	}
}

// Down moves the cursor down.
func (m *Model) Down() {
	if len(m.Games) > 0 {
		m.Selected = (m.Selected + 1) % len(m.Games)
	}
}

// Current returns the game under the cursor.
func (m Model) Current() (storage.Game, bool) {
	if m.Selected < 0 || m.Selected >= len(m.Games) {
		return storage.Game{}, false
	}
	return m.Games[m.Selected], true
}

// View renders the list panel.
func (m Model) View(width int) string {
	title := theme.StyleHeader.Render(" SAVED GAMES ")
	help := theme.StyleDimmed.Render("↑/↓:select  enter:resume  esc:close")

	var body string
	switch {
	case m.Err != nil:
		body = theme.StyleError.Render("  " + m.Err.Error())
	case len(m.Games) == 0:
		body = theme.StyleDimmed.Render("  No saved games yet.")
	default:
		lines := make([]string, 0, len(m.Games))
		for i, g := range m.Games {
			prefix := "  "
			if i == m.Selected {
				prefix = "> "
			}
			lines = append(lines, prefix+Line(g, time.Now()))
		}
		body = strings.Join(lines, "\n")
	}

	content := lipgloss.JoinVertical(lipgloss.Left, title, "", body, "", help)
	return lipgloss.NewStyle().
		Width(width).
		Padding(1, 2).
		BorderStyle(lipgloss.DoubleBorder()).
		BorderForeground(theme.ColorBorder).
		Render(content)
}

// Line renders one game without selection marks.
func Line(g storage.Game, now time.Time) string {
	state := theme.StyleOK.Render("in progress")
	switch g.Outcome {
	case storage.OutcomeWon:
		state = lipgloss.NewStyle().Foreground(theme.ColorExit).Render("won")
	case storage.OutcomeDied:
		state = theme.StyleError.Render("died")
	case storage.OutcomeOver:
		state = theme.StyleDimmed.Render("over")
	}
	return fmt.Sprintf("%-12s tick %-4d hp %d  %s  %s",
		g.ID, g.LastTick, g.HP, state, theme.StyleDimmed.Render(formatAge(now.Sub(g.LastSeen))))
}

func formatAge(d time.Duration) string {
	switch {
	case d < time.Minute:
		return fmt.Sprintf("%ds ago", int(d.Seconds()))
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 48*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	default:
		return fmt.Sprintf("%dd ago", int(d.Hours()/24))
	}
}
