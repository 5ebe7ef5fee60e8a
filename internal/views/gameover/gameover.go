// Package gameover renders the end-of-game modal.
package gameover

import (
	"fmt"
	"strings"

	"github.com/catamaze/client/internal/client"
	"github.com/catamaze/client/internal/theme"
	"github.com/charmbracelet/lipgloss"
)

const (
	panelWidth = 44
	labelWidth = 12
)

var (
	stylePanel = lipgloss.NewStyle().
			BorderStyle(lipgloss.ThickBorder()).
			Padding(1, 2).
			Align(lipgloss.Center)

	styleLabel = lipgloss.NewStyle().
			Foreground(theme.ColorDimmed).
			Width(labelWidth)

	styleValue = lipgloss.NewStyle().
			Foreground(theme.ColorBright)

	styleFooter = lipgloss.NewStyle().
			Foreground(theme.ColorDimmed)
)

// Model holds the result shown in the modal.
type Model struct {
	GameID string
	Won    bool
	Alive  bool
	Obs    *client.Observation
}

// New creates a modal for a finished game.
func New(id string, won, alive bool, obs *client.Observation) Model {
	return Model{GameID: id, Won: won, Alive: alive, Obs: obs}
}

// Title is the headline for the outcome.
func (m Model) Title() string {
	if m.Won {
		return "YOU WON!"
	}
	return "GAME OVER"
}

// Message describes the outcome.
func (m Model) Message() string {
	switch {
	case m.Won:
		return "You found the exit and escaped the maze!"
	case !m.Alive:
		return "You were killed in the maze."
	default:
		return "The game has ended."
	}
}

// View renders the modal panel.
func (m Model) View() string {
	color := theme.ColorDanger
	if m.Won {
		color = theme.ColorExit
	}
	title := lipgloss.NewStyle().Bold(true).Foreground(color).Render(m.Title())

	var b strings.Builder
	b.WriteString(title + "\n\n")
	b.WriteString(m.Message() + "\n\n")
	if m.GameID != "" {
		writeRow(&b, "Game", m.GameID)
	}
	if m.Obs != nil {
		writeRow(&b, "Ticks", fmt.Sprintf("%d", m.Obs.Tick))
		writeRow(&b, "HP", fmt.Sprintf("%d/%d", m.Obs.HP, client.MaxHP))
		writeRow(&b, "Ammo", fmt.Sprintf("%d/%d", m.Obs.Ammo, client.MaxAmmo))
	}
	b.WriteString("\n")
	b.WriteString(styleFooter.Render("[n] new game  [esc] close"))

	return stylePanel.BorderForeground(color).Width(panelWidth).Render(b.String())
}

func writeRow(b *strings.Builder, label, value string) {
	b.WriteString(styleLabel.Render(label+":") + styleValue.Render(value) + "\n")
}
