package status

import (
	"fmt"

	"github.com/catamaze/client/internal/theme"
	"github.com/charmbracelet/lipgloss"
)

// Mode is the input mode for action keys.
type Mode int

const (
	// ModeDirect queues the action and ticks immediately.
	ModeDirect Mode = iota
	// ModePlan only queues; enter executes the next tick.
	ModePlan
)

func (m Mode) String() string {
	if m == ModePlan {
		return "plan"
	}
	return "direct"
}

// Model holds the status bar state.
type Model struct {
	GameID  string
	Alive   bool
	Won     bool
	Over    bool
	AutoRun bool
	Mode    Mode
	// Pending is the spinner frame shown while a request is in flight.
	Pending string
	Width   int
}

// New creates a status bar model.
func New() Model {
	return Model{}
}

// View renders the status bar.
func (m Model) View() string {
	width := m.Width
	if width < 40 {
		width = 40
	}

	sep := lipgloss.NewStyle().Foreground(theme.ColorBorder).Render(" | ")

	var game string
	if m.GameID == "" {
		game = lipgloss.NewStyle().Foreground(theme.ColorDimmed).Render("○ No game")
	} else {
		game = lipgloss.NewStyle().Foreground(theme.ColorHealthy).Render("● " + m.GameID)
	}

	content := game + sep + m.stateLabel()

	auto := "auto: off"
	autoColor := theme.ColorDimmed
	if m.AutoRun {
		auto = "auto: on"
		autoColor = theme.ColorAccent
	}
	content += sep + lipgloss.NewStyle().Foreground(autoColor).Render(auto)
	content += sep + fmt.Sprintf("mode: %s", m.Mode)

	if m.Pending != "" {
		content += sep + m.Pending
	}

	return lipgloss.NewStyle().
		Width(width).
		Padding(0, 1).
		BorderStyle(lipgloss.DoubleBorder()).
		BorderForeground(theme.ColorBorder).
		Render(content)
}

func (m Model) stateLabel() string {
	switch {
	case m.GameID == "":
		return theme.StyleDimmed.Render("idle")
	case m.Won:
		return lipgloss.NewStyle().Foreground(theme.ColorExit).Render("WON")
	case !m.Alive:
		return lipgloss.NewStyle().Foreground(theme.ColorDanger).Render("DEAD")
	case m.Over:
		return lipgloss.NewStyle().Foreground(theme.ColorWarning).Render("OVER")
	default:
		return lipgloss.NewStyle().Foreground(theme.ColorHealthy).Render("alive")
	}
}
