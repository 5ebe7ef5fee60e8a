// Package hud renders the player's vitals: spring-animated HP and ammo bars,
// tick, position, queue depth and the last sound heard.
package hud

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/catamaze/client/internal/client"
	"github.com/catamaze/client/internal/theme"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/harmonica"
	"github.com/charmbracelet/lipgloss"
)

const (
	fps        = 30
	barWidth   = 20
	labelWidth = 9
	// settled is how close a bar must be to its target to stop animating.
	settled = 0.01
)

var (
	styleLabel = lipgloss.NewStyle().
			Foreground(theme.ColorDimmed).
			Width(labelWidth)

	styleValue = lipgloss.NewStyle().
			Foreground(theme.ColorBright)

	styleSound = lipgloss.NewStyle().
			Foreground(theme.ColorSound).
			Italic(true)
)

// FrameMsg advances the bar animation by one frame.
type FrameMsg struct{}

// Frame schedules the next animation frame.
func Frame() tea.Cmd {
	return tea.Tick(time.Second/fps, func(time.Time) tea.Msg { return FrameMsg{} })
}

type bar struct {
	pos, vel, target float64
}

func (b *bar) step(s harmonica.Spring) {
	b.pos, b.vel = s.Update(b.pos, b.vel, b.target)
	if math.Abs(b.pos-b.target) < settled && math.Abs(b.vel) < settled {
		b.pos, b.vel = b.target, 0
	}
}

func (b bar) moving() bool { return b.pos != b.target || b.vel != 0 }

// Model holds HUD state.
type Model struct {
	Present  bool
	HP       int
	Ammo     int
	Tick     int
	Position client.Position
	Queue    int
	Sound    string

	spring harmonica.Spring
	hp     bar
	ammo   bar
}

// New creates an empty HUD.
func New() Model {
	return Model{spring: harmonica.NewSpring(harmonica.FPS(fps), 6.0, 0.5)}
}

// SetObservation updates the HUD from an observation. A nil observation
// clears it.
func (m *Model) SetObservation(obs *client.Observation, queue int) {
	if obs == nil {
		*m = Model{spring: m.spring}
		return
	}
	first := !m.Present
	m.Present = true
	m.HP = obs.HP
	m.Ammo = obs.Ammo
	m.Tick = obs.Tick
	m.Position = obs.Position
	m.Queue = queue
	m.Sound = obs.Sound()
	m.hp.target = float64(obs.HP) / client.MaxHP
	m.ammo.target = float64(obs.Ammo) / client.MaxAmmo
	if first {
		m.hp.pos, m.ammo.pos = m.hp.target, m.ammo.target
	}
}

// SetQueue updates only the queue depth.
func (m *Model) SetQueue(n int) { m.Queue = n }

// Animating reports whether a bar is still moving toward its target.
func (m Model) Animating() bool { return m.hp.moving() || m.ammo.moving() }

// Step advances both bars one frame.
func (m *Model) Step() {
	m.hp.step(m.spring)
	m.ammo.step(m.spring)
}

// View renders the HUD panel.
func (m Model) View(width int) string {
	if !m.Present {
		return theme.StyleBorder.Width(width).Render(theme.StyleDimmed.Render("No active game. Press n to start."))
	}

	var b strings.Builder
	writeRow(&b, "HP", renderBar(m.hp.pos, theme.HPColor(m.hp.target))+fmt.Sprintf(" %d/%d", m.HP, client.MaxHP))
	writeRow(&b, "Ammo", renderBar(m.ammo.pos, theme.ColorAmmo)+fmt.Sprintf(" %d/%d", m.Ammo, client.MaxAmmo))
	writeRow(&b, "Tick", fmt.Sprintf("%d", m.Tick))
	writeRow(&b, "Position", fmt.Sprintf("(%d, %d)", m.Position.X, m.Position.Y))
	writeRow(&b, "Queue", fmt.Sprintf("%d", m.Queue))
	b.WriteString(styleLabel.Render("Sound:") + renderSound(m.Sound))

	return theme.StyleBorder.Width(width).Render(b.String())
}

func renderSound(s string) string {
	if s == "" {
		return theme.StyleDimmed.Render("[silence]")
	}
	return styleSound.Render(s)
}

func writeRow(b *strings.Builder, label, value string) {
	b.WriteString(styleLabel.Render(label+":") + styleValue.Render(value) + "\n")
}

func renderBar(frac float64, color lipgloss.Color) string {
	if frac < 0 {
		frac = 0
	}
	if frac > 1 {
		frac = 1
	}
	filled := int(math.Round(frac * barWidth))
	bar := strings.Repeat("█", filled) + strings.Repeat("░", barWidth-filled)
	return lipgloss.NewStyle().Foreground(color).Render(bar)
}
