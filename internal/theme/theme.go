// Package theme provides the Lip Gloss color palette and reusable styles
// for the CataMaze TUI. It is a leaf package with no internal imports
// to avoid import cycles.
package theme

import "github.com/charmbracelet/lipgloss"

// Terrain colors.
var (
	ColorWall   = lipgloss.Color("#4b5563")
	ColorFloor  = lipgloss.Color("#374151")
	ColorPlayer = lipgloss.Color("#facc15")
	ColorAgent  = lipgloss.Color("#ef4444")
	ColorStart  = lipgloss.Color("#3b82f6")
	ColorExit   = lipgloss.Color("#22c55e")
	ColorAmmo   = lipgloss.Color("#f97316")
	ColorBullet = lipgloss.Color("#e5e7eb")
	ColorFog    = lipgloss.Color("#1f2937")
)

// HP bar thresholds.
var (
	ColorHPHigh = lipgloss.Color("#22c55e") // >60%
	ColorHPMid  = lipgloss.Color("#d97706") // 30-60%
	ColorHPLow  = lipgloss.Color("#dc2626") // <30%
)

// UI chrome colors.
var (
	ColorBorder  = lipgloss.Color("#4b5563")
	ColorDimmed  = lipgloss.Color("#6b7280")
	ColorBright  = lipgloss.Color("#f9fafb")
	ColorBg      = lipgloss.Color("#111827")
	ColorHealthy = lipgloss.Color("#22c55e")
	ColorWarning = lipgloss.Color("#d97706")
	ColorDanger  = lipgloss.Color("#dc2626")
	ColorAccent  = lipgloss.Color("#a855f7")
	ColorSound   = lipgloss.Color("#67e8f9")
)

// TerrainColor returns the color for a vision cell symbol.
func TerrainColor(cell string) lipgloss.Color {
	switch cell {
	case "#":
		return ColorWall
	case ".":
		return ColorFloor
	case "@":
		return ColorPlayer
	case "P":
		return ColorAgent
	case "S":
		return ColorStart
	case "E":
		return ColorExit
	case "A":
		return ColorAmmo
	case "o", "*":
		return ColorBullet
	default:
		return ColorFog
	}
}

// TerrainName returns the legend label for a vision cell symbol.
func TerrainName(cell string) string {
	switch cell {
	case "#":
		return "wall"
	case ".":
		return "floor"
	case "@":
		return "you"
	case "P":
		return "agent"
	case "S":
		return "start"
	case "E":
		return "exit"
	case "A":
		return "ammo"
	case "o", "*":
		return "bullet"
	default:
		return "unknown"
	}
}

// Legend lists the vision symbols in display order.
var Legend = []string{"@", "P", "#", ".", "S", "E", "A", "o"}

// HPColor returns the bar color for a health fraction.
func HPColor(frac float64) lipgloss.Color {
	switch {
	case frac < 0.3:
		return ColorHPLow
	case frac <= 0.6:
		return ColorHPMid
	default:
		return ColorHPHigh
	}
}

// Reusable styles.
var (
	StyleBorder = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(ColorBorder)

	StyleHeader = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorBright)

	StyleDimmed = lipgloss.NewStyle().
			Foreground(ColorDimmed)

	StyleSelected = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorBright)

	StyleError = lipgloss.NewStyle().
			Foreground(ColorDanger)

	StyleOK = lipgloss.NewStyle().
		Foreground(ColorHealthy)
)

// EventGlyph returns a glyph for a server event line.
func EventGlyph(event string) string {
	switch {
	case containsAny(event, "won", "exit"):
		return "★"
	case containsAny(event, "killed", "died", "dead"):
		return "✗"
	case containsAny(event, "hit", "damage"):
		return "!"
	case containsAny(event, "fired", "shot", "shoot"):
		return "→"
	case containsAny(event, "ammo", "picked"):
		return "+"
	case containsAny(event, "moved", "move"):
		return "·"
	default:
		return "•"
	}
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if contains(s, sub) {
			return true
		}
	}
	return false
}

func contains(s, substr string) bool {
	for i := 0; i <= len(s)-len(substr); i++ {
		if s[i:i+len(substr)] == substr {
			return true
		}
	}
	return false
}
