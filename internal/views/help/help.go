// Package help renders the controls overlay from Markdown with glamour.
package help

import (
	"fmt"
	"strings"

	"github.com/catamaze/client/internal/theme"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
)

// Row is one key and what it does.
type Row struct {
	Keys string
	Desc string
}

// Section groups rows under a heading.
type Section struct {
	Title string
	Rows  []Row
}

// Markdown builds the help document.
func Markdown(sections []Section) string {
	var b strings.Builder
	b.WriteString("# CataMaze controls\n\n")
	b.WriteString("Find the exit before the other agents find you. Time only moves when a tick runs.\n\n")
	for _, s := range sections {
		fmt.Fprintf(&b, "## %s\n\n", s.Title)
		b.WriteString("| Key | Action |\n|-----|--------|\n")
		for _, r := range s.Rows {
			fmt.Fprintf(&b, "| `%s` | %s |\n", r.Keys, r.Desc)
		}
		b.WriteString("\n")
	}
	return b.String()
}

// Render renders md with the named glamour style ("dark", "light",
// "notty", ...) wrapped to width. On failure the raw Markdown is returned.
func Render(md string, width int, style string) string {
	if width < 20 {
		width = 20
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(style),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return md
	}
	out, err := r.Render(md)
	if err != nil {
		return md
	}
	return out
}

// View renders the overlay panel.
func View(rendered string, width int) string {
	footer := theme.StyleDimmed.Render("esc/?: close")
	content := lipgloss.JoinVertical(lipgloss.Left, strings.TrimRight(rendered, "\n"), footer)
	return lipgloss.NewStyle().
		Width(width).
		Padding(0, 1).
		BorderStyle(lipgloss.DoubleBorder()).
		BorderForeground(theme.ColorBorder).
		Render(content)
}
