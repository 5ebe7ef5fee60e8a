// Package eventlog provides the scrollable game event log panel.
package eventlog

import (
	"fmt"
	"strings"
	"time"

	"github.com/catamaze/client/internal/theme"
	"github.com/charmbracelet/bubbles/viewport"
	"github.com/charmbracelet/lipgloss"
)

const maxEntries = 200

// Entry kinds.
const (
	KindEvent = "evt"
	KindInfo  = "info"
	KindError = "err"
)

// Entry is a single log line.
type Entry struct {
	Time    time.Time
	Kind    string
	Message string
}

// Model holds event log state.
type Model struct {
	Entries []Entry
	vp      viewport.Model
	width   int
}

// New creates an empty log sized for height visible lines.
func New(width, height int) Model {
	m := Model{vp: viewport.New(width, height), width: width}
	m.refresh()
	return m
}

// SetSize resizes the visible area and keeps the view pinned to the bottom
// if it was there.
func (m *Model) SetSize(width, height int) {
	if height < 3 {
		height = 3
	}
	atBottom := m.Offset() == 0
	m.width = width
	m.vp.Width = width
	m.vp.Height = height
	m.refresh()
	if atBottom {
		m.vp.GotoBottom()
	}
}

// Add appends an entry, caps the buffer and scrolls to the bottom.
func (m *Model) Add(kind, message string) {
	m.Entries = append(m.Entries, Entry{
		Time:    time.Now(),
		Kind:    kind,
		Message: message,
	})
	if len(m.Entries) > maxEntries {
		m.Entries = m.Entries[len(m.Entries)-maxEntries:]
	}
	m.refresh()
	m.vp.GotoBottom()
}

// Clear drops every entry.
func (m *Model) Clear() {
	m.Entries = nil
	m.refresh()
	m.vp.GotoBottom()
}

// ScrollUp moves the view toward older entries.
func (m *Model) ScrollUp(n int) {
	m.vp.SetYOffset(m.vp.YOffset - n)
}

// ScrollDown moves the view toward newer entries.
func (m *Model) ScrollDown(n int) {
	m.vp.SetYOffset(m.vp.YOffset + n)
}

// Offset is how many lines the view is scrolled up from the bottom.
func (m Model) Offset() int {
	bottom := len(m.Entries) - m.vp.Height
	if bottom < 0 {
		bottom = 0
	}
	return bottom - m.vp.YOffset
}

func (m *Model) refresh() {
	if len(m.Entries) == 0 {
		m.vp.SetContent(theme.StyleDimmed.Render("  No events yet."))
		return
	}
	lines := make([]string, 0, len(m.Entries))
	for _, e := range m.Entries {
		lines = append(lines, m.renderEntry(e))
	}
	m.vp.SetContent(strings.Join(lines, "\n"))
}

func (m Model) renderEntry(e Entry) string {
	ts := theme.StyleDimmed.Render(e.Time.Format("15:04:05"))
	glyph := lipgloss.NewStyle().Foreground(kindToColor(e.Kind)).Render(glyphFor(e))
	msg := e.Message
	if limit := m.width - 14; limit > 10 && len(msg) > limit {
		msg = msg[:limit-3] + "..."
	}
	if e.Kind == KindError {
		msg = theme.StyleError.Render(msg)
	}
	return fmt.Sprintf("%s %s %s", ts, glyph, msg)
}

// View renders the log panel.
func (m Model) View() string {
	title := theme.StyleHeader.Render("Events")
	footer := theme.StyleDimmed.Render(fmt.Sprintf("pgup/pgdn:scroll  %d entries", len(m.Entries)))
	if off := m.Offset(); off > 0 {
		footer = theme.StyleDimmed.Render(fmt.Sprintf("↓ %d more  ", off)) + footer
	}
	content := lipgloss.JoinVertical(lipgloss.Left, title, m.vp.View(), footer)
	return theme.StyleBorder.Padding(0, 1).Render(content)
}

func glyphFor(e Entry) string {
	switch e.Kind {
	case KindError:
		return "✗"
	case KindInfo:
		return "›"
	default:
		return theme.EventGlyph(e.Message)
	}
}

func kindToColor(kind string) lipgloss.Color {
	switch kind {
	case KindEvent:
		return theme.ColorAccent
	case KindError:
		return theme.ColorDanger
	case KindInfo:
		return theme.ColorStart
	default:
		return theme.ColorDimmed
	}
}
