package app

import (
	"github.com/catamaze/client/internal/views/help"
	"github.com/charmbracelet/bubbles/key"
)

// KeyMap defines all keyboard bindings for the TUI.
type KeyMap struct {
	Move       key.Binding
	Shoot      key.Binding
	Wait       key.Binding
	Tick       key.Binding
	Clear      key.Binding
	New        key.Binding
	Resume     key.Binding
	Saved      key.Binding
	Observe    key.Binding
	AutoRun    key.Binding
	Mode       key.Binding
	Pause      key.Binding
	Watch      key.Binding
	Help       key.Binding
	Quit       key.Binding
	Up         key.Binding
	Down       key.Binding
	ScrollUp   key.Binding
	ScrollDown key.Binding
}

// DefaultKeyMap returns the default key bindings. Move, Shoot and Wait are
// listed for help only; action keys are dispatched through session.ParseKey.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Move: key.NewBinding(
			key.WithKeys("w", "a", "s", "d", "up", "left", "down", "right"),
			key.WithHelp("wasd/arrows", "move"),
		),
		Shoot: key.NewBinding(
			key.WithKeys("i", "j", "k", "l"),
			key.WithHelp("ijkl", "shoot up/left/down/right"),
		),
		Wait: key.NewBinding(
			key.WithKeys(" ", "."),
			key.WithHelp("space/.", "wait"),
		),
		Tick: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "execute tick"),
		),
		Clear: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "clear queue / close"),
		),
		New: key.NewBinding(
			key.WithKeys("n"),
			key.WithHelp("n", "new game"),
		),
		Resume: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "resume by id"),
		),
		Saved: key.NewBinding(
			key.WithKeys("v"),
			key.WithHelp("v", "saved games"),
		),
		Observe: key.NewBinding(
			key.WithKeys("o"),
			key.WithHelp("o", "observe"),
		),
		AutoRun: key.NewBinding(
			key.WithKeys("t"),
			key.WithHelp("t", "toggle auto-run"),
		),
		Mode: key.NewBinding(
			key.WithKeys("m"),
			key.WithHelp("m", "direct/plan mode"),
		),
		Pause: key.NewBinding(
			key.WithKeys("p"),
			key.WithHelp("p", "pause and save"),
		),
		Watch: key.NewBinding(
			key.WithKeys("g"),
			key.WithHelp("g", "watch full map"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
		Up: key.NewBinding(
			key.WithKeys("up"),
			key.WithHelp("↑", "prev game"),
		),
		Down: key.NewBinding(
			key.WithKeys("down"),
			key.WithHelp("↓", "next game"),
		),
		ScrollUp: key.NewBinding(
			key.WithKeys("pgup"),
			key.WithHelp("pgup", "scroll log up"),
		),
		ScrollDown: key.NewBinding(
			key.WithKeys("pgdown"),
			key.WithHelp("pgdn", "scroll log down"),
		),
	}
}

// HelpSections groups the bindings for the help overlay.
func (k KeyMap) HelpSections() []help.Section {
	return []help.Section{
		{Title: "Actions", Rows: rows(k.Move, k.Shoot, k.Wait)},
		{Title: "Turns", Rows: rows(k.Tick, k.Clear, k.Mode, k.AutoRun)},
		{Title: "Games", Rows: rows(k.New, k.Resume, k.Saved, k.Pause, k.Observe, k.Watch)},
		{Title: "Interface", Rows: rows(k.ScrollUp, k.ScrollDown, k.Help, k.Quit)},
	}
}

func rows(bs ...key.Binding) []help.Row {
	out := make([]help.Row, 0, len(bs))
	for _, b := range bs {
		h := b.Help()
		out = append(out, help.Row{Keys: h.Key, Desc: h.Desc})
	}
	return out
}
