package app

import (
	"context"
	"errors"
	"strings"

	"github.com/catamaze/client/internal/client"
	"github.com/catamaze/client/internal/session"
	"github.com/catamaze/client/internal/storage"
	"github.com/catamaze/client/internal/theme"
	"github.com/catamaze/client/internal/views/eventlog"
	"github.com/catamaze/client/internal/views/gameover"
	"github.com/catamaze/client/internal/views/help"
	"github.com/catamaze/client/internal/views/hud"
	"github.com/catamaze/client/internal/views/saved"
	"github.com/catamaze/client/internal/views/status"
	"github.com/catamaze/client/internal/views/vision"
	"github.com/catamaze/client/internal/views/watch"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Overlay identifies which modal is active.
type Overlay int

const (
	OverlayNone Overlay = iota
	OverlayGameOver
	OverlayHelp
	OverlayResume
	OverlayWatch
	OverlaySaved
)

// BridgeBuffer is the notification buffer size the TUI expects.
const BridgeBuffer = 256

const (
	minLogHeight = 3
	// Rows used by everything except the event log.
	chromeHeight = 19
)

var errNoHistory = errors.New("game history is disabled")

// opDoneMsg reports that a controller call issued from a command returned.
// Outcomes reach the model as notifications; this only settles the spinner.
type opDoneMsg struct {
	op  string
	err error
}

type watchMsg struct {
	resp *client.WatchResponse
}

type savedMsg struct {
	games []storage.Game
	err   error
}

// Option configures the root model.
type Option func(*Model)

// WithGames enables the saved-games list.
func WithGames(s *storage.Store) Option {
	return func(m *Model) { m.games = s }
}

// WithResume resumes id as soon as the program starts.
func WithResume(id string) Option {
	return func(m *Model) { m.resumeID = id }
}

// WithHelpStyle sets the glamour style used for the help overlay.
func WithHelpStyle(style string) Option {
	return func(m *Model) { m.helpStyle = style }
}

// Model is the root Bubble Tea model.
type Model struct {
	ctrl   *session.Controller
	bridge *Bridge
	games  *storage.Store
	ctx    context.Context
	cancel context.CancelFunc

	keys      KeyMap
	width     int
	height    int
	overlay   Overlay
	mode      status.Mode
	helpStyle string
	resumeID  string
	// startup runs from Init; New prepares it so pending is counted.
	startup tea.Cmd

	// Latest session view, fed by notifications.
	obs       *client.Observation
	line      string
	lineError bool

	pending   int
	animating bool

	// Sub-views.
	statusBar status.Model
	hud       hud.Model
	log       eventlog.Model
	spinner   spinner.Model
	prompt    textinput.Model
	gameOver  gameover.Model
	watchResp *client.WatchResponse
	saved     saved.Model
	helpText  string
}

// New creates the root model. bridge must be registered as ctrl's listener.
func New(ctrl *session.Controller, bridge *Bridge, opts ...Option) Model {
	ctx, cancel := context.WithCancel(context.Background())

	prompt := textinput.New()
	prompt.Placeholder = "game id"
	prompt.CharLimit = 64
	prompt.Width = 32

	m := Model{
		ctrl:      ctrl,
		bridge:    bridge,
		ctx:       ctx,
		cancel:    cancel,
		keys:      DefaultKeyMap(),
		helpStyle: "dark",
		statusBar: status.New(),
		hud:       hud.New(),
		log:       eventlog.New(80, minLogHeight),
		spinner:   spinner.New(spinner.WithSpinner(spinner.Dot)),
		prompt:    prompt,
	}
	for _, opt := range opts {
		opt(&m)
	}
	if m.resumeID != "" {
		m.startup = m.resume(m.resumeID)
	}
	return m
}

// Init starts reading notifications and resumes the requested game.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.bridge.Wait(), m.startup)
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.statusBar.Width = msg.Width
		m.log.SetSize(msg.Width-4, max(minLogHeight, msg.Height-chromeHeight))
		if m.overlay == OverlayHelp {
			m.helpText = m.renderHelp()
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case NoteMsg:
		cmd := m.apply(msg.Note)
		return m, tea.Batch(cmd, m.bridge.Wait())

	case opDoneMsg:
		if m.pending > 0 {
			m.pending--
		}
		if m.pending == 0 {
			m.statusBar.Pending = ""
		}
		return m, nil

	case watchMsg:
		if msg.resp != nil {
			m.watchResp = msg.resp
			m.overlay = OverlayWatch
		}
		return m, nil

	case savedMsg:
		m.saved = saved.New(msg.games, msg.err)
		m.overlay = OverlaySaved
		return m, nil

	case spinner.TickMsg:
		if m.pending == 0 {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		m.statusBar.Pending = m.spinner.View()
		return m, cmd

	case hud.FrameMsg:
		m.hud.Step()
		if m.hud.Animating() {
			return m, hud.Frame()
		}
		m.animating = false
		return m, nil
	}

	if m.overlay == OverlayResume {
		var cmd tea.Cmd
		m.prompt, cmd = m.prompt.Update(msg)
		return m, cmd
	}
	return m, nil
}

// apply folds one notification into the view state.
func (m *Model) apply(n session.Notification) tea.Cmd {
	switch n := n.(type) {
	case session.StateChanged:
		m.obs = n.Observation
		m.hud.SetObservation(n.Observation, n.QueueDepth)
		if n.Observation != nil {
			m.statusBar.Alive = n.Observation.Alive
			m.statusBar.Won = n.Observation.Won
			m.statusBar.Over = n.Observation.Over()
		}
		if m.hud.Animating() && !m.animating {
			m.animating = true
			return hud.Frame()
		}

	case session.QueueChanged:
		m.hud.SetQueue(n.Depth)

	case session.EventAppended:
		m.log.Add(eventlog.KindEvent, n.Text)

	case session.Status:
		m.line = n.Message
		m.lineError = n.IsError
		kind := eventlog.KindInfo
		if n.IsError {
			kind = eventlog.KindError
		}
		m.log.Add(kind, n.Message)

	case session.SessionStarted:
		m.statusBar.GameID = n.ID
		m.statusBar.Over = false
		if m.overlay == OverlayGameOver {
			m.overlay = OverlayNone
		}

	case session.SessionCleared:
		m.obs = nil
		m.statusBar.GameID = ""
		m.statusBar.Alive = false
		m.statusBar.Won = false
		m.statusBar.Over = false
		m.hud.SetObservation(nil, 0)

	case session.SessionEnded:
		m.gameOver = gameover.New(m.statusBar.GameID, n.Won, n.Alive, m.obs)
		m.statusBar.Over = true
		m.overlay = OverlayGameOver

	case session.AutoRunChanged:
		m.statusBar.AutoRun = n.Active
	}
	return nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Type == tea.KeyCtrlC {
		return m.quit()
	}
	if m.overlay != OverlayNone {
		return m.handleOverlayKey(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m.quit()

	case key.Matches(msg, m.keys.New):
		return m, m.run("new", m.ctrl.StartSession)

	case key.Matches(msg, m.keys.Resume):
		m.overlay = OverlayResume
		m.prompt.SetValue("")
		return m, m.prompt.Focus()

	case key.Matches(msg, m.keys.Saved):
		return m, m.loadSaved()

	case key.Matches(msg, m.keys.Observe):
		return m, m.run("observe", m.ctrl.Observe)

	case key.Matches(msg, m.keys.Tick):
		return m, m.run("tick", m.ctrl.ExecuteTick)

	case key.Matches(msg, m.keys.Clear):
		return m, m.run("clear", m.ctrl.ClearQueue)

	case key.Matches(msg, m.keys.AutoRun):
		ctrl := m.ctrl
		return m, m.run("auto-run", func(context.Context) error {
			_, err := ctrl.ToggleAutoRun()
			return err
		})

	case key.Matches(msg, m.keys.Mode):
		if m.mode == status.ModeDirect {
			m.mode = status.ModePlan
		} else {
			m.mode = status.ModeDirect
		}
		m.statusBar.Mode = m.mode
		return m, nil

	case key.Matches(msg, m.keys.Pause):
		ctrl := m.ctrl
		return m, m.run("pause", func(context.Context) error {
			_, err := ctrl.AbandonSession()
			return err
		})

	case key.Matches(msg, m.keys.Watch):
		return m, m.fetchWatch()

	case key.Matches(msg, m.keys.Help):
		m.overlay = OverlayHelp
		m.helpText = m.renderHelp()
		return m, nil

	case key.Matches(msg, m.keys.ScrollUp):
		m.log.ScrollUp(3)
		return m, nil

	case key.Matches(msg, m.keys.ScrollDown):
		m.log.ScrollDown(3)
		return m, nil
	}

	k := msg.String()
	if _, ok := session.ParseKey(k); !ok {
		return m, nil
	}
	act := m.ctrl.Act
	if m.mode == status.ModePlan {
		act = m.ctrl.QueueAction
	}
	return m, m.run("action", func(ctx context.Context) error { return act(ctx, k) })
}

func (m Model) handleOverlayKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.overlay {
	case OverlayResume:
		switch msg.Type {
		case tea.KeyEsc:
			m.overlay = OverlayNone
			m.prompt.Blur()
			return m, nil
		case tea.KeyEnter:
			id := strings.TrimSpace(m.prompt.Value())
			m.overlay = OverlayNone
			m.prompt.Blur()
			return m, m.resume(id)
		}
		var cmd tea.Cmd
		m.prompt, cmd = m.prompt.Update(msg)
		return m, cmd

	case OverlaySaved:
		switch {
		case key.Matches(msg, m.keys.Up):
			m.saved.Up()
		case key.Matches(msg, m.keys.Down):
			m.saved.Down()
		case msg.Type == tea.KeyEnter:
			g, ok := m.saved.Current()
			if !ok {
				return m, nil
			}
			m.overlay = OverlayNone
			return m, m.resume(g.ID)
		case msg.Type == tea.KeyEsc, key.Matches(msg, m.keys.Quit):
			m.overlay = OverlayNone
		}
		return m, nil

	case OverlayGameOver:
		switch {
		case key.Matches(msg, m.keys.New):
			m.overlay = OverlayNone
			return m, m.run("new", m.ctrl.StartSession)
		case key.Matches(msg, m.keys.Quit):
			return m.quit()
		case msg.Type == tea.KeyEsc, msg.Type == tea.KeyEnter:
			m.overlay = OverlayNone
		}
		return m, nil

	case OverlayWatch:
		switch {
		case key.Matches(msg, m.keys.Watch):
			return m, m.fetchWatch()
		case msg.Type == tea.KeyEsc, key.Matches(msg, m.keys.Quit):
			m.overlay = OverlayNone
		}
		return m, nil

	case OverlayHelp:
		if msg.Type == tea.KeyEsc || key.Matches(msg, m.keys.Help) || key.Matches(msg, m.keys.Quit) {
			m.overlay = OverlayNone
		}
		return m, nil
	}
	return m, nil
}

func (m Model) quit() (tea.Model, tea.Cmd) {
	m.cancel()
	m.bridge.Close()
	return m, tea.Quit
}

// run issues a controller call in a command and starts the spinner.
func (m *Model) run(op string, f func(context.Context) error) tea.Cmd {
	ctx := m.ctx
	call := func() tea.Msg {
		return opDoneMsg{op: op, err: f(ctx)}
	}
	m.pending++
	if m.pending == 1 {
		m.statusBar.Pending = m.spinner.View()
		return tea.Batch(call, m.spinner.Tick)
	}
	return call
}

func (m *Model) resume(id string) tea.Cmd {
	ctrl := m.ctrl
	return m.run("resume", func(ctx context.Context) error {
		return ctrl.ResumeSession(ctx, id)
	})
}

func (m Model) fetchWatch() tea.Cmd {
	ctrl, ctx := m.ctrl, m.ctx
	return func() tea.Msg {
		resp, _ := ctrl.Watch(ctx)
		return watchMsg{resp: resp}
	}
}

func (m Model) loadSaved() tea.Cmd {
	games := m.games
	return func() tea.Msg {
		if games == nil {
			return savedMsg{err: errNoHistory}
		}
		list, err := games.List()
		return savedMsg{games: list, err: err}
	}
}

func (m Model) renderHelp() string {
	width := m.width - 8
	if width > 80 {
		width = 80
	}
	return help.Render(help.Markdown(m.keys.HelpSections()), width, m.helpStyle)
}

// View renders the full TUI.
func (m Model) View() string {
	if m.width == 0 || m.height == 0 {
		return "Initializing..."
	}

	if m.overlay != OverlayNone {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, m.renderOverlay())
	}

	sections := []string{
		m.statusBar.View(),
		m.renderBoard(),
		m.log.View(),
		m.renderLine(),
		theme.StyleDimmed.Render("  wasd:move  ijkl:shoot  space:wait  enter:tick  n:new  r:resume  t:auto  m:mode  ?:help  q:quit"),
	}
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m Model) renderOverlay() string {
	width := min(m.width-4, 80)
	switch m.overlay {
	case OverlayGameOver:
		return m.gameOver.View()
	case OverlayHelp:
		return help.View(m.helpText, width)
	case OverlayResume:
		content := lipgloss.JoinVertical(lipgloss.Left,
			theme.StyleHeader.Render("Resume game"),
			"",
			m.prompt.View(),
			"",
			theme.StyleDimmed.Render("enter:resume  esc:cancel"),
		)
		return theme.StyleBorder.Padding(1, 2).Render(content)
	case OverlayWatch:
		return watch.View(m.watchResp, width)
	case OverlaySaved:
		return m.saved.View(width)
	}
	return ""
}

// renderBoard places vision and HUD side by side, or stacked when the
// terminal is too narrow.
func (m Model) renderBoard() string {
	grid := vision.View(m.visionRows())
	gridWidth := lipgloss.Width(grid)
	if m.width-gridWidth >= 36 {
		return lipgloss.JoinHorizontal(lipgloss.Top, grid, " ", m.hud.View(m.width-gridWidth-3))
	}
	return lipgloss.JoinVertical(lipgloss.Left, m.hud.View(m.width-2), grid)
}

func (m Model) visionRows() [][]string {
	if m.obs == nil {
		return nil
	}
	return m.obs.Vision
}

func (m Model) renderLine() string {
	if m.line == "" {
		return ""
	}
	if m.lineError {
		return theme.StyleError.Render("  " + m.line)
	}
	return theme.StyleOK.Render("  " + m.line)
}
