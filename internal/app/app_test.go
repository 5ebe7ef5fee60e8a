package app

import (
	"strings"
	"testing"
	"time"

	"github.com/catamaze/client/internal/client"
	"github.com/catamaze/client/internal/client/clienttest"
	"github.com/catamaze/client/internal/session"
	"github.com/catamaze/client/internal/views/status"
	tea "github.com/charmbracelet/bubbletea"
)

func newTestModel(t *testing.T, opts ...Option) (Model, *clienttest.Server) {
	t.Helper()
	srv := clienttest.NewServer()
	t.Cleanup(srv.Close)

	bridge := NewBridge(BridgeBuffer)
	transport := client.NewHTTPClient(srv.URL, "", client.WithHTTPClient(srv.Client()))
	ctrl := session.New(transport, session.WithListener(bridge), session.WithAutoRunOnStart(false))
	t.Cleanup(func() {
		bridge.Close()
		ctrl.Close()
	})

	m := New(ctrl, bridge, append([]Option{WithHelpStyle("notty")}, opts...)...)
	next, _ := m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	return next.(Model), srv
}

func press(m Model, k string) (Model, tea.Cmd) {
	var msg tea.KeyMsg
	switch k {
	case "enter":
		msg = tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		msg = tea.KeyMsg{Type: tea.KeyEsc}
	default:
		msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
	}
	next, cmd := m.Update(msg)
	return next.(Model), cmd
}

// settle runs cmd and every command it batches, then feeds the resulting
// messages and any queued notifications back into the model.
func settle(t *testing.T, m Model, cmd tea.Cmd) Model {
	t.Helper()
	for _, msg := range collect(cmd) {
		next, _ := m.Update(msg)
		m = next.(Model)
	}
	for {
		select {
		case n := <-m.bridge.ch:
			next, _ := m.Update(NoteMsg{Note: n})
			m = next.(Model)
		default:
			return m
		}
	}
}

func collect(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		var out []tea.Msg
		for _, c := range batch {
			out = append(out, collect(c)...)
		}
		return out
	}
	return []tea.Msg{msg}
}

func TestViewBeforeSize(t *testing.T) {
	m := New(nil, NewBridge(1))
	if v := m.View(); v != "Initializing..." {
		t.Errorf("View() = %q, want Initializing...", v)
	}
}

func TestNewGameKey(t *testing.T) {
	m, _ := newTestModel(t)

	m, cmd := press(m, "n")
	if m.pending != 1 {
		t.Fatalf("pending = %d, want 1", m.pending)
	}
	m = settle(t, m, cmd)

	if m.pending != 0 {
		t.Errorf("pending = %d after completion, want 0", m.pending)
	}
	if m.statusBar.GameID != "game-0001" {
		t.Errorf("GameID = %q, want game-0001", m.statusBar.GameID)
	}
	if m.obs == nil || len(m.obs.Vision) == 0 {
		t.Fatal("observation should be applied")
	}
	v := m.View()
	for _, want := range []string{"game-0001", "Game started! ID: game-0001", "Vision"} {
		if !strings.Contains(v, want) {
			t.Errorf("view missing %q", want)
		}
	}
}

func TestDirectModeQueuesAndTicks(t *testing.T) {
	m, srv := newTestModel(t)
	m, cmd := press(m, "n")
	m = settle(t, m, cmd)

	m, cmd = press(m, "w")
	m = settle(t, m, cmd)

	if got := srv.CallCount("/game/tick"); got != 1 {
		t.Errorf("tick calls = %d, want 1", got)
	}
	if m.obs.Tick != 1 {
		t.Errorf("tick = %d, want 1", m.obs.Tick)
	}
}

func TestPlanModeOnlyQueues(t *testing.T) {
	m, srv := newTestModel(t)
	m, cmd := press(m, "n")
	m = settle(t, m, cmd)

	m, _ = press(m, "m")
	if m.statusBar.Mode != status.ModePlan {
		t.Fatalf("mode = %v, want plan", m.statusBar.Mode)
	}
	m, cmd = press(m, "d")
	m = settle(t, m, cmd)

	if got := srv.CallCount("/game/tick"); got != 0 {
		t.Errorf("tick calls = %d, want 0", got)
	}
	if m.hud.Queue != 1 {
		t.Errorf("queue = %d, want 1", m.hud.Queue)
	}

	m, cmd = press(m, "enter")
	m = settle(t, m, cmd)
	if m.hud.Queue != 0 || m.obs.Tick != 1 {
		t.Errorf("after tick queue=%d tick=%d, want 0 and 1", m.hud.Queue, m.obs.Tick)
	}
}

func TestUnboundKeyIsIgnored(t *testing.T) {
	m, srv := newTestModel(t)
	_, cmd := press(m, "z")
	if cmd != nil {
		t.Error("unbound key should not issue a command")
	}
	if len(srv.Calls()) != 0 {
		t.Error("unbound key should not reach the server")
	}
}

func TestGameOverOverlay(t *testing.T) {
	m, srv := newTestModel(t)
	srv.EndAtTick = 1
	m, cmd := press(m, "n")
	m = settle(t, m, cmd)

	m, cmd = press(m, "enter")
	m = settle(t, m, cmd)

	if m.overlay != OverlayGameOver {
		t.Fatalf("overlay = %d, want game over", m.overlay)
	}
	if !strings.Contains(m.View(), "YOU WON!") {
		t.Error("game-over overlay should announce the win")
	}

	m, cmd = press(m, "n")
	if m.overlay != OverlayNone {
		t.Error("n should close the overlay")
	}
	m = settle(t, m, cmd)
	if m.statusBar.GameID != "game-0002" || m.statusBar.Over {
		t.Errorf("new game not installed: id=%q over=%v", m.statusBar.GameID, m.statusBar.Over)
	}
}

func TestStatusErrorShown(t *testing.T) {
	m, _ := newTestModel(t)
	m, cmd := press(m, "enter")
	m = settle(t, m, cmd)

	if !m.lineError {
		t.Error("tick without a game should report an error")
	}
	if !strings.Contains(m.View(), "No active game. Create a new game first.") {
		t.Error("view should show the error line")
	}
}

func TestResumePrompt(t *testing.T) {
	m, srv := newTestModel(t)
	srv.AddGame("saved-1", clienttest.InitialObservation(), 2)

	m, _ = press(m, "r")
	if m.overlay != OverlayResume {
		t.Fatalf("overlay = %d, want resume prompt", m.overlay)
	}
	// Letters go to the prompt, not to the key map.
	m, _ = press(m, "saved-1")
	if m.prompt.Value() != "saved-1" {
		t.Fatalf("prompt = %q", m.prompt.Value())
	}

	m, cmd := press(m, "enter")
	m = settle(t, m, cmd)
	if m.overlay != OverlayNone {
		t.Error("enter should close the prompt")
	}
	if m.statusBar.GameID != "saved-1" || m.hud.Queue != 2 {
		t.Errorf("resume not applied: id=%q queue=%d", m.statusBar.GameID, m.hud.Queue)
	}
}

func TestResumeAtLaunch(t *testing.T) {
	m, srv := newTestModel(t, WithResume("saved-1"))
	srv.AddGame("saved-1", clienttest.InitialObservation(), 1)

	if m.pending != 1 || m.statusBar.Pending == "" {
		t.Fatalf("pending = %d spinner = %q, want the launch resume counted", m.pending, m.statusBar.Pending)
	}
	m = settle(t, m, m.startup)

	if m.pending != 0 || m.statusBar.Pending != "" {
		t.Errorf("pending = %d after completion, want 0", m.pending)
	}
	if m.statusBar.GameID != "saved-1" || m.hud.Queue != 1 {
		t.Errorf("resume not applied: id=%q queue=%d", m.statusBar.GameID, m.hud.Queue)
	}
}

func TestResumePromptEscape(t *testing.T) {
	m, srv := newTestModel(t)
	m, _ = press(m, "r")
	m, _ = press(m, "esc")
	if m.overlay != OverlayNone {
		t.Error("esc should close the prompt")
	}
	if len(srv.Calls()) != 0 {
		t.Error("cancelled prompt should not call the server")
	}
}

func TestHelpOverlay(t *testing.T) {
	m, _ := newTestModel(t)
	m, _ = press(m, "?")
	if m.overlay != OverlayHelp {
		t.Fatal("? should open help")
	}
	v := m.View()
	for _, want := range []string{"CataMaze controls", "execute tick", "toggle auto-run"} {
		if !strings.Contains(v, want) {
			t.Errorf("help missing %q", want)
		}
	}
	m, _ = press(m, "esc")
	if m.overlay != OverlayNone {
		t.Error("esc should close help")
	}
}

func TestWatchOverlay(t *testing.T) {
	m, _ := newTestModel(t)
	m, cmd := press(m, "n")
	m = settle(t, m, cmd)

	m, cmd = press(m, "g")
	m = settle(t, m, cmd)
	if m.overlay != OverlayWatch {
		t.Fatalf("overlay = %d, want watch", m.overlay)
	}
	if !strings.Contains(m.View(), "WATCH game-0001") {
		t.Error("watch overlay should name the game")
	}
}

func TestSavedWithoutHistory(t *testing.T) {
	m, _ := newTestModel(t)
	m, cmd := press(m, "v")
	m = settle(t, m, cmd)
	if m.overlay != OverlaySaved {
		t.Fatal("v should open the saved list")
	}
	if !strings.Contains(m.View(), errNoHistory.Error()) {
		t.Error("saved list should explain that history is disabled")
	}
}

func TestPauseClearsBoard(t *testing.T) {
	m, _ := newTestModel(t)
	m, cmd := press(m, "n")
	m = settle(t, m, cmd)

	m, cmd = press(m, "p")
	m = settle(t, m, cmd)
	if m.statusBar.GameID != "" || m.obs != nil {
		t.Error("pause should clear the board")
	}
	if !strings.Contains(m.line, "game-0001") {
		t.Errorf("status line = %q, want the paused id", m.line)
	}
}

func TestBridgeCloseUnblocks(t *testing.T) {
	b := NewBridge(1)
	b.Notify(session.Status{Message: "one"})

	msg := b.Wait()()
	if note, ok := msg.(NoteMsg); !ok || note.Note != (session.Status{Message: "one"}) {
		t.Fatalf("Wait() = %#v", msg)
	}

	b.Notify(session.Status{Message: "two"})
	done := make(chan struct{})
	go func() {
		b.Notify(session.Status{Message: "three"})
		close(done)
	}()
	b.Close()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Notify should return after Close")
	}
}
