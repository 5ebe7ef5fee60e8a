// Package shell is a line-oriented front end for the session controller.
// Each input line is one command; output is plain text suitable for pipes.
package shell

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/catamaze/client/internal/client"
	"github.com/catamaze/client/internal/session"
	"github.com/catamaze/client/internal/storage"
	"github.com/catamaze/client/internal/views/vision"
	"github.com/catamaze/client/internal/views/watch"
	"go.uber.org/zap"
)

// Prompt is printed before each command when the shell is interactive.
const Prompt = "catamaze> "

var prefixes = map[string]bool{"catamaze": true, "cm": true, "cata": true}

var helpLines = []string{
	"=== CataMaze Commands ===",
	"",
	"new                - Start a new game",
	"action|a <key>     - Queue an action",
	"tick|t             - Execute one tick",
	"clear|esc          - Clear action queue",
	"observe|obs|o      - View current state",
	"resume|r <id>      - Resume a game",
	"queue              - Show queued action count",
	"auto [on|off]      - Toggle auto-run (WAIT every interval)",
	"pause              - Stop playing and keep the id for later",
	"saved              - List recorded games",
	"watch              - Spectate the full map",
	"quit               - Leave",
	"",
	"Movement keys: w/a/s/d or up/left/down/right",
	"Shooting keys: i/j/k/l (up/left/down/right)",
	"Wait: space or .",
	"",
	"Commands may be prefixed with catamaze, cm or cata.",
	"Example: action w",
}

// Shell reads commands and prints results. It is the controller's listener:
// status lines, events and the game-over banner are printed as they are
// emitted.
type Shell struct {
	ctrl  *session.Controller
	games *storage.Store
	log   *zap.Logger

	mu  sync.Mutex
	out io.Writer
	// busy is set while a command runs; state changes outside commands
	// come from auto-run and are printed as one-line summaries.
	busy atomic.Bool
}

// New creates a shell and its controller. opts are passed to session.New
// after the shell's own listener. games may be nil.
func New(t session.Transport, out io.Writer, games *storage.Store, log *zap.Logger, opts ...session.Option) *Shell {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Shell{games: games, log: log, out: out}
	base := []session.Option{session.WithListener(s), session.WithLogger(log)}
	if games != nil {
		base = append(base, session.WithHistory(games))
	}
	s.ctrl = session.New(t, append(base, opts...)...)
	return s
}

// Controller exposes the underlying controller.
func (s *Shell) Controller() *session.Controller { return s.ctrl }

// Close stops auto-run and releases the controller.
func (s *Shell) Close() { s.ctrl.Close() }

// Run executes commands from in until EOF, quit, or ctx is done. With
// interactive set a prompt is printed before each line.
func (s *Shell) Run(ctx context.Context, in io.Reader, interactive bool) error {
	sc := bufio.NewScanner(in)
	for {
		if interactive {
			s.write(Prompt)
		}
		if !sc.Scan() {
			return sc.Err()
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if s.Exec(ctx, sc.Text()) {
			return nil
		}
	}
}

// Exec runs one command line and reports whether the shell should exit.
func (s *Shell) Exec(ctx context.Context, line string) (quit bool) {
	args := strings.Fields(line)
	if len(args) > 0 && prefixes[strings.ToLower(args[0])] {
		args = args[1:]
		if len(args) == 0 {
			args = []string{"help"}
		}
	}
	if len(args) == 0 {
		return false
	}

	s.busy.Store(true)
	defer s.busy.Store(false)

	cmd := strings.ToLower(args[0])
	arg := ""
	if len(args) > 1 {
		arg = args[1]
	}
	s.log.Debug("command", zap.String("cmd", cmd), zap.String("arg", arg))

	switch cmd {
	case "new", "n":
		s.startGame(ctx)
	case "action", "a":
		s.action(ctx, arg)
	case "tick", "t":
		s.tick(ctx)
	case "clear", "esc":
		if s.ctrl.ClearQueue(ctx) == nil {
			s.println("Queue cleared. You can start queueing new actions.")
		}
	case "observe", "obs", "o":
		s.observe(ctx)
	case "resume", "r":
		s.resume(ctx, arg)
	case "queue":
		s.queue()
	case "auto":
		s.auto(arg)
	case "pause":
		_, _ = s.ctrl.AbandonSession()
	case "saved":
		s.saved()
	case "watch":
		s.watch(ctx)
	case "help", "?":
		s.println(helpLines...)
	case "quit", "exit":
		return true
	default:
		s.println(fmt.Sprintf("Unknown command: %s", cmd), `Type "help" for usage.`)
	}
	return false
}

// Notify implements session.Listener.
func (s *Shell) Notify(n session.Notification) {
	switch n := n.(type) {
	case session.Status:
		if n.IsError {
			s.println("Error: " + n.Message)
			return
		}
		s.println(n.Message)
	case session.EventAppended:
		s.println("  * " + n.Text)
	case session.SessionEnded:
		s.println(banner(n.Won, n.Alive)...)
	case session.StateChanged:
		if s.busy.Load() || n.Observation == nil {
			return
		}
		o := n.Observation
		s.println(fmt.Sprintf("[auto] tick %d  HP: %d  Ammo: %d  Position: (%d, %d)  Queue: %d",
			o.Tick, o.HP, o.Ammo, o.Position.X, o.Position.Y, n.QueueDepth))
	}
}

func (s *Shell) startGame(ctx context.Context) {
	if s.ctrl.StartSession(ctx) != nil {
		return
	}
	snap := s.ctrl.Snapshot()
	lines := []string{"", "=== NEW GAME STARTED ===", "Game ID: " + snap.ID}
	lines = append(lines, stateLines(snap.Observation, snap.QueueDepth)...)
	lines = append(lines, `Use "action <key>" to move/shoot, "tick" to execute.`)
	s.println(lines...)
}

func (s *Shell) resume(ctx context.Context, id string) {
	if s.ctrl.ResumeSession(ctx, id) != nil {
		return
	}
	snap := s.ctrl.Snapshot()
	lines := []string{"", "=== GAME RESUMED ===", "Game ID: " + snap.ID}
	lines = append(lines, stateLines(snap.Observation, snap.QueueDepth)...)
	s.println(lines...)
}

func (s *Shell) action(ctx context.Context, key string) {
	if key == "" {
		s.println("Usage: action <key>", "Keys: w/a/s/d, i/j/k/l, space")
		return
	}
	if s.ctrl.QueueAction(ctx, key) != nil {
		return
	}
	s.println(fmt.Sprintf("Queue size: %d", s.ctrl.Snapshot().QueueDepth), `Use "tick" to execute.`)
}

func (s *Shell) tick(ctx context.Context) {
	if s.ctrl.ExecuteTick(ctx) != nil {
		return
	}
	snap := s.ctrl.Snapshot()
	s.println(stateLines(snap.Observation, snap.QueueDepth)...)
}

func (s *Shell) observe(ctx context.Context) {
	if s.ctrl.Observe(ctx) != nil {
		return
	}
	snap := s.ctrl.Snapshot()
	lines := []string{"", "=== CURRENT STATE ==="}
	lines = append(lines, stateLines(snap.Observation, snap.QueueDepth)...)
	if o := snap.Observation; o != nil {
		lines = append(lines, fmt.Sprintf("Alive: %t  Won: %t", o.Alive, o.Won))
	}
	s.println(lines...)
}

func (s *Shell) queue() {
	snap := s.ctrl.Snapshot()
	if !snap.Active() {
		s.println("No active game.")
		return
	}
	s.println(fmt.Sprintf("Queue size: %d", snap.QueueDepth))
}

func (s *Shell) auto(arg string) {
	switch strings.ToLower(arg) {
	case "on":
		_ = s.ctrl.EnableAutoRun()
	case "off":
		if !s.ctrl.Snapshot().AutoRun {
			s.println("Auto-run is not running.")
			return
		}
		s.ctrl.DisableAutoRun()
	case "":
		_, _ = s.ctrl.ToggleAutoRun()
	default:
		s.println("Usage: auto [on|off]")
	}
}

func (s *Shell) saved() {
	if s.games == nil {
		s.println("Game history is disabled.")
		return
	}
	games, err := s.games.List()
	if err != nil {
		s.println("Error: " + err.Error())
		return
	}
	if len(games) == 0 {
		s.println("No saved games yet.")
		return
	}
	lines := []string{"=== SAVED GAMES ==="}
	for _, g := range games {
		state := "in progress"
		if g.Finished() {
			state = string(g.Outcome)
		}
		lines = append(lines, fmt.Sprintf("%-12s tick %-4d hp %d  %-11s %s",
			g.ID, g.LastTick, g.HP, state, g.LastSeen.Format("2006-01-02 15:04")))
	}
	s.println(lines...)
}

func (s *Shell) watch(ctx context.Context) {
	resp, err := s.ctrl.Watch(ctx)
	if err != nil || resp == nil {
		return
	}
	lines := []string{fmt.Sprintf("=== WATCH %s  tick %d ===", resp.GameID, resp.Tick)}
	lines = append(lines, vision.Plain(watch.Overlay(resp))...)
	for _, e := range resp.Entities {
		state := "alive"
		if !e.Alive {
			state = "dead"
		}
		lines = append(lines, fmt.Sprintf("  %s (%d, %d) hp %d %s", e.ID, e.X, e.Y, e.HP, state))
	}
	lines = append(lines, fmt.Sprintf("Bullets in flight: %d", len(resp.Bullets)))
	s.println(lines...)
}

func (s *Shell) write(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	io.WriteString(s.out, text)
}

func (s *Shell) println(lines ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, l := range lines {
		io.WriteString(s.out, l+"\n")
	}
}

// stateLines renders the HUD and vision of an observation.
func stateLines(o *client.Observation, queue int) []string {
	if o == nil {
		return nil
	}
	lines := []string{
		fmt.Sprintf("HP: %d  Ammo: %d  Tick: %d  Queue: %d", o.HP, o.Ammo, o.Tick, queue),
		fmt.Sprintf("Position: (%d, %d)", o.Position.X, o.Position.Y),
	}
	if snd := o.Sound(); snd != "" {
		lines = append(lines, "Sound: "+snd)
	} else {
		lines = append(lines, "Sound: [silence]")
	}
	lines = append(lines, "", "Vision:")
	lines = append(lines, vision.Plain(o.Vision)...)
	return lines
}

func banner(won, alive bool) []string {
	lines := []string{"", "=== GAME OVER ==="}
	switch {
	case won:
		lines = append(lines, "YOU WON! Congratulations!")
	case !alive:
		lines = append(lines, `You died. Try "new" to play again.`)
	default:
		lines = append(lines, `The game has ended. Try "new" to play again.`)
	}
	return lines
}
