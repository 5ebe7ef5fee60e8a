// Package session implements the CataMaze session controller: the single
// live game session, its request protocol against the game server, and the
// auto-run timer.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/catamaze/client/internal/client"
	"go.uber.org/zap"
)

// Transport is the game server API the Controller drives.
type Transport interface {
	CreateGame(ctx context.Context) (*client.NewGameResponse, error)
	SubmitAction(ctx context.Context, gameID string, action client.Action) (*client.ActionResponse, error)
	ExecuteTick(ctx context.Context, gameID string) (*client.TickResponse, error)
	ClearQueue(ctx context.Context, gameID string) (*client.ClearQueueResponse, error)
	Observe(ctx context.Context, gameID string) (*client.ObserveResponse, error)
	Resume(ctx context.Context, gameID string) (*client.ResumeResponse, error)
}

// Watcher is implemented by transports that expose the spectator view.
type Watcher interface {
	Watch(ctx context.Context, gameID string) (*client.WatchResponse, error)
}

// History records sessions so they can be resumed later.
type History interface {
	Record(id string, obs *client.Observation) error
}

// Option configures a Controller.
type Option func(*Controller)

// WithListener sets the notification receiver.
func WithListener(l Listener) Option {
	return func(c *Controller) {
		if l != nil {
			c.listener = l
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Controller) {
		if l != nil {
			c.log = l
		}
	}
}

// WithAutoRunInterval sets the auto-run cadence.
func WithAutoRunInterval(d time.Duration) Option {
	return func(c *Controller) { c.interval = d }
}

// WithAutoRunOnStart controls whether auto-run starts whenever a playable
// session is installed. It is on by default.
func WithAutoRunOnStart(on bool) Option {
	return func(c *Controller) { c.autoOnStart = on }
}

// WithTickerFunc replaces the auto-run ticker source.
func WithTickerFunc(f TickerFunc) Option {
	return func(c *Controller) { c.newTicker = f }
}

// WithHistory records started, ended and paused sessions.
func WithHistory(h History) Option {
	return func(c *Controller) { c.history = h }
}

// Controller owns the live session and performs every server call on its
// behalf. Calls for one session run one at a time, each holding the
// session's lane for its whole round trip. Starting or resuming a game
// never waits for the old session: it bumps the generation so whatever the
// old session still has in flight is discarded when it lands.
type Controller struct {
	transport   Transport
	store       *Store
	auto        *AutoRunner
	listener    Listener
	history     History
	log         *zap.Logger
	interval    time.Duration
	newTicker   TickerFunc
	autoOnStart bool

	// emitMu orders notifications against abandon so nothing from a
	// replaced generation is delivered after its SessionCleared.
	emitMu sync.Mutex

	ctx    context.Context
	cancel context.CancelFunc
}

// New creates a Controller with no active session.
func New(t Transport, opts ...Option) *Controller {
	c := &Controller{
		transport:   t,
		store:       NewStore(),
		listener:    nopListener{},
		log:         zap.NewNop(),
		interval:    DefaultAutoRunInterval,
		autoOnStart: true,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.ctx, c.cancel = context.WithCancel(context.Background())
	c.auto = NewAutoRunner(c.interval, c.newTicker, c.autoStep)
	return c
}

// Close stops auto-run and aborts auto-run requests still in flight.
func (c *Controller) Close() {
	c.auto.Stop()
	c.cancel()
}

// Snapshot returns a copy of the live session.
func (c *Controller) Snapshot() Session {
	return c.store.Snapshot()
}

// AutoRunInterval returns the configured auto-run cadence.
func (c *Controller) AutoRunInterval() time.Duration {
	return c.auto.Interval()
}

// StartSession abandons the live session and creates a new game.
func (c *Controller) StartSession(ctx context.Context) error {
	gen := c.clear()
	c.publish(0, Status{Message: "Creating new game..."})

	resp, err := c.transport.CreateGame(ctx)
	if err != nil {
		if c.store.Generation() != gen {
			return ErrStaleResponse
		}
		c.log.Warn("create game failed", zap.Error(err))
		c.publish(0, Status{Message: err.Error(), IsError: true})
		return fmt.Errorf("create game: %w", err)
	}
	return c.install(gen, resp.GameID, &resp.Observation, resp.QueueSize, false)
}

// ResumeSession abandons the live session and reattaches to game id.
func (c *Controller) ResumeSession(ctx context.Context, id string) error {
	if id == "" {
		c.publish(0, Status{Message: "Please enter a game ID.", IsError: true})
		return ErrMissingSessionID
	}
	gen := c.clear()
	c.publish(0, Status{Message: fmt.Sprintf("Resuming game %s...", id)})

	resp, err := c.transport.Resume(ctx, id)
	if err != nil {
		if c.store.Generation() != gen {
			return ErrStaleResponse
		}
		c.log.Warn("resume failed", zap.String("game_id", id), zap.Error(err))
		c.publish(0, Status{Message: err.Error(), IsError: true})
		return fmt.Errorf("resume %s: %w", id, err)
	}
	return c.install(gen, resp.GameID, &resp.Observation, resp.QueueSize, true)
}

// AbandonSession drops the live session without telling the server and
// returns its id so the game can be resumed later.
func (c *Controller) AbandonSession() (string, error) {
	if _, ok := c.store.ticket(); !ok {
		c.publish(0, Status{Message: "No active game to pause.", IsError: true})
		return "", ErrNoActiveSession
	}
	prev, _ := c.drop()
	if prev.ID == "" {
		return "", ErrNoActiveSession
	}
	c.publish(0, Status{Message: fmt.Sprintf("Game paused. Resume later with ID: %s", prev.ID)})
	c.record(prev.ID, prev.Observation)
	return prev.ID, nil
}

// QueueAction appends the action bound to key to the server-side queue.
func (c *Controller) QueueAction(ctx context.Context, key string) error {
	action, err := c.parse(key)
	if err != nil {
		return err
	}
	t, err := c.acquire(ctx, 0, true)
	if err != nil {
		return err
	}
	defer t.lane.Release(1)
	return c.submit(ctx, t, action, false)
}

// Act queues the action bound to key and executes a tick, holding the
// session's lane across both calls.
func (c *Controller) Act(ctx context.Context, key string) error {
	action, err := c.parse(key)
	if err != nil {
		return err
	}
	t, err := c.acquire(ctx, 0, true)
	if err != nil {
		return err
	}
	defer t.lane.Release(1)
	if err := c.submit(ctx, t, action, false); err != nil {
		return err
	}
	return c.tick(ctx, t, false)
}

// ExecuteTick advances the game by one tick.
func (c *Controller) ExecuteTick(ctx context.Context) error {
	t, err := c.acquire(ctx, 0, true)
	if err != nil {
		return err
	}
	defer t.lane.Release(1)
	return c.tick(ctx, t, false)
}

// ClearQueue drops every queued action.
func (c *Controller) ClearQueue(ctx context.Context) error {
	t, err := c.acquire(ctx, 0, true)
	if err != nil {
		return err
	}
	defer t.lane.Release(1)

	resp, err := c.transport.ClearQueue(ctx, t.id)
	if err != nil {
		return c.fail(t, "clear queue", err)
	}
	if err := c.store.setQueue(t.gen, 0); err != nil {
		return err
	}
	msg := resp.Message
	if msg == "" {
		msg = "Queue cleared"
	}
	c.publish(t.gen, QueueChanged{Depth: 0}, Status{Message: msg})
	return nil
}

// Observe refreshes the observation without advancing time. It is allowed
// after the game has ended.
func (c *Controller) Observe(ctx context.Context) error {
	t, err := c.acquire(ctx, 0, false)
	if err != nil {
		return err
	}
	defer t.lane.Release(1)

	resp, err := c.transport.Observe(ctx, t.id)
	if err != nil {
		return c.fail(t, "observe", err)
	}
	obs := resp.Observation
	prev, queue, err := c.store.applyObservation(t.gen, &obs)
	if err != nil {
		return err
	}
	notes := []Notification{
		StateChanged{Observation: obs.Clone(), QueueDepth: queue},
		Status{Message: "Observation refreshed"},
	}
	if obs.Over() && !prev.Over() {
		notes = append(notes, c.ended(t, &obs)...)
	}
	c.publish(t.gen, notes...)
	return nil
}

// Watch fetches the spectator view of the live game. It does not touch the
// session.
func (c *Controller) Watch(ctx context.Context) (*client.WatchResponse, error) {
	w, ok := c.transport.(Watcher)
	if !ok {
		return nil, errors.New("transport does not support watch mode")
	}
	t, err := c.acquire(ctx, 0, false)
	if err != nil {
		return nil, err
	}
	defer t.lane.Release(1)

	resp, err := w.Watch(ctx, t.id+"-watch")
	if err != nil {
		if !c.store.isCurrent(t.gen) {
			return nil, ErrStaleResponse
		}
		c.log.Warn("watch failed", zap.String("game_id", t.id), zap.Error(err))
		c.publish(t.gen, Status{Message: err.Error(), IsError: true})
		return nil, fmt.Errorf("watch: %w", err)
	}
	if !c.store.isCurrent(t.gen) {
		return nil, ErrStaleResponse
	}
	return resp, nil
}

// EnableAutoRun starts submitting WAIT and ticking every interval.
func (c *Controller) EnableAutoRun() error {
	snap := c.store.Snapshot()
	if !snap.Active() {
		c.publish(0, Status{Message: "Create a game first to enable auto-run.", IsError: true})
		return ErrNoActiveSession
	}
	if snap.Over() {
		c.publish(snap.Generation, Status{Message: "Game is over. Start a new game.", IsError: true})
		return ErrGameOver
	}
	c.startAutoRun(snap.Generation)
	return nil
}

// DisableAutoRun stops auto-run.
func (c *Controller) DisableAutoRun() {
	if ok, gen := c.auto.Running(); ok && c.halt(gen) {
		c.publish(0, AutoRunChanged{Active: false}, Status{Message: "Auto-run disabled."})
	}
}

// ToggleAutoRun flips auto-run and reports whether it is now active.
func (c *Controller) ToggleAutoRun() (bool, error) {
	if ok, _ := c.auto.Running(); ok {
		c.DisableAutoRun()
		return false, nil
	}
	if err := c.EnableAutoRun(); err != nil {
		return false, err
	}
	return true, nil
}

// startAutoRun holds emitMu so drop cannot abandon gen between marking the
// session and starting its task.
func (c *Controller) startAutoRun(gen uint64) {
	c.emitMu.Lock()
	defer c.emitMu.Unlock()
	if err := c.store.setAutoRun(gen, true); err != nil {
		return
	}
	c.auto.Start(gen)
	c.log.Info("auto-run started", zap.Uint64("generation", gen), zap.Duration("interval", c.auto.Interval()))
	c.listener.Notify(AutoRunChanged{Active: true})
	c.listener.Notify(Status{Message: fmt.Sprintf("Auto-run enabled. Game will execute WAIT every %s.", c.auto.Interval())})
}

// halt stops auto-run if it serves gen.
func (c *Controller) halt(gen uint64) bool {
	if !c.auto.StopFor(gen) {
		return false
	}
	_ = c.store.setAutoRun(gen, false)
	c.log.Info("auto-run stopped", zap.Uint64("generation", gen))
	return true
}

// autoStep runs one auto-run firing: WAIT then tick, silently.
func (c *Controller) autoStep(ctx context.Context, gen uint64) {
	t, err := c.acquire(ctx, gen, false)
	if err != nil {
		if ctx.Err() == nil && c.halt(gen) {
			c.publish(0, AutoRunChanged{Active: false})
		}
		return
	}
	defer t.lane.Release(1)
	if ctx.Err() != nil {
		return
	}
	if c.store.isOver(gen) {
		if c.halt(gen) {
			c.publish(gen, AutoRunChanged{Active: false})
		}
		return
	}
	// Requests use the controller context: stopping auto-run must not
	// abort a call that has already been sent.
	if err := c.submit(c.ctx, t, client.Wait, true); err != nil {
		return
	}
	_ = c.tick(c.ctx, t, true)
}

func (c *Controller) parse(key string) (client.Action, error) {
	if _, ok := c.store.ticket(); !ok {
		c.publish(0, Status{Message: "No active game. Create a new game first.", IsError: true})
		return "", ErrNoActiveSession
	}
	action, ok := ParseKey(key)
	if !ok {
		c.publish(0, Status{Message: fmt.Sprintf("Invalid key: %s", key), IsError: true})
		return "", fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return action, nil
}

// acquire waits for the live session's lane. A non-zero expect pins the
// call to that generation. When live is set, a finished game is refused.
func (c *Controller) acquire(ctx context.Context, expect uint64, live bool) (ticket, error) {
	t, ok := c.store.ticket()
	if !ok || (expect != 0 && t.gen != expect) {
		if expect != 0 {
			return ticket{}, ErrStaleResponse
		}
		c.publish(0, Status{Message: "No active game. Create a new game first.", IsError: true})
		return ticket{}, ErrNoActiveSession
	}
	if err := t.lane.Acquire(ctx, 1); err != nil {
		return ticket{}, err
	}
	if !c.store.isCurrent(t.gen) {
		t.lane.Release(1)
		return ticket{}, ErrStaleResponse
	}
	if live && c.store.isOver(t.gen) {
		t.lane.Release(1)
		c.publish(t.gen, Status{Message: "Game is over. Start a new game.", IsError: true})
		return ticket{}, ErrGameOver
	}
	return t, nil
}

func (c *Controller) submit(ctx context.Context, t ticket, action client.Action, silent bool) error {
	resp, err := c.transport.SubmitAction(ctx, t.id, action)
	if err != nil {
		return c.fail(t, "queue action", err)
	}
	if err := c.store.setQueue(t.gen, resp.QueueSize); err != nil {
		return err
	}
	c.log.Debug("action queued",
		zap.String("game_id", t.id),
		zap.String("action", string(action)),
		zap.Int("queue", resp.QueueSize),
	)
	notes := []Notification{QueueChanged{Depth: resp.QueueSize}}
	if !silent {
		notes = append(notes, Status{Message: fmt.Sprintf("Action queued: %s", action)})
	}
	c.publish(t.gen, notes...)
	return nil
}

func (c *Controller) tick(ctx context.Context, t ticket, silent bool) error {
	resp, err := c.transport.ExecuteTick(ctx, t.id)
	if err != nil {
		return c.fail(t, "execute tick", err)
	}
	obs := resp.Observation
	if err := c.store.applyTick(t.gen, &obs, resp.QueueSize, resp.Events); err != nil {
		return err
	}
	c.log.Debug("tick executed",
		zap.String("game_id", t.id),
		zap.Int("tick", resp.Tick),
		zap.Int("events", len(resp.Events)),
	)

	notes := []Notification{
		StateChanged{Observation: obs.Clone(), QueueDepth: resp.QueueSize},
		QueueChanged{Depth: resp.QueueSize},
	}
	for _, ev := range resp.Events {
		notes = append(notes, EventAppended{Text: ev})
	}
	if !silent {
		notes = append(notes, Status{Message: fmt.Sprintf("Tick %d executed. Queue: %d", resp.Tick, resp.QueueSize)})
	}
	if obs.Over() {
		notes = append(notes, c.ended(t, &obs)...)
	}
	c.publish(t.gen, notes...)
	return nil
}

// ended stops auto-run and records a finished game.
func (c *Controller) ended(t ticket, obs *client.Observation) []Notification {
	var notes []Notification
	if c.halt(t.gen) {
		notes = append(notes, AutoRunChanged{Active: false})
	}
	c.log.Info("game over",
		zap.String("game_id", t.id),
		zap.Bool("won", obs.Won),
		zap.Bool("alive", obs.Alive),
		zap.Int("tick", obs.Tick),
	)
	c.record(t.id, obs)
	return append(notes, SessionEnded{Won: obs.Won, Alive: obs.Alive})
}

// fail reports a transport failure for t. Failures of a replaced session
// are dropped.
func (c *Controller) fail(t ticket, op string, err error) error {
	if !c.store.isCurrent(t.gen) {
		return ErrStaleResponse
	}
	c.log.Warn("request failed",
		zap.String("op", op),
		zap.String("game_id", t.id),
		zap.Uint64("generation", t.gen),
		zap.Error(err),
	)
	notes := []Notification{Status{Message: err.Error(), IsError: true}}
	if c.halt(t.gen) {
		notes = append(notes, AutoRunChanged{Active: false})
	}
	c.publish(t.gen, notes...)
	return fmt.Errorf("%s: %w", op, err)
}

func (c *Controller) install(expect uint64, id string, obs *client.Observation, queue int, resumed bool) error {
	event := "New game created!"
	status := fmt.Sprintf("Game started! ID: %s", id)
	if resumed {
		event = fmt.Sprintf("Game resumed: %s", id)
		status = event
	}
	gen, err := c.store.install(expect, id, obs, queue, []string{event})
	if err != nil {
		return err
	}
	c.log.Info("session installed",
		zap.String("game_id", id),
		zap.Bool("resumed", resumed),
		zap.Uint64("generation", gen),
	)

	t := ticket{id: id, gen: gen}
	notes := []Notification{
		SessionStarted{ID: id, Resumed: resumed},
		StateChanged{Observation: obs.Clone(), QueueDepth: queue},
		QueueChanged{Depth: queue},
		EventAppended{Text: event},
		Status{Message: status},
	}
	over := obs.Over()
	if over {
		notes = append(notes, c.ended(t, obs)...)
	} else {
		c.record(id, obs)
	}
	c.publish(gen, notes...)

	if c.autoOnStart && !over {
		c.startAutoRun(gen)
	}
	return nil
}

// clear stops auto-run and abandons the live session ahead of a
// replacement. It returns the new empty generation.
func (c *Controller) clear() uint64 {
	prev, gen := c.drop()
	if prev.Active() && !prev.Over() {
		c.record(prev.ID, prev.Observation)
	}
	return gen
}

// drop stops auto-run and abandons the session while holding emitMu,
// so no notification from the old generation can follow SessionCleared.
func (c *Controller) drop() (Session, uint64) {
	c.emitMu.Lock()
	defer c.emitMu.Unlock()
	stopped := c.auto.Stop()
	prev, gen := c.store.abandon()
	if stopped {
		c.listener.Notify(AutoRunChanged{Active: false})
	}
	if prev.Active() {
		c.log.Info("session abandoned", zap.String("game_id", prev.ID), zap.Uint64("generation", prev.Generation))
		c.listener.Notify(SessionCleared{ID: prev.ID})
	}
	return prev, gen
}

// publish delivers notes in order. A non-zero gen drops them if that
// generation is no longer live.
func (c *Controller) publish(gen uint64, notes ...Notification) bool {
	c.emitMu.Lock()
	defer c.emitMu.Unlock()
	if gen != 0 && !c.store.isCurrent(gen) {
		return false
	}
	for _, n := range notes {
		c.listener.Notify(n)
	}
	return true
}

func (c *Controller) record(id string, obs *client.Observation) {
	if c.history == nil {
		return
	}
	if err := c.history.Record(id, obs); err != nil {
		c.log.Warn("recording game failed", zap.String("game_id", id), zap.Error(err))
	}
}
