package session_test

import (
	"sync"
	"testing"
	"time"

	"github.com/catamaze/client/internal/client"
	"github.com/catamaze/client/internal/client/clienttest"
	"github.com/catamaze/client/internal/session"
)

type recorder struct {
	mu    sync.Mutex
	notes []session.Notification
}

func (r *recorder) Notify(n session.Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notes = append(r.notes, n)
}

func (r *recorder) all() []session.Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]session.Notification(nil), r.notes...)
}

func (r *recorder) reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notes = nil
}

func (r *recorder) statuses() []session.Status {
	var out []session.Status
	for _, n := range r.all() {
		if s, ok := n.(session.Status); ok {
			out = append(out, s)
		}
	}
	return out
}

func (r *recorder) lastStatus() session.Status {
	st := r.statuses()
	if len(st) == 0 {
		return session.Status{}
	}
	return st[len(st)-1]
}

func (r *recorder) ended() []session.SessionEnded {
	var out []session.SessionEnded
	for _, n := range r.all() {
		if e, ok := n.(session.SessionEnded); ok {
			out = append(out, e)
		}
	}
	return out
}

// manualClock hands out tickers that fire only when told to. onNew, if
// set, runs before each ticker is handed out.
type manualClock struct {
	mu      sync.Mutex
	tickers []*manualTicker
	onNew   func()
}

type manualTicker struct {
	ch chan time.Time
}

func (t *manualTicker) C() <-chan time.Time { return t.ch }
func (t *manualTicker) Stop()               {}

func (c *manualClock) NewTicker(time.Duration) session.Ticker {
	if c.onNew != nil {
		c.onNew()
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &manualTicker{ch: make(chan time.Time)}
	c.tickers = append(c.tickers, t)
	return t
}

func (c *manualClock) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.tickers)
}

// fire delivers one firing to the newest ticker. It reports whether a
// running loop accepted it.
func (c *manualClock) fire(wait time.Duration) bool {
	c.mu.Lock()
	if len(c.tickers) == 0 {
		c.mu.Unlock()
		return false
	}
	t := c.tickers[len(c.tickers)-1]
	c.mu.Unlock()
	select {
	case t.ch <- time.Now():
		return true
	case <-time.After(wait):
		return false
	}
}

type memHistory struct {
	mu  sync.Mutex
	ids []string
}

func (h *memHistory) Record(id string, _ *client.Observation) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.ids = append(h.ids, id)
	return nil
}

func (h *memHistory) recorded() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.ids...)
}

type harness struct {
	ctrl  *session.Controller
	srv   *clienttest.Server
	rec   *recorder
	clock *manualClock
	hist  *memHistory
}

// newHarness builds a controller with auto-run off at start, so tests drive
// it explicitly.
func newHarness(t *testing.T, opts ...session.Option) *harness {
	t.Helper()
	return buildHarness(t, append([]session.Option{session.WithAutoRunOnStart(false)}, opts...)...)
}

// newDefaultHarness keeps the controller's own defaults.
func newDefaultHarness(t *testing.T) *harness {
	t.Helper()
	return buildHarness(t)
}

func buildHarness(t *testing.T, opts ...session.Option) *harness {
	t.Helper()
	srv := clienttest.NewServer()
	t.Cleanup(srv.Close)

	h := &harness{srv: srv, rec: &recorder{}, clock: &manualClock{}, hist: &memHistory{}}
	transport := client.NewHTTPClient(srv.URL, "", client.WithHTTPClient(srv.Client()))
	base := []session.Option{
		session.WithListener(h.rec),
		session.WithTickerFunc(h.clock.NewTicker),
		session.WithHistory(h.hist),
	}
	h.ctrl = session.New(transport, append(base, opts...)...)
	t.Cleanup(h.ctrl.Close)
	return h
}
