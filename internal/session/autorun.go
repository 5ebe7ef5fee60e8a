package session

import (
	"context"
	"sync"
	"time"
)

// DefaultAutoRunInterval is the wait cadence used when none is configured.
const DefaultAutoRunInterval = 2 * time.Second

// Ticker delivers periodic firings.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

// TickerFunc creates a Ticker firing every d.
type TickerFunc func(d time.Duration) Ticker

type stdTicker struct{ t *time.Ticker }

func (s stdTicker) C() <-chan time.Time { return s.t.C }
func (s stdTicker) Stop()               { s.t.Stop() }

// NewStdTicker is the TickerFunc backed by time.Ticker.
func NewStdTicker(d time.Duration) Ticker {
	return stdTicker{t: time.NewTicker(d)}
}

// AutoRunner owns at most one repeating task bound to one session
// generation. Stop never waits for the task goroutine; a stopped task
// checks its own cancellation before every step and never fires again.
type AutoRunner struct {
	interval  time.Duration
	newTicker TickerFunc
	step      func(ctx context.Context, gen uint64)

	mu     sync.Mutex
	cancel context.CancelFunc
	gen    uint64
}

// NewAutoRunner creates a stopped runner. step is called once per firing
// with the task's context, which is cancelled by Stop, and the generation
// the task was started for.
func NewAutoRunner(interval time.Duration, newTicker TickerFunc, step func(ctx context.Context, gen uint64)) *AutoRunner {
	if interval <= 0 {
		interval = DefaultAutoRunInterval
	}
	if newTicker == nil {
		newTicker = NewStdTicker
	}
	return &AutoRunner{interval: interval, newTicker: newTicker, step: step}
}

// Interval returns the firing cadence.
func (a *AutoRunner) Interval() time.Duration { return a.interval }

// Start begins firing for gen, stopping any previous task first.
func (a *AutoRunner) Start(gen uint64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.cancel != nil {
		a.cancel()
	}
	ctx, cancel := context.WithCancel(context.Background())
	a.cancel = cancel
	a.gen = gen
	t := a.newTicker(a.interval)
	go a.loop(ctx, t, gen)
}

func (a *AutoRunner) loop(ctx context.Context, t Ticker, gen uint64) {
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C():
			if ctx.Err() != nil {
				return
			}
			a.step(ctx, gen)
		}
	}
}

// Stop cancels the running task. It reports whether a task was running.
func (a *AutoRunner) Stop() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.stopLocked()
}

// StopFor cancels the running task only if it was started for gen.
func (a *AutoRunner) StopFor(gen uint64) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.cancel == nil || a.gen != gen {
		return false
	}
	return a.stopLocked()
}

func (a *AutoRunner) stopLocked() bool {
	if a.cancel == nil {
		return false
	}
	a.cancel()
	a.cancel = nil
	a.gen = 0
	return true
}

// Running reports whether a task is active and the generation it serves.
func (a *AutoRunner) Running() (bool, uint64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.cancel != nil, a.gen
}
