package session

import (
	"sync"

	"github.com/catamaze/client/internal/client"
	"golang.org/x/sync/semaphore"
)

// Session is a snapshot of the live game session. The zero value (empty ID)
// means no session is active.
type Session struct {
	ID          string
	Observation *client.Observation
	QueueDepth  int
	AutoRun     bool
	Events      []string
	Generation  uint64
}

// Active reports whether a session is installed.
func (s Session) Active() bool { return s.ID != "" }

// Over reports whether the session's last observation ended the game.
func (s Session) Over() bool { return s.Observation.Over() }

// ticket identifies the session an operation was issued against.
type ticket struct {
	id   string
	gen  uint64
	lane *semaphore.Weighted
}

type record struct {
	Session
	lane *semaphore.Weighted
}

// Store holds the single live session. Every transition is applied under
// the lock as a whole, so readers never see a partially applied result.
// Transitions tagged with a generation refuse to apply once that
// generation has been replaced.
type Store struct {
	mu      sync.RWMutex
	cur     record
	lastGen uint64
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{}
}

// Snapshot returns a deep copy of the current session.
func (s *Store) Snapshot() Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cp := s.cur.Session
	cp.Observation = s.cur.Observation.Clone()
	if s.cur.Events != nil {
		cp.Events = append([]string(nil), s.cur.Events...)
	}
	return cp
}

// Generation returns the generation of the current (possibly empty) session.
func (s *Store) Generation() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cur.Generation
}

func (s *Store) ticket() (ticket, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.cur.ID == "" {
		return ticket{}, false
	}
	return ticket{id: s.cur.ID, gen: s.cur.Generation, lane: s.cur.lane}, true
}

func (s *Store) isCurrent(gen uint64) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cur.ID != "" && s.cur.Generation == gen
}

func (s *Store) isOver(gen uint64) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cur.Generation == gen && s.cur.Observation.Over()
}

// abandon drops the live session. It returns the dropped session and the
// new (empty) generation.
func (s *Store) abandon() (Session, uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev := s.cur.Session
	s.lastGen++
	s.cur = record{Session: Session{Generation: s.lastGen}}
	return prev, s.lastGen
}

// install replaces the empty session created by abandon with a new one.
// It fails if another abandon happened since expect.
func (s *Store) install(expect uint64, id string, obs *client.Observation, queue int, events []string) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cur.Generation != expect || s.cur.ID != "" {
		return 0, ErrStaleResponse
	}
	s.lastGen++
	s.cur = record{
		Session: Session{
			ID:          id,
			Observation: obs.Clone(),
			QueueDepth:  queue,
			Events:      append([]string(nil), events...),
			Generation:  s.lastGen,
		},
		lane: semaphore.NewWeighted(1),
	}
	return s.lastGen, nil
}

// applyObservation replaces the observation and leaves the queue depth alone.
// It returns the previous observation and the unchanged queue depth.
func (s *Store) applyObservation(gen uint64, obs *client.Observation) (*client.Observation, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.liveLocked(gen) {
		return nil, 0, ErrStaleResponse
	}
	prev := s.cur.Observation
	s.cur.Observation = obs.Clone()
	return prev, s.cur.QueueDepth, nil
}

// applyTick replaces the observation and queue depth and appends events.
func (s *Store) applyTick(gen uint64, obs *client.Observation, queue int, events []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.liveLocked(gen) {
		return ErrStaleResponse
	}
	s.cur.Observation = obs.Clone()
	s.cur.QueueDepth = queue
	s.cur.Events = append(s.cur.Events, events...)
	return nil
}

func (s *Store) setQueue(gen uint64, n int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.liveLocked(gen) {
		return ErrStaleResponse
	}
	s.cur.QueueDepth = n
	return nil
}

func (s *Store) setAutoRun(gen uint64, on bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.liveLocked(gen) {
		return ErrStaleResponse
	}
	s.cur.AutoRun = on
	return nil
}

func (s *Store) liveLocked(gen uint64) bool {
	return s.cur.ID != "" && s.cur.Generation == gen
}
