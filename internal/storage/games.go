// Package storage keeps the local history of played games so a paused or
// interrupted game can be resumed by id.
package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/catamaze/client/internal/client"
)

const (
	// historyVersion is bumped when the schema changes.
	historyVersion = 1

	gamesFileName = "games.json"

	// MaxGames bounds the history; the least recently seen games are
	// dropped first.
	MaxGames = 50
)

// Outcome is how a recorded game ended, if it has.
type Outcome string

const (
	OutcomeNone Outcome = ""
	OutcomeWon  Outcome = "won"
	OutcomeDied Outcome = "died"
	OutcomeOver Outcome = "over"
)

// Game is one recorded session.
type Game struct {
	ID        string    `json:"id"`
	FirstSeen time.Time `json:"firstSeen"`
	LastSeen  time.Time `json:"lastSeen"`
	LastTick  int       `json:"lastTick"`
	HP        int       `json:"hp"`
	Outcome   Outcome   `json:"outcome,omitempty"`
}

// Finished reports whether the game can no longer be played.
func (g Game) Finished() bool { return g.Outcome != OutcomeNone }

// History is the on-disk document.
type History struct {
	Version     int       `json:"version"`
	Games       []Game    `json:"games"`
	LastUpdated time.Time `json:"lastUpdated"`
}

// Store reads and writes games.json in one directory.
type Store struct {
	dir string
	now func() time.Time

	mu sync.Mutex
}

// NewStore creates a Store rooted at dir. The directory is created on the
// first Save.
func NewStore(dir string) *Store {
	return &Store{dir: dir, now: time.Now}
}

// Path returns the full path to the history file.
func (s *Store) Path() string {
	return filepath.Join(s.dir, gamesFileName)
}

// Load reads the history. A missing file yields an empty history.
func (s *Store) Load() (*History, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

func (s *Store) load() (*History, error) {
	data, err := os.ReadFile(s.Path())
	if err != nil {
		if os.IsNotExist(err) {
			return &History{Version: historyVersion}, nil
		}
		return nil, fmt.Errorf("reading games: %w", err)
	}

	var h History
	if err := json.Unmarshal(data, &h); err != nil {
		return nil, fmt.Errorf("parsing games: %w", err)
	}
	return &h, nil
}

// Save writes the history using an atomic temp-file-then-rename.
func (s *Store) Save(h *History) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.save(h)
}

func (s *Store) save(h *History) error {
	if err := os.MkdirAll(s.dir, 0o700); err != nil {
		return fmt.Errorf("creating games dir: %w", err)
	}

	h.Version = historyVersion
	h.LastUpdated = s.now().UTC()

	data, err := json.MarshalIndent(h, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling games: %w", err)
	}
	data = append(data, '\n')

	tmp, err := os.CreateTemp(s.dir, ".games-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			os.Remove(tmpPath)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tmpPath, s.Path()); err != nil {
		return fmt.Errorf("renaming games file: %w", err)
	}
	committed = true
	return nil
}

// Record upserts a game from its latest observation.
func (s *Store) Record(id string, obs *client.Observation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	h, err := s.load()
	if err != nil {
		return err
	}

	now := s.now().UTC()
	idx := -1
	for i := range h.Games {
		if h.Games[i].ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		h.Games = append(h.Games, Game{ID: id, FirstSeen: now})
		idx = len(h.Games) - 1
	}

	g := &h.Games[idx]
	g.LastSeen = now
	if obs != nil {
		g.LastTick = obs.Tick
		g.HP = obs.HP
		g.Outcome = outcomeOf(obs)
	}

	sortGames(h.Games)
	if len(h.Games) > MaxGames {
		h.Games = h.Games[:MaxGames]
	}
	return s.save(h)
}

// List returns recorded games, most recently seen first.
func (s *Store) List() ([]Game, error) {
	h, err := s.Load()
	if err != nil {
		return nil, err
	}
	sortGames(h.Games)
	return h.Games, nil
}

// Latest returns the most recently seen unfinished game.
func (s *Store) Latest() (Game, bool, error) {
	games, err := s.List()
	if err != nil {
		return Game{}, false, err
	}
	for _, g := range games {
		if !g.Finished() {
			return g, true, nil
		}
	}
	return Game{}, false, nil
}

func outcomeOf(obs *client.Observation) Outcome {
	switch {
	case obs.Won:
		return OutcomeWon
	case !obs.Alive:
		return OutcomeDied
	case obs.GameOver:
		return OutcomeOver
	default:
		return OutcomeNone
	}
}

func sortGames(games []Game) {
	sort.SliceStable(games, func(i, j int) bool {
		return games[i].LastSeen.After(games[j].LastSeen)
	})
}
