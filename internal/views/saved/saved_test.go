package saved

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/catamaze/client/internal/storage"
)

func games() []storage.Game {
	now := time.Now()
	return []storage.Game{
		{ID: "abc123", LastTick: 12, HP: 4, LastSeen: now.Add(-5 * time.Minute)},
		{ID: "def456", LastTick: 30, HP: 0, Outcome: storage.OutcomeDied, LastSeen: now.Add(-3 * time.Hour)},
	}
}

func TestCursorWraps(t *testing.T) {
	m := New(games(), nil)
	m.Up()
	if g, _ := m.Current(); g.ID != "def456" {
		t.Errorf("Up from top should wrap, got %q", g.ID)
	}
	m.Down()
	if g, _ := m.Current(); g.ID != "abc123" {
		t.Errorf("Down should wrap back, got %q", g.ID)
	}
}

func TestCurrentEmpty(t *testing.T) {
	m := New(nil, nil)
	m.Down()
	if _, ok := m.Current(); ok {
		t.Error("empty list has no current game")
	}
}

func TestLine(t *testing.T) {
	now := time.Now()
	got := Line(games()[0], now)
	for _, want := range []string{"abc123", "tick 12", "in progress", "5m ago"} {
		if !strings.Contains(got, want) {
			t.Errorf("Line() = %q, missing %q", got, want)
		}
	}
	if !strings.Contains(Line(games()[1], now), "died") {
		t.Error("finished game should show its outcome")
	}
}

func TestViewStates(t *testing.T) {
	if !strings.Contains(New(nil, nil).View(60), "No saved games") {
		t.Error("empty view should say there are no games")
	}
	if !strings.Contains(New(nil, errors.New("disk on fire")).View(60), "disk on fire") {
		t.Error("load error should be shown")
	}
	if !strings.Contains(New(games(), nil).View(80), "> abc123") {
		t.Error("selected game should be marked")
	}
}
