package status

import (
	"strings"
	"testing"
)

func TestStateLabel(t *testing.T) {
	tests := []struct {
		name string
		m    Model
		want string
	}{
		{"no game", Model{}, "idle"},
		{"alive", Model{GameID: "g", Alive: true}, "alive"},
		{"won", Model{GameID: "g", Alive: true, Won: true, Over: true}, "WON"},
		{"dead", Model{GameID: "g", Over: true}, "DEAD"},
		{"over", Model{GameID: "g", Alive: true, Over: true}, "OVER"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.m.stateLabel(); !strings.Contains(got, tt.want) {
				t.Errorf("stateLabel() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestViewShowsFlags(t *testing.T) {
	m := Model{GameID: "abc123", Alive: true, AutoRun: true, Mode: ModePlan, Width: 80}
	v := m.View()
	for _, want := range []string{"abc123", "auto: on", "mode: plan"} {
		if !strings.Contains(v, want) {
			t.Errorf("View() missing %q", want)
		}
	}
	if strings.Contains(New().View(), "auto: on") {
		t.Error("auto-run should default to off")
	}
}
