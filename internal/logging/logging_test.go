package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want zapcore.Level
	}{
		{"", zapcore.InfoLevel},
		{"debug", zapcore.DebugLevel},
		{"WARN", zapcore.WarnLevel},
		{"error", zapcore.ErrorLevel},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		if err != nil {
			t.Fatalf("ParseLevel(%q) error: %v", tt.in, err)
		}
		if got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}

	if _, err := ParseLevel("chatty"); err == nil {
		t.Error("expected error for unknown level")
	}
}

func TestNewWritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "catamaze.log")

	logger, closeFn, err := New(path, "warn")
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	logger.Info("dropped")
	logger.Warn("kept", zap.String("game_id", "abc123"))
	closeFn()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading log: %v", err)
	}
	out := string(data)
	if strings.Contains(out, "dropped") {
		t.Errorf("info line written at warn level: %s", out)
	}
	if !strings.Contains(out, `"game_id":"abc123"`) {
		t.Errorf("missing structured field: %s", out)
	}
}

func TestNewRejectsBadLevel(t *testing.T) {
	if _, _, err := New(filepath.Join(t.TempDir(), "x.log"), "loud"); err == nil {
		t.Fatal("expected error")
	}
}
