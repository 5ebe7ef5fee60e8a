// Package logging builds the zap logger. The TUI owns the terminal, so logs
// go to a file unless "-" asks for stderr.
package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ParseLevel maps a config level name to a zap level. Empty means info.
func ParseLevel(s string) (zapcore.Level, error) {
	if strings.TrimSpace(s) == "" {
		return zapcore.InfoLevel, nil
	}
	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(strings.ToLower(s))); err != nil {
		return lvl, fmt.Errorf("unknown log level %q", s)
	}
	return lvl, nil
}

// New returns a JSON logger writing to path at level, and a func that
// flushes and closes the destination.
func New(path, level string) (*zap.Logger, func(), error) {
	lvl, err := ParseLevel(level)
	if err != nil {
		return nil, nil, err
	}

	var (
		sink  zapcore.WriteSyncer
		closeFile = func() {}
	)
	if path == "-" {
		sink = zapcore.Lock(os.Stderr)
	} else {
		if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
			return nil, nil, fmt.Errorf("creating log dir: %w", err)
		}
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
		if err != nil {
			return nil, nil, fmt.Errorf("opening log file: %w", err)
		}
		sink = zapcore.AddSync(f)
		closeFile = func() { f.Close() }
	}

	enc := zap.NewProductionEncoderConfig()
	enc.EncodeTime = zapcore.ISO8601TimeEncoder
	core := zapcore.NewCore(zapcore.NewJSONEncoder(enc), sink, lvl)
	logger := zap.New(core)

	return logger, func() {
		_ = logger.Sync()
		closeFile()
	}, nil
}
