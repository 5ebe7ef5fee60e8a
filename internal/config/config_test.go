package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	cfg := Default()

	require.Equal(t, "https://catamaze.catachess.com", cfg.Server.URL)
	require.Equal(t, 10*time.Second, cfg.Server.Timeout)
	require.Equal(t, 2*time.Second, cfg.AutoRun.Interval)
	require.True(t, cfg.AutoRun.StartWithSession)
	require.Equal(t, "info", cfg.Log.Level)
	require.NoError(t, cfg.Validate())
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")

	yaml := `
server:
  url: "http://localhost:8000"
  token: "abc"
autorun:
  interval: 500ms
  start_with_session: false
log:
  level: debug
storage:
  dir: /tmp/games
`
	require.NoError(t, os.WriteFile(cfgPath, []byte(yaml), 0o644))

	cfg, err := Load(cfgPath)
	require.NoError(t, err)
	require.Equal(t, "http://localhost:8000", cfg.Server.URL)
	require.Equal(t, "abc", cfg.Server.Token)
	require.Equal(t, 500*time.Millisecond, cfg.AutoRun.Interval)
	require.False(t, cfg.AutoRun.StartWithSession)
	require.Equal(t, "debug", cfg.Log.Level)
	require.Equal(t, "/tmp/games", cfg.StorageDir())

	// Unset keys keep their defaults.
	require.Equal(t, 10*time.Second, cfg.Server.Timeout)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.ErrorIs(t, err, os.ErrNotExist)

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("server: [unclosed"), 0o644))
	_, err = Load(bad)
	require.Error(t, err)
}

func TestLoadOrDefault(t *testing.T) {
	cfg, err := LoadOrDefault(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	require.Equal(t, Default(), cfg)

	cfg, err = LoadOrDefault("")
	require.NoError(t, err)
	require.Equal(t, Default(), cfg)
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		EnvURL:             "http://env:9000",
		EnvToken:           "tok",
		EnvAutoRunInterval: "750ms",
		EnvLogLevel:        "warn",
	}
	lookup := func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	}

	cfg := Default()
	require.NoError(t, cfg.ApplyEnv(lookup))
	require.Equal(t, "http://env:9000", cfg.Server.URL)
	require.Equal(t, "tok", cfg.Server.Token)
	require.Equal(t, 750*time.Millisecond, cfg.AutoRun.Interval)
	require.Equal(t, "warn", cfg.Log.Level)

	env[EnvAutoRunInterval] = "soon"
	require.Error(t, Default().ApplyEnv(lookup))
}

func TestApplyEnvIgnoresEmptyURL(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.ApplyEnv(func(k string) (string, bool) {
		return "", k == EnvURL
	}))
	require.Equal(t, "https://catamaze.catachess.com", cfg.Server.URL)
}

func TestLoadEnv(t *testing.T) {
	dir := t.TempDir()
	envPath := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envPath, []byte("CATAMAZE_TEST_ONLY=from-file\n"), 0o644))
	t.Cleanup(func() { os.Unsetenv("CATAMAZE_TEST_ONLY") })

	require.NoError(t, LoadEnv(filepath.Join(dir, "missing.env"), envPath))
	require.Equal(t, "from-file", os.Getenv("CATAMAZE_TEST_ONLY"))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty url", func(c *Config) { c.Server.URL = "  " }},
		{"zero interval", func(c *Config) { c.AutoRun.Interval = 0 }},
		{"negative interval", func(c *Config) { c.AutoRun.Interval = -time.Second }},
		{"negative timeout", func(c *Config) { c.Server.Timeout = -1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			require.Error(t, cfg.Validate())
		})
	}
}

func TestResolvedPaths(t *testing.T) {
	t.Setenv("XDG_STATE_HOME", "/state")
	t.Setenv("XDG_CONFIG_HOME", "/conf")

	cfg := Default()
	require.Equal(t, "/state/catamaze/catamaze.log", cfg.LogFile())
	require.Equal(t, "/state/catamaze", cfg.StorageDir())
	require.Equal(t, "/conf/catamaze/config.yaml", DefaultPath())

	cfg.Log.File = "-"
	require.Equal(t, "-", cfg.LogFile())
}
