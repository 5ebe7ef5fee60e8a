package config

import (
	"flag"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestResolveFlagsOverrideFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  url: http://file:1\nautorun:\n  interval: 5s\n"), 0o644))
	t.Setenv(EnvURL, "http://env:2")
	t.Setenv(EnvAutoRunInterval, "3s")
	t.Chdir(dir)

	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	f := RegisterFlags(fs)
	require.NoError(t, fs.Parse([]string{"-config", path, "-url", "http://flag:3", "-log-level", "debug"}))

	cfg, err := Resolve(f)
	require.NoError(t, err)
	require.Equal(t, "http://flag:3", cfg.Server.URL)
	require.Equal(t, 3*time.Second, cfg.AutoRun.Interval)
	require.Equal(t, "debug", cfg.Log.Level)
}

func TestResolveMissingExplicitConfig(t *testing.T) {
	t.Chdir(t.TempDir())
	_, err := Resolve(&Flags{Path: filepath.Join(t.TempDir(), "nope.yaml")})
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestResolveInvalid(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv(EnvAutoRunInterval, "0s")
	_, err := Resolve(&Flags{})
	require.Error(t, err)
}
