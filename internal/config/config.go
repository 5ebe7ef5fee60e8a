package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const appDirName = "catamaze"

// Environment variables that override the config file.
const (
	EnvURL             = "CATAMAZE_URL"
	EnvToken           = "CATAMAZE_TOKEN"
	EnvAutoRunInterval = "CATAMAZE_AUTORUN_INTERVAL"
	EnvLogLevel        = "CATAMAZE_LOG_LEVEL"
)

type Config struct {
	Server  ServerConfig  `yaml:"server"`
	AutoRun AutoRunConfig `yaml:"autorun"`
	Log     LogConfig     `yaml:"log"`
	Storage StorageConfig `yaml:"storage"`
}

type ServerConfig struct {
	URL     string        `yaml:"url"`
	Token   string        `yaml:"token"`
	Timeout time.Duration `yaml:"timeout"`
}

type AutoRunConfig struct {
	Interval         time.Duration `yaml:"interval"`
	StartWithSession bool          `yaml:"start_with_session"`
}

type LogConfig struct {
	Level string `yaml:"level"`
	// File is the log destination. Empty means catamaze.log in the state
	// directory; "-" means stderr.
	File string `yaml:"file"`
}

type StorageConfig struct {
	// Dir holds games.json. Empty means the XDG state directory.
	Dir string `yaml:"dir"`
}

func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			URL:     "https://catamaze.catachess.com",
			Timeout: 10 * time.Second,
		},
		AutoRun: AutoRunConfig{
			Interval:         2 * time.Second,
			StartWithSession: true,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Default returns the built-in configuration.
func Default() *Config {
	return defaultConfig()
}

// Load reads a YAML config file over the defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := defaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return cfg, nil
}

// LoadOrDefault is Load, except a missing file yields the defaults.
func LoadOrDefault(path string) (*Config, error) {
	if path == "" {
		return defaultConfig(), nil
	}
	cfg, err := Load(path)
	if errors.Is(err, os.ErrNotExist) {
		return defaultConfig(), nil
	}
	return cfg, err
}

// LoadEnv loads variables from the given .env files into the process
// environment without overriding variables that are already set. Missing
// files are ignored.
func LoadEnv(files ...string) error {
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("loading %s: %w", f, err)
		}
	}
	return nil
}

// ApplyEnv overrides fields from CATAMAZE_* variables. lookup is usually
// os.LookupEnv.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup(EnvURL); ok && v != "" {
		c.Server.URL = v
	}
	if v, ok := lookup(EnvToken); ok {
		c.Server.Token = v
	}
	if v, ok := lookup(EnvAutoRunInterval); ok && v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvAutoRunInterval, err)
		}
		c.AutoRun.Interval = d
	}
	if v, ok := lookup(EnvLogLevel); ok && v != "" {
		c.Log.Level = v
	}
	return nil
}

// Validate reports the first unusable setting.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Server.URL) == "" {
		return errors.New("server.url must not be empty")
	}
	if c.AutoRun.Interval <= 0 {
		return fmt.Errorf("autorun.interval must be positive, got %s", c.AutoRun.Interval)
	}
	if c.Server.Timeout < 0 {
		return fmt.Errorf("server.timeout must not be negative, got %s", c.Server.Timeout)
	}
	return nil
}

// LogFile returns the resolved log destination.
func (c *Config) LogFile() string {
	if c.Log.File != "" {
		return c.Log.File
	}
	return filepath.Join(StateDir(), "catamaze.log")
}

// StorageDir returns the resolved directory for saved games.
func (c *Config) StorageDir() string {
	if c.Storage.Dir != "" {
		return c.Storage.Dir
	}
	return StateDir()
}

// StateDir returns ~/.local/state/catamaze, respecting XDG_STATE_HOME if
// set.
func StateDir() string {
	if base := os.Getenv("XDG_STATE_HOME"); base != "" {
		return filepath.Join(base, appDirName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		home = os.TempDir()
	}
	return filepath.Join(home, ".local", "state", appDirName)
}

// DefaultPath returns ~/.config/catamaze/config.yaml, respecting
// XDG_CONFIG_HOME if set.
func DefaultPath() string {
	if base := os.Getenv("XDG_CONFIG_HOME"); base != "" {
		return filepath.Join(base, appDirName, "config.yaml")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", appDirName, "config.yaml")
}
