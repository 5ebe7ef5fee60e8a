package config

import (
	"flag"
	"os"
)

// Flags are the command-line overrides shared by both binaries.
type Flags struct {
	Path     string
	URL      string
	Token    string
	LogLevel string
	LogFile  string
}

// RegisterFlags defines the shared flags on fs.
func RegisterFlags(fs *flag.FlagSet) *Flags {
	f := &Flags{}
	fs.StringVar(&f.Path, "config", "", "Path to config file (default "+DefaultPath()+")")
	fs.StringVar(&f.URL, "url", "", "Base URL of the CataMaze game server")
	fs.StringVar(&f.Token, "token", "", "Bearer token (if the server requires it)")
	fs.StringVar(&f.LogLevel, "log-level", "", "Log level: debug, info, warn, error")
	fs.StringVar(&f.LogFile, "log-file", "", `Log file ("-" for stderr)`)
	return f
}

// Resolve builds the effective configuration: defaults, then the config
// file, then .env and CATAMAZE_* variables, then flags. An explicit -config
// must exist; the default path may be missing.
func Resolve(f *Flags) (*Config, error) {
	if err := LoadEnv(".env"); err != nil {
		return nil, err
	}

	var cfg *Config
	var err error
	if f.Path != "" {
		cfg, err = Load(f.Path)
	} else {
		cfg, err = LoadOrDefault(DefaultPath())
	}
	if err != nil {
		return nil, err
	}

	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}

	if f.URL != "" {
		cfg.Server.URL = f.URL
	}
	if f.Token != "" {
		cfg.Server.Token = f.Token
	}
	if f.LogLevel != "" {
		cfg.Log.Level = f.LogLevel
	}
	if f.LogFile != "" {
		cfg.Log.File = f.LogFile
	}
	return cfg, cfg.Validate()
}
