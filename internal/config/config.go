// Package config loads application configuration from defaults, an optional
// YAML file, and environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Config holds the application configuration.
type Config struct {
	// ListenAddr configures the HTTP listen address.
	ListenAddr string `koanf:"listen_addr"`

	// DBPath is the SQLite snapshot database path.
	DBPath string `koanf:"db_path"`

	// DefaultRef is the git ref used when a request does not override it.
	DefaultRef string `koanf:"default_ref"`

	// FetchTimeout bounds every raw-content HTTP request; a timeout is
	// treated as an ordinary fetch failure.
	FetchTimeout time.Duration `koanf:"fetch_timeout"`

	// CacheTTL controls how long identical fetches within a session are
	// served from the request-dedup cache.
	CacheTTL time.Duration `koanf:"cache_ttl"`

	// SnapshotMaxAge bounds how old a stored board snapshot may grow before
	// startup pruning removes it.
	SnapshotMaxAge time.Duration `koanf:"snapshot_max_age"`

	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`
}

// defaults returns the baseline configuration before file and env overlays.
func defaults() Config {
	return Config{
		ListenAddr:     "127.0.0.1:8080",
		DBPath:         "tomeboard.db",
		DefaultRef:     "main",
		FetchTimeout:   10 * time.Second,
		CacheTTL:       2 * time.Minute,
		SnapshotMaxAge: 30 * 24 * time.Hour,
		LogLevel:       "info",
	}
}

// Load builds a Config by layering defaults, an optional YAML file, and
// environment variables. Order of precedence (low -> high):
//  1. defaults
//  2. file (YAML) if TOMEBOARD_CONFIG is set
//  3. env (prefix TOMEBOARD_, e.g. TOMEBOARD_LISTEN_ADDR)
func Load() (*Config, error) {
	cfg := defaults()

	k := koanf.New(".")

	if path := os.Getenv("TOMEBOARD_CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("loading config file %s: %w", path, err)
		}
	}

	// TOMEBOARD_LISTEN_ADDR -> listen_addr (flat keys, underscores preserved
	// to match the koanf tags on the struct).
	envProvider := env.Provider("TOMEBOARD_", ".", func(s string) string {
		s = strings.ToLower(s)
		return strings.TrimPrefix(s, "tomeboard_")
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("loading env config: %w", err)
	}

	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if cfg.ListenAddr == "" {
		return nil, errors.New("listen_addr must not be empty")
	}
	if cfg.DefaultRef == "" {
		return nil, errors.New("default_ref must not be empty")
	}
	if cfg.FetchTimeout <= 0 {
		return nil, fmt.Errorf("fetch_timeout must be positive, got %s", cfg.FetchTimeout)
	}
	if cfg.CacheTTL <= 0 {
		return nil, fmt.Errorf("cache_ttl must be positive, got %s", cfg.CacheTTL)
	}

	return &cfg, nil
}
