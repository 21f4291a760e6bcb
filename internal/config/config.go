package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds all runtime configuration for the trade post.
type Config struct {
	Port            int           `env:"PORT" envDefault:"8080"`
	LogLevel        string        `env:"LOG_LEVEL" envDefault:"info"`
	SessionTTL      time.Duration `env:"SESSION_TTL" envDefault:"2m"`
	SweepInterval   time.Duration `env:"SWEEP_INTERVAL" envDefault:"1s"`
	ArchiveCapacity int           `env:"ARCHIVE_CAPACITY" envDefault:"256"`
	NotifyTimeout   time.Duration `env:"NOTIFY_TIMEOUT" envDefault:"5s"`
	ReadTimeout     time.Duration `env:"READ_TIMEOUT" envDefault:"5s"`
	WriteTimeout    time.Duration `env:"WRITE_TIMEOUT" envDefault:"10s"`
	IdleTimeout     time.Duration `env:"IDLE_TIMEOUT" envDefault:"60s"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
}

// Load reads configuration from environment variables, applies
// defaults, and validates values. It returns an error for any invalid
// value.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if cfg.Port < 1 || cfg.Port > 65535 {
		return nil, fmt.Errorf("invalid PORT: %d", cfg.Port)
	}
	if !isValidLogLevel(cfg.LogLevel) {
		return nil, fmt.Errorf("invalid LOG_LEVEL: %q, must be one of: debug, info, warn, error", cfg.LogLevel)
	}
	if cfg.SessionTTL <= 0 {
		return nil, fmt.Errorf("invalid SESSION_TTL: must be positive")
	}
	if cfg.SweepInterval <= 0 {
		return nil, fmt.Errorf("invalid SWEEP_INTERVAL: must be positive")
	}
	// The sweep bounds how stale "free to trade again" can get, so it
	// must fire at least once within a session's lifetime.
	if cfg.SweepInterval >= cfg.SessionTTL {
		return nil, fmt.Errorf("invalid SWEEP_INTERVAL: must be shorter than SESSION_TTL")
	}
	if cfg.ArchiveCapacity < 0 {
		return nil, fmt.Errorf("invalid ARCHIVE_CAPACITY: must be non-negative")
	}
	if cfg.NotifyTimeout <= 0 {
		return nil, fmt.Errorf("invalid NOTIFY_TIMEOUT: must be positive")
	}

	return cfg, nil
}

func isValidLogLevel(level string) bool {
	switch level {
	case "debug", "info", "warn", "error":
		return true
	}
	return false
}
