// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Keep defaults in New and layer file/env on top in Load.
// - External errors must be wrapped via this package's error helpers.
package config

import (
	"context"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// DBPath is the SQLite database path. ":memory:" keeps everything in RAM.
	DBPath string `koanf:"db_path"`

	// MaxBatchSignals caps the number of candidates accepted per import batch.
	MaxBatchSignals int `koanf:"max_batch_signals"`

	// RateLimitMax is the number of requests allowed per key per window.
	RateLimitMax int `koanf:"rate_limit_max"`

	// RateLimitWindowMS is the fixed-window duration in milliseconds.
	RateLimitWindowMS int `koanf:"rate_limit_window_ms"`

	// LimiterSweepIntervalMS controls how often expired buckets are evicted.
	LimiterSweepIntervalMS int `koanf:"limiter_sweep_interval_ms"`

	// APITokens maps bearer tokens to actor names. Empty means no valid
	// actor exists and every import is rejected as session-expired.
	APITokens map[string]string `koanf:"api_tokens"`
}

// New creates a Config with defaults. Context is accepted first to satisfy
// the project-wide convention; it is reserved for future use.
func New(_ context.Context) *Config {
	c := &Config{
		LogLevel:               "info",
		Addr:                   ":9090",
		DBPath:                 "securelab.db",
		MaxBatchSignals:        500,
		RateLimitMax:           60,
		RateLimitWindowMS:      60_000,
		LimiterSweepIntervalMS: 300_000,
		APITokens:              map[string]string{},
	}
	return c
}
