// Package config loads service configuration from the environment.
package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config carries everything the populad service reads from its environment.
// Variables are prefixed POPULA_ (e.g. POPULA_PORT, POPULA_ADMIN_KEY).
type Config struct {
	Port   int    `envconfig:"PORT" default:"8080"`
	DBPath string `envconfig:"DB_PATH" default:"data/popula.db"`

	// AdminKey is the bearer token required on mutating endpoints.
	// Empty disables them entirely.
	AdminKey string `envconfig:"ADMIN_KEY"`

	// RunTimeout bounds the wall clock of a single projection run; the
	// driver observes it through context cancellation at year-step
	// granularity.
	RunTimeout time.Duration `envconfig:"RUN_TIMEOUT" default:"60s"`

	// MaxConcurrentRuns bounds admission of simultaneous projection runs.
	MaxConcurrentRuns int `envconfig:"MAX_CONCURRENT_RUNS" default:"4"`
}

// Load reads configuration from POPULA_-prefixed environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("POPULA", &cfg); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if cfg.MaxConcurrentRuns < 1 {
		return nil, fmt.Errorf("max concurrent runs must be at least 1, got %d", cfg.MaxConcurrentRuns)
	}
	return &cfg, nil
}
