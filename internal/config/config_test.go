package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "data/popula.db", cfg.DBPath)
	assert.Empty(t, cfg.AdminKey)
	assert.Equal(t, 60*time.Second, cfg.RunTimeout)
	assert.Equal(t, 4, cfg.MaxConcurrentRuns)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("POPULA_PORT", "9999")
	t.Setenv("POPULA_ADMIN_KEY", "hunter2")
	t.Setenv("POPULA_RUN_TIMEOUT", "2m")
	t.Setenv("POPULA_MAX_CONCURRENT_RUNS", "8")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 9999, cfg.Port)
	assert.Equal(t, "hunter2", cfg.AdminKey)
	assert.Equal(t, 2*time.Minute, cfg.RunTimeout)
	assert.Equal(t, 8, cfg.MaxConcurrentRuns)
}

func TestLoadRejectsZeroConcurrency(t *testing.T) {
	t.Setenv("POPULA_MAX_CONCURRENT_RUNS", "0")
	_, err := Load()
	assert.Error(t, err)
}
