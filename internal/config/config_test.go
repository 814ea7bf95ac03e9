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
	assert.Equal(t, "8080", cfg.HTTPPort)
	assert.Equal(t, BackendPostgres, cfg.StoreBackend)
	assert.Equal(t, BackendMemory, cfg.QueueBackend)
	assert.Zero(t, cfg.ReportCacheTTL)
	assert.False(t, cfg.AuthEnabled())
	assert.False(t, cfg.Production())
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("APP_ENV", "prod")
	t.Setenv("STORE_BACKEND", "memory")
	t.Setenv("QUEUE_BACKEND", "redis")
	t.Setenv("REPORT_CACHE_TTL", "45s")
	t.Setenv("JWT_SIGNING_KEY", "secret")
	t.Setenv("RATE_LIMIT_RPS", "2.5")

	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.Production())
	assert.True(t, cfg.AuthEnabled())
	assert.Equal(t, BackendMemory, cfg.StoreBackend)
	assert.Equal(t, BackendRedis, cfg.QueueBackend)
	assert.Equal(t, 45*time.Second, cfg.ReportCacheTTL)
	assert.InDelta(t, 2.5, cfg.RateLimitRPS, 0.0001)
}

func TestLoadRejectsUnknownBackend(t *testing.T) {
	t.Setenv("STORE_BACKEND", "sqlite")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "STORE_BACKEND")
}

func TestLoadRejectsBadDuration(t *testing.T) {
	t.Setenv("REPORT_CACHE_TTL", "soon")
	_, err := Load()
	require.Error(t, err)
}
