package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setMySQLEnv(t *testing.T) {
	t.Helper()
	t.Setenv("STORAGE", "mysql")
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("DB_USER", "app")
	t.Setenv("DB_HOST", "db")
	t.Setenv("DB_NAME", "tasks")
}

func TestLoad_Defaults(t *testing.T) {
	setMySQLEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "dev", cfg.Env)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, StorageMySQL, cfg.Storage)
	assert.Equal(t, "3306", cfg.DBPort)
	assert.Equal(t, 5*time.Minute, cfg.AccessTTL())
	assert.Equal(t, 24*time.Hour, cfg.RefreshTTL())
	assert.Equal(t, 6, cfg.MinPasswordLength)
	assert.Equal(t, 10, cfg.BcryptCost)
}

func TestLoad_ReportsAllMissingVars(t *testing.T) {
	t.Setenv("STORAGE", "mysql")
	t.Setenv("JWT_SECRET", "")
	t.Setenv("DB_USER", "")
	t.Setenv("DB_HOST", "")
	t.Setenv("DB_NAME", "")

	_, err := Load()
	require.Error(t, err)
	for _, k := range []string{"DB_HOST", "DB_NAME", "DB_USER", "JWT_SECRET"} {
		assert.Contains(t, err.Error(), k)
	}
}

func TestLoad_MemoryStorageNeedsNoDatabase(t *testing.T) {
	t.Setenv("STORAGE", "memory")
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("DB_USER", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, StorageMemory, cfg.Storage)
}

func TestLoad_InvalidStorage(t *testing.T) {
	t.Setenv("STORAGE", "sqlite")
	t.Setenv("JWT_SECRET", "s3cret")

	_, err := Load()
	assert.ErrorContains(t, err, "invalid STORAGE")
}

func TestLoad_RefreshMustOutliveAccess(t *testing.T) {
	setMySQLEnv(t)
	t.Setenv("ACCESS_TOKEN_TTL_MIN", "2880") // two days
	t.Setenv("REFRESH_TOKEN_TTL_DAYS", "1")

	_, err := Load()
	assert.ErrorContains(t, err, "refresh token lifetime")
}

func TestLoadRateLimitConfig_Clamps(t *testing.T) {
	t.Setenv("RATE_LIMIT_CAPACITY", "0")
	t.Setenv("RATE_LIMIT_REFILL_INTERVAL", "2s")
	t.Setenv("RATE_LIMIT_TTL", "1s")

	cfg := LoadRateLimitConfig()
	assert.Equal(t, 1, cfg.Capacity)
	assert.Equal(t, 10*time.Second, cfg.TTL)
	assert.Equal(t, "ip_route", cfg.KeyStrategy)
}

func TestLoadCacheConfig_Methods(t *testing.T) {
	t.Setenv("CACHE_METHODS", "get, head")

	cfg := LoadCacheConfig()
	assert.True(t, cfg.Methods["GET"])
	assert.True(t, cfg.Methods["HEAD"])
	assert.False(t, cfg.Methods["POST"])
	assert.Equal(t, "user_route_query", cfg.KeyStrategy)
}

func TestLoadCacheConfig_KeyStrategyAlwaysIncludesUser(t *testing.T) {
	for in, want := range map[string]string{
		"user_route":       CacheKeyUserRoute,
		" USER_ROUTE ":     CacheKeyUserRoute,
		"user_route_query": CacheKeyUserRouteQuery,
		"route":            CacheKeyUserRouteQuery,
		"route_query":      CacheKeyUserRouteQuery,
		"bogus":            CacheKeyUserRouteQuery,
	} {
		t.Setenv("CACHE_KEY_STRATEGY", in)
		assert.Equal(t, want, LoadCacheConfig().KeyStrategy, in)
	}
}

func TestLoadAMQPConfig_URLFallback(t *testing.T) {
	t.Setenv("RABBITMQ_URL", "")
	t.Setenv("AMQP_URL", "amqp://u:p@mq:5672/")

	cfg := LoadAMQPConfig()
	assert.Equal(t, "amqp://u:p@mq:5672/", cfg.URL)
	assert.False(t, cfg.Enabled)
	assert.Equal(t, "tasks.events", cfg.Queue)
}
