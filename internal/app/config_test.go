package app

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/klabast/wb-services/meal-roster/internal/calendar"
	"github.com/klabast/wb-services/meal-roster/internal/roster"
)

func TestLoadConfigDefaults(t *testing.T) {
	chdirForTest(t, t.TempDir())
	t.Setenv("APP_TIMEZONE", "UTC")
	t.Setenv("JWT_SECRET", "")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.Env)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, BackendFile, cfg.StoreBackend)
	assert.Equal(t, 10, cfg.BackupKeep)
	assert.Equal(t, 12*time.Hour, cfg.TokenTTL)
	assert.Equal(t, calendar.ModeISO, cfg.Mode())
	assert.Equal(t, roster.ISOWeekBuckets, cfg.Buckets())
	assert.Equal(t, DefaultWeekCurrent, cfg.DefaultWeek)
	assert.Len(t, cfg.JWTSecret, 64, "a random secret is generated")
	assert.Equal(t, time.UTC, cfg.Location)
}

func TestLoadConfigFromEnv(t *testing.T) {
	chdirForTest(t, t.TempDir())
	t.Setenv("APP_PORT", "9090")
	t.Setenv("APP_TIMEZONE", "UTC")
	t.Setenv("STORE_BACKEND", "redis")
	t.Setenv("REDIS_DB", "3")
	t.Setenv("WEEK_MODE", "sunday")
	t.Setenv("DEFAULT_WEEK", "next")
	t.Setenv("MONTH_BUCKETS", "chunk")
	t.Setenv("RESIDENT_PIN_REQUIRED", "true")
	t.Setenv("JWT_SECRET", "a-configured-secret-value")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, BackendRedis, cfg.StoreBackend)
	assert.Equal(t, 3, cfg.Redis.DB)
	assert.Equal(t, calendar.ModeSunday, cfg.Mode())
	assert.Equal(t, DefaultWeekNext, cfg.DefaultWeek)
	assert.Equal(t, roster.ChunkBuckets, cfg.Buckets())
	assert.True(t, cfg.PINRequired)
	assert.Equal(t, "a-configured-secret-value", cfg.JWTSecret)
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"bad backend", func(c *Config) { c.StoreBackend = "mongo" }},
		{"bad week mode", func(c *Config) { c.WeekMode = "tuesday" }},
		{"bad default week", func(c *Config) { c.DefaultWeek = "last" }},
		{"bad buckets", func(c *Config) { c.MonthBuckets = "fortnight" }},
		{"bad port", func(c *Config) { c.Port = 0 }},
		{"short secret", func(c *Config) { c.JWTSecret = "short" }},
		{"bad time zone", func(c *Config) { c.Timezone = "Mars/Olympus" }},
		{"minio without endpoint", func(c *Config) { c.StoreBackend = BackendMinio }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := newTestConfig()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}

	assert.NoError(t, newTestConfig().Validate())
}

func TestGetEnvHelpers(t *testing.T) {
	t.Setenv("MR_INT", "notanumber")
	t.Setenv("MR_BOOL", "yes")
	t.Setenv("MR_DURATION", "90s")

	assert.Equal(t, 7, GetEnvInt("MR_INT", 7))
	assert.Equal(t, false, GetEnvBool("MR_BOOL", false))
	assert.Equal(t, 90*time.Second, GetEnvDuration("MR_DURATION", time.Minute))
	assert.Equal(t, "fallback", GetEnvString("MR_UNSET", "fallback"))
}

// chdirForTest mirrors testing.T.Chdir (Go 1.24+) for older toolchains.
func chdirForTest(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(prev) })
}
