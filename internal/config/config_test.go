package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func envMap(m map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		v, ok := m[key]
		return v, ok
	}
}

func TestFromEnv_Defaults(t *testing.T) {
	cfg, err := FromEnv(envMap(nil))
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, DefaultAPIBaseURL, cfg.APIBaseURL)
	assert.Equal(t, 5*time.Second, cfg.APITimeout)
	assert.Equal(t, 5.0, cfg.APIRateLimit)
	assert.Equal(t, 15*time.Second, cfg.ConnectivityProbeInterval)
	assert.Equal(t, []int{0, 1}, cfg.VolatileWeekOffsets)
	assert.Equal(t, time.Minute, cfg.SchedulerTick)
	assert.Equal(t, 3, cfg.RefreshRetryAttempts)
	assert.Equal(t, 10*time.Second, cfg.RefreshRetryBackoff)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, DefaultMigrationsPath, cfg.MigrationsPath)
	assert.False(t, cfg.IsProduction())
}

func TestFromEnv_Overrides(t *testing.T) {
	cfg, err := FromEnv(envMap(map[string]string{
		"ENV":                    "production",
		"API_TIMEOUT":            "1s",
		"VOLATILE_WEEK_OFFSETS":  "0, 1, 2",
		"REFRESH_RETRY_ATTEMPTS": "0",
		"HTTP_ADDR":              "",
	}))
	require.NoError(t, err)

	assert.True(t, cfg.IsProduction())
	assert.Equal(t, time.Second, cfg.APITimeout)
	assert.Equal(t, []int{0, 1, 2}, cfg.VolatileWeekOffsets)
	assert.Equal(t, 1, cfg.RefreshRetryAttempts)
	assert.Empty(t, cfg.HTTPAddr, "явно пустой адрес отключает HTTP")
}

func TestFromEnv_InvalidValues(t *testing.T) {
	_, err := FromEnv(envMap(map[string]string{"API_TIMEOUT": "soon"}))
	assert.ErrorContains(t, err, "API_TIMEOUT")

	_, err = FromEnv(envMap(map[string]string{"VOLATILE_WEEK_OFFSETS": "0,x"}))
	assert.ErrorContains(t, err, "VOLATILE_WEEK_OFFSETS")
}

func TestFromEnv_NoVolatileWeeks(t *testing.T) {
	cfg, err := FromEnv(envMap(map[string]string{"VOLATILE_WEEK_OFFSETS": ","}))
	require.NoError(t, err)
	assert.NotNil(t, cfg.VolatileWeekOffsets)
	assert.Empty(t, cfg.VolatileWeekOffsets)
}

func TestLocation(t *testing.T) {
	cfg := &Config{Timezone: "UTC"}
	loc, err := cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, time.UTC, loc)

	cfg.Timezone = "Nowhere/Land"
	_, err = cfg.Location()
	assert.Error(t, err)
}
