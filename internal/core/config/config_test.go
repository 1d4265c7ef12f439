package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestLoad_Defaults verifies that default values are used when env vars are missing.
func TestLoad_Defaults(t *testing.T) {
	os.Unsetenv("APP_ENV")
	os.Unsetenv("LOG_LEVEL")
	os.Unsetenv("SERVER_PORT")
	os.Unsetenv("CACHE_TTL_SECONDS")
	os.Unsetenv("KAFKA_TOPIC")

	cfg, err := Load(".")
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 8080, cfg.ServerPort)
	assert.Equal(t, 2*time.Hour, cfg.CacheTTL())
	assert.Equal(t, "tracking.resolved", cfg.Messaging.KafkaTopic)
	assert.Equal(t, "*/30 * * * *", cfg.Refresh.Schedule)
	assert.True(t, cfg.Browser.Headless)
	assert.False(t, cfg.Proxy.Enabled)
	assert.Empty(t, cfg.BrokerList())
}

// TestLoad_EnvVars verifies that environment variables override defaults.
func TestLoad_EnvVars(t *testing.T) {
	os.Setenv("APP_ENV", "production")
	os.Setenv("LOG_LEVEL", "debug")
	os.Setenv("SERVER_PORT", "9090")
	os.Setenv("VENDOR_API_KEY", "vendor-key")
	os.Setenv("KAFKA_BROKERS", "kafka-1:9092, kafka-2:9092")
	os.Setenv("CACHE_TTL_SECONDS", "60")
	defer func() {
		os.Unsetenv("APP_ENV")
		os.Unsetenv("LOG_LEVEL")
		os.Unsetenv("SERVER_PORT")
		os.Unsetenv("VENDOR_API_KEY")
		os.Unsetenv("KAFKA_BROKERS")
		os.Unsetenv("CACHE_TTL_SECONDS")
	}()

	cfg, err := Load(".")
	require.NoError(t, err)

	assert.Equal(t, "production", cfg.Environment)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 9090, cfg.ServerPort)
	assert.Equal(t, "vendor-key", cfg.Layers.VendorAPIKey)
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.BrokerList())
	assert.Equal(t, time.Minute, cfg.CacheTTL())
}

// TestLoad_File verifies that values are loaded from a .env file.
func TestLoad_File(t *testing.T) {
	content := []byte(`
APP_ENV=staging
LOG_LEVEL=warn
SERVER_PORT=7070
SECONDARY_API_URL=https://aggregator.test
CARRIER_MSC_URL=https://msc.test/track
`)
	err := os.WriteFile(".env", content, 0644)
	require.NoError(t, err)
	defer os.Remove(".env")

	cfg, err := Load(".")
	require.NoError(t, err)

	assert.Equal(t, "staging", cfg.Environment)
	assert.Equal(t, "warn", cfg.LogLevel)
	assert.Equal(t, 7070, cfg.ServerPort)
	assert.Equal(t, "https://aggregator.test", cfg.Layers.SecondaryAPIURL)
	assert.Equal(t, "https://msc.test/track", cfg.Carriers.MSCURL)
}

// TestLoad_ValidationFailure verifies that zeroed required fields return an error.
func TestLoad_ValidationFailure(t *testing.T) {
	os.Setenv("CACHE_TTL_SECONDS", "0")
	defer os.Unsetenv("CACHE_TTL_SECONDS")

	cfg, err := Load(".")
	require.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "missing required configuration: CACHE_TTL_SECONDS")
}
