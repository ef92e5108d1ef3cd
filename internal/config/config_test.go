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

	assert.Equal(t, "development", cfg.AppEnv)
	assert.Equal(t, "localhost", cfg.Host)
	assert.Equal(t, "3001", cfg.Port)
	assert.Equal(t, 256, cfg.QueueCapacity)
	assert.Equal(t, 50, cfg.MaxClients)
	assert.Equal(t, 10, cfg.MaxConnectionsPerIP)
	assert.Equal(t, 5*time.Second, cfg.ShutdownGrace)
	assert.Equal(t, 10*time.Minute, cfg.TimelineWindow)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("PORT", "9999")
	t.Setenv("QUEUE_CAPACITY", "32")
	t.Setenv("MAX_CLIENTS", "5")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9999", cfg.Port)
	assert.Equal(t, 32, cfg.QueueCapacity)
	assert.Equal(t, 5, cfg.MaxClients)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	cases := map[string]struct {
		key   string
		value string
	}{
		"zero queue capacity":  {"QUEUE_CAPACITY", "0"},
		"zero max clients":     {"MAX_CLIENTS", "0"},
		"zero per-ip limit":    {"MAX_CONNECTIONS_PER_IP", "0"},
		"zero connection rate": {"CONNECTION_RATE_PER_SECOND", "0"},
		"zero burst":           {"CONNECTION_BURST", "0"},
		"zero shutdown grace":  {"SHUTDOWN_GRACE", "0s"},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			t.Setenv(tc.key, tc.value)
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestAddr(t *testing.T) {
	cfg := &Config{Host: "0.0.0.0", Port: "3001"}
	assert.Equal(t, "0.0.0.0:3001", cfg.Addr())
}
