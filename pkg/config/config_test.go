package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 10, cfg.Storage.TimeoutSec)
	assert.Equal(t, "Sorry, I encountered an error", cfg.Webhook.ErrorSignature)
	assert.Equal(t, 0, cfg.Webhook.TimeoutSec)
	assert.False(t, cfg.Vector.Enabled)
	assert.False(t, cfg.Redis.Enabled)
	assert.Equal(t, 120, cfg.RateLimit.MaxRequestsPerMinute)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("INSIGHTLM_WEBHOOK_URL", "https://flows.example.com/webhook/chat")
	t.Setenv("INSIGHTLM_SERVER_PORT", "9090")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "https://flows.example.com/webhook/chat", cfg.Webhook.URL)
	assert.Equal(t, 9090, cfg.Server.Port)
}
