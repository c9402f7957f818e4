package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Only the two secrets have no default; everything else must come back
// populated from Load alone.
func TestLoadDefaults(t *testing.T) {
	t.Setenv("BOT_TOKEN", "123456:test-bot-token")
	t.Setenv("OPENROUTER_API_KEY", "sk-or-test")
	t.Setenv("VALID_AUTH_DATE_WINDOW_SECONDS", "")
	t.Setenv("VULVAL_PORT", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "https://web.telegram.org", cfg.Server.CORSOrigins)

	assert.Equal(t, 3600, cfg.Telegram.AuthWindowSecs)
	assert.Equal(t, time.Hour, cfg.Telegram.AuthWindow())

	assert.Equal(t, "https://openrouter.ai/api/v1", cfg.LLM.BaseURL)
	assert.Equal(t, "openai/gpt-4o-mini", cfg.LLM.Model)
	assert.Equal(t, 1000, cfg.LLM.MaxTokens)
	assert.Equal(t, 60, cfg.LLM.TimeoutSecs)
	assert.Equal(t, 60*time.Second, cfg.LLM.Timeout())
	assert.True(t, cfg.LLM.WeatherTool)

	assert.Equal(t, "http://api.weatherapi.com/v1", cfg.Weather.BaseURL)
	assert.Equal(t, 30, cfg.Weather.RatePerMinute)

	assert.Equal(t, "disable", cfg.Database.SSLMode)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("BOT_TOKEN", "123456:test-bot-token")
	t.Setenv("OPENROUTER_API_KEY", "sk-or-test")
	t.Setenv("VALID_AUTH_DATE_WINDOW_SECONDS", "120")
	t.Setenv("VULVAL_PORT", "9000")
	t.Setenv("POSTGRES_HOST", "db.internal")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 120, cfg.Telegram.AuthWindowSecs)
	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, "db.internal", cfg.Database.Host)
}

func TestLoadRequiresSecrets(t *testing.T) {
	tests := []struct {
		name     string
		botToken string
		llmKey   string
	}{
		{"missing bot token", "", "sk-or-test"},
		{"missing llm key", "123456:test-bot-token", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("BOT_TOKEN", tt.botToken)
			t.Setenv("OPENROUTER_API_KEY", tt.llmKey)

			_, err := Load()
			assert.Error(t, err)
		})
	}
}
