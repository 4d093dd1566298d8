package config

import (
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_Defaults(t *testing.T) {
	for _, k := range []string{"PORT", "DB_URL", "OPENAI_MODEL", "BOT_REPLY_DELAY", "BOT_MAX_TOKENS", "HISTORY_LIMIT", "LOG_LEVEL"} {
		// Setenv restores the original value after the test.
		t.Setenv(k, "")
		require.NoError(t, os.Unsetenv(k))
	}

	cfg, err := Parse()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "0.0.0.0:8080", cfg.Addr())
	assert.Empty(t, cfg.DBURL)
	assert.Equal(t, "gpt-4o", cfg.OpenAIModel)
	assert.Equal(t, time.Second, cfg.BotReplyDelay)
	assert.Equal(t, int64(200), cfg.BotMaxTokens)
	assert.Equal(t, 50, cfg.HistoryLimit)
	assert.Equal(t, 30, cfg.WSMessageLimit)
	assert.Equal(t, time.Minute, cfg.WSRateWindow)
	assert.Equal(t, slog.LevelInfo, cfg.SlogLevel())
}

func TestParse_Overrides(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("BOT_REPLY_DELAY", "250ms")
	t.Setenv("HISTORY_LIMIT", "10")
	t.Setenv("LOG_LEVEL", "DEBUG")

	cfg, err := Parse()
	require.NoError(t, err)

	assert.Equal(t, "9000", cfg.Port)
	assert.Equal(t, 250*time.Millisecond, cfg.BotReplyDelay)
	assert.Equal(t, 10, cfg.HistoryLimit)
	assert.Equal(t, slog.LevelDebug, cfg.SlogLevel())
}

func TestParse_Invalid(t *testing.T) {
	t.Setenv("BOT_REPLY_DELAY", "soon")
	_, err := Parse()
	assert.Error(t, err)

	t.Setenv("BOT_REPLY_DELAY", "1s")
	t.Setenv("HISTORY_LIMIT", "0")
	_, err = Parse()
	assert.Error(t, err)
}
