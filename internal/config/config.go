// Package config loads server settings from the environment.
package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	Port  string `env:"PORT" envDefault:"8080"`
	DBURL string `env:"DB_URL"`

	NATSURL      string `env:"NATS_URL"`
	NATSCred     string `env:"NATS_CRED"`
	NATSUser     string `env:"NATS_USER"`
	NATSPassword string `env:"NATS_PASSWORD"`

	OpenAIKey     string        `env:"OPENAI_API_KEY"`
	OpenAIBaseURL string        `env:"OPENAI_BASE_URL"`
	OpenAIModel   string        `env:"OPENAI_MODEL" envDefault:"gpt-4o"`
	BotReplyDelay time.Duration `env:"BOT_REPLY_DELAY" envDefault:"1s"`
	BotMaxTokens  int64         `env:"BOT_MAX_TOKENS" envDefault:"200"`

	HistoryLimit int `env:"HISTORY_LIMIT" envDefault:"50"`

	WSReadLimit    int64         `env:"WS_READ_LIMIT" envDefault:"32768"`
	WSMessageLimit int           `env:"WS_MESSAGE_LIMIT" envDefault:"30"`
	WSTypingLimit  int           `env:"WS_TYPING_LIMIT" envDefault:"60"`
	WSRateWindow   time.Duration `env:"WS_RATE_WINDOW" envDefault:"1m"`
	WSPingInterval time.Duration `env:"WS_PING_INTERVAL" envDefault:"30s"`

	HTTPRateLimit int `env:"HTTP_RATE_LIMIT" envDefault:"100"`

	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
}

// Load reads an optional .env file and parses the environment.
func Load() (Config, error) {
	// A missing .env file is normal outside development.
	_ = godotenv.Load()
	return Parse()
}

// Parse reads Config from the process environment.
func Parse() (Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return Config{}, fmt.Errorf("config: parse env: %w", err)
	}
	if cfg.BotMaxTokens <= 0 || cfg.HistoryLimit <= 0 {
		return Config{}, fmt.Errorf("config: BOT_MAX_TOKENS and HISTORY_LIMIT must be positive")
	}
	return cfg, nil
}

// Addr is the listen address.
func (c Config) Addr() string {
	return "0.0.0.0:" + c.Port
}

// SlogLevel maps LOG_LEVEL to a slog level. Unknown values mean info.
func (c Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}
