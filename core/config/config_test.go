package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeDefaultsToLongpoll(t *testing.T) {
	cfg := &Config{Telegram: TelegramConfig{Token: "t", RunMode: "Polling"}}
	require.NoError(t, Normalize(cfg))
	assert.Equal(t, RunModeLongpoll, cfg.Telegram.RunMode)
	assert.True(t, cfg.Telegram.DropPending())
}

func TestNormalizeRejects(t *testing.T) {
	cases := map[string]Config{
		"missing token":   {},
		"unknown mode":    {Telegram: TelegramConfig{Token: "t", RunMode: "push"}},
		"webhook no url":  {Telegram: TelegramConfig{Token: "t", RunMode: "webhook"}},
		"negative poll":   {Telegram: TelegramConfig{Token: "t", LongPollTimeoutSeconds: -1}},
		"bad update kind": {Telegram: TelegramConfig{Token: "t"}, RateLimit: RateLimitConfig{ExcludeUpdates: []string{"inline"}}},
	}
	for name, cfg := range cases {
		cfg := cfg
		t.Run(name, func(t *testing.T) {
			assert.Error(t, Normalize(&cfg))
		})
	}
}

func TestNormalizeExcludeUpdates(t *testing.T) {
	cfg := &Config{
		Telegram:  TelegramConfig{Token: "t"},
		RateLimit: RateLimitConfig{ExcludeUpdates: []string{" Message ", "", "callback"}},
	}
	require.NoError(t, Normalize(cfg))
	assert.Equal(t, []string{"message", "callback"}, cfg.RateLimit.ExcludeUpdates)
}

func TestLoadOverlaysEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yml := "telegram:\n  token: from-file\n  drop_pending_updates: false\nlogging:\n  level: debug\n"
	require.NoError(t, os.WriteFile(path, []byte(yml), 0o600))

	t.Setenv("BOT_TOKEN", "from-env")
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.Telegram.Token)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.False(t, cfg.Telegram.DropPending())
}

func TestLoadWithoutFile(t *testing.T) {
	t.Setenv("BOT_TOKEN", "env-only")
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "env-only", cfg.Telegram.Token)
}
