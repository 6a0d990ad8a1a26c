package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, StorageFile, cfg.Storage.Driver)
	assert.Equal(t, "scores.json", cfg.Storage.File)
	assert.Equal(t, 60*time.Second, cfg.Trivia.GraceDelay)
	assert.Equal(t, 15*time.Second, cfg.Trivia.HintInterval)
	assert.Equal(t, int64(5), cfg.Trivia.Reward)
	assert.Equal(t, 120*time.Second, cfg.Roll.Duration)
	assert.Equal(t, 0, cfg.Roll.Min)
	assert.Equal(t, 100, cfg.Roll.Max)
	assert.Equal(t, "rematch", cfg.Duel.DrawPolicy)
	assert.Equal(t, 5*time.Second, cfg.Cleanup.CommandDelay)
	assert.Equal(t, 300*time.Second, cfg.Cleanup.Leaderboard)
	assert.Equal(t, 4*time.Hour, cfg.Price.Interval)
	assert.Equal(t, 30*time.Second, cfg.Relay.RecentWindow)
}

func TestLoad_FileAndEnvOverride(t *testing.T) {
	t.Chdir(t.TempDir())
	dir := t.TempDir()
	yaml := `
bot:
  token: "from-file"
  chat_id: -100123
roll:
  max: 6
duel:
  draw_policy: requeue
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o644))
	t.Setenv("BOT_TOKEN", "from-env")

	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, "from-env", cfg.Bot.Token)
	assert.Equal(t, int64(-100123), cfg.Bot.ChatID)
	assert.Equal(t, 6, cfg.Roll.Max)
	assert.Equal(t, "requeue", cfg.Duel.DrawPolicy)
	assert.NoError(t, cfg.Validate())
	assert.True(t, cfg.IsTargetChat(-100123))
	assert.False(t, cfg.IsTargetChat(42))
}

func TestLoad_DotEnv(t *testing.T) {
	t.Chdir(t.TempDir())
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("STORAGE_DRIVER=redis\nSTORAGE_REDIS_ADDR=cache:6379\n"), 0o644))
	t.Cleanup(func() {
		os.Unsetenv("STORAGE_DRIVER")
		os.Unsetenv("STORAGE_REDIS_ADDR")
	})

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, StorageRedis, cfg.Storage.Driver)
	assert.Equal(t, "cache:6379", cfg.Storage.Redis.Addr)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Bot:     BotConfig{Token: "t", ChatID: -1},
			Storage: StorageConfig{Driver: StorageFile, File: "scores.json"},
			Roll:    RollConfig{Duration: time.Minute, Min: 0, Max: 100},
			Duel:    DuelConfig{DrawPolicy: "rematch"},
		}
	}

	tests := []struct {
		name   string
		mutate func(*Config)
		ok     bool
	}{
		{"valid", func(*Config) {}, true},
		{"missing token", func(c *Config) { c.Bot.Token = "" }, false},
		{"missing chat", func(c *Config) { c.Bot.ChatID = 0 }, false},
		{"unknown driver", func(c *Config) { c.Storage.Driver = "sqlite" }, false},
		{"postgres driver", func(c *Config) { c.Storage.Driver = StoragePostgres }, true},
		{"redis without addr", func(c *Config) { c.Storage.Driver = StorageRedis }, false},
		{"unknown draw policy", func(c *Config) { c.Duel.DrawPolicy = "coin" }, false},
		{"empty roll range", func(c *Config) { c.Roll.Min, c.Roll.Max = 10, 5 }, false},
		{"single value range", func(c *Config) { c.Roll.Min, c.Roll.Max = 7, 7 }, true},
		{"zero duration", func(c *Config) { c.Roll.Duration = 0 }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}
