// Package config provides configuration management using viper.
// It supports loading from YAML files, an optional .env file and environment variable overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Storage drivers accepted by storage.driver.
const (
	StorageFile     = "file"
	StorageRedis    = "redis"
	StoragePostgres = "postgres"
)

// Config holds all application configuration.
type Config struct {
	Bot      BotConfig      `mapstructure:"bot"`
	Log      LogConfig      `mapstructure:"log"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Database DatabaseConfig `mapstructure:"database"`
	Trivia   TriviaConfig   `mapstructure:"trivia"`
	Roll     RollConfig     `mapstructure:"roll"`
	Duel     DuelConfig     `mapstructure:"duel"`
	Cleanup  CleanupConfig  `mapstructure:"cleanup"`
	Relay    RelayConfig    `mapstructure:"relay"`
	Price    PriceConfig    `mapstructure:"price"`
	Greeting GreetingConfig `mapstructure:"greeting"`
	Lock     LockConfig     `mapstructure:"lock"`
}

// BotConfig holds Telegram bot configuration.
type BotConfig struct {
	Token          string        `mapstructure:"token"`
	ChatID         int64         `mapstructure:"chat_id"`
	PollTimeout    time.Duration `mapstructure:"poll_timeout"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
}

// LogConfig holds logger configuration.
type LogConfig struct {
	Level string `mapstructure:"level"`
}

// StorageConfig selects and configures the score store.
type StorageConfig struct {
	Driver string      `mapstructure:"driver"`
	File   string      `mapstructure:"file"`
	Redis  RedisConfig `mapstructure:"redis"`
}

// RedisConfig holds Redis connection configuration.
type RedisConfig struct {
	Addr      string `mapstructure:"addr"`
	Password  string `mapstructure:"password"`
	DB        int    `mapstructure:"db"`
	KeyPrefix string `mapstructure:"key_prefix"`
}

// DatabaseConfig holds PostgreSQL connection configuration.
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Name            string        `mapstructure:"name"`
	PoolSize        int           `mapstructure:"pool_size"`
	ConnectTimeout  time.Duration `mapstructure:"connect_timeout"`
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"`
	MaxConnIdleTime time.Duration `mapstructure:"max_conn_idle_time"`
}

// TriviaConfig holds trivia timing and the question pool location.
type TriviaConfig struct {
	Questions    string        `mapstructure:"questions"`
	GraceDelay   time.Duration `mapstructure:"grace_delay"`
	HintInterval time.Duration `mapstructure:"hint_interval"`
	WinDelay     time.Duration `mapstructure:"win_delay"`
	TimeoutDelay time.Duration `mapstructure:"timeout_delay"`
	Reward       int64         `mapstructure:"reward"`
}

// RollConfig holds roll contest configuration.
type RollConfig struct {
	Duration time.Duration `mapstructure:"duration"`
	Min      int           `mapstructure:"min"`
	Max      int           `mapstructure:"max"`
	Reward   int64         `mapstructure:"reward"`
}

// DuelConfig holds duel bracket configuration.
type DuelConfig struct {
	Reward     int64  `mapstructure:"reward"`
	DrawPolicy string `mapstructure:"draw_policy"`
}

// CleanupConfig holds lifetimes of ephemeral messages.
type CleanupConfig struct {
	CommandDelay  time.Duration `mapstructure:"command_delay"`
	Warning       time.Duration `mapstructure:"warning"`
	TriviaWarning time.Duration `mapstructure:"trivia_warning"`
	Waiting       time.Duration `mapstructure:"waiting"`
	RollResult    time.Duration `mapstructure:"roll_result"`
	Question      time.Duration `mapstructure:"question"`
	Hint          time.Duration `mapstructure:"hint"`
	Leaderboard   time.Duration `mapstructure:"leaderboard"`
}

// RelayConfig holds Discord relay configuration. An empty webhook disables the relay.
type RelayConfig struct {
	Webhook      string        `mapstructure:"webhook"`
	Username     string        `mapstructure:"username"`
	AvatarURL    string        `mapstructure:"avatar_url"`
	RecentWindow time.Duration `mapstructure:"recent_window"`
	Timeout      time.Duration `mapstructure:"timeout"`
}

// PriceConfig holds price feed and card rendering configuration.
type PriceConfig struct {
	APIURL     string        `mapstructure:"api_url"`
	Coin       string        `mapstructure:"coin"`
	Currency   string        `mapstructure:"currency"`
	Interval   time.Duration `mapstructure:"interval"`
	Timeout    time.Duration `mapstructure:"timeout"`
	Background string        `mapstructure:"background"`
	Font       string        `mapstructure:"font"`
}

// GreetingConfig holds the background images of the gm and gn cards.
type GreetingConfig struct {
	Morning string `mapstructure:"morning"`
	Night   string `mapstructure:"night"`
}

// LockConfig holds the singleton lock file location.
type LockConfig struct {
	File string `mapstructure:"file"`
}

// DSN returns the PostgreSQL connection string.
func (d *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=disable",
		d.User, d.Password, d.Host, d.Port, d.Name,
	)
}

// Load reads configuration from file and environment variables.
// It looks for config.yaml in the config directory and for a .env file next to it.
func Load(configPath string) (*Config, error) {
	if err := loadDotEnv(configPath); err != nil {
		return nil, err
	}

	v := viper.New()

	// Set defaults
	setDefaults(v)

	// Configure viper
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configPath)
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	// Environment variables use underscore separator and uppercase
	// e.g., BOT_TOKEN, BOT_CHAT_ID, STORAGE_DRIVER
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file (optional - env vars can provide all config)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// loadDotEnv loads .env from configPath or the working directory. Variables
// already present in the environment win.
func loadDotEnv(configPath string) error {
	for _, p := range []string{filepath.Join(configPath, ".env"), ".env"} {
		if _, err := os.Stat(p); err != nil {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return fmt.Errorf("failed to load %s: %w", p, err)
		}
		return nil
	}
	return nil
}

// setDefaults sets default configuration values.
func setDefaults(v *viper.Viper) {
	v.SetDefault("bot.token", "")
	v.SetDefault("bot.chat_id", 0)
	v.SetDefault("bot.poll_timeout", "10s")
	v.SetDefault("bot.request_timeout", "30s")

	v.SetDefault("log.level", "info")

	v.SetDefault("storage.driver", StorageFile)
	v.SetDefault("storage.file", "scores.json")
	v.SetDefault("storage.redis.addr", "localhost:6379")
	v.SetDefault("storage.redis.password", "")
	v.SetDefault("storage.redis.db", 0)
	v.SetDefault("storage.redis.key_prefix", "harvester:")

	// Database defaults
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "harvester")
	v.SetDefault("database.password", "")
	v.SetDefault("database.name", "harvester")
	v.SetDefault("database.pool_size", 4)
	v.SetDefault("database.connect_timeout", "10s")
	v.SetDefault("database.max_conn_lifetime", "1h")
	v.SetDefault("database.max_conn_idle_time", "30m")

	// Game defaults
	v.SetDefault("trivia.questions", "questions.txt")
	v.SetDefault("trivia.grace_delay", "60s")
	v.SetDefault("trivia.hint_interval", "15s")
	v.SetDefault("trivia.win_delay", "15s")
	v.SetDefault("trivia.timeout_delay", "30s")
	v.SetDefault("trivia.reward", 5)

	v.SetDefault("roll.duration", "120s")
	v.SetDefault("roll.min", 0)
	v.SetDefault("roll.max", 100)
	v.SetDefault("roll.reward", 1)

	v.SetDefault("duel.reward", 1)
	v.SetDefault("duel.draw_policy", "rematch")

	v.SetDefault("cleanup.command_delay", "5s")
	v.SetDefault("cleanup.warning", "30s")
	v.SetDefault("cleanup.trivia_warning", "10s")
	v.SetDefault("cleanup.waiting", "60s")
	v.SetDefault("cleanup.roll_result", "150s")
	v.SetDefault("cleanup.question", "180s")
	v.SetDefault("cleanup.hint", "20s")
	v.SetDefault("cleanup.leaderboard", "300s")

	v.SetDefault("relay.webhook", "")
	v.SetDefault("relay.username", "")
	v.SetDefault("relay.avatar_url", "")
	v.SetDefault("relay.recent_window", "30s")
	v.SetDefault("relay.timeout", "10s")

	v.SetDefault("price.api_url", "https://api.coingecko.com/api/v3/simple/price")
	v.SetDefault("price.coin", "bitcoin")
	v.SetDefault("price.currency", "usd")
	v.SetDefault("price.interval", "4h")
	v.SetDefault("price.timeout", "10s")
	v.SetDefault("price.background", "")
	v.SetDefault("price.font", "")

	v.SetDefault("greeting.morning", "")
	v.SetDefault("greeting.night", "")

	v.SetDefault("lock.file", "bot.lock")
}

// Validate reports configuration the bot cannot start with.
func (c *Config) Validate() error {
	var errs []error
	if c.Bot.Token == "" {
		errs = append(errs, errors.New("bot.token is required"))
	}
	if c.Bot.ChatID == 0 {
		errs = append(errs, errors.New("bot.chat_id is required"))
	}
	switch c.Storage.Driver {
	case StorageFile:
		if c.Storage.File == "" {
			errs = append(errs, errors.New("storage.file is required for the file driver"))
		}
	case StorageRedis:
		if c.Storage.Redis.Addr == "" {
			errs = append(errs, errors.New("storage.redis.addr is required for the redis driver"))
		}
	case StoragePostgres:
	default:
		errs = append(errs, fmt.Errorf("unknown storage.driver %q", c.Storage.Driver))
	}
	switch c.Duel.DrawPolicy {
	case "rematch", "requeue":
	default:
		errs = append(errs, fmt.Errorf("unknown duel.draw_policy %q", c.Duel.DrawPolicy))
	}
	if c.Roll.Max < c.Roll.Min {
		errs = append(errs, fmt.Errorf("roll range [%d,%d] is empty", c.Roll.Min, c.Roll.Max))
	}
	if c.Roll.Duration <= 0 {
		errs = append(errs, errors.New("roll.duration must be positive"))
	}
	return errors.Join(errs...)
}

// IsTargetChat reports whether chatID is the configured community chat.
func (c *Config) IsTargetChat(chatID int64) bool {
	return c.Bot.ChatID != 0 && c.Bot.ChatID == chatID
}
