package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/samber/lo"
	"github.com/samber/oops"
)

// Config is the process configuration. Bot behaviour settings (topics, messages)
// live in the settings module, not here.
type Config struct {
	TelegramBotToken string  `koanf:"telegram_bot_token"`
	TelegramAPIURL   string  `koanf:"telegram_api_url"`
	DataDir          string  `koanf:"data_dir"`
	HTTPPort         string  `koanf:"http_port"`
	LogLevel         string  `koanf:"log_level"`
	AllowedUsers     []int64 `koanf:"allowed_users"`
	AppEnv           AppEnv  `koanf:"app_env"`

	TelegramRatePerSec int `koanf:"telegram_rate_per_sec"`

	RetryMaxAttempts  int           `koanf:"retry_max_attempts"`
	RetryBaseDelay    time.Duration `koanf:"retry_base_delay"`
	CreateMaxAttempts int           `koanf:"create_max_attempts"`
	CreateBaseDelay   time.Duration `koanf:"create_base_delay"`

	PauseBeforePost       time.Duration `koanf:"pause_before_post"`
	PauseBeforePin        time.Duration `koanf:"pause_before_pin"`
	PauseBetweenTopics    time.Duration `koanf:"pause_between_topics"`
	PauseAfterFailure     time.Duration `koanf:"pause_after_failure"`
	PauseBetweenTemplates time.Duration `koanf:"pause_between_templates"`
	PauseBetweenGreetings time.Duration `koanf:"pause_between_greetings"`
}

var defaults = map[string]any{
	"telegram_api_url":        "https://api.telegram.org",
	"data_dir":                "./data",
	"http_port":               "8080",
	"log_level":               "info",
	"app_env":                 "production",
	"telegram_rate_per_sec":   25,
	"retry_max_attempts":      3,
	"retry_base_delay":        "2s",
	"create_max_attempts":     3,
	"create_base_delay":       "3s",
	"pause_before_post":       "1s",
	"pause_before_pin":        "1s",
	"pause_between_topics":    "3s",
	"pause_after_failure":     "5s",
	"pause_between_templates": "1s",
	"pause_between_greetings": "500ms",
}

// Load reads configuration from the working directory and the environment.
func Load() (*Config, error) {
	return LoadFrom(".")
}

// LoadFrom reads the first config.{yaml,yml,json,toml} found in dir, then lets
// environment variables override it.
func LoadFrom(dir string) (*Config, error) {
	k := koanf.New(".")

	configFiles := []string{
		"config.yaml",
		"config.yml",
		"config.json",
		"config.toml",
	}

	configFile, found := lo.Find(configFiles, func(name string) bool {
		_, err := os.Stat(filepath.Join(dir, name))
		return err == nil
	})

	if found {
		var parser koanf.Parser
		ext := filepath.Ext(configFile)

		switch ext {
		case ".yaml", ".yml":
			parser = yaml.Parser()
		case ".json":
			parser = json.Parser()
		case ".toml":
			parser = toml.Parser()
		default:
			return nil, oops.Errorf("unsupported config file extension: %s", ext)
		}

		if err := k.Load(file.Provider(filepath.Join(dir, configFile)), parser); err != nil {
			return nil, oops.With("config_file", configFile).Wrap(err)
		}
	}

	// Environment variables override config file values
	if err := k.Load(env.Provider("", ".", func(s string) string {
		return strings.ToLower(s)
	}), nil); err != nil {
		return nil, oops.With("context", "loading environment variables").Wrap(err)
	}

	for key, value := range defaults {
		if !k.Exists(key) {
			if err := k.Set(key, value); err != nil {
				return nil, oops.With("key", key).Wrap(err)
			}
		}
	}

	// allowed_users is handled below: env gives a comma-separated string.
	allowedUsers := k.Get("allowed_users")
	k.Delete("allowed_users")

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, oops.With("context", "unmarshaling config").Wrap(err)
	}

	switch v := allowedUsers.(type) {
	case string:
		cfg.AllowedUsers = ParseAllowedUsers(v)
	case []interface{}:
		cfg.AllowedUsers = lo.FilterMap(v, func(item interface{}, _ int) (int64, bool) {
			switch val := item.(type) {
			case int64:
				return val, true
			case int:
				return int64(val), true
			case float64:
				return int64(val), true
			default:
				return 0, false
			}
		})
	}

	if appEnv, err := ParseAppEnv(k.String("app_env")); err == nil {
		cfg.AppEnv = appEnv
	} else {
		cfg.AppEnv = AppEnvProduction
	}

	if cfg.RetryMaxAttempts < 1 {
		return nil, oops.With("retry_max_attempts", cfg.RetryMaxAttempts).Errorf("retry_max_attempts must be >= 1")
	}
	if cfg.CreateMaxAttempts < 1 {
		return nil, oops.With("create_max_attempts", cfg.CreateMaxAttempts).Errorf("create_max_attempts must be >= 1")
	}

	return &cfg, nil
}

// ParseAllowedUsers parses comma-separated user IDs string into []int64
func ParseAllowedUsers(s string) []int64 {
	if s == "" {
		return []int64{}
	}
	parts := strings.Split(s, ",")
	return lo.FilterMap(parts, func(part string, _ int) (int64, bool) {
		part = strings.TrimSpace(part)
		if part == "" {
			return 0, false
		}
		var id int64
		if _, err := fmt.Sscanf(part, "%d", &id); err == nil {
			return id, true
		}
		return 0, false
	})
}

// SlogLevel maps log_level to a slog level; unknown values mean info.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// SettingsPath is where the bot settings document lives.
func (c *Config) SettingsPath() string {
	return filepath.Join(c.DataDir, "bot_config.json")
}

// StatsPath is where activity statistics live.
func (c *Config) StatsPath() string {
	return filepath.Join(c.DataDir, "user_stats.json")
}

// JournalPath is where provisioning run outcomes are kept.
func (c *Config) JournalPath() string {
	return filepath.Join(c.DataDir, "runs.json")
}

// IsAllowed reports whether userID may run operator commands.
// An empty allow list means everyone may.
func (c *Config) IsAllowed(userID int64) bool {
	return len(c.AllowedUsers) == 0 || lo.Contains(c.AllowedUsers, userID)
}
