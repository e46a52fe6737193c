package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadFrom_Defaults(t *testing.T) {
	cfg, err := LoadFrom(t.TempDir())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.DataDir != "./data" || cfg.HTTPPort != "8080" {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.RetryMaxAttempts != 3 || cfg.RetryBaseDelay != 2*time.Second {
		t.Fatalf("unexpected retry defaults: %d %s", cfg.RetryMaxAttempts, cfg.RetryBaseDelay)
	}
	if cfg.CreateBaseDelay != 3*time.Second || cfg.PauseAfterFailure != 5*time.Second {
		t.Fatalf("unexpected pacing defaults: %+v", cfg)
	}
	if cfg.AppEnv != AppEnvProduction {
		t.Fatalf("app env = %s", cfg.AppEnv)
	}
	if cfg.SettingsPath() != filepath.Join("data", "bot_config.json") {
		t.Fatalf("settings path = %s", cfg.SettingsPath())
	}
}

func TestLoadFrom_FileAndEnv(t *testing.T) {
	dir := t.TempDir()
	yml := "data_dir: /var/lib/topics\nhttp_port: \"9090\"\npause_between_topics: 10s\nallowed_users: [1, 2]\napp_env: Development\n"
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yml), 0644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("HTTP_PORT", "7070")
	t.Setenv("TELEGRAM_BOT_TOKEN", "123:abc")

	cfg, err := LoadFrom(dir)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.DataDir != "/var/lib/topics" {
		t.Fatalf("data dir = %s", cfg.DataDir)
	}
	if cfg.HTTPPort != "7070" {
		t.Fatalf("env must override file, got %s", cfg.HTTPPort)
	}
	if cfg.TelegramBotToken != "123:abc" {
		t.Fatalf("token = %q", cfg.TelegramBotToken)
	}
	if cfg.PauseBetweenTopics != 10*time.Second {
		t.Fatalf("pause = %s", cfg.PauseBetweenTopics)
	}
	if len(cfg.AllowedUsers) != 2 || !cfg.IsAllowed(2) || cfg.IsAllowed(3) {
		t.Fatalf("allowed users = %v", cfg.AllowedUsers)
	}
	if cfg.AppEnv != AppEnvDevelopment {
		t.Fatalf("app env = %s", cfg.AppEnv)
	}
}

func TestParseAllowedUsers(t *testing.T) {
	got := ParseAllowedUsers(" 10, x, 20 ,")
	if len(got) != 2 || got[0] != 10 || got[1] != 20 {
		t.Fatalf("got %v", got)
	}
	if len(ParseAllowedUsers("")) != 0 {
		t.Fatalf("empty input must give empty list")
	}
}

func TestIsAllowed_EmptyListAllowsEveryone(t *testing.T) {
	cfg := &Config{}
	if !cfg.IsAllowed(42) {
		t.Fatalf("empty allow list must allow everyone")
	}
}
