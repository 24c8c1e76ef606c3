package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func baseConfig() Config {
	return Config{Telegram: TelegramConfig{Token: "123:abc", AdminID: 42}}
}

func TestNormalizeDefaultsToLongpoll(t *testing.T) {
	cfg := baseConfig()
	if err := Normalize(&cfg); err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if cfg.Telegram.RunMode != RunModeLongpoll {
		t.Fatalf("run mode = %q, want %q", cfg.Telegram.RunMode, RunModeLongpoll)
	}

	cfg = baseConfig()
	cfg.Telegram.RunMode = "Polling"
	if err := Normalize(&cfg); err != nil {
		t.Fatalf("normalize alias: %v", err)
	}
	if cfg.Telegram.RunMode != RunModeLongpoll {
		t.Fatalf("alias run mode = %q", cfg.Telegram.RunMode)
	}
}

func TestNormalizeProductionImpliesWebhook(t *testing.T) {
	cfg := baseConfig()
	cfg.Telegram.Env = "production"
	cfg.Webhook.URL = "https://bot.example.com"
	if err := Normalize(&cfg); err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if cfg.Telegram.RunMode != RunModeWebhook {
		t.Fatalf("run mode = %q, want webhook", cfg.Telegram.RunMode)
	}
	if cfg.Webhook.Port != DefaultWebhookPort {
		t.Fatalf("port = %d, want %d", cfg.Webhook.Port, DefaultWebhookPort)
	}

	cfg = baseConfig()
	cfg.Telegram.Env = "production"
	cfg.Telegram.RunMode = "longpoll"
	if err := Normalize(&cfg); err != nil {
		t.Fatalf("normalize explicit mode: %v", err)
	}
	if cfg.Telegram.RunMode != RunModeLongpoll {
		t.Fatalf("explicit run mode must win, got %q", cfg.Telegram.RunMode)
	}
}

func TestNormalizeRejectsInvalid(t *testing.T) {
	cases := map[string]func(*Config){
		"missing token":   func(c *Config) { c.Telegram.Token = " " },
		"missing admin":   func(c *Config) { c.Telegram.AdminID = 0 },
		"unknown mode":    func(c *Config) { c.Telegram.RunMode = "carrier-pigeon" },
		"webhook no url":  func(c *Config) { c.Telegram.RunMode = RunModeWebhook },
		"negative poll":   func(c *Config) { c.Telegram.LongPollTimeoutSeconds = -1 },
		"bad rate filter": func(c *Config) { c.RateLimit.ExcludeUpdates = []string{"inline_query"} },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := baseConfig()
			mutate(&cfg)
			if err := Normalize(&cfg); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestLoadFileWithEnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yaml := strings.Join([]string{
		"telegram:",
		"  token: file-token",
		"  admin_id: 7",
		"logging:",
		"  level: debug",
		"rate_limit:",
		"  exclude_updates: [Callback]",
	}, "\n")
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	t.Setenv("ADMIN_ID", "99")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Telegram.Token != "file-token" {
		t.Fatalf("token = %q", cfg.Telegram.Token)
	}
	if cfg.Telegram.AdminID != 99 {
		t.Fatalf("admin id = %d, want env override 99", cfg.Telegram.AdminID)
	}
	if cfg.Logging.Level != "debug" {
		t.Fatalf("level = %q", cfg.Logging.Level)
	}
	if cfg.RateLimit.ExcludeUpdates[0] != UpdateCallback {
		t.Fatalf("exclude = %v", cfg.RateLimit.ExcludeUpdates)
	}
}

func TestLoadWithoutFileUsesEnvironment(t *testing.T) {
	t.Setenv("BOT_TOKEN", "env-token")
	t.Setenv("ADMIN_ID", "5")
	t.Setenv("RUN_MODE", "webhook")
	t.Setenv("WEBHOOK_URL", "https://example.org/hook")
	t.Setenv("PORT", "8443")

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Telegram.Token != "env-token" || cfg.Telegram.AdminID != 5 {
		t.Fatalf("unexpected telegram config: %+v", cfg.Telegram)
	}
	if cfg.Webhook.Port != 8443 || cfg.Telegram.RunMode != RunModeWebhook {
		t.Fatalf("unexpected webhook config: %+v / %s", cfg.Webhook, cfg.Telegram.RunMode)
	}
}
