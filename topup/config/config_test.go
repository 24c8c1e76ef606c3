package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("BOT_TOKEN", "123:abc")
	t.Setenv("ADMIN_ID", "42")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	require.Equal(t, "plans.json", cfg.Catalog.Path)
	require.Equal(t, DriverFile, cfg.Orders.Driver)
	require.Equal(t, "orders.json", cfg.Orders.Path)
	require.Equal(t, "gpt-3.5-turbo", cfg.Assistant.Model)
	require.Equal(t, 150, cfg.Assistant.MaxTokens)
	require.Equal(t, 20*time.Second, cfg.Assistant.Timeout())
	require.Len(t, cfg.Shop.PaymentChannels, 2)
	require.Equal(t, 24*time.Hour, cfg.Sessions.TTL())
	require.NotNil(t, cfg.Shop.Location())
	require.Equal(t, int64(42), cfg.CoreConfig().Telegram.AdminID)
}

func TestLoadFileOverridesAndEnv(t *testing.T) {
	path := writeFile(t, `
telegram:
  token: file-token
  admin_id: 1
catalog:
  path: catalog.yaml
orders:
  driver: Postgres
database:
  host: db
  name: topup
shop:
  currency: USD
  timezone: Mars/Olympus
  payment_channels:
    - name: Card
      number: "4242"
sessions:
  ttl_minutes: 0
`)
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("DB_USER", "bot")

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "catalog.yaml", cfg.Catalog.Path)
	require.Equal(t, DriverPostgres, cfg.Orders.Driver)
	require.Equal(t, "bot", cfg.Database.User)
	require.Equal(t, "5432", cfg.Database.Port)
	require.Equal(t, "sk-test", cfg.Assistant.APIKey)
	require.Equal(t, "USD", cfg.Shop.Currency)
	require.Equal(t, []PaymentChannel{{Name: "Card", Number: "4242"}}, cfg.Shop.PaymentChannels)
	require.Equal(t, time.UTC, cfg.Shop.Location(), "unknown timezone falls back to UTC")
	require.Zero(t, cfg.Sessions.TTL())
}

func TestNormalizeRejectsBadDriver(t *testing.T) {
	cfg := Default()
	cfg.Telegram.Token = "t"
	cfg.Telegram.AdminID = 1
	cfg.Orders.Driver = "sqlite"
	require.Error(t, cfg.Normalize())

	cfg.Orders.Driver = DriverPostgres
	require.Error(t, cfg.Normalize(), "postgres driver requires database settings")
}

func TestNormalizeRequiresOpsToken(t *testing.T) {
	cfg := Default()
	cfg.Telegram.Token = "t"
	cfg.Telegram.AdminID = 1
	cfg.Ops.Listen = "127.0.0.1:8081"
	require.ErrorContains(t, cfg.Normalize(), "ops.token")

	cfg.Ops.Token = "secret"
	require.NoError(t, cfg.Normalize())
}
