// Package config holds the top-up bot configuration: the shared core settings
// plus catalog, order storage, assistant, shop and ops sections.
package config

import (
	"fmt"
	"strings"
	"time"

	coreconfig "github.com/m3rciful/topupbot/core/config"
	coredatabase "github.com/m3rciful/topupbot/core/database"
)

// Order store drivers.
const (
	DriverFile     = "file"
	DriverPostgres = "postgres"
)

// CatalogConfig locates the product catalog file.
type CatalogConfig struct {
	Path string `yaml:"path" envconfig:"CATALOG_PATH"`
}

// OrdersConfig selects the order store backend.
type OrdersConfig struct {
	Driver string `yaml:"driver" envconfig:"ORDERS_DRIVER"`
	Path   string `yaml:"path" envconfig:"ORDERS_PATH"`
}

// AssistantConfig configures the chat-completions proxy used by /ask.
type AssistantConfig struct {
	APIKey         string  `yaml:"api_key" envconfig:"OPENAI_API_KEY"`
	BaseURL        string  `yaml:"base_url" envconfig:"OPENAI_BASE_URL"`
	Model          string  `yaml:"model" envconfig:"OPENAI_MODEL"`
	MaxTokens      int     `yaml:"max_tokens"`
	Temperature    float64 `yaml:"temperature"`
	TimeoutSeconds int     `yaml:"timeout_seconds"`
}

// Timeout returns the request timeout as a duration.
func (a AssistantConfig) Timeout() time.Duration {
	return time.Duration(a.TimeoutSeconds) * time.Second
}

// PaymentChannel is a payment method shown to users with the account to pay to.
type PaymentChannel struct {
	Name   string `yaml:"name"`
	Number string `yaml:"number"`
}

// ShopConfig holds storefront texts and payment details.
type ShopConfig struct {
	Currency        string           `yaml:"currency" envconfig:"SHOP_CURRENCY"`
	GameName        string           `yaml:"game_name" envconfig:"SHOP_GAME_NAME"`
	Timezone        string           `yaml:"timezone" envconfig:"SHOP_TIMEZONE"`
	PaymentChannels []PaymentChannel `yaml:"payment_channels" ignored:"true"`

	location *time.Location
}

// Location returns the timezone used to display order times.
func (s ShopConfig) Location() *time.Location {
	if s.location == nil {
		return time.UTC
	}
	return s.location
}

// SessionsConfig controls in-memory conversation sessions.
type SessionsConfig struct {
	// TTLMinutes expires idle sessions; 0 keeps them until the flow completes.
	TTLMinutes int `yaml:"ttl_minutes" envconfig:"SESSION_TTL_MINUTES"`
}

// TTL returns the idle session lifetime.
func (s SessionsConfig) TTL() time.Duration {
	return time.Duration(s.TTLMinutes) * time.Minute
}

// OpsConfig enables the HTTP ops server when Listen is set.
type OpsConfig struct {
	Listen string `yaml:"listen" envconfig:"OPS_LISTEN"`
	Token  string `yaml:"token" envconfig:"OPS_TOKEN"`
}

// Config is the full application configuration.
type Config struct {
	coreconfig.Config `yaml:",inline"`

	Catalog   CatalogConfig       `yaml:"catalog"`
	Orders    OrdersConfig        `yaml:"orders"`
	Database  coredatabase.Config `yaml:"database"`
	Assistant AssistantConfig     `yaml:"assistant"`
	Shop      ShopConfig          `yaml:"shop"`
	Sessions  SessionsConfig      `yaml:"sessions"`
	Ops       OpsConfig           `yaml:"ops"`
}

// CoreConfig exposes the embedded core configuration.
func (c *Config) CoreConfig() *coreconfig.Config {
	if c == nil {
		return nil
	}
	return &c.Config
}

// Load reads path (optional) and the environment, then validates the result.
func Load(path string) (*Config, error) {
	cfg := Default()
	if err := coreconfig.LoadInto(path, cfg); err != nil {
		return nil, err
	}
	if err := cfg.Normalize(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default returns a configuration populated with defaults that file and
// environment values override.
func Default() *Config {
	return &Config{
		Catalog: CatalogConfig{Path: "plans.json"},
		Orders:  OrdersConfig{Driver: DriverFile, Path: "orders.json"},
		Assistant: AssistantConfig{
			BaseURL:        "https://api.openai.com/v1",
			Model:          "gpt-3.5-turbo",
			MaxTokens:      150,
			Temperature:    0.7,
			TimeoutSeconds: 20,
		},
		Shop: ShopConfig{
			Currency: "৳",
			GameName: "Free Fire",
			Timezone: "Asia/Dhaka",
			PaymentChannels: []PaymentChannel{
				{Name: "bKash", Number: "01965064030"},
				{Name: "Nagad", Number: "01937240300"},
			},
		},
		Sessions: SessionsConfig{TTLMinutes: 24 * 60},
	}
}

// Normalize validates the core section and the application sections.
func (c *Config) Normalize() error {
	if err := coreconfig.Normalize(&c.Config); err != nil {
		return err
	}

	c.Orders.Driver = strings.ToLower(strings.TrimSpace(c.Orders.Driver))
	switch c.Orders.Driver {
	case "", DriverFile:
		c.Orders.Driver = DriverFile
		if strings.TrimSpace(c.Orders.Path) == "" {
			return fmt.Errorf("orders.path is required for the file driver")
		}
	case DriverPostgres:
		if err := c.Database.Normalize(); err != nil {
			return err
		}
	default:
		return fmt.Errorf("invalid orders.driver %q; allowed: file, postgres", c.Orders.Driver)
	}

	if c.Sessions.TTLMinutes < 0 {
		return fmt.Errorf("sessions.ttl_minutes must be >= 0")
	}
	if c.Assistant.MaxTokens <= 0 {
		return fmt.Errorf("assistant.max_tokens must be > 0")
	}
	if c.Assistant.Temperature < 0 || c.Assistant.Temperature > 2 {
		return fmt.Errorf("assistant.temperature must be within [0, 2]")
	}

	if strings.TrimSpace(c.Ops.Listen) != "" && strings.TrimSpace(c.Ops.Token) == "" {
		return fmt.Errorf("ops.token is required when ops.listen is set")
	}

	c.Shop.location = time.UTC
	if tz := strings.TrimSpace(c.Shop.Timezone); tz != "" {
		// A host without tzdata falls back to UTC rather than refusing to start.
		if loc, err := time.LoadLocation(tz); err == nil {
			c.Shop.location = loc
		}
	}
	return nil
}
