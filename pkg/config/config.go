package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Environment names select the exchange deployment and which credential pair
// is used.
const (
	EnvDemo       = "demo"
	EnvProduction = "production"
)

const (
	demoBaseURL       = "https://demo-api.kalshi.co"
	productionBaseURL = "https://api.elections.kalshi.com"
)

// Config is the static application configuration, read once at startup from an
// optional YAML file with environment-variable overrides.
type Config struct {
	Environment string   `yaml:"environment"` // demo | production
	EventTicker string   `yaml:"event_ticker"`
	Tickers     []string `yaml:"tickers"` // empty tracks all active markets of the event

	MarketPollMs int `yaml:"market_poll_ms"`
	OrderPollMs  int `yaml:"order_poll_ms"`

	ListenAddr string `yaml:"listen"`

	KeyID   string `yaml:"key_id"`
	KeyFile string `yaml:"key_file"`

	SecretStorePath string `yaml:"secret_store"` // badger credential store, optional
	SecretStoreKey  string `yaml:"-"`            // encryption key, env only

	ActivityDBPath string `yaml:"activity_db"` // sqlite activity log, optional

	LogLevel      string `yaml:"log_level"`
	LogFile       string `yaml:"log_file"`
	LogMaxSizeMB  int    `yaml:"log_max_size_mb"`
	LogMaxBackups int    `yaml:"log_max_backups"`
	LogMaxAgeDays int    `yaml:"log_max_age_days"`

	BaseURLOverride string `yaml:"base_url"` // tests and staging only
}

// Load reads the YAML file when path is non-empty, then applies env overrides
// and defaults.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(b, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}
	cfg.applyEnv()
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv layers environment variables over the file values. The credential
// variables keep the <ENV>_KEYID / <ENV>_KEYFILE convention so one .env can
// hold both demo and production pairs.
func (c *Config) applyEnv() {
	if v := getenv("ENV"); v != "" {
		c.Environment = normalizeEnv(v)
	}
	if v := getenv("EVENT_TICKER"); v != "" {
		c.EventTicker = v
	}
	if v := getenv("TICKERS"); v != "" {
		c.Tickers = splitTickers(v)
	}
	if v := getenv("GOKALSHI_LISTEN"); v != "" {
		c.ListenAddr = v
	}
	if v := getenv("GOKALSHI_SECRET_DB"); v != "" {
		c.SecretStorePath = v
	}
	if v := getenv("GOKALSHI_SECRET_KEY"); v != "" {
		c.SecretStoreKey = v
	}
	if v := getenv("GOKALSHI_ACTIVITY_DB"); v != "" {
		c.ActivityDBPath = v
	}
	if v := getenv("GOKALSHI_BASE_URL"); v != "" {
		c.BaseURLOverride = v
	}

	envPrefix := strings.ToUpper(c.envOrDefault())
	if envPrefix == "PRODUCTION" {
		// historical variable naming from the .env convention
		envPrefix = "PROD"
	}
	if v := getenv(envPrefix + "_KEYID"); v != "" {
		c.KeyID = v
	}
	if v := getenv(envPrefix + "_KEYFILE"); v != "" {
		c.KeyFile = v
	}
}

// ApplyDefaults fills zero values.
func (c *Config) ApplyDefaults() {
	if c.Environment == "" {
		c.Environment = EnvDemo
	}
	if c.MarketPollMs <= 0 {
		c.MarketPollMs = 500
	}
	if c.OrderPollMs <= 0 {
		c.OrderPollMs = 3000
	}
	if c.ListenAddr == "" {
		c.ListenAddr = ":8080"
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.LogMaxSizeMB <= 0 {
		c.LogMaxSizeMB = 50
	}
	if c.LogMaxBackups <= 0 {
		c.LogMaxBackups = 5
	}
	if c.LogMaxAgeDays <= 0 {
		c.LogMaxAgeDays = 14
	}
}

// Validate rejects configurations the process cannot start with.
func (c *Config) Validate() error {
	switch c.Environment {
	case EnvDemo, EnvProduction:
	default:
		return fmt.Errorf("environment must be %q or %q, got %q", EnvDemo, EnvProduction, c.Environment)
	}
	if c.EventTicker == "" && len(c.Tickers) == 0 {
		return fmt.Errorf("event_ticker or tickers is required")
	}
	if c.MarketPollMs < 100 {
		return fmt.Errorf("market_poll_ms too small: %d", c.MarketPollMs)
	}
	return nil
}

// MarketPollInterval returns the market/position poll period.
func (c *Config) MarketPollInterval() time.Duration {
	return time.Duration(c.MarketPollMs) * time.Millisecond
}

// OrderPollInterval returns the resting-order poll period.
func (c *Config) OrderPollInterval() time.Duration {
	return time.Duration(c.OrderPollMs) * time.Millisecond
}

// BaseURL returns the exchange endpoint for the configured environment.
func (c *Config) BaseURL() string {
	if c.BaseURLOverride != "" {
		return c.BaseURLOverride
	}
	if c.Environment == EnvProduction {
		return productionBaseURL
	}
	return demoBaseURL
}

func (c *Config) envOrDefault() string {
	if c.Environment == "" {
		return EnvDemo
	}
	return c.Environment
}

func normalizeEnv(v string) string {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "prod", "production":
		return EnvProduction
	default:
		return EnvDemo
	}
}

func splitTickers(v string) []string {
	var out []string
	for _, t := range strings.Split(v, ",") {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}

func getenv(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}
