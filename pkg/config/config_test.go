package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyDefaults(t *testing.T) {
	cfg := &Config{}
	cfg.ApplyDefaults()

	assert.Equal(t, EnvDemo, cfg.Environment)
	assert.Equal(t, 500*time.Millisecond, cfg.MarketPollInterval())
	assert.Equal(t, 3*time.Second, cfg.OrderPollInterval())
	assert.Equal(t, ":8080", cfg.ListenAddr)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestValidate(t *testing.T) {
	cfg := &Config{Environment: EnvDemo, EventTicker: "KXNBA"}
	cfg.ApplyDefaults()
	require.NoError(t, cfg.Validate())

	bad := &Config{Environment: "staging", EventTicker: "KXNBA"}
	bad.ApplyDefaults()
	bad.Environment = "staging"
	assert.Error(t, bad.Validate())

	noTickers := &Config{Environment: EnvDemo}
	noTickers.ApplyDefaults()
	assert.Error(t, noTickers.Validate())
}

func TestBaseURLPerEnvironment(t *testing.T) {
	demo := &Config{Environment: EnvDemo}
	assert.Contains(t, demo.BaseURL(), "demo-api")

	prod := &Config{Environment: EnvProduction}
	assert.Contains(t, prod.BaseURL(), "elections")

	override := &Config{Environment: EnvDemo, BaseURLOverride: "http://127.0.0.1:9999"}
	assert.Equal(t, "http://127.0.0.1:9999", override.BaseURL())
}

func TestLoadFromYAMLWithEnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	body := `
environment: demo
event_ticker: KXNBAGAME
market_poll_ms: 250
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	t.Setenv("ENV", "prod")
	t.Setenv("PROD_KEYID", "key-123")
	t.Setenv("PROD_KEYFILE", "/tmp/k.pem")
	t.Setenv("TICKERS", "KXNBAGAME-A, KXNBAGAME-B")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, EnvProduction, cfg.Environment)
	assert.Equal(t, "key-123", cfg.KeyID)
	assert.Equal(t, "/tmp/k.pem", cfg.KeyFile)
	assert.Equal(t, []string{"KXNBAGAME-A", "KXNBAGAME-B"}, cfg.Tickers)
}
