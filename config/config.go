// Package config loads bot configuration from an optional TOML file
// with environment variable overrides.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Config holds every tunable of the bot. The private key is never read
// from the config file, only from the environment.
type Config struct {
	// Exchange endpoints
	APIURL string `toml:"api_url"`
	WSURL  string `toml:"ws_url"`

	// Trading parameters
	MinFundingRate float64 `toml:"min_funding_rate"` // annualized %, absolute value
	NotionalUSD    float64 `toml:"notional_usd"`     // fixed size per hedge
	MaxSlippage    float64 `toml:"max_slippage"`     // fractional, e.g. 0.001

	// Funding annualization. Hyperliquid pays funding hourly; the
	// default of 365 matches one-payment-per-day and is kept for
	// comparability with existing dashboards. Override if needed.
	FundingPeriodsPerYear int `toml:"funding_periods_per_year"`

	// Timing
	PollSeconds        int `toml:"poll_seconds"`
	HTTPTimeoutSeconds int `toml:"http_timeout_seconds"`

	// Optional subsystems
	EnableMidsWatcher bool   `toml:"enable_mids_watcher"`
	MetricsAddr       string `toml:"metrics_addr"`      // empty disables the HTTP server
	AlertWebhookURL   string `toml:"alert_webhook_url"` // empty falls back to log alerts

	// Credentials (environment only)
	PrivateKeyHex string `toml:"-"`
}

// Default returns the configuration matching the bot's documented
// behaviour: 5% APR threshold, $1000 per hedge, 0.1% slippage bound,
// 60 second cycles.
func Default() Config {
	return Config{
		APIURL:                "https://api.hyperliquid.xyz",
		WSURL:                 "wss://api.hyperliquid.xyz/ws",
		MinFundingRate:        5.0,
		NotionalUSD:           1000,
		MaxSlippage:           0.001,
		FundingPeriodsPerYear: 365,
		PollSeconds:           60,
		HTTPTimeoutSeconds:    5,
	}
}

// Load reads the TOML file at path on top of the defaults. A missing
// file is not an error; the defaults are returned unchanged.
func Load(path string) (Config, error) {
	cfg := Default()

	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}

	if err := toml.Unmarshal(b, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}

	return cfg, nil
}

// ApplyEnv overrides config values from environment variables. Call
// after godotenv has populated the environment.
func (c *Config) ApplyEnv() {
	if v := os.Getenv("HYPERLIQUID_PRIVATE_KEY"); v != "" {
		c.PrivateKeyHex = strings.Trim(strings.TrimSpace(v), `"'`)
	}
	if v := os.Getenv("HYPERLIQUID_API_URL"); v != "" {
		c.APIURL = v
	}
	if v := os.Getenv("HYPERLIQUID_WS_URL"); v != "" {
		c.WSURL = v
	}
	if v, err := strconv.ParseFloat(os.Getenv("MIN_FUNDING_RATE"), 64); err == nil {
		c.MinFundingRate = v
	}
	if v, err := strconv.ParseFloat(os.Getenv("NOTIONAL_USD"), 64); err == nil {
		c.NotionalUSD = v
	}
	if v, err := strconv.ParseFloat(os.Getenv("MAX_SLIPPAGE"), 64); err == nil {
		c.MaxSlippage = v
	}
	if v, err := strconv.Atoi(os.Getenv("POLL_SECONDS")); err == nil && v > 0 {
		c.PollSeconds = v
	}
	if v, err := strconv.Atoi(os.Getenv("FUNDING_PERIODS_PER_YEAR")); err == nil && v > 0 {
		c.FundingPeriodsPerYear = v
	}
	if v := os.Getenv("METRICS_ADDR"); v != "" {
		c.MetricsAddr = v
	}
	if v := os.Getenv("ALERT_WEBHOOK_URL"); v != "" {
		c.AlertWebhookURL = v
	}
	if v := os.Getenv("ENABLE_MIDS_WATCHER"); v != "" {
		c.EnableMidsWatcher = v == "true" || v == "1"
	}
}

// Validate checks the parts of the configuration the bot cannot run
// without.
func (c *Config) Validate() error {
	if c.PrivateKeyHex == "" {
		return fmt.Errorf("HYPERLIQUID_PRIVATE_KEY is not set")
	}
	if c.NotionalUSD <= 0 {
		return fmt.Errorf("notional_usd must be positive, got %v", c.NotionalUSD)
	}
	if c.MaxSlippage < 0 || c.MaxSlippage >= 1 {
		return fmt.Errorf("max_slippage must be in [0,1), got %v", c.MaxSlippage)
	}
	return nil
}

// PollInterval returns the cycle interval as a duration.
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.PollSeconds) * time.Second
}

// HTTPTimeout returns the per-request timeout as a duration.
func (c *Config) HTTPTimeout() time.Duration {
	return time.Duration(c.HTTPTimeoutSeconds) * time.Second
}
