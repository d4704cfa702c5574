package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaults(t *testing.T) {
	cfg := Default()

	if cfg.MinFundingRate != 5.0 {
		t.Errorf("min funding rate = %v, want 5.0", cfg.MinFundingRate)
	}
	if cfg.NotionalUSD != 1000 {
		t.Errorf("notional = %v, want 1000", cfg.NotionalUSD)
	}
	if cfg.MaxSlippage != 0.001 {
		t.Errorf("max slippage = %v, want 0.001", cfg.MaxSlippage)
	}
	if cfg.FundingPeriodsPerYear != 365 {
		t.Errorf("funding periods = %v, want 365", cfg.FundingPeriodsPerYear)
	}
	if cfg.PollInterval() != 60*time.Second {
		t.Errorf("poll interval = %v, want 60s", cfg.PollInterval())
	}
}

func TestLoadMissingFileKeepsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	if err != nil {
		t.Fatalf("Load failed on a missing file: %v", err)
	}
	if cfg != Default() {
		t.Errorf("missing file changed the defaults: %+v", cfg)
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	body := `
min_funding_rate = 10.0
notional_usd = 250.0
poll_seconds = 30
metrics_addr = ":9090"
enable_mids_watcher = true
`
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.MinFundingRate != 10.0 || cfg.NotionalUSD != 250 || cfg.PollSeconds != 30 {
		t.Errorf("file values not applied: %+v", cfg)
	}
	if cfg.MetricsAddr != ":9090" || !cfg.EnableMidsWatcher {
		t.Errorf("optional subsystems not applied: %+v", cfg)
	}
	// Untouched keys keep their defaults.
	if cfg.MaxSlippage != 0.001 {
		t.Errorf("max slippage = %v, want default 0.001", cfg.MaxSlippage)
	}
}

func TestLoadRejectsMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("min_funding_rate = [broken"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected a parse error")
	}
}

func TestApplyEnv(t *testing.T) {
	t.Setenv("HYPERLIQUID_PRIVATE_KEY", ` "0xabc123" `)
	t.Setenv("MIN_FUNDING_RATE", "7.5")
	t.Setenv("NOTIONAL_USD", "500")
	t.Setenv("POLL_SECONDS", "15")

	cfg := Default()
	cfg.ApplyEnv()

	// Quotes and whitespace around the key are stripped.
	if cfg.PrivateKeyHex != "0xabc123" {
		t.Errorf("private key = %q", cfg.PrivateKeyHex)
	}
	if cfg.MinFundingRate != 7.5 || cfg.NotionalUSD != 500 || cfg.PollSeconds != 15 {
		t.Errorf("env overrides not applied: %+v", cfg)
	}
}

func TestValidate(t *testing.T) {
	base := Default()
	base.PrivateKeyHex = "abc"

	if err := base.Validate(); err != nil {
		t.Errorf("valid config rejected: %v", err)
	}

	noKey := base
	noKey.PrivateKeyHex = ""
	if err := noKey.Validate(); err == nil {
		t.Error("missing private key accepted")
	}

	badNotional := base
	badNotional.NotionalUSD = 0
	if err := badNotional.Validate(); err == nil {
		t.Error("zero notional accepted")
	}

	badSlippage := base
	badSlippage.MaxSlippage = 1.5
	if err := badSlippage.Validate(); err == nil {
		t.Error("slippage >= 1 accepted")
	}
}
