package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	tc := cfg.Analysis.Technical
	if tc.RSIPeriod != 14 || tc.SMAShort != 20 || tc.SMALong != 50 {
		t.Errorf("unexpected RSI/SMA defaults: %+v", tc)
	}
	if tc.EMAShort != 20 || tc.EMALong != 50 {
		t.Errorf("EMA spans should reuse SMA windows: %d/%d", tc.EMAShort, tc.EMALong)
	}
	if tc.MACDFast != 12 || tc.MACDSlow != 26 || tc.MACDSignal != 9 {
		t.Errorf("unexpected MACD defaults: %+v", tc)
	}
	if cfg.Trading.MinDays != 50 || cfg.Binance.QuoteAsset != "USDT" || cfg.Binance.Interval != "1d" {
		t.Errorf("unexpected trading/binance defaults: %+v %+v", cfg.Trading, cfg.Binance)
	}
	if got := strings.Join(cfg.Trading.Symbols, ","); got != "BTC,ETH,SOL,BNB" {
		t.Errorf("symbols: got %s", got)
	}
	if !cfg.UI.Interactive {
		t.Error("interactive mode should default to true")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestLoad_YAML(t *testing.T) {
	path := writeFile(t, "config.yaml", `
binance:
  quote_asset: BUSD
trading:
  symbols: [BTC, DOGE]
  min_days: 60
  default_days: 120
analysis:
  technical:
    rsi_period: 10
    sma_short: 10
    sma_long: 30
ui:
  interactive: false
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Binance.QuoteAsset != "BUSD" {
		t.Errorf("quote asset: got %s", cfg.Binance.QuoteAsset)
	}
	if len(cfg.Trading.Symbols) != 2 || cfg.Trading.Symbols[1] != "DOGE" {
		t.Errorf("symbols: got %v", cfg.Trading.Symbols)
	}
	tc := cfg.Analysis.Technical
	if tc.RSIPeriod != 10 || tc.SMAShort != 10 || tc.SMALong != 30 || tc.EMALong != 30 {
		t.Errorf("technical: got %+v", tc)
	}
	if cfg.UI.Interactive {
		t.Error("interactive should be disabled")
	}
}

func TestLoad_TOML(t *testing.T) {
	path := writeFile(t, "config.toml", `
[trading]
symbols = ["ETH"]

[analysis.technical]
macd_fast = 8
macd_slow = 21
macd_signal = 5
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	tc := cfg.Analysis.Technical
	if tc.MACDFast != 8 || tc.MACDSlow != 21 || tc.MACDSignal != 5 {
		t.Errorf("macd: got %+v", tc)
	}
	if cfg.Trading.Symbols[0] != "ETH" {
		t.Errorf("symbols: got %v", cfg.Trading.Symbols)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("BINANCE_API_KEY", "key-from-env")
	t.Setenv("INFLUX_TOKEN", "token-from-env")
	t.Setenv("BFTA_LOG_LEVEL", "debug")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Binance.APIKey != "key-from-env" {
		t.Errorf("api key: got %q", cfg.Binance.APIKey)
	}
	if cfg.Storage.Token != "token-from-env" {
		t.Errorf("influx token: got %q", cfg.Storage.Token)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("log level: got %q", cfg.Log.Level)
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := writeFile(t, "broken.yaml", "trading: [unclosed")
	if _, err := Load(path); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"sma order", func(c *Config) { c.Analysis.Technical.SMAShort = 60 }},
		{"ema order", func(c *Config) { c.Analysis.Technical.EMAShort = 80 }},
		{"macd order", func(c *Config) { c.Analysis.Technical.MACDFast = 30 }},
		{"rsi thresholds", func(c *Config) { c.Analysis.Technical.RSIOversold = 80 }},
		{"min days below warm-up", func(c *Config) { c.Trading.MinDays = 20 }},
		{"default days below min", func(c *Config) { c.Trading.DefaultDays = 55; c.Trading.MinDays = 60 }},
		{"unknown storage", func(c *Config) { c.Storage.Type = "mongo" }},
		{"influx without bucket", func(c *Config) { c.Storage.Type = "influxdb"; c.Storage.URL = "http://localhost:8086" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestRequiredBars(t *testing.T) {
	cfg := Default()
	if got := cfg.RequiredBars(); got != 50 {
		t.Errorf("got %d, want 50", got)
	}
	cfg.Analysis.Technical.RSIPeriod = 60
	if got := cfg.RequiredBars(); got != 61 {
		t.Errorf("got %d, want 61", got)
	}
}
