package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"PullbackLens/internal/model"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.DataSource.Provider != "yahoo" || cfg.Backtest.Symbol != "SPY" || cfg.Backtest.LookbackDays != 8 {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
	if cfg.Backtest.BinCount != 50 || cfg.Backtest.ProfileSource != model.ProfileDaily {
		t.Errorf("profile defaults: %+v", cfg.Backtest)
	}
	if cfg.Schedule.WeeklyCron != "0 0 8 * * 6" || len(cfg.Schedule.Watchlist) != 1 {
		t.Errorf("schedule defaults: %+v", cfg.Schedule)
	}
	if cfg.TelegramEnabled() {
		t.Error("telegram should be off without credentials")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestLoad_FileAndEnv(t *testing.T) {
	path := writeConfig(t, `
data_source:
  provider: rest
  base_url: http://bars.local
  timeout: 5s
  cache_ttl: 10m
backtest:
  symbol: QQQ
  start_date: "2022-06-01"
  lookback_days: 10
  profile_source: weekly
schedule:
  watchlist: [QQQ, IWM]
`)
	t.Setenv("BIN_COUNT", "20")
	t.Setenv("WATCHLIST", "spy, dia")

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.DataSource.Provider != "rest" || cfg.DataSource.Timeout != 5*time.Second || cfg.DataSource.CacheTTL != 10*time.Minute {
		t.Errorf("data source = %+v", cfg.DataSource)
	}
	if cfg.Backtest.Symbol != "QQQ" || cfg.Backtest.LookbackDays != 10 || cfg.Backtest.BinCount != 20 {
		t.Errorf("backtest = %+v", cfg.Backtest)
	}
	if got := cfg.Schedule.Watchlist; len(got) != 2 || got[0] != "SPY" || got[1] != "DIA" {
		t.Errorf("watchlist = %v", got)
	}
	start, err := cfg.StartDate()
	if err != nil || model.FormatDate(start) != "2022-06-01" {
		t.Errorf("start = %v, %v", start, err)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("validate: %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"unknown provider", func(c *Config) { c.DataSource.Provider = "bloomberg" }},
		{"rest without url", func(c *Config) { c.DataSource.Provider = "rest" }},
		{"bad start", func(c *Config) { c.Backtest.StartDate = "01/02/2023" }},
		{"zero lookback", func(c *Config) { c.Backtest.LookbackDays = -1 }},
		{"one edge", func(c *Config) { c.Backtest.BinCount = 1 }},
		{"bad source", func(c *Config) { c.Backtest.ProfileSource = "hourly" }},
		{"bad log format", func(c *Config) { c.Log.Format = "xml" }},
		{"negative rate", func(c *Config) { c.Server.RateLimit = -1 }},
		{"token without chat", func(c *Config) { c.Telegram.BotToken = "123:abc" }},
	}
	for _, tt := range tests {
		cfg := &Config{}
		cfg.applyDefaults()
		tt.mutate(cfg)
		if err := cfg.Validate(); err == nil {
			t.Errorf("%s: expected validation error", tt.name)
		}
	}
}

func TestLoad_BadYAML(t *testing.T) {
	if _, err := Load(writeConfig(t, "backtest: [")); err == nil {
		t.Error("expected parse error")
	}
}
