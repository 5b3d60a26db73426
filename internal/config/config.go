package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"PullbackLens/internal/model"
)

// Config holds all application configuration.
type Config struct {
	DataSource struct {
		Provider string        `yaml:"provider"` // "yahoo" or "rest"
		BaseURL  string        `yaml:"base_url"`
		APIKey   string        `yaml:"api_key"`
		Timeout  time.Duration `yaml:"timeout"`
		CacheTTL time.Duration `yaml:"cache_ttl"`
	} `yaml:"data_source"`
	Backtest struct {
		Symbol        string              `yaml:"symbol"`
		StartDate     string              `yaml:"start_date"`
		LookbackDays  int                 `yaml:"lookback_days"`
		BinCount      int                 `yaml:"bin_count"`
		ProfileSource model.ProfileSource `yaml:"profile_source"`
	} `yaml:"backtest"`
	Server struct {
		Addr           string   `yaml:"addr"`
		AllowedOrigins []string `yaml:"allowed_origins"`
		RateLimit      float64  `yaml:"rate_limit"` // requests per second per client, 0 disables
		RateBurst      int      `yaml:"rate_burst"`
	} `yaml:"server"`
	Schedule struct {
		WeeklyCron string   `yaml:"weekly_cron"`
		Watchlist  []string `yaml:"watchlist"`
	} `yaml:"schedule"`
	Telegram struct {
		APIURL   string `yaml:"api_url"`
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
	} `yaml:"telegram"`
	Database struct {
		SQLiteDSN string `yaml:"sqlite_dsn"`
	} `yaml:"database"`
	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"` // "console" or "json"
	} `yaml:"log"`
	Proxy string `yaml:"proxy"`
}

// Load reads .env (if present) and the YAML file, then applies environment
// variable overrides and defaults. A missing file is not an error.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := &Config{}
	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	cfg.applyEnv()
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("DATA_PROVIDER"); v != "" {
		c.DataSource.Provider = v
	}
	if v := os.Getenv("DATA_BASE_URL"); v != "" {
		c.DataSource.BaseURL = v
	}
	if v := os.Getenv("DATA_API_KEY"); v != "" {
		c.DataSource.APIKey = v
	}
	if v := os.Getenv("DATA_CACHE_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.DataSource.CacheTTL = d
		}
	}
	if v := os.Getenv("BACKTEST_SYMBOL"); v != "" {
		c.Backtest.Symbol = v
	}
	if v := os.Getenv("BACKTEST_START"); v != "" {
		c.Backtest.StartDate = v
	}
	if v := os.Getenv("LOOKBACK_DAYS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Backtest.LookbackDays = n
		}
	}
	if v := os.Getenv("BIN_COUNT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Backtest.BinCount = n
		}
	}
	if v := os.Getenv("API_ADDR"); v != "" {
		c.Server.Addr = v
	}
	if v := os.Getenv("CRON_WEEKLY"); v != "" {
		c.Schedule.WeeklyCron = v
	}
	if v := os.Getenv("WATCHLIST"); v != "" {
		c.Schedule.Watchlist = splitList(v)
	}
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		c.Telegram.BotToken = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		c.Telegram.ChatID = v
	}
	if v := os.Getenv("SQLITE_DSN"); v != "" {
		c.Database.SQLiteDSN = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		c.Proxy = v
	}
}

func (c *Config) applyDefaults() {
	if c.DataSource.Provider == "" {
		c.DataSource.Provider = "yahoo"
	}
	if c.DataSource.Timeout == 0 {
		c.DataSource.Timeout = 30 * time.Second
	}
	if c.Backtest.Symbol == "" {
		c.Backtest.Symbol = "SPY"
	}
	if c.Backtest.StartDate == "" {
		c.Backtest.StartDate = "2023-01-01"
	}
	if c.Backtest.LookbackDays == 0 {
		c.Backtest.LookbackDays = 8
	}
	if c.Backtest.BinCount == 0 {
		c.Backtest.BinCount = 50
	}
	if c.Backtest.ProfileSource == "" {
		c.Backtest.ProfileSource = model.ProfileDaily
	}
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Server.RateLimit > 0 && c.Server.RateBurst == 0 {
		c.Server.RateBurst = int(c.Server.RateLimit) + 1
	}
	if c.Schedule.WeeklyCron == "" {
		c.Schedule.WeeklyCron = "0 0 8 * * 6"
	}
	if len(c.Schedule.Watchlist) == 0 {
		c.Schedule.Watchlist = []string{c.Backtest.Symbol}
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "console"
	}
}

// TelegramEnabled reports whether both bot token and chat id are set.
func (c *Config) TelegramEnabled() bool {
	return c.Telegram.BotToken != "" && c.Telegram.ChatID != ""
}

// StartDate parses backtest.start_date.
func (c *Config) StartDate() (time.Time, error) {
	return model.ParseDate(c.Backtest.StartDate)
}

// Validate checks that all fields hold usable values.
func (c *Config) Validate() error {
	switch c.DataSource.Provider {
	case "yahoo":
	case "rest":
		if c.DataSource.BaseURL == "" {
			return errors.New("data_source.base_url is required for the rest provider")
		}
	default:
		return fmt.Errorf("data_source.provider %q is not supported", c.DataSource.Provider)
	}
	if _, err := c.StartDate(); err != nil {
		return fmt.Errorf("backtest.start_date: %w", err)
	}
	if c.Backtest.LookbackDays < 1 {
		return errors.New("backtest.lookback_days must be at least 1")
	}
	if c.Backtest.BinCount < 2 {
		return errors.New("backtest.bin_count must be at least 2")
	}
	if !c.Backtest.ProfileSource.Valid() {
		return fmt.Errorf("backtest.profile_source %q is not supported", c.Backtest.ProfileSource)
	}
	if (c.Telegram.BotToken == "") != (c.Telegram.ChatID == "") {
		return errors.New("telegram.bot_token and telegram.chat_id must be set together")
	}
	if c.Server.RateLimit < 0 {
		return errors.New("server.rate_limit must not be negative")
	}
	if c.Log.Format != "console" && c.Log.Format != "json" {
		return fmt.Errorf("log.format %q is not supported", c.Log.Format)
	}
	return nil
}

func splitList(v string) []string {
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, strings.ToUpper(s))
		}
	}
	return out
}
