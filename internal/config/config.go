package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"ZoneSentinel/internal/collector"
	"ZoneSentinel/internal/model"
)

// Config holds all application configuration.
type Config struct {
	Backend struct {
		BaseURL  string `yaml:"base_url" env:"BACKEND_BASE_URL"`
		APIKey   string `yaml:"api_key" env:"BACKEND_API_KEY"`
		Fallback string `yaml:"fallback" env:"FALLBACK"`
	} `yaml:"backend"`
	Watch struct {
		Symbols    []string `yaml:"symbols" env:"SYMBOLS" envSeparator:","`
		Timeframes []string `yaml:"timeframes" env:"TIMEFRAMES" envSeparator:","`
		Bars       int      `yaml:"bars" env:"BARS"`
	} `yaml:"watch"`
	Telegram struct {
		BotToken string `yaml:"bot_token" env:"TELEGRAM_BOT_TOKEN"`
		ChatID   string `yaml:"chat_id" env:"TELEGRAM_CHAT_ID"`
	} `yaml:"telegram"`
	Schedule struct {
		RefreshCron string `yaml:"refresh_cron" env:"REFRESH_CRON"`
		HealthCron  string `yaml:"health_cron" env:"HEALTH_CRON"`
	} `yaml:"schedule"`
	Database struct {
		SQLitePath  string `yaml:"sqlite_path" env:"SQLITE_PATH"`
		PostgresDSN string `yaml:"postgres_dsn" env:"POSTGRES_DSN"`
	} `yaml:"database"`
	Server struct {
		Addr string `yaml:"addr" env:"HTTP_ADDR"`
	} `yaml:"server"`
	SMC struct {
		Enabled bool `yaml:"enabled" env:"SMC_ENABLED"`
	} `yaml:"smc"`
	Proxy string `yaml:"proxy" env:"HTTPS_PROXY"`
}

// Fallback sources accepted in backend.fallback.
const (
	FallbackMock  = "mock"
	FallbackYahoo = "yahoo"
	FallbackNone  = "none"
)

// Default returns the configuration used when nothing overrides it.
func Default() *Config {
	cfg := &Config{}
	cfg.Backend.BaseURL = "http://localhost:5000/api"
	cfg.Backend.Fallback = FallbackMock
	cfg.Watch.Symbols = []string{"PETR4", "WIN@", "WDO@", "IBOV"}
	cfg.Watch.Timeframes = []string{string(model.TimeframeD1)}
	cfg.Watch.Bars = collector.DefaultBars
	cfg.Schedule.RefreshCron = "@every 5s"
	cfg.Schedule.HealthCron = "@every 30s"
	cfg.Database.SQLitePath = "data/zone_sentinel.db"
	cfg.Server.Addr = ":8080"
	cfg.SMC.Enabled = true
	return cfg
}

// Load reads config from a YAML file on top of the defaults, then applies
// environment variable overrides. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if len(c.Watch.Symbols) == 0 {
		return errors.New("watch.symbols must not be empty")
	}
	for _, s := range c.Watch.Symbols {
		if s == "" {
			return errors.New("watch.symbols contains an empty symbol")
		}
	}
	if len(c.Watch.Timeframes) == 0 {
		return errors.New("watch.timeframes must not be empty")
	}
	for _, tf := range c.Watch.Timeframes {
		if _, ok := model.ParseTimeframe(tf); !ok {
			return fmt.Errorf("watch.timeframes: unknown timeframe %q", tf)
		}
	}
	if c.Watch.Bars < 3 {
		return fmt.Errorf("watch.bars must be at least 3, got %d", c.Watch.Bars)
	}
	if c.Telegram.BotToken != "" && c.Telegram.ChatID == "" {
		return errors.New("telegram.chat_id is required when telegram.bot_token is set")
	}
	switch c.Backend.Fallback {
	case FallbackMock, FallbackYahoo, FallbackNone:
	default:
		return fmt.Errorf("backend.fallback must be one of mock|yahoo|none, got %q", c.Backend.Fallback)
	}
	if c.Schedule.RefreshCron == "" || c.Schedule.HealthCron == "" {
		return errors.New("schedule.refresh_cron and schedule.health_cron are required")
	}
	return nil
}

// Targets expands the watched symbols and timeframes into refresh targets.
func (c *Config) Targets() []model.WatchTarget {
	targets := make([]model.WatchTarget, 0, len(c.Watch.Symbols)*len(c.Watch.Timeframes))
	for _, s := range c.Watch.Symbols {
		for _, raw := range c.Watch.Timeframes {
			tf, _ := model.ParseTimeframe(raw)
			targets = append(targets, model.WatchTarget{Symbol: s, Timeframe: tf})
		}
	}
	return targets
}
