package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type RuntimeConfig struct {
	Dev bool
}

type BotConfig struct {
	Token     string  `yaml:"token"`
	Username  string  `yaml:"username"`
	Workers   int     `yaml:"workers"` // polling workers
	AdminIDs  []int64 `yaml:"admin_ids"`
	AdminChat int64   `yaml:"admin_chat"` // where proofs and audit messages go
	ChannelID int64   `yaml:"channel_id"` // the gated membership channel
	Locale    string  `yaml:"locale"`     // locales/<code>.yaml
}

type LogConfig struct {
	Level    string `yaml:"level"`    // trace|debug|info|warn|error
	Format   string `yaml:"format"`   // json|console
	Sampling bool   `yaml:"sampling"` // enable sampling in prod
}

type DatabaseConfig struct {
	URL      string `yaml:"url"`
	PoolSize int    `yaml:"pool_size"`
}

type RedisConfig struct {
	URL      string `yaml:"url"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type WebConfig struct {
	Port          int    `yaml:"port"`
	APIKey        string `yaml:"api_key"`
	SessionSecret string `yaml:"session_secret"`
}

type SchedulerConfig struct {
	// NotifyLeadTime is how long before expiry the renewal reminder fires.
	// 72h in production, seconds in test configurations.
	NotifyLeadTime time.Duration `yaml:"notify_lead_time"`
	// SubmissionTTL is how long a picked plan waits for its proof photo.
	SubmissionTTL time.Duration `yaml:"submission_ttl"`
}

type PlanConfig struct {
	Label      string `yaml:"label"`
	Amount     int64  `yaml:"amount"`
	PeriodDays int    `yaml:"period_days"`
}

type Config struct {
	Bot       BotConfig             `yaml:"bot"`
	Log       LogConfig             `yaml:"log"`
	Database  DatabaseConfig        `yaml:"database"`
	Redis     RedisConfig           `yaml:"redis"`
	Web       WebConfig             `yaml:"web"`
	Scheduler SchedulerConfig       `yaml:"scheduler"`
	Plans     map[string]PlanConfig `yaml:"plans"`

	Runtime RuntimeConfig `yaml:"-"`
}

// LoadConfig reads and validates the YAML config file.
func LoadConfig(path string, dev bool) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	// defaults
	if cfg.Bot.Workers <= 0 {
		cfg.Bot.Workers = 8
	}
	if cfg.Bot.Locale == "" {
		cfg.Bot.Locale = "ru"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
	if cfg.Database.PoolSize <= 0 {
		cfg.Database.PoolSize = 10
	}
	if cfg.Scheduler.NotifyLeadTime <= 0 {
		cfg.Scheduler.NotifyLeadTime = 72 * time.Hour
	}
	if cfg.Scheduler.SubmissionTTL <= 0 {
		cfg.Scheduler.SubmissionTTL = 15 * time.Minute
	}
	if cfg.Web.Port == 0 {
		cfg.Web.Port = 8081
	}

	// Minimal validation
	if cfg.Bot.Token == "" {
		return nil, errors.New("bot.token is required")
	}
	if cfg.Bot.ChannelID == 0 {
		return nil, errors.New("bot.channel_id is required")
	}
	if cfg.Bot.AdminChat == 0 {
		return nil, errors.New("bot.admin_chat is required")
	}
	if cfg.Database.URL == "" {
		return nil, errors.New("database.url is required")
	}
	if cfg.Redis.URL == "" {
		return nil, errors.New("redis.url is required")
	}
	if len(cfg.Plans) == 0 {
		return nil, errors.New("at least one plan is required")
	}
	for key, p := range cfg.Plans {
		if p.Amount <= 0 || p.PeriodDays <= 0 || p.Label == "" {
			return nil, fmt.Errorf("plan %q: label, amount and period_days are required", key)
		}
	}

	cfg.Runtime.Dev = dev
	return &cfg, nil
}
