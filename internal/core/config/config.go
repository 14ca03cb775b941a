package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/pulselog-lab/pulselog/internal/reminder"
)

// Config represents the top-level application config plus resolved reminder rules.
type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Database DatabaseConfig `koanf:"database"`
	Reminder ReminderConfig `koanf:"reminder"`
	Insights InsightsConfig `koanf:"insights"`

	// Rules is populated by Load after parsing reminder rule files.
	Rules []reminder.Rule `koanf:"-"`
}

type ServerConfig struct {
	Port          int    `koanf:"port"`
	Host          string `koanf:"host"`
	MaxBodySizeMB int    `koanf:"max_body_size_mb"`
	Mode          string `koanf:"mode"` // debug | release
}

type DatabaseConfig struct {
	Type         string `koanf:"type"`
	DSN          string `koanf:"dsn"`
	MaxOpenConns int    `koanf:"max_open_conns"`
	MaxIdleConns int    `koanf:"max_idle_conns"`
	AutoMigrate  bool   `koanf:"auto_migrate"`
}

type ReminderConfig struct {
	Enabled       bool   `koanf:"enabled"`
	RuleDir       string `koanf:"rule_dir"`
	SweepInterval string `koanf:"sweep_interval"`
	WorkerCount   int    `koanf:"worker_count"`
	QueueSize     int    `koanf:"queue_size"`
	MaxAttempts   int    `koanf:"max_attempts"`
}

type InsightsConfig struct {
	Enabled     bool `koanf:"enabled"`
	MaxInsights int  `koanf:"max_insights"`
}

func (c ReminderConfig) Interval() (time.Duration, error) {
	return time.ParseDuration(c.SweepInterval)
}

func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server.port %d (must be 1-65535)", c.Server.Port)
	}
	if strings.TrimSpace(c.Server.Host) == "" {
		return fmt.Errorf("server.host is required")
	}
	if c.Server.MaxBodySizeMB <= 0 {
		return fmt.Errorf("server.max_body_size_mb must be > 0")
	}
	if c.Server.Mode != "debug" && c.Server.Mode != "release" {
		return fmt.Errorf("invalid server.mode %q (must be debug or release)", c.Server.Mode)
	}

	if strings.TrimSpace(c.Database.DSN) == "" {
		return fmt.Errorf("database.dsn is required")
	}
	if c.Database.MaxOpenConns <= 0 {
		return fmt.Errorf("database.max_open_conns must be > 0")
	}
	if c.Database.MaxIdleConns <= 0 {
		return fmt.Errorf("database.max_idle_conns must be > 0")
	}
	if c.Database.Type != "" && c.Database.Type != "postgres" {
		return fmt.Errorf("unsupported database.type %q", c.Database.Type)
	}

	interval, err := c.Reminder.Interval()
	if err != nil {
		return fmt.Errorf("invalid reminder.sweep_interval %q: %w", c.Reminder.SweepInterval, err)
	}
	if interval <= 0 {
		return fmt.Errorf("reminder.sweep_interval must be > 0")
	}
	if c.Reminder.WorkerCount <= 0 {
		return fmt.Errorf("reminder.worker_count must be > 0")
	}
	if c.Reminder.QueueSize <= 0 {
		return fmt.Errorf("reminder.queue_size must be > 0")
	}
	if c.Reminder.MaxAttempts <= 0 {
		return fmt.Errorf("reminder.max_attempts must be > 0")
	}

	if c.Insights.MaxInsights <= 0 {
		return fmt.Errorf("insights.max_insights must be > 0")
	}

	return nil
}

// Load parses config from file + env, validates it, then loads reminder rules.
func Load(configPath string) (*Config, error) {
	k := koanf.New(".")

	defaults := map[string]interface{}{
		"server.port":             8080,
		"server.host":             "0.0.0.0",
		"server.max_body_size_mb": 1,
		"server.mode":             "release",
		"database.type":           "postgres",
		"database.dsn":            "",
		"database.max_open_conns": 25,
		"database.max_idle_conns": 25,
		"database.auto_migrate":   true,
		"reminder.enabled":        true,
		"reminder.rule_dir":       "./config/reminders",
		"reminder.sweep_interval": "15m",
		"reminder.worker_count":   4,
		"reminder.queue_size":     256,
		"reminder.max_attempts":   3,
		"insights.enabled":        true,
		"insights.max_insights":   5,
	}
	for key, value := range defaults {
		k.Set(key, value)
	}

	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file: %w", err)
		}
	}

	if err := k.Load(env.Provider("PULSELOG_", ".", func(s string) string {
		return strings.Replace(strings.ToLower(strings.TrimPrefix(s, "PULSELOG_")), "__", ".", -1)
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	repo, err := reminder.NewFileSystemRuleRepository(cfg.Reminder.RuleDir)
	if err != nil {
		return nil, fmt.Errorf("failed to load reminder rules: %w", err)
	}
	cfg.Rules = repo.GetRules()

	return &cfg, nil
}
