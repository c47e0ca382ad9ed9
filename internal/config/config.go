// Package config provides configuration management for the crawl service.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

// Config is the root configuration for the service.
type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Logger    LoggerConfig    `mapstructure:"logger"`
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	ScrapeAPI ScrapeAPIConfig `mapstructure:"scrape_api"`
	LLM       LLMConfig       `mapstructure:"llm"`
	Crawl     CrawlConfig     `mapstructure:"crawl"`
}

// AppConfig holds application-level settings.
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
	Debug       bool   `mapstructure:"debug"`
}

// LoggerConfig holds logging settings.
type LoggerConfig struct {
	Level    string `mapstructure:"level"`
	Encoding string `mapstructure:"encoding"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Address      string        `mapstructure:"address"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
}

// DatabaseConfig holds PostgreSQL settings.
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Database        string        `mapstructure:"database"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxConnections  int           `mapstructure:"max_connections"`
	MaxIdleConns    int           `mapstructure:"max_idle_connections"`
	ConnMaxLifetime time.Duration `mapstructure:"connection_max_lifetime"`
}

// ScrapeAPIConfig holds settings for the external scrape/extract service.
type ScrapeAPIConfig struct {
	BaseURL        string        `mapstructure:"base_url"`
	APIKey         string        `mapstructure:"api_key"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
}

// LLMConfig holds settings for the optional OpenAI-compatible extraction
// backend. Only consulted when crawl.extraction_backend is "llm".
type LLMConfig struct {
	BaseURL string `mapstructure:"base_url"`
	APIKey  string `mapstructure:"api_key"`
	Model   string `mapstructure:"model"`
}

// CrawlConfig holds pipeline tuning knobs.
type CrawlConfig struct {
	DefaultLimit      int           `mapstructure:"default_limit"`
	MaxConcurrentJobs int           `mapstructure:"max_concurrent_jobs"`
	FallbackDelay     time.Duration `mapstructure:"fallback_delay"`
	ExtractionBackend string        `mapstructure:"extraction_backend"` // "scrape_api" or "llm"
}

// Validation errors.
var (
	ErrMissingScrapeAPIURL = errors.New("scrape_api.base_url is required")
	ErrMissingDatabaseHost = errors.New("database.host is required")
)

// Load unmarshals the viper state into a Config. InitializeViper must have
// been called first.
func Load() (*Config, error) {
	var cfg Config

	decodeHook := viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	))

	if err := viper.Unmarshal(&cfg, decodeHook); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks required fields.
func (c *Config) Validate() error {
	if c.Database.Host == "" {
		return ErrMissingDatabaseHost
	}
	if c.ScrapeAPI.BaseURL == "" {
		return ErrMissingScrapeAPIURL
	}
	return nil
}
