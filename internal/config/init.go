package config

import (
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Pipeline tuning defaults.
const (
	defaultLimit             = 20
	defaultMaxConcurrentJobs = 4
)

// InitializeViper configures viper from environment variables and an optional
// config file. Must be called before Load.
func InitializeViper(cfgFile string) {
	// .env file not found is fine; environment variables still apply.
	_ = godotenv.Load()

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		viper.AddConfigPath("./config")
	}

	setDefaults()

	// Config file is optional; defaults and environment cover the rest.
	_ = viper.ReadInConfig()
}

// setDefaults sets default configuration values.
func setDefaults() {
	viper.SetDefault("app", map[string]any{
		"name":        "shopcrawl",
		"environment": "production",
		"debug":       false,
	})

	viper.SetDefault("logger", map[string]any{
		"level":    "info",
		"encoding": "json",
	})

	viper.SetDefault("server", map[string]any{
		"address":       ":8070",
		"read_timeout":  "15s",
		"write_timeout": "15s",
		"idle_timeout":  "60s",
	})

	viper.SetDefault("database", map[string]any{
		"host":                    "localhost",
		"port":                    5432,
		"user":                    "postgres",
		"database":                "shopcrawl",
		"sslmode":                 "disable",
		"max_connections":         25,
		"max_idle_connections":    5,
		"connection_max_lifetime": "5m",
	})

	viper.SetDefault("scrape_api", map[string]any{
		"base_url":        "http://localhost:3002",
		"request_timeout": "30s",
	})

	viper.SetDefault("llm", map[string]any{
		"base_url": "",
		"model":    "gpt-4o-mini",
	})

	viper.SetDefault("crawl", map[string]any{
		"default_limit":       defaultLimit,
		"max_concurrent_jobs": defaultMaxConcurrentJobs,
		"fallback_delay":      "500ms",
		"extraction_backend":  "scrape_api",
	})
}
