// Package config loads engine configuration from environment variables.
package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds all engine configuration.
type Config struct {
	Server  ServerConfig
	Fetch   FetchConfig
	Cache   CacheConfig
	Logging LogConfig
}

// ServerConfig holds the bridge server configuration.
type ServerConfig struct {
	Port string `envconfig:"PORT" default:"8000"`
	Host string `envconfig:"HOST" default:"0.0.0.0"`

	RateLimitEnabled bool `envconfig:"RATE_LIMIT_ENABLED" default:"false"`
	RateLimitRPS     int  `envconfig:"RATE_LIMIT_RPS" default:"100"`
	RateLimitBurst   int  `envconfig:"RATE_LIMIT_BURST" default:"200"`
}

// FetchConfig holds resource-fetching configuration.
type FetchConfig struct {
	UserAgent    string `envconfig:"FETCH_USER_AGENT" default:"BrowserOS-Engine/1.0"`
	FallbackHost string `envconfig:"FETCH_FALLBACK_HOST" default:"example.com"`
	MaxRedirects int    `envconfig:"FETCH_MAX_REDIRECTS" default:"10"`

	// Zero disables the deadline entirely.
	ConnectTimeout time.Duration `envconfig:"FETCH_CONNECT_TIMEOUT" default:"30s"`
	ReadTimeout    time.Duration `envconfig:"FETCH_READ_TIMEOUT" default:"30s"`
	WriteTimeout   time.Duration `envconfig:"FETCH_WRITE_TIMEOUT" default:"30s"`

	RequestsPerSecond float64 `envconfig:"FETCH_RATE_LIMIT_RPS" default:"0"`
}

// CacheConfig holds response cache configuration.
type CacheConfig struct {
	SweepInterval time.Duration `envconfig:"CACHE_SWEEP_INTERVAL" default:"5m"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"LOG_LEVEL" default:"info"`
	Development bool   `envconfig:"LOG_DEV" default:"false"`
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return &cfg, nil
}

// LoadOrDefault loads configuration from environment or returns default.
func LoadOrDefault() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:           "8000",
			Host:           "0.0.0.0",
			RateLimitRPS:   100,
			RateLimitBurst: 200,
		},
		Fetch: FetchConfig{
			UserAgent:      "BrowserOS-Engine/1.0",
			FallbackHost:   "example.com",
			MaxRedirects:   10,
			ConnectTimeout: 30 * time.Second,
			ReadTimeout:    30 * time.Second,
			WriteTimeout:   30 * time.Second,
		},
		Cache: CacheConfig{
			SweepInterval: 5 * time.Minute,
		},
		Logging: LogConfig{
			Level:       "info",
			Development: false,
		},
	}
}
