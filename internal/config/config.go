// Package config provides configuration management for the scholar gateway.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the scholar gateway.
type Config struct {
	// Server contains HTTP server settings.
	Server ServerConfig `mapstructure:"server"`
	// Logging contains structured logging settings.
	Logging LoggingConfig `mapstructure:"logging"`
	// Metrics contains Prometheus metrics exposure settings.
	Metrics MetricsConfig `mapstructure:"metrics"`
	// Scholar contains scholarly proxy client settings.
	Scholar ScholarConfig `mapstructure:"scholar"`
	// Extraction contains document extraction settings.
	Extraction ExtractionConfig `mapstructure:"extraction"`
}

// ServerConfig holds server configuration.
type ServerConfig struct {
	// Host is the address to bind the server to (default: 0.0.0.0).
	Host string `mapstructure:"host"`
	// HTTPPort is the HTTP server port (default: 8080).
	HTTPPort int `mapstructure:"http_port"`
	// MetricsPort is the metrics server port (default: 9091).
	MetricsPort int `mapstructure:"metrics_port"`
	// ReadTimeout is the maximum duration for reading request body.
	ReadTimeout time.Duration `mapstructure:"read_timeout"`
	// WriteTimeout is the maximum duration for writing response.
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	// ShutdownTimeout is the maximum duration to wait for graceful shutdown.
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	// Level is the log level (trace, debug, info, warn, error, fatal, panic).
	Level string `mapstructure:"level"`
	// Format is the log format (json, console).
	Format string `mapstructure:"format"`
	// Output is the log output destination (stdout, stderr, file path).
	Output string `mapstructure:"output"`
	// AddSource adds source file and line to log output.
	AddSource bool `mapstructure:"add_source"`
	// TimeFormat is the timestamp format.
	TimeFormat string `mapstructure:"time_format"`
}

// MetricsConfig holds metrics configuration.
type MetricsConfig struct {
	// Enabled enables metrics collection and exposure.
	Enabled bool `mapstructure:"enabled"`
	// Path is the HTTP path for metrics endpoint.
	Path string `mapstructure:"path"`
}

// ScholarConfig holds scholarly proxy client settings.
type ScholarConfig struct {
	// BaseURL is the base URL of the scholarly proxy API.
	BaseURL string `mapstructure:"base_url"`
	// APIKey is the proxy API key (loaded from SCHOLARGW_SCHOLAR_API_KEY env var).
	APIKey string `mapstructure:"-"`
	// Timeout is the timeout for proxy calls.
	Timeout time.Duration `mapstructure:"timeout"`
	// RateLimit is the maximum requests per second against the proxy.
	RateLimit float64 `mapstructure:"rate_limit"`
	// BurstSize is the burst size for the proxy rate limiter.
	BurstSize int `mapstructure:"burst_size"`
	// PageSize is the number of records fetched per proxy page.
	PageSize int `mapstructure:"page_size"`
	// MaxRetries is the number of transport-level retries on 429/5xx.
	// Zero disables retries so upstream failures surface to the caller.
	MaxRetries int `mapstructure:"max_retries"`
}

// ExtractionConfig holds document extraction settings.
type ExtractionConfig struct {
	// Languages is the OCR language list passed to the engine.
	Languages []string `mapstructure:"languages"`
	// FetchTimeout is the timeout for fetching documents by URL.
	FetchTimeout time.Duration `mapstructure:"fetch_timeout"`
	// MaxFetchBytes caps the size of fetched or decoded documents.
	MaxFetchBytes int64 `mapstructure:"max_fetch_bytes"`
	// AllowPrivateNetworks permits fetching documents from private IP
	// ranges. Leave disabled outside of local development.
	AllowPrivateNetworks bool `mapstructure:"allow_private_networks"`
	// TempDir is the directory for staging fetched documents. Empty
	// means the system temp directory.
	TempDir string `mapstructure:"temp_dir"`
}

// HTTPAddress returns the HTTP server address.
func (c *ServerConfig) HTTPAddress() string {
	return fmt.Sprintf("%s:%d", c.Host, c.HTTPPort)
}

// MetricsAddress returns the metrics server address.
func (c *ServerConfig) MetricsAddress() string {
	return fmt.Sprintf("%s:%d", c.Host, c.MetricsPort)
}

// Load loads configuration from environment variables and config files.
func Load() (*Config, error) {
	v := viper.New()

	// Set defaults
	setDefaults(v)

	// Read from environment variables
	v.SetEnvPrefix("SCHOLARGW")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file if present
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/scholar-gateway")

	if err := v.ReadInConfig(); err != nil {
		var configNotFound viper.ConfigFileNotFoundError
		if !errors.As(err, &configNotFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found is OK, we'll use env vars and defaults
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Load secrets exclusively from environment variables.
	// These fields use mapstructure:"-" to prevent loading from config files.
	loadSecrets(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// loadSecrets populates secret fields exclusively from environment variables.
func loadSecrets(cfg *Config) {
	cfg.Scholar.APIKey = os.Getenv("SCHOLARGW_SCHOLAR_API_KEY")
}

// setDefaults sets default configuration values.
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.http_port", 8080)
	v.SetDefault("server.metrics_port", 9091)
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "60s")
	v.SetDefault("server.shutdown_timeout", "30s")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.output", "stdout")
	v.SetDefault("logging.add_source", false)
	v.SetDefault("logging.time_format", time.RFC3339)

	// Metrics defaults
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")

	// Scholar proxy defaults. The proxy scrapes Google Scholar, so the
	// request rate stays conservative and failures are not retried.
	v.SetDefault("scholar.base_url", "http://localhost:8090/api/v1")
	v.SetDefault("scholar.timeout", "30s")
	v.SetDefault("scholar.rate_limit", 1.0)
	v.SetDefault("scholar.burst_size", 2)
	v.SetDefault("scholar.page_size", 20)
	v.SetDefault("scholar.max_retries", 0)

	// Extraction defaults
	v.SetDefault("extraction.languages", []string{"eng"})
	v.SetDefault("extraction.fetch_timeout", "30s")
	v.SetDefault("extraction.max_fetch_bytes", 50*1024*1024)
	v.SetDefault("extraction.allow_private_networks", false)
	v.SetDefault("extraction.temp_dir", "")
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	// Validate server ports
	if c.Server.HTTPPort <= 0 || c.Server.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", c.Server.HTTPPort)
	}
	if c.Server.MetricsPort <= 0 || c.Server.MetricsPort > 65535 {
		return fmt.Errorf("invalid metrics port: %d", c.Server.MetricsPort)
	}

	// Validate log level
	validLogLevels := map[string]bool{
		"trace": true, "debug": true, "info": true,
		"warn": true, "error": true, "fatal": true, "panic": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		return fmt.Errorf("invalid log level: %s", c.Logging.Level)
	}

	// Validate scholar proxy config
	if c.Scholar.BaseURL == "" {
		return fmt.Errorf("scholar base URL is required")
	}
	if c.Scholar.RateLimit <= 0 {
		return fmt.Errorf("scholar rate limit must be positive")
	}
	if c.Scholar.PageSize <= 0 {
		return fmt.Errorf("scholar page size must be positive")
	}
	if c.Scholar.MaxRetries < 0 {
		return fmt.Errorf("scholar max_retries must not be negative")
	}

	// Validate extraction config
	if len(c.Extraction.Languages) == 0 {
		return fmt.Errorf("at least one extraction language is required")
	}
	if c.Extraction.MaxFetchBytes <= 0 {
		return fmt.Errorf("extraction max_fetch_bytes must be positive")
	}

	return nil
}
