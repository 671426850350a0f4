// Package config provides configuration management for the scholar gateway.
package config

import (
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	// Clear any existing env vars that might interfere
	clearEnvVars(t)

	cfg, err := Load()
	require.NoError(t, err)
	require.NotNil(t, cfg)

	// Server defaults
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, 8080, cfg.Server.HTTPPort)
	assert.Equal(t, 9091, cfg.Server.MetricsPort)
	assert.Equal(t, 30*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, 60*time.Second, cfg.Server.WriteTimeout)

	// Logging defaults
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)

	// Metrics defaults
	assert.True(t, cfg.Metrics.Enabled)
	assert.Equal(t, "/metrics", cfg.Metrics.Path)

	// Scholar proxy defaults
	assert.Equal(t, "http://localhost:8090/api/v1", cfg.Scholar.BaseURL)
	assert.Equal(t, 30*time.Second, cfg.Scholar.Timeout)
	assert.Equal(t, 1.0, cfg.Scholar.RateLimit)
	assert.Equal(t, 2, cfg.Scholar.BurstSize)
	assert.Equal(t, 20, cfg.Scholar.PageSize)
	assert.Equal(t, 0, cfg.Scholar.MaxRetries)

	// Extraction defaults
	assert.Equal(t, []string{"eng"}, cfg.Extraction.Languages)
	assert.Equal(t, 30*time.Second, cfg.Extraction.FetchTimeout)
	assert.Equal(t, int64(50*1024*1024), cfg.Extraction.MaxFetchBytes)
	assert.False(t, cfg.Extraction.AllowPrivateNetworks)
}

func TestLoad_EnvironmentOverride(t *testing.T) {
	clearEnvVars(t)

	// Set environment variables with SCHOLARGW prefix
	t.Setenv("SCHOLARGW_SERVER_HTTP_PORT", "8888")
	t.Setenv("SCHOLARGW_SERVER_METRICS_PORT", "9999")
	t.Setenv("SCHOLARGW_LOGGING_LEVEL", "debug")
	t.Setenv("SCHOLARGW_SCHOLAR_BASE_URL", "http://proxy.internal:8090/api/v1")
	t.Setenv("SCHOLARGW_SCHOLAR_RATE_LIMIT", "0.5")
	t.Setenv("SCHOLARGW_SCHOLAR_PAGE_SIZE", "10")
	t.Setenv("SCHOLARGW_EXTRACTION_ALLOW_PRIVATE_NETWORKS", "true")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8888, cfg.Server.HTTPPort)
	assert.Equal(t, 9999, cfg.Server.MetricsPort)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "http://proxy.internal:8090/api/v1", cfg.Scholar.BaseURL)
	assert.Equal(t, 0.5, cfg.Scholar.RateLimit)
	assert.Equal(t, 10, cfg.Scholar.PageSize)
	assert.True(t, cfg.Extraction.AllowPrivateNetworks)
}

func TestLoad_APIKeyFromEnvOnly(t *testing.T) {
	clearEnvVars(t)

	t.Setenv("SCHOLARGW_SCHOLAR_API_KEY", "proxy-key-test")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "proxy-key-test", cfg.Scholar.APIKey)
}

func TestLoad_APIKeyEmptyByDefault(t *testing.T) {
	clearEnvVars(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Empty(t, cfg.Scholar.APIKey)
}

func TestValidate_InvalidPort(t *testing.T) {
	tests := []struct {
		name        string
		modifyFunc  func(*Config)
		expectedErr string
	}{
		{
			name: "HTTP port zero",
			modifyFunc: func(c *Config) {
				c.Server.HTTPPort = 0
			},
			expectedErr: "invalid HTTP port: 0",
		},
		{
			name: "HTTP port negative",
			modifyFunc: func(c *Config) {
				c.Server.HTTPPort = -1
			},
			expectedErr: "invalid HTTP port: -1",
		},
		{
			name: "HTTP port too high",
			modifyFunc: func(c *Config) {
				c.Server.HTTPPort = 70000
			},
			expectedErr: "invalid HTTP port: 70000",
		},
		{
			name: "metrics port invalid",
			modifyFunc: func(c *Config) {
				c.Server.MetricsPort = -5
			},
			expectedErr: "invalid metrics port: -5",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.modifyFunc(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.expectedErr)
		})
	}
}

func TestValidate_LogLevel(t *testing.T) {
	validLevels := []string{"trace", "debug", "info", "warn", "error", "fatal", "panic"}
	for _, level := range validLevels {
		t.Run("valid_"+level, func(t *testing.T) {
			cfg := validConfig()
			cfg.Logging.Level = level
			err := cfg.Validate()
			assert.NoError(t, err)
		})
	}

	t.Run("invalid log level", func(t *testing.T) {
		cfg := validConfig()
		cfg.Logging.Level = "invalid"
		err := cfg.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid log level: invalid")
	})
}

func TestValidate_ScholarConfig(t *testing.T) {
	tests := []struct {
		name        string
		modifyFunc  func(*Config)
		expectedErr string
	}{
		{
			name: "empty base URL",
			modifyFunc: func(c *Config) {
				c.Scholar.BaseURL = ""
			},
			expectedErr: "scholar base URL is required",
		},
		{
			name: "zero rate limit",
			modifyFunc: func(c *Config) {
				c.Scholar.RateLimit = 0
			},
			expectedErr: "scholar rate limit must be positive",
		},
		{
			name: "zero page size",
			modifyFunc: func(c *Config) {
				c.Scholar.PageSize = 0
			},
			expectedErr: "scholar page size must be positive",
		},
		{
			name: "negative max retries",
			modifyFunc: func(c *Config) {
				c.Scholar.MaxRetries = -1
			},
			expectedErr: "scholar max_retries must not be negative",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.modifyFunc(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.expectedErr)
		})
	}
}

func TestValidate_ExtractionConfig(t *testing.T) {
	t.Run("no languages", func(t *testing.T) {
		cfg := validConfig()
		cfg.Extraction.Languages = nil
		err := cfg.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "at least one extraction language is required")
	})

	t.Run("zero max fetch bytes", func(t *testing.T) {
		cfg := validConfig()
		cfg.Extraction.MaxFetchBytes = 0
		err := cfg.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "extraction max_fetch_bytes must be positive")
	})
}

func TestServerConfig_Addresses(t *testing.T) {
	cfg := ServerConfig{
		Host:        "0.0.0.0",
		HTTPPort:    8080,
		MetricsPort: 9091,
	}
	assert.Equal(t, "0.0.0.0:8080", cfg.HTTPAddress())
	assert.Equal(t, "0.0.0.0:9091", cfg.MetricsAddress())
}

// clearEnvVars removes all SCHOLARGW_ prefixed environment variables
func clearEnvVars(t *testing.T) {
	t.Helper()
	for _, env := range os.Environ() {
		if strings.HasPrefix(env, "SCHOLARGW_") {
			key := env[:strings.Index(env, "=")]
			os.Unsetenv(key)
		}
	}
}

// validConfig returns a valid configuration for testing
func validConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:        "0.0.0.0",
			HTTPPort:    8080,
			MetricsPort: 9091,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Scholar: ScholarConfig{
			BaseURL:   "http://localhost:8090/api/v1",
			RateLimit: 1.0,
			PageSize:  20,
		},
		Extraction: ExtractionConfig{
			Languages:     []string{"eng"},
			MaxFetchBytes: 50 * 1024 * 1024,
		},
	}
}
