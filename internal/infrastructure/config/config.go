package config

import (
	"fmt"
	"os"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/pelletier/go-toml/v2"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	Remote    RemoteConfig
	Cache     CacheConfig
	Registry  RegistryConfig
	Auth      AuthConfig
	Logging   LogConfig
	RateLimit RateLimitConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port string `envconfig:"PORT" default:"8000" toml:"port"`
	Host string `envconfig:"HOST" default:"0.0.0.0" toml:"host"`
}

// RemoteConfig holds remote-store replication configuration.
type RemoteConfig struct {
	BaseURL        string        `envconfig:"REMOTE_URL" toml:"base_url"`
	APIKey         string        `envconfig:"REMOTE_API_KEY" toml:"api_key"`
	FeedURL        string        `envconfig:"REMOTE_FEED_URL" toml:"feed_url"`
	FeedEnabled    bool          `envconfig:"REMOTE_FEED_ENABLED" default:"true" toml:"feed_enabled"`
	PollEnabled    bool          `envconfig:"REMOTE_POLL_ENABLED" default:"true" toml:"poll_enabled"`
	PollInterval   time.Duration `envconfig:"REMOTE_POLL_INTERVAL" default:"5s" toml:"poll_interval"`
	BatchSize      int           `envconfig:"REMOTE_BATCH_SIZE" default:"25" toml:"batch_size"`
	FlagClearLag   time.Duration `envconfig:"REMOTE_FLAG_CLEAR_LAG" default:"1s" toml:"flag_clear_lag"`
	RequestTimeout time.Duration `envconfig:"REMOTE_REQUEST_TIMEOUT" default:"10s" toml:"request_timeout"`
}

// CacheConfig holds local durable cache configuration.
type CacheConfig struct {
	Dir string `envconfig:"CACHE_DIR" default:"/tmp/opsdeck-cache" toml:"dir"`
}

// RegistryConfig holds app catalogue configuration.
type RegistryConfig struct {
	ManifestPath string `envconfig:"APPS_MANIFEST" toml:"manifest_path"`
}

// AuthConfig seeds the agent credential registry. The environment form is
// comma-separated pairs: AGENTS="desk1:2481,occ:9911". With no agents the
// token-secured session routes reject every request.
type AuthConfig struct {
	Agents map[string]string `envconfig:"AGENTS" toml:"agents"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"LOG_LEVEL" default:"info" toml:"level"`
	Development bool   `envconfig:"LOG_DEV" default:"false" toml:"development"`
}

// RateLimitConfig holds rate limiting configuration.
type RateLimitConfig struct {
	RequestsPerSecond int  `envconfig:"RATE_LIMIT_RPS" default:"100" toml:"requests_per_second"`
	Burst             int  `envconfig:"RATE_LIMIT_BURST" default:"200" toml:"burst"`
	Enabled           bool `envconfig:"RATE_LIMIT_ENABLED" default:"true" toml:"enabled"`
}

// Load loads configuration from environment variables. When OPSDECK_CONFIG
// points at a TOML file, keys present in that file override the environment.
func Load() (*Config, error) {
	var cfg Config

	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if path := os.Getenv("OPSDECK_CONFIG"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
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
			Port: "8000",
			Host: "0.0.0.0",
		},
		Remote: RemoteConfig{
			FeedEnabled:    true,
			PollEnabled:    true,
			PollInterval:   5 * time.Second,
			BatchSize:      25,
			FlagClearLag:   time.Second,
			RequestTimeout: 10 * time.Second,
		},
		Cache: CacheConfig{
			Dir: "/tmp/opsdeck-cache",
		},
		Logging: LogConfig{
			Level:       "info",
			Development: false,
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 100,
			Burst:             200,
			Enabled:           true,
		},
	}
}
