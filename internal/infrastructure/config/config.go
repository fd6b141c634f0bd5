package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	Telemetry TelemetryConfig
	Activity  ActivityConfig
	Catalog   CatalogConfig
	Logging   LogConfig
	RateLimit RateLimitConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port string `envconfig:"PORT" default:"8000"`
	Host string `envconfig:"HOST" default:"0.0.0.0"`
}

// TelemetryConfig holds trace export configuration.
type TelemetryConfig struct {
	Enabled        bool   `envconfig:"OTEL_ENABLED" default:"true"`
	Endpoint       string `envconfig:"OTEL_EXPORTER_OTLP_ENDPOINT" default:"localhost:4318"`
	Insecure       bool   `envconfig:"OTEL_EXPORTER_OTLP_INSECURE" default:"true"`
	ServiceName    string `envconfig:"OTEL_SERVICE_NAME" default:"traceshop-storefront"`
	ServiceVersion string `envconfig:"OTEL_SERVICE_VERSION" default:"0.3.0"`
}

// ActivityConfig holds activity tracker defaults.
type ActivityConfig struct {
	HeartbeatInterval time.Duration `envconfig:"ACTIVITY_HEARTBEAT_INTERVAL" default:"1s"`
	InactivityTimeout time.Duration `envconfig:"ACTIVITY_INACTIVITY_TIMEOUT" default:"30s"`
	DebounceThreshold time.Duration `envconfig:"ACTIVITY_DEBOUNCE_THRESHOLD" default:"100ms"`
}

// CatalogConfig holds upstream mock API configuration.
// An empty BaseURL selects the seeded in-memory catalog.
type CatalogConfig struct {
	BaseURL          string        `envconfig:"CATALOG_BASE_URL" default:""`
	RequestTimeout   time.Duration `envconfig:"CATALOG_REQUEST_TIMEOUT" default:"10s"`
	SimulatedLatency time.Duration `envconfig:"CATALOG_SIMULATED_LATENCY" default:"150ms"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"LOG_LEVEL" default:"info"`
	Development bool   `envconfig:"LOG_DEV" default:"false"`
}

// RateLimitConfig holds rate limiting configuration.
type RateLimitConfig struct {
	RequestsPerSecond int  `envconfig:"RATE_LIMIT_RPS" default:"100"`
	Burst             int  `envconfig:"RATE_LIMIT_BURST" default:"200"`
	Enabled           bool `envconfig:"RATE_LIMIT_ENABLED" default:"true"`
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
			Port: "8000",
			Host: "0.0.0.0",
		},
		Telemetry: TelemetryConfig{
			Enabled:        true,
			Endpoint:       "localhost:4318",
			Insecure:       true,
			ServiceName:    "traceshop-storefront",
			ServiceVersion: "0.3.0",
		},
		Activity: ActivityConfig{
			HeartbeatInterval: time.Second,
			InactivityTimeout: 30 * time.Second,
			DebounceThreshold: 100 * time.Millisecond,
		},
		Catalog: CatalogConfig{
			RequestTimeout:   10 * time.Second,
			SimulatedLatency: 150 * time.Millisecond,
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
