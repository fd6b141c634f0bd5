// Package config provides 12-factor configuration management for the storefront backend.
//
// Configuration is loaded from environment variables with sensible defaults.
// CLI flags can override environment variables for development flexibility.
//
// Configuration Sections:
//   - Server: HTTP server settings (port, host)
//   - Telemetry: OTLP trace export settings (endpoint, service identity)
//   - Activity: Activity tracker timing (heartbeat, inactivity, debounce)
//   - Catalog: Upstream mock API settings
//   - Logging: Log level and output format
//   - RateLimit: Per-IP rate limiting configuration
//
// Example Usage:
//
//	cfg := config.LoadOrDefault()
//	fmt.Printf("Server running on %s:%s\n", cfg.Server.Host, cfg.Server.Port)
//
// Environment Variables:
//   - PORT, HOST
//   - OTEL_ENABLED, OTEL_EXPORTER_OTLP_ENDPOINT, OTEL_SERVICE_NAME
//   - ACTIVITY_HEARTBEAT_INTERVAL, ACTIVITY_INACTIVITY_TIMEOUT
//   - CATALOG_BASE_URL, LOG_LEVEL, LOG_DEV
//   - RATE_LIMIT_RPS, RATE_LIMIT_BURST
package config
