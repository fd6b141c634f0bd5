// Package logging provides structured logging using uber/zap.
//
// This package offers production-ready logging with two modes:
//   - Production: JSON output for machine parsing
//   - Development: Colored console output for human readability
//
// The tracing registry and activity tracker log through this package only;
// telemetry failures are logged here and never surfaced to business flows.
//
// Example Usage:
//
//	logger := logging.NewDefault()
//	logger.Info("Server starting", zap.String("port", "8000"))
//	logger.WithFlow(flowID).Warn("span not found", zap.String("op", "endSpan"))
package logging
