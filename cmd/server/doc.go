// Package main is the entry point for the TraceShop storefront backend.
//
// The backend serves the demo storefront API (catalog, cart, checkout,
// orders) and the browser-driven tracing surface: a span lifecycle registry
// keyed by application-chosen ids, activity tracking with heartbeats and
// inactivity annotations, and forced trace flushes around navigations.
//
// Architecture:
//
//	Frontend (React) → Go Backend → OTLP Collector (traces)
//	                             → Upstream mock catalog (optional)
//
// Configuration:
//   - Environment variables (12-factor)
//   - CLI flags (override env vars)
//   - Defaults for development
//
// Usage:
//
//	./server -port 8000 -otlp localhost:4318
//
// Signals:
//   - SIGINT, SIGTERM: Graceful shutdown with exporter drain
package main
