/*
Package monitoring provides performance monitoring and metrics collection.

# Overview

This package implements Prometheus-based metrics collection for the storefront
backend, tracking HTTP requests, span registry activity, activity tracker
sessions, forced flushes, and order placement.

# Features

- HTTP request metrics (latency, throughput, size)
- Span registry metrics (started, ended, active, lookup misses)
- Activity tracker metrics (running sessions, heartbeats, event kinds)
- Forced flush metrics (status, duration)
- Storefront metrics (orders placed, active carts)
- System metrics (uptime)

# Usage

	// Create metrics collector
	metrics := monitoring.NewMetrics()

	// Add middleware to Gin router
	router.Use(monitoring.Middleware(metrics))

	// Record registry activity
	metrics.RecordSpanStarted("flow")
	metrics.RecordSpanEnded("flow", true)

	// Time a forced flush
	timer := monitoring.NewFlushTimer(metrics)
	// ... flush ...
	timer.Stop("success")

# Metrics Endpoint

Expose metrics via the standard Prometheus endpoint:

	import "github.com/prometheus/client_golang/prometheus/promhttp"
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
*/
package monitoring
