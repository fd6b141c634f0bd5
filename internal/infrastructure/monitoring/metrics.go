package monitoring

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// HTTP metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	RequestSize     *prometheus.HistogramVec
	ResponseSize    *prometheus.HistogramVec

	// Span registry metrics
	SpansStarted  *prometheus.CounterVec
	SpansEnded    *prometheus.CounterVec
	SpansActive   prometheus.Gauge
	SpanLookups   *prometheus.CounterVec
	SpanEvents    *prometheus.CounterVec
	FlushesTotal  *prometheus.CounterVec
	FlushDuration prometheus.Histogram

	// Activity tracker metrics
	TrackersActive  prometheus.Gauge
	HeartbeatsTotal prometheus.Counter
	ActivityEvents  *prometheus.CounterVec

	// Storefront metrics
	OrdersPlaced *prometheus.CounterVec
	CartsActive  prometheus.Gauge

	// System metrics
	Uptime    prometheus.Gauge
	startTime time.Time

	// Snapshot for JSON API - track current values
	snapshot MetricsSnapshot

	mu sync.RWMutex
}

// MetricsSnapshot holds current metric values for JSON API
type MetricsSnapshot struct {
	TotalRequests int64
	TotalErrors   int64
	ActiveSpans   int64
	TotalDuration float64 // sum of all request durations
	RequestCount  int64   // count for averaging
}

// NewMetrics creates a new metrics collector on the default registry
func NewMetrics() *Metrics {
	return NewMetricsWithRegistry(prometheus.DefaultRegisterer)
}

// NewMetricsWithRegistry creates a metrics collector on a caller-supplied
// registry, which keeps parallel test packages from colliding
func NewMetricsWithRegistry(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	m := &Metrics{
		startTime: time.Now(),

		// HTTP metrics
		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "storefront_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "storefront_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),
		RequestSize: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "storefront_http_request_size_bytes",
				Help:    "HTTP request size in bytes",
				Buckets: []float64{100, 1000, 10000, 100000, 1000000},
			},
			[]string{"method", "path"},
		),
		ResponseSize: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "storefront_http_response_size_bytes",
				Help:    "HTTP response size in bytes",
				Buckets: []float64{100, 1000, 10000, 100000, 1000000},
			},
			[]string{"method", "path"},
		),

		// Span registry metrics
		SpansStarted: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "storefront_spans_started_total",
				Help: "Total number of spans registered",
			},
			[]string{"category"},
		),
		SpansEnded: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "storefront_spans_ended_total",
				Help: "Total number of spans ended and deregistered",
			},
			[]string{"category", "critical"},
		),
		SpansActive: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "storefront_spans_active",
				Help: "Number of spans currently registered",
			},
		),
		SpanLookups: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "storefront_span_lookups_total",
				Help: "Span registry lookups by outcome",
			},
			[]string{"operation", "outcome"},
		),
		SpanEvents: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "storefront_span_events_total",
				Help: "Events attached to registered spans",
			},
			[]string{"kind"},
		),
		FlushesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "storefront_trace_flushes_total",
				Help: "Forced exporter flushes by status",
			},
			[]string{"status"},
		),
		FlushDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "storefront_trace_flush_duration_seconds",
				Help:    "Forced exporter flush duration in seconds",
				Buckets: []float64{.001, .005, .01, .05, .1, .5, 1, 5},
			},
		),

		// Activity tracker metrics
		TrackersActive: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "storefront_activity_trackers_active",
				Help: "Number of running activity tracker sessions",
			},
		),
		HeartbeatsTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "storefront_activity_heartbeats_total",
				Help: "Total heartbeat events emitted",
			},
		),
		ActivityEvents: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "storefront_activity_events_total",
				Help: "Activity tracker events by kind",
			},
			[]string{"kind"},
		),

		// Storefront metrics
		OrdersPlaced: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "storefront_orders_placed_total",
				Help: "Orders placed by status",
			},
			[]string{"status"},
		),
		CartsActive: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "storefront_carts_active",
				Help: "Number of non-empty carts",
			},
		),

		// System metrics
		Uptime: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "storefront_uptime_seconds",
				Help: "Backend uptime in seconds",
			},
		),
	}

	// Start uptime updater
	go m.updateUptime()

	return m
}

// updateUptime continuously updates the uptime metric
func (m *Metrics) updateUptime() {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for range ticker.C {
		m.Uptime.Set(time.Since(m.startTime).Seconds())
	}
}

// RecordHTTPRequest records an HTTP request
func (m *Metrics) RecordHTTPRequest(method, path, status string, duration time.Duration, reqSize, respSize int64) {
	m.RequestsTotal.WithLabelValues(method, path, status).Inc()
	m.RequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
	m.RequestSize.WithLabelValues(method, path).Observe(float64(reqSize))
	m.ResponseSize.WithLabelValues(method, path).Observe(float64(respSize))

	// Update snapshot
	m.mu.Lock()
	m.snapshot.TotalRequests++
	m.snapshot.TotalDuration += duration.Seconds()
	m.snapshot.RequestCount++
	if len(status) > 0 && (status[0] == '4' || status[0] == '5') {
		m.snapshot.TotalErrors++
	}
	m.mu.Unlock()
}

// RecordSpanStarted records a span registration
func (m *Metrics) RecordSpanStarted(category string) {
	m.SpansStarted.WithLabelValues(category).Inc()
	m.SpansActive.Inc()
	m.mu.Lock()
	m.snapshot.ActiveSpans++
	m.mu.Unlock()
}

// RecordSpanEnded records a span removal
func (m *Metrics) RecordSpanEnded(category string, critical bool) {
	criticalLabel := "false"
	if critical {
		criticalLabel = "true"
	}
	m.SpansEnded.WithLabelValues(category, criticalLabel).Inc()
	m.SpansActive.Dec()
	m.mu.Lock()
	m.snapshot.ActiveSpans--
	m.mu.Unlock()
}

// RecordSpanLookup records a registry lookup outcome
func (m *Metrics) RecordSpanLookup(operation string, found bool) {
	outcome := "hit"
	if !found {
		outcome = "miss"
	}
	m.SpanLookups.WithLabelValues(operation, outcome).Inc()
}

// RecordSpanEvent records an event attached to a span
func (m *Metrics) RecordSpanEvent(kind string) {
	m.SpanEvents.WithLabelValues(kind).Inc()
}

// RecordFlush records a forced flush attempt
func (m *Metrics) RecordFlush(status string, duration time.Duration) {
	m.FlushesTotal.WithLabelValues(status).Inc()
	m.FlushDuration.Observe(duration.Seconds())
}

// RecordHeartbeat records a heartbeat emission
func (m *Metrics) RecordHeartbeat() {
	m.HeartbeatsTotal.Inc()
	m.ActivityEvents.WithLabelValues("heartbeat").Inc()
}

// RecordActivityEvent records a tracker event by kind
func (m *Metrics) RecordActivityEvent(kind string) {
	m.ActivityEvents.WithLabelValues(kind).Inc()
}

// SetTrackersActive sets the number of running tracker sessions
func (m *Metrics) SetTrackersActive(count int) {
	m.TrackersActive.Set(float64(count))
}

// IncTrackersActive increments running tracker sessions
func (m *Metrics) IncTrackersActive() {
	m.TrackersActive.Inc()
}

// DecTrackersActive decrements running tracker sessions
func (m *Metrics) DecTrackersActive() {
	m.TrackersActive.Dec()
}

// RecordOrderPlaced records an order placement outcome
func (m *Metrics) RecordOrderPlaced(status string) {
	m.OrdersPlaced.WithLabelValues(status).Inc()
}

// SetCartsActive sets the number of non-empty carts
func (m *Metrics) SetCartsActive(count int) {
	m.CartsActive.Set(float64(count))
}

// GetSnapshot returns current metric values for the JSON stats endpoint
func (m *Metrics) GetSnapshot() MetricsSnapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.snapshot
}
