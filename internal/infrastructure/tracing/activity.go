package tracing

import (
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/traceshop/backend/internal/infrastructure/logging"
	"github.com/traceshop/backend/internal/infrastructure/monitoring"
)

// Activity tracker event names.
const (
	eventTrackingStarted = "activity.tracking.started"
	eventTrackingStopped = "activity.tracking.stopped"
	eventHeartbeat       = "activity.heartbeat"
	eventInactivity      = "activity.inactive"
	eventUserAction      = "user.action"
)

// TrackerConfig holds the timing knobs of an activity session.
type TrackerConfig struct {
	HeartbeatInterval time.Duration
	InactivityTimeout time.Duration
	DebounceThreshold time.Duration
}

// DefaultTrackerConfig mirrors the browser defaults: 1s heartbeat, 30s
// inactivity deadline, 100ms interaction debounce.
func DefaultTrackerConfig() TrackerConfig {
	return TrackerConfig{
		HeartbeatInterval: time.Second,
		InactivityTimeout: 30 * time.Second,
		DebounceThreshold: 100 * time.Millisecond,
	}
}

// TrackerFactory creates activity sessions bound to one registry. Injected
// into the API layer so pages start tracking without importing the clock or
// metrics wiring.
type TrackerFactory struct {
	registry *Registry
	cfg      TrackerConfig
	clock    clock.Clock
	logger   *logging.Logger
	metrics  *monitoring.Metrics
}

// NewTrackerFactory creates a factory with the real clock.
func NewTrackerFactory(registry *Registry, cfg TrackerConfig, logger *logging.Logger) *TrackerFactory {
	if logger == nil {
		logger = logging.NewNop()
	}
	if cfg.HeartbeatInterval <= 0 {
		cfg.HeartbeatInterval = time.Second
	}
	if cfg.InactivityTimeout <= 0 {
		cfg.InactivityTimeout = 30 * time.Second
	}
	if cfg.DebounceThreshold < 0 {
		cfg.DebounceThreshold = 0
	}
	return &TrackerFactory{
		registry: registry,
		cfg:      cfg,
		clock:    clock.New(),
		logger:   logger,
	}
}

// WithClock substitutes the clock, enabling deterministic timer tests.
func (f *TrackerFactory) WithClock(c clock.Clock) *TrackerFactory {
	f.clock = c
	return f
}

// WithMetrics attaches a metrics collector.
func (f *TrackerFactory) WithMetrics(m *monitoring.Metrics) *TrackerFactory {
	f.metrics = m
	return f
}

// Start begins tracking activity against the span registered under spanKey
// and returns the owning session handle. The caller must call Stop when the
// page unmounts or the flow ends; the handle owns both timers, so forgetting
// it leaks a goroutine that keeps annotating a missing span as no-ops.
func (f *TrackerFactory) Start(spanKey string) *Session {
	s := &Session{
		registry:     f.registry,
		spanKey:      spanKey,
		cfg:          f.cfg,
		clock:        f.clock,
		logger:       f.logger,
		metrics:      f.metrics,
		done:         make(chan struct{}),
		startedAt:    f.clock.Now(),
		lastActivity: f.clock.Now(),
	}
	s.heartbeat = f.clock.Ticker(f.cfg.HeartbeatInterval)
	s.inactivity = f.clock.Timer(f.cfg.InactivityTimeout)

	f.registry.AddSpanEvent(spanKey, eventTrackingStarted,
		attribute.Int64("heartbeat_interval_ms", f.cfg.HeartbeatInterval.Milliseconds()),
		attribute.Int64("inactivity_timeout_ms", f.cfg.InactivityTimeout.Milliseconds()),
	)
	if f.metrics != nil {
		f.metrics.IncTrackersActive()
		f.metrics.RecordActivityEvent("started")
	}

	go s.run()
	return s
}

// Session is a running activity tracker bound to one flow span. Interaction
// notifications arrive via Observe and Action; two timers emit heartbeat and
// inactivity annotations independently of interaction traffic.
type Session struct {
	registry *Registry
	spanKey  string
	cfg      TrackerConfig
	clock    clock.Clock
	logger   *logging.Logger
	metrics  *monitoring.Metrics

	heartbeat  *clock.Ticker
	inactivity *clock.Timer
	done       chan struct{}
	stopOnce   sync.Once

	mu           sync.Mutex
	startedAt    time.Time
	lastActivity time.Time
	stopped      bool
}

// SpanKey returns the span key this session annotates.
func (s *Session) SpanKey() string {
	return s.spanKey
}

// run is the single emitter goroutine: heartbeat and inactivity annotations
// come from here, so their order per span matches wall-clock order.
func (s *Session) run() {
	for {
		select {
		case <-s.heartbeat.C:
			s.emitHeartbeat()
		case <-s.inactivity.C:
			s.emitInactivity()
		case <-s.done:
			return
		}
	}
}

// emitHeartbeat fires every interval regardless of activity. This is what
// guarantees no trace-visible gap longer than roughly one interval, so the
// exporter's batch window never perceives a paused transaction as dead.
func (s *Session) emitHeartbeat() {
	s.mu.Lock()
	idle := s.clock.Now().Sub(s.lastActivity)
	s.mu.Unlock()

	s.registry.AddSpanEvent(s.spanKey, eventHeartbeat,
		attribute.Int64("idle_ms", idle.Milliseconds()),
		attribute.Bool("is_idle", idle > s.cfg.InactivityTimeout),
	)
	if s.metrics != nil {
		s.metrics.RecordHeartbeat()
	}
}

// emitInactivity annotates the span once per idle period. Tracking keeps
// going; the timer is rearmed by the next interaction.
func (s *Session) emitInactivity() {
	s.registry.AddSpanEvent(s.spanKey, eventInactivity,
		attribute.Int64("timeout_ms", s.cfg.InactivityTimeout.Milliseconds()),
	)
	if s.metrics != nil {
		s.metrics.RecordActivityEvent("inactivity")
	}
}

// Observe reports a low-level interaction (pointer, key, scroll, touch,
// focus, input). Interactions inside the debounce window emit no event but
// still reset the idle clock and the inactivity timer. Returns whether an
// activity event was emitted.
func (s *Session) Observe(kind string) bool {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return false
	}
	now := s.clock.Now()
	elapsed := now.Sub(s.lastActivity)
	s.lastActivity = now
	s.mu.Unlock()

	s.inactivity.Reset(s.cfg.InactivityTimeout)

	if elapsed < s.cfg.DebounceThreshold {
		return false
	}

	s.registry.RecordSpanActivity(s.spanKey, kind,
		attribute.Int64("elapsed_ms", elapsed.Milliseconds()),
	)
	if s.metrics != nil {
		s.metrics.RecordActivityEvent("interaction")
	}
	return true
}

// Action reports an explicit high-value user action (item added, order
// submitted). It bypasses the debounce and always emits while the session
// is running.
func (s *Session) Action(label string, attrs ...attribute.KeyValue) bool {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return false
	}
	s.lastActivity = s.clock.Now()
	s.mu.Unlock()

	s.inactivity.Reset(s.cfg.InactivityTimeout)

	s.registry.AddSpanEvent(s.spanKey, eventUserAction, append(attrs,
		attribute.String("action.label", label),
	)...)
	if s.metrics != nil {
		s.metrics.RecordActivityEvent("action")
	}
	return true
}

// Stop disarms both timers, halts the emitter goroutine, and emits a final
// summary event if the target span is still registered. Idempotent.
func (s *Session) Stop() {
	s.stopOnce.Do(func() {
		s.mu.Lock()
		s.stopped = true
		duration := s.clock.Now().Sub(s.startedAt)
		s.mu.Unlock()

		s.heartbeat.Stop()
		s.inactivity.Stop()
		close(s.done)

		if _, ok := s.registry.GetSpan(s.spanKey); ok {
			s.registry.AddSpanEvent(s.spanKey, eventTrackingStopped,
				attribute.Int64("session_duration_ms", duration.Milliseconds()),
			)
		} else {
			s.logger.Debug("tracker stopped after its span ended",
				zap.String("span_key", s.spanKey),
			)
		}
		if s.metrics != nil {
			s.metrics.DecTrackersActive()
			s.metrics.RecordActivityEvent("stopped")
		}
	})
}
