package tracing

import (
	"context"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/traceshop/backend/internal/infrastructure/logging"
)

func newTestTracker(t *testing.T, cfg TrackerConfig) (*TrackerFactory, *Registry, *tracetest.InMemoryExporter, *clock.Mock) {
	t.Helper()
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	registry := NewRegistry(tp.Tracer("test"), nil, logging.NewNop())
	mock := clock.NewMock()
	factory := NewTrackerFactory(registry, cfg, logging.NewNop()).WithClock(mock)
	return factory, registry, exporter, mock
}

// advance moves the mock clock in single steps so the session goroutine can
// drain each tick before the next one fires.
func advance(mock *clock.Mock, step time.Duration, n int) {
	for i := 0; i < n; i++ {
		mock.Add(step)
		time.Sleep(time.Millisecond)
	}
}

func countEvents(t *testing.T, exporter *tracetest.InMemoryExporter, name string) int {
	t.Helper()
	count := 0
	for _, span := range exporter.GetSpans() {
		for _, ev := range span.Events {
			if ev.Name == name {
				count++
			}
		}
	}
	return count
}

func TestHeartbeatCadence(t *testing.T) {
	factory, registry, exporter, mock := newTestTracker(t, TrackerConfig{
		HeartbeatInterval: time.Second,
		InactivityTimeout: 30 * time.Second,
		DebounceThreshold: 100 * time.Millisecond,
	})

	registry.StartSpan("flow.shopping", "shop-1", nil, true)
	session := factory.Start("shop-1")

	advance(mock, time.Second, 3)

	session.Stop()
	registry.EndSpan("shop-1", false)

	if got := countEvents(t, exporter, eventHeartbeat); got != 3 {
		t.Errorf("expected 3 heartbeats after 3 intervals, got %d", got)
	}
	if got := countEvents(t, exporter, eventTrackingStarted); got != 1 {
		t.Errorf("expected 1 tracking start event, got %d", got)
	}
	if got := countEvents(t, exporter, eventTrackingStopped); got != 1 {
		t.Errorf("expected 1 tracking stop event, got %d", got)
	}
}

func TestInactivityAnnotationWithoutStopping(t *testing.T) {
	factory, registry, exporter, mock := newTestTracker(t, TrackerConfig{
		HeartbeatInterval: time.Second,
		InactivityTimeout: 5 * time.Second,
		DebounceThreshold: 100 * time.Millisecond,
	})

	registry.StartSpan("flow.shopping", "shop-1", nil, true)
	session := factory.Start("shop-1")

	// No interactions: the inactivity timer fires once at 5s while
	// heartbeats keep going.
	advance(mock, time.Second, 7)

	session.Stop()
	registry.EndSpan("shop-1", false)

	if got := countEvents(t, exporter, eventInactivity); got != 1 {
		t.Errorf("expected 1 inactivity annotation, got %d", got)
	}
	if got := countEvents(t, exporter, eventHeartbeat); got != 7 {
		t.Errorf("heartbeats must continue through inactivity, got %d", got)
	}
}

func TestObserveDebounce(t *testing.T) {
	factory, registry, exporter, mock := newTestTracker(t, TrackerConfig{
		HeartbeatInterval: time.Hour, // keep heartbeats out of the way
		InactivityTimeout: 30 * time.Second,
		DebounceThreshold: 100 * time.Millisecond,
	})

	registry.StartSpan("flow.shopping", "shop-1", nil, true)
	session := factory.Start("shop-1")

	mock.Add(200 * time.Millisecond)
	if !session.Observe("pointerdown") {
		t.Error("interaction past the debounce window should emit")
	}
	if session.Observe("pointermove") {
		t.Error("interaction inside the debounce window must be suppressed")
	}
	mock.Add(50 * time.Millisecond)
	if session.Observe("scroll") {
		t.Error("50ms after last interaction is still inside the window")
	}
	mock.Add(150 * time.Millisecond)
	if !session.Observe("keydown") {
		t.Error("interaction past the window should emit again")
	}

	session.Stop()
	registry.EndSpan("shop-1", false)

	if got := countEvents(t, exporter, eventInteraction); got != 2 {
		t.Errorf("expected 2 interaction events, got %d", got)
	}
}

func TestObserveResetsInactivityTimer(t *testing.T) {
	factory, registry, exporter, mock := newTestTracker(t, TrackerConfig{
		HeartbeatInterval: time.Hour,
		InactivityTimeout: 5 * time.Second,
		DebounceThreshold: 100 * time.Millisecond,
	})

	registry.StartSpan("flow.shopping", "shop-1", nil, true)
	session := factory.Start("shop-1")

	advance(mock, time.Second, 4)
	session.Observe("pointerdown")
	advance(mock, time.Second, 4)

	if got := countEvents(t, exporter, eventInactivity); got != 0 {
		t.Errorf("debounced interaction must rearm the inactivity timer, got %d annotations", got)
	}

	advance(mock, time.Second, 2)
	session.Stop()
	registry.EndSpan("shop-1", false)

	if got := countEvents(t, exporter, eventInactivity); got != 1 {
		t.Errorf("expected inactivity annotation after idle period, got %d", got)
	}
}

func TestActionBypassesDebounce(t *testing.T) {
	factory, registry, exporter, _ := newTestTracker(t, TrackerConfig{
		HeartbeatInterval: time.Hour,
		InactivityTimeout: 30 * time.Second,
		DebounceThreshold: 100 * time.Millisecond,
	})

	registry.StartSpan("flow.checkout", "checkout-1", nil, true)
	session := factory.Start("checkout-1")

	if !session.Action("cart.item_added") {
		t.Error("first action should emit")
	}
	if !session.Action("order.submitted") {
		t.Error("back-to-back action must not be debounced")
	}

	session.Stop()
	registry.EndSpan("checkout-1", false)

	if got := countEvents(t, exporter, eventUserAction); got != 2 {
		t.Errorf("expected 2 action events, got %d", got)
	}
}

func TestStopIsIdempotent(t *testing.T) {
	factory, registry, exporter, _ := newTestTracker(t, DefaultTrackerConfig())

	registry.StartSpan("flow.shopping", "shop-1", nil, true)
	session := factory.Start("shop-1")

	session.Stop()
	session.Stop()

	if session.Observe("pointerdown") {
		t.Error("stopped session must ignore interactions")
	}
	if session.Action("cart.item_added") {
		t.Error("stopped session must ignore actions")
	}

	registry.EndSpan("shop-1", false)
	if got := countEvents(t, exporter, eventTrackingStopped); got != 1 {
		t.Errorf("expected 1 stop event, got %d", got)
	}
}

func TestStopAfterSpanEnded(t *testing.T) {
	factory, registry, exporter, _ := newTestTracker(t, DefaultTrackerConfig())

	registry.StartSpan("flow.shopping", "shop-1", nil, true)
	session := factory.Start("shop-1")

	registry.EndSpan("shop-1", false)
	session.Stop()

	// The summary event targets an ended span, so it is dropped rather
	// than attached to anything.
	if got := countEvents(t, exporter, eventTrackingStopped); got != 0 {
		t.Errorf("expected no stop event on ended span, got %d", got)
	}
}
