package telemetry

import (
	"context"
	"testing"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"

	"github.com/traceshop/backend/internal/infrastructure/config"
	"github.com/traceshop/backend/internal/infrastructure/logging"
)

func TestDisabledProviderIsNoop(t *testing.T) {
	cfg := config.TelemetryConfig{Enabled: false}

	provider, err := New(context.Background(), cfg, logging.NewNop())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	// Spans from a no-op provider must not record
	_, span := provider.Tracer("test").Start(context.Background(), "op")
	if span.IsRecording() {
		t.Error("disabled provider should produce non-recording spans")
	}
	span.End()

	// Flush and Shutdown must succeed without an exporter
	provider.Flush(context.Background())
	if err := provider.Shutdown(context.Background()); err != nil {
		t.Errorf("Shutdown failed: %v", err)
	}
}

func TestFlushDrainsRecordedSpans(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithBatcher(exporter))
	provider := NewWithTracerProvider(tp, logging.NewNop())

	_, span := provider.Tracer("test").Start(context.Background(), "checkout")
	span.End()

	// Before a forced flush the batcher may still hold the span
	provider.Flush(context.Background())

	spans := exporter.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("expected 1 exported span after flush, got %d", len(spans))
	}
	if spans[0].Name != "checkout" {
		t.Errorf("expected span name 'checkout', got %q", spans[0].Name)
	}
}

func TestTracerProducesRecordingSpans(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	provider := NewWithTracerProvider(tp, logging.NewNop())

	ctx, span := provider.Tracer("test").Start(context.Background(), "op")
	if !span.IsRecording() {
		t.Error("expected recording span from SDK provider")
	}
	if !trace.SpanContextFromContext(ctx).IsValid() {
		t.Error("expected valid span context")
	}
	span.End()
}
