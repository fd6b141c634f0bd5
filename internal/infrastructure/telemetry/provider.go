package telemetry

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	traceapi "go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"

	"github.com/traceshop/backend/internal/infrastructure/config"
	"github.com/traceshop/backend/internal/infrastructure/logging"
	"github.com/traceshop/backend/internal/infrastructure/monitoring"
)

// flushableTracerProvider narrows the SDK provider to the operations the
// backend needs, so a disabled (no-op) provider can satisfy the same surface.
type flushableTracerProvider interface {
	Tracer(instrumentationName string, opts ...traceapi.TracerOption) traceapi.Tracer
	ForceFlush(ctx context.Context) error
	Shutdown(ctx context.Context) error
}

// noopFlushTracerProvider adds no-op flush and shutdown to a TracerProvider.
type noopFlushTracerProvider struct{ traceapi.TracerProvider }

func (n *noopFlushTracerProvider) ForceFlush(ctx context.Context) error { return nil }
func (n *noopFlushTracerProvider) Shutdown(ctx context.Context) error   { return nil }

// Provider owns the tracer provider and the export pipeline.
type Provider struct {
	tp      flushableTracerProvider
	logger  *logging.Logger
	metrics *monitoring.Metrics
}

// New builds a Provider from configuration. When telemetry is disabled the
// provider is a no-op and Flush/Shutdown always succeed.
func New(ctx context.Context, cfg config.TelemetryConfig, logger *logging.Logger) (*Provider, error) {
	if logger == nil {
		logger = logging.NewNop()
	}

	if !cfg.Enabled {
		return &Provider{
			tp:     &noopFlushTracerProvider{TracerProvider: noop.NewTracerProvider()},
			logger: logger,
		}, nil
	}

	opts := []otlptracehttp.Option{otlptracehttp.WithEndpoint(cfg.Endpoint)}
	if cfg.Insecure {
		opts = append(opts, otlptracehttp.WithInsecure())
	}

	exporter, err := otlptracehttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("building OTLP HTTP exporter: %w", err)
	}

	r, err := resource.Merge(
		resource.Default(),
		resource.NewSchemaless(
			semconv.ServiceNameKey.String(cfg.ServiceName),
			semconv.ServiceVersionKey.String(cfg.ServiceVersion),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("building telemetry resource: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(r),
	)
	otel.SetTracerProvider(tp)

	return &Provider{tp: tp, logger: logger}, nil
}

// NewWithTracerProvider wraps an existing SDK provider. Used by tests that
// want an in-memory span recorder behind the same Provider surface.
func NewWithTracerProvider(tp *sdktrace.TracerProvider, logger *logging.Logger) *Provider {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Provider{tp: tp, logger: logger}
}

// WithMetrics attaches a metrics collector for flush instrumentation.
func (p *Provider) WithMetrics(m *monitoring.Metrics) *Provider {
	p.metrics = m
	return p
}

// Tracer returns a named tracer from the owned provider.
func (p *Provider) Tracer(name string) traceapi.Tracer {
	return p.tp.Tracer(name)
}

// Flush drains buffered spans through the export pipeline. Failures are
// logged and swallowed: telemetry loss must never block a navigation or a
// business flow.
func (p *Provider) Flush(ctx context.Context) {
	timer := monitoring.NewFlushTimer(p.metrics)
	if err := p.tp.ForceFlush(ctx); err != nil {
		timer.Stop("error")
		p.logger.Warn("trace flush failed", zap.Error(err))
		return
	}
	timer.Stop("success")
	p.logger.Debug("trace flush completed")
}

// Shutdown flushes and releases the export pipeline.
func (p *Provider) Shutdown(ctx context.Context) error {
	return p.tp.Shutdown(ctx)
}
