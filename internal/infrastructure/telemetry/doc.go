/*
Package telemetry owns the OpenTelemetry export pipeline.

# Overview

The Provider wraps an SDK TracerProvider configured with a batching OTLP/HTTP
exporter pointed at the collector endpoint from configuration. The span
lifecycle registry consumes it through a narrow Flusher interface; the only
operations the rest of the backend sees are Tracer, Flush, and Shutdown.

Flush exists because the batch exporter races client-side navigations: a flow
span ended just before the browser navigates away may still sit in the batch
queue. Forcing a drain before navigation (and after critical transaction
spans end) keeps those spans from being lost. Flush failures are logged and
swallowed - telemetry loss is accepted degradation and never propagates.

# Usage

	provider, err := telemetry.New(ctx, cfg.Telemetry, logger)
	if err != nil {
		return err
	}
	defer provider.Shutdown(context.Background())

	tracer := provider.Tracer("storefront")
	provider.Flush(ctx) // before navigation hand-off
*/
package telemetry
