package tracing

import (
	"context"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// FlowHeader carries the registry key of the browser-side flow span a request
// belongs to. Requests without it (or with a key for a flow that already
// ended) get a standalone server span.
const FlowHeader = "X-Flow-ID"

// contextKeySpanKey is the gin context key under which the request span's
// registry key is stored for handlers.
const contextKeySpanKey = "tracing.span_key"

// HTTPMiddleware creates gin middleware that opens a server span per request
// and registers it for the duration of the handler chain. When the request
// names a live flow via the X-Flow-ID header, the request span joins that
// flow's trace.
func HTTPMiddleware(registry *Registry) gin.HandlerFunc {
	return func(c *gin.Context) {
		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}
		name := c.Request.Method + " " + route
		key := CategoryInternal.NewKey()
		flowKey := c.GetHeader(FlowHeader)

		span, ok := registry.StartRequestSpan(name, flowKey, key, c.Request.URL.String(), c.Request.Method)
		if !ok {
			// Flow ended between the browser sending the header and the
			// request arriving. Trace the request standalone.
			span, _ = registry.StartRequestSpan(name, "", key, c.Request.URL.String(), c.Request.Method)
		}

		c.Set(contextKeySpanKey, key)
		c.Header("X-Span-ID", key)

		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		span.SetAttributes(
			attribute.Int("http.status_code", status),
			attribute.Int64("http.duration_ms", time.Since(start).Milliseconds()),
		)
		if status >= 500 {
			span.SetStatus(codes.Error, strconv.Itoa(status))
		}
		if len(c.Errors) > 0 {
			registry.RecordSpanError(key, c.Errors.Last())
		}

		registry.EndSpan(key, false)
	}
}

// SpanKeyFromContext returns the registry key of the request span opened by
// HTTPMiddleware, if any.
func SpanKeyFromContext(c *gin.Context) (string, bool) {
	v, ok := c.Get(contextKeySpanKey)
	if !ok {
		return "", false
	}
	key, ok := v.(string)
	return key, ok
}

// StartRequestSpan registers a server-kind span for an inbound HTTP request.
// Parent handling matches StartAPISpan; the span kind differs because the
// backend is the receiving side here.
func (r *Registry) StartRequestSpan(name, parentKey, key, url, method string) (trace.Span, bool) {
	attrs := []attribute.KeyValue{
		attribute.String(attrHTTPURL, url),
		attribute.String(attrHTTPMeth, method),
	}
	kind := []trace.SpanStartOption{trace.WithSpanKind(trace.SpanKindServer)}

	r.mu.Lock()
	defer r.mu.Unlock()

	if parentKey == "" {
		return r.startLocked(context.Background(), name, key, attrs, false, CategoryAPI, kind), true
	}
	parent, ok := r.spans[parentKey]
	if !ok {
		r.recordLookup("startRequestSpan", false)
		return nil, false
	}
	r.recordLookup("startRequestSpan", true)
	return r.startLocked(parent.ctx, name, key, attrs, false, CategoryAPI, kind), true
}
