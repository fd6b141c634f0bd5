package tracing

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"

	"github.com/traceshop/backend/internal/infrastructure/logging"
)

func newMiddlewareRouter(t *testing.T) (*gin.Engine, *Registry, *tracetest.InMemoryExporter) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	registry := NewRegistry(tp.Tracer("test"), nil, logging.NewNop())
	router := gin.New()
	router.Use(HTTPMiddleware(registry))
	router.GET("/api/products", func(c *gin.Context) {
		if _, ok := SpanKeyFromContext(c); !ok {
			t.Error("handler should see the request span key")
		}
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})
	return router, registry, exporter
}

func TestMiddlewareStandaloneRequest(t *testing.T) {
	router, registry, exporter := newMiddlewareRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/products", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if w.Header().Get("X-Span-ID") == "" {
		t.Error("expected span key echoed on response")
	}
	if registry.Len() != 0 {
		t.Errorf("request span must be ended after the handler, %d still registered", registry.Len())
	}

	spans := exporter.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("expected 1 exported span, got %d", len(spans))
	}
	if spans[0].SpanKind != trace.SpanKindServer {
		t.Errorf("expected server span kind, got %v", spans[0].SpanKind)
	}
	if spans[0].Name != "GET /api/products" {
		t.Errorf("unexpected span name %q", spans[0].Name)
	}
}

func TestMiddlewareJoinsFlowTrace(t *testing.T) {
	router, registry, exporter := newMiddlewareRouter(t)

	flow := registry.StartSpan("flow.shopping", "flow-1", nil, true)

	req := httptest.NewRequest(http.MethodGet, "/api/products", nil)
	req.Header.Set(FlowHeader, "flow-1")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	registry.EndSpan("flow-1", false)

	spans := exporter.GetSpans()
	if len(spans) != 2 {
		t.Fatalf("expected 2 exported spans, got %d", len(spans))
	}
	for _, s := range spans {
		if s.SpanContext.TraceID() != flow.SpanContext().TraceID() {
			t.Errorf("span %q should share the flow's trace id", s.Name)
		}
	}
}

func TestMiddlewareEndedFlowFallsBack(t *testing.T) {
	router, _, exporter := newMiddlewareRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/products", nil)
	req.Header.Set(FlowHeader, "flow-gone")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	// The stale flow header degrades to a standalone request trace.
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if got := len(exporter.GetSpans()); got != 1 {
		t.Errorf("expected 1 standalone span, got %d", got)
	}
}
