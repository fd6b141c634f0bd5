package tracing

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"go.opentelemetry.io/otel/trace"

	"github.com/traceshop/backend/internal/infrastructure/logging"
	"github.com/traceshop/backend/internal/infrastructure/monitoring"
)

// Fixed attribute and event names shared with the browser UI's trace queries.
const (
	attrAppName   = "app.name"
	attrSpanKey   = "span.id"
	attrHTTPURL   = "http.url"
	attrHTTPMeth  = "http.method"
	attrComponent = "ui.component"
	attrEndTime   = "span.end_time"
	attrTimestamp = "event.timestamp"

	eventInteraction = "user.interaction"
	eventOpStart     = "operation.start"
	eventOpEnd       = "operation.end"

	flushTimeout = 5 * time.Second
)

// Flusher force-drains the span export pipeline. Implemented by
// telemetry.Provider; substituted with a recorder in tests.
type Flusher interface {
	Flush(ctx context.Context)
}

// entry is one live span plus the context that carries it, kept so children
// can link to their parent without relying on ambient context propagation.
type entry struct {
	span      trace.Span
	ctx       context.Context
	category  Category
	startedAt time.Time
}

// Registry is the central authority for span existence. It maps
// application-chosen string keys to live span handles; a key is present iff
// a span was started under it and has not been ended. All mutation happens
// under one mutex so the idempotent check-then-insert is atomic.
type Registry struct {
	tracer  trace.Tracer
	flusher Flusher
	logger  *logging.Logger
	metrics *monitoring.Metrics
	appName string

	mu    sync.Mutex
	spans map[string]*entry
}

// Option configures a Registry.
type Option func(*Registry)

// WithMetrics attaches a metrics collector.
func WithMetrics(m *monitoring.Metrics) Option {
	return func(r *Registry) { r.metrics = m }
}

// WithAppName overrides the app.name attribute stamped on every span.
func WithAppName(name string) Option {
	return func(r *Registry) { r.appName = name }
}

// NewRegistry creates a span lifecycle registry. The flusher may be nil, in
// which case critical span ends skip the forced flush.
func NewRegistry(tracer trace.Tracer, flusher Flusher, logger *logging.Logger, opts ...Option) *Registry {
	if logger == nil {
		logger = logging.NewNop()
	}
	r := &Registry{
		tracer:  tracer,
		flusher: flusher,
		logger:  logger,
		appName: "traceshop-storefront",
		spans:   make(map[string]*entry),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// StartSpan registers a new span under key. Starting an already-registered
// key returns the existing handle unchanged: retried mount hooks in the UI
// re-enter this path and must not produce duplicate spans. When asNewTrace
// is set the span roots a fresh trace id regardless of any parent linkage.
func (r *Registry) StartSpan(name, key string, attrs []attribute.KeyValue, asNewTrace bool) trace.Span {
	category := CategoryInternal
	if asNewTrace {
		category = CategoryFlow
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.startLocked(context.Background(), name, key, attrs, asNewTrace, category, nil)
}

// StartChildSpan registers a new span under key whose parent is the span
// currently registered under parentKey. The parent must be registered at
// call time: a parent that already ended would link the child to a stale
// context, so the child creation fails soft instead.
func (r *Registry) StartChildSpan(name, parentKey, key string, attrs []attribute.KeyValue) (trace.Span, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	parent, ok := r.spans[parentKey]
	if !ok {
		r.logger.Warn("parent span not registered, child not created",
			zap.String("parent", parentKey),
			zap.String("child", key),
		)
		r.recordLookup("startChildSpan", false)
		return nil, false
	}
	r.recordLookup("startChildSpan", true)
	return r.startLocked(parent.ctx, name, key, attrs, false, CategoryInternal, nil), true
}

// StartAPISpan registers a client-kind span for an outbound API call. An
// empty parentKey falls back to a parentless start; a non-empty parentKey
// that is not registered fails soft like StartChildSpan.
func (r *Registry) StartAPISpan(name, parentKey, key, url, method string) (trace.Span, bool) {
	attrs := []attribute.KeyValue{
		attribute.String(attrHTTPURL, url),
		attribute.String(attrHTTPMeth, method),
	}
	kind := []trace.SpanStartOption{trace.WithSpanKind(trace.SpanKindClient)}

	r.mu.Lock()
	defer r.mu.Unlock()

	if parentKey == "" {
		return r.startLocked(context.Background(), name, key, attrs, false, CategoryAPI, kind), true
	}
	parent, ok := r.spans[parentKey]
	if !ok {
		r.logger.Warn("parent span not registered, API span not created",
			zap.String("parent", parentKey),
			zap.String("child", key),
		)
		r.recordLookup("startApiSpan", false)
		return nil, false
	}
	r.recordLookup("startApiSpan", true)
	return r.startLocked(parent.ctx, name, key, attrs, false, CategoryAPI, kind), true
}

// StartUISpan registers an internal-kind span for a UI unit of work (page
// render, component mount). Parent handling matches StartAPISpan.
func (r *Registry) StartUISpan(name, parentKey, key, component string) (trace.Span, bool) {
	attrs := []attribute.KeyValue{
		attribute.String(attrComponent, component),
	}
	kind := []trace.SpanStartOption{trace.WithSpanKind(trace.SpanKindInternal)}

	r.mu.Lock()
	defer r.mu.Unlock()

	if parentKey == "" {
		return r.startLocked(context.Background(), name, key, attrs, false, CategoryUI, kind), true
	}
	parent, ok := r.spans[parentKey]
	if !ok {
		r.logger.Warn("parent span not registered, UI span not created",
			zap.String("parent", parentKey),
			zap.String("child", key),
		)
		r.recordLookup("startUiSpan", false)
		return nil, false
	}
	r.recordLookup("startUiSpan", true)
	return r.startLocked(parent.ctx, name, key, attrs, false, CategoryUI, kind), true
}

// startLocked creates and registers a span. Callers hold r.mu.
func (r *Registry) startLocked(parent context.Context, name, key string, attrs []attribute.KeyValue, asNewTrace bool, category Category, extra []trace.SpanStartOption) trace.Span {
	if existing, ok := r.spans[key]; ok {
		r.logger.Debug("span already registered, returning existing handle",
			zap.String("key", key),
			zap.String("name", name),
		)
		return existing.span
	}

	opts := make([]trace.SpanStartOption, 0, len(extra)+1)
	opts = append(opts, extra...)
	if asNewTrace {
		opts = append(opts, trace.WithNewRoot())
	}

	ctx, span := r.tracer.Start(parent, name, opts...)
	span.SetAttributes(append(attrs,
		attribute.String(attrAppName, r.appName),
		attribute.String(attrSpanKey, key),
	)...)

	r.spans[key] = &entry{
		span:      span,
		ctx:       ctx,
		category:  category,
		startedAt: time.Now(),
	}

	if r.metrics != nil {
		r.metrics.RecordSpanStarted(category.String())
	}
	return span
}

// EndSpan finalizes the span registered under key and removes it. Returns
// false when the key is not registered. When critical is set, a forced flush
// of the export pipeline runs in the background so the transaction span is
// not lost to batching delay; flush failures never propagate.
func (r *Registry) EndSpan(key string, critical bool) bool {
	r.mu.Lock()
	e, ok := r.spans[key]
	if !ok {
		r.mu.Unlock()
		r.logger.Warn("endSpan on unregistered key", zap.String("key", key))
		r.recordLookup("endSpan", false)
		return false
	}
	delete(r.spans, key)
	r.mu.Unlock()

	r.recordLookup("endSpan", true)
	e.span.SetAttributes(attribute.String(attrEndTime, time.Now().Format(time.RFC3339Nano)))
	e.span.End()

	if r.metrics != nil {
		r.metrics.RecordSpanEnded(e.category.String(), critical)
	}

	if critical && r.flusher != nil {
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), flushTimeout)
			defer cancel()
			r.flusher.Flush(ctx)
		}()
	}
	return true
}

// GetSpan returns the live span registered under key, if any.
func (r *Registry) GetSpan(key string) (trace.Span, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.spans[key]
	if !ok {
		return nil, false
	}
	return e.span, true
}

// AddSpanEvent appends a named, timestamped event to a live span. Returns
// false when the key is not registered.
func (r *Registry) AddSpanEvent(key, name string, attrs ...attribute.KeyValue) bool {
	r.mu.Lock()
	e, ok := r.spans[key]
	r.mu.Unlock()
	if !ok {
		r.logger.Debug("addSpanEvent on unregistered key",
			zap.String("key", key),
			zap.String("event", name),
		)
		r.recordLookup("addSpanEvent", false)
		return false
	}

	e.span.AddEvent(name, trace.WithAttributes(append(attrs,
		attribute.Int64(attrTimestamp, time.Now().UnixMilli()),
	)...))
	if r.metrics != nil {
		r.metrics.RecordSpanEvent(name)
	}
	return true
}

// RecordSpanError attaches exception details to a live span and marks its
// status as errored. The span stays open: whether an error ends the
// operation is the caller's decision.
func (r *Registry) RecordSpanError(key string, err error) bool {
	r.mu.Lock()
	e, ok := r.spans[key]
	r.mu.Unlock()
	if !ok {
		r.logger.Debug("recordSpanError on unregistered key", zap.String("key", key))
		r.recordLookup("recordSpanError", false)
		return false
	}

	e.span.RecordError(err)
	e.span.SetStatus(codes.Error, err.Error())
	if r.metrics != nil {
		r.metrics.RecordSpanEvent("exception")
	}
	return true
}

// RecordSpanActivity appends a user-interaction event, used for heartbeat
// and progress signals.
func (r *Registry) RecordSpanActivity(key, label string, attrs ...attribute.KeyValue) bool {
	return r.AddSpanEvent(key, eventInteraction, append(attrs,
		attribute.String("activity.label", label),
	)...)
}

// WithSpan runs fn with the registered span as ambient context, so span
// creation inside fn that goes through the plain OpenTelemetry API still
// links correctly. The operation is bracketed with marker events; a failure
// is recorded against the span if it is still registered (fn may have ended
// it) and then returned untouched. This is the only path where an error
// deliberately propagates out of the tracing layer.
func (r *Registry) WithSpan(ctx context.Context, key string, fn func(context.Context) error) error {
	r.mu.Lock()
	e, ok := r.spans[key]
	r.mu.Unlock()
	if !ok {
		r.logger.Warn("withSpan on unregistered key, running without span", zap.String("key", key))
		r.recordLookup("withSpan", false)
		return fn(ctx)
	}

	e.span.AddEvent(eventOpStart)
	err := fn(e.ctx)
	if err != nil {
		r.RecordSpanError(key, err)
	}

	r.mu.Lock()
	_, still := r.spans[key]
	r.mu.Unlock()
	if still {
		e.span.AddEvent(eventOpEnd)
	}
	return err
}

// Len returns the number of currently registered spans.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.spans)
}

// Stats returns per-category counts of registered spans.
func (r *Registry) Stats() map[string]int {
	r.mu.Lock()
	defer r.mu.Unlock()
	stats := make(map[string]int)
	for _, e := range r.spans {
		stats[e.category.String()]++
	}
	return stats
}

func (r *Registry) recordLookup(operation string, found bool) {
	if r.metrics != nil {
		r.metrics.RecordSpanLookup(operation, found)
	}
}
