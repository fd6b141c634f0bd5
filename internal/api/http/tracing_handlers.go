package http

import (
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/traceshop/backend/internal/domain/session"
	"github.com/traceshop/backend/internal/infrastructure/logging"
	"github.com/traceshop/backend/internal/infrastructure/tracing"
)

// TracingHandlers exposes the span lifecycle registry and activity tracker
// to the browser UI. The UI drives span lifecycles over these endpoints; the
// backend owns the handles.
type TracingHandlers struct {
	registry *tracing.Registry
	trackers *tracing.TrackerFactory
	flusher  tracing.Flusher
	sessions *session.Manager
	logger   *logging.Logger

	mu       sync.Mutex
	activity map[string]*tracing.Session // flow span key -> tracker session
}

// NewTracingHandlers creates the tracing endpoint handlers.
func NewTracingHandlers(
	registry *tracing.Registry,
	trackers *tracing.TrackerFactory,
	flusher tracing.Flusher,
	sessions *session.Manager,
	logger *logging.Logger,
) *TracingHandlers {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &TracingHandlers{
		registry: registry,
		trackers: trackers,
		flusher:  flusher,
		sessions: sessions,
		logger:   logger,
		activity: make(map[string]*tracing.Session),
	}
}

// StartFlowRequest is the body of POST /api/tracing/flows.
type StartFlowRequest struct {
	Type  string `json:"type" binding:"required"`
	Track bool   `json:"track"`
}

// StartFlow begins a business-flow trace. The flow roots a fresh trace id;
// with track set, an activity tracker session starts alongside it.
func (t *TracingHandlers) StartFlow(c *gin.Context) {
	var req StartFlowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	flowType := tracing.FlowType(req.Type)
	if !flowType.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown flow type"})
		return
	}

	sessionID := c.GetHeader(SessionHeader)
	sess := t.sessions.GetOrCreate(sessionID)
	c.Header(SessionHeader, sess.ID)

	key := tracing.CategoryFlow.NewKey()
	t.registry.StartSpan(flowType.SpanName(), key, []attribute.KeyValue{
		attribute.String("flow.type", req.Type),
		attribute.String("session.id", sess.ID),
	}, true)

	if err := t.sessions.BindFlow(sess.ID, key); err != nil {
		t.logger.Warn("flow binding failed", zap.String("session_id", sess.ID), zap.Error(err))
	}

	if req.Track {
		tracker := t.trackers.Start(key)
		t.mu.Lock()
		t.activity[key] = tracker
		t.mu.Unlock()
	}

	c.JSON(http.StatusCreated, gin.H{"flow_id": key, "session_id": sess.ID})
}

// EndFlow finishes a business-flow trace. The critical query parameter
// forces an exporter flush after the span ends, for transactions that must
// not be lost to batching. The flow's activity tracker, if any, is stopped
// first so its summary event lands inside the span.
func (t *TracingHandlers) EndFlow(c *gin.Context) {
	key := c.Param("id")
	critical := c.Query("critical") == "true"

	t.mu.Lock()
	tracker, ok := t.activity[key]
	delete(t.activity, key)
	t.mu.Unlock()
	if ok {
		tracker.Stop()
	}

	if !t.registry.EndSpan(key, critical) {
		c.JSON(http.StatusNotFound, gin.H{"error": "flow not registered"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ended": key, "critical": critical})
}

// StartSpanRequest is the body of POST /api/tracing/spans.
type StartSpanRequest struct {
	Name      string `json:"name" binding:"required"`
	ParentID  string `json:"parent_id"`
	Kind      string `json:"kind"` // "", "ui", or "api"
	Component string `json:"component"`
	URL       string `json:"url"`
	Method    string `json:"method"`
}

// StartSpan registers a child span under a live parent. A generic span
// requires its parent; ui and api spans accept an empty parent and start
// parentless.
func (t *TracingHandlers) StartSpan(c *gin.Context) {
	var req StartSpanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	key := tracing.CategoryInternal.NewKey()
	var ok bool
	switch req.Kind {
	case "ui":
		_, ok = t.registry.StartUISpan(req.Name, req.ParentID, key, req.Component)
	case "api":
		_, ok = t.registry.StartAPISpan(req.Name, req.ParentID, key, req.URL, req.Method)
	default:
		_, ok = t.registry.StartChildSpan(req.Name, req.ParentID, key, nil)
	}
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "parent span not registered"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"span_id": key})
}

// EndSpan finishes a registered span.
func (t *TracingHandlers) EndSpan(c *gin.Context) {
	key := c.Param("id")
	critical := c.Query("critical") == "true"
	if !t.registry.EndSpan(key, critical) {
		c.JSON(http.StatusNotFound, gin.H{"error": "span not registered"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ended": key})
}

// SpanEventRequest is the body of POST /api/tracing/spans/:id/events.
type SpanEventRequest struct {
	Name       string            `json:"name" binding:"required"`
	Attributes map[string]string `json:"attributes"`
}

// AddSpanEvent attaches an event to a registered span.
func (t *TracingHandlers) AddSpanEvent(c *gin.Context) {
	var req SpanEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	attrs := make([]attribute.KeyValue, 0, len(req.Attributes))
	for k, v := range req.Attributes {
		attrs = append(attrs, attribute.String(k, v))
	}
	if !t.registry.AddSpanEvent(c.Param("id"), req.Name, attrs...) {
		c.JSON(http.StatusNotFound, gin.H{"error": "span not registered"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"recorded": req.Name})
}

// SpanErrorRequest is the body of POST /api/tracing/spans/:id/errors.
type SpanErrorRequest struct {
	Message string `json:"message" binding:"required"`
}

// RecordSpanError marks a registered span as errored without ending it.
func (t *TracingHandlers) RecordSpanError(c *gin.Context) {
	var req SpanErrorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !t.registry.RecordSpanError(c.Param("id"), &spanError{req.Message}) {
		c.JSON(http.StatusNotFound, gin.H{"error": "span not registered"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"recorded": true})
}

// InteractionRequest is the body of POST /api/tracing/interactions.
type InteractionRequest struct {
	FlowID string `json:"flow_id" binding:"required"`
	Kind   string `json:"kind" binding:"required"`
}

// RecordInteraction feeds a raw interaction signal to the flow's activity
// tracker. Debounced signals return emitted=false.
func (t *TracingHandlers) RecordInteraction(c *gin.Context) {
	var req InteractionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	t.mu.Lock()
	tracker, ok := t.activity[req.FlowID]
	t.mu.Unlock()
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "no tracker for flow"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"emitted": tracker.Observe(req.Kind)})
}

// ActionRequest is the body of POST /api/tracing/actions.
type ActionRequest struct {
	FlowID string `json:"flow_id" binding:"required"`
	Label  string `json:"label" binding:"required"`
}

// RecordAction records an explicit user action on the flow's tracker,
// bypassing the debounce.
func (t *TracingHandlers) RecordAction(c *gin.Context) {
	var req ActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	t.mu.Lock()
	tracker, ok := t.activity[req.FlowID]
	t.mu.Unlock()
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "no tracker for flow"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"emitted": tracker.Action(req.Label)})
}

// Flush force-drains the span export pipeline. The UI calls this before
// navigating away so batched spans are not lost with the page.
func (t *TracingHandlers) Flush(c *gin.Context) {
	if t.flusher != nil {
		t.flusher.Flush(c.Request.Context())
	}
	c.JSON(http.StatusOK, gin.H{"flushed": true})
}

// StatsHandler returns per-category counts of registered spans.
func (t *TracingHandlers) StatsHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"registered": t.registry.Len(),
		"categories": t.registry.Stats(),
	})
}

// StopAll stops every running tracker session. Called on server shutdown.
func (t *TracingHandlers) StopAll() {
	t.mu.Lock()
	trackers := make([]*tracing.Session, 0, len(t.activity))
	for _, tr := range t.activity {
		trackers = append(trackers, tr)
	}
	t.activity = make(map[string]*tracing.Session)
	t.mu.Unlock()

	for _, tr := range trackers {
		tr.Stop()
	}
}

// spanError adapts a client-reported message to the error interface.
type spanError struct {
	message string
}

func (e *spanError) Error() string { return e.message }
