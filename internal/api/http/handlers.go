package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/traceshop/backend/internal/domain/cart"
	"github.com/traceshop/backend/internal/domain/catalog"
	"github.com/traceshop/backend/internal/domain/checkout"
	"github.com/traceshop/backend/internal/domain/session"
	"github.com/traceshop/backend/internal/infrastructure/logging"
	"github.com/traceshop/backend/internal/infrastructure/monitoring"
	"github.com/traceshop/backend/internal/infrastructure/tracing"
)

// SessionHeader carries the browsing session id between the UI and backend.
const SessionHeader = "X-Session-ID"

// Handlers contains all HTTP handlers.
type Handlers struct {
	catalog  *catalog.Service
	carts    *cart.Manager
	checkout *checkout.Service
	sessions *session.Manager
	tracing  *TracingHandlers
	metrics  *monitoring.Metrics
	logger   *logging.Logger
}

// NewHandlers creates the handler set.
func NewHandlers(
	catalogSvc *catalog.Service,
	carts *cart.Manager,
	checkoutSvc *checkout.Service,
	sessions *session.Manager,
	registry *tracing.Registry,
	trackers *tracing.TrackerFactory,
	flusher tracing.Flusher,
	metrics *monitoring.Metrics,
	logger *logging.Logger,
) *Handlers {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Handlers{
		catalog:  catalogSvc,
		carts:    carts,
		checkout: checkoutSvc,
		sessions: sessions,
		tracing:  NewTracingHandlers(registry, trackers, flusher, sessions, logger),
		metrics:  metrics,
		logger:   logger,
	}
}

// Tracing returns the tracing endpoint handlers.
func (h *Handlers) Tracing() *TracingHandlers {
	return h.tracing
}

// Root handles health check.
func (h *Handlers) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "online",
		"service": "TraceShop Storefront (Go)",
		"version": "0.3.0",
	})
}

// Health handles detailed health check.
func (h *Handlers) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":   "healthy",
		"sessions": h.sessions.Count(),
		"carts":    h.carts.Count(),
		"spans":    h.tracing.registry.Stats(),
	})
}

// Stats returns the JSON metrics snapshot.
func (h *Handlers) Stats(c *gin.Context) {
	if h.metrics == nil {
		c.JSON(http.StatusOK, gin.H{})
		return
	}
	snapshot := h.metrics.GetSnapshot()
	avgMs := 0.0
	if snapshot.RequestCount > 0 {
		avgMs = snapshot.TotalDuration / float64(snapshot.RequestCount) * 1000
	}
	c.JSON(http.StatusOK, gin.H{
		"total_requests":  snapshot.TotalRequests,
		"total_errors":    snapshot.TotalErrors,
		"active_spans":    snapshot.ActiveSpans,
		"avg_duration_ms": avgMs,
	})
}

// session resolves the browsing session from the request header, creating
// one when absent, and echoes the id back on the response.
func (h *Handlers) session(c *gin.Context) *session.Session {
	s := h.sessions.GetOrCreate(c.GetHeader(SessionHeader))
	c.Header(SessionHeader, s.ID)
	return s
}

// ListProducts handles GET /api/products.
func (h *Handlers) ListProducts(c *gin.Context) {
	products, err := h.catalog.List(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"products": products})
}

// GetProduct handles GET /api/products/:id.
func (h *Handlers) GetProduct(c *gin.Context) {
	product, err := h.catalog.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, catalog.ErrProductNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "product not found"})
			return
		}
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, product)
}

// GetCart handles GET /api/cart.
func (h *Handlers) GetCart(c *gin.Context) {
	sess := h.session(c)
	cartState := h.carts.Get(sess.ID)
	c.JSON(http.StatusOK, gin.H{
		"cart":        cartState,
		"total_cents": cartState.TotalCents(),
		"item_count":  cartState.ItemCount(),
	})
}

// AddCartItemRequest is the body of POST /api/cart/items.
type AddCartItemRequest struct {
	ProductID string `json:"product_id" binding:"required"`
	Quantity  int    `json:"quantity" binding:"required"`
}

// AddCartItem handles POST /api/cart/items.
func (h *Handlers) AddCartItem(c *gin.Context) {
	var req AddCartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	sess := h.session(c)
	product, err := h.catalog.Get(c.Request.Context(), req.ProductID)
	if err != nil {
		if errors.Is(err, catalog.ErrProductNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "product not found"})
			return
		}
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}

	cartState, err := h.carts.AddItem(sess.ID, product, req.Quantity)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	// Annotate the session's flow span if one is active
	if sess.FlowSpanKey != "" {
		h.tracing.registry.AddSpanEvent(sess.FlowSpanKey, "cart.item_added")
	}

	c.JSON(http.StatusOK, gin.H{
		"cart":        cartState,
		"total_cents": cartState.TotalCents(),
	})
}

// RemoveCartItem handles DELETE /api/cart/items/:id.
func (h *Handlers) RemoveCartItem(c *gin.Context) {
	sess := h.session(c)
	cartState := h.carts.RemoveItem(sess.ID, c.Param("id"))
	c.JSON(http.StatusOK, gin.H{
		"cart":        cartState,
		"total_cents": cartState.TotalCents(),
	})
}

// ClearCart handles DELETE /api/cart.
func (h *Handlers) ClearCart(c *gin.Context) {
	sess := h.session(c)
	h.carts.Clear(sess.ID)
	c.JSON(http.StatusOK, gin.H{"cleared": true})
}

// PlaceOrder handles POST /api/checkout.
func (h *Handlers) PlaceOrder(c *gin.Context) {
	sess := h.session(c)

	order, err := h.checkout.PlaceOrder(c.Request.Context(), sess.ID)
	switch {
	case errors.Is(err, cart.ErrEmptyCart):
		c.JSON(http.StatusBadRequest, gin.H{"error": "cart is empty"})
		return
	case errors.Is(err, checkout.ErrInsufficientStock):
		if sess.FlowSpanKey != "" {
			h.tracing.registry.RecordSpanError(sess.FlowSpanKey, err)
		}
		c.JSON(http.StatusConflict, gin.H{"error": err.Error(), "order": order})
		return
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	if sess.FlowSpanKey != "" {
		h.tracing.registry.AddSpanEvent(sess.FlowSpanKey, "order.placed")
	}
	c.JSON(http.StatusOK, gin.H{"order": order})
}

// Confirmation handles GET /api/checkout/confirmation. The handoff is
// one-shot: a second call (or a direct navigation) returns 404 and the UI
// falls back to the orders list.
func (h *Handlers) Confirmation(c *gin.Context) {
	sess := h.session(c)
	handoff, ok := h.sessions.TakeHandoff(sess.ID)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "no pending confirmation"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"order_id":    handoff.OrderID,
		"total_cents": handoff.TotalCents,
		"currency":    handoff.Currency,
	})
}

// ListOrders handles GET /api/orders.
func (h *Handlers) ListOrders(c *gin.Context) {
	sess := h.session(c)
	c.JSON(http.StatusOK, gin.H{"orders": h.checkout.ListOrders(sess.ID)})
}

// GetOrder handles GET /api/orders/:id.
func (h *Handlers) GetOrder(c *gin.Context) {
	order, ok := h.checkout.GetOrder(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "order not found"})
		return
	}
	c.JSON(http.StatusOK, order)
}
