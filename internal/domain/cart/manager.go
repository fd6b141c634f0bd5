package cart

import (
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/traceshop/backend/internal/infrastructure/logging"
	"github.com/traceshop/backend/internal/infrastructure/monitoring"
	"github.com/traceshop/backend/internal/shared/types"
)

var (
	// ErrEmptyCart is returned when checkout is attempted on an empty cart.
	ErrEmptyCart = errors.New("cart is empty")
	// ErrInvalidQuantity is returned for zero or negative quantities.
	ErrInvalidQuantity = errors.New("quantity must be positive")
)

// Manager holds per-session shopping carts in memory. Carts die with the
// process; persistence is out of scope for the demo storefront.
type Manager struct {
	logger  *logging.Logger
	metrics *monitoring.Metrics

	mu    sync.RWMutex
	carts map[string]*types.Cart
}

// NewManager creates a cart manager.
func NewManager(logger *logging.Logger) *Manager {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Manager{
		logger: logger,
		carts:  make(map[string]*types.Cart),
	}
}

// WithMetrics attaches a metrics collector.
func (m *Manager) WithMetrics(metrics *monitoring.Metrics) *Manager {
	m.metrics = metrics
	return m
}

// Get returns the cart for a session, creating an empty one if needed.
func (m *Manager) Get(sessionID string) *types.Cart {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.getLocked(sessionID)
}

// AddItem adds quantity units of a product to the session's cart, merging
// with an existing line for the same product.
func (m *Manager) AddItem(sessionID string, product *types.Product, quantity int) (*types.Cart, error) {
	if quantity <= 0 {
		return nil, ErrInvalidQuantity
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	c := m.getLocked(sessionID)
	merged := false
	for i := range c.Items {
		if c.Items[i].ProductID == product.ID {
			c.Items[i].Quantity += quantity
			merged = true
			break
		}
	}
	if !merged {
		c.Items = append(c.Items, types.CartItem{
			ProductID:      product.ID,
			Name:           product.Name,
			Quantity:       quantity,
			UnitPriceCents: product.PriceCents,
		})
	}
	c.UpdatedAt = time.Now()

	m.logger.Debug("cart item added",
		zap.String("session_id", sessionID),
		zap.String("product_id", product.ID),
		zap.Int("quantity", quantity),
	)
	m.updateGaugeLocked()
	return c, nil
}

// RemoveItem removes a product line entirely. Removing an absent line is a
// no-op.
func (m *Manager) RemoveItem(sessionID, productID string) *types.Cart {
	m.mu.Lock()
	defer m.mu.Unlock()

	c := m.getLocked(sessionID)
	for i := range c.Items {
		if c.Items[i].ProductID == productID {
			c.Items = append(c.Items[:i], c.Items[i+1:]...)
			c.UpdatedAt = time.Now()
			break
		}
	}
	m.updateGaugeLocked()
	return c
}

// Clear empties the session's cart.
func (m *Manager) Clear(sessionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if c, ok := m.carts[sessionID]; ok {
		c.Items = nil
		c.UpdatedAt = time.Now()
	}
	m.updateGaugeLocked()
}

// Take removes and returns the session's cart for checkout. Returns
// ErrEmptyCart when there is nothing to check out.
func (m *Manager) Take(sessionID string) (*types.Cart, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.carts[sessionID]
	if !ok || len(c.Items) == 0 {
		return nil, ErrEmptyCart
	}
	delete(m.carts, sessionID)
	m.updateGaugeLocked()
	return c, nil
}

// Count returns the number of non-empty carts.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	count := 0
	for _, c := range m.carts {
		if len(c.Items) > 0 {
			count++
		}
	}
	return count
}

func (m *Manager) getLocked(sessionID string) *types.Cart {
	c, ok := m.carts[sessionID]
	if !ok {
		c = &types.Cart{SessionID: sessionID, UpdatedAt: time.Now()}
		m.carts[sessionID] = c
	}
	return c
}

func (m *Manager) updateGaugeLocked() {
	if m.metrics == nil {
		return
	}
	count := 0
	for _, c := range m.carts {
		if len(c.Items) > 0 {
			count++
		}
	}
	m.metrics.SetCartsActive(count)
}
