package checkout

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/traceshop/backend/internal/domain/cart"
	"github.com/traceshop/backend/internal/domain/session"
	"github.com/traceshop/backend/internal/infrastructure/logging"
	"github.com/traceshop/backend/internal/infrastructure/monitoring"
	"github.com/traceshop/backend/internal/shared/id"
	"github.com/traceshop/backend/internal/shared/types"
)

// ErrInsufficientStock is returned when an ordered quantity exceeds stock.
var ErrInsufficientStock = errors.New("insufficient stock")

// Inventory reserves stock for ordered items. Implemented by the catalog
// service.
type Inventory interface {
	DecrementStock(productID string, quantity int) bool
}

// Service places orders. Checkout consumes the cart, reserves stock, records
// the order, and parks the confirmation handoff on the session.
type Service struct {
	carts     *cart.Manager
	sessions  *session.Manager
	inventory Inventory
	logger    *logging.Logger
	metrics   *monitoring.Metrics

	mu     sync.RWMutex
	orders map[string]*types.Order
}

// NewService creates a checkout service.
func NewService(carts *cart.Manager, sessions *session.Manager, inventory Inventory, logger *logging.Logger) *Service {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Service{
		carts:     carts,
		sessions:  sessions,
		inventory: inventory,
		logger:    logger,
		orders:    make(map[string]*types.Order),
	}
}

// WithMetrics attaches a metrics collector.
func (s *Service) WithMetrics(m *monitoring.Metrics) *Service {
	s.metrics = m
	return s
}

// PlaceOrder checks out the session's cart. The cart is consumed on success
// and on stock rejection; a rejected order is still recorded so the
// confirmation page can show what happened.
func (s *Service) PlaceOrder(ctx context.Context, sessionID string) (*types.Order, error) {
	c, err := s.carts.Take(sessionID)
	if err != nil {
		return nil, err
	}

	order := &types.Order{
		ID:         id.NewOrderID().String(),
		SessionID:  sessionID,
		Items:      c.Items,
		TotalCents: c.TotalCents(),
		Currency:   "USD",
		Status:     types.OrderPending,
		PlacedAt:   time.Now(),
	}

	if err := s.reserveStock(c.Items); err != nil {
		order.Status = types.OrderRejected
		s.record(order)
		s.logger.Warn("order rejected",
			zap.String("order_id", order.ID),
			zap.String("session_id", sessionID),
			zap.Error(err),
		)
		return order, err
	}

	order.Status = types.OrderConfirmed
	s.record(order)

	if err := s.sessions.SetHandoff(sessionID, session.Handoff{
		OrderID:    order.ID,
		TotalCents: order.TotalCents,
		Currency:   order.Currency,
	}); err != nil {
		// Session expired mid-checkout. The order stands; only the
		// confirmation shortcut is lost.
		s.logger.Warn("confirmation handoff dropped",
			zap.String("order_id", order.ID),
			zap.Error(err),
		)
	}

	s.logger.Info("order placed",
		zap.String("order_id", order.ID),
		zap.String("session_id", sessionID),
		zap.Int64("total_cents", order.TotalCents),
		zap.Int("items", len(order.Items)),
	)
	return order, nil
}

// GetOrder returns a recorded order by id.
func (s *Service) GetOrder(orderID string) (*types.Order, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	o, ok := s.orders[orderID]
	return o, ok
}

// ListOrders returns all orders for a session.
func (s *Service) ListOrders(sessionID string) []*types.Order {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var orders []*types.Order
	for _, o := range s.orders {
		if o.SessionID == sessionID {
			orders = append(orders, o)
		}
	}
	return orders
}

func (s *Service) reserveStock(items []types.CartItem) error {
	for i, item := range items {
		if !s.inventory.DecrementStock(item.ProductID, item.Quantity) {
			// Roll back lines already reserved
			for _, prev := range items[:i] {
				s.inventory.DecrementStock(prev.ProductID, -prev.Quantity)
			}
			return fmt.Errorf("%w: %s", ErrInsufficientStock, item.ProductID)
		}
	}
	return nil
}

func (s *Service) record(order *types.Order) {
	s.mu.Lock()
	s.orders[order.ID] = order
	s.mu.Unlock()
	if s.metrics != nil {
		s.metrics.RecordOrderPlaced(string(order.Status))
	}
}
