package catalog

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/benbjohnson/clock"
	"go.uber.org/zap"

	"github.com/traceshop/backend/internal/infrastructure/config"
	"github.com/traceshop/backend/internal/infrastructure/logging"
	"github.com/traceshop/backend/internal/shared/types"
)

// ErrProductNotFound is returned when a product id is unknown.
var ErrProductNotFound = errors.New("product not found")

// Source provides product data. Implemented by Client for a remote catalog
// and satisfied internally by the seeded store.
type Source interface {
	ListProducts(ctx context.Context) ([]types.Product, error)
	GetProduct(ctx context.Context, id string) (*types.Product, error)
}

// Service serves the product catalog. With no upstream configured it falls
// back to the seeded in-memory inventory and delays responses by the
// configured simulated latency, so the traced demo flows show realistic
// fetch spans.
type Service struct {
	source Source
	clk    clock.Clock
	cfg    config.CatalogConfig
	logger *logging.Logger

	mu       sync.RWMutex
	products map[string]types.Product
}

// NewService creates a catalog service. A nil source selects the seeded
// in-memory inventory.
func NewService(cfg config.CatalogConfig, source Source, logger *logging.Logger) *Service {
	if logger == nil {
		logger = logging.NewNop()
	}
	s := &Service{
		source: source,
		clk:    clock.New(),
		cfg:    cfg,
		logger: logger,
	}
	if source == nil {
		s.products = make(map[string]types.Product)
		for _, p := range seedProducts() {
			s.products[p.ID] = p
		}
		logger.Info("catalog using seeded inventory", zap.Int("products", len(s.products)))
	} else {
		logger.Info("catalog using upstream API", zap.String("base_url", cfg.BaseURL))
	}
	return s
}

// WithClock substitutes the latency clock for tests.
func (s *Service) WithClock(c clock.Clock) *Service {
	s.clk = c
	return s
}

// List returns all products sorted by name.
func (s *Service) List(ctx context.Context) ([]types.Product, error) {
	if s.source != nil {
		return s.source.ListProducts(ctx)
	}
	if err := s.simulateLatency(ctx); err != nil {
		return nil, err
	}

	s.mu.RLock()
	products := make([]types.Product, 0, len(s.products))
	for _, p := range s.products {
		products = append(products, p)
	}
	s.mu.RUnlock()

	sort.Slice(products, func(i, j int) bool { return products[i].Name < products[j].Name })
	return products, nil
}

// Get returns one product by id.
func (s *Service) Get(ctx context.Context, id string) (*types.Product, error) {
	if s.source != nil {
		return s.source.GetProduct(ctx, id)
	}
	if err := s.simulateLatency(ctx); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.products[id]
	if !ok {
		return nil, ErrProductNotFound
	}
	return &p, nil
}

// DecrementStock reduces seeded stock after an order. No-op against an
// upstream catalog, which owns its own inventory.
func (s *Service) DecrementStock(id string, quantity int) bool {
	if s.source != nil {
		return true
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.products[id]
	if !ok || p.Stock < quantity {
		return false
	}
	p.Stock -= quantity
	s.products[id] = p
	return true
}

// simulateLatency sleeps for the configured fake fetch time, respecting
// context cancellation.
func (s *Service) simulateLatency(ctx context.Context) error {
	if s.cfg.SimulatedLatency <= 0 {
		return nil
	}
	timer := s.clk.Timer(s.cfg.SimulatedLatency)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
