package catalog

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/traceshop/backend/internal/infrastructure/config"
	"github.com/traceshop/backend/internal/infrastructure/logging"
)

func newSeededService() *Service {
	cfg := config.CatalogConfig{SimulatedLatency: 0}
	return NewService(cfg, nil, logging.NewNop())
}

func TestSeededListSorted(t *testing.T) {
	s := newSeededService()

	products, err := s.List(context.Background())
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(products) != len(seedProducts()) {
		t.Fatalf("expected %d products, got %d", len(seedProducts()), len(products))
	}
	if !sort.SliceIsSorted(products, func(i, j int) bool { return products[i].Name < products[j].Name }) {
		t.Error("products should be sorted by name")
	}
}

func TestSeededGet(t *testing.T) {
	s := newSeededService()

	p, err := s.Get(context.Background(), "prod_desk_mat")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if p.Name != "Desk Mat" {
		t.Errorf("unexpected product: %+v", p)
	}

	_, err = s.Get(context.Background(), "prod_nonexistent")
	if !errors.Is(err, ErrProductNotFound) {
		t.Errorf("expected ErrProductNotFound, got %v", err)
	}
}

func TestDecrementStock(t *testing.T) {
	s := newSeededService()

	if !s.DecrementStock("prod_4k_monitor", 9) {
		t.Fatal("decrement within stock should succeed")
	}
	if s.DecrementStock("prod_4k_monitor", 1) {
		t.Error("decrement past zero stock should fail")
	}
	if s.DecrementStock("prod_nonexistent", 1) {
		t.Error("decrement of unknown product should fail")
	}

	p, err := s.Get(context.Background(), "prod_4k_monitor")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if p.Stock != 0 {
		t.Errorf("expected 0 stock, got %d", p.Stock)
	}
}

func TestSimulatedLatencyRespectsCancellation(t *testing.T) {
	cfg := config.CatalogConfig{SimulatedLatency: 150 * time.Millisecond}
	s := NewService(cfg, nil, logging.NewNop()).WithClock(clock.NewMock())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// The mock clock never advances, so only cancellation can unblock.
	_, err := s.List(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}
