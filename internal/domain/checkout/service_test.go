package checkout

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/traceshop/backend/internal/domain/cart"
	"github.com/traceshop/backend/internal/domain/session"
	"github.com/traceshop/backend/internal/infrastructure/logging"
	"github.com/traceshop/backend/internal/shared/types"
)

// fakeInventory tracks stock per product.
type fakeInventory struct {
	stock map[string]int
}

func (f *fakeInventory) DecrementStock(productID string, quantity int) bool {
	current, ok := f.stock[productID]
	if !ok || current < quantity {
		return false
	}
	f.stock[productID] = current - quantity
	return true
}

func newTestService(stock map[string]int) (*Service, *cart.Manager, *session.Manager) {
	carts := cart.NewManager(logging.NewNop())
	sessions := session.NewManagerWithClock(time.Hour, clock.NewMock(), logging.NewNop())
	svc := NewService(carts, sessions, &fakeInventory{stock: stock}, logging.NewNop())
	return svc, carts, sessions
}

func product(pid string, price int64) *types.Product {
	return &types.Product{ID: pid, Name: pid, PriceCents: price, Currency: "USD"}
}

func TestPlaceOrderConfirmed(t *testing.T) {
	svc, carts, sessions := newTestService(map[string]int{"p1": 5, "p2": 5})
	sess := sessions.Create()

	carts.AddItem(sess.ID, product("p1", 1000), 2)
	carts.AddItem(sess.ID, product("p2", 500), 1)

	order, err := svc.PlaceOrder(context.Background(), sess.ID)
	if err != nil {
		t.Fatalf("PlaceOrder failed: %v", err)
	}
	if order.Status != types.OrderConfirmed {
		t.Errorf("expected confirmed order, got %s", order.Status)
	}
	if order.TotalCents != 2500 {
		t.Errorf("expected total 2500, got %d", order.TotalCents)
	}

	// Cart is consumed
	if _, err := carts.Take(sess.ID); !errors.Is(err, cart.ErrEmptyCart) {
		t.Error("cart should be consumed by checkout")
	}

	// Confirmation handoff is parked on the session
	h, ok := sessions.TakeHandoff(sess.ID)
	if !ok || h.OrderID != order.ID || h.TotalCents != 2500 {
		t.Errorf("unexpected handoff: %+v ok=%v", h, ok)
	}
}

func TestPlaceOrderEmptyCart(t *testing.T) {
	svc, _, sessions := newTestService(nil)
	sess := sessions.Create()

	if _, err := svc.PlaceOrder(context.Background(), sess.ID); !errors.Is(err, cart.ErrEmptyCart) {
		t.Errorf("expected ErrEmptyCart, got %v", err)
	}
}

func TestPlaceOrderInsufficientStock(t *testing.T) {
	svc, carts, sessions := newTestService(map[string]int{"p1": 1})
	sess := sessions.Create()

	carts.AddItem(sess.ID, product("p1", 1000), 3)

	order, err := svc.PlaceOrder(context.Background(), sess.ID)
	if !errors.Is(err, ErrInsufficientStock) {
		t.Fatalf("expected ErrInsufficientStock, got %v", err)
	}
	if order == nil || order.Status != types.OrderRejected {
		t.Errorf("expected rejected order to be returned, got %+v", order)
	}

	// No handoff for rejected orders
	if _, ok := sessions.TakeHandoff(sess.ID); ok {
		t.Error("rejected order must not park a handoff")
	}
}

func TestStockRollbackOnPartialFailure(t *testing.T) {
	inv := &fakeInventory{stock: map[string]int{"p1": 5, "p2": 0}}
	carts := cart.NewManager(logging.NewNop())
	sessions := session.NewManagerWithClock(time.Hour, clock.NewMock(), logging.NewNop())
	svc := NewService(carts, sessions, inv, logging.NewNop())
	sess := sessions.Create()

	carts.AddItem(sess.ID, product("p1", 1000), 2)
	carts.AddItem(sess.ID, product("p2", 500), 1)

	_, err := svc.PlaceOrder(context.Background(), sess.ID)
	if !errors.Is(err, ErrInsufficientStock) {
		t.Fatalf("expected ErrInsufficientStock, got %v", err)
	}
	if inv.stock["p1"] != 5 {
		t.Errorf("expected p1 reservation rolled back to 5, got %d", inv.stock["p1"])
	}
}

func TestGetAndListOrders(t *testing.T) {
	svc, carts, sessions := newTestService(map[string]int{"p1": 10})
	sess := sessions.Create()

	carts.AddItem(sess.ID, product("p1", 1000), 1)
	order, err := svc.PlaceOrder(context.Background(), sess.ID)
	if err != nil {
		t.Fatalf("PlaceOrder failed: %v", err)
	}

	got, ok := svc.GetOrder(order.ID)
	if !ok || got.ID != order.ID {
		t.Errorf("GetOrder failed for %s", order.ID)
	}
	if _, ok := svc.GetOrder("ord_unknown"); ok {
		t.Error("unknown order id should not resolve")
	}

	orders := svc.ListOrders(sess.ID)
	if len(orders) != 1 {
		t.Errorf("expected 1 order for session, got %d", len(orders))
	}
}
