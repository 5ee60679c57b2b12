package service

import (
	"errors"
	"testing"

	"github.com/sofahub/sofahub-api/internal/constants"
	"github.com/sofahub/sofahub-api/internal/models"
	"github.com/sofahub/sofahub-api/internal/repository"

	"gorm.io/gorm"
)

func newOrderService(db *gorm.DB) *OrderService {
	return NewOrderService(
		repository.NewOrderRepository(db),
		repository.NewVariationRepository(db),
		repository.NewCartRepository(db),
		nil,
	)
}

func TestMarkCompletedRequiresDepositPaid(t *testing.T) {
	db := newServiceTestDB(t, "order_complete")
	variation := seedSofaVariation(t, db, 4)
	order := createPendingOrder(t, db, "ws_CO_ord_1", variation.ID, 1, true)
	svc := newOrderService(db)

	// Still pending: the balance cannot be settled before the deposit.
	if _, err := svc.MarkCompleted(order.ID); !errors.Is(err, ErrOrderStatusInvalid) {
		t.Fatalf("expected order status invalid for pending order, got: %v", err)
	}

	if err := db.Model(&models.Order{}).Where("id = ?", order.ID).
		Update("status", constants.OrderStatusDepositPaid).Error; err != nil {
		t.Fatalf("set deposit_paid failed: %v", err)
	}

	completed, err := svc.MarkCompleted(order.ID)
	if err != nil {
		t.Fatalf("mark completed failed: %v", err)
	}
	if completed.Status != constants.OrderStatusCompleted {
		t.Fatalf("expected completed, got %s", completed.Status)
	}
	if !completed.BalancePaid {
		t.Fatalf("expected balance marked paid")
	}
}

func TestCancelOrderRestoresStockOnce(t *testing.T) {
	db := newServiceTestDB(t, "order_cancel")
	// 2 units reserved by the order, 3 left on hand.
	variation := seedSofaVariation(t, db, 3)
	order := createPendingOrder(t, db, "ws_CO_ord_2", variation.ID, 2, true)
	svc := newOrderService(db)

	cancelled, err := svc.CancelOrder(order.ID)
	if err != nil {
		t.Fatalf("cancel failed: %v", err)
	}
	if cancelled.Status != constants.OrderStatusCancelled {
		t.Fatalf("expected cancelled, got %s", cancelled.Status)
	}

	var reloaded models.Variation
	if err := db.First(&reloaded, variation.ID).Error; err != nil {
		t.Fatalf("reload variation failed: %v", err)
	}
	if reloaded.StockQuantity != 5 {
		t.Fatalf("expected stock restored to 5, got %d", reloaded.StockQuantity)
	}

	// A second cancel must not restore stock again.
	if _, err := svc.CancelOrder(order.ID); !errors.Is(err, ErrOrderStatusInvalid) {
		t.Fatalf("expected order status invalid on double cancel, got: %v", err)
	}
	if err := db.First(&reloaded, variation.ID).Error; err != nil {
		t.Fatalf("reload variation failed: %v", err)
	}
	if reloaded.StockQuantity != 5 {
		t.Fatalf("expected stock unchanged at 5, got %d", reloaded.StockQuantity)
	}
}

func TestCancelCompletedOrderRejected(t *testing.T) {
	db := newServiceTestDB(t, "order_cancel_completed")
	variation := seedSofaVariation(t, db, 4)
	order := createPendingOrder(t, db, "ws_CO_ord_3", variation.ID, 1, true)
	if err := db.Model(&models.Order{}).Where("id = ?", order.ID).
		Update("status", constants.OrderStatusCompleted).Error; err != nil {
		t.Fatalf("set completed failed: %v", err)
	}

	svc := newOrderService(db)
	if _, err := svc.CancelOrder(order.ID); !errors.Is(err, ErrOrderStatusInvalid) {
		t.Fatalf("expected order status invalid, got: %v", err)
	}
}

func TestGetSessionOrderScopedToSession(t *testing.T) {
	db := newServiceTestDB(t, "order_session_scope")
	variation := seedSofaVariation(t, db, 4)
	order := createPendingOrder(t, db, "ws_CO_ord_4", variation.ID, 1, true)
	svc := newOrderService(db)

	got, err := svc.GetSessionOrder("sess-payment", order.ID)
	if err != nil {
		t.Fatalf("get session order failed: %v", err)
	}
	if got.ID != order.ID {
		t.Fatalf("expected order %d, got %d", order.ID, got.ID)
	}

	// Another session must not see the order, and the error must not
	// reveal that it exists.
	if _, err := svc.GetSessionOrder("sess-other", order.ID); !errors.Is(err, ErrOrderNotFound) {
		t.Fatalf("expected order not found for foreign session, got: %v", err)
	}
	if _, err := svc.GetSessionOrder("", order.ID); !errors.Is(err, ErrOrderNotFound) {
		t.Fatalf("expected order not found for empty session, got: %v", err)
	}
}

func TestListSessionOrdersEmptySession(t *testing.T) {
	db := newServiceTestDB(t, "order_session_list")
	svc := newOrderService(db)

	orders, total, err := svc.ListSessionOrders("", 1, 10)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(orders) != 0 || total != 0 {
		t.Fatalf("expected empty page for empty session, got %d/%d", len(orders), total)
	}
}
