package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/sofahub/sofahub-api/internal/constants"
	"github.com/sofahub/sofahub-api/internal/models"
	"github.com/sofahub/sofahub-api/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func newPaymentService(db *gorm.DB, gw PaymentGateway) *PaymentService {
	return NewPaymentService(
		repository.NewOrderRepository(db),
		repository.NewVariationRepository(db),
		repository.NewCartRepository(db),
		gw,
		nil,
	)
}

func stkCallbackBody(t *testing.T, checkoutRequestID string, resultCode int, receipt string) []byte {
	t.Helper()
	callback := map[string]interface{}{
		"MerchantRequestID": "merchant-1",
		"CheckoutRequestID": checkoutRequestID,
		"ResultCode":        resultCode,
		"ResultDesc":        "test result",
	}
	if resultCode == 0 {
		callback["CallbackMetadata"] = map[string]interface{}{
			"Item": []map[string]interface{}{
				{"Name": "Amount", "Value": 37500.0},
				{"Name": "MpesaReceiptNumber", "Value": receipt},
				{"Name": "TransactionDate", "Value": 20260901121530.0},
				{"Name": "PhoneNumber", "Value": 254712345678.0},
			},
		}
	}
	body, err := json.Marshal(map[string]interface{}{
		"Body": map[string]interface{}{"stkCallback": callback},
	})
	if err != nil {
		t.Fatalf("marshal callback failed: %v", err)
	}
	return body
}

func stkCallbackBodyWithReference(t *testing.T, checkoutRequestID string, resultCode int, receipt, reference string) []byte {
	t.Helper()
	callback := map[string]interface{}{
		"MerchantRequestID": "merchant-1",
		"CheckoutRequestID": checkoutRequestID,
		"ResultCode":        resultCode,
		"ResultDesc":        "test result",
		"CallbackMetadata": map[string]interface{}{
			"Item": []map[string]interface{}{
				{"Name": "Amount", "Value": 37500.0},
				{"Name": "MpesaReceiptNumber", "Value": receipt},
				{"Name": "AccountReference", "Value": reference},
			},
		},
	}
	body, err := json.Marshal(map[string]interface{}{
		"Body": map[string]interface{}{"stkCallback": callback},
	})
	if err != nil {
		t.Fatalf("marshal callback failed: %v", err)
	}
	return body
}

func createPendingOrder(t *testing.T, db *gorm.DB, checkoutRequestID string, variationID uint, quantity int, downpayment bool) *models.Order {
	t.Helper()
	subtotal := decimal.NewFromInt(75000).Mul(decimal.NewFromInt(int64(quantity)))
	deposit, remaining := splitDeposit(subtotal)
	if !downpayment {
		deposit = subtotal
		remaining = decimal.Zero
	}
	order := models.Order{
		CustomerName:      "Wanjiku Kamau",
		CustomerEmail:     "wanjiku@example.com",
		CustomerPhone:     "254712345678",
		ShippingAddress:   "Riverside Drive 12",
		ShippingCity:      "Nairobi",
		CartSession:       "sess-payment",
		Subtotal:          models.NewMoneyFromDecimal(subtotal),
		Status:            constants.OrderStatusPending,
		CheckoutRequestID: checkoutRequestID,
		IsDownpayment:     downpayment,
		DepositAmount:     models.NewMoneyFromDecimal(deposit),
		RemainingAmount:   models.NewMoneyFromDecimal(remaining),
	}
	vid := variationID
	items := []models.OrderItem{{
		VariationID:  &vid,
		ProductName:  "Nairobi 3-Seater Sofa",
		VariationSKU: "NRB-SOFA-3S-GRY-FAB",
		Quantity:     quantity,
		UnitPrice:    models.NewMoneyFromDecimal(decimal.NewFromInt(75000)),
		TotalPrice:   models.NewMoneyFromDecimal(subtotal),
	}}
	if err := repository.NewOrderRepository(db).Create(&order, items); err != nil {
		t.Fatalf("create order failed: %v", err)
	}
	return &order
}

func TestHandleMpesaCallbackSuccessMarksDepositPaid(t *testing.T) {
	db := newServiceTestDB(t, "payment_success")
	variation := seedSofaVariation(t, db, 4)
	createPendingOrder(t, db, "ws_CO_pay_1", variation.ID, 1, true)

	svc := newPaymentService(db, &fakeGateway{})
	if err := svc.HandleMpesaCallback(context.Background(), stkCallbackBody(t, "ws_CO_pay_1", 0, "TGH7SK61SV")); err != nil {
		t.Fatalf("handle callback failed: %v", err)
	}

	var order models.Order
	if err := db.Where("checkout_request_id = ?", "ws_CO_pay_1").First(&order).Error; err != nil {
		t.Fatalf("reload order failed: %v", err)
	}
	if order.Status != constants.OrderStatusDepositPaid {
		t.Fatalf("expected deposit_paid, got %s", order.Status)
	}
	if !order.DepositPaid || !order.PaymentConfirmed {
		t.Fatalf("expected deposit and payment flags set, got %+v", order)
	}
	if order.MpesaTransactionID != "TGH7SK61SV" {
		t.Fatalf("expected receipt stored, got %q", order.MpesaTransactionID)
	}
	if order.BalancePaid {
		t.Fatalf("deposit payment must not mark the balance paid")
	}
}

func TestHandleMpesaCallbackSuccessFullPaymentCompletes(t *testing.T) {
	db := newServiceTestDB(t, "payment_full")
	variation := seedSofaVariation(t, db, 4)
	createPendingOrder(t, db, "ws_CO_pay_full", variation.ID, 1, false)

	svc := newPaymentService(db, &fakeGateway{})
	if err := svc.HandleMpesaCallback(context.Background(), stkCallbackBody(t, "ws_CO_pay_full", 0, "TGH7SK61SW")); err != nil {
		t.Fatalf("handle callback failed: %v", err)
	}

	var order models.Order
	if err := db.Where("checkout_request_id = ?", "ws_CO_pay_full").First(&order).Error; err != nil {
		t.Fatalf("reload order failed: %v", err)
	}
	if order.Status != constants.OrderStatusCompleted {
		t.Fatalf("expected completed, got %s", order.Status)
	}
	if !order.BalancePaid {
		t.Fatalf("expected balance paid on full-payment order")
	}
}

func TestHandleMpesaCallbackFailureCancelsAndRestoresStock(t *testing.T) {
	db := newServiceTestDB(t, "payment_failure")
	// Stock already reserved at checkout: 5 on hand, 2 in this order.
	variation := seedSofaVariation(t, db, 3)
	createPendingOrder(t, db, "ws_CO_pay_fail", variation.ID, 2, true)

	svc := newPaymentService(db, &fakeGateway{})
	if err := svc.HandleMpesaCallback(context.Background(), stkCallbackBody(t, "ws_CO_pay_fail", 1032, "")); err != nil {
		t.Fatalf("handle callback failed: %v", err)
	}

	var order models.Order
	if err := db.Where("checkout_request_id = ?", "ws_CO_pay_fail").First(&order).Error; err != nil {
		t.Fatalf("reload order failed: %v", err)
	}
	if order.Status != constants.OrderStatusCancelled {
		t.Fatalf("expected cancelled, got %s", order.Status)
	}

	var reloaded models.Variation
	if err := db.First(&reloaded, variation.ID).Error; err != nil {
		t.Fatalf("reload variation failed: %v", err)
	}
	if reloaded.StockQuantity != 5 {
		t.Fatalf("expected stock restored to 5, got %d", reloaded.StockQuantity)
	}
}

func TestHandleMpesaCallbackDuplicateIgnored(t *testing.T) {
	db := newServiceTestDB(t, "payment_duplicate")
	variation := seedSofaVariation(t, db, 4)
	createPendingOrder(t, db, "ws_CO_pay_dup", variation.ID, 1, true)

	svc := newPaymentService(db, &fakeGateway{})
	body := stkCallbackBody(t, "ws_CO_pay_dup", 0, "TGH7SK61SX")
	if err := svc.HandleMpesaCallback(context.Background(), body); err != nil {
		t.Fatalf("first callback failed: %v", err)
	}
	// A replayed success finds the status guard consumed.
	if err := svc.HandleMpesaCallback(context.Background(), body); err != nil {
		t.Fatalf("replayed callback should be a no-op, got: %v", err)
	}

	// A late failure after success must not cancel the order.
	if err := svc.HandleMpesaCallback(context.Background(), stkCallbackBody(t, "ws_CO_pay_dup", 1032, "")); err != nil {
		t.Fatalf("late failure callback should be a no-op, got: %v", err)
	}

	var order models.Order
	if err := db.Where("checkout_request_id = ?", "ws_CO_pay_dup").First(&order).Error; err != nil {
		t.Fatalf("reload order failed: %v", err)
	}
	if order.Status != constants.OrderStatusDepositPaid {
		t.Fatalf("expected deposit_paid preserved, got %s", order.Status)
	}

	var reloaded models.Variation
	if err := db.First(&reloaded, variation.ID).Error; err != nil {
		t.Fatalf("reload variation failed: %v", err)
	}
	if reloaded.StockQuantity != 4 {
		t.Fatalf("expected stock untouched at 4, got %d", reloaded.StockQuantity)
	}
}

func TestHandleMpesaCallbackResolvesByAccountReference(t *testing.T) {
	db := newServiceTestDB(t, "payment_reference")
	variation := seedSofaVariation(t, db, 4)
	// The prompt id was never stored, as when the process died between the
	// gateway accepting the push and the write landing.
	order := createPendingOrder(t, db, "", variation.ID, 1, true)

	svc := newPaymentService(db, &fakeGateway{})
	reference := fmt.Sprintf("%s%d", constants.AccountReferencePrefix, order.ID)
	body := stkCallbackBodyWithReference(t, "ws_CO_pay_ref", 0, "TGH7SK61SZ", reference)
	if err := svc.HandleMpesaCallback(context.Background(), body); err != nil {
		t.Fatalf("handle callback failed: %v", err)
	}

	var reloaded models.Order
	if err := db.First(&reloaded, order.ID).Error; err != nil {
		t.Fatalf("reload order failed: %v", err)
	}
	if reloaded.Status != constants.OrderStatusDepositPaid {
		t.Fatalf("expected deposit_paid, got %s", reloaded.Status)
	}
	if reloaded.CheckoutRequestID != "ws_CO_pay_ref" {
		t.Fatalf("expected prompt id backfilled, got %q", reloaded.CheckoutRequestID)
	}
}

func TestHandleMpesaCallbackMismatchedPromptIDRejected(t *testing.T) {
	db := newServiceTestDB(t, "payment_mismatch")
	variation := seedSofaVariation(t, db, 4)
	order := createPendingOrder(t, db, "ws_CO_pay_real", variation.ID, 1, true)

	svc := newPaymentService(db, &fakeGateway{})
	reference := fmt.Sprintf("%s%d", constants.AccountReferencePrefix, order.ID)
	body := stkCallbackBodyWithReference(t, "ws_CO_pay_forged", 0, "TGH7SK61T0", reference)
	if err := svc.HandleMpesaCallback(context.Background(), body); !errors.Is(err, ErrCallbackInvalid) {
		t.Fatalf("expected callback invalid for mismatched prompt id, got: %v", err)
	}

	var reloaded models.Order
	if err := db.First(&reloaded, order.ID).Error; err != nil {
		t.Fatalf("reload order failed: %v", err)
	}
	if reloaded.Status != constants.OrderStatusPending {
		t.Fatalf("expected order untouched, got %s", reloaded.Status)
	}
}

func TestHandleMpesaCallbackUnknownOrder(t *testing.T) {
	db := newServiceTestDB(t, "payment_unknown")
	svc := newPaymentService(db, &fakeGateway{})

	err := svc.HandleMpesaCallback(context.Background(), stkCallbackBody(t, "ws_CO_missing", 0, "TGH7SK61SY"))
	if !errors.Is(err, ErrOrderNotFound) {
		t.Fatalf("expected order not found, got: %v", err)
	}
}

func TestHandleMpesaCallbackMalformedBody(t *testing.T) {
	db := newServiceTestDB(t, "payment_malformed")
	svc := newPaymentService(db, &fakeGateway{})

	if err := svc.HandleMpesaCallback(context.Background(), []byte("not json")); !errors.Is(err, ErrCallbackInvalid) {
		t.Fatalf("expected callback invalid, got: %v", err)
	}
	if err := svc.HandleMpesaCallback(context.Background(), []byte(`{"Body":{"stkCallback":{"ResultCode":0}}}`)); !errors.Is(err, ErrCallbackInvalid) {
		t.Fatalf("expected callback invalid for missing checkout request id, got: %v", err)
	}
}

func TestQueryPaymentStatusWithoutPrompt(t *testing.T) {
	db := newServiceTestDB(t, "payment_query")
	variation := seedSofaVariation(t, db, 4)
	order := createPendingOrder(t, db, "", variation.ID, 1, true)

	svc := newPaymentService(db, &fakeGateway{})
	_, err := svc.QueryPaymentStatus(context.Background(), order.ID)
	if !errors.Is(err, ErrOrderStatusInvalid) {
		t.Fatalf("expected order status invalid, got: %v", err)
	}

	_, err = svc.QueryPaymentStatus(context.Background(), order.ID+100)
	if !errors.Is(err, ErrOrderNotFound) {
		t.Fatalf("expected order not found, got: %v", err)
	}
}
