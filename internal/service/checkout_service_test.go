package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/sofahub/sofahub-api/internal/constants"
	"github.com/sofahub/sofahub-api/internal/models"
	"github.com/sofahub/sofahub-api/internal/payment/mpesa"
	"github.com/sofahub/sofahub-api/internal/repository"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type fakeGateway struct {
	pushResult  *mpesa.STKPushResult
	pushErr     error
	queryResult *mpesa.STKQueryResult
	queryErr    error
	pushCalls   int
	lastPush    mpesa.STKPushInput
}

func (g *fakeGateway) InitiateSTKPush(ctx context.Context, input mpesa.STKPushInput) (*mpesa.STKPushResult, error) {
	g.pushCalls++
	g.lastPush = input
	if g.pushErr != nil {
		return nil, g.pushErr
	}
	if g.pushResult != nil {
		return g.pushResult, nil
	}
	return &mpesa.STKPushResult{
		MerchantRequestID: "merchant-1",
		CheckoutRequestID: "ws_CO_test_1",
		ResponseCode:      "0",
		CustomerMessage:   "Success. Request accepted for processing",
	}, nil
}

func (g *fakeGateway) QuerySTKStatus(ctx context.Context, checkoutRequestID string) (*mpesa.STKQueryResult, error) {
	if g.queryErr != nil {
		return nil, g.queryErr
	}
	if g.queryResult != nil {
		return g.queryResult, nil
	}
	return &mpesa.STKQueryResult{ResponseCode: "0", ResultCode: "0", ResultDesc: "Processed"}, nil
}

func newServiceTestDB(t *testing.T, name string) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", name, time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(
		&models.Staff{},
		&models.RoomCategory{}, &models.ProductType{}, &models.Tag{},
		&models.Product{}, &models.Variation{},
		&models.Cart{}, &models.CartItem{},
		&models.Order{}, &models.OrderItem{},
		&models.Redirect{},
	); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	return db
}

func seedSofaVariation(t *testing.T, db *gorm.DB, stock int) *models.Variation {
	t.Helper()
	product := models.Product{
		Slug:      "nairobi-3-seater-sofa",
		Name:      "Nairobi 3-Seater Sofa",
		BasePrice: models.NewMoneyFromDecimal(decimal.NewFromInt(75000)),
		IsActive:  true,
	}
	if err := db.Create(&product).Error; err != nil {
		t.Fatalf("create product failed: %v", err)
	}
	variation := models.Variation{
		ProductID:     product.ID,
		SKU:           "NRB-SOFA-3S-GRY-FAB",
		Attributes:    models.VariationAttributes{Color: "Grey", Material: "Fabric"},
		StockQuantity: stock,
		PriceModifier: models.NewMoneyFromDecimal(decimal.Zero),
		IsActive:      true,
	}
	if err := db.Create(&variation).Error; err != nil {
		t.Fatalf("create variation failed: %v", err)
	}
	variation.Product = &product
	return &variation
}

func addCartLine(t *testing.T, db *gorm.DB, sessionID string, variationID uint, quantity int) {
	t.Helper()
	repo := repository.NewCartRepository(db)
	cart, err := repo.GetOrCreateBySession(sessionID)
	if err != nil {
		t.Fatalf("get or create cart failed: %v", err)
	}
	if err := repo.Upsert(&models.CartItem{CartID: cart.ID, VariationID: variationID, Quantity: quantity}); err != nil {
		t.Fatalf("upsert cart item failed: %v", err)
	}
}

func validCheckoutInput(sessionID string) CheckoutInput {
	return CheckoutInput{
		SessionID:       sessionID,
		CustomerName:    "Wanjiku Kamau",
		CustomerEmail:   "wanjiku@example.com",
		CustomerPhone:   "0712345678",
		ShippingAddress: "Riverside Drive 12",
		ShippingCity:    "Nairobi",
	}
}

func newCheckoutService(db *gorm.DB, gw PaymentGateway, downpayment bool) *CheckoutService {
	return NewCheckoutService(
		repository.NewCartRepository(db),
		repository.NewVariationRepository(db),
		repository.NewOrderRepository(db),
		gw,
		nil,
		downpayment,
	)
}

func TestSplitDepositHalvesSubtotal(t *testing.T) {
	deposit, remaining := splitDeposit(decimal.NewFromInt(75000))
	if !deposit.Equal(decimal.NewFromInt(37500)) {
		t.Fatalf("expected deposit 37500, got %s", deposit.String())
	}
	if !remaining.Equal(decimal.NewFromInt(37500)) {
		t.Fatalf("expected remaining 37500, got %s", remaining.String())
	}
}

func TestSplitDepositRoundingGoesToDeposit(t *testing.T) {
	subtotal := decimal.RequireFromString("99.99")
	deposit, remaining := splitDeposit(subtotal)
	if !deposit.Equal(decimal.RequireFromString("50.00")) {
		t.Fatalf("expected deposit 50.00, got %s", deposit.String())
	}
	if !remaining.Equal(decimal.RequireFromString("49.99")) {
		t.Fatalf("expected remaining 49.99, got %s", remaining.String())
	}
	if !deposit.Add(remaining).Equal(subtotal) {
		t.Fatalf("deposit %s + remaining %s does not sum to subtotal %s", deposit, remaining, subtotal)
	}
}

func TestSplitDepositAlwaysSumsBack(t *testing.T) {
	for _, raw := range []string{"0.01", "1", "33.33", "5999.95", "120000"} {
		subtotal := decimal.RequireFromString(raw)
		deposit, remaining := splitDeposit(subtotal)
		if !deposit.Add(remaining).Equal(subtotal) {
			t.Fatalf("subtotal %s: deposit %s + remaining %s does not sum back", subtotal, deposit, remaining)
		}
	}
}

func TestChargeAmountRoundsUp(t *testing.T) {
	if got := chargeAmount(decimal.NewFromInt(37500)); got != 37500 {
		t.Fatalf("expected 37500, got %d", got)
	}
	if got := chargeAmount(decimal.RequireFromString("620.50")); got != 621 {
		t.Fatalf("expected 621, got %d", got)
	}
	if got := chargeAmount(decimal.RequireFromString("50.00")); got != 50 {
		t.Fatalf("expected 50, got %d", got)
	}
}

func TestCheckoutCreatesOrderAndSendsPrompt(t *testing.T) {
	db := newServiceTestDB(t, "checkout_happy")
	variation := seedSofaVariation(t, db, 5)
	session := "sess-checkout-happy"
	addCartLine(t, db, session, variation.ID, 1)

	gw := &fakeGateway{}
	svc := newCheckoutService(db, gw, true)

	result, err := svc.Checkout(context.Background(), validCheckoutInput(session))
	if err != nil {
		t.Fatalf("checkout failed: %v", err)
	}
	if result.Status != constants.OrderStatusPending {
		t.Fatalf("expected pending status, got %s", result.Status)
	}
	if !result.Subtotal.Decimal.Equal(decimal.NewFromInt(75000)) {
		t.Fatalf("expected subtotal 75000, got %s", result.Subtotal.String())
	}
	if !result.DepositAmount.Decimal.Equal(decimal.NewFromInt(37500)) {
		t.Fatalf("expected deposit 37500, got %s", result.DepositAmount.String())
	}
	if !result.RemainingAmount.Decimal.Equal(decimal.NewFromInt(37500)) {
		t.Fatalf("expected remaining 37500, got %s", result.RemainingAmount.String())
	}
	if !result.IsDownpayment {
		t.Fatalf("expected downpayment order")
	}
	if result.CheckoutRequestID != "ws_CO_test_1" {
		t.Fatalf("expected checkout request id from gateway, got %q", result.CheckoutRequestID)
	}

	if gw.pushCalls != 1 {
		t.Fatalf("expected 1 push call, got %d", gw.pushCalls)
	}
	if gw.lastPush.Amount != 37500 {
		t.Fatalf("expected push amount 37500, got %d", gw.lastPush.Amount)
	}
	wantRef := fmt.Sprintf("%s%d", constants.AccountReferencePrefix, result.OrderID)
	if gw.lastPush.AccountReference != wantRef {
		t.Fatalf("expected account reference %s, got %s", wantRef, gw.lastPush.AccountReference)
	}

	var reloaded models.Variation
	if err := db.First(&reloaded, variation.ID).Error; err != nil {
		t.Fatalf("reload variation failed: %v", err)
	}
	if reloaded.StockQuantity != 4 {
		t.Fatalf("expected stock 4 after reservation, got %d", reloaded.StockQuantity)
	}

	cartRepo := repository.NewCartRepository(db)
	cart, err := cartRepo.GetBySession(session)
	if err != nil {
		t.Fatalf("reload cart failed: %v", err)
	}
	if cart == nil || len(cart.Items) != 0 {
		t.Fatalf("expected cart cleared after accepted prompt, got %+v", cart)
	}

	order, err := repository.NewOrderRepository(db).GetByID(result.OrderID)
	if err != nil || order == nil {
		t.Fatalf("reload order failed: %v", err)
	}
	if order.CheckoutRequestID != "ws_CO_test_1" {
		t.Fatalf("expected stored checkout request id, got %q", order.CheckoutRequestID)
	}
	if len(order.Items) != 1 {
		t.Fatalf("expected 1 order item, got %d", len(order.Items))
	}
	if !order.Items[0].UnitPrice.Decimal.Equal(decimal.NewFromInt(75000)) {
		t.Fatalf("expected frozen unit price 75000, got %s", order.Items[0].UnitPrice.String())
	}
}

func TestCheckoutSubtotalSumsLineTotals(t *testing.T) {
	db := newServiceTestDB(t, "checkout_subtotal")
	variation := seedSofaVariation(t, db, 5)

	second := models.Variation{
		ProductID:     variation.ProductID,
		SKU:           "NRB-SOFA-3S-TAN-LTH",
		Attributes:    models.VariationAttributes{Color: "Tan", Material: "Leather"},
		StockQuantity: 5,
		PriceModifier: models.NewMoneyFromDecimal(decimal.NewFromInt(15000)),
		IsActive:      true,
	}
	if err := db.Create(&second).Error; err != nil {
		t.Fatalf("create second variation failed: %v", err)
	}

	session := "sess-checkout-subtotal"
	addCartLine(t, db, session, variation.ID, 2)
	addCartLine(t, db, session, second.ID, 1)

	gw := &fakeGateway{}
	svc := newCheckoutService(db, gw, true)
	result, err := svc.Checkout(context.Background(), validCheckoutInput(session))
	if err != nil {
		t.Fatalf("checkout failed: %v", err)
	}

	// 2 x 75000 + 1 x 90000
	if !result.Subtotal.Decimal.Equal(decimal.NewFromInt(240000)) {
		t.Fatalf("expected subtotal 240000, got %s", result.Subtotal.String())
	}
	if !result.DepositAmount.Decimal.Equal(decimal.NewFromInt(120000)) {
		t.Fatalf("expected deposit 120000, got %s", result.DepositAmount.String())
	}
}

func TestCheckoutEmptyCartRejected(t *testing.T) {
	db := newServiceTestDB(t, "checkout_empty")
	svc := newCheckoutService(db, &fakeGateway{}, true)

	_, err := svc.Checkout(context.Background(), validCheckoutInput("sess-no-cart"))
	if !errors.Is(err, ErrCartEmpty) {
		t.Fatalf("expected cart empty, got: %v", err)
	}
}

func TestCheckoutBlankSessionRejected(t *testing.T) {
	db := newServiceTestDB(t, "checkout_no_session")
	svc := newCheckoutService(db, &fakeGateway{}, true)

	input := validCheckoutInput("   ")
	_, err := svc.Checkout(context.Background(), input)
	if !errors.Is(err, ErrSessionInvalid) {
		t.Fatalf("expected session invalid, got: %v", err)
	}
}

func TestCheckoutMpesaPhonePreferredForPrompt(t *testing.T) {
	db := newServiceTestDB(t, "checkout_mpesa_phone")
	variation := seedSofaVariation(t, db, 5)
	session := "sess-checkout-mpesa-phone"
	addCartLine(t, db, session, variation.ID, 1)

	gw := &fakeGateway{}
	svc := newCheckoutService(db, gw, true)

	input := validCheckoutInput(session)
	input.MpesaPhone = "0722000111"
	result, err := svc.Checkout(context.Background(), input)
	if err != nil {
		t.Fatalf("checkout failed: %v", err)
	}
	if gw.lastPush.Phone != "0722000111" {
		t.Fatalf("expected prompt sent to alternate number, got %q", gw.lastPush.Phone)
	}

	// The contact number on the order stays the customer's own.
	order, err := repository.NewOrderRepository(db).GetByID(result.OrderID)
	if err != nil || order == nil {
		t.Fatalf("reload order failed: %v", err)
	}
	if order.CustomerPhone != "0712345678" {
		t.Fatalf("expected customer phone preserved, got %q", order.CustomerPhone)
	}
}

func TestCheckoutInvalidMpesaPhoneRejected(t *testing.T) {
	db := newServiceTestDB(t, "checkout_mpesa_phone_bad")
	variation := seedSofaVariation(t, db, 5)
	session := "sess-checkout-mpesa-phone-bad"
	addCartLine(t, db, session, variation.ID, 1)

	gw := &fakeGateway{}
	svc := newCheckoutService(db, gw, true)

	input := validCheckoutInput(session)
	input.MpesaPhone = "0899999999"
	_, err := svc.Checkout(context.Background(), input)
	if !errors.Is(err, ErrPhoneInvalid) {
		t.Fatalf("expected phone invalid, got: %v", err)
	}
	if gw.pushCalls != 0 {
		t.Fatalf("expected no push for rejected input, got %d calls", gw.pushCalls)
	}
}

func TestCheckoutInvalidPhoneRejected(t *testing.T) {
	db := newServiceTestDB(t, "checkout_phone")
	svc := newCheckoutService(db, &fakeGateway{}, true)

	input := validCheckoutInput("sess-phone")
	input.CustomerPhone = "12345"
	_, err := svc.Checkout(context.Background(), input)
	if !errors.Is(err, ErrPhoneInvalid) {
		t.Fatalf("expected phone invalid, got: %v", err)
	}
}

func TestCheckoutMissingCustomerInfoRejected(t *testing.T) {
	db := newServiceTestDB(t, "checkout_info")
	svc := newCheckoutService(db, &fakeGateway{}, true)

	input := validCheckoutInput("sess-info")
	input.CustomerName = "   "
	_, err := svc.Checkout(context.Background(), input)
	if !errors.Is(err, ErrCustomerInfoInvalid) {
		t.Fatalf("expected customer info invalid, got: %v", err)
	}
}

func TestCheckoutInsufficientStockRejected(t *testing.T) {
	db := newServiceTestDB(t, "checkout_stock")
	variation := seedSofaVariation(t, db, 1)
	session := "sess-checkout-stock"
	addCartLine(t, db, session, variation.ID, 2)

	gw := &fakeGateway{}
	svc := newCheckoutService(db, gw, true)
	_, err := svc.Checkout(context.Background(), validCheckoutInput(session))
	if !errors.Is(err, ErrInsufficientStock) {
		t.Fatalf("expected insufficient stock, got: %v", err)
	}
	if gw.pushCalls != 0 {
		t.Fatalf("expected no push on failed reservation, got %d calls", gw.pushCalls)
	}

	// The reservation rolled back with the transaction.
	var reloaded models.Variation
	if err := db.First(&reloaded, variation.ID).Error; err != nil {
		t.Fatalf("reload variation failed: %v", err)
	}
	if reloaded.StockQuantity != 1 {
		t.Fatalf("expected stock 1 after rollback, got %d", reloaded.StockQuantity)
	}
}

func TestCheckoutPushFailureCancelsOrderAndRestoresStock(t *testing.T) {
	db := newServiceTestDB(t, "checkout_push_fail")
	variation := seedSofaVariation(t, db, 5)
	session := "sess-checkout-push-fail"
	addCartLine(t, db, session, variation.ID, 2)

	gw := &fakeGateway{pushErr: errors.New("gateway unreachable")}
	svc := newCheckoutService(db, gw, true)

	_, err := svc.Checkout(context.Background(), validCheckoutInput(session))
	if !errors.Is(err, ErrPaymentInitFailed) {
		t.Fatalf("expected payment init failed, got: %v", err)
	}

	var order models.Order
	if err := db.First(&order).Error; err != nil {
		t.Fatalf("load order failed: %v", err)
	}
	if order.Status != constants.OrderStatusCancelled {
		t.Fatalf("expected cancelled order, got %s", order.Status)
	}

	var reloaded models.Variation
	if err := db.First(&reloaded, variation.ID).Error; err != nil {
		t.Fatalf("reload variation failed: %v", err)
	}
	if reloaded.StockQuantity != 5 {
		t.Fatalf("expected stock restored to 5, got %d", reloaded.StockQuantity)
	}

	// The cart survives so the customer can retry.
	cart, err := repository.NewCartRepository(db).GetBySession(session)
	if err != nil {
		t.Fatalf("reload cart failed: %v", err)
	}
	if cart == nil || len(cart.Items) != 1 {
		t.Fatalf("expected cart intact after push failure, got %+v", cart)
	}
}

func TestCheckoutDownpaymentDisabledChargesFull(t *testing.T) {
	db := newServiceTestDB(t, "checkout_full")
	variation := seedSofaVariation(t, db, 5)
	session := "sess-checkout-full"
	addCartLine(t, db, session, variation.ID, 1)

	gw := &fakeGateway{}
	svc := newCheckoutService(db, gw, false)
	result, err := svc.Checkout(context.Background(), validCheckoutInput(session))
	if err != nil {
		t.Fatalf("checkout failed: %v", err)
	}
	if result.IsDownpayment {
		t.Fatalf("expected full-payment order")
	}
	if !result.DepositAmount.Decimal.Equal(decimal.NewFromInt(75000)) {
		t.Fatalf("expected full charge 75000, got %s", result.DepositAmount.String())
	}
	if !result.RemainingAmount.Decimal.Equal(decimal.Zero) {
		t.Fatalf("expected remaining 0, got %s", result.RemainingAmount.String())
	}
	if gw.lastPush.Amount != 75000 {
		t.Fatalf("expected push amount 75000, got %d", gw.lastPush.Amount)
	}
}
