package public

import (
	"bytes"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sofahub/sofahub-api/internal/constants"
	"github.com/sofahub/sofahub-api/internal/models"
	"github.com/sofahub/sofahub-api/internal/provider"
	"github.com/sofahub/sofahub-api/internal/repository"
	"github.com/sofahub/sofahub-api/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func newCallbackTestDB(t *testing.T, name string) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", name, time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(
		&models.Product{}, &models.Variation{},
		&models.Cart{}, &models.CartItem{},
		&models.Order{}, &models.OrderItem{},
	); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	return db
}

func newCallbackRouter(db *gorm.DB) *gin.Engine {
	gin.SetMode(gin.TestMode)
	container := &provider.Container{
		PaymentService: service.NewPaymentService(
			repository.NewOrderRepository(db),
			repository.NewVariationRepository(db),
			repository.NewCartRepository(db),
			nil,
			nil,
		),
	}
	r := gin.New()
	r.POST("/api/v1/payments/mpesa/callback", New(container).MpesaCallback)
	return r
}

func seedCallbackOrder(t *testing.T, db *gorm.DB, checkoutRequestID string) *models.Order {
	t.Helper()
	order := models.Order{
		CustomerName:      "Wanjiku Kamau",
		CustomerEmail:     "wanjiku@example.com",
		CustomerPhone:     "254712345678",
		ShippingAddress:   "Riverside Drive 12",
		ShippingCity:      "Nairobi",
		CartSession:       "sess-callback-http",
		Subtotal:          models.NewMoneyFromDecimal(decimal.NewFromInt(75000)),
		Status:            constants.OrderStatusPending,
		CheckoutRequestID: checkoutRequestID,
		IsDownpayment:     true,
		DepositAmount:     models.NewMoneyFromDecimal(decimal.NewFromInt(37500)),
		RemainingAmount:   models.NewMoneyFromDecimal(decimal.NewFromInt(37500)),
	}
	if err := repository.NewOrderRepository(db).Create(&order, nil); err != nil {
		t.Fatalf("create order failed: %v", err)
	}
	return &order
}

func postCallback(r *gin.Engine, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/payments/mpesa/callback", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	return w
}

func TestMpesaCallbackMalformedBodyRejected(t *testing.T) {
	db := newCallbackTestDB(t, "callback_malformed")
	r := newCallbackRouter(db)

	w := postCallback(r, `{not json`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("malformed body: status want 400 got %d", w.Code)
	}

	w = postCallback(r, `{"Body":{"stkCallback":{"ResultCode":0}}}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("missing checkout request id: status want 400 got %d", w.Code)
	}
}

func TestMpesaCallbackUnknownOrderNotFound(t *testing.T) {
	db := newCallbackTestDB(t, "callback_unknown")
	r := newCallbackRouter(db)

	w := postCallback(r, `{"Body":{"stkCallback":{"CheckoutRequestID":"ws_CO_nobody","ResultCode":0}}}`)
	if w.Code != http.StatusNotFound {
		t.Fatalf("unknown order: status want 404 got %d", w.Code)
	}
}

func TestMpesaCallbackSuccessAccepted(t *testing.T) {
	db := newCallbackTestDB(t, "callback_success")
	order := seedCallbackOrder(t, db, "ws_CO_http_1")
	r := newCallbackRouter(db)

	body := `{"Body":{"stkCallback":{"CheckoutRequestID":"ws_CO_http_1","ResultCode":0,
		"CallbackMetadata":{"Item":[
			{"Name":"Amount","Value":37500.00},
			{"Name":"MpesaReceiptNumber","Value":"TGH7SK61T1"}
		]}}}}`
	w := postCallback(r, body)
	if w.Code != http.StatusOK {
		t.Fatalf("success callback: status want 200 got %d body=%s", w.Code, w.Body.String())
	}

	var reloaded models.Order
	if err := db.First(&reloaded, order.ID).Error; err != nil {
		t.Fatalf("reload order failed: %v", err)
	}
	if reloaded.Status != constants.OrderStatusDepositPaid {
		t.Fatalf("expected deposit_paid, got %s", reloaded.Status)
	}

	// The duplicate delivery is still acknowledged.
	if w := postCallback(r, body); w.Code != http.StatusOK {
		t.Fatalf("replayed callback: status want 200 got %d", w.Code)
	}
}
