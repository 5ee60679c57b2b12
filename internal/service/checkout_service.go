package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sofahub/sofahub-api/internal/constants"
	"github.com/sofahub/sofahub-api/internal/logger"
	"github.com/sofahub/sofahub-api/internal/models"
	"github.com/sofahub/sofahub-api/internal/payment/mpesa"
	"github.com/sofahub/sofahub-api/internal/queue"
	"github.com/sofahub/sofahub-api/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// PaymentGateway is the mobile-money collaborator used at checkout.
type PaymentGateway interface {
	InitiateSTKPush(ctx context.Context, input mpesa.STKPushInput) (*mpesa.STKPushResult, error)
	QuerySTKStatus(ctx context.Context, checkoutRequestID string) (*mpesa.STKQueryResult, error)
}

// CheckoutInput is the customer-submitted checkout form. MpesaPhone is an
// optional alternate number for the payment prompt; the contact number is
// used when it is absent.
type CheckoutInput struct {
	SessionID       string
	CustomerName    string
	CustomerEmail   string
	CustomerPhone   string
	MpesaPhone      string
	ShippingAddress string
	ShippingCity    string
	ShippingZipCode string
}

// CheckoutResult is the synchronous checkout outcome.
type CheckoutResult struct {
	OrderID           uint         `json:"order_id"`
	Status            string       `json:"status"`
	Subtotal          models.Money `json:"subtotal"`
	DepositAmount     models.Money `json:"deposit_amount"`
	RemainingAmount   models.Money `json:"remaining_amount"`
	IsDownpayment     bool         `json:"is_downpayment"`
	CheckoutRequestID string       `json:"checkout_request_id"`
	CustomerMessage   string       `json:"customer_message"`
}

// CheckoutService turns a cart into an order and collects the deposit.
type CheckoutService struct {
	cartRepo           repository.CartRepository
	variationRepo      repository.VariationRepository
	orderRepo          repository.OrderRepository
	gateway            PaymentGateway
	queueClient        *queue.Client
	downpaymentEnabled bool
}

// NewCheckoutService creates the checkout service.
func NewCheckoutService(
	cartRepo repository.CartRepository,
	variationRepo repository.VariationRepository,
	orderRepo repository.OrderRepository,
	gateway PaymentGateway,
	queueClient *queue.Client,
	downpaymentEnabled bool,
) *CheckoutService {
	return &CheckoutService{
		cartRepo:           cartRepo,
		variationRepo:      variationRepo,
		orderRepo:          orderRepo,
		gateway:            gateway,
		queueClient:        queueClient,
		downpaymentEnabled: downpaymentEnabled,
	}
}

// splitDeposit halves the subtotal into deposit and remainder. The deposit
// takes the rounding; the remainder absorbs the difference so the two always
// sum back to the subtotal.
func splitDeposit(subtotal decimal.Decimal) (deposit, remaining decimal.Decimal) {
	deposit = subtotal.Div(decimal.NewFromInt(2)).Round(2)
	remaining = subtotal.Sub(deposit)
	return deposit, remaining
}

// chargeAmount converts a deposit to the whole-shilling amount the gateway
// accepts, rounding up so the charge never falls below the deposit.
func chargeAmount(deposit decimal.Decimal) int64 {
	return deposit.Ceil().IntPart()
}

func validateCheckoutInput(input CheckoutInput) error {
	if strings.TrimSpace(input.SessionID) == "" {
		return ErrSessionInvalid
	}
	if strings.TrimSpace(input.CustomerName) == "" ||
		strings.TrimSpace(input.ShippingAddress) == "" ||
		strings.TrimSpace(input.ShippingCity) == "" {
		return ErrCustomerInfoInvalid
	}
	if err := ValidateEmail(input.CustomerEmail); err != nil {
		return err
	}
	if err := ValidateKenyanPhone(input.CustomerPhone); err != nil {
		return err
	}
	if strings.TrimSpace(input.MpesaPhone) != "" {
		if err := ValidateKenyanPhone(input.MpesaPhone); err != nil {
			return err
		}
	}
	return nil
}

// Checkout snapshots the cart into an order, reserves stock, and sends the
// deposit payment prompt. The database work runs in one transaction keyed
// on the cart row so concurrent checkouts of the same session serialize;
// the gateway call happens after commit, and a rejected prompt cancels the
// order and returns the reserved stock.
func (s *CheckoutService) Checkout(ctx context.Context, input CheckoutInput) (*CheckoutResult, error) {
	if err := validateCheckoutInput(input); err != nil {
		return nil, err
	}

	var order models.Order
	now := time.Now()

	err := s.cartRepo.Transaction(func(tx *gorm.DB) error {
		cartRepo := s.cartRepo.WithTx(tx)
		variationRepo := s.variationRepo.WithTx(tx)
		orderRepo := s.orderRepo.WithTx(tx)

		cart, err := cartRepo.LockBySession(input.SessionID)
		if err != nil {
			return err
		}
		if cart == nil {
			return ErrCartEmpty
		}
		items, err := cartRepo.ListItems(cart.ID)
		if err != nil {
			return err
		}
		if len(items) == 0 {
			return ErrCartEmpty
		}

		subtotal := decimal.Zero
		orderItems := make([]models.OrderItem, 0, len(items))
		for _, item := range items {
			variation := item.Variation
			if variation == nil || variation.ID == 0 {
				variation, err = variationRepo.GetByID(item.VariationID)
				if err != nil {
					return err
				}
			}
			if variation == nil || !variation.IsActive {
				return ErrVariationNotFound
			}
			if variation.Product == nil || !variation.Product.IsActive {
				return ErrProductNotAvailable
			}
			if item.Quantity <= 0 {
				return ErrQuantityInvalid
			}

			affected, err := variationRepo.ReserveStock(variation.ID, item.Quantity)
			if err != nil {
				return err
			}
			if affected == 0 {
				return fmt.Errorf("%w: sku %s", ErrInsufficientStock, variation.SKU)
			}

			unitPrice := variation.Price(now)
			lineTotal := unitPrice.Mul(decimal.NewFromInt(int64(item.Quantity)))
			subtotal = subtotal.Add(lineTotal)

			variationID := variation.ID
			orderItems = append(orderItems, models.OrderItem{
				VariationID:         &variationID,
				ProductName:         variation.Product.Name,
				VariationSKU:        variation.SKU,
				VariationAttributes: variation.Attributes,
				Quantity:            item.Quantity,
				UnitPrice:           models.NewMoneyFromDecimal(unitPrice),
				TotalPrice:          models.NewMoneyFromDecimal(lineTotal),
			})
		}

		deposit := subtotal
		remaining := decimal.Zero
		if s.downpaymentEnabled {
			deposit, remaining = splitDeposit(subtotal)
		}

		order = models.Order{
			CustomerName:    strings.TrimSpace(input.CustomerName),
			CustomerEmail:   strings.TrimSpace(input.CustomerEmail),
			CustomerPhone:   strings.TrimSpace(input.CustomerPhone),
			ShippingAddress: strings.TrimSpace(input.ShippingAddress),
			ShippingCity:    strings.TrimSpace(input.ShippingCity),
			ShippingZipCode: strings.TrimSpace(input.ShippingZipCode),
			CartSession:     input.SessionID,
			Subtotal:        models.NewMoneyFromDecimal(subtotal),
			Status:          constants.OrderStatusPending,
			IsDownpayment:   s.downpaymentEnabled,
			DepositAmount:   models.NewMoneyFromDecimal(deposit),
			RemainingAmount: models.NewMoneyFromDecimal(remaining),
		}
		return orderRepo.Create(&order, orderItems)
	})
	if err != nil {
		return nil, err
	}

	logger.Infow("checkout_order_created",
		"order_id", order.ID,
		"cart_session", input.SessionID,
		"subtotal", order.Subtotal.String(),
		"deposit_amount", order.DepositAmount.String(),
		"item_count", len(order.Items),
	)

	// The payment prompt goes to the alternate M-Pesa number when given.
	paymentPhone := strings.TrimSpace(input.MpesaPhone)
	if paymentPhone == "" {
		paymentPhone = order.CustomerPhone
	}

	pushResult, pushErr := s.gateway.InitiateSTKPush(ctx, mpesa.STKPushInput{
		Phone:            paymentPhone,
		Amount:           chargeAmount(order.DepositAmount.Decimal),
		AccountReference: fmt.Sprintf("%s%d", constants.AccountReferencePrefix, order.ID),
		Description:      fmt.Sprintf("Deposit for order %d", order.ID),
	})
	if pushErr != nil {
		logger.Warnw("checkout_stk_push_failed",
			"order_id", order.ID,
			"error", pushErr,
		)
		s.cancelAfterPushFailure(&order)
		return nil, fmt.Errorf("%w: %v", ErrPaymentInitFailed, pushErr)
	}

	if err := s.orderRepo.UpdateStatus(order.ID, constants.OrderStatusPending, map[string]interface{}{
		"checkout_request_id": pushResult.CheckoutRequestID,
	}); err != nil {
		return nil, err
	}
	order.CheckoutRequestID = pushResult.CheckoutRequestID

	// The gateway accepted the prompt: this cart is spent.
	if err := s.clearCart(input.SessionID); err != nil {
		logger.Warnw("checkout_cart_clear_failed",
			"order_id", order.ID,
			"cart_session", input.SessionID,
			"error", err,
		)
	}

	if s.queueClient != nil {
		if err := s.queueClient.EnqueueOrderNotification(queue.OrderNotificationPayload{
			OrderID: order.ID,
			Status:  constants.OrderStatusPending,
		}); err != nil {
			logger.Warnw("checkout_notification_enqueue_failed", "order_id", order.ID, "error", err)
		}
	}

	logger.Infow("checkout_stk_push_accepted",
		"order_id", order.ID,
		"checkout_request_id", pushResult.CheckoutRequestID,
	)

	return &CheckoutResult{
		OrderID:           order.ID,
		Status:            order.Status,
		Subtotal:          order.Subtotal,
		DepositAmount:     order.DepositAmount,
		RemainingAmount:   order.RemainingAmount,
		IsDownpayment:     order.IsDownpayment,
		CheckoutRequestID: pushResult.CheckoutRequestID,
		CustomerMessage:   pushResult.CustomerMessage,
	}, nil
}

// cancelAfterPushFailure voids a just-created order whose payment prompt the
// gateway refused, returning the reserved stock. The cart is left intact so
// the customer can retry.
func (s *CheckoutService) cancelAfterPushFailure(order *models.Order) {
	err := s.cartRepo.Transaction(func(tx *gorm.DB) error {
		orderRepo := s.orderRepo.WithTx(tx)
		variationRepo := s.variationRepo.WithTx(tx)

		affected, err := orderRepo.UpdateStatusIf(order.ID, constants.OrderStatusPending, constants.OrderStatusCancelled, nil)
		if err != nil {
			return err
		}
		if affected == 0 {
			return nil
		}
		for _, item := range order.Items {
			if item.VariationID == nil {
				continue
			}
			if _, err := variationRepo.ReleaseStock(*item.VariationID, item.Quantity); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		logger.Errorw("checkout_cancel_after_push_failure_failed",
			"order_id", order.ID,
			"error", err,
		)
		return
	}
	order.Status = constants.OrderStatusCancelled
	logger.Infow("checkout_order_cancelled_after_push_failure", "order_id", order.ID)
}

func (s *CheckoutService) clearCart(sessionID string) error {
	cart, err := s.cartRepo.GetBySession(sessionID)
	if err != nil {
		return err
	}
	if cart == nil {
		return nil
	}
	return s.cartRepo.ClearItems(cart.ID)
}
