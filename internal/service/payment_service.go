package service

import (
	"context"
	"fmt"

	"github.com/sofahub/sofahub-api/internal/constants"
	"github.com/sofahub/sofahub-api/internal/logger"
	"github.com/sofahub/sofahub-api/internal/models"
	"github.com/sofahub/sofahub-api/internal/payment/mpesa"
	"github.com/sofahub/sofahub-api/internal/queue"
	"github.com/sofahub/sofahub-api/internal/repository"

	"gorm.io/gorm"
)

// PaymentService reconciles gateway callbacks against orders.
type PaymentService struct {
	orderRepo     repository.OrderRepository
	variationRepo repository.VariationRepository
	cartRepo      repository.CartRepository
	gateway       PaymentGateway
	queueClient   *queue.Client
}

// NewPaymentService creates the payment service.
func NewPaymentService(
	orderRepo repository.OrderRepository,
	variationRepo repository.VariationRepository,
	cartRepo repository.CartRepository,
	gateway PaymentGateway,
	queueClient *queue.Client,
) *PaymentService {
	return &PaymentService{
		orderRepo:     orderRepo,
		variationRepo: variationRepo,
		cartRepo:      cartRepo,
		gateway:       gateway,
		queueClient:   queueClient,
	}
}

// HandleMpesaCallback applies one stkCallback to its order. Only orders
// still pending are touched; replays and late duplicates find the guard
// already consumed and fall through without side effects.
func (s *PaymentService) HandleMpesaCallback(ctx context.Context, body []byte) error {
	result, err := mpesa.ParseCallback(body)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrCallbackInvalid, err)
	}

	order, err := s.resolveOrder(result)
	if err != nil {
		return err
	}
	if order == nil {
		logger.Warnw("payment_callback_order_not_found",
			"checkout_request_id", result.CheckoutRequestID,
			"account_reference", result.AccountReference,
			"result_code", result.ResultCode,
		)
		return ErrOrderNotFound
	}

	if result.Success() {
		return s.applySuccess(order, result)
	}
	return s.applyFailure(order, result)
}

// resolveOrder matches a callback to its order. The account reference wins
// because it is committed with the order before the prompt is sent, so it
// still resolves when the checkout request id was never stored; a stored id
// that disagrees with the callback's marks a forged or misrouted callback.
func (s *PaymentService) resolveOrder(result *mpesa.CallbackResult) (*models.Order, error) {
	if id, ok := result.OrderID(); ok {
		order, err := s.orderRepo.GetByID(id)
		if err != nil {
			return nil, err
		}
		if order != nil {
			if order.CheckoutRequestID != "" && result.CheckoutRequestID != "" &&
				order.CheckoutRequestID != result.CheckoutRequestID {
				return nil, fmt.Errorf("%w: checkout request id mismatch for order %d", ErrCallbackInvalid, order.ID)
			}
			return order, nil
		}
	}
	return s.orderRepo.GetByCheckoutRequestID(result.CheckoutRequestID)
}

func (s *PaymentService) applySuccess(order *models.Order, result *mpesa.CallbackResult) error {
	toStatus := constants.OrderStatusDepositPaid
	updates := map[string]interface{}{
		"mpesa_transaction_id": result.ReceiptNumber,
		"payment_confirmed":    true,
		"deposit_paid":         true,
	}
	if order.CheckoutRequestID == "" && result.CheckoutRequestID != "" {
		// Resolved by account reference before the prompt id was stored.
		updates["checkout_request_id"] = result.CheckoutRequestID
	}
	if !order.IsDownpayment {
		// Full-payment orders have nothing left to collect.
		toStatus = constants.OrderStatusCompleted
		updates["balance_paid"] = true
	}

	affected, err := s.orderRepo.UpdateStatusIf(order.ID, constants.OrderStatusPending, toStatus, updates)
	if err != nil {
		return err
	}
	if affected == 0 {
		logger.Infow("payment_callback_duplicate_ignored",
			"order_id", order.ID,
			"checkout_request_id", result.CheckoutRequestID,
			"current_status", order.Status,
		)
		return nil
	}

	logger.Infow("payment_callback_deposit_confirmed",
		"order_id", order.ID,
		"checkout_request_id", result.CheckoutRequestID,
		"receipt_number", result.ReceiptNumber,
		"amount", result.Amount,
		"new_status", toStatus,
	)
	s.notify(order.ID, toStatus)
	return nil
}

func (s *PaymentService) applyFailure(order *models.Order, result *mpesa.CallbackResult) error {
	txErr := s.transactionally(func(tx *gorm.DB) error {
		orderRepo := s.orderRepo.WithTx(tx)
		variationRepo := s.variationRepo.WithTx(tx)

		affected, err := orderRepo.UpdateStatusIf(order.ID, constants.OrderStatusPending, constants.OrderStatusCancelled, nil)
		if err != nil {
			return err
		}
		if affected == 0 {
			logger.Infow("payment_callback_duplicate_ignored",
				"order_id", order.ID,
				"checkout_request_id", result.CheckoutRequestID,
				"current_status", order.Status,
			)
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
		logger.Infow("payment_callback_order_cancelled",
			"order_id", order.ID,
			"checkout_request_id", result.CheckoutRequestID,
			"result_code", result.ResultCode,
			"result_desc", result.ResultDesc,
		)
		s.notify(order.ID, constants.OrderStatusCancelled)
		return nil
	})
	return txErr
}

func (s *PaymentService) transactionally(fn func(tx *gorm.DB) error) error {
	return s.cartRepo.Transaction(fn)
}

func (s *PaymentService) notify(orderID uint, status string) {
	if s.queueClient == nil {
		return
	}
	if err := s.queueClient.EnqueueOrderNotification(queue.OrderNotificationPayload{
		OrderID: orderID,
		Status:  status,
	}); err != nil {
		logger.Warnw("payment_notification_enqueue_failed", "order_id", orderID, "error", err)
	}
}

// QueryPaymentStatus asks the gateway for the state of an order's payment
// prompt. Diagnostic for orders whose callback never arrived.
func (s *PaymentService) QueryPaymentStatus(ctx context.Context, orderID uint) (*mpesa.STKQueryResult, error) {
	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	if order.CheckoutRequestID == "" {
		return nil, ErrOrderStatusInvalid
	}
	return s.gateway.QuerySTKStatus(ctx, order.CheckoutRequestID)
}
