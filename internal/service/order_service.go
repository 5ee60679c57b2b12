package service

import (
	"github.com/sofahub/sofahub-api/internal/constants"
	"github.com/sofahub/sofahub-api/internal/logger"
	"github.com/sofahub/sofahub-api/internal/models"
	"github.com/sofahub/sofahub-api/internal/queue"
	"github.com/sofahub/sofahub-api/internal/repository"

	"gorm.io/gorm"
)

// OrderService reads orders and drives their back-office transitions.
type OrderService struct {
	orderRepo     repository.OrderRepository
	variationRepo repository.VariationRepository
	cartRepo      repository.CartRepository
	queueClient   *queue.Client
}

// NewOrderService creates the order service.
func NewOrderService(
	orderRepo repository.OrderRepository,
	variationRepo repository.VariationRepository,
	cartRepo repository.CartRepository,
	queueClient *queue.Client,
) *OrderService {
	return &OrderService{
		orderRepo:     orderRepo,
		variationRepo: variationRepo,
		cartRepo:      cartRepo,
		queueClient:   queueClient,
	}
}

// GetOrder returns one order with its items.
func (s *OrderService) GetOrder(id uint) (*models.Order, error) {
	order, err := s.orderRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	return order, nil
}

// GetSessionOrder returns one order only when it belongs to the session.
func (s *OrderService) GetSessionOrder(sessionID string, id uint) (*models.Order, error) {
	order, err := s.GetOrder(id)
	if err != nil {
		return nil, err
	}
	if sessionID == "" || order.CartSession != sessionID {
		return nil, ErrOrderNotFound
	}
	return order, nil
}

// ListSessionOrders returns the orders placed from one session.
func (s *OrderService) ListSessionOrders(sessionID string, page, pageSize int) ([]models.Order, int64, error) {
	if sessionID == "" {
		return []models.Order{}, 0, nil
	}
	return s.orderRepo.ListBySession(sessionID, page, pageSize)
}

// ListOrders returns the back-office order page.
func (s *OrderService) ListOrders(filter repository.OrderListFilter) ([]models.Order, int64, error) {
	return s.orderRepo.ListAdmin(filter)
}

// MarkCompleted closes a deposit-paid order after the balance has been
// settled at delivery.
func (s *OrderService) MarkCompleted(id uint) (*models.Order, error) {
	order, err := s.GetOrder(id)
	if err != nil {
		return nil, err
	}

	affected, err := s.orderRepo.UpdateStatusIf(id, constants.OrderStatusDepositPaid, constants.OrderStatusCompleted, map[string]interface{}{
		"balance_paid": true,
	})
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, ErrOrderStatusInvalid
	}

	logger.Infow("order_marked_completed", "order_id", order.ID)
	s.notify(order.ID, constants.OrderStatusCompleted)
	return s.GetOrder(id)
}

// CancelOrder voids a pending or deposit-paid order and returns its
// reserved stock. The transition guard keeps a double cancel from restoring
// stock twice.
func (s *OrderService) CancelOrder(id uint) (*models.Order, error) {
	order, err := s.GetOrder(id)
	if err != nil {
		return nil, err
	}
	if order.Status != constants.OrderStatusPending && order.Status != constants.OrderStatusDepositPaid {
		return nil, ErrOrderStatusInvalid
	}

	err = s.cartRepo.Transaction(func(tx *gorm.DB) error {
		orderRepo := s.orderRepo.WithTx(tx)
		variationRepo := s.variationRepo.WithTx(tx)

		affected, err := orderRepo.UpdateStatusIf(id, order.Status, constants.OrderStatusCancelled, nil)
		if err != nil {
			return err
		}
		if affected == 0 {
			return ErrOrderStatusInvalid
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
		return nil, err
	}

	logger.Infow("order_cancelled", "order_id", order.ID, "previous_status", order.Status)
	s.notify(order.ID, constants.OrderStatusCancelled)
	return s.GetOrder(id)
}

func (s *OrderService) notify(orderID uint, status string) {
	if s.queueClient == nil {
		return
	}
	if err := s.queueClient.EnqueueOrderNotification(queue.OrderNotificationPayload{
		OrderID: orderID,
		Status:  status,
	}); err != nil {
		logger.Warnw("order_notification_enqueue_failed", "order_id", orderID, "error", err)
	}
}
