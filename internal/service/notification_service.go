package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/sofahub/sofahub-api/internal/config"
	"github.com/sofahub/sofahub-api/internal/constants"
	"github.com/sofahub/sofahub-api/internal/logger"
	"github.com/sofahub/sofahub-api/internal/models"
)

// NotificationService delivers order-status messages to customers. The
// "log" provider only records the message; the "whatsapp" provider posts it
// to a messaging gateway. Delivery failures never affect order state.
type NotificationService struct {
	provider   string
	gatewayURL string
	apiToken   string
	httpClient *http.Client
}

// NewNotificationService creates the notification service.
func NewNotificationService(cfg *config.NotifyConfig) *NotificationService {
	provider := "log"
	gatewayURL := ""
	apiToken := ""
	timeout := 10 * time.Second
	if cfg != nil {
		if p := strings.ToLower(strings.TrimSpace(cfg.Provider)); p != "" {
			provider = p
		}
		gatewayURL = strings.TrimRight(strings.TrimSpace(cfg.GatewayURL), "/")
		apiToken = strings.TrimSpace(cfg.APIToken)
		if cfg.TimeoutSeconds > 0 {
			timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
		}
	}
	if provider == "whatsapp" && gatewayURL == "" {
		logger.Warnw("notification_gateway_url_missing_falling_back_to_log")
		provider = "log"
	}
	return &NotificationService{
		provider:   provider,
		gatewayURL: gatewayURL,
		apiToken:   apiToken,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// SendOrderStatus delivers the message for one order status change.
func (s *NotificationService) SendOrderStatus(ctx context.Context, order *models.Order, status string) error {
	if order == nil {
		return nil
	}
	if status == "" {
		status = order.Status
	}
	message := buildOrderStatusMessage(order, status)
	if message == "" {
		logger.Debugw("notification_skip_unknown_status", "order_id", order.ID, "status", status)
		return nil
	}

	switch s.provider {
	case "whatsapp":
		return s.sendWhatsApp(ctx, order, message)
	default:
		logger.Infow("notification_logged",
			"order_id", order.ID,
			"status", status,
			"phone", order.CustomerPhone,
			"message", message,
		)
		return nil
	}
}

func (s *NotificationService) sendWhatsApp(ctx context.Context, order *models.Order, message string) error {
	payload := map[string]interface{}{
		"phone":   order.CustomerPhone,
		"message": message,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.gatewayURL+"/api/v1/messages", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if s.apiToken != "" {
		req.Header.Set("Authorization", "Bearer "+s.apiToken)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("notification gateway status %d", resp.StatusCode)
	}

	logger.Infow("notification_sent",
		"order_id", order.ID,
		"phone", order.CustomerPhone,
	)
	return nil
}

func buildOrderStatusMessage(order *models.Order, status string) string {
	switch status {
	case constants.OrderStatusPending:
		return fmt.Sprintf(
			"Thank you %s! Order #%d received (KSh %s). Please complete the M-Pesa prompt for your deposit of KSh %s.",
			order.CustomerName, order.ID, order.Subtotal.String(), order.DepositAmount.String(),
		)
	case constants.OrderStatusDepositPaid:
		return fmt.Sprintf(
			"Deposit received for order #%d. Balance of KSh %s is due on delivery. We will contact you to arrange it.",
			order.ID, order.RemainingAmount.String(),
		)
	case constants.OrderStatusCompleted:
		return fmt.Sprintf(
			"Order #%d is complete. Thank you for shopping with us!",
			order.ID,
		)
	case constants.OrderStatusCancelled:
		return fmt.Sprintf(
			"Order #%d was cancelled. If this was unexpected, please place the order again or contact support.",
			order.ID,
		)
	default:
		return ""
	}
}
