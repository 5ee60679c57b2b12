package queue

import (
	"encoding/json"

	"github.com/sofahub/sofahub-api/internal/constants"

	"github.com/hibiken/asynq"
)

const (
	// TaskOrderNotification delivers a customer order-status message.
	TaskOrderNotification = constants.TaskOrderNotification
)

// OrderNotificationPayload carries one order-status notification job.
type OrderNotificationPayload struct {
	OrderID uint   `json:"order_id"`
	Status  string `json:"status"`
}

// NewOrderNotificationTask builds a notification task.
func NewOrderNotificationTask(payload OrderNotificationPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskOrderNotification, body), nil
}
