package queue

import (
	"encoding/json"

	"github.com/educycle/marketplace/internal/constants"

	"github.com/hibiken/asynq"
)

const (
	// TaskNotificationEmail delivers the email leg of a notification.
	TaskNotificationEmail = constants.TaskNotificationEmail
	// TaskOrderStatusEmail mails the buyer on an order status change.
	TaskOrderStatusEmail = constants.TaskOrderStatusEmail
)

// NotificationEmailPayload carries a persisted notification id. The
// worker re-reads the row so the email reflects the durable record.
type NotificationEmailPayload struct {
	NotificationID uint `json:"notification_id"`
}

// OrderStatusEmailPayload carries an order status change.
type OrderStatusEmailPayload struct {
	OrderID uint   `json:"order_id"`
	Status  string `json:"status"`
}

// NewNotificationEmailTask creates a notification email task.
func NewNotificationEmailTask(payload NotificationEmailPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskNotificationEmail, body), nil
}

// NewOrderStatusEmailTask creates an order status email task.
func NewOrderStatusEmailTask(payload OrderStatusEmailPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskOrderStatusEmail, body), nil
}
