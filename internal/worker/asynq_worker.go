package worker

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/educycle/marketplace/internal/logger"
	"github.com/educycle/marketplace/internal/provider"
	"github.com/educycle/marketplace/internal/queue"
	"github.com/educycle/marketplace/internal/service"

	"github.com/hibiken/asynq"
)

// Consumer handles async email tasks.
type Consumer struct {
	*provider.Container
}

// NewConsumer creates the consumer.
func NewConsumer(c *provider.Container) *Consumer {
	return &Consumer{
		Container: c,
	}
}

// Register attaches the handlers.
func (c *Consumer) Register(mux *asynq.ServeMux) {
	if c == nil || mux == nil {
		logger.Debugw("worker_register_skip_nil", "consumer_nil", c == nil, "mux_nil", mux == nil)
		return
	}
	mux.HandleFunc(queue.TaskNotificationEmail, c.handleNotificationEmail)
	mux.HandleFunc(queue.TaskOrderStatusEmail, c.handleOrderStatusEmail)
}

func (c *Consumer) handleNotificationEmail(_ context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		logger.Debugw("worker_notification_email_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	var payload queue.NotificationEmailPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_notification_email_unmarshal_failed", "error", err)
		return err
	}
	if payload.NotificationID == 0 {
		logger.Debugw("worker_notification_email_skip_invalid_payload", "notification_id", payload.NotificationID)
		return nil
	}
	notification, err := c.NotificationRepo.GetByID(payload.NotificationID)
	if err != nil {
		logger.Warnw("worker_notification_email_fetch_failed", "notification_id", payload.NotificationID, "error", err)
		return err
	}
	if notification == nil {
		logger.Debugw("worker_notification_email_skip_not_found", "notification_id", payload.NotificationID)
		return nil
	}
	if c.NotificationService == nil {
		logger.Warnw("worker_notification_email_skip_service_nil", "notification_id", notification.ID)
		return nil
	}
	if err := c.NotificationService.SendEmailCopy(notification); err != nil {
		switch {
		case errors.Is(err, service.ErrEmailServiceDisabled), errors.Is(err, service.ErrEmailServiceNotConfigured):
			logger.Debugw("worker_notification_email_skip_email_disabled", "notification_id", notification.ID)
			return nil
		case errors.Is(err, service.ErrInvalidEmail):
			logger.Debugw("worker_notification_email_skip_invalid_address", "notification_id", notification.ID)
			return nil
		case errors.Is(err, service.ErrEmailRecipientRejected):
			logger.Warnw("worker_notification_email_recipient_rejected", "notification_id", notification.ID)
			return nil
		default:
			logger.Warnw("worker_notification_email_send_failed", "notification_id", notification.ID, "error", err)
			return err
		}
	}
	return nil
}

func (c *Consumer) handleOrderStatusEmail(_ context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		logger.Debugw("worker_order_status_email_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	var payload queue.OrderStatusEmailPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_order_status_email_unmarshal_failed", "error", err)
		return err
	}
	if payload.OrderID == 0 {
		logger.Debugw("worker_order_status_email_skip_invalid_payload", "order_id", payload.OrderID)
		return nil
	}
	if c.OrderService == nil {
		logger.Warnw("worker_order_status_email_skip_service_nil", "order_id", payload.OrderID)
		return nil
	}
	if err := c.OrderService.SendStatusEmail(payload.OrderID, payload.Status); err != nil {
		switch {
		case errors.Is(err, service.ErrOrderNotFound):
			logger.Debugw("worker_order_status_email_skip_order_not_found", "order_id", payload.OrderID)
			return nil
		case errors.Is(err, service.ErrEmailServiceDisabled), errors.Is(err, service.ErrEmailServiceNotConfigured):
			logger.Debugw("worker_order_status_email_skip_email_disabled", "order_id", payload.OrderID)
			return nil
		case errors.Is(err, service.ErrEmailRecipientRejected):
			logger.Warnw("worker_order_status_email_recipient_rejected", "order_id", payload.OrderID)
			return nil
		default:
			logger.Warnw("worker_order_status_email_send_failed", "order_id", payload.OrderID, "status", payload.Status, "error", err)
			return err
		}
	}
	return nil
}
