package service

import (
	"github.com/educycle/marketplace/internal/logger"
	"github.com/educycle/marketplace/internal/models"
	"github.com/educycle/marketplace/internal/queue"
	"github.com/educycle/marketplace/internal/repository"

	"github.com/hibiken/asynq"
)

// NotifyInput describes one notification to dispatch.
type NotifyInput struct {
	UserID  uint
	Type    string
	Title   string
	Message string
	ItemID  *uint
	OrderID *uint
}

// NotificationService dispatches notifications. The in-app record is
// durable and written first; the email copy is best effort and never
// fails the caller. When the queue is enabled the email leg goes
// through asynq, otherwise it is sent inline.
type NotificationService struct {
	notificationRepo repository.NotificationRepository
	userRepo         repository.UserRepository
	emailService     *EmailService
	queueClient      *queue.Client
}

// NewNotificationService creates the notification service.
func NewNotificationService(notificationRepo repository.NotificationRepository, userRepo repository.UserRepository, emailService *EmailService, queueClient *queue.Client) *NotificationService {
	return &NotificationService{
		notificationRepo: notificationRepo,
		userRepo:         userRepo,
		emailService:     emailService,
		queueClient:      queueClient,
	}
}

// Notify writes the in-app record and dispatches the email copy.
func (s *NotificationService) Notify(input NotifyInput) (*models.Notification, error) {
	notification := &models.Notification{
		UserID:  input.UserID,
		Type:    input.Type,
		Title:   input.Title,
		Message: input.Message,
		ItemID:  input.ItemID,
		OrderID: input.OrderID,
	}
	if err := s.notificationRepo.Create(notification); err != nil {
		return nil, err
	}
	s.dispatchEmail(notification)
	return notification, nil
}

// NotifyInApp writes the in-app record only. Used by events that mail
// a dedicated email instead of the generic notification copy.
func (s *NotificationService) NotifyInApp(input NotifyInput) (*models.Notification, error) {
	notification := &models.Notification{
		UserID:  input.UserID,
		Type:    input.Type,
		Title:   input.Title,
		Message: input.Message,
		ItemID:  input.ItemID,
		OrderID: input.OrderID,
	}
	if err := s.notificationRepo.Create(notification); err != nil {
		return nil, err
	}
	return notification, nil
}

// List fetches a user's notifications.
func (s *NotificationService) List(userID uint, page, pageSize int, unreadOnly bool) ([]models.Notification, int64, error) {
	return s.notificationRepo.List(repository.NotificationListFilter{
		Page:       page,
		PageSize:   pageSize,
		UserID:     userID,
		UnreadOnly: unreadOnly,
	})
}

// CountUnread counts a user's unread notifications.
func (s *NotificationService) CountUnread(userID uint) (int64, error) {
	return s.notificationRepo.CountUnread(userID)
}

// MarkRead marks one notification read.
func (s *NotificationService) MarkRead(id uint, userID uint) error {
	affected, err := s.notificationRepo.MarkRead(id, userID)
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrForbidden
	}
	return nil
}

// MarkAllRead marks all of a user's notifications read.
func (s *NotificationService) MarkAllRead(userID uint) error {
	return s.notificationRepo.MarkAllRead(userID)
}

// dispatchEmail sends the email copy of a stored notification. Any
// failure is logged and swallowed: the in-app row already exists.
func (s *NotificationService) dispatchEmail(notification *models.Notification) {
	if notification == nil {
		return
	}
	if s.queueClient.Enabled() {
		err := s.queueClient.EnqueueNotificationEmail(queue.NotificationEmailPayload{
			NotificationID: notification.ID,
		}, asynq.MaxRetry(5))
		if err != nil {
			logger.Warnw("notification_email_enqueue_failed",
				"notification_id", notification.ID,
				"user_id", notification.UserID,
				"error", err,
			)
		}
		return
	}
	if err := s.SendEmailCopy(notification); err != nil {
		logger.Warnw("notification_email_send_failed",
			"notification_id", notification.ID,
			"user_id", notification.UserID,
			"error", err,
		)
	}
}

// SendEmailCopy mails the email leg of a notification. Called inline
// when the queue is disabled and from the worker otherwise.
func (s *NotificationService) SendEmailCopy(notification *models.Notification) error {
	if s.emailService == nil || notification == nil {
		return nil
	}
	user, err := s.userRepo.GetByID(notification.UserID)
	if err != nil {
		return err
	}
	if user == nil || user.Email == "" {
		return nil
	}
	return s.emailService.SendNotificationEmail(user.Email, notification)
}
