package service

import (
	"strings"

	"github.com/educycle/marketplace/internal/constants"
	"github.com/educycle/marketplace/internal/logger"
	"github.com/educycle/marketplace/internal/models"
	"github.com/educycle/marketplace/internal/repository"
)

// SendMessageInput describes a direct message.
type SendMessageInput struct {
	SenderID    uint
	RecipientID uint
	ItemID      *uint
	Body        string
}

// MessageService handles direct messages between users, usually about
// a listing.
type MessageService struct {
	messageRepo         repository.MessageRepository
	userRepo            repository.UserRepository
	itemRepo            repository.ItemRepository
	notificationService *NotificationService
}

// NewMessageService creates the message service.
func NewMessageService(messageRepo repository.MessageRepository, userRepo repository.UserRepository, itemRepo repository.ItemRepository, notificationService *NotificationService) *MessageService {
	return &MessageService{
		messageRepo:         messageRepo,
		userRepo:            userRepo,
		itemRepo:            itemRepo,
		notificationService: notificationService,
	}
}

// Send delivers a message and notifies the recipient.
func (s *MessageService) Send(input SendMessageInput) (*models.Message, error) {
	body := strings.TrimSpace(input.Body)
	if body == "" {
		return nil, ErrMessageBodyEmpty
	}
	if input.SenderID == input.RecipientID {
		return nil, ErrForbidden
	}
	recipient, err := s.userRepo.GetByID(input.RecipientID)
	if err != nil {
		return nil, err
	}
	if recipient == nil {
		return nil, ErrUserNotFound
	}
	if input.ItemID != nil {
		item, err := s.itemRepo.GetByID(*input.ItemID)
		if err != nil {
			return nil, err
		}
		if item == nil {
			return nil, ErrItemNotFound
		}
	}

	message := &models.Message{
		SenderID:    input.SenderID,
		RecipientID: input.RecipientID,
		ItemID:      input.ItemID,
		Body:        body,
	}
	if err := s.messageRepo.Create(message); err != nil {
		return nil, err
	}

	if s.notificationService != nil {
		if _, err := s.notificationService.Notify(NotifyInput{
			UserID:  input.RecipientID,
			Type:    constants.NotificationTypeMessageReceived,
			Title:   "New message",
			Message: "You have a new message.",
			ItemID:  input.ItemID,
		}); err != nil {
			logger.Warnw("message_notify_failed", "message_id", message.ID, "error", err)
		}
	}
	return message, nil
}

// Conversation fetches both directions between two users, oldest
// first.
func (s *MessageService) Conversation(userID, peerID uint, page, pageSize int) ([]models.Message, int64, error) {
	return s.messageRepo.ListConversation(userID, peerID, page, pageSize)
}

// Inbox fetches messages received by a user, newest first.
func (s *MessageService) Inbox(userID uint, page, pageSize int, peerID uint) ([]models.Message, int64, error) {
	return s.messageRepo.ListInbox(repository.MessageListFilter{
		Page:     page,
		PageSize: pageSize,
		UserID:   userID,
		PeerID:   peerID,
	})
}

// MarkRead marks one received message read.
func (s *MessageService) MarkRead(id uint, recipientID uint) error {
	affected, err := s.messageRepo.MarkRead(id, recipientID)
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrForbidden
	}
	return nil
}

// CountUnread counts a user's unread received messages.
func (s *MessageService) CountUnread(userID uint) (int64, error) {
	return s.messageRepo.CountUnread(userID)
}
