package repository

import (
	"github.com/educycle/marketplace/internal/models"

	"gorm.io/gorm"
)

// MessageRepository is the direct-message data access interface.
type MessageRepository interface {
	Create(message *models.Message) error
	ListConversation(userID, peerID uint, page, pageSize int) ([]models.Message, int64, error)
	ListInbox(filter MessageListFilter) ([]models.Message, int64, error)
	MarkRead(id uint, recipientID uint) (int64, error)
	CountUnread(userID uint) (int64, error)
	WithTx(tx *gorm.DB) *GormMessageRepository
}

// GormMessageRepository is the GORM implementation.
type GormMessageRepository struct {
	db *gorm.DB
}

// NewMessageRepository creates the message repository.
func NewMessageRepository(db *gorm.DB) *GormMessageRepository {
	return &GormMessageRepository{db: db}
}

// WithTx binds a transaction.
func (r *GormMessageRepository) WithTx(tx *gorm.DB) *GormMessageRepository {
	if tx == nil {
		return r
	}
	return &GormMessageRepository{db: tx}
}

// Create inserts a message.
func (r *GormMessageRepository) Create(message *models.Message) error {
	return r.db.Create(message).Error
}

// ListConversation fetches both directions between two users, oldest first.
func (r *GormMessageRepository) ListConversation(userID, peerID uint, page, pageSize int) ([]models.Message, int64, error) {
	query := r.db.Model(&models.Message{}).Where(
		"(sender_id = ? AND recipient_id = ?) OR (sender_id = ? AND recipient_id = ?)",
		userID, peerID, peerID, userID,
	)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = applyPagination(query, page, pageSize)

	var messages []models.Message
	if err := query.Preload("Sender").Order("id asc").Find(&messages).Error; err != nil {
		return nil, 0, err
	}
	return messages, total, nil
}

// ListInbox fetches messages received by a user, newest first.
func (r *GormMessageRepository) ListInbox(filter MessageListFilter) ([]models.Message, int64, error) {
	query := r.db.Model(&models.Message{}).Where("recipient_id = ?", filter.UserID)
	if filter.PeerID != 0 {
		query = query.Where("sender_id = ?", filter.PeerID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = applyPagination(query, filter.Page, filter.PageSize)

	var messages []models.Message
	if err := query.Preload("Sender").Order("id desc").Find(&messages).Error; err != nil {
		return nil, 0, err
	}
	return messages, total, nil
}

// MarkRead flags one received message read. Returns the affected row
// count so callers can detect a miss.
func (r *GormMessageRepository) MarkRead(id uint, recipientID uint) (int64, error) {
	result := r.db.Model(&models.Message{}).
		Where("id = ? AND recipient_id = ?", id, recipientID).
		Update("is_read", true)
	return result.RowsAffected, result.Error
}

// CountUnread counts a user's unread received messages.
func (r *GormMessageRepository) CountUnread(userID uint) (int64, error) {
	var count int64
	err := r.db.Model(&models.Message{}).Where("recipient_id = ? AND is_read = ?", userID, false).Count(&count).Error
	return count, err
}
