package repository

import (
	"github.com/educycle/marketplace/internal/models"

	"gorm.io/gorm"
)

// ChatRepository is the chatbot transcript data access interface.
type ChatRepository interface {
	Append(message *models.ChatMessage) error
	ListBySession(sessionID string) ([]models.ChatMessage, error)
	WithTx(tx *gorm.DB) *GormChatRepository
}

// GormChatRepository is the GORM implementation.
type GormChatRepository struct {
	db *gorm.DB
}

// NewChatRepository creates the transcript repository.
func NewChatRepository(db *gorm.DB) *GormChatRepository {
	return &GormChatRepository{db: db}
}

// WithTx binds a transaction.
func (r *GormChatRepository) WithTx(tx *gorm.DB) *GormChatRepository {
	if tx == nil {
		return r
	}
	return &GormChatRepository{db: tx}
}

// Append records one transcript turn.
func (r *GormChatRepository) Append(message *models.ChatMessage) error {
	return r.db.Create(message).Error
}

// ListBySession fetches a session's transcript in arrival order.
func (r *GormChatRepository) ListBySession(sessionID string) ([]models.ChatMessage, error) {
	var messages []models.ChatMessage
	if err := r.db.Where("session_id = ?", sessionID).Order("created_at asc, id asc").Find(&messages).Error; err != nil {
		return nil, err
	}
	return messages, nil
}
