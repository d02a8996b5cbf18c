package repository

import (
	"github.com/educycle/marketplace/internal/models"

	"gorm.io/gorm"
)

// NotificationRepository is the notification data access interface.
type NotificationRepository interface {
	Create(notification *models.Notification) error
	GetByID(id uint) (*models.Notification, error)
	List(filter NotificationListFilter) ([]models.Notification, int64, error)
	CountUnread(userID uint) (int64, error)
	MarkRead(id uint, userID uint) (int64, error)
	MarkAllRead(userID uint) error
	WithTx(tx *gorm.DB) *GormNotificationRepository
}

// GormNotificationRepository is the GORM implementation.
type GormNotificationRepository struct {
	db *gorm.DB
}

// NewNotificationRepository creates the notification repository.
func NewNotificationRepository(db *gorm.DB) *GormNotificationRepository {
	return &GormNotificationRepository{db: db}
}

// WithTx binds a transaction.
func (r *GormNotificationRepository) WithTx(tx *gorm.DB) *GormNotificationRepository {
	if tx == nil {
		return r
	}
	return &GormNotificationRepository{db: tx}
}

// Create inserts a notification.
func (r *GormNotificationRepository) Create(notification *models.Notification) error {
	return r.db.Create(notification).Error
}

// GetByID fetches one notification, nil when missing.
func (r *GormNotificationRepository) GetByID(id uint) (*models.Notification, error) {
	var notification models.Notification
	result := r.db.Limit(1).Find(&notification, id)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, nil
	}
	return &notification, nil
}

// List fetches a user's notifications, newest first.
func (r *GormNotificationRepository) List(filter NotificationListFilter) ([]models.Notification, int64, error) {
	query := r.db.Model(&models.Notification{}).Where("user_id = ?", filter.UserID)
	if filter.UnreadOnly {
		query = query.Where("is_read = ?", false)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = applyPagination(query, filter.Page, filter.PageSize)

	var notifications []models.Notification
	if err := query.Order("id desc").Find(&notifications).Error; err != nil {
		return nil, 0, err
	}
	return notifications, total, nil
}

// CountUnread counts a user's unread notifications.
func (r *GormNotificationRepository) CountUnread(userID uint) (int64, error) {
	var count int64
	err := r.db.Model(&models.Notification{}).Where("user_id = ? AND is_read = ?", userID, false).Count(&count).Error
	return count, err
}

// MarkRead flags one notification read, scoped to its owner. Returns
// the affected row count so callers can detect a miss.
func (r *GormNotificationRepository) MarkRead(id uint, userID uint) (int64, error) {
	result := r.db.Model(&models.Notification{}).
		Where("id = ? AND user_id = ?", id, userID).
		Update("is_read", true)
	return result.RowsAffected, result.Error
}

// MarkAllRead flags all of a user's notifications read.
func (r *GormNotificationRepository) MarkAllRead(userID uint) error {
	return r.db.Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Update("is_read", true).Error
}
