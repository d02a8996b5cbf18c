package repository

import (
	"errors"

	"github.com/educycle/marketplace/internal/models"

	"gorm.io/gorm"
)

// CartRepository is the cart data access interface.
type CartRepository interface {
	ListByUser(userID uint) ([]models.CartItem, error)
	GetByUserAndItem(userID, itemID uint) (*models.CartItem, error)
	Upsert(item *models.CartItem) error
	DeleteByUserAndItem(userID, itemID uint) error
	ClearByUser(userID uint) error
	WithTx(tx *gorm.DB) *GormCartRepository
}

// GormCartRepository is the GORM implementation.
type GormCartRepository struct {
	db *gorm.DB
}

// NewCartRepository creates the cart repository.
func NewCartRepository(db *gorm.DB) *GormCartRepository {
	return &GormCartRepository{db: db}
}

// WithTx binds a transaction.
func (r *GormCartRepository) WithTx(tx *gorm.DB) *GormCartRepository {
	if tx == nil {
		return r
	}
	return &GormCartRepository{db: tx}
}

// ListByUser fetches a user's cart lines with their items.
func (r *GormCartRepository) ListByUser(userID uint) ([]models.CartItem, error) {
	var items []models.CartItem
	if err := r.db.Preload("Item").Where("user_id = ?", userID).Order("updated_at desc").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// GetByUserAndItem fetches one cart line.
func (r *GormCartRepository) GetByUserAndItem(userID, itemID uint) (*models.CartItem, error) {
	var line models.CartItem
	result := r.db.Where("user_id = ? AND item_id = ?", userID, itemID).Limit(1).Find(&line)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, nil
	}
	return &line, nil
}

// Upsert adds or updates a cart line.
func (r *GormCartRepository) Upsert(item *models.CartItem) error {
	if item == nil {
		return nil
	}
	var existing models.CartItem
	err := r.db.Where("user_id = ? AND item_id = ?", item.UserID, item.ItemID).First(&existing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return r.db.Create(item).Error
	}
	if err != nil {
		return err
	}
	updates := map[string]interface{}{
		"quantity":   item.Quantity,
		"updated_at": item.UpdatedAt,
	}
	return r.db.Model(&existing).Updates(updates).Error
}

// DeleteByUserAndItem removes one cart line.
func (r *GormCartRepository) DeleteByUserAndItem(userID, itemID uint) error {
	return r.db.Where("user_id = ? AND item_id = ?", userID, itemID).Delete(&models.CartItem{}).Error
}

// ClearByUser empties a user's cart.
func (r *GormCartRepository) ClearByUser(userID uint) error {
	return r.db.Where("user_id = ?", userID).Delete(&models.CartItem{}).Error
}
