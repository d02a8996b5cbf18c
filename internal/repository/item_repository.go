package repository

import (
	"errors"

	"github.com/educycle/marketplace/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ItemRepository is the listing data access interface.
type ItemRepository interface {
	Create(item *models.Item) error
	Update(item *models.Item) error
	Delete(id uint) error
	GetByID(id uint) (*models.Item, error)
	GetByIDForUpdate(id uint) (*models.Item, error)
	List(filter ItemListFilter) ([]models.Item, int64, error)
	UpdateStatus(id uint, status string) error
	WithTx(tx *gorm.DB) *GormItemRepository
}

// GormItemRepository is the GORM implementation.
type GormItemRepository struct {
	db *gorm.DB
}

// NewItemRepository creates the listing repository.
func NewItemRepository(db *gorm.DB) *GormItemRepository {
	return &GormItemRepository{db: db}
}

// WithTx binds a transaction.
func (r *GormItemRepository) WithTx(tx *gorm.DB) *GormItemRepository {
	if tx == nil {
		return r
	}
	return &GormItemRepository{db: tx}
}

// Create inserts a listing.
func (r *GormItemRepository) Create(item *models.Item) error {
	return r.db.Create(item).Error
}

// Update saves a listing.
func (r *GormItemRepository) Update(item *models.Item) error {
	return r.db.Save(item).Error
}

// Delete removes a listing.
func (r *GormItemRepository) Delete(id uint) error {
	return r.db.Delete(&models.Item{}, id).Error
}

// GetByID fetches a listing by id.
func (r *GormItemRepository) GetByID(id uint) (*models.Item, error) {
	var item models.Item
	if err := r.db.Preload("Seller").First(&item, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &item, nil
}

// GetByIDForUpdate fetches a listing with a row lock. Meaningful only
// inside a transaction; sqlite ignores the locking clause.
func (r *GormItemRepository) GetByIDForUpdate(id uint) (*models.Item, error) {
	var item models.Item
	if err := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).First(&item, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &item, nil
}

// List fetches listings matching the filter with a total count.
func (r *GormItemRepository) List(filter ItemListFilter) ([]models.Item, int64, error) {
	query := r.db.Model(&models.Item{})

	if filter.OnlyActive {
		query = query.Where("is_active = ?", true)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.Category != "" {
		query = query.Where("category = ?", filter.Category)
	}
	if filter.SellerID != 0 {
		query = query.Where("seller_id = ?", filter.SellerID)
	}
	if filter.Search != "" {
		condition, argCount := buildKeywordLikeCondition(r.db, []string{"name", "description"})
		if condition != "" {
			like := "%" + filter.Search + "%"
			query = query.Where(condition, repeatLikeArgs(like, argCount)...)
		}
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = applyPagination(query, filter.Page, filter.PageSize)

	var items []models.Item
	if err := query.Preload("Seller").Order("created_at desc").Find(&items).Error; err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// UpdateStatus flips the availability status.
func (r *GormItemRepository) UpdateStatus(id uint, status string) error {
	return r.db.Model(&models.Item{}).Where("id = ?", id).Update("status", status).Error
}
