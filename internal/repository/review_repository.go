package repository

import (
	"errors"

	"github.com/educycle/marketplace/internal/models"

	"gorm.io/gorm"
)

// ReviewRepository is the review data access interface.
type ReviewRepository interface {
	Create(review *models.Review) error
	Update(review *models.Review) error
	Delete(id uint) error
	GetByID(id uint) (*models.Review, error)
	GetByItemAndReviewer(itemID, reviewerID uint) (*models.Review, error)
	ListByItem(itemID uint) ([]models.Review, error)
	AverageRating(itemID uint) (float64, error)
	WithTx(tx *gorm.DB) *GormReviewRepository
}

// GormReviewRepository is the GORM implementation.
type GormReviewRepository struct {
	db *gorm.DB
}

// NewReviewRepository creates the review repository.
func NewReviewRepository(db *gorm.DB) *GormReviewRepository {
	return &GormReviewRepository{db: db}
}

// WithTx binds a transaction.
func (r *GormReviewRepository) WithTx(tx *gorm.DB) *GormReviewRepository {
	if tx == nil {
		return r
	}
	return &GormReviewRepository{db: tx}
}

// Create inserts a review.
func (r *GormReviewRepository) Create(review *models.Review) error {
	return r.db.Create(review).Error
}

// Update saves a review.
func (r *GormReviewRepository) Update(review *models.Review) error {
	return r.db.Save(review).Error
}

// Delete removes a review.
func (r *GormReviewRepository) Delete(id uint) error {
	return r.db.Delete(&models.Review{}, id).Error
}

// GetByID fetches a review by id.
func (r *GormReviewRepository) GetByID(id uint) (*models.Review, error) {
	var review models.Review
	if err := r.db.First(&review, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &review, nil
}

// GetByItemAndReviewer fetches the one review a user may hold on an item.
func (r *GormReviewRepository) GetByItemAndReviewer(itemID, reviewerID uint) (*models.Review, error) {
	var review models.Review
	result := r.db.Where("item_id = ? AND reviewer_id = ?", itemID, reviewerID).Limit(1).Find(&review)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, nil
	}
	return &review, nil
}

// ListByItem fetches an item's reviews, newest first.
func (r *GormReviewRepository) ListByItem(itemID uint) ([]models.Review, error) {
	var reviews []models.Review
	if err := r.db.Preload("Reviewer").Where("item_id = ?", itemID).Order("id desc").Find(&reviews).Error; err != nil {
		return nil, err
	}
	return reviews, nil
}

// AverageRating computes the mean rating for an item, 0 when unrated.
func (r *GormReviewRepository) AverageRating(itemID uint) (float64, error) {
	var avg *float64
	err := r.db.Model(&models.Review{}).
		Select("AVG(rating)").
		Where("item_id = ?", itemID).
		Scan(&avg).Error
	if err != nil {
		return 0, err
	}
	if avg == nil {
		return 0, nil
	}
	return *avg, nil
}
