package service

import (
	"context"
	"strings"

	"github.com/educycle/marketplace/internal/cache"
	"github.com/educycle/marketplace/internal/constants"
	"github.com/educycle/marketplace/internal/logger"
	"github.com/educycle/marketplace/internal/models"
	"github.com/educycle/marketplace/internal/repository"
)

// CreateReviewInput describes a new review.
type CreateReviewInput struct {
	ItemID     uint
	ReviewerID uint
	Rating     int
	Comment    string
}

// ReviewService manages item reviews. Each user holds at most one
// review per item, enforced both here and by the unique index.
type ReviewService struct {
	reviewRepo          repository.ReviewRepository
	itemRepo            repository.ItemRepository
	notificationService *NotificationService
}

// NewReviewService creates the review service.
func NewReviewService(reviewRepo repository.ReviewRepository, itemRepo repository.ItemRepository, notificationService *NotificationService) *ReviewService {
	return &ReviewService{
		reviewRepo:          reviewRepo,
		itemRepo:            itemRepo,
		notificationService: notificationService,
	}
}

// Create posts a review. Sellers cannot review their own listings and
// a second review of the same item is rejected.
func (s *ReviewService) Create(input CreateReviewInput) (*models.Review, error) {
	if input.Rating < 1 || input.Rating > 5 {
		return nil, ErrInvalidRating
	}
	item, err := s.itemRepo.GetByID(input.ItemID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, ErrItemNotFound
	}
	if item.SellerID == input.ReviewerID {
		return nil, ErrOwnItem
	}

	existing, err := s.reviewRepo.GetByItemAndReviewer(input.ItemID, input.ReviewerID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrDuplicateReview
	}

	review := &models.Review{
		ItemID:     input.ItemID,
		ReviewerID: input.ReviewerID,
		Rating:     input.Rating,
		Comment:    strings.TrimSpace(input.Comment),
	}
	if err := s.reviewRepo.Create(review); err != nil {
		return nil, err
	}
	s.invalidateRating(input.ItemID)

	if s.notificationService != nil {
		if _, err := s.notificationService.Notify(NotifyInput{
			UserID:  item.SellerID,
			Type:    constants.NotificationTypeReviewReceived,
			Title:   "New review received",
			Message: "Your listing \"" + item.Name + "\" received a new review.",
			ItemID:  &item.ID,
		}); err != nil {
			logger.Warnw("review_notify_failed", "item_id", item.ID, "error", err)
		}
	}
	return review, nil
}

// Update edits the reviewer's own review.
func (s *ReviewService) Update(id uint, reviewerID uint, rating int, comment string) (*models.Review, error) {
	if rating < 1 || rating > 5 {
		return nil, ErrInvalidRating
	}
	review, err := s.reviewRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if review == nil {
		return nil, ErrItemNotFound
	}
	if review.ReviewerID != reviewerID {
		return nil, ErrForbidden
	}
	review.Rating = rating
	review.Comment = strings.TrimSpace(comment)
	if err := s.reviewRepo.Update(review); err != nil {
		return nil, err
	}
	s.invalidateRating(review.ItemID)
	return review, nil
}

// Delete removes the reviewer's own review.
func (s *ReviewService) Delete(id uint, reviewerID uint) error {
	review, err := s.reviewRepo.GetByID(id)
	if err != nil {
		return err
	}
	if review == nil {
		return ErrItemNotFound
	}
	if review.ReviewerID != reviewerID {
		return ErrForbidden
	}
	if err := s.reviewRepo.Delete(id); err != nil {
		return err
	}
	s.invalidateRating(review.ItemID)
	return nil
}

func (s *ReviewService) invalidateRating(itemID uint) {
	if err := cache.DelItemRating(context.Background(), itemID); err != nil {
		logger.Warnw("item_rating_cache_invalidate_failed", "item_id", itemID, "error", err)
	}
}

// ListByItem fetches an item's reviews with the mean rating.
func (s *ReviewService) ListByItem(itemID uint) ([]models.Review, float64, error) {
	reviews, err := s.reviewRepo.ListByItem(itemID)
	if err != nil {
		return nil, 0, err
	}
	avg, err := s.reviewRepo.AverageRating(itemID)
	if err != nil {
		return nil, 0, err
	}
	return reviews, avg, nil
}
