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

// CreateItemInput describes a new listing.
type CreateItemInput struct {
	SellerID        uint
	Name            string
	Description     string
	Category        string
	Price           *models.Money
	DesiredSwapItem string
	Condition       string
}

// UpdateItemInput carries editable listing fields. Nil pointers leave
// the current value untouched; Price uses ClearPrice to distinguish
// "unset" from "unchanged".
type UpdateItemInput struct {
	Name            *string
	Description     *string
	Category        *string
	Price           *models.Money
	ClearPrice      bool
	DesiredSwapItem *string
	Condition       *string
	IsActive        *bool
}

// ItemService manages listings.
type ItemService struct {
	itemRepo            repository.ItemRepository
	reviewRepo          repository.ReviewRepository
	notificationService *NotificationService
}

// NewItemService creates the listing service.
func NewItemService(itemRepo repository.ItemRepository, reviewRepo repository.ReviewRepository, notificationService *NotificationService) *ItemService {
	return &ItemService{
		itemRepo:            itemRepo,
		reviewRepo:          reviewRepo,
		notificationService: notificationService,
	}
}

// Create publishes a new listing.
func (s *ItemService) Create(input CreateItemInput) (*models.Item, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, ErrInvalidListing
	}
	category := strings.ToLower(strings.TrimSpace(input.Category))
	if !isValidCategory(category) {
		return nil, ErrInvalidCategory
	}

	item := &models.Item{
		SellerID:        input.SellerID,
		Name:            name,
		Description:     strings.TrimSpace(input.Description),
		Category:        category,
		Price:           input.Price,
		DesiredSwapItem: strings.TrimSpace(input.DesiredSwapItem),
		Condition:       strings.TrimSpace(input.Condition),
		Status:          constants.ItemStatusAvailable,
		IsActive:        true,
	}
	if err := s.itemRepo.Create(item); err != nil {
		return nil, err
	}

	if s.notificationService != nil {
		if _, err := s.notificationService.Notify(NotifyInput{
			UserID:  input.SellerID,
			Type:    constants.NotificationTypeItemAdded,
			Title:   "Listing published",
			Message: "Your listing \"" + item.Name + "\" is now live.",
			ItemID:  &item.ID,
		}); err != nil {
			logger.Warnw("item_added_notify_failed", "item_id", item.ID, "error", err)
		}
	}
	return item, nil
}

// Update edits a listing. Only the seller may edit, and ownership
// never changes.
func (s *ItemService) Update(id uint, sellerID uint, input UpdateItemInput) (*models.Item, error) {
	item, err := s.itemRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, ErrItemNotFound
	}
	if item.SellerID != sellerID {
		return nil, ErrForbidden
	}
	if item.Status == constants.ItemStatusSold || item.Status == constants.ItemStatusPending {
		return nil, ErrItemNotAvailable
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name != "" {
			item.Name = name
		}
	}
	if input.Description != nil {
		item.Description = strings.TrimSpace(*input.Description)
	}
	if input.Category != nil {
		category := strings.ToLower(strings.TrimSpace(*input.Category))
		if !isValidCategory(category) {
			return nil, ErrInvalidCategory
		}
		item.Category = category
	}
	if input.ClearPrice {
		item.Price = nil
	} else if input.Price != nil {
		item.Price = input.Price
	}
	if input.DesiredSwapItem != nil {
		item.DesiredSwapItem = strings.TrimSpace(*input.DesiredSwapItem)
	}
	if input.Condition != nil {
		item.Condition = strings.TrimSpace(*input.Condition)
	}
	if input.IsActive != nil {
		item.IsActive = *input.IsActive
	}

	if err := s.itemRepo.Update(item); err != nil {
		return nil, err
	}
	return item, nil
}

// Delete removes a listing. Only the seller may delete, and only
// while the listing is not locked into a checkout.
func (s *ItemService) Delete(id uint, sellerID uint) error {
	item, err := s.itemRepo.GetByID(id)
	if err != nil {
		return err
	}
	if item == nil {
		return ErrItemNotFound
	}
	if item.SellerID != sellerID {
		return ErrForbidden
	}
	if item.Status == constants.ItemStatusPending {
		return ErrItemNotAvailable
	}
	return s.itemRepo.Delete(id)
}

// Get fetches one listing.
func (s *ItemService) Get(id uint) (*models.Item, error) {
	item, err := s.itemRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, ErrItemNotFound
	}
	return item, nil
}

// GetWithRating fetches one listing together with its mean rating.
// The rating is served from cache when redis is enabled.
func (s *ItemService) GetWithRating(ctx context.Context, id uint) (*models.Item, float64, error) {
	item, err := s.Get(id)
	if err != nil {
		return nil, 0, err
	}

	if state, hit, err := cache.GetItemRating(ctx, id); err == nil && hit {
		return item, state.Average, nil
	} else if err != nil {
		logger.Warnw("item_rating_cache_read_failed", "item_id", id, "error", err)
	}

	avg, err := s.reviewRepo.AverageRating(id)
	if err != nil {
		return nil, 0, err
	}
	if err := cache.SetItemRating(ctx, &cache.ItemRatingState{ItemID: id, Average: avg}); err != nil {
		logger.Warnw("item_rating_cache_write_failed", "item_id", id, "error", err)
	}
	return item, avg, nil
}

// List fetches listings matching the filter.
func (s *ItemService) List(filter repository.ItemListFilter) ([]models.Item, int64, error) {
	return s.itemRepo.List(filter)
}

// Categories returns the selectable categories in display order.
func (s *ItemService) Categories() []string {
	return constants.ItemCategories
}

func isValidCategory(category string) bool {
	for _, c := range constants.ItemCategories {
		if c == category {
			return true
		}
	}
	return false
}
