package service

import (
	"github.com/educycle/marketplace/internal/constants"
	"github.com/educycle/marketplace/internal/models"
	"github.com/educycle/marketplace/internal/repository"

	"github.com/shopspring/decimal"
)

// CartLine is one cart entry shaped for responses.
type CartLine struct {
	ItemID    uint         `json:"item_id"`
	Quantity  int          `json:"quantity"`
	UnitPrice models.Money `json:"unit_price"`
	LineTotal models.Money `json:"line_total"`
	Item      *models.Item `json:"item"`
}

// CartSummary is a user's cart with a running total.
type CartSummary struct {
	Lines    []CartLine   `json:"lines"`
	Total    models.Money `json:"total"`
	Currency string       `json:"currency"`
}

// CartService manages the implicit per-user cart. The cart is the set
// of cart lines keyed by user; it springs into existence on first add
// and vanishes when cleared.
type CartService struct {
	cartRepo repository.CartRepository
	itemRepo repository.ItemRepository
	currency string
}

// NewCartService creates the cart service.
func NewCartService(cartRepo repository.CartRepository, itemRepo repository.ItemRepository, currency string) *CartService {
	if currency == "" {
		currency = constants.SiteCurrencyDefault
	}
	return &CartService{
		cartRepo: cartRepo,
		itemRepo: itemRepo,
		currency: currency,
	}
}

// Add puts an item in the cart or bumps an existing line's quantity.
// A user cannot cart their own listing, and only available active
// listings qualify.
func (s *CartService) Add(userID, itemID uint, quantity int) error {
	if quantity < 1 {
		return ErrInvalidQuantity
	}
	item, err := s.itemRepo.GetByID(itemID)
	if err != nil {
		return err
	}
	if item == nil {
		return ErrItemNotFound
	}
	if item.SellerID == userID {
		return ErrOwnItem
	}
	if !item.IsActive || item.Status != constants.ItemStatusAvailable {
		return ErrItemNotAvailable
	}

	existing, err := s.cartRepo.GetByUserAndItem(userID, itemID)
	if err != nil {
		return err
	}
	line := &models.CartItem{
		UserID:   userID,
		ItemID:   itemID,
		Quantity: quantity,
	}
	if existing != nil {
		line.Quantity = existing.Quantity + quantity
	}
	return s.cartRepo.Upsert(line)
}

// SetQuantity pins a cart line to an exact quantity.
func (s *CartService) SetQuantity(userID, itemID uint, quantity int) error {
	if quantity < 1 {
		return ErrInvalidQuantity
	}
	existing, err := s.cartRepo.GetByUserAndItem(userID, itemID)
	if err != nil {
		return err
	}
	if existing == nil {
		return ErrItemNotFound
	}
	existing.Quantity = quantity
	return s.cartRepo.Upsert(existing)
}

// Remove drops one line from the cart.
func (s *CartService) Remove(userID, itemID uint) error {
	return s.cartRepo.DeleteByUserAndItem(userID, itemID)
}

// Clear empties the cart.
func (s *CartService) Clear(userID uint) error {
	return s.cartRepo.ClearByUser(userID)
}

// Get assembles the cart view. Lines whose listing has since been
// deleted, deactivated or sold are dropped from storage on the way.
func (s *CartService) Get(userID uint) (*CartSummary, error) {
	rows, err := s.cartRepo.ListByUser(userID)
	if err != nil {
		return nil, err
	}

	summary := &CartSummary{
		Lines:    make([]CartLine, 0, len(rows)),
		Total:    models.NewMoneyFromDecimal(decimal.Zero),
		Currency: s.currency,
	}
	total := decimal.Zero
	for i := range rows {
		row := rows[i]
		if row.Item == nil || !row.Item.IsActive || row.Item.Status != constants.ItemStatusAvailable {
			if err := s.cartRepo.DeleteByUserAndItem(userID, row.ItemID); err != nil {
				return nil, err
			}
			continue
		}
		unit := decimal.Zero
		if row.Item.Price != nil {
			unit = row.Item.Price.Decimal
		}
		lineTotal := unit.Mul(decimal.NewFromInt(int64(row.Quantity)))
		total = total.Add(lineTotal)
		summary.Lines = append(summary.Lines, CartLine{
			ItemID:    row.ItemID,
			Quantity:  row.Quantity,
			UnitPrice: models.NewMoneyFromDecimal(unit),
			LineTotal: models.NewMoneyFromDecimal(lineTotal),
			Item:      row.Item,
		})
	}
	summary.Total = models.NewMoneyFromDecimal(total)
	return summary, nil
}
