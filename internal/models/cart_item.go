package models

import (
	"time"

	"gorm.io/gorm"
)

// CartItem is one line of a user's cart. The cart itself is implicit:
// the set of cart items keyed by user. At most one row exists per
// (user, item) pair; repeated adds bump the quantity.
type CartItem struct {
	ID        uint           `gorm:"primarykey" json:"id"`                                   // primary key
	UserID    uint           `gorm:"not null;uniqueIndex:idx_cart_user_item" json:"user_id"` // cart owner
	ItemID    uint           `gorm:"not null;uniqueIndex:idx_cart_user_item" json:"item_id"` // listed item
	Quantity  int            `gorm:"not null" json:"quantity"`                               // always >= 1
	CreatedAt time.Time      `gorm:"index" json:"created_at"`                                // created time
	UpdatedAt time.Time      `gorm:"index" json:"updated_at"`                                // updated time
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`                                         // soft delete time

	Item *Item `gorm:"foreignKey:ItemID" json:"item,omitempty"` // listed item
}

// TableName sets the table name.
func (CartItem) TableName() string {
	return "cart_items"
}
