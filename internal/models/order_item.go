package models

import (
	"time"

	"gorm.io/gorm"
)

// OrderItem is one purchased line. PriceAtTime snapshots the item
// price at checkout so later listing edits never touch order history.
type OrderItem struct {
	ID          uint           `gorm:"primarykey" json:"id"`                                       // primary key
	OrderID     uint           `gorm:"index;not null" json:"order_id"`                             // owning order
	ItemID      uint           `gorm:"index;not null" json:"item_id"`                              // purchased item
	ItemName    string         `gorm:"not null" json:"item_name"`                                  // title snapshot
	Quantity    int            `gorm:"not null" json:"quantity"`                                   // purchased quantity
	PriceAtTime Money          `gorm:"type:decimal(20,2);not null;default:0" json:"price_at_time"` // unit price snapshot
	CreatedAt   time.Time      `gorm:"index" json:"created_at"`                                    // created time
	UpdatedAt   time.Time      `gorm:"index" json:"updated_at"`                                    // updated time
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`                                             // soft delete time

	Item *Item `gorm:"foreignKey:ItemID" json:"item,omitempty"` // purchased item
}

// TableName sets the table name.
func (OrderItem) TableName() string {
	return "order_items"
}
