package models

import (
	"time"

	"gorm.io/gorm"
)

// Item is a listing. Price is nullable: free and swap listings carry
// no price, and a nil price counts as zero at checkout. SellerID is
// immutable once the row exists.
type Item struct {
	ID              uint           `gorm:"primarykey" json:"id"`                                     // primary key
	SellerID        uint           `gorm:"index;not null" json:"seller_id"`                          // owning user, immutable
	Name            string         `gorm:"not null" json:"name"`                                     // listing title
	Description     string         `gorm:"type:text" json:"description"`                             // free-form description
	Category        string         `gorm:"type:varchar(20);index;not null" json:"category"`          // textbook/equipment/decor/appliance/other
	Price           *Money         `gorm:"type:decimal(20,2)" json:"price"`                          // nil for free/swap listings
	DesiredSwapItem string         `gorm:"type:varchar(200)" json:"desired_swap_item,omitempty"`     // what the seller wants in exchange
	Condition       string         `gorm:"type:varchar(50)" json:"condition,omitempty"`              // e.g. "like new"
	Status          string         `gorm:"type:varchar(20);index;default:'available'" json:"status"` // available/pending/sold
	IsActive        bool           `gorm:"index;default:true" json:"is_active"`                      // soft deactivation flag
	CreatedAt       time.Time      `gorm:"index" json:"created_at"`                                  // created time
	UpdatedAt       time.Time      `gorm:"index" json:"updated_at"`                                  // updated time
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"-"`                                           // soft delete time

	Seller *User `gorm:"foreignKey:SellerID" json:"seller,omitempty"` // owning user
}

// TableName sets the table name.
func (Item) TableName() string {
	return "items"
}
