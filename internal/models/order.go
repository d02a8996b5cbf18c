package models

import (
	"time"

	"github.com/educycle/marketplace/internal/constants"

	"gorm.io/gorm"
)

// Order is a seller-scoped purchase record. A checkout that spans N
// distinct sellers produces N orders. TotalAmount is accumulated as
// items are appended at creation time and never recomputed afterwards.
type Order struct {
	ID              uint                    `gorm:"primarykey" json:"id"`                                      // primary key
	OrderNo         string                  `gorm:"uniqueIndex;not null" json:"order_no"`                      // human-facing order number
	BuyerID         uint                    `gorm:"index;not null" json:"buyer_id"`                            // purchasing user
	SellerID        uint                    `gorm:"index;not null" json:"seller_id"`                           // selling user, exactly one per order
	Status          string                  `gorm:"index;not null" json:"status"`                              // pending/confirmed/shipped/delivered/cancelled
	Currency        string                  `gorm:"not null" json:"currency"`                                  // ISO currency code
	TotalAmount     Money                   `gorm:"type:decimal(20,2);not null;default:0" json:"total_amount"` // sum of line totals
	ShippingAddress string                  `gorm:"type:text" json:"shipping_address"`                         // delivery address
	PaymentMethod   constants.PaymentMethod `gorm:"type:varchar(10);not null" json:"payment_method"`           // card/wallet/cod
	ConfirmedAt     *time.Time              `gorm:"index" json:"confirmed_at"`                                 // payment confirmation time
	CancelledAt     *time.Time              `gorm:"index" json:"cancelled_at"`                                 // cancellation time
	CreatedAt       time.Time               `gorm:"index" json:"created_at"`                                   // created time
	UpdatedAt       time.Time               `gorm:"index" json:"updated_at"`                                   // updated time
	DeletedAt       gorm.DeletedAt          `gorm:"index" json:"-"`                                            // soft delete time

	Items  []OrderItem `gorm:"foreignKey:OrderID" json:"items,omitempty"` // line items
	Buyer  *User       `gorm:"foreignKey:BuyerID" json:"buyer,omitempty"`
	Seller *User       `gorm:"foreignKey:SellerID" json:"seller,omitempty"`
}

// TableName sets the table name.
func (Order) TableName() string {
	return "orders"
}
