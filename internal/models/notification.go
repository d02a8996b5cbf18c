package models

import (
	"time"

	"gorm.io/gorm"
)

// Notification is the durable in-app record created for every domain
// event. It exists even when the companion email fails to send.
type Notification struct {
	ID        uint           `gorm:"primarykey" json:"id"`                        // primary key
	UserID    uint           `gorm:"index;not null" json:"user_id"`               // recipient
	Type      string         `gorm:"type:varchar(30);index;not null" json:"type"` // item_added/item_sold/item_purchased/review_received/message_received/order_status
	Title     string         `gorm:"not null" json:"title"`                       // short headline
	Message   string         `gorm:"type:text" json:"message"`                    // body text
	ItemID    *uint          `gorm:"index" json:"item_id,omitempty"`              // related item, if any
	OrderID   *uint          `gorm:"index" json:"order_id,omitempty"`             // related order, if any
	IsRead    bool           `gorm:"index;default:false" json:"is_read"`          // read flag
	CreatedAt time.Time      `gorm:"index" json:"created_at"`                     // created time
	UpdatedAt time.Time      `json:"updated_at"`                                  // updated time
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`                              // soft delete time
}

// TableName sets the table name.
func (Notification) TableName() string {
	return "notifications"
}
