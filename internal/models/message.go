package models

import (
	"time"

	"gorm.io/gorm"
)

// Message is a user-to-user message, optionally pinned to a listing.
type Message struct {
	ID          uint           `gorm:"primarykey" json:"id"`               // primary key
	SenderID    uint           `gorm:"index;not null" json:"sender_id"`    // sending user
	RecipientID uint           `gorm:"index;not null" json:"recipient_id"` // receiving user
	ItemID      *uint          `gorm:"index" json:"item_id,omitempty"`     // listing under discussion, if any
	Body        string         `gorm:"type:text;not null" json:"body"`     // message text
	IsRead      bool           `gorm:"index;default:false" json:"is_read"` // read flag
	CreatedAt   time.Time      `gorm:"index" json:"created_at"`            // created time
	UpdatedAt   time.Time      `json:"updated_at"`                         // updated time
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`                     // soft delete time

	Sender *User `gorm:"foreignKey:SenderID" json:"sender,omitempty"` // sending user
}

// TableName sets the table name.
func (Message) TableName() string {
	return "messages"
}
