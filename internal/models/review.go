package models

import (
	"time"

	"gorm.io/gorm"
)

// Review is one user's rating of an item. The unique index enforces
// at most one review per (item, reviewer) pair.
type Review struct {
	ID         uint           `gorm:"primarykey" json:"id"`                                         // primary key
	ItemID     uint           `gorm:"not null;uniqueIndex:idx_review_item_user" json:"item_id"`     // reviewed item
	ReviewerID uint           `gorm:"not null;uniqueIndex:idx_review_item_user" json:"reviewer_id"` // reviewing user
	Rating     int            `gorm:"not null" json:"rating"`                                       // 1..5
	Comment    string         `gorm:"type:text" json:"comment"`                                     // free-form text
	CreatedAt  time.Time      `gorm:"index" json:"created_at"`                                      // created time
	UpdatedAt  time.Time      `json:"updated_at"`                                                   // updated time
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"-"`                                               // soft delete time

	Reviewer *User `gorm:"foreignKey:ReviewerID" json:"reviewer,omitempty"` // reviewing user
}

// TableName sets the table name.
func (Review) TableName() string {
	return "reviews"
}
