package models

import (
	"time"

	"gorm.io/gorm"
)

// User is a marketplace account. Every user can both list and buy.
type User struct {
	ID           uint           `gorm:"primarykey" json:"id"`                 // primary key
	Username     string         `gorm:"uniqueIndex;not null" json:"username"` // login name
	Email        string         `gorm:"uniqueIndex;not null" json:"email"`    // email address
	PasswordHash string         `gorm:"not null" json:"-"`                    // bcrypt hash, never serialized
	DisplayName  string         `gorm:"default:''" json:"display_name"`       // shown on listings
	LastLoginAt  *time.Time     `json:"last_login_at"`                        // last successful login
	CreatedAt    time.Time      `gorm:"index" json:"created_at"`              // created time
	UpdatedAt    time.Time      `gorm:"index" json:"updated_at"`              // updated time
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`                       // soft delete time
}

// TableName sets the table name.
func (User) TableName() string {
	return "users"
}
