package models

import "time"

// ChatMessage is one turn of a chatbot transcript. SessionID groups a
// conversation; rows are append-only and read back in arrival order.
type ChatMessage struct {
	ID        uint      `gorm:"primarykey" json:"id"`                              // primary key
	SessionID string    `gorm:"type:varchar(64);index;not null" json:"session_id"` // conversation key
	Sender    string    `gorm:"type:varchar(10);not null" json:"sender"`           // user / bot
	Body      string    `gorm:"type:text;not null" json:"body"`                    // message text
	CreatedAt time.Time `gorm:"index" json:"created_at"`                           // arrival time
}

// TableName sets the table name.
func (ChatMessage) TableName() string {
	return "chat_messages"
}
