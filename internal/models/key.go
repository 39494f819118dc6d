package models

import "time"

// Key is a credential issued to a user on one panel inbound
type Key struct {
	UUID      string `gorm:"primaryKey;size:64"`
	TgID      int64  `gorm:"not null;index"`
	Email     string `gorm:"size:255;not null"`
	InboundID int    `gorm:"not null"`
	ServerID  string `gorm:"size:64;not null;index"`
	CreatedAt time.Time
}

// TableName returns the issued keys table name
func (Key) TableName() string {
	return "user_keys"
}
