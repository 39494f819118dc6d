package models

import "time"

// User is a Telegram user known to the bot
type User struct {
	TgID          int64  `gorm:"primaryKey;autoIncrement:false"`
	FirstName     string `gorm:"size:255"`
	Username      string `gorm:"size:255"`
	Premium       bool   `gorm:"not null;default:false;index"`
	PremiumExpiry *time.Time
	// FreeKeyLastClaim is when the user last received a free key
	FreeKeyLastClaim *time.Time
	Banned           bool `gorm:"not null;default:false"`
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// TableName returns the users table name
func (User) TableName() string {
	return "users"
}

// PremiumActive reports whether the user holds an unexpired premium plan at now.
// A premium user without an expiry date never expires.
func (u *User) PremiumActive(now time.Time) bool {
	if !u.Premium {
		return false
	}
	return u.PremiumExpiry == nil || u.PremiumExpiry.After(now)
}

// DisplayName returns the best human readable name of the user
func (u *User) DisplayName() string {
	if u.Username != "" {
		return "@" + u.Username
	}
	if u.FirstName != "" {
		return u.FirstName
	}
	return "N/A"
}
