package models

import (
	"strconv"
	"strings"
	"time"
)

// Coupon is a gift code granting premium days
type Coupon struct {
	Code      string `gorm:"primaryKey;size:64"`
	Days      int    `gorm:"not null"`
	MaxUses   int    `gorm:"not null;default:1"`
	UsedCount int    `gorm:"not null;default:0"`
	// UsedBy is a comma separated list of Telegram ids that redeemed the code
	UsedBy    string `gorm:"type:text"`
	CreatedAt time.Time
}

// TableName returns the coupons table name
func (Coupon) TableName() string {
	return "coupons"
}

// Exhausted reports whether every use of the code is spent
func (c *Coupon) Exhausted() bool {
	return c.UsedCount >= c.MaxUses
}

// RedeemedBy reports whether the user already used the code
func (c *Coupon) RedeemedBy(tgID int64) bool {
	for _, id := range c.Redeemers() {
		if id == tgID {
			return true
		}
	}
	return false
}

// Redeemers returns the ids stored in UsedBy
func (c *Coupon) Redeemers() []int64 {
	if c.UsedBy == "" {
		return nil
	}
	parts := strings.Split(c.UsedBy, ",")
	ids := make([]int64, 0, len(parts))
	for _, p := range parts {
		id, err := strconv.ParseInt(strings.TrimSpace(p), 10, 64)
		if err == nil {
			ids = append(ids, id)
		}
	}
	return ids
}

// AddRedeemer appends a user to UsedBy
func (c *Coupon) AddRedeemer(tgID int64) {
	id := strconv.FormatInt(tgID, 10)
	if c.UsedBy == "" {
		c.UsedBy = id
		return
	}
	c.UsedBy += "," + id
}
