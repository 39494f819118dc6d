package services

import (
	"strconv"
	"time"

	"github.com/patrickmn/go-cache"

	"xui-keys-bot/internal/constants"
)

// RateLimiter drops updates from a user arriving within the window of their last accepted one
type RateLimiter struct {
	cache  *cache.Cache
	window time.Duration
}

// NewRateLimiter creates a limiter; a non-positive window disables limiting
func NewRateLimiter(window time.Duration) *RateLimiter {
	return &RateLimiter{
		cache:  cache.New(window, constants.RateLimitCleanupInterval*time.Minute),
		window: window,
	}
}

// Allow reports whether the update may be processed and starts a new window if so
func (r *RateLimiter) Allow(userID int64) bool {
	if r.window <= 0 {
		return true
	}
	return r.cache.Add(strconv.FormatInt(userID, 10), struct{}{}, cache.DefaultExpiration) == nil
}
