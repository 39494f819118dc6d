package store

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"xui-keys-bot/internal/models"
)

// Stats holds the counters shown on the admin dashboard and daily report
type Stats struct {
	Users   int64
	Premium int64
	Keys    int64
}

// UpsertUser creates the user or refreshes its Telegram names
func (s *Store) UpsertUser(ctx context.Context, tgID int64, firstName, username string) error {
	user := models.User{TgID: tgID, FirstName: firstName, Username: username}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "tg_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"first_name", "username", "updated_at"}),
	}).Create(&user).Error
	return storeErr("upsert user", err)
}

// GetUser returns the user or ErrNotFound
func (s *Store) GetUser(ctx context.Context, tgID int64) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).First(&user, "tg_id = ?", tgID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, storeErr("get user", err)
	}
	return &user, nil
}

// SetPremium grants premium until expiry
func (s *Store) SetPremium(ctx context.Context, tgID int64, expiry time.Time) error {
	return s.updateUser(ctx, "set premium", tgID, map[string]interface{}{
		"premium":        true,
		"premium_expiry": expiry,
	})
}

// Downgrade returns the user to the free plan
func (s *Store) Downgrade(ctx context.Context, tgID int64) error {
	return s.updateUser(ctx, "downgrade", tgID, map[string]interface{}{
		"premium":        false,
		"premium_expiry": nil,
	})
}

// UpdateFreeClaim records when the user received a free key
func (s *Store) UpdateFreeClaim(ctx context.Context, tgID int64, at time.Time) error {
	return s.updateUser(ctx, "update free claim", tgID, map[string]interface{}{
		"free_key_last_claim": at,
	})
}

// SetBanned bans or unbans the user
func (s *Store) SetBanned(ctx context.Context, tgID int64, banned bool) error {
	return s.updateUser(ctx, "set banned", tgID, map[string]interface{}{
		"banned": banned,
	})
}

func (s *Store) updateUser(ctx context.Context, op string, tgID int64, values map[string]interface{}) error {
	res := s.db.WithContext(ctx).Model(&models.User{}).Where("tg_id = ?", tgID).Updates(values)
	if res.Error != nil {
		return storeErr(op, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ExpiredPremiumUsers returns premium users whose plan ended before now
func (s *Store) ExpiredPremiumUsers(ctx context.Context, now time.Time) ([]models.User, error) {
	var users []models.User
	err := s.db.WithContext(ctx).
		Where("premium = ? AND premium_expiry IS NOT NULL AND premium_expiry < ?", true, now).
		Order("tg_id").
		Find(&users).Error
	if err != nil {
		return nil, storeErr("list expired premium users", err)
	}
	return users, nil
}

// Stats counts users, premium users and issued keys
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	var stats Stats
	db := s.db.WithContext(ctx)

	if err := db.Model(&models.User{}).Count(&stats.Users).Error; err != nil {
		return Stats{}, storeErr("count users", err)
	}
	if err := db.Model(&models.User{}).Where("premium = ?", true).Count(&stats.Premium).Error; err != nil {
		return Stats{}, storeErr("count premium users", err)
	}
	if err := db.Model(&models.Key{}).Count(&stats.Keys).Error; err != nil {
		return Stats{}, storeErr("count keys", err)
	}
	return stats, nil
}
