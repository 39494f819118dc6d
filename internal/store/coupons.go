package store

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"xui-keys-bot/internal/models"
)

// Coupon failures
var (
	ErrCouponExists      = errors.New("code already exists")
	ErrCouponInvalid     = errors.New("invalid code")
	ErrCouponExhausted   = errors.New("code fully redeemed")
	ErrCouponAlreadyUsed = errors.New("you already redeemed this code")
	ErrCouponConflict    = errors.New("redemption failed (limit reached or already used)")
)

// CreateCoupon stores a new gift code
func (s *Store) CreateCoupon(ctx context.Context, code string, days, maxUses int) (*models.Coupon, error) {
	coupon := &models.Coupon{Code: code, Days: days, MaxUses: maxUses}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.Coupon{}).Where("code = ?", code).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return ErrCouponExists
		}
		return tx.Create(coupon).Error
	})

	switch {
	case errors.Is(err, ErrCouponExists), errors.Is(err, gorm.ErrDuplicatedKey):
		return nil, ErrCouponExists
	case err != nil:
		return nil, storeErr("create coupon", err)
	}

	s.logger.Infof("Created coupon %s (%d days, %d uses)", code, days, maxUses)
	return coupon, nil
}

// RedeemCoupon spends one use of the code for the user and returns the granted days.
// The use is claimed with a conditional update so concurrent redemptions cannot overspend it.
func (s *Store) RedeemCoupon(ctx context.Context, tgID int64, code string) (int, error) {
	var days int

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var coupon models.Coupon
		err := tx.First(&coupon, "code = ?", code).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrCouponInvalid
		}
		if err != nil {
			return err
		}

		if coupon.Exhausted() {
			return ErrCouponExhausted
		}
		if coupon.RedeemedBy(tgID) {
			return ErrCouponAlreadyUsed
		}

		loadedCount := coupon.UsedCount
		coupon.AddRedeemer(tgID)
		res := tx.Model(&models.Coupon{}).
			Where("code = ? AND used_count = ? AND used_count < max_uses", code, loadedCount).
			Updates(map[string]interface{}{
				"used_count": loadedCount + 1,
				"used_by":    coupon.UsedBy,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrCouponConflict
		}

		days = coupon.Days
		return nil
	})

	switch {
	case err == nil:
		s.logger.Infof("User %d redeemed coupon %s", tgID, code)
		return days, nil
	case errors.Is(err, ErrCouponInvalid), errors.Is(err, ErrCouponExhausted),
		errors.Is(err, ErrCouponAlreadyUsed), errors.Is(err, ErrCouponConflict):
		return 0, err
	default:
		return 0, storeErr("redeem coupon", err)
	}
}
