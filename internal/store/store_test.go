package store

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"xui-keys-bot/internal/config"
	apperrors "xui-keys-bot/internal/errors"
	"xui-keys-bot/internal/models"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	s, err := Open(config.DatabaseConfig{
		Driver: "sqlite",
		DSN:    filepath.Join(t.TempDir(), "nested", "test.db"),
	}, logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestOpenUnsupportedDriver(t *testing.T) {
	_, err := Open(config.DatabaseConfig{Driver: "oracle", DSN: "x"}, logrus.New())
	assert.Error(t, err)
}

func TestUpsertUser(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.UpsertUser(ctx, 42, "Alice", "alice"))
	require.NoError(t, s.UpsertUser(ctx, 42, "Alicia", "alicia"))

	user, err := s.GetUser(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, "Alicia", user.FirstName)
	assert.Equal(t, "alicia", user.Username)
	assert.False(t, user.Premium)
	assert.False(t, user.Banned)
	assert.Nil(t, user.FreeKeyLastClaim)

	_, err = s.GetUser(ctx, 7)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpsertKeepsPlan(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	expiry := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, s.UpsertUser(ctx, 42, "Alice", "alice"))
	require.NoError(t, s.SetPremium(ctx, 42, expiry))
	require.NoError(t, s.SetBanned(ctx, 42, true))
	require.NoError(t, s.UpsertUser(ctx, 42, "Alice", "alice"))

	user, err := s.GetUser(ctx, 42)
	require.NoError(t, err)
	assert.True(t, user.Premium)
	assert.True(t, user.Banned)
	require.NotNil(t, user.PremiumExpiry)
	assert.True(t, expiry.Equal(*user.PremiumExpiry))
}

func TestPremiumLifecycle(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	for _, id := range []int64{1, 2, 3} {
		require.NoError(t, s.UpsertUser(ctx, id, "u", ""))
	}
	require.NoError(t, s.SetPremium(ctx, 1, now.Add(-time.Hour)))
	require.NoError(t, s.SetPremium(ctx, 2, now.Add(24*time.Hour)))

	expired, err := s.ExpiredPremiumUsers(ctx, now)
	require.NoError(t, err)
	require.Len(t, expired, 1)
	assert.Equal(t, int64(1), expired[0].TgID)

	require.NoError(t, s.Downgrade(ctx, 1))
	user, err := s.GetUser(ctx, 1)
	require.NoError(t, err)
	assert.False(t, user.Premium)
	assert.Nil(t, user.PremiumExpiry)

	expired, err = s.ExpiredPremiumUsers(ctx, now)
	require.NoError(t, err)
	assert.Empty(t, expired)

	assert.ErrorIs(t, s.SetPremium(ctx, 99, now), ErrNotFound)
}

func TestUpdateFreeClaim(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	at := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, s.UpsertUser(ctx, 5, "u", ""))
	require.NoError(t, s.UpdateFreeClaim(ctx, 5, at))

	user, err := s.GetUser(ctx, 5)
	require.NoError(t, err)
	require.NotNil(t, user.FreeKeyLastClaim)
	assert.True(t, at.Equal(*user.FreeKeyLastClaim))
}

func TestKeys(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, s.AddKey(ctx, &models.Key{UUID: "old", TgID: 1, Email: "tg_1_1", InboundID: 3, ServerID: "sg", CreatedAt: base}))
	require.NoError(t, s.AddKey(ctx, &models.Key{UUID: "new", TgID: 1, Email: "tg_1_2", InboundID: 4, ServerID: "jp", CreatedAt: base.Add(time.Minute)}))
	require.NoError(t, s.AddKey(ctx, &models.Key{UUID: "other", TgID: 2, Email: "tg_2_1", InboundID: 3, ServerID: "sg", CreatedAt: base}))

	keys, err := s.Keys(ctx, 1)
	require.NoError(t, err)
	require.Len(t, keys, 2)
	assert.Equal(t, "new", keys[0].UUID)
	assert.Equal(t, "old", keys[1].UUID)

	require.NoError(t, s.DeleteKey(ctx, "new"))
	require.NoError(t, s.DeleteKey(ctx, "missing"))

	keys, err = s.Keys(ctx, 1)
	require.NoError(t, err)
	require.Len(t, keys, 1)
	assert.Equal(t, "old", keys[0].UUID)

	err = s.AddKey(ctx, &models.Key{UUID: "old", TgID: 1, Email: "dup", ServerID: "sg"})
	var storeErr *apperrors.StoreError
	assert.True(t, errors.As(err, &storeErr))
}

func TestStats(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.UpsertUser(ctx, 1, "a", ""))
	require.NoError(t, s.UpsertUser(ctx, 2, "b", ""))
	require.NoError(t, s.SetPremium(ctx, 2, time.Now().Add(time.Hour)))
	require.NoError(t, s.AddKey(ctx, &models.Key{UUID: "k", TgID: 1, Email: "e", ServerID: "sg"}))

	stats, err := s.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, Stats{Users: 2, Premium: 1, Keys: 1}, stats)
}

func TestCreateCoupon(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	coupon, err := s.CreateCoupon(ctx, "GIFT-ABC123", 30, 2)
	require.NoError(t, err)
	assert.Equal(t, 30, coupon.Days)
	assert.Equal(t, 2, coupon.MaxUses)

	_, err = s.CreateCoupon(ctx, "GIFT-ABC123", 7, 1)
	assert.ErrorIs(t, err, ErrCouponExists)
}

func TestRedeemCoupon(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	_, err := s.CreateCoupon(ctx, "GIFT-TWO", 15, 2)
	require.NoError(t, err)

	days, err := s.RedeemCoupon(ctx, 1, "GIFT-TWO")
	require.NoError(t, err)
	assert.Equal(t, 15, days)

	_, err = s.RedeemCoupon(ctx, 1, "GIFT-TWO")
	assert.ErrorIs(t, err, ErrCouponAlreadyUsed)

	_, err = s.RedeemCoupon(ctx, 2, "GIFT-TWO")
	require.NoError(t, err)

	_, err = s.RedeemCoupon(ctx, 3, "GIFT-TWO")
	assert.ErrorIs(t, err, ErrCouponExhausted)

	_, err = s.RedeemCoupon(ctx, 3, "NOPE")
	assert.ErrorIs(t, err, ErrCouponInvalid)
}

func TestSettings(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	_, ok, err := s.GetSetting(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	assert.False(t, s.Maintenance(ctx))
	require.NoError(t, s.SetMaintenance(ctx, true))
	assert.True(t, s.Maintenance(ctx))
	require.NoError(t, s.SetMaintenance(ctx, false))
	assert.False(t, s.Maintenance(ctx))

	value, ok, err := s.GetSetting(ctx, models.SettingMaintenance)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "false", value)
}
