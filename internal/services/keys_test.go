package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "xui-keys-bot/internal/errors"
	"xui-keys-bot/internal/models"
	"xui-keys-bot/internal/store"
)

type keyFixture struct {
	free    *testPanel
	paid    *testPanel
	store   *store.Store
	service *KeyService
	clock   *fixedClock
}

func newKeyFixture(t *testing.T) *keyFixture {
	t.Helper()

	free := newTestPanel(t, testVLESSInbound)
	paid := newTestPanel(t, testVLESSInbound)
	cfg := testConfig(
		serverFor("sg", "Singapore", free, true),
		serverFor("jp", "Tokyo", paid, false),
	)

	st := setupTestStore(t)
	clock := &fixedClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	registry := NewRegistry(cfg, quietLogger())
	service := NewKeyService(registry, st, cfg, quietLogger(),
		WithServiceClock(clock.Now),
		WithServiceRandom(func(n int) int { return 7 % n }),
	)

	return &keyFixture{free: free, paid: paid, store: st, service: service, clock: clock}
}

func (f *keyFixture) addUser(t *testing.T, tgID int64) {
	t.Helper()
	require.NoError(t, f.store.UpsertUser(context.Background(), tgID, "User", "user"))
}

func TestGenerateFreeKey(t *testing.T) {
	f := newKeyFixture(t)
	ctx := context.Background()
	f.addUser(t, 42)

	generated, err := f.service.Generate(ctx, 42, "sg", 1)
	require.NoError(t, err)

	assert.Equal(t, "tg_42_7", generated.Key.Email)
	assert.Equal(t, "Singapore", generated.ServerName)
	assert.True(t, strings.HasPrefix(generated.Link, "vless://"+generated.Key.UUID+"@127.0.0.1:443?type=tcp&security=tls#"))
	assert.True(t, strings.HasSuffix(generated.Link, "#Singapore%20(%20mmkeys_bot%20)"))

	added := f.free.addedCredentials()
	require.Len(t, added, 1)
	assert.Equal(t, int64(1024*1024*1024), added[0].TotalGB)
	assert.NotZero(t, added[0].ExpiryTime)
	assert.Equal(t, 1, added[0].LimitIP)

	keys, err := f.store.Keys(ctx, 42)
	require.NoError(t, err)
	require.Len(t, keys, 1)
	assert.Equal(t, generated.Key.UUID, keys[0].UUID)
	assert.Equal(t, "sg", keys[0].ServerID)

	user, err := f.store.GetUser(ctx, 42)
	require.NoError(t, err)
	require.NotNil(t, user.FreeKeyLastClaim)
	assert.True(t, f.clock.Now().Equal(*user.FreeKeyLastClaim))
}

func TestGenerateFreeKeyCooldown(t *testing.T) {
	f := newKeyFixture(t)
	ctx := context.Background()
	f.addUser(t, 42)

	_, err := f.service.Generate(ctx, 42, "sg", 1)
	require.NoError(t, err)

	f.clock.Advance(10 * 24 * time.Hour)
	_, err = f.service.Generate(ctx, 42, "sg", 1)
	assert.ErrorIs(t, err, ErrClaimCooldown)

	f.clock.Advance(20 * 24 * time.Hour)
	_, err = f.service.Generate(ctx, 42, "sg", 1)
	assert.NoError(t, err)
}

func TestGenerateFreeUserCannotUsePremiumServer(t *testing.T) {
	f := newKeyFixture(t)
	f.addUser(t, 42)

	_, err := f.service.Generate(context.Background(), 42, "jp", 1)

	var notFound *apperrors.ServerNotFoundError
	require.True(t, errors.As(err, &notFound))
	assert.Equal(t, "jp", notFound.ServerID)
	assert.Empty(t, f.paid.addedCredentials())
}

func TestGeneratePremiumReplacesOldKey(t *testing.T) {
	f := newKeyFixture(t)
	ctx := context.Background()
	f.addUser(t, 42)
	_, err := f.service.GrantPremium(ctx, 42, 30)
	require.NoError(t, err)

	first, err := f.service.Generate(ctx, 42, "sg", 1)
	require.NoError(t, err)
	second, err := f.service.Generate(ctx, 42, "jp", 1)
	require.NoError(t, err)

	assert.Equal(t, []string{first.Key.UUID}, f.free.deletedIDs())

	added := f.paid.addedCredentials()
	require.Len(t, added, 1)
	assert.Zero(t, added[0].TotalGB)
	assert.Zero(t, added[0].ExpiryTime)

	keys, err := f.store.Keys(ctx, 42)
	require.NoError(t, err)
	require.Len(t, keys, 1)
	assert.Equal(t, second.Key.UUID, keys[0].UUID)

	user, err := f.store.GetUser(ctx, 42)
	require.NoError(t, err)
	assert.Nil(t, user.FreeKeyLastClaim)
}

func TestGenerateReportsPanelRejection(t *testing.T) {
	f := newKeyFixture(t)
	f.addUser(t, 42)
	f.free.reject = "Duplicate email: tg_42_7"

	_, err := f.service.Generate(context.Background(), 42, "sg", 1)

	var provErr *apperrors.ProvisionError
	require.True(t, errors.As(err, &provErr))
	assert.Equal(t, "Duplicate email: tg_42_7", provErr.Message)
	assert.Equal(t, "rejected", provErr.Reason)

	keys, err := f.store.Keys(context.Background(), 42)
	require.NoError(t, err)
	assert.Empty(t, keys)
}

func TestCanClaim(t *testing.T) {
	f := newKeyFixture(t)
	now := f.clock.Now()
	claimed := func(ago time.Duration) *time.Time {
		at := now.Add(-ago)
		return &at
	}
	future := now.Add(time.Hour)
	past := now.Add(-time.Hour)

	tests := []struct {
		name string
		user models.User
		want bool
	}{
		{name: "never claimed", user: models.User{}, want: true},
		{name: "claimed yesterday", user: models.User{FreeKeyLastClaim: claimed(24 * time.Hour)}, want: false},
		{name: "claimed 29 days and a bit ago", user: models.User{FreeKeyLastClaim: claimed(29*24*time.Hour + time.Minute)}, want: true},
		{name: "claimed 31 days ago", user: models.User{FreeKeyLastClaim: claimed(31 * 24 * time.Hour)}, want: true},
		{name: "active premium", user: models.User{Premium: true, PremiumExpiry: &future, FreeKeyLastClaim: claimed(time.Hour)}, want: true},
		{name: "lapsed premium", user: models.User{Premium: true, PremiumExpiry: &past, FreeKeyLastClaim: claimed(time.Hour)}, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, f.service.CanClaim(&tt.user, now))
		})
	}
}

func TestAvailableServers(t *testing.T) {
	f := newKeyFixture(t)
	future := f.clock.Now().Add(time.Hour)

	free := f.service.AvailableServers(&models.User{})
	require.Len(t, free, 1)
	assert.Equal(t, "sg", free[0].ID)

	premium := f.service.AvailableServers(&models.User{Premium: true, PremiumExpiry: &future})
	assert.Len(t, premium, 2)
}

func TestLinksAndStatus(t *testing.T) {
	f := newKeyFixture(t)
	ctx := context.Background()
	f.addUser(t, 42)

	_, err := f.service.Links(ctx, 42)
	assert.ErrorIs(t, err, ErrNoKeys)
	_, err = f.service.Status(ctx, 42)
	assert.ErrorIs(t, err, ErrNoKeys)

	generated, err := f.service.Generate(ctx, 42, "sg", 1)
	require.NoError(t, err)

	links, err := f.service.Links(ctx, 42)
	require.NoError(t, err)
	require.Len(t, links, 1)
	assert.Equal(t, generated.Link, links[0].Link)

	status, err := f.service.Status(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, "Singapore", status.ServerName)
	require.NotNil(t, status.Stat)
	assert.Equal(t, int64(1024), status.Stat.Up)
	assert.Equal(t, int64(2048), status.Stat.Down)
	assert.Equal(t, generated.Key.Email, status.Stat.Email)
}

func TestRevokeAllToleratesUnknownServer(t *testing.T) {
	f := newKeyFixture(t)
	ctx := context.Background()
	require.NoError(t, f.store.AddKey(ctx, &models.Key{UUID: "ghost", TgID: 9, Email: "e", InboundID: 1, ServerID: "gone"}))
	require.NoError(t, f.store.AddKey(ctx, &models.Key{UUID: "real", TgID: 9, Email: "e2", InboundID: 1, ServerID: "sg"}))

	require.NoError(t, f.service.RevokeAll(ctx, 9))

	keys, err := f.store.Keys(ctx, 9)
	require.NoError(t, err)
	assert.Empty(t, keys)
	assert.Equal(t, []string{"real"}, f.free.deletedIDs())
}

func TestRedeemCouponExtendsPremium(t *testing.T) {
	f := newKeyFixture(t)
	ctx := context.Background()
	f.addUser(t, 42)
	now := f.clock.Now()

	coupon, err := f.service.CreateCoupon(ctx, 10, 2)
	require.NoError(t, err)
	assert.Equal(t, "GIFT-HHHHHH", coupon.Code)

	days, expiry, err := f.service.RedeemCoupon(ctx, 42, " "+coupon.Code+" ")
	require.NoError(t, err)
	assert.Equal(t, 10, days)
	assert.True(t, now.AddDate(0, 0, 10).Equal(expiry))

	other, err := f.store.CreateCoupon(ctx, "GIFT-SECOND", 5, 1)
	require.NoError(t, err)
	_, expiry, err = f.service.RedeemCoupon(ctx, 42, other.Code)
	require.NoError(t, err)
	assert.True(t, now.AddDate(0, 0, 15).Equal(expiry), "must extend the running plan")

	_, _, err = f.service.RedeemCoupon(ctx, 42, coupon.Code)
	assert.ErrorIs(t, err, store.ErrCouponAlreadyUsed)
}

func TestCreateCouponRetriesOnCollision(t *testing.T) {
	f := newKeyFixture(t)
	ctx := context.Background()

	first, err := f.service.CreateCoupon(ctx, 1, 1)
	require.NoError(t, err)

	_, err = f.service.CreateCoupon(ctx, 1, 1)
	assert.ErrorIs(t, err, store.ErrCouponExists, "a fixed random source collides every attempt")
	assert.Equal(t, "GIFT-HHHHHH", first.Code)
}

func TestGrantPremium(t *testing.T) {
	f := newKeyFixture(t)
	ctx := context.Background()

	_, err := f.service.GrantPremium(ctx, 404, 3)
	assert.ErrorIs(t, err, store.ErrNotFound)

	f.addUser(t, 5)
	expiry, err := f.service.GrantPremium(ctx, 5, 3)
	require.NoError(t, err)
	assert.True(t, f.clock.Now().AddDate(0, 0, 3).Equal(expiry))
}
