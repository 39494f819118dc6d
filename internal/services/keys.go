package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"xui-keys-bot/internal/config"
	"xui-keys-bot/internal/constants"
	apperrors "xui-keys-bot/internal/errors"
	"xui-keys-bot/internal/models"
	"xui-keys-bot/internal/store"
	"xui-keys-bot/pkg/panelclient"
)

// Key service failures shown to users
var (
	ErrClaimCooldown = errors.New("free key limit reached")
	ErrNoKeys        = errors.New("no active keys")
)

const couponAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// KeyService issues, lists and revokes user keys across panels
type KeyService struct {
	registry *Registry
	store    *store.Store
	cfg      *config.Config
	logger   *logrus.Logger
	now      func() time.Time
	intn     func(n int) int
}

// KeyServiceOption customizes a KeyService
type KeyServiceOption func(*KeyService)

// WithServiceClock sets the time source
func WithServiceClock(now func() time.Time) KeyServiceOption {
	return func(s *KeyService) { s.now = now }
}

// WithServiceRandom sets the source of email suffixes and coupon codes
func WithServiceRandom(intn func(n int) int) KeyServiceOption {
	return func(s *KeyService) { s.intn = intn }
}

// NewKeyService creates a new key service
func NewKeyService(registry *Registry, st *store.Store, cfg *config.Config, logger *logrus.Logger, opts ...KeyServiceOption) *KeyService {
	s := &KeyService{
		registry: registry,
		store:    st,
		cfg:      cfg,
		logger:   logger,
		now:      time.Now,
		intn:     rand.Intn,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GeneratedKey is a freshly issued key with its connection link
type GeneratedKey struct {
	Key        models.Key
	ServerName string
	// Link is empty when the inbound's protocol has no link format
	Link string
}

// KeyLink is a stored key with its current connection link
type KeyLink struct {
	Key        models.Key
	ServerName string
	Link       string
}

// AccountStatus is the plan and usage of a user's most recent key
type AccountStatus struct {
	User       models.User
	Key        models.Key
	ServerName string
	// Stat is nil when the panel has no usage for the key
	Stat *panelclient.ClientStat
}

// CanClaim reports whether the user may receive a key now. Free users get one per cooldown window.
func (s *KeyService) CanClaim(user *models.User, now time.Time) bool {
	if user.PremiumActive(now) || user.FreeKeyLastClaim == nil {
		return true
	}
	elapsed := now.Sub(*user.FreeKeyLastClaim)
	if elapsed < 0 {
		elapsed = -elapsed
	}
	days := int(math.Ceil(elapsed.Hours() / 24))
	return days >= s.cfg.Limits.FreeClaimCooldownDays
}

// AvailableServers returns servers the user may pick from
func (s *KeyService) AvailableServers(user *models.User) []config.ServerConfig {
	return s.registry.Servers(!user.PremiumActive(s.now()))
}

// Inbounds lists the inbounds offered on a server
func (s *KeyService) Inbounds(ctx context.Context, serverID string) ([]panelclient.Inbound, error) {
	client, err := s.registry.Client(serverID)
	if err != nil {
		return nil, err
	}
	return client.ListInbounds(ctx), nil
}

// Remark is the display name written into links issued on the server
func (s *KeyService) Remark(server config.ServerConfig) string {
	return strings.TrimSpace(server.Name + " " + s.cfg.Branding.RemarkSuffix)
}

// Generate replaces the user's keys with a new one on the chosen inbound
func (s *KeyService) Generate(ctx context.Context, tgID int64, serverID string, inboundID int) (*GeneratedKey, error) {
	user, err := s.store.GetUser(ctx, tgID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	premium := user.PremiumActive(now)
	if !s.CanClaim(user, now) {
		return nil, ErrClaimCooldown
	}

	server, ok := s.registry.Server(serverID)
	if !ok || (!premium && !server.Free) {
		return nil, &apperrors.ServerNotFoundError{ServerID: serverID}
	}
	client, err := s.registry.Client(serverID)
	if err != nil {
		return nil, err
	}

	if err := s.RevokeAll(ctx, tgID); err != nil {
		s.logger.Errorf("Failed to remove old keys of user %d: %v", tgID, err)
	}

	email := fmt.Sprintf("tg_%d_%d", tgID, s.intn(constants.EmailRandRange))
	limitBytes, expireDays := s.quota(premium)

	log := s.logger.WithFields(logrus.Fields{"user": tgID, "server": serverID, "inbound": inboundID})
	log.Infof("Generating key %s", email)

	result := client.AddClient(ctx, inboundID, email, limitBytes, expireDays)
	if !result.Success {
		log.Warnf("Key generation failed (%s): %s", result.Reason, result.Message)
		return nil, &apperrors.ProvisionError{
			ServerID: serverID,
			Reason:   result.Reason.String(),
			Message:  result.Message,
		}
	}

	key := models.Key{
		UUID:      result.CredentialID,
		TgID:      tgID,
		Email:     result.Email,
		InboundID: inboundID,
		ServerID:  serverID,
		CreatedAt: now,
	}
	if err := s.store.AddKey(ctx, &key); err != nil {
		if !client.DeleteClient(ctx, inboundID, key.UUID) {
			log.Warnf("Could not roll back unsaved key %s", key.UUID)
		}
		return nil, err
	}

	if !premium {
		if err := s.store.UpdateFreeClaim(ctx, tgID, now); err != nil {
			log.Errorf("Failed to record free claim: %v", err)
		}
	}

	link, _ := client.BuildLink(ctx, inboundID, key.UUID, key.Email, s.Remark(server))
	return &GeneratedKey{Key: key, ServerName: server.Name, Link: link}, nil
}

// quota returns the traffic limit in bytes and the panel-side expiry in days
func (s *KeyService) quota(premium bool) (int64, int) {
	if premium {
		return gbToBytes(s.cfg.Limits.PremiumGB), 0
	}
	return gbToBytes(s.cfg.Limits.FreeGB), s.cfg.Limits.FreeExpireDays
}

// RevokeAll deletes every key of the user from its panel and from the store.
// Panel deletion is best effort: an unreachable panel never keeps a key in the store.
func (s *KeyService) RevokeAll(ctx context.Context, tgID int64) error {
	keys, err := s.store.Keys(ctx, tgID)
	if err != nil {
		return err
	}

	var errs []error
	for _, key := range keys {
		if client, err := s.registry.Client(key.ServerID); err == nil {
			if !client.DeleteClient(ctx, key.InboundID, key.UUID) {
				s.logger.Warnf("Panel %s did not delete key %s of user %d", key.ServerID, key.UUID, tgID)
			}
		} else {
			s.logger.Warnf("Key %s of user %d belongs to unknown server %s", key.UUID, tgID, key.ServerID)
		}

		if err := s.store.DeleteKey(ctx, key.UUID); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

// Links rebuilds connection links for the user's keys
func (s *KeyService) Links(ctx context.Context, tgID int64) ([]KeyLink, error) {
	keys, err := s.store.Keys(ctx, tgID)
	if err != nil {
		return nil, err
	}
	if len(keys) == 0 {
		return nil, ErrNoKeys
	}

	links := make([]KeyLink, 0, len(keys))
	for _, key := range keys {
		server, ok := s.registry.Server(key.ServerID)
		if !ok {
			continue
		}
		client, err := s.registry.Client(key.ServerID)
		if err != nil {
			continue
		}
		link, ok := client.BuildLink(ctx, key.InboundID, key.UUID, key.Email, s.Remark(server))
		if !ok {
			continue
		}
		links = append(links, KeyLink{Key: key, ServerName: server.Name, Link: link})
	}
	return links, nil
}

// Status returns the user's plan together with usage of their most recent key
func (s *KeyService) Status(ctx context.Context, tgID int64) (*AccountStatus, error) {
	user, err := s.store.GetUser(ctx, tgID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrNoKeys
	}
	if err != nil {
		return nil, err
	}

	keys, err := s.store.Keys(ctx, tgID)
	if err != nil {
		return nil, err
	}
	if len(keys) == 0 {
		return nil, ErrNoKeys
	}

	key := keys[0]
	client, err := s.registry.Client(key.ServerID)
	if err != nil {
		return nil, err
	}

	status := &AccountStatus{User: *user, Key: key, ServerName: key.ServerID}
	if server, ok := s.registry.Server(key.ServerID); ok {
		status.ServerName = server.Name
	}
	if stat, ok := client.GetClientStat(ctx, key.Email); ok {
		status.Stat = stat
	}
	return status, nil
}

// RedeemCoupon spends a gift code and extends the user's premium plan by its days
func (s *KeyService) RedeemCoupon(ctx context.Context, tgID int64, code string) (int, time.Time, error) {
	days, err := s.store.RedeemCoupon(ctx, tgID, strings.TrimSpace(code))
	if err != nil {
		return 0, time.Time{}, err
	}

	user, err := s.store.GetUser(ctx, tgID)
	if err != nil {
		return 0, time.Time{}, err
	}

	now := s.now()
	base := now
	if user.PremiumActive(now) && user.PremiumExpiry != nil {
		base = *user.PremiumExpiry
	}
	expiry := base.AddDate(0, 0, days)

	if err := s.store.SetPremium(ctx, tgID, expiry); err != nil {
		return 0, time.Time{}, err
	}
	return days, expiry, nil
}

// GrantPremium gives the user premium for days counted from now
func (s *KeyService) GrantPremium(ctx context.Context, tgID int64, days int) (time.Time, error) {
	expiry := s.now().AddDate(0, 0, days)
	if err := s.store.SetPremium(ctx, tgID, expiry); err != nil {
		return time.Time{}, err
	}
	return expiry, nil
}

// CreateCoupon stores a gift code with a random readable name
func (s *KeyService) CreateCoupon(ctx context.Context, days, maxUses int) (*models.Coupon, error) {
	var lastErr error
	for attempt := 0; attempt < 3; attempt++ {
		coupon, err := s.store.CreateCoupon(ctx, s.couponCode(), days, maxUses)
		if err == nil {
			return coupon, nil
		}
		if !errors.Is(err, store.ErrCouponExists) {
			return nil, err
		}
		lastErr = err
	}
	return nil, lastErr
}

func (s *KeyService) couponCode() string {
	var sb strings.Builder
	sb.WriteString(constants.CouponCodePrefix)
	for i := 0; i < constants.CouponCodeLength; i++ {
		sb.WriteByte(couponAlphabet[s.intn(len(couponAlphabet))])
	}
	return sb.String()
}

func gbToBytes(gb float64) int64 {
	if gb <= 0 {
		return 0
	}
	return int64(math.Floor(gb * constants.BytesInGB))
}
