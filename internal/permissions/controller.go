package permissions

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"

	"xui-keys-bot/internal/models"
	"xui-keys-bot/internal/store"
)

// AccessType represents the access level of a user
type AccessType int

const (
	// User represents a regular bot user
	User AccessType = iota
	// Admin represents admin access
	Admin
	// Banned represents a user who may not use the bot
	Banned
)

// UserLookup loads stored users
type UserLookup interface {
	GetUser(ctx context.Context, tgID int64) (*models.User, error)
}

// PermissionController manages user permissions
type PermissionController struct {
	adminIDs map[int64]bool
	users    UserLookup
	logger   *logrus.Logger
}

// NewController creates a new permission controller
func NewController(adminIDs []int64, users UserLookup, logger *logrus.Logger) *PermissionController {
	adminIDMap := make(map[int64]bool, len(adminIDs))
	for _, id := range adminIDs {
		adminIDMap[id] = true
	}

	logger.Infof("Initialized permission controller with %d admins", len(adminIDs))

	return &PermissionController{
		adminIDs: adminIDMap,
		users:    users,
		logger:   logger,
	}
}

// GetAccessType determines the access type of a user. Admins are never banned.
func (p *PermissionController) GetAccessType(ctx context.Context, userID int64) AccessType {
	if p.IsAdmin(userID) {
		return Admin
	}

	if p.IsBanned(ctx, userID) {
		return Banned
	}

	return User
}

// IsAdmin checks if a user is an admin
func (p *PermissionController) IsAdmin(userID int64) bool {
	isAdmin := p.adminIDs[userID]
	p.logger.Debugf("Checking if user %d is admin: %v", userID, isAdmin)
	return isAdmin
}

// IsBanned checks if a user is banned; unknown users are not
func (p *PermissionController) IsBanned(ctx context.Context, userID int64) bool {
	if p.users == nil {
		return false
	}
	user, err := p.users.GetUser(ctx, userID)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			p.logger.Errorf("Failed to load user %d: %v", userID, err)
		}
		return false
	}
	return user.Banned
}
