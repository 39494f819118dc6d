package handlers

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	telebot "gopkg.in/telebot.v3"

	"xui-keys-bot/internal/commands"
	"xui-keys-bot/internal/config"
	"xui-keys-bot/internal/constants"
	"xui-keys-bot/internal/helpers"
	"xui-keys-bot/internal/permissions"
	"xui-keys-bot/internal/store"
	"xui-keys-bot/internal/validation"
)

// Messages sent to users by admin actions
const (
	MsgPremiumApproved = "🎉 Your Premium Upgrade is Approved!\n\nYou can now use /gen to create keys on all servers."
	MsgPremiumRemoved  = "⚠️ Your Premium plan has been removed. Use /premium to renew."
	MsgUserNotFound    = "User not found."
)

// AdminHandler handles admin commands; everything else falls through to the user menu
type AdminHandler struct {
	BaseHandler
	user            *UserHandler
	commandHandlers map[string]func(context.Context, telebot.Context) error
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(deps Dependencies, config *config.Config, logger *logrus.Logger) *AdminHandler {
	handler := &AdminHandler{
		BaseHandler: NewBaseHandler(deps, config, logger),
		user:        NewUserHandler(deps, config, logger),
	}

	handler.initializeCommands()
	return handler
}

// CanHandle checks if the handler can handle the given access type
func (h *AdminHandler) CanHandle(accessType permissions.AccessType) bool {
	return accessType == permissions.Admin
}

// Handle handles a message from Telegram
func (h *AdminHandler) Handle(ctx context.Context, c telebot.Context) error {
	if c.Callback() == nil {
		if handler, ok := h.commandHandlers[commandName(c.Text())]; ok {
			h.stateService.ClearState(c.Sender().ID)
			h.logger.Infof("Admin %d: %s", c.Sender().ID, c.Text())
			return handler(ctx, c)
		}
	}

	return h.user.Handle(ctx, c)
}

// initializeCommands initializes the command handlers
func (h *AdminHandler) initializeCommands() {
	h.commandHandlers = map[string]func(context.Context, telebot.Context) error{
		commands.Admin:         h.handleDashboard,
		commands.ServerStatus:  h.handleServerStatus,
		commands.AdminUser:     h.handleUserInfo,
		commands.AddPremium:    h.handleAddPremium,
		commands.RemovePremium: h.handleRemovePremium,
		commands.Ban:           h.handleBan,
		commands.Unban:         h.handleUnban,
		commands.CreateCode:    h.handleCreateCode,
		commands.Maintenance:   h.handleMaintenance,
	}
}

// handleDashboard shows counters and available commands
func (h *AdminHandler) handleDashboard(ctx context.Context, c telebot.Context) error {
	stats, err := h.store.Stats(ctx)
	if err != nil {
		h.logger.Errorf("Failed to load stats: %v", err)
		return h.sendTextMessage(c, fmt.Sprintf("Failed to load stats: %v", err), nil)
	}
	return h.sendTextMessage(c, helpers.FormatAdminDashboard(stats), nil)
}

// handleServerStatus pings every panel
func (h *AdminHandler) handleServerStatus(ctx context.Context, c telebot.Context) error {
	if err := h.sendTextMessage(c, "Checking servers...", nil); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, constants.ServerStatusCheckDeadline*time.Second)
	defer cancel()

	return h.sendTextMessage(c, helpers.FormatServerStatus(h.registry.CheckAll(ctx)), nil)
}

// handleUserInfo shows a user's plan
func (h *AdminHandler) handleUserInfo(ctx context.Context, c telebot.Context) error {
	args := commandArgs(c)
	if len(args) < 1 {
		return h.sendTextMessage(c, "Usage: /admin_user &lt;id&gt;", nil)
	}
	targetID, err := validation.ParseTelegramID(args[0])
	if err != nil {
		return h.sendTextMessage(c, err.Error(), nil)
	}

	user, err := h.store.GetUser(ctx, targetID)
	if errors.Is(err, store.ErrNotFound) {
		return h.sendTextMessage(c, MsgUserNotFound, nil)
	}
	if err != nil {
		return h.storeFailure(c, err)
	}

	keys, err := h.store.Keys(ctx, targetID)
	if err != nil {
		return h.storeFailure(c, err)
	}

	return h.sendTextMessage(c, helpers.FormatUserInfo(user, len(keys), h.now()), nil)
}

// handleAddPremium grants premium for a number of days
func (h *AdminHandler) handleAddPremium(ctx context.Context, c telebot.Context) error {
	args := commandArgs(c)
	if len(args) < 2 {
		return h.sendTextMessage(c, "Usage: /add_premium &lt;id&gt; &lt;days&gt;", nil)
	}
	targetID, err := validation.ParseTelegramID(args[0])
	if err != nil {
		return h.sendTextMessage(c, err.Error(), nil)
	}
	days, err := validation.ValidateDuration(args[1])
	if err != nil {
		return h.sendTextMessage(c, err.Error(), nil)
	}

	if _, err := h.keys.GrantPremium(ctx, targetID, days); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return h.sendTextMessage(c, MsgUserNotFound, nil)
		}
		return h.storeFailure(c, err)
	}

	h.notifyUser(c, targetID, MsgPremiumApproved)
	return h.sendTextMessage(c, fmt.Sprintf("✅ Premium added to %d for %d days.", targetID, days), nil)
}

// handleRemovePremium returns a user to the free plan; their keys stay active
func (h *AdminHandler) handleRemovePremium(ctx context.Context, c telebot.Context) error {
	args := commandArgs(c)
	if len(args) < 1 {
		return h.sendTextMessage(c, "Usage: /remove_premium &lt;id&gt;", nil)
	}
	targetID, err := validation.ParseTelegramID(args[0])
	if err != nil {
		return h.sendTextMessage(c, err.Error(), nil)
	}

	if err := h.store.Downgrade(ctx, targetID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return h.sendTextMessage(c, MsgUserNotFound, nil)
		}
		return h.storeFailure(c, err)
	}

	h.notifyUser(c, targetID, MsgPremiumRemoved)
	return h.sendTextMessage(c, fmt.Sprintf("✅ Premium removed from %d.", targetID), nil)
}

// handleBan bans a user
func (h *AdminHandler) handleBan(ctx context.Context, c telebot.Context) error {
	return h.setBanned(ctx, c, true)
}

// handleUnban lifts a ban
func (h *AdminHandler) handleUnban(ctx context.Context, c telebot.Context) error {
	return h.setBanned(ctx, c, false)
}

func (h *AdminHandler) setBanned(ctx context.Context, c telebot.Context, banned bool) error {
	args := commandArgs(c)
	if len(args) < 1 {
		return h.sendTextMessage(c, fmt.Sprintf("Usage: %s &lt;id&gt;", commandName(c.Text())), nil)
	}
	targetID, err := validation.ParseTelegramID(args[0])
	if err != nil {
		return h.sendTextMessage(c, err.Error(), nil)
	}

	if err := h.store.SetBanned(ctx, targetID, banned); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return h.sendTextMessage(c, MsgUserNotFound, nil)
		}
		return h.storeFailure(c, err)
	}

	if banned {
		return h.sendTextMessage(c, fmt.Sprintf("🚫 User %d has been BANNED.", targetID), nil)
	}
	return h.sendTextMessage(c, fmt.Sprintf("✅ User %d has been UNBANNED.", targetID), nil)
}

// handleCreateCode creates a gift code
func (h *AdminHandler) handleCreateCode(ctx context.Context, c telebot.Context) error {
	args := commandArgs(c)
	if len(args) < 1 {
		return h.sendTextMessage(c, "Usage: /create_code &lt;days&gt; [max_uses]", nil)
	}
	days, err := validation.ValidateDuration(args[0])
	if err != nil {
		return h.sendTextMessage(c, err.Error(), nil)
	}
	usesArg := ""
	if len(args) > 1 {
		usesArg = args[1]
	}
	uses, err := validation.ParseUses(usesArg)
	if err != nil {
		return h.sendTextMessage(c, err.Error(), nil)
	}

	coupon, err := h.keys.CreateCoupon(ctx, days, uses)
	if err != nil {
		h.logger.Errorf("Failed to create coupon: %v", err)
		return h.sendTextMessage(c, fmt.Sprintf("❌ Failed: %v", err), nil)
	}

	return h.sendTextMessage(c, helpers.FormatCouponCreated(coupon.Code, coupon.Days, coupon.MaxUses), nil)
}

// handleMaintenance toggles maintenance mode
func (h *AdminHandler) handleMaintenance(ctx context.Context, c telebot.Context) error {
	args := commandArgs(c)
	if len(args) < 1 {
		return h.sendTextMessage(c, "Usage: /maintenance &lt;on|off&gt;", nil)
	}
	on, err := validation.ParseToggle(args[0])
	if err != nil {
		return h.sendTextMessage(c, err.Error(), nil)
	}

	if err := h.store.SetMaintenance(ctx, on); err != nil {
		return h.storeFailure(c, err)
	}

	if on {
		return h.sendTextMessage(c, "🚧 Maintenance Mode ENABLED.", nil)
	}
	return h.sendTextMessage(c, "🟢 Maintenance Mode DISABLED.", nil)
}

// notifyUser messages a user; blocked bots are only logged
func (h *AdminHandler) notifyUser(c telebot.Context, userID int64, text string) {
	if _, err := c.Bot().Send(telebot.ChatID(userID), text); err != nil {
		h.logger.Warnf("Failed to notify user %d: %v", userID, err)
	}
}

func (h *AdminHandler) storeFailure(c telebot.Context, err error) error {
	h.logger.Errorf("Admin command failed: %v", err)
	return h.sendTextMessage(c, MsgInternalError, nil)
}
