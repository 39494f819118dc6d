package handlers

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
	telebot "gopkg.in/telebot.v3"

	"xui-keys-bot/internal/commands"
	"xui-keys-bot/internal/config"
	"xui-keys-bot/internal/constants"
	apperrors "xui-keys-bot/internal/errors"
	"xui-keys-bot/internal/helpers"
	"xui-keys-bot/internal/models"
	"xui-keys-bot/internal/permissions"
	"xui-keys-bot/internal/services"
	"xui-keys-bot/internal/store"
)

// User-facing messages
const (
	MsgWelcome           = "Welcome! 🚀\nUse the menu below to get your VPN key."
	MsgSelectServer      = "🌍 <b>Select a Server Location:</b>"
	MsgServerUnavailable = "❌ Server not available."
	MsgFetchingProtocols = "Fetching protocols..."
	MsgNoProtocols       = "❌ No protocols found."
	MsgGenerating        = "Generating Key... ⏳"
	MsgNoActiveKeys      = "You have no active keys. Use /gen to create one."
	MsgKeysUnavailable   = "❌ Your keys could not be loaded right now. Please try again later."
	MsgInternalError     = "❌ An internal error occurred."
	MsgEnterCoupon       = "🎁 Send your gift code now, or /cancel."
	MsgUnknownAction     = "Unknown action."
	MsgUpgradeButton     = "💎 Upgrade to Premium"
)

// UserHandler handles commands of regular users
type UserHandler struct {
	BaseHandler
	commandHandlers map[string]func(context.Context, telebot.Context) error
}

// NewUserHandler creates a new user handler
func NewUserHandler(deps Dependencies, config *config.Config, logger *logrus.Logger) *UserHandler {
	handler := &UserHandler{
		BaseHandler: NewBaseHandler(deps, config, logger),
	}

	handler.initializeCommands()
	return handler
}

// CanHandle checks if the handler can handle the given access type
func (h *UserHandler) CanHandle(accessType permissions.AccessType) bool {
	return accessType == permissions.User
}

// Handle handles a message or callback from Telegram
func (h *UserHandler) Handle(ctx context.Context, c telebot.Context) error {
	if c.Callback() != nil {
		return h.handleCallback(ctx, c)
	}

	userState := h.stateService.GetState(c.Sender().ID)

	switch userState.State {
	case models.AwaitingCouponCode:
		return h.processCouponCode(ctx, c)
	default:
		return h.handleDefaultState(ctx, c)
	}
}

// initializeCommands initializes the command handlers
func (h *UserHandler) initializeCommands() {
	h.commandHandlers = map[string]func(context.Context, telebot.Context) error{
		commands.Start:          h.handleStart,
		commands.Cancel:         h.handleStart,
		commands.Gen:            h.handleGenerate,
		commands.GenerateKey:    h.handleGenerate,
		commands.MyKey:          h.handleMyKeys,
		commands.MyKeys:         h.handleMyKeys,
		commands.Status:         h.handleStatus,
		commands.AccountStatus:  h.handleStatus,
		commands.Premium:        h.handlePremium,
		commands.UpgradePremium: h.handlePremium,
		commands.Redeem:         h.handleRedeem,
		commands.RedeemCode:     h.handleRedeem,
	}
}

// lookupCommand matches menu buttons by full text and slash commands by their first word
func (h *UserHandler) lookupCommand(text string) (func(context.Context, telebot.Context) error, bool) {
	if handler, ok := h.commandHandlers[strings.TrimSpace(text)]; ok {
		return handler, true
	}
	if strings.HasPrefix(text, "/") {
		handler, ok := h.commandHandlers[commandName(text)]
		return handler, ok
	}
	return nil, false
}

// handleDefaultState handles the default state
func (h *UserHandler) handleDefaultState(ctx context.Context, c telebot.Context) error {
	if handler, ok := h.lookupCommand(c.Text()); ok {
		return handler(ctx, c)
	}

	// If not, show the main menu
	return h.handleStart(ctx, c)
}

// handleStart handles the /start command
func (h *UserHandler) handleStart(_ context.Context, c telebot.Context) error {
	h.stateService.ClearState(c.Sender().ID)
	return h.sendTextMessage(c, MsgWelcome, h.createMainKeyboard())
}

// handleGenerate shows the server picker
func (h *UserHandler) handleGenerate(ctx context.Context, c telebot.Context) error {
	user, err := h.store.GetUser(ctx, c.Sender().ID)
	if err != nil {
		h.logger.Errorf("Failed to load user %d: %v", c.Sender().ID, err)
		return h.sendTextMessage(c, MsgInternalError, nil)
	}

	if !h.keys.CanClaim(user, h.now()) {
		return h.sendTextMessage(c, h.limitReachedMessage(), nil)
	}

	servers := h.keys.AvailableServers(user)
	if len(servers) == 0 {
		return h.sendTextMessage(c, MsgServerUnavailable, nil)
	}

	var rows [][]telebot.InlineButton
	for _, s := range servers {
		rows = append(rows, []telebot.InlineButton{{
			Text: s.Name,
			Data: commands.CallbackServer + ":" + s.ID,
		}})
	}

	return h.sendTextMessage(c, MsgSelectServer, inlineMarkup(rows))
}

// handleCallback dispatches inline button presses
func (h *UserHandler) handleCallback(ctx context.Context, c telebot.Context) error {
	data := c.Callback().Data

	switch {
	case strings.HasPrefix(data, commands.CallbackServer+":"):
		return h.handleServerSelected(ctx, c, strings.TrimPrefix(data, commands.CallbackServer+":"))
	case strings.HasPrefix(data, commands.CallbackProtocol+":"):
		serverID, inboundID, err := parseProtocolCallback(data)
		if err != nil {
			h.respond(c, MsgUnknownAction)
			return nil
		}
		return h.handleProtocolSelected(ctx, c, serverID, inboundID)
	case data == commands.CallbackUpgrade:
		h.respond(c, "")
		return h.handlePremium(ctx, c)
	default:
		h.respond(c, MsgUnknownAction)
		return nil
	}
}

// handleServerSelected shows the inbounds of the chosen server
func (h *UserHandler) handleServerSelected(ctx context.Context, c telebot.Context, serverID string) error {
	server, ok := h.registry.Server(serverID)
	if !ok {
		h.respond(c, "")
		return h.sendTextMessage(c, MsgServerUnavailable, nil)
	}

	h.respond(c, MsgFetchingProtocols)

	inbounds, err := h.keys.Inbounds(ctx, serverID)
	if err != nil {
		return h.sendTextMessage(c, MsgServerUnavailable, nil)
	}
	if len(inbounds) == 0 {
		return h.sendTextMessage(c, MsgNoProtocols, nil)
	}

	var rows [][]telebot.InlineButton
	for _, inbound := range inbounds {
		rows = append(rows, []telebot.InlineButton{{
			Text: fmt.Sprintf("%s (%s)", inbound.Remark, strings.ToUpper(inbound.Protocol)),
			Data: fmt.Sprintf("%s:%s:%d", commands.CallbackProtocol, serverID, inbound.ID),
		}})
	}

	text := fmt.Sprintf("📍 <b>Server Selected: %s</b>\nSelect Protocol:", html.EscapeString(server.Name))
	return h.editOrSend(c, text, inlineMarkup(rows))
}

// handleProtocolSelected issues a key on the chosen inbound
func (h *UserHandler) handleProtocolSelected(ctx context.Context, c telebot.Context, serverID string, inboundID int) error {
	userID := c.Sender().ID

	h.respond(c, MsgGenerating)
	if err := h.editOrSend(c, MsgGenerating, nil); err != nil {
		return err
	}

	generated, err := h.keys.Generate(ctx, userID, serverID, inboundID)
	if err != nil {
		return h.sendTextMessage(c, h.generateErrorMessage(userID, err), nil)
	}

	if err := h.sendTextMessage(c, helpers.FormatKeyGenerated(generated), nil); err != nil {
		return err
	}
	if generated.Link == "" {
		return nil
	}
	return h.sendQRCode(c, generated.Link)
}

// generateErrorMessage maps a key generation failure to the text shown to the user
func (h *UserHandler) generateErrorMessage(userID int64, err error) string {
	var provErr *apperrors.ProvisionError
	var notFound *apperrors.ServerNotFoundError

	switch {
	case errors.Is(err, services.ErrClaimCooldown):
		return h.limitReachedMessage()
	case errors.As(err, &notFound):
		return MsgServerUnavailable
	case errors.As(err, &provErr):
		return fmt.Sprintf("❌ Failed to generate key: %s", html.EscapeString(provErr.Message))
	default:
		h.logger.Errorf("Failed to generate key for user %d: %v", userID, err)
		return "❌ Error generating key."
	}
}

func (h *UserHandler) limitReachedMessage() string {
	return fmt.Sprintf("⚠️ Limit reached. Free users: 1 key every %d days.", h.config.Limits.FreeClaimCooldownDays)
}

// handleMyKeys lists connection links of the user's keys
func (h *UserHandler) handleMyKeys(ctx context.Context, c telebot.Context) error {
	links, err := h.keys.Links(ctx, c.Sender().ID)
	if errors.Is(err, services.ErrNoKeys) {
		return h.sendTextMessage(c, MsgNoActiveKeys, nil)
	}
	if err != nil {
		h.logger.Errorf("Failed to list keys of user %d: %v", c.Sender().ID, err)
		return h.sendTextMessage(c, MsgInternalError, nil)
	}
	if len(links) == 0 {
		return h.sendTextMessage(c, MsgKeysUnavailable, nil)
	}

	for _, link := range links {
		if err := h.sendTextMessage(c, helpers.FormatKeyLink(link), nil); err != nil {
			return err
		}
	}
	return nil
}

// handleStatus shows the plan and usage of the user's key
func (h *UserHandler) handleStatus(ctx context.Context, c telebot.Context) error {
	status, err := h.keys.Status(ctx, c.Sender().ID)

	var notFound *apperrors.ServerNotFoundError
	switch {
	case errors.Is(err, services.ErrNoKeys):
		return h.sendTextMessage(c, MsgNoActiveKeys, nil)
	case errors.As(err, &notFound):
		return h.sendTextMessage(c, MsgServerUnavailable, nil)
	case err != nil:
		h.logger.Errorf("Failed to load status of user %d: %v", c.Sender().ID, err)
		return h.sendTextMessage(c, MsgInternalError, nil)
	}

	var markup *telebot.ReplyMarkup
	if !status.User.PremiumActive(h.now()) {
		markup = inlineMarkup([][]telebot.InlineButton{{
			{Text: MsgUpgradeButton, Data: commands.CallbackUpgrade},
		}})
	}
	return h.sendTextMessage(c, helpers.FormatAccountStatus(status, h.now()), markup)
}

// handlePremium shows the upgrade offer
func (h *UserHandler) handlePremium(_ context.Context, c telebot.Context) error {
	return h.sendTextMessage(c, helpers.FormatPremiumInfo(h.config.Premium.Cost, h.config.Premium.PaymentInfo), nil)
}

// handleRedeem redeems the code given with the command, or asks for one
func (h *UserHandler) handleRedeem(ctx context.Context, c telebot.Context) error {
	if args := commandArgs(c); len(args) > 0 && strings.HasPrefix(c.Text(), "/") {
		return h.redeem(ctx, c, args[0])
	}

	h.stateService.WithConversationState(c.Sender().ID, models.AwaitingCouponCode)
	return h.sendTextMessage(c, MsgEnterCoupon, nil)
}

// processCouponCode handles the message sent after the user asked to redeem a code
func (h *UserHandler) processCouponCode(ctx context.Context, c telebot.Context) error {
	h.stateService.ClearState(c.Sender().ID)

	if handler, ok := h.lookupCommand(c.Text()); ok {
		return handler(ctx, c)
	}
	return h.redeem(ctx, c, c.Text())
}

func (h *UserHandler) redeem(ctx context.Context, c telebot.Context, code string) error {
	days, expiry, err := h.keys.RedeemCoupon(ctx, c.Sender().ID, code)
	if err != nil {
		return h.sendTextMessage(c, h.redeemErrorMessage(c.Sender().ID, err), nil)
	}

	h.logger.Infof("User %d redeemed a code for %d days", c.Sender().ID, days)
	return h.sendTextMessage(c, fmt.Sprintf("✅ Success! You received %d Days Premium.\nNew Expiry: %s",
		days, expiry.Format(constants.DateFormat)), nil)
}

func (h *UserHandler) redeemErrorMessage(userID int64, err error) string {
	switch {
	case errors.Is(err, store.ErrCouponInvalid):
		return "❌ Invalid code."
	case errors.Is(err, store.ErrCouponExhausted):
		return "❌ This code has been fully redeemed."
	case errors.Is(err, store.ErrCouponAlreadyUsed):
		return "❌ You have already redeemed this code."
	case errors.Is(err, store.ErrCouponConflict):
		return "❌ Redemption failed. Please try again."
	default:
		h.logger.Errorf("Failed to redeem code for user %d: %v", userID, err)
		return MsgInternalError
	}
}

// parseProtocolCallback parses "proto:<server id>:<inbound id>"
func parseProtocolCallback(data string) (string, int, error) {
	rest := strings.TrimPrefix(data, commands.CallbackProtocol+":")
	sep := strings.LastIndex(rest, ":")
	if rest == data || sep <= 0 {
		return "", 0, fmt.Errorf("invalid callback data")
	}

	inboundID, err := strconv.Atoi(rest[sep+1:])
	if err != nil {
		return "", 0, fmt.Errorf("invalid inbound id: %w", err)
	}
	return rest[:sep], inboundID, nil
}
