package telegrambot

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	telebot "gopkg.in/telebot.v3"

	"xui-keys-bot/internal/config"
	"xui-keys-bot/internal/constants"
	"xui-keys-bot/internal/handlers"
	"xui-keys-bot/internal/permissions"
	"xui-keys-bot/internal/services"
	"xui-keys-bot/internal/store"
)

// Messages sent by the middleware
const (
	MsgMaintenance = "🚧 Bot is currently under maintenance. Please try again later."
	MsgBanned      = "🚫 Your account has been banned."
	MsgJoinChannel = "⚠️ Please join our channel to use this bot.\n\nAfter joining, click /start again."
	MsgJoinButton  = "📢 Join Channel"
	MsgError       = "An error occurred. Please try again later."
)

// Bot represents a Telegram bot
type Bot struct {
	bot      *telebot.Bot
	config   *config.Config
	handlers map[permissions.AccessType]handlers.MessageHandler
	store    *store.Store
	limiter  *services.RateLimiter
	permCtrl *permissions.PermissionController
	logger   *logrus.Logger
}

// NewBot creates a new Telegram bot
func NewBot(
	cfg *config.Config,
	deps handlers.Dependencies,
	limiter *services.RateLimiter,
	permCtrl *permissions.PermissionController,
	logger *logrus.Logger,
) (*Bot, error) {
	settings := telebot.Settings{
		Token:  cfg.Telegram.Token,
		Poller: &telebot.LongPoller{Timeout: constants.DefaultLongPollerTimeout * time.Second},
	}
	return newBot(settings, cfg, deps, limiter, permCtrl, logger)
}

func newBot(
	settings telebot.Settings,
	cfg *config.Config,
	deps handlers.Dependencies,
	limiter *services.RateLimiter,
	permCtrl *permissions.PermissionController,
	logger *logrus.Logger,
) (*Bot, error) {
	settings.OnError = func(err error, c telebot.Context) {
		logger.Errorf("Telegram bot error: %v", err)
		if c != nil {
			_ = c.Send(MsgError)
		}
	}

	b, err := telebot.NewBot(settings)
	if err != nil {
		return nil, fmt.Errorf("failed to create Telegram bot: %w", err)
	}

	factory := handlers.NewHandlerFactory(deps, cfg, logger)

	bot := &Bot{
		bot:      b,
		config:   cfg,
		handlers: make(map[permissions.AccessType]handlers.MessageHandler),
		store:    deps.Store,
		limiter:  limiter,
		permCtrl: permCtrl,
		logger:   logger,
	}

	bot.handlers[permissions.Admin] = factory.CreateHandler(permissions.Admin)
	bot.handlers[permissions.User] = factory.CreateHandler(permissions.User)

	bot.setupMiddleware()

	return bot, nil
}

// Start starts the bot and blocks until ctx is done
func (b *Bot) Start(ctx context.Context) error {
	b.logger.Info("Starting Telegram bot")

	go func() {
		<-ctx.Done()
		b.logger.Info("Stopping Telegram bot")
		b.bot.Stop()
	}()

	b.bot.Start()
	return nil
}

// Notify sends a plain text message to a chat
func (b *Bot) Notify(_ context.Context, chatID int64, text string) error {
	_, err := b.bot.Send(telebot.ChatID(chatID), text)
	return err
}

// setupMiddleware sets up the bot middleware
func (b *Bot) setupMiddleware() {
	b.bot.Use(
		b.logUpdates,
		b.registerUser,
		b.maintenanceGate,
		b.bannedGate,
		b.rateLimit,
		b.requireChannel,
	)

	b.bot.Handle(telebot.OnText, b.handleUpdate)
	b.bot.Handle(telebot.OnCallback, b.handleUpdate)
	b.bot.Handle("/start", b.handleUpdate)
}

func (b *Bot) logUpdates(next telebot.HandlerFunc) telebot.HandlerFunc {
	return func(c telebot.Context) error {
		if c.Sender() == nil {
			return nil
		}
		if cb := c.Callback(); cb != nil {
			b.logger.Infof("Received callback from %d: %s", c.Sender().ID, cb.Data)
		} else {
			b.logger.Infof("Received message from %d: %s", c.Sender().ID, c.Text())
		}
		return next(c)
	}
}

func (b *Bot) registerUser(next telebot.HandlerFunc) telebot.HandlerFunc {
	return func(c telebot.Context) error {
		sender := c.Sender()
		if err := b.store.UpsertUser(context.Background(), sender.ID, sender.FirstName, sender.Username); err != nil {
			b.logger.Errorf("Failed to save user %d: %v", sender.ID, err)
		}
		return next(c)
	}
}

func (b *Bot) maintenanceGate(next telebot.HandlerFunc) telebot.HandlerFunc {
	return func(c telebot.Context) error {
		if b.permCtrl.IsAdmin(c.Sender().ID) || !b.store.Maintenance(context.Background()) {
			return next(c)
		}
		b.answerCallback(c, "")
		return c.Send(MsgMaintenance)
	}
}

func (b *Bot) bannedGate(next telebot.HandlerFunc) telebot.HandlerFunc {
	return func(c telebot.Context) error {
		if b.permCtrl.GetAccessType(context.Background(), c.Sender().ID) != permissions.Banned {
			return next(c)
		}
		b.answerCallback(c, "")
		return c.Send(MsgBanned)
	}
}

// rateLimit silently drops updates of non-admins arriving too fast
func (b *Bot) rateLimit(next telebot.HandlerFunc) telebot.HandlerFunc {
	return func(c telebot.Context) error {
		userID := c.Sender().ID
		if b.permCtrl.IsAdmin(userID) || b.limiter.Allow(userID) {
			return next(c)
		}
		b.logger.Debugf("Dropped update from %d: rate limited", userID)
		b.answerCallback(c, "")
		return nil
	}
}

// requireChannel asks non-admins to join the configured channel first.
// Lookup failures let the update through.
func (b *Bot) requireChannel(next telebot.HandlerFunc) telebot.HandlerFunc {
	return func(c telebot.Context) error {
		channel := b.config.Telegram.RequiredChannel
		if channel == "" || b.permCtrl.IsAdmin(c.Sender().ID) {
			return next(c)
		}

		chat, err := b.bot.ChatByUsername("@" + channel)
		if err != nil {
			b.logger.Errorf("Channel check failed: %v", err)
			return next(c)
		}
		member, err := b.bot.ChatMemberOf(chat, c.Sender())
		if err != nil {
			b.logger.Errorf("Channel check failed for %d: %v", c.Sender().ID, err)
			return next(c)
		}

		switch member.Role {
		case telebot.Creator, telebot.Administrator, telebot.Member, telebot.Restricted:
			return next(c)
		}

		if c.Callback() != nil {
			_ = c.Respond(&telebot.CallbackResponse{Text: MsgJoinChannel, ShowAlert: true})
		}
		markup := &telebot.ReplyMarkup{InlineKeyboard: [][]telebot.InlineButton{{
			{Text: MsgJoinButton, URL: "https://t.me/" + channel},
		}}}
		return c.Send(MsgJoinChannel, markup)
	}
}

func (b *Bot) answerCallback(c telebot.Context, text string) {
	if c.Callback() == nil {
		return
	}
	if err := c.Respond(&telebot.CallbackResponse{Text: text}); err != nil {
		b.logger.Debugf("Failed to answer callback: %v", err)
	}
}

// handleUpdate routes an update to the handler of the sender's access type
func (b *Bot) handleUpdate(c telebot.Context) error {
	accessType := permissions.User
	if b.permCtrl.IsAdmin(c.Sender().ID) {
		accessType = permissions.Admin
	}

	handler, ok := b.handlers[accessType]
	if !ok {
		b.logger.Warnf("No handler for access type %d", accessType)
		return c.Send("You don't have permission to use this bot.")
	}

	return handler.Handle(context.Background(), c)
}
