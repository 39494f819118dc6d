package handlers

import (
	"bytes"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	telebot "gopkg.in/telebot.v3"

	"xui-keys-bot/internal/commands"
	"xui-keys-bot/internal/config"
	"xui-keys-bot/internal/permissions"
	"xui-keys-bot/internal/services"
	"xui-keys-bot/internal/store"
)

// Dependencies are the services shared by all handlers
type Dependencies struct {
	Keys     *services.KeyService
	Registry *services.Registry
	Store    *store.Store
	States   *services.UserStateService
	QR       *services.QRService
}

// BaseHandler provides common functionality for all handlers
type BaseHandler struct {
	keys         *services.KeyService
	registry     *services.Registry
	store        *store.Store
	stateService *services.UserStateService
	qrService    *services.QRService
	config       *config.Config
	logger       *logrus.Logger
	now          func() time.Time
}

// NewBaseHandler creates a new base handler
func NewBaseHandler(deps Dependencies, config *config.Config, logger *logrus.Logger) BaseHandler {
	return BaseHandler{
		keys:         deps.Keys,
		registry:     deps.Registry,
		store:        deps.Store,
		stateService: deps.States,
		qrService:    deps.QR,
		config:       config,
		logger:       logger,
		now:          time.Now,
	}
}

// CanHandle checks if the handler can handle the given access type
func (h *BaseHandler) CanHandle(accessType permissions.AccessType) bool {
	// Base handler can't handle any access type directly
	return false
}

// sendTextMessage sends an HTML message with optional markup
func (h *BaseHandler) sendTextMessage(c telebot.Context, text string, markup *telebot.ReplyMarkup) error {
	opts := &telebot.SendOptions{
		ParseMode:             telebot.ModeHTML,
		DisableWebPagePreview: true,
	}

	if markup != nil {
		opts.ReplyMarkup = markup
	}

	_, err := c.Bot().Send(c.Recipient(), text, opts)
	if err != nil {
		h.logger.Errorf("Failed to send message: %v", err)
	}
	return err
}

// editOrSend replaces the text of the message a callback came from, or sends a new one
func (h *BaseHandler) editOrSend(c telebot.Context, text string, markup *telebot.ReplyMarkup) error {
	if c.Callback() == nil || c.Callback().Message == nil {
		return h.sendTextMessage(c, text, markup)
	}

	opts := &telebot.SendOptions{ParseMode: telebot.ModeHTML}
	if markup != nil {
		opts.ReplyMarkup = markup
	}
	if _, err := c.Bot().Edit(c.Callback(), text, opts); err != nil {
		h.logger.Warnf("Failed to edit message, sending a new one: %v", err)
		return h.sendTextMessage(c, text, markup)
	}
	return nil
}

// respond answers a callback query with a short notification
func (h *BaseHandler) respond(c telebot.Context, text string) {
	if c.Callback() == nil {
		return
	}
	if err := c.Respond(&telebot.CallbackResponse{Text: text}); err != nil {
		h.logger.Debugf("Failed to answer callback: %v", err)
	}
}

// sendQRCode sends a QR code for the given link
func (h *BaseHandler) sendQRCode(c telebot.Context, link string) error {
	qrBytes, err := h.qrService.GenerateQR(link)
	if err != nil {
		h.logger.Errorf("Failed to generate QR code: %v", err)
		return err
	}

	photo := &telebot.Photo{File: telebot.FromReader(bytes.NewReader(qrBytes))}

	_, err = c.Bot().Send(c.Recipient(), photo)
	if err != nil {
		h.logger.Errorf("Failed to send QR code: %v", err)
	}
	return err
}

// createMainKeyboard creates the main menu keyboard
func (h *BaseHandler) createMainKeyboard() *telebot.ReplyMarkup {
	markup := &telebot.ReplyMarkup{
		ResizeKeyboard: true,
	}

	markup.Reply(
		telebot.Row{
			telebot.Btn{Text: commands.GenerateKey},
			telebot.Btn{Text: commands.MyKeys},
		},
		telebot.Row{
			telebot.Btn{Text: commands.AccountStatus},
			telebot.Btn{Text: commands.UpgradePremium},
		},
		telebot.Row{
			telebot.Btn{Text: commands.RedeemCode},
		},
	)

	return markup
}

// inlineMarkup wraps inline button rows into a markup
func inlineMarkup(rows [][]telebot.InlineButton) *telebot.ReplyMarkup {
	return &telebot.ReplyMarkup{InlineKeyboard: rows}
}

// commandArgs returns the words following the command
func commandArgs(c telebot.Context) []string {
	fields := strings.Fields(c.Text())
	if len(fields) < 2 {
		return nil
	}
	return fields[1:]
}

// commandName returns the command word without a bot mention
func commandName(text string) string {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return ""
	}
	name, _, _ := strings.Cut(fields[0], "@")
	return name
}
