package handlers

import (
	"context"

	"github.com/sirupsen/logrus"
	telebot "gopkg.in/telebot.v3"

	"xui-keys-bot/internal/config"
	"xui-keys-bot/internal/permissions"
)

// MessageHandler defines the interface for handling Telegram messages
type MessageHandler interface {
	Handle(ctx context.Context, c telebot.Context) error
	CanHandle(accessType permissions.AccessType) bool
}

// HandlerFactory creates message handlers
type HandlerFactory struct {
	deps   Dependencies
	config *config.Config
	logger *logrus.Logger
}

// NewHandlerFactory creates a new handler factory
func NewHandlerFactory(deps Dependencies, config *config.Config, logger *logrus.Logger) *HandlerFactory {
	return &HandlerFactory{
		deps:   deps,
		config: config,
		logger: logger,
	}
}

// CreateHandler creates a message handler for the given access type
func (f *HandlerFactory) CreateHandler(accessType permissions.AccessType) MessageHandler {
	switch accessType {
	case permissions.Admin:
		return NewAdminHandler(f.deps, f.config, f.logger)
	case permissions.User:
		return NewUserHandler(f.deps, f.config, f.logger)
	default:
		f.logger.Warnf("No dedicated handler for access type %d, using the user handler", accessType)
		return NewUserHandler(f.deps, f.config, f.logger)
	}
}
