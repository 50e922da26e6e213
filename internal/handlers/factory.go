package handlers

import (
	"context"

	"github.com/sirupsen/logrus"
	telebot "gopkg.in/telebot.v3"

	"wg-vpn-service/internal/config"
	"wg-vpn-service/internal/permissions"
)

// MessageHandler defines the interface for handling Telegram messages
type MessageHandler interface {
	Handle(ctx context.Context, c telebot.Context) error
	CanHandle(accessType permissions.AccessType) bool
}

// HandlerFactory creates message handlers
type HandlerFactory struct {
	services Services
	config   *config.Config
	logger   *logrus.Logger
}

// NewHandlerFactory creates a new handler factory
func NewHandlerFactory(services Services, config *config.Config, logger *logrus.Logger) *HandlerFactory {
	return &HandlerFactory{
		services: services,
		config:   config,
		logger:   logger,
	}
}

// CreateHandler creates a message handler for the given access type
func (f *HandlerFactory) CreateHandler(accessType permissions.AccessType) MessageHandler {
	switch accessType {
	case permissions.Admin:
		return NewAdminHandler(f.services, f.config, f.logger)
	default:
		return NewMemberHandler(f.services, f.config, f.logger)
	}
}
