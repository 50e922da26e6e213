package handlers

import (
	"bytes"
	"strings"

	"github.com/sirupsen/logrus"
	telebot "gopkg.in/telebot.v3"

	"wg-vpn-service/internal/commands"
	"wg-vpn-service/internal/config"
	"wg-vpn-service/internal/models"
	"wg-vpn-service/internal/permissions"
	"wg-vpn-service/internal/services"
	"wg-vpn-service/pkg/backendclient"
)

// BaseHandler provides common functionality for all handlers
type BaseHandler struct {
	backend      *backendclient.Client
	stateService *services.UserStateService
	qrService    *services.QRService
	tokenService *services.CallbackTokenService
	lastPayment  *services.LastPaymentService
	validator    *services.TextValidator
	config       *config.Config
	logger       *logrus.Logger
}

// Services bundles the bot-side services the handlers share
type Services struct {
	Backend     *backendclient.Client
	State       *services.UserStateService
	QR          *services.QRService
	Tokens      *services.CallbackTokenService
	LastPayment *services.LastPaymentService
	Validator   *services.TextValidator
}

// NewBaseHandler creates a new base handler
func NewBaseHandler(svcs Services, config *config.Config, logger *logrus.Logger) BaseHandler {
	return BaseHandler{
		backend:      svcs.Backend,
		stateService: svcs.State,
		qrService:    svcs.QR,
		tokenService: svcs.Tokens,
		lastPayment:  svcs.LastPayment,
		validator:    svcs.Validator,
		config:       config,
		logger:       logger,
	}
}

// CanHandle checks if the handler can handle the given access type
func (h *BaseHandler) CanHandle(accessType permissions.AccessType) bool {
	// Base handler can't handle any access type directly
	return false
}

// sendTextMessage sends a text message with optional markup
func (h *BaseHandler) sendTextMessage(c telebot.Context, text string, markup *telebot.ReplyMarkup) error {
	opts := &telebot.SendOptions{
		ParseMode: telebot.ModeHTML,
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

// sendConfigDocument sends a WireGuard config as a .conf attachment, falling
// back to monospaced text when the upload fails
func (h *BaseHandler) sendConfigDocument(c telebot.Context, clientName, conf string) error {
	doc := &telebot.Document{
		File:     telebot.FromReader(strings.NewReader(conf)),
		FileName: h.validator.SafeFileName(clientName),
		Caption:  clientName,
	}

	if _, err := c.Bot().Send(c.Recipient(), doc); err != nil {
		h.logger.Errorf("Failed to send config document: %v", err)
		return h.sendTextMessage(c, "<pre>"+conf+"</pre>", nil)
	}
	return nil
}

// sendConfigQR renders the config as a QR code photo
func (h *BaseHandler) sendConfigQR(c telebot.Context, clientName, conf string) error {
	qrBytes, err := h.qrService.GenerateQR(conf)
	if err != nil {
		h.logger.Errorf("Failed to generate QR code: %v", err)
		return h.sendTextMessage(c, "Failed to generate QR code, use the .conf file instead.", nil)
	}

	photo := &telebot.Photo{
		File:    telebot.FromReader(bytes.NewReader(qrBytes)),
		Caption: clientName,
	}
	if _, err := c.Bot().Send(c.Recipient(), photo); err != nil {
		h.logger.Errorf("Failed to send QR code: %v", err)
	}
	return nil
}

// createMainKeyboard creates the main keyboard for the given access type
func (h *BaseHandler) createMainKeyboard(accessType permissions.AccessType) *telebot.ReplyMarkup {
	markup := &telebot.ReplyMarkup{
		ResizeKeyboard: true,
	}

	rows := []telebot.Row{
		{
			telebot.Btn{Text: commands.SubscriptionStatus},
			telebot.Btn{Text: commands.ActivateTrial},
		},
		{
			telebot.Btn{Text: commands.WireGuardConfigs},
			telebot.Btn{Text: commands.MyDevices},
		},
		{
			telebot.Btn{Text: commands.BuySubscription},
			telebot.Btn{Text: commands.ConnectionGuide},
		},
		{
			telebot.Btn{Text: commands.About},
		},
	}

	if accessType == permissions.Admin {
		rows = append(rows, telebot.Row{
			telebot.Btn{Text: commands.AdminMenu},
		})
	}

	markup.Reply(rows...)
	return markup
}

// createReturnKeyboard creates a keyboard with a return button
func (h *BaseHandler) createReturnKeyboard() *telebot.ReplyMarkup {
	markup := &telebot.ReplyMarkup{
		ResizeKeyboard: true,
	}

	markup.Reply(
		telebot.Row{
			telebot.Btn{Text: commands.ReturnToMainMenu},
		},
	)

	return markup
}

// profileFromSender builds the backend registration payload from the update
func (h *BaseHandler) profileFromSender(c telebot.Context) models.TelegramProfile {
	sender := c.Sender()
	profile := models.TelegramProfile{TelegramID: sender.ID}
	if sender.Username != "" {
		profile.Username = &sender.Username
	}
	if sender.FirstName != "" {
		profile.FirstName = &sender.FirstName
	}
	if sender.LastName != "" {
		profile.LastName = &sender.LastName
	}
	if sender.LanguageCode != "" {
		profile.LanguageCode = &sender.LanguageCode
	}
	return profile
}
