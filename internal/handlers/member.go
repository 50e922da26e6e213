package handlers

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
	telebot "gopkg.in/telebot.v3"

	"wg-vpn-service/internal/commands"
	"wg-vpn-service/internal/config"
	"wg-vpn-service/internal/constants"
	apperrors "wg-vpn-service/internal/errors"
	"wg-vpn-service/internal/models"
	"wg-vpn-service/internal/permissions"
)

// MemberHandler handles commands available to every user
type MemberHandler struct {
	BaseHandler
	commandHandlers map[string]func(telebot.Context) error
}

// NewMemberHandler creates a new member handler
func NewMemberHandler(svcs Services, config *config.Config, logger *logrus.Logger) *MemberHandler {
	handler := &MemberHandler{
		BaseHandler: NewBaseHandler(svcs, config, logger),
	}

	handler.initializeCommands()
	return handler
}

// CanHandle checks if the handler can handle the given access type
func (h *MemberHandler) CanHandle(accessType permissions.AccessType) bool {
	return accessType == permissions.Member
}

// Handle handles an update from Telegram
func (h *MemberHandler) Handle(ctx context.Context, c telebot.Context) error {
	if c.Callback() != nil {
		return h.handleCallback(c)
	}
	if msg := c.Message(); msg != nil && msg.Payment != nil {
		return h.handleSuccessfulPayment(c)
	}

	state, err := h.stateService.GetState(c.Sender().ID)
	if err != nil {
		h.logger.Errorf("Failed to get user state: %v", err)
		return err
	}

	switch state.State {
	case models.Default:
		return h.handleDefaultState(c)
	default:
		h.logger.Warnf("Unknown state: %d", state.State)
		return h.handleDefaultState(c)
	}
}

// initializeCommands initializes the command handlers
func (h *MemberHandler) initializeCommands() {
	h.commandHandlers = map[string]func(telebot.Context) error{
		commands.Start:              h.handleStart,
		commands.Help:               h.handleHelp,
		commands.Guide:              h.handleGuide,
		commands.SubscriptionStatus: h.handleStatus,
		commands.ActivateTrial:      h.handleTrial,
		commands.WireGuardConfigs:   h.handleConfigs,
		commands.MyDevices:          h.handleDevices,
		commands.ConnectionGuide:    h.handleGuide,
		commands.BuySubscription:    h.handleBuy,
		commands.About:              h.handleAbout,
		commands.ReturnToMainMenu:   h.handleStart,
	}
}

// handleDefaultState handles the default state
func (h *MemberHandler) handleDefaultState(c telebot.Context) error {
	if handler, ok := h.commandHandlers[c.Text()]; ok {
		return handler(c)
	}

	// Unknown text falls through to the main menu
	return h.handleStart(c)
}

// handleStart registers the user and shows the main menu
func (h *MemberHandler) handleStart(c telebot.Context) error {
	if err := h.stateService.ClearState(c.Sender().ID); err != nil {
		h.logger.Errorf("Failed to clear user state: %v", err)
	}

	result, err := h.backend.RegisterUser(context.Background(), h.profileFromSender(c))
	if err != nil {
		h.logger.Errorf("Failed to register user: %v", err)
		return h.sendTextMessage(c, h.errorText(err), nil)
	}

	greeting := "Welcome to the WireGuard VPN bot!"
	if !result.IsNew {
		greeting = "Welcome back!"
	}
	text := greeting + "\n\n" + renderStatus(&models.SubscriptionStatus{
		HasActiveSubscription: result.HasActiveSubscription,
		IsTrialActive:         result.IsTrialActive,
		ActivePlanName:        result.ActivePlanName,
		SubscriptionEndsAt:    result.SubscriptionEndsAt,
		TrialAvailable:        result.TrialAvailable,
	})

	markup := h.createMainKeyboard(h.accessTypeOf(c.Sender().ID))
	return h.sendTextMessage(c, text, markup)
}

// handleStatus shows the subscription status block
func (h *MemberHandler) handleStatus(c telebot.Context) error {
	status, err := h.backend.SubscriptionStatus(context.Background(), c.Sender().ID)
	if err != nil {
		h.logger.Errorf("Failed to get subscription status: %v", err)
		return h.sendTextMessage(c, h.errorText(err), nil)
	}
	return h.sendTextMessage(c, renderStatus(status), h.createReturnKeyboard())
}

// handleTrial activates the free trial
func (h *MemberHandler) handleTrial(c telebot.Context) error {
	activation, err := h.backend.ActivateTrial(context.Background(), c.Sender().ID)
	if err != nil {
		h.logger.Errorf("Failed to activate trial: %v", err)
		return h.sendTextMessage(c, h.errorText(err), nil)
	}

	if !activation.Success {
		return h.sendTextMessage(c, fmt.Sprintf("Trial is not available: %s.", activation.Reason), h.createReturnKeyboard())
	}

	text := "🎁 Trial activated!"
	if activation.TrialEndsAt != nil {
		text = fmt.Sprintf("🎁 Trial activated until <b>%s</b>.\nGrab a config via %s.",
			activation.TrialEndsAt.Format(constants.TimestampFormat), commands.WireGuardConfigs)
	}
	return h.sendTextMessage(c, text, h.createReturnKeyboard())
}

// handleHelp lists the available commands
func (h *MemberHandler) handleHelp(c telebot.Context) error {
	text := "Available commands:\n" +
		commands.SubscriptionStatus + " — your current plan and expiry\n" +
		commands.ActivateTrial + " — free " + fmt.Sprintf("%d", constants.TrialDays) + "-day trial, once per account\n" +
		commands.WireGuardConfigs + " — download configs and QR codes\n" +
		commands.MyDevices + " — list and revoke devices\n" +
		commands.BuySubscription + " — pay with Telegram Stars\n" +
		commands.ConnectionGuide + " — how to connect"
	return h.sendTextMessage(c, text, h.createReturnKeyboard())
}

// handleGuide shows the WireGuard connection guide
func (h *MemberHandler) handleGuide(c telebot.Context) error {
	text := "📖 <b>How to connect</b>\n\n" +
		"1. Install the official WireGuard app for your platform.\n" +
		"2. Get a config via " + commands.WireGuardConfigs + ".\n" +
		"3. Import the .conf file, or scan the QR code from the app.\n" +
		"4. Toggle the tunnel on. That's it."
	return h.sendTextMessage(c, text, h.createReturnKeyboard())
}

// handleAbout shows service info
func (h *MemberHandler) handleAbout(c telebot.Context) error {
	text := "WireGuard VPN service.\n" +
		"Subscriptions are paid with Telegram Stars, configs are provisioned instantly.\n" +
		"New accounts get a free " + fmt.Sprintf("%d", constants.TrialDays) + "-day trial."
	return h.sendTextMessage(c, text, h.createReturnKeyboard())
}

// errorText turns a backend error into something presentable
func (h *MemberHandler) errorText(err error) string {
	var apiErr *apperrors.BackendAPIError
	if errors.As(err, &apiErr) {
		return "⚠️ " + apiErr.Detail
	}
	return "⚠️ Something went wrong, please try again later."
}

// accessTypeOf resolves the keyboard flavor for a user
func (h *MemberHandler) accessTypeOf(userID int64) permissions.AccessType {
	for _, id := range h.config.Telegram.AdminIDs {
		if id == userID {
			return permissions.Admin
		}
	}
	return permissions.Member
}

// renderStatus formats the subscription status block
func renderStatus(status *models.SubscriptionStatus) string {
	if !status.HasActiveSubscription {
		text := "📊 You have no active subscription."
		if status.TrialAvailable {
			text += "\n🎁 A free trial is waiting for you: " + commands.ActivateTrial
		} else {
			text += "\n⭐ Get one via " + commands.BuySubscription
		}
		return text
	}

	text := "📊 Subscription: <b>active</b>"
	if status.IsTrialActive {
		text = "📊 Subscription: <b>trial</b>"
	}
	if status.ActivePlanName != nil {
		text += fmt.Sprintf("\nPlan: %s", *status.ActivePlanName)
	}
	if status.SubscriptionEndsAt != nil {
		text += fmt.Sprintf("\nValid until: %s UTC", status.SubscriptionEndsAt.UTC().Format(constants.TimestampFormat))
	}
	return text
}
