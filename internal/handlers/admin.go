package handlers

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	telebot "gopkg.in/telebot.v3"

	"wg-vpn-service/internal/commands"
	"wg-vpn-service/internal/config"
	"wg-vpn-service/internal/constants"
	"wg-vpn-service/internal/models"
	"wg-vpn-service/internal/permissions"
)

// AdminHandler extends the member handler with payment and user management
type AdminHandler struct {
	MemberHandler
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(svcs Services, config *config.Config, logger *logrus.Logger) *AdminHandler {
	handler := &AdminHandler{
		MemberHandler: *NewMemberHandler(svcs, config, logger),
	}

	handler.initializeAdminCommands()
	return handler
}

// CanHandle checks if the handler can handle the given access type
func (h *AdminHandler) CanHandle(accessType permissions.AccessType) bool {
	return accessType == permissions.Admin
}

// Handle handles an update from Telegram
func (h *AdminHandler) Handle(ctx context.Context, c telebot.Context) error {
	if c.Callback() != nil {
		return h.handleCallback(c)
	}
	if msg := c.Message(); msg != nil && msg.Payment != nil {
		return h.handleSuccessfulPayment(c)
	}

	userState, err := h.stateService.GetState(c.Sender().ID)
	if err != nil {
		h.logger.Errorf("Failed to get user state: %v", err)
		return err
	}

	switch userState.State {
	case models.Default:
		return h.handleDefaultState(c)
	case models.AwaitingCheckSubscriptionID:
		return h.processCheckSubscription(c)
	case models.AwaitingConfirmPayment:
		return h.processConfirmPayment(c)
	case models.AwaitingBlockUserID:
		return h.processSetBlocked(c, true)
	case models.AwaitingUnblockUserID:
		return h.processSetBlocked(c, false)
	default:
		h.logger.Warnf("Unknown state: %d", userState.State)
		return h.handleDefaultState(c)
	}
}

// initializeAdminCommands adds the admin commands on top of the member ones
func (h *AdminHandler) initializeAdminCommands() {
	h.commandHandlers[commands.AdminMenu] = h.handleAdminMenu
	h.commandHandlers[commands.AdminPlans] = h.handleAdminPlans
	h.commandHandlers[commands.AdminPayments] = h.handleAdminPayments
	h.commandHandlers[commands.AdminCheckSub] = h.handleAdminCheckSub
	h.commandHandlers[commands.AdminConfirmPayment] = h.handleAdminConfirmPayment
	h.commandHandlers[commands.AdminLastPayment] = h.handleAdminLastPayment
	h.commandHandlers[commands.AdminBlockUser] = h.handleAdminBlockUser
	h.commandHandlers[commands.AdminUnblockUser] = h.handleAdminUnblockUser
	h.commandHandlers[commands.Cancel] = h.handleStart
}

// handleAdminMenu shows the admin submenu
func (h *AdminHandler) handleAdminMenu(c telebot.Context) error {
	markup := &telebot.ReplyMarkup{ResizeKeyboard: true}
	markup.Reply(
		telebot.Row{
			telebot.Btn{Text: commands.AdminPlans},
			telebot.Btn{Text: commands.AdminPayments},
		},
		telebot.Row{
			telebot.Btn{Text: commands.AdminCheckSub},
			telebot.Btn{Text: commands.AdminConfirmPayment},
		},
		telebot.Row{
			telebot.Btn{Text: commands.AdminLastPayment},
		},
		telebot.Row{
			telebot.Btn{Text: commands.AdminBlockUser},
			telebot.Btn{Text: commands.AdminUnblockUser},
		},
		telebot.Row{
			telebot.Btn{Text: commands.ReturnToMainMenu},
		},
	)
	return h.sendTextMessage(c, "🛡 <b>Admin panel</b>", markup)
}

// handleAdminPlans lists all active plans with codes and prices
func (h *AdminHandler) handleAdminPlans(c telebot.Context) error {
	plans, err := h.backend.ActivePlans(context.Background())
	if err != nil {
		h.logger.Errorf("Failed to list plans: %v", err)
		return h.sendTextMessage(c, h.errorText(err), nil)
	}

	var sb strings.Builder
	sb.WriteString("🧾 <b>Active plans</b>\n")
	for _, plan := range plans {
		sb.WriteString(fmt.Sprintf("\n<code>%s</code> — %s, %d days, %d ⭐",
			plan.Code, plan.Name, plan.DurationDays, plan.PriceStars))
		if plan.IsTrial {
			sb.WriteString(" (trial)")
		}
	}
	return h.sendTextMessage(c, sb.String(), h.createReturnKeyboard())
}

// handleAdminPayments lists the newest payments
func (h *AdminHandler) handleAdminPayments(c telebot.Context) error {
	payments, err := h.backend.RecentPayments(context.Background(), constants.DefaultPaymentsLimit)
	if err != nil {
		h.logger.Errorf("Failed to list payments: %v", err)
		return h.sendTextMessage(c, h.errorText(err), nil)
	}

	if len(payments) == 0 {
		return h.sendTextMessage(c, "No payments recorded yet.", h.createReturnKeyboard())
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("💳 <b>Last %d payments</b>\n", len(payments)))
	for _, p := range payments {
		sb.WriteString(fmt.Sprintf("\n#%d user <code>%d</code>: %d %s, %s\n<code>%s</code>",
			p.ID, p.TelegramID, p.Amount, p.Currency,
			p.CreatedAt.UTC().Format(constants.TimestampFormat), p.TelegramChargeID))
	}
	return h.sendTextMessage(c, sb.String(), h.createReturnKeyboard())
}

// handleAdminCheckSub asks for a Telegram ID to look up
func (h *AdminHandler) handleAdminCheckSub(c telebot.Context) error {
	if err := h.stateService.WithConversationState(c.Sender().ID, models.AwaitingCheckSubscriptionID); err != nil {
		return err
	}
	return h.sendTextMessage(c, "Send the Telegram ID to check:", h.createReturnKeyboard())
}

// processCheckSubscription looks up a user's status and payment history
func (h *AdminHandler) processCheckSubscription(c telebot.Context) error {
	defer h.clearState(c)

	if c.Text() == commands.ReturnToMainMenu || c.Text() == commands.Cancel {
		return h.handleStart(c)
	}

	telegramID, err := h.validator.ParseTelegramID(c.Text())
	if err != nil {
		return h.sendTextMessage(c, "That doesn't look like a Telegram ID.", h.createReturnKeyboard())
	}

	status, err := h.backend.SubscriptionStatus(context.Background(), telegramID)
	if err != nil {
		h.logger.Errorf("Failed to check subscription for %d: %v", telegramID, err)
		return h.sendTextMessage(c, h.errorText(err), h.createReturnKeyboard())
	}

	text := fmt.Sprintf("User <code>%d</code>\n\n%s", telegramID, renderStatus(status))

	if payments, err := h.backend.UserPayments(context.Background(), telegramID, 5); err == nil && len(payments) > 0 {
		text += "\n\nRecent payments:"
		for _, p := range payments {
			text += fmt.Sprintf("\n#%d: %d %s, %s", p.ID, p.Amount, p.Currency,
				p.CreatedAt.UTC().Format(constants.DateFormat))
		}
	}
	return h.sendTextMessage(c, text, h.createReturnKeyboard())
}

// handleAdminConfirmPayment asks for a manual confirmation line
func (h *AdminHandler) handleAdminConfirmPayment(c telebot.Context) error {
	if err := h.stateService.WithConversationState(c.Sender().ID, models.AwaitingConfirmPayment); err != nil {
		return err
	}
	return h.sendTextMessage(c,
		"Send the payment as\n<code>telegram_id|payload|charge_id|provider_charge_id|amount</code>",
		h.createReturnKeyboard())
}

// processConfirmPayment replays a Stars confirmation against the backend
func (h *AdminHandler) processConfirmPayment(c telebot.Context) error {
	defer h.clearState(c)

	if c.Text() == commands.ReturnToMainMenu || c.Text() == commands.Cancel {
		return h.handleStart(c)
	}

	parts := strings.Split(strings.TrimSpace(c.Text()), "|")
	if len(parts) != 5 {
		return h.sendTextMessage(c, "Expected 5 fields separated by |.", h.createReturnKeyboard())
	}

	telegramID, err := h.validator.ParseTelegramID(parts[0])
	if err != nil {
		return h.sendTextMessage(c, "Invalid telegram_id field.", h.createReturnKeyboard())
	}
	amount, err := strconv.Atoi(strings.TrimSpace(parts[4]))
	if err != nil || amount < 0 {
		return h.sendTextMessage(c, "Invalid amount field.", h.createReturnKeyboard())
	}

	confirmation, err := h.backend.ConfirmStarsPayment(context.Background(), models.StarsPayment{
		TelegramID:       telegramID,
		Currency:         constants.StarsCurrency,
		Amount:           amount,
		InvoicePayload:   strings.TrimSpace(parts[1]),
		TelegramChargeID: strings.TrimSpace(parts[2]),
		ProviderChargeID: strings.TrimSpace(parts[3]),
		ReceivedAt:       time.Now().UTC(),
	})
	if err != nil {
		h.logger.Errorf("Manual confirmation failed: %v", err)
		return h.sendTextMessage(c, h.errorText(err), h.createReturnKeyboard())
	}

	text := fmt.Sprintf("✅ %s\nPayment #%d", confirmation.Message, confirmation.PaymentID)
	if confirmation.ActiveUntil != nil {
		text += fmt.Sprintf("\nActive until %s UTC", confirmation.ActiveUntil.UTC().Format(constants.TimestampFormat))
	}
	return h.sendTextMessage(c, text, h.createReturnKeyboard())
}

// handleAdminLastPayment shows the last payment the bot saw, with a
// ready-to-paste manual confirmation line
func (h *AdminHandler) handleAdminLastPayment(c telebot.Context) error {
	payment, ok := h.lastPayment.Get()
	if !ok {
		return h.sendTextMessage(c, "No payments received since the bot started.", h.createReturnKeyboard())
	}

	text := fmt.Sprintf("🕘 <b>Last payment</b>\nUser: <code>%d</code>\nAmount: %d %s\nReceived: %s UTC\n\n"+
		"<code>%d|%s|%s|%s|%d</code>",
		payment.TelegramID, payment.Amount, payment.Currency,
		payment.ReceivedAt.Format(constants.TimestampFormat),
		payment.TelegramID, payment.InvoicePayload, payment.TelegramChargeID,
		payment.ProviderChargeID, payment.Amount)
	return h.sendTextMessage(c, text, h.createReturnKeyboard())
}

// handleAdminBlockUser asks for a Telegram ID to block
func (h *AdminHandler) handleAdminBlockUser(c telebot.Context) error {
	if err := h.stateService.WithConversationState(c.Sender().ID, models.AwaitingBlockUserID); err != nil {
		return err
	}
	return h.sendTextMessage(c, "Send the Telegram ID to block:", h.createReturnKeyboard())
}

// handleAdminUnblockUser asks for a Telegram ID to unblock
func (h *AdminHandler) handleAdminUnblockUser(c telebot.Context) error {
	if err := h.stateService.WithConversationState(c.Sender().ID, models.AwaitingUnblockUserID); err != nil {
		return err
	}
	return h.sendTextMessage(c, "Send the Telegram ID to unblock:", h.createReturnKeyboard())
}

// processSetBlocked applies a block or unblock
func (h *AdminHandler) processSetBlocked(c telebot.Context, blocked bool) error {
	defer h.clearState(c)

	if c.Text() == commands.ReturnToMainMenu || c.Text() == commands.Cancel {
		return h.handleStart(c)
	}

	telegramID, err := h.validator.ParseTelegramID(c.Text())
	if err != nil {
		return h.sendTextMessage(c, "That doesn't look like a Telegram ID.", h.createReturnKeyboard())
	}

	if err := h.backend.SetUserBlocked(context.Background(), telegramID, blocked); err != nil {
		h.logger.Errorf("Failed to set blocked=%t for %d: %v", blocked, telegramID, err)
		return h.sendTextMessage(c, h.errorText(err), h.createReturnKeyboard())
	}

	action := "unblocked"
	if blocked {
		action = "blocked"
	}
	return h.sendTextMessage(c, fmt.Sprintf("User <code>%d</code> %s.", telegramID, action), h.createReturnKeyboard())
}

func (h *AdminHandler) clearState(c telebot.Context) {
	if err := h.stateService.ClearState(c.Sender().ID); err != nil {
		h.logger.Errorf("Failed to clear user state: %v", err)
	}
}
