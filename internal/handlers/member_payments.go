package handlers

import (
	"context"
	"fmt"
	"time"

	telebot "gopkg.in/telebot.v3"

	"wg-vpn-service/internal/constants"
	"wg-vpn-service/internal/models"
	"wg-vpn-service/internal/service"
)

// handleBuy lists purchasable plans as inline buttons
func (h *MemberHandler) handleBuy(c telebot.Context) error {
	plans, err := h.backend.ActivePlans(context.Background())
	if err != nil {
		h.logger.Errorf("Failed to list plans: %v", err)
		return h.sendTextMessage(c, h.errorText(err), nil)
	}

	markup := &telebot.ReplyMarkup{}
	var rows [][]telebot.InlineButton
	for _, plan := range plans {
		if plan.IsTrial || plan.PriceStars <= 0 {
			continue
		}
		rows = append(rows, []telebot.InlineButton{{
			Text: fmt.Sprintf("%s — %d ⭐", plan.Name, plan.PriceStars),
			Data: cbBuyPrefix + plan.Code,
		}})
	}

	if len(rows) == 0 {
		return h.sendTextMessage(c, "No plans are on sale right now, check back later.", h.createReturnKeyboard())
	}
	markup.InlineKeyboard = rows

	return h.sendTextMessage(c, "⭐ <b>Choose a plan</b>\nPayments go through Telegram Stars.", markup)
}

// callbackBuy sends the Stars invoice for the chosen plan
func (h *MemberHandler) callbackBuy(c telebot.Context, planCode string) error {
	plans, err := h.backend.ActivePlans(context.Background())
	if err != nil {
		h.logger.Errorf("Failed to list plans: %v", err)
		return c.Respond(&telebot.CallbackResponse{Text: h.errorText(err), ShowAlert: true})
	}

	var plan *models.SubscriptionPlan
	for i := range plans {
		if plans[i].Code == planCode {
			plan = &plans[i]
			break
		}
	}
	if plan == nil || !plan.IsActive || plan.PriceStars <= 0 {
		return c.Respond(&telebot.CallbackResponse{Text: "This plan is no longer on sale.", ShowAlert: true})
	}

	if err := c.Respond(&telebot.CallbackResponse{}); err != nil {
		h.logger.Debugf("Callback respond failed: %v", err)
	}

	// Stars invoices carry the XTR currency and no provider token
	invoice := &telebot.Invoice{
		Title:       plan.Name,
		Description: fmt.Sprintf("WireGuard VPN access for %d days", plan.DurationDays),
		Payload:     service.BuildInvoicePayload(plan.Code, c.Sender().ID, time.Now().UTC()),
		Currency:    constants.StarsCurrency,
		Prices: []telebot.Price{
			{Label: plan.Name, Amount: plan.PriceStars},
		},
	}

	if err := c.Send(invoice); err != nil {
		h.logger.Errorf("Failed to send invoice: %v", err)
		return h.sendTextMessage(c, "⚠️ Could not create the invoice, try again later.", nil)
	}
	return nil
}

// handleSuccessfulPayment records the Stars payment and confirms it with the
// backend. The user is thanked either way; a failed confirmation stays
// available to admins through the last-payment store.
func (h *MemberHandler) handleSuccessfulPayment(c telebot.Context) error {
	payment := c.Message().Payment

	stars := models.StarsPayment{
		TelegramID:       c.Sender().ID,
		Currency:         payment.Currency,
		Amount:           payment.Total,
		InvoicePayload:   payment.Payload,
		TelegramChargeID: payment.TelegramChargeID,
		ProviderChargeID: payment.ProviderChargeID,
		ReceivedAt:       time.Now().UTC(),
	}
	h.lastPayment.Store(stars)

	h.logger.Infof("Received Stars payment %s from user %d (%d %s)",
		stars.TelegramChargeID, stars.TelegramID, stars.Amount, stars.Currency)

	confirmation, err := h.backend.ConfirmStarsPayment(context.Background(), stars)
	if err != nil {
		h.logger.Errorf("Failed to confirm payment %s: %v", stars.TelegramChargeID, err)
		return h.sendTextMessage(c,
			"⭐ Payment received! Activation is taking a moment, your subscription will appear shortly.",
			h.createMainKeyboard(h.accessTypeOf(c.Sender().ID)))
	}

	text := "⭐ Payment received, subscription activated!"
	if confirmation.PlanName != "" {
		text = fmt.Sprintf("⭐ Payment received!\nPlan: <b>%s</b>", confirmation.PlanName)
	}
	if confirmation.ActiveUntil != nil {
		text += fmt.Sprintf("\nValid until: %s UTC", confirmation.ActiveUntil.UTC().Format(constants.TimestampFormat))
	}
	return h.sendTextMessage(c, text, h.createMainKeyboard(h.accessTypeOf(c.Sender().ID)))
}
