package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"wg-vpn-service/internal/constants"
	"wg-vpn-service/internal/models"
	"wg-vpn-service/internal/repository"
)

// PaymentService confirms Telegram Stars payments and lists recorded ones
type PaymentService struct {
	users    UserRepository
	plans    PlanRepository
	subs     SubscriptionRepository
	payments PaymentRepository
	logger   *logrus.Logger
}

// StarsConfirmRequest is a successful-payment notification from the bot or an
// admin replay
type StarsConfirmRequest struct {
	TelegramID       int64  `json:"telegram_id"`
	Currency         string `json:"currency"`
	Amount           int    `json:"amount"`
	InvoicePayload   string `json:"invoice_payload"`
	TelegramChargeID string `json:"telegram_payment_charge_id"`
	ProviderChargeID string `json:"provider_payment_charge_id"`
}

// StarsConfirmResult reports what the confirmation did
type StarsConfirmResult struct {
	Ok               bool       `json:"ok"`
	Message          string     `json:"message"`
	AlreadyConfirmed bool       `json:"already_confirmed"`
	TelegramID       int64      `json:"telegram_id"`
	PaymentID        int64      `json:"payment_id"`
	SubscriptionID   *int64     `json:"subscription_id,omitempty"`
	ActiveUntil      *time.Time `json:"active_until,omitempty"`
	PlanCode         string     `json:"plan_code,omitempty"`
	PlanName         string     `json:"plan_name,omitempty"`
}

// NewPaymentService creates a new PaymentService
func NewPaymentService(users UserRepository, plans PlanRepository, subs SubscriptionRepository, payments PaymentRepository, logger *logrus.Logger) *PaymentService {
	return &PaymentService{users: users, plans: plans, subs: subs, payments: payments, logger: logger}
}

// ConfirmStars records a Stars payment and activates the purchased plan.
// Confirmation is idempotent on the Telegram charge id: a replay returns the
// stored outcome without touching subscriptions again.
func (s *PaymentService) ConfirmStars(ctx context.Context, req StarsConfirmRequest) (*StarsConfirmResult, error) {
	if req.TelegramChargeID == "" {
		return nil, errors.New("telegram_payment_charge_id is required")
	}

	if existing, err := s.payments.GetPaymentByChargeID(ctx, req.TelegramChargeID); err == nil {
		return s.replayResult(ctx, existing)
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	user, err := resolveUser(ctx, s.users, req.TelegramID)
	if err != nil {
		return nil, err
	}

	planCode, payloadTelegramID, err := ParseInvoicePayload(req.InvoicePayload)
	if err != nil {
		return nil, err
	}
	if payloadTelegramID != req.TelegramID {
		s.logger.Warnf("Payload Telegram ID %d does not match payer %d", payloadTelegramID, req.TelegramID)
		return nil, ErrBadPayload
	}

	plan, err := s.plans.GetPlanByCode(ctx, planCode)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrPlanNotFound
		}
		return nil, err
	}
	if !plan.IsActive {
		return nil, ErrPlanInactive
	}
	if req.Amount != plan.PriceStars {
		s.logger.Warnf("Stars amount %d does not match plan %s price %d", req.Amount, plan.Code, plan.PriceStars)
		return nil, ErrAmountMismatch
	}

	now := time.Now().UTC()
	sub := &models.Subscription{
		UserID:   user.ID,
		PlanID:   plan.ID,
		StartsAt: now,
		EndsAt:   now.AddDate(0, 0, plan.DurationDays),
		IsActive: true,
		IsTrial:  plan.IsTrial,
		Source:   models.SubscriptionSourceStars,
	}

	var providerChargeID *string
	if req.ProviderChargeID != "" {
		providerChargeID = &req.ProviderChargeID
	}
	payment := &models.Payment{
		UserID:           user.ID,
		PlanID:           &plan.ID,
		Provider:         constants.StarsProvider,
		TelegramID:       req.TelegramID,
		Currency:         req.Currency,
		Amount:           req.Amount,
		InvoicePayload:   req.InvoicePayload,
		TelegramChargeID: req.TelegramChargeID,
		ProviderChargeID: providerChargeID,
		Status:           constants.PaymentStatusPaid,
	}

	if err := s.subs.CreateSubscriptionWithPayment(ctx, sub, payment); err != nil {
		return nil, fmt.Errorf("failed to record stars payment: %w", err)
	}

	s.logger.Infof("Stars payment %s confirmed: user %d, plan %s, until %s",
		req.TelegramChargeID, req.TelegramID, plan.Code, sub.EndsAt.Format(constants.TimestampFormat))

	return &StarsConfirmResult{
		Ok:             true,
		Message:        "payment confirmed",
		TelegramID:     req.TelegramID,
		PaymentID:      payment.ID,
		SubscriptionID: &sub.ID,
		ActiveUntil:    &sub.EndsAt,
		PlanCode:       plan.Code,
		PlanName:       plan.Name,
	}, nil
}

// replayResult rebuilds the original confirmation answer from stored rows
func (s *PaymentService) replayResult(ctx context.Context, payment *models.Payment) (*StarsConfirmResult, error) {
	result := &StarsConfirmResult{
		Ok:               true,
		Message:          "payment already confirmed",
		AlreadyConfirmed: true,
		TelegramID:       payment.TelegramID,
		PaymentID:        payment.ID,
		SubscriptionID:   payment.SubscriptionID,
	}

	if payment.PlanID != nil {
		if plan, err := s.plans.GetPlanByID(ctx, *payment.PlanID); err == nil {
			result.PlanCode = plan.Code
			result.PlanName = plan.Name
		}
	}
	if payment.SubscriptionID != nil {
		if sub, err := s.subs.GetSubscriptionByID(ctx, *payment.SubscriptionID); err == nil {
			result.ActiveUntil = &sub.EndsAt
		}
	}
	return result, nil
}

// Recent lists the newest payments across all users, clamping the limit
func (s *PaymentService) Recent(ctx context.Context, limit int) ([]models.Payment, error) {
	if limit <= 0 {
		limit = constants.DefaultPaymentsLimit
	}
	if limit > constants.MaxPaymentsLimit {
		limit = constants.MaxPaymentsLimit
	}
	return s.payments.ListRecentPayments(ctx, limit)
}

// ForUser lists a user's newest payments, clamping the limit
func (s *PaymentService) ForUser(ctx context.Context, telegramID int64, limit int) ([]models.Payment, error) {
	if limit <= 0 {
		limit = constants.DefaultUserPaymentsLimit
	}
	if limit > constants.MaxUserPaymentsLimit {
		limit = constants.MaxUserPaymentsLimit
	}
	return s.payments.ListUserPayments(ctx, telegramID, limit)
}
