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

// SubscriptionService answers status questions and grants trials
type SubscriptionService struct {
	users  UserRepository
	plans  PlanRepository
	subs   SubscriptionRepository
	logger *logrus.Logger
}

// TrialGrant is the outcome of a successful trial activation
type TrialGrant struct {
	Subscription *models.Subscription
	Plan         *models.SubscriptionPlan
}

// NewSubscriptionService creates a new SubscriptionService
func NewSubscriptionService(users UserRepository, plans PlanRepository, subs SubscriptionRepository, logger *logrus.Logger) *SubscriptionService {
	return &SubscriptionService{users: users, plans: plans, subs: subs, logger: logger}
}

// Status returns the aggregate subscription view for a Telegram user
func (s *SubscriptionService) Status(ctx context.Context, telegramID int64) (*models.SubscriptionStatus, error) {
	user, err := resolveUser(ctx, s.users, telegramID)
	if err != nil {
		return nil, err
	}
	return s.StatusForUser(ctx, user)
}

// StatusForUser builds the status block for an already-resolved user
func (s *SubscriptionService) StatusForUser(ctx context.Context, user *models.User) (*models.SubscriptionStatus, error) {
	status := &models.SubscriptionStatus{}

	hadTrial, err := s.subs.HasTrialSubscription(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	status.TrialAvailable = !hadTrial

	sub, err := s.subs.GetActiveSubscription(ctx, user.ID, time.Now().UTC())
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return status, nil
		}
		return nil, err
	}

	status.HasActiveSubscription = true
	status.IsTrialActive = sub.IsTrial
	status.SubscriptionEndsAt = &sub.EndsAt

	plan, err := s.plans.GetPlanByID(ctx, sub.PlanID)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			return nil, err
		}
	} else {
		status.ActivePlanName = &plan.Name
	}
	return status, nil
}

// ActivateTrial grants the trial subscription once per user
func (s *SubscriptionService) ActivateTrial(ctx context.Context, telegramID int64) (*TrialGrant, error) {
	user, err := resolveUser(ctx, s.users, telegramID)
	if err != nil {
		return nil, err
	}

	hadTrial, err := s.subs.HasTrialSubscription(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	if hadTrial {
		return nil, ErrTrialAlreadyUsed
	}

	if _, err := s.subs.GetActiveSubscription(ctx, user.ID, time.Now().UTC()); err == nil {
		return nil, ErrActiveSubscriptionExists
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	plan, err := s.ensureTrialPlan(ctx)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	sub := &models.Subscription{
		UserID:   user.ID,
		PlanID:   plan.ID,
		StartsAt: now,
		EndsAt:   now.AddDate(0, 0, plan.DurationDays),
		IsActive: true,
		IsTrial:  true,
		Source:   models.SubscriptionSourceTrial,
	}
	if err := s.subs.CreateSubscription(ctx, sub); err != nil {
		return nil, fmt.Errorf("failed to create trial subscription: %w", err)
	}

	s.logger.Infof("Trial activated for user %d until %s", telegramID, sub.EndsAt.Format(constants.TimestampFormat))
	return &TrialGrant{Subscription: sub, Plan: plan}, nil
}

// ActivePlans lists plans available for display and purchase
func (s *SubscriptionService) ActivePlans(ctx context.Context) ([]models.SubscriptionPlan, error) {
	return s.plans.ListActivePlans(ctx)
}

// ensureTrialPlan returns the trial plan, creating it when the seed is missing
func (s *SubscriptionService) ensureTrialPlan(ctx context.Context) (*models.SubscriptionPlan, error) {
	plan, err := s.plans.GetPlanByCode(ctx, constants.TrialPlanCode)
	if err == nil {
		return plan, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	plan = &models.SubscriptionPlan{
		Code:         constants.TrialPlanCode,
		Name:         constants.TrialPlanName,
		DurationDays: constants.TrialDays,
		PriceStars:   0,
		IsTrial:      true,
		IsActive:     true,
	}
	if err := s.plans.CreatePlan(ctx, plan); err != nil {
		return nil, fmt.Errorf("failed to create trial plan: %w", err)
	}
	return plan, nil
}
