package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"

	"wg-vpn-service/internal/models"
)

// GetActiveSubscription returns the user's latest subscription that is active
// and not yet expired
func (r *Repository) GetActiveSubscription(ctx context.Context, userID int64, now time.Time) (*models.Subscription, error) {
	query, args, err := squirrel.
		Select("*").
		From("subscriptions").
		Where(squirrel.Eq{"user_id": userID, "is_active": true}).
		Where(squirrel.Gt{"ends_at": now}).
		OrderBy("ends_at DESC").
		Limit(1).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build subscription select query: %w", err)
	}

	var sub models.Subscription
	if err := r.db.GetContext(ctx, &sub, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get active subscription: %w", err)
	}
	return &sub, nil
}

// GetSubscriptionByID returns the subscription with the given id
func (r *Repository) GetSubscriptionByID(ctx context.Context, id int64) (*models.Subscription, error) {
	query, args, err := squirrel.
		Select("*").
		From("subscriptions").
		Where(squirrel.Eq{"id": id}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build subscription select query: %w", err)
	}

	var sub models.Subscription
	if err := r.db.GetContext(ctx, &sub, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get subscription: %w", err)
	}
	return &sub, nil
}

// HasTrialSubscription reports whether the user ever had a trial, active or not
func (r *Repository) HasTrialSubscription(ctx context.Context, userID int64) (bool, error) {
	query, args, err := squirrel.
		Select("COUNT(*)").
		From("subscriptions").
		Where(squirrel.Eq{"user_id": userID, "is_trial": true}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("failed to build trial count query: %w", err)
	}

	var count int
	if err := r.db.GetContext(ctx, &count, query, args...); err != nil {
		return false, fmt.Errorf("failed to count trial subscriptions: %w", err)
	}
	return count > 0, nil
}

// CreateSubscription inserts a new subscription and fills its generated fields
func (r *Repository) CreateSubscription(ctx context.Context, sub *models.Subscription) error {
	query, args, err := subscriptionInsert(sub)
	if err != nil {
		return err
	}

	row := r.db.QueryRowxContext(ctx, query, args...)
	if err := row.Scan(&sub.ID, &sub.CreatedAt, &sub.UpdatedAt); err != nil {
		return fmt.Errorf("failed to insert subscription: %w", err)
	}
	return nil
}

// CreateSubscriptionWithPayment atomically deactivates the user's current
// subscriptions, creates the new one and records the payment against it
func (r *Repository) CreateSubscriptionWithPayment(ctx context.Context, sub *models.Subscription, payment *models.Payment) error {
	return r.Transaction(ctx, func(tx *sqlx.Tx) error {
		deactivate, dArgs, err := squirrel.
			Update("subscriptions").
			Set("is_active", false).
			Set("updated_at", time.Now().UTC()).
			Where(squirrel.Eq{"user_id": sub.UserID, "is_active": true}).
			PlaceholderFormat(squirrel.Dollar).
			ToSql()
		if err != nil {
			return fmt.Errorf("failed to build subscription deactivate query: %w", err)
		}
		if _, err := tx.ExecContext(ctx, deactivate, dArgs...); err != nil {
			return fmt.Errorf("failed to deactivate subscriptions: %w", err)
		}

		insert, iArgs, err := subscriptionInsert(sub)
		if err != nil {
			return err
		}
		row := tx.QueryRowxContext(ctx, insert, iArgs...)
		if err := row.Scan(&sub.ID, &sub.CreatedAt, &sub.UpdatedAt); err != nil {
			return fmt.Errorf("failed to insert subscription: %w", err)
		}

		payment.SubscriptionID = &sub.ID
		pInsert, pArgs, err := squirrel.
			Insert("payments").
			SetMap(map[string]interface{}{
				"user_id":                    payment.UserID,
				"plan_id":                    payment.PlanID,
				"subscription_id":            payment.SubscriptionID,
				"provider":                   payment.Provider,
				"telegram_id":                payment.TelegramID,
				"currency":                   payment.Currency,
				"amount":                     payment.Amount,
				"invoice_payload":            payment.InvoicePayload,
				"telegram_payment_charge_id": payment.TelegramChargeID,
				"provider_payment_charge_id": payment.ProviderChargeID,
				"status":                     payment.Status,
			}).
			Suffix("RETURNING id, created_at").
			PlaceholderFormat(squirrel.Dollar).
			ToSql()
		if err != nil {
			return fmt.Errorf("failed to build payment insert query: %w", err)
		}
		pRow := tx.QueryRowxContext(ctx, pInsert, pArgs...)
		if err := pRow.Scan(&payment.ID, &payment.CreatedAt); err != nil {
			return fmt.Errorf("failed to insert payment: %w", err)
		}
		return nil
	})
}

func subscriptionInsert(sub *models.Subscription) (string, []interface{}, error) {
	query, args, err := squirrel.
		Insert("subscriptions").
		SetMap(map[string]interface{}{
			"user_id":   sub.UserID,
			"plan_id":   sub.PlanID,
			"starts_at": sub.StartsAt,
			"ends_at":   sub.EndsAt,
			"is_active": sub.IsActive,
			"is_trial":  sub.IsTrial,
			"source":    sub.Source,
		}).
		Suffix("RETURNING id, created_at, updated_at").
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return "", nil, fmt.Errorf("failed to build subscription insert query: %w", err)
	}
	return query, args, nil
}
