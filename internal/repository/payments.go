package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"

	"wg-vpn-service/internal/models"
)

// GetPaymentByChargeID returns the payment recorded for a Telegram charge id
func (r *Repository) GetPaymentByChargeID(ctx context.Context, chargeID string) (*models.Payment, error) {
	query, args, err := squirrel.
		Select("*").
		From("payments").
		Where(squirrel.Eq{"telegram_payment_charge_id": chargeID}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build payment select query: %w", err)
	}

	var payment models.Payment
	if err := r.db.GetContext(ctx, &payment, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get payment: %w", err)
	}
	return &payment, nil
}

// ListRecentPayments returns the newest payments across all users
func (r *Repository) ListRecentPayments(ctx context.Context, limit int) ([]models.Payment, error) {
	return r.listPayments(ctx, squirrel.Eq{}, limit)
}

// ListUserPayments returns the newest payments of a single Telegram user
func (r *Repository) ListUserPayments(ctx context.Context, telegramID int64, limit int) ([]models.Payment, error) {
	return r.listPayments(ctx, squirrel.Eq{"telegram_id": telegramID}, limit)
}

func (r *Repository) listPayments(ctx context.Context, where squirrel.Eq, limit int) ([]models.Payment, error) {
	builder := squirrel.
		Select("*").
		From("payments").
		OrderBy("created_at DESC", "id DESC").
		Limit(uint64(limit)).
		PlaceholderFormat(squirrel.Dollar)
	if len(where) > 0 {
		builder = builder.Where(where)
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build payments select query: %w", err)
	}

	payments := make([]models.Payment, 0)
	if err := r.db.SelectContext(ctx, &payments, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list payments: %w", err)
	}
	return payments, nil
}
