package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"

	"wg-vpn-service/internal/models"
)

// GetPlanByCode returns the plan with the given code
func (r *Repository) GetPlanByCode(ctx context.Context, code string) (*models.SubscriptionPlan, error) {
	return r.getPlan(ctx, squirrel.Eq{"code": code})
}

// GetPlanByID returns the plan with the given id
func (r *Repository) GetPlanByID(ctx context.Context, id int64) (*models.SubscriptionPlan, error) {
	return r.getPlan(ctx, squirrel.Eq{"id": id})
}

func (r *Repository) getPlan(ctx context.Context, where squirrel.Eq) (*models.SubscriptionPlan, error) {
	query, args, err := squirrel.
		Select("*").
		From("subscription_plans").
		Where(where).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build plan select query: %w", err)
	}

	var plan models.SubscriptionPlan
	if err := r.db.GetContext(ctx, &plan, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get plan: %w", err)
	}
	return &plan, nil
}

// ListActivePlans returns active plans ordered for display
func (r *Repository) ListActivePlans(ctx context.Context) ([]models.SubscriptionPlan, error) {
	query, args, err := squirrel.
		Select("*").
		From("subscription_plans").
		Where(squirrel.Eq{"is_active": true}).
		OrderBy("sort_order ASC", "id ASC").
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build plans select query: %w", err)
	}

	plans := make([]models.SubscriptionPlan, 0)
	if err := r.db.SelectContext(ctx, &plans, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list plans: %w", err)
	}
	return plans, nil
}

// CreatePlan inserts a new subscription plan
func (r *Repository) CreatePlan(ctx context.Context, plan *models.SubscriptionPlan) error {
	query, args, err := squirrel.
		Insert("subscription_plans").
		SetMap(map[string]interface{}{
			"code":          plan.Code,
			"name":          plan.Name,
			"duration_days": plan.DurationDays,
			"price_stars":   plan.PriceStars,
			"is_trial":      plan.IsTrial,
			"is_active":     plan.IsActive,
			"sort_order":    plan.SortOrder,
			"max_devices":   plan.MaxDevices,
		}).
		Suffix("RETURNING id, created_at, updated_at").
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build plan insert query: %w", err)
	}

	row := r.db.QueryRowxContext(ctx, query, args...)
	if err := row.Scan(&plan.ID, &plan.CreatedAt, &plan.UpdatedAt); err != nil {
		return fmt.Errorf("failed to insert plan: %w", err)
	}
	return nil
}
