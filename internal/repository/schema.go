package repository

import (
	"context"
	"fmt"

	"wg-vpn-service/internal/constants"
)

const bootstrapSchema = `
CREATE TABLE IF NOT EXISTS users (
    id BIGSERIAL PRIMARY KEY,
    telegram_id BIGINT NOT NULL UNIQUE,
    username TEXT,
    first_name TEXT,
    last_name TEXT,
    language_code TEXT,
    is_blocked BOOLEAN NOT NULL DEFAULT FALSE,
    is_admin BOOLEAN NOT NULL DEFAULT FALSE,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS subscription_plans (
    id BIGSERIAL PRIMARY KEY,
    code TEXT NOT NULL UNIQUE,
    name TEXT NOT NULL,
    duration_days INTEGER NOT NULL,
    price_stars INTEGER NOT NULL DEFAULT 0,
    is_trial BOOLEAN NOT NULL DEFAULT FALSE,
    is_active BOOLEAN NOT NULL DEFAULT TRUE,
    sort_order INTEGER NOT NULL DEFAULT 0,
    max_devices INTEGER,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS subscriptions (
    id BIGSERIAL PRIMARY KEY,
    user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
    plan_id BIGINT NOT NULL REFERENCES subscription_plans(id),
    starts_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    ends_at TIMESTAMPTZ NOT NULL,
    is_active BOOLEAN NOT NULL DEFAULT TRUE,
    is_trial BOOLEAN NOT NULL DEFAULT FALSE,
    source TEXT NOT NULL DEFAULT 'stars',
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_subscriptions_user_active ON subscriptions(user_id, is_active);

CREATE TABLE IF NOT EXISTS vpn_peers (
    id BIGSERIAL PRIMARY KEY,
    user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
    wg_client_id TEXT NOT NULL UNIQUE,
    client_name TEXT NOT NULL,
    location_code TEXT NOT NULL,
    location_name TEXT NOT NULL,
    is_active BOOLEAN NOT NULL DEFAULT TRUE,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_vpn_peers_user ON vpn_peers(user_id);

CREATE TABLE IF NOT EXISTS payments (
    id BIGSERIAL PRIMARY KEY,
    user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
    plan_id BIGINT REFERENCES subscription_plans(id),
    subscription_id BIGINT REFERENCES subscriptions(id),
    provider TEXT NOT NULL DEFAULT 'telegram_stars',
    telegram_id BIGINT NOT NULL,
    currency TEXT NOT NULL,
    amount INTEGER NOT NULL,
    invoice_payload TEXT NOT NULL,
    telegram_payment_charge_id TEXT NOT NULL UNIQUE,
    provider_payment_charge_id TEXT,
    status TEXT NOT NULL DEFAULT 'paid',
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_payments_telegram_id ON payments(telegram_id);
`

// Migrate applies the bootstrap schema and seeds the default plans
func (r *Repository) Migrate(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, bootstrapSchema); err != nil {
		return fmt.Errorf("failed to apply bootstrap schema: %w", err)
	}
	if err := r.seedPlans(ctx); err != nil {
		return fmt.Errorf("failed to seed plans: %w", err)
	}
	r.logger.Info("Database schema is up to date")
	return nil
}

// seedPlans inserts the trial and default paid plans when the table is empty
func (r *Repository) seedPlans(ctx context.Context) error {
	var count int
	if err := r.db.GetContext(ctx, &count, "SELECT COUNT(*) FROM subscription_plans"); err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	seed := `
INSERT INTO subscription_plans (code, name, duration_days, price_stars, is_trial, is_active, sort_order)
VALUES
    ($1, $2, $3, 0, TRUE, TRUE, 0),
    ('stars_30', '1 month', 30, 150, FALSE, TRUE, 10),
    ('stars_90', '3 months', 90, 400, FALSE, TRUE, 20),
    ('stars_365', '1 year', 365, 1400, FALSE, TRUE, 30)
`
	_, err := r.db.ExecContext(ctx, seed,
		constants.TrialPlanCode, constants.TrialPlanName, constants.TrialDays)
	return err
}
