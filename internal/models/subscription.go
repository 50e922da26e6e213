package models

import "time"

// Subscription sources
const (
	SubscriptionSourceTrial = "trial"
	SubscriptionSourceStars = "stars"
	SubscriptionSourceAdmin = "admin"
)

// Subscription represents a period of paid or trial access
type Subscription struct {
	ID        int64     `db:"id" json:"id"`
	UserID    int64     `db:"user_id" json:"user_id"`
	PlanID    int64     `db:"plan_id" json:"plan_id"`
	StartsAt  time.Time `db:"starts_at" json:"starts_at"`
	EndsAt    time.Time `db:"ends_at" json:"ends_at"`
	IsActive  bool      `db:"is_active" json:"is_active"`
	IsTrial   bool      `db:"is_trial" json:"is_trial"`
	Source    string    `db:"source" json:"source"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// SubscriptionStatus is the aggregate view the bot renders for a user
type SubscriptionStatus struct {
	HasActiveSubscription bool       `json:"has_active_subscription"`
	IsTrialActive         bool       `json:"is_trial_active"`
	ActivePlanName        *string    `json:"active_plan_name,omitempty"`
	SubscriptionEndsAt    *time.Time `json:"subscription_ends_at,omitempty"`
	TrialAvailable        bool       `json:"trial_available"`
}
