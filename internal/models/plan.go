package models

import "time"

// SubscriptionPlan represents a sellable subscription tier
type SubscriptionPlan struct {
	ID           int64     `db:"id" json:"id"`
	Code         string    `db:"code" json:"code"`
	Name         string    `db:"name" json:"name"`
	DurationDays int       `db:"duration_days" json:"duration_days"`
	PriceStars   int       `db:"price_stars" json:"price_stars"`
	IsTrial      bool      `db:"is_trial" json:"is_trial"`
	IsActive     bool      `db:"is_active" json:"is_active"`
	SortOrder    int       `db:"sort_order" json:"sort_order"`
	MaxDevices   *int      `db:"max_devices" json:"max_devices,omitempty"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}
