package models

import "time"

// Payment represents a confirmed Telegram Stars payment
type Payment struct {
	ID               int64     `db:"id" json:"id"`
	UserID           int64     `db:"user_id" json:"user_id"`
	PlanID           *int64    `db:"plan_id" json:"plan_id,omitempty"`
	SubscriptionID   *int64    `db:"subscription_id" json:"subscription_id,omitempty"`
	Provider         string    `db:"provider" json:"provider"`
	TelegramID       int64     `db:"telegram_id" json:"telegram_id"`
	Currency         string    `db:"currency" json:"currency"`
	Amount           int       `db:"amount" json:"amount"`
	InvoicePayload   string    `db:"invoice_payload" json:"invoice_payload"`
	TelegramChargeID string    `db:"telegram_payment_charge_id" json:"telegram_payment_charge_id"`
	ProviderChargeID *string   `db:"provider_payment_charge_id" json:"provider_payment_charge_id,omitempty"`
	Status           string    `db:"status" json:"status"`
	CreatedAt        time.Time `db:"created_at" json:"created_at"`
}

// StarsPayment is the raw successful-payment update the bot receives from
// Telegram before the backend confirms it
type StarsPayment struct {
	TelegramID       int64     `json:"telegram_id"`
	Currency         string    `json:"currency"`
	Amount           int       `json:"amount"`
	InvoicePayload   string    `json:"invoice_payload"`
	TelegramChargeID string    `json:"telegram_payment_charge_id"`
	ProviderChargeID string    `json:"provider_payment_charge_id"`
	ReceivedAt       time.Time `json:"received_at"`
}
