package models

import "time"

// User represents a Telegram user known to the service
type User struct {
	ID           int64     `db:"id" json:"id"`
	TelegramID   int64     `db:"telegram_id" json:"telegram_id"`
	Username     *string   `db:"username" json:"username,omitempty"`
	FirstName    *string   `db:"first_name" json:"first_name,omitempty"`
	LastName     *string   `db:"last_name" json:"last_name,omitempty"`
	LanguageCode *string   `db:"language_code" json:"language_code,omitempty"`
	IsBlocked    bool      `db:"is_blocked" json:"is_blocked"`
	IsAdmin      bool      `db:"is_admin" json:"is_admin"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// TelegramProfile is the profile snapshot received from Telegram updates
type TelegramProfile struct {
	TelegramID   int64   `json:"telegram_id"`
	Username     *string `json:"username,omitempty"`
	FirstName    *string `json:"first_name,omitempty"`
	LastName     *string `json:"last_name,omitempty"`
	LanguageCode *string `json:"language_code,omitempty"`
}
