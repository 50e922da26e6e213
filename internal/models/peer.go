package models

import "time"

// VpnPeer represents a WireGuard peer provisioned for a user through WG-Easy
type VpnPeer struct {
	ID           int64     `db:"id" json:"id"`
	UserID       int64     `db:"user_id" json:"user_id"`
	WgClientID   string    `db:"wg_client_id" json:"client_id"`
	ClientName   string    `db:"client_name" json:"client_name"`
	LocationCode string    `db:"location_code" json:"location_code"`
	LocationName string    `db:"location_name" json:"location_name"`
	IsActive     bool      `db:"is_active" json:"is_active"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}
