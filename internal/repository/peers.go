package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"

	"wg-vpn-service/internal/models"
)

// GetActivePeer returns the user's active peer in a location, if any
func (r *Repository) GetActivePeer(ctx context.Context, userID int64, locationCode string) (*models.VpnPeer, error) {
	return r.getPeer(ctx, squirrel.Eq{
		"user_id":       userID,
		"location_code": locationCode,
		"is_active":     true,
	})
}

// GetPeerByClientID returns the user's peer with the given WG-Easy client id
func (r *Repository) GetPeerByClientID(ctx context.Context, userID int64, clientID string) (*models.VpnPeer, error) {
	return r.getPeer(ctx, squirrel.Eq{
		"user_id":      userID,
		"wg_client_id": clientID,
	})
}

func (r *Repository) getPeer(ctx context.Context, where squirrel.Eq) (*models.VpnPeer, error) {
	query, args, err := squirrel.
		Select("*").
		From("vpn_peers").
		Where(where).
		OrderBy("created_at DESC").
		Limit(1).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build peer select query: %w", err)
	}

	var peer models.VpnPeer
	if err := r.db.GetContext(ctx, &peer, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get peer: %w", err)
	}
	return &peer, nil
}

// ListPeers returns all of the user's peers, active ones first
func (r *Repository) ListPeers(ctx context.Context, userID int64) ([]models.VpnPeer, error) {
	query, args, err := squirrel.
		Select("*").
		From("vpn_peers").
		Where(squirrel.Eq{"user_id": userID}).
		OrderBy("is_active DESC", "created_at ASC").
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build peers select query: %w", err)
	}

	peers := make([]models.VpnPeer, 0)
	if err := r.db.SelectContext(ctx, &peers, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list peers: %w", err)
	}
	return peers, nil
}

// CountActivePeers returns the number of the user's active peers
func (r *Repository) CountActivePeers(ctx context.Context, userID int64) (int, error) {
	query, args, err := squirrel.
		Select("COUNT(*)").
		From("vpn_peers").
		Where(squirrel.Eq{"user_id": userID, "is_active": true}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build peer count query: %w", err)
	}

	var count int
	if err := r.db.GetContext(ctx, &count, query, args...); err != nil {
		return 0, fmt.Errorf("failed to count peers: %w", err)
	}
	return count, nil
}

// CreatePeer inserts a new peer and fills its generated fields
func (r *Repository) CreatePeer(ctx context.Context, peer *models.VpnPeer) error {
	query, args, err := squirrel.
		Insert("vpn_peers").
		SetMap(map[string]interface{}{
			"user_id":       peer.UserID,
			"wg_client_id":  peer.WgClientID,
			"client_name":   peer.ClientName,
			"location_code": peer.LocationCode,
			"location_name": peer.LocationName,
			"is_active":     peer.IsActive,
		}).
		Suffix("RETURNING id, created_at").
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build peer insert query: %w", err)
	}

	row := r.db.QueryRowxContext(ctx, query, args...)
	if err := row.Scan(&peer.ID, &peer.CreatedAt); err != nil {
		return fmt.Errorf("failed to insert peer: %w", err)
	}
	return nil
}

// DeactivatePeer marks the peer with the given WG-Easy client id inactive
func (r *Repository) DeactivatePeer(ctx context.Context, clientID string) error {
	query, args, err := squirrel.
		Update("vpn_peers").
		Set("is_active", false).
		Where(squirrel.Eq{"wg_client_id": clientID}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build peer deactivate query: %w", err)
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to deactivate peer: %w", err)
	}
	if rows, err := res.RowsAffected(); err == nil && rows == 0 {
		return ErrNotFound
	}
	return nil
}
