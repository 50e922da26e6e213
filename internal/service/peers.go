package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"wg-vpn-service/internal/config"
	"wg-vpn-service/internal/models"
	"wg-vpn-service/internal/repository"
	"wg-vpn-service/pkg/wgeasy"
)

// PeerService provisions WireGuard peers through WG-Easy
type PeerService struct {
	users  UserRepository
	peers  PeerRepository
	wg     WireGuard
	vpnCfg config.VPNConfig
	logger *logrus.Logger
}

// CreatePeerRequest asks for a config for a user's device
type CreatePeerRequest struct {
	Profile      models.TelegramProfile
	DeviceName   string
	LocationCode string
	LocationName string
}

// PeerProvision is a peer together with its current .conf text
type PeerProvision struct {
	Peer   models.VpnPeer
	Config string
}

// NewPeerService creates a new PeerService
func NewPeerService(users UserRepository, peers PeerRepository, wg WireGuard, vpnCfg config.VPNConfig, logger *logrus.Logger) *PeerService {
	return &PeerService{users: users, peers: peers, wg: wg, vpnCfg: vpnCfg, logger: logger}
}

// Create returns a working config for (user, location): the existing active
// peer if one exists, a freshly provisioned WG-Easy client otherwise
func (s *PeerService) Create(ctx context.Context, req CreatePeerRequest) (*PeerProvision, error) {
	user, _, err := getOrCreateUser(ctx, s.users, s.logger, req.Profile)
	if err != nil {
		return nil, err
	}

	locationCode := req.LocationCode
	locationName := req.LocationName
	if locationCode == "" {
		locationCode = s.vpnCfg.DefaultLocationCode
		locationName = s.vpnCfg.DefaultLocationName
	}
	if locationName == "" {
		locationName = locationCode
	}

	name := strings.TrimSpace(req.DeviceName)

	// Without an explicit device name the active peer for this location is
	// reused instead of provisioning a duplicate
	if name == "" {
		if existing, err := s.peers.GetActivePeer(ctx, user.ID, locationCode); err == nil {
			conf, err := s.wg.GetConfiguration(ctx, existing.WgClientID)
			if err != nil {
				return nil, fmt.Errorf("failed to fetch config for existing peer: %w", err)
			}
			return &PeerProvision{Peer: *existing, Config: conf}, nil
		} else if !errors.Is(err, repository.ErrNotFound) {
			return nil, err
		}
		name = defaultDeviceName(user, locationCode)
	}

	if s.vpnCfg.MaxConfigsPerUser > 0 {
		count, err := s.peers.CountActivePeers(ctx, user.ID)
		if err != nil {
			return nil, err
		}
		if count >= s.vpnCfg.MaxConfigsPerUser {
			return nil, ErrDeviceLimitReached
		}
	}

	remote, err := s.wg.CreateClient(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("failed to create wg-easy client: %w", err)
	}

	conf, err := s.wg.GetConfiguration(ctx, remote.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch config for new peer: %w", err)
	}

	peer := &models.VpnPeer{
		UserID:       user.ID,
		WgClientID:   remote.ID,
		ClientName:   remote.Name,
		LocationCode: locationCode,
		LocationName: locationName,
		IsActive:     true,
	}
	if err := s.peers.CreatePeer(ctx, peer); err != nil {
		return nil, fmt.Errorf("failed to persist peer: %w", err)
	}

	s.logger.Infof("Provisioned peer %s (%s) for user %d", remote.ID, remote.Name, user.TelegramID)
	return &PeerProvision{Peer: *peer, Config: conf}, nil
}

// List returns the user's peers, active ones first
func (s *PeerService) List(ctx context.Context, telegramID int64) ([]models.VpnPeer, error) {
	user, err := resolveUser(ctx, s.users, telegramID)
	if err != nil {
		return nil, err
	}
	return s.peers.ListPeers(ctx, user.ID)
}

// Config returns the .conf text for a peer the user owns
func (s *PeerService) Config(ctx context.Context, telegramID int64, clientID string) (*PeerProvision, error) {
	user, err := resolveUser(ctx, s.users, telegramID)
	if err != nil {
		return nil, err
	}

	peer, err := s.peers.GetPeerByClientID(ctx, user.ID, clientID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrPeerNotFound
		}
		return nil, err
	}

	conf, err := s.wg.GetConfiguration(ctx, peer.WgClientID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch peer config: %w", err)
	}
	return &PeerProvision{Peer: *peer, Config: conf}, nil
}

// Revoke removes the WG-Easy client and marks the peer inactive.
// A client already gone from the panel still gets deactivated locally.
func (s *PeerService) Revoke(ctx context.Context, telegramID int64, clientID string) error {
	user, err := resolveUser(ctx, s.users, telegramID)
	if err != nil {
		return err
	}

	peer, err := s.peers.GetPeerByClientID(ctx, user.ID, clientID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrPeerNotFound
		}
		return err
	}

	if err := s.wg.DeleteClient(ctx, peer.WgClientID); err != nil {
		if !errors.Is(err, wgeasy.ErrClientNotFound) {
			return fmt.Errorf("failed to delete wg-easy client: %w", err)
		}
		s.logger.Warnf("Peer %s already missing from panel, deactivating locally", peer.WgClientID)
	}

	if err := s.peers.DeactivatePeer(ctx, peer.WgClientID); err != nil {
		return fmt.Errorf("failed to deactivate peer: %w", err)
	}

	s.logger.Infof("Revoked peer %s for user %d", peer.WgClientID, telegramID)
	return nil
}

func defaultDeviceName(user *models.User, locationCode string) string {
	base := "user"
	if user.FirstName != nil && *user.FirstName != "" {
		base = *user.FirstName
	} else if user.Username != nil && *user.Username != "" {
		base = *user.Username
	}
	base = strings.Map(func(r rune) rune {
		if r == ' ' || r == ':' || r == '/' {
			return '_'
		}
		return r
	}, base)
	return fmt.Sprintf("%s_%d_%s", base, user.TelegramID, locationCode)
}
