package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"wg-vpn-service/internal/config"
	"wg-vpn-service/internal/models"
	"wg-vpn-service/internal/repository"
	"wg-vpn-service/internal/service/mocks"
	"wg-vpn-service/pkg/wgeasy"
)

func testVPNConfig() config.VPNConfig {
	return config.VPNConfig{
		DefaultLocationCode: "nl-1",
		DefaultLocationName: "Netherlands",
		MaxConfigsPerUser:   3,
	}
}

func strPtr(s string) *string { return &s }

func TestPeerServiceCreate(t *testing.T) {
	user := &models.User{ID: 7, TelegramID: 42, FirstName: strPtr("Alice")}
	profile := models.TelegramProfile{TelegramID: 42, FirstName: strPtr("Alice")}

	t.Run("reuses the active peer when no device name is given", func(t *testing.T) {
		users := new(mocks.MockUserRepository)
		peers := new(mocks.MockPeerRepository)
		wg := new(mocks.MockWireGuard)
		svc := NewPeerService(users, peers, wg, testVPNConfig(), testLogger())

		existing := &models.VpnPeer{ID: 1, UserID: 7, WgClientID: "client-1", ClientName: "Alice_42_nl-1", LocationCode: "nl-1", IsActive: true}

		users.On("GetUserByTelegramID", mock.Anything, int64(42)).Return(user, nil)
		peers.On("GetActivePeer", mock.Anything, int64(7), "nl-1").Return(existing, nil)
		wg.On("GetConfiguration", mock.Anything, "client-1").Return("[Interface]\nPrivateKey = x\n", nil)

		result, err := svc.Create(context.Background(), CreatePeerRequest{Profile: profile})
		require.NoError(t, err)

		assert.Equal(t, "client-1", result.Peer.WgClientID)
		assert.Contains(t, result.Config, "[Interface]")
		wg.AssertNotCalled(t, "CreateClient", mock.Anything, mock.Anything)
	})

	t.Run("provisions a fresh peer when none exists", func(t *testing.T) {
		users := new(mocks.MockUserRepository)
		peers := new(mocks.MockPeerRepository)
		wg := new(mocks.MockWireGuard)
		svc := NewPeerService(users, peers, wg, testVPNConfig(), testLogger())

		users.On("GetUserByTelegramID", mock.Anything, int64(42)).Return(user, nil)
		peers.On("GetActivePeer", mock.Anything, int64(7), "nl-1").Return(nil, repository.ErrNotFound)
		peers.On("CountActivePeers", mock.Anything, int64(7)).Return(0, nil)
		wg.On("CreateClient", mock.Anything, "Alice_42_nl-1").
			Return(&wgeasy.RemoteClient{ID: "client-2", Name: "Alice_42_nl-1"}, nil)
		wg.On("GetConfiguration", mock.Anything, "client-2").Return("conf", nil)
		peers.On("CreatePeer", mock.Anything, mock.MatchedBy(func(peer *models.VpnPeer) bool {
			return peer.UserID == 7 && peer.WgClientID == "client-2" && peer.IsActive && peer.LocationCode == "nl-1"
		})).Return(nil)

		result, err := svc.Create(context.Background(), CreatePeerRequest{Profile: profile})
		require.NoError(t, err)

		assert.Equal(t, "client-2", result.Peer.WgClientID)
		assert.Equal(t, "Netherlands", result.Peer.LocationName)
		peers.AssertExpectations(t)
	})

	t.Run("an explicit device name always provisions", func(t *testing.T) {
		users := new(mocks.MockUserRepository)
		peers := new(mocks.MockPeerRepository)
		wg := new(mocks.MockWireGuard)
		svc := NewPeerService(users, peers, wg, testVPNConfig(), testLogger())

		users.On("GetUserByTelegramID", mock.Anything, int64(42)).Return(user, nil)
		peers.On("CountActivePeers", mock.Anything, int64(7)).Return(1, nil)
		wg.On("CreateClient", mock.Anything, "Alice_42_2").
			Return(&wgeasy.RemoteClient{ID: "client-3", Name: "Alice_42_2"}, nil)
		wg.On("GetConfiguration", mock.Anything, "client-3").Return("conf", nil)
		peers.On("CreatePeer", mock.Anything, mock.Anything).Return(nil)

		_, err := svc.Create(context.Background(), CreatePeerRequest{Profile: profile, DeviceName: "Alice_42_2"})
		require.NoError(t, err)

		peers.AssertNotCalled(t, "GetActivePeer", mock.Anything, mock.Anything, mock.Anything)
		wg.AssertExpectations(t)
	})

	t.Run("registers a first-time user", func(t *testing.T) {
		users := new(mocks.MockUserRepository)
		peers := new(mocks.MockPeerRepository)
		wg := new(mocks.MockWireGuard)
		svc := NewPeerService(users, peers, wg, testVPNConfig(), testLogger())

		users.On("GetUserByTelegramID", mock.Anything, int64(42)).Return(nil, repository.ErrNotFound)
		users.On("CreateUser", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
			args.Get(1).(*models.User).ID = 8
		}).Return(nil)
		peers.On("GetActivePeer", mock.Anything, int64(8), "nl-1").Return(nil, repository.ErrNotFound)
		peers.On("CountActivePeers", mock.Anything, int64(8)).Return(0, nil)
		wg.On("CreateClient", mock.Anything, mock.Anything).
			Return(&wgeasy.RemoteClient{ID: "client-4", Name: "Alice_42_nl-1"}, nil)
		wg.On("GetConfiguration", mock.Anything, "client-4").Return("conf", nil)
		peers.On("CreatePeer", mock.Anything, mock.Anything).Return(nil)

		_, err := svc.Create(context.Background(), CreatePeerRequest{Profile: profile})
		require.NoError(t, err)
		users.AssertExpectations(t)
	})

	t.Run("denies provisioning past the device limit", func(t *testing.T) {
		users := new(mocks.MockUserRepository)
		peers := new(mocks.MockPeerRepository)
		wg := new(mocks.MockWireGuard)
		svc := NewPeerService(users, peers, wg, testVPNConfig(), testLogger())

		users.On("GetUserByTelegramID", mock.Anything, int64(42)).Return(user, nil)
		peers.On("CountActivePeers", mock.Anything, int64(7)).Return(3, nil)

		_, err := svc.Create(context.Background(), CreatePeerRequest{Profile: profile, DeviceName: "Alice_42_4"})
		require.ErrorIs(t, err, ErrDeviceLimitReached)
		wg.AssertNotCalled(t, "CreateClient", mock.Anything, mock.Anything)
	})

	t.Run("zero limit means unlimited", func(t *testing.T) {
		users := new(mocks.MockUserRepository)
		peers := new(mocks.MockPeerRepository)
		wg := new(mocks.MockWireGuard)
		cfg := testVPNConfig()
		cfg.MaxConfigsPerUser = 0
		svc := NewPeerService(users, peers, wg, cfg, testLogger())

		users.On("GetUserByTelegramID", mock.Anything, int64(42)).Return(user, nil)
		wg.On("CreateClient", mock.Anything, "Alice_42_9").
			Return(&wgeasy.RemoteClient{ID: "client-9", Name: "Alice_42_9"}, nil)
		wg.On("GetConfiguration", mock.Anything, "client-9").Return("conf", nil)
		peers.On("CreatePeer", mock.Anything, mock.Anything).Return(nil)

		_, err := svc.Create(context.Background(), CreatePeerRequest{Profile: profile, DeviceName: "Alice_42_9"})
		require.NoError(t, err)
		peers.AssertNotCalled(t, "CountActivePeers", mock.Anything, mock.Anything)
	})

	t.Run("denies a blocked user", func(t *testing.T) {
		users := new(mocks.MockUserRepository)
		svc := NewPeerService(users, new(mocks.MockPeerRepository), new(mocks.MockWireGuard), testVPNConfig(), testLogger())

		users.On("GetUserByTelegramID", mock.Anything, int64(42)).
			Return(&models.User{ID: 7, TelegramID: 42, IsBlocked: true}, nil)

		_, err := svc.Create(context.Background(), CreatePeerRequest{Profile: profile})
		require.ErrorIs(t, err, ErrUserBlocked)
	})
}

func TestPeerServiceConfig(t *testing.T) {
	user := &models.User{ID: 7, TelegramID: 42}

	t.Run("returns the config for an owned peer", func(t *testing.T) {
		users := new(mocks.MockUserRepository)
		peers := new(mocks.MockPeerRepository)
		wg := new(mocks.MockWireGuard)
		svc := NewPeerService(users, peers, wg, testVPNConfig(), testLogger())

		users.On("GetUserByTelegramID", mock.Anything, int64(42)).Return(user, nil)
		peers.On("GetPeerByClientID", mock.Anything, int64(7), "client-1").
			Return(&models.VpnPeer{ID: 1, UserID: 7, WgClientID: "client-1"}, nil)
		wg.On("GetConfiguration", mock.Anything, "client-1").Return("conf", nil)

		result, err := svc.Config(context.Background(), 42, "client-1")
		require.NoError(t, err)
		assert.Equal(t, "conf", result.Config)
	})

	t.Run("rejects a foreign client id", func(t *testing.T) {
		users := new(mocks.MockUserRepository)
		peers := new(mocks.MockPeerRepository)
		svc := NewPeerService(users, peers, new(mocks.MockWireGuard), testVPNConfig(), testLogger())

		users.On("GetUserByTelegramID", mock.Anything, int64(42)).Return(user, nil)
		peers.On("GetPeerByClientID", mock.Anything, int64(7), "client-x").Return(nil, repository.ErrNotFound)

		_, err := svc.Config(context.Background(), 42, "client-x")
		require.ErrorIs(t, err, ErrPeerNotFound)
	})
}

func TestPeerServiceRevoke(t *testing.T) {
	user := &models.User{ID: 7, TelegramID: 42}
	peer := &models.VpnPeer{ID: 1, UserID: 7, WgClientID: "client-1", IsActive: true}

	t.Run("deletes on the panel and deactivates", func(t *testing.T) {
		users := new(mocks.MockUserRepository)
		peers := new(mocks.MockPeerRepository)
		wg := new(mocks.MockWireGuard)
		svc := NewPeerService(users, peers, wg, testVPNConfig(), testLogger())

		users.On("GetUserByTelegramID", mock.Anything, int64(42)).Return(user, nil)
		peers.On("GetPeerByClientID", mock.Anything, int64(7), "client-1").Return(peer, nil)
		wg.On("DeleteClient", mock.Anything, "client-1").Return(nil)
		peers.On("DeactivatePeer", mock.Anything, "client-1").Return(nil)

		err := svc.Revoke(context.Background(), 42, "client-1")
		require.NoError(t, err)
		peers.AssertExpectations(t)
	})

	t.Run("deactivates even when the panel client is gone", func(t *testing.T) {
		users := new(mocks.MockUserRepository)
		peers := new(mocks.MockPeerRepository)
		wg := new(mocks.MockWireGuard)
		svc := NewPeerService(users, peers, wg, testVPNConfig(), testLogger())

		users.On("GetUserByTelegramID", mock.Anything, int64(42)).Return(user, nil)
		peers.On("GetPeerByClientID", mock.Anything, int64(7), "client-1").Return(peer, nil)
		wg.On("DeleteClient", mock.Anything, "client-1").Return(wgeasy.ErrClientNotFound)
		peers.On("DeactivatePeer", mock.Anything, "client-1").Return(nil)

		err := svc.Revoke(context.Background(), 42, "client-1")
		require.NoError(t, err)
		peers.AssertExpectations(t)
	})
}
