package services

import (
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
	"github.com/sirupsen/logrus"

	"wg-vpn-service/internal/constants"
)

// CallbackTokenService maps short-lived opaque tokens to WG-Easy client ids.
// Raw client ids never travel inside Telegram callback data; a stale token
// simply misses the cache and the user is asked to refresh the list.
type CallbackTokenService struct {
	cache  *cache.Cache
	logger *logrus.Logger
}

// NewCallbackTokenService creates a new callback token service
func NewCallbackTokenService(logger *logrus.Logger) *CallbackTokenService {
	return &CallbackTokenService{
		cache:  cache.New(constants.CallbackTokenTTL*time.Minute, constants.CacheCleanupInterval*time.Minute),
		logger: logger,
	}
}

// Register stores a client id and returns the token standing in for it
func (s *CallbackTokenService) Register(clientID string) string {
	token := uuid.NewString()
	s.cache.Set(token, clientID, cache.DefaultExpiration)
	s.logger.Debugf("Registered callback token for client %s", clientID)
	return token
}

// Resolve exchanges a token back for its client id
func (s *CallbackTokenService) Resolve(token string) (string, bool) {
	data, found := s.cache.Get(token)
	if !found {
		return "", false
	}
	clientID, ok := data.(string)
	return clientID, ok
}
