package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"wg-vpn-service/internal/models"
	"wg-vpn-service/internal/service"
)

type peerRoutes struct {
	peers  *service.PeerService
	logger *logrus.Logger
}

func newPeerRoutes(handler *gin.RouterGroup, peers *service.PeerService, logger *logrus.Logger) {
	r := &peerRoutes{peers: peers, logger: logger}
	h := handler.Group("/vpn/peers")
	{
		h.POST("/create", r.create)
		h.GET("/list", r.list)
		h.GET("/config", r.config)
		h.POST("/revoke", r.revoke)
	}
}

type createPeerRequest struct {
	TelegramID   int64   `json:"telegram_id" binding:"required"`
	Username     *string `json:"username"`
	FirstName    *string `json:"first_name"`
	DeviceName   string  `json:"device_name"`
	LocationCode string  `json:"location_code"`
	LocationName string  `json:"location_name"`
}

type revokePeerRequest struct {
	TelegramID int64  `json:"telegram_id" binding:"required"`
	ClientID   string `json:"client_id" binding:"required"`
}

func (r *peerRoutes) create(c *gin.Context) {
	var req createPeerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "invalid request"})
		return
	}

	provision, err := r.peers.Create(c.Request.Context(), service.CreatePeerRequest{
		Profile: models.TelegramProfile{
			TelegramID: req.TelegramID,
			Username:   req.Username,
			FirstName:  req.FirstName,
		},
		DeviceName:   req.DeviceName,
		LocationCode: req.LocationCode,
		LocationName: req.LocationName,
	})
	if err != nil {
		if isServiceSentinel(err) {
			respondServiceError(c, err)
			return
		}
		// WG-Easy trouble is not the user's fault
		r.logger.Errorf("Peer provisioning failed: %v", err)
		c.JSON(http.StatusBadGateway, gin.H{"detail": "vpn panel is unavailable, try again later"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"client_id":     provision.Peer.WgClientID,
		"client_name":   provision.Peer.ClientName,
		"location_code": provision.Peer.LocationCode,
		"location_name": provision.Peer.LocationName,
		"config":        provision.Config,
	})
}

func (r *peerRoutes) list(c *gin.Context) {
	telegramID, ok := telegramIDQuery(c)
	if !ok {
		return
	}

	peers, err := r.peers.List(c.Request.Context(), telegramID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"peers": peers})
}

func (r *peerRoutes) config(c *gin.Context) {
	telegramID, ok := telegramIDQuery(c)
	if !ok {
		return
	}
	clientID := c.Query("client_id")
	if clientID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "client_id is required"})
		return
	}

	provision, err := r.peers.Config(c.Request.Context(), telegramID, clientID)
	if err != nil {
		if isServiceSentinel(err) {
			respondServiceError(c, err)
			return
		}
		r.logger.Errorf("Peer config fetch failed: %v", err)
		c.JSON(http.StatusBadGateway, gin.H{"detail": "vpn panel is unavailable, try again later"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"client_id":   provision.Peer.WgClientID,
		"client_name": provision.Peer.ClientName,
		"config":      provision.Config,
	})
}

func (r *peerRoutes) revoke(c *gin.Context) {
	var req revokePeerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "invalid request"})
		return
	}

	if err := r.peers.Revoke(c.Request.Context(), req.TelegramID, req.ClientID); err != nil {
		if isServiceSentinel(err) {
			respondServiceError(c, err)
			return
		}
		r.logger.Errorf("Peer revoke failed: %v", err)
		c.JSON(http.StatusBadGateway, gin.H{"detail": "vpn panel is unavailable, try again later"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true, "message": "peer revoked"})
}

func telegramIDQuery(c *gin.Context) (int64, bool) {
	telegramID, err := strconv.ParseInt(c.Query("telegram_id"), 10, 64)
	if err != nil || telegramID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "invalid telegram_id"})
		return 0, false
	}
	return telegramID, true
}

func isServiceSentinel(err error) bool {
	for _, sentinel := range []error{
		service.ErrUserNotFound,
		service.ErrUserBlocked,
		service.ErrPeerNotFound,
		service.ErrDeviceLimitReached,
		service.ErrPlanNotFound,
		service.ErrPlanInactive,
		service.ErrAmountMismatch,
		service.ErrBadPayload,
	} {
		if errors.Is(err, sentinel) {
			return true
		}
	}
	return false
}
