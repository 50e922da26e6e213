package api

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"wg-vpn-service/internal/service"
)

// requestLogger logs every request with method, path, status and latency
func requestLogger(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.WithFields(logrus.Fields{
			"method":  c.Request.Method,
			"path":    c.Request.URL.Path,
			"status":  c.Writer.Status(),
			"latency": time.Since(start).String(),
		}).Info("request")
	}
}

// mgmtAuth guards admin routes with the shared management token
func mgmtAuth(token string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token == "" {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"detail": "management API is disabled"})
			return
		}
		provided := c.GetHeader("X-Mgmt-Token")
		if subtle.ConstantTimeCompare([]byte(provided), []byte(token)) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"detail": "invalid management token"})
			return
		}
		c.Next()
	}
}

// respondServiceError translates service sentinels into HTTP answers
func respondServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrUserNotFound):
		c.JSON(http.StatusNotFound, gin.H{"detail": "user not found"})
	case errors.Is(err, service.ErrUserBlocked):
		c.JSON(http.StatusForbidden, gin.H{"detail": "user is blocked"})
	case errors.Is(err, service.ErrPeerNotFound):
		c.JSON(http.StatusNotFound, gin.H{"detail": "peer not found"})
	case errors.Is(err, service.ErrDeviceLimitReached):
		c.JSON(http.StatusConflict, gin.H{"detail": "device limit reached"})
	case errors.Is(err, service.ErrPlanNotFound):
		c.JSON(http.StatusNotFound, gin.H{"detail": "plan not found"})
	case errors.Is(err, service.ErrPlanInactive):
		c.JSON(http.StatusConflict, gin.H{"detail": "plan is not active"})
	case errors.Is(err, service.ErrAmountMismatch):
		c.JSON(http.StatusBadRequest, gin.H{"detail": "amount does not match plan price"})
	case errors.Is(err, service.ErrBadPayload):
		c.JSON(http.StatusBadRequest, gin.H{"detail": "malformed invoice payload"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "internal error"})
	}
}
