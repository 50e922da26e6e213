package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"wg-vpn-service/internal/config"
	"wg-vpn-service/internal/service"
)

// Pinger is the liveness probe used by the health endpoint
type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps bundles everything the HTTP layer needs
type Deps struct {
	Config        *config.Config
	Logger        *logrus.Logger
	DB            Pinger
	Users         *service.UserService
	Subscriptions *service.SubscriptionService
	Peers         *service.PeerService
	Payments      *service.PaymentService
}

// NewRouter builds the gin engine with all routes registered
func NewRouter(deps Deps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(requestLogger(deps.Logger))

	engine.GET("/health", healthHandler(deps))

	v1 := engine.Group("/api/v1")
	newUserRoutes(v1, deps.Users, deps.Subscriptions)
	newPlanRoutes(v1, deps.Subscriptions)
	newPeerRoutes(v1, deps.Peers, deps.Logger)
	newPaymentRoutes(v1, deps.Payments)
	newAdminRoutes(v1, deps.Config.Server.MgmtToken, deps.Users, deps.Subscriptions, deps.Payments)

	return engine
}

func healthHandler(deps Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
		defer cancel()

		dbOK := deps.DB.Ping(ctx) == nil
		status := http.StatusOK
		if !dbOK {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, gin.H{
			"status":      map[bool]string{true: "ok", false: "degraded"}[dbOK],
			"database":    dbOK,
			"wg_easy_url": deps.Config.WGEasy.URL,
		})
	}
}
