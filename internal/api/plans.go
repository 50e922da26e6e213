package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"wg-vpn-service/internal/service"
)

type planRoutes struct {
	subs *service.SubscriptionService
}

func newPlanRoutes(handler *gin.RouterGroup, subs *service.SubscriptionService) {
	r := &planRoutes{subs: subs}
	h := handler.Group("/subscription-plans")
	{
		h.GET("/active", r.activePlans)
	}
}

func (r *planRoutes) activePlans(c *gin.Context) {
	plans, err := r.subs.ActivePlans(c.Request.Context())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"plans": plans})
}
