package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"wg-vpn-service/internal/service"
)

type adminRoutes struct {
	users    *service.UserService
	subs     *service.SubscriptionService
	payments *service.PaymentService
}

func newAdminRoutes(handler *gin.RouterGroup, mgmtToken string, users *service.UserService, subs *service.SubscriptionService, payments *service.PaymentService) {
	r := &adminRoutes{users: users, subs: subs, payments: payments}
	h := handler.Group("/admin")
	h.Use(mgmtAuth(mgmtToken))
	{
		h.GET("/payments", r.recentPayments)
		h.GET("/users/:telegram_id/payments", r.userPayments)
		h.POST("/users/:telegram_id/block", r.blockUser)
		h.POST("/users/:telegram_id/unblock", r.unblockUser)
	}
}

func (r *adminRoutes) recentPayments(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))
	payments, err := r.payments.Recent(c.Request.Context(), limit)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"payments": payments})
}

func (r *adminRoutes) userPayments(c *gin.Context) {
	telegramID, ok := telegramIDParam(c)
	if !ok {
		return
	}
	limit, _ := strconv.Atoi(c.Query("limit"))
	payments, err := r.payments.ForUser(c.Request.Context(), telegramID, limit)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"payments": payments})
}

func (r *adminRoutes) blockUser(c *gin.Context) {
	r.setBlocked(c, true)
}

func (r *adminRoutes) unblockUser(c *gin.Context) {
	r.setBlocked(c, false)
}

func (r *adminRoutes) setBlocked(c *gin.Context, blocked bool) {
	telegramID, ok := telegramIDParam(c)
	if !ok {
		return
	}
	if err := r.users.SetBlocked(c.Request.Context(), telegramID, blocked); err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "telegram_id": telegramID, "is_blocked": blocked})
}
