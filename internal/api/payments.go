package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"wg-vpn-service/internal/service"
)

type paymentRoutes struct {
	payments *service.PaymentService
}

func newPaymentRoutes(handler *gin.RouterGroup, payments *service.PaymentService) {
	r := &paymentRoutes{payments: payments}
	h := handler.Group("/payments")
	{
		h.POST("/stars/confirm", r.confirmStars)
	}
}

func (r *paymentRoutes) confirmStars(c *gin.Context) {
	var req service.StarsConfirmRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "invalid request"})
		return
	}
	if req.TelegramID <= 0 || req.TelegramChargeID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "telegram_id and telegram_payment_charge_id are required"})
		return
	}

	result, err := r.payments.ConfirmStars(c.Request.Context(), req)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}
