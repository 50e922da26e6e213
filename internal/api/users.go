package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"wg-vpn-service/internal/models"
	"wg-vpn-service/internal/service"
)

type userRoutes struct {
	users *service.UserService
	subs  *service.SubscriptionService
}

func newUserRoutes(handler *gin.RouterGroup, users *service.UserService, subs *service.SubscriptionService) {
	r := &userRoutes{users: users, subs: subs}
	h := handler.Group("/users")
	{
		h.POST("/from-telegram", r.fromTelegram)
		h.GET("/:telegram_id/subscription/active", r.subscriptionStatus)
		h.POST("/:telegram_id/trial/activate", r.activateTrial)
	}
}

type fromTelegramRequest struct {
	TelegramID   int64   `json:"telegram_id" binding:"required"`
	Username     *string `json:"username"`
	FirstName    *string `json:"first_name"`
	LastName     *string `json:"last_name"`
	LanguageCode *string `json:"language_code"`
}

func (r *userRoutes) fromTelegram(c *gin.Context) {
	var req fromTelegramRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "invalid request"})
		return
	}

	user, isNew, err := r.users.GetOrCreate(c.Request.Context(), models.TelegramProfile{
		TelegramID:   req.TelegramID,
		Username:     req.Username,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		LanguageCode: req.LanguageCode,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	status, err := r.subs.StatusForUser(c.Request.Context(), user)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user":                    user,
		"is_new":                  isNew,
		"has_active_subscription": status.HasActiveSubscription,
		"is_trial_active":         status.IsTrialActive,
		"active_plan_name":        status.ActivePlanName,
		"subscription_ends_at":    status.SubscriptionEndsAt,
		"trial_available":         status.TrialAvailable,
	})
}

func (r *userRoutes) subscriptionStatus(c *gin.Context) {
	telegramID, ok := telegramIDParam(c)
	if !ok {
		return
	}

	status, err := r.subs.Status(c.Request.Context(), telegramID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, status)
}

func (r *userRoutes) activateTrial(c *gin.Context) {
	telegramID, ok := telegramIDParam(c)
	if !ok {
		return
	}

	grant, err := r.subs.ActivateTrial(c.Request.Context(), telegramID)
	if err != nil {
		// Denials are business outcomes, not transport failures
		switch {
		case errors.Is(err, service.ErrTrialAlreadyUsed):
			c.JSON(http.StatusOK, gin.H{"success": false, "reason": "trial already used"})
		case errors.Is(err, service.ErrActiveSubscriptionExists):
			c.JSON(http.StatusOK, gin.H{"success": false, "reason": "active subscription already exists"})
		default:
			respondServiceError(c, err)
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":       true,
		"plan":          grant.Plan,
		"trial_ends_at": grant.Subscription.EndsAt,
	})
}

func telegramIDParam(c *gin.Context) (int64, bool) {
	telegramID, err := strconv.ParseInt(c.Param("telegram_id"), 10, 64)
	if err != nil || telegramID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "invalid telegram_id"})
		return 0, false
	}
	return telegramID, true
}
