package service

import (
	"context"
	"errors"
	"time"

	"wg-vpn-service/internal/models"
	"wg-vpn-service/pkg/wgeasy"
)

var (
	ErrUserNotFound             = errors.New("user not found")
	ErrUserBlocked              = errors.New("user is blocked")
	ErrTrialAlreadyUsed         = errors.New("trial already used")
	ErrActiveSubscriptionExists = errors.New("active subscription already exists")
	ErrPlanNotFound             = errors.New("plan not found")
	ErrPlanInactive             = errors.New("plan is not active")
	ErrAmountMismatch           = errors.New("amount does not match plan price")
	ErrPeerNotFound             = errors.New("peer not found")
	ErrDeviceLimitReached       = errors.New("device limit reached")
	ErrBadPayload               = errors.New("malformed invoice payload")
)

// UserRepository persists Telegram users
type UserRepository interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByTelegramID(ctx context.Context, telegramID int64) (*models.User, error)
	UpdateUserProfile(ctx context.Context, user *models.User) error
	SetUserBlocked(ctx context.Context, telegramID int64, blocked bool) error
}

// PlanRepository persists subscription plans
type PlanRepository interface {
	GetPlanByCode(ctx context.Context, code string) (*models.SubscriptionPlan, error)
	GetPlanByID(ctx context.Context, id int64) (*models.SubscriptionPlan, error)
	ListActivePlans(ctx context.Context) ([]models.SubscriptionPlan, error)
	CreatePlan(ctx context.Context, plan *models.SubscriptionPlan) error
}

// SubscriptionRepository persists subscriptions
type SubscriptionRepository interface {
	GetActiveSubscription(ctx context.Context, userID int64, now time.Time) (*models.Subscription, error)
	GetSubscriptionByID(ctx context.Context, id int64) (*models.Subscription, error)
	HasTrialSubscription(ctx context.Context, userID int64) (bool, error)
	CreateSubscription(ctx context.Context, sub *models.Subscription) error
	CreateSubscriptionWithPayment(ctx context.Context, sub *models.Subscription, payment *models.Payment) error
}

// PeerRepository persists provisioned WireGuard peers
type PeerRepository interface {
	GetActivePeer(ctx context.Context, userID int64, locationCode string) (*models.VpnPeer, error)
	GetPeerByClientID(ctx context.Context, userID int64, clientID string) (*models.VpnPeer, error)
	ListPeers(ctx context.Context, userID int64) ([]models.VpnPeer, error)
	CountActivePeers(ctx context.Context, userID int64) (int, error)
	CreatePeer(ctx context.Context, peer *models.VpnPeer) error
	DeactivatePeer(ctx context.Context, clientID string) error
}

// PaymentRepository reads recorded payments
type PaymentRepository interface {
	GetPaymentByChargeID(ctx context.Context, chargeID string) (*models.Payment, error)
	ListRecentPayments(ctx context.Context, limit int) ([]models.Payment, error)
	ListUserPayments(ctx context.Context, telegramID int64, limit int) ([]models.Payment, error)
}

// WireGuard provisions clients on the WG-Easy panel
type WireGuard interface {
	CreateClient(ctx context.Context, name string) (*wgeasy.RemoteClient, error)
	GetConfiguration(ctx context.Context, clientID string) (string, error)
	DeleteClient(ctx context.Context, clientID string) error
}
