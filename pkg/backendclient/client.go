package backendclient

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"

	"wg-vpn-service/internal/config"
	"wg-vpn-service/internal/constants"
	apperrors "wg-vpn-service/internal/errors"
	"wg-vpn-service/internal/models"
)

// Client is the bot's HTTP client for the backend REST API
type Client struct {
	httpClient *resty.Client
	baseURL    string
	mgmtToken  string
	logger     *logrus.Logger
}

// RegisterResult is the answer to a from-telegram registration
type RegisterResult struct {
	User                  models.User `json:"user"`
	IsNew                 bool        `json:"is_new"`
	HasActiveSubscription bool        `json:"has_active_subscription"`
	IsTrialActive         bool        `json:"is_trial_active"`
	ActivePlanName        *string     `json:"active_plan_name,omitempty"`
	SubscriptionEndsAt    *time.Time  `json:"subscription_ends_at,omitempty"`
	TrialAvailable        bool        `json:"trial_available"`
}

// TrialActivation is the answer to a trial activation attempt
type TrialActivation struct {
	Success     bool                     `json:"success"`
	Reason      string                   `json:"reason,omitempty"`
	Plan        *models.SubscriptionPlan `json:"plan,omitempty"`
	TrialEndsAt *time.Time               `json:"trial_ends_at,omitempty"`
}

// PeerConfig is a provisioned peer with its .conf text
type PeerConfig struct {
	ClientID     string `json:"client_id"`
	ClientName   string `json:"client_name"`
	LocationCode string `json:"location_code,omitempty"`
	LocationName string `json:"location_name,omitempty"`
	Config       string `json:"config"`
}

// CreatePeerParams asks the backend for a device config
type CreatePeerParams struct {
	TelegramID   int64   `json:"telegram_id"`
	Username     *string `json:"username,omitempty"`
	FirstName    *string `json:"first_name,omitempty"`
	DeviceName   string  `json:"device_name,omitempty"`
	LocationCode string  `json:"location_code,omitempty"`
	LocationName string  `json:"location_name,omitempty"`
}

// StarsConfirmation is the answer to a Stars payment confirmation
type StarsConfirmation struct {
	Ok               bool       `json:"ok"`
	Message          string     `json:"message"`
	AlreadyConfirmed bool       `json:"already_confirmed"`
	PaymentID        int64      `json:"payment_id"`
	SubscriptionID   *int64     `json:"subscription_id,omitempty"`
	ActiveUntil      *time.Time `json:"active_until,omitempty"`
	PlanCode         string     `json:"plan_code,omitempty"`
	PlanName         string     `json:"plan_name,omitempty"`
}

// NewClient creates a new backend API client
func NewClient(cfg config.BackendConfig, logger *logrus.Logger) *Client {
	httpClient := resty.New().
		SetTimeout(constants.DefaultTimeout * time.Second).
		SetRetryCount(constants.DefaultRetryCount).
		SetRetryWaitTime(constants.DefaultRetryWaitTime * time.Second).
		SetRetryMaxWaitTime(constants.DefaultRetryMaxWaitTime * time.Second)

	return &Client{
		httpClient: httpClient,
		baseURL:    cfg.BaseURL,
		mgmtToken:  cfg.MgmtToken,
		logger:     logger,
	}
}

// RegisterUser registers or refreshes a Telegram user
func (c *Client) RegisterUser(ctx context.Context, profile models.TelegramProfile) (*RegisterResult, error) {
	var result RegisterResult
	if err := c.post(ctx, "register user", "/api/v1/users/from-telegram", profile, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// SubscriptionStatus fetches the user's subscription status block
func (c *Client) SubscriptionStatus(ctx context.Context, telegramID int64) (*models.SubscriptionStatus, error) {
	var status models.SubscriptionStatus
	path := fmt.Sprintf("/api/v1/users/%d/subscription/active", telegramID)
	if err := c.get(ctx, "subscription status", path, nil, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// ActivateTrial asks the backend to grant the trial
func (c *Client) ActivateTrial(ctx context.Context, telegramID int64) (*TrialActivation, error) {
	var activation TrialActivation
	path := fmt.Sprintf("/api/v1/users/%d/trial/activate", telegramID)
	if err := c.post(ctx, "activate trial", path, nil, &activation); err != nil {
		return nil, err
	}
	return &activation, nil
}

// ActivePlans lists plans available for purchase
func (c *Client) ActivePlans(ctx context.Context) ([]models.SubscriptionPlan, error) {
	var resp struct {
		Plans []models.SubscriptionPlan `json:"plans"`
	}
	if err := c.get(ctx, "active plans", "/api/v1/subscription-plans/active", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Plans, nil
}

// ListPeers lists the user's provisioned peers
func (c *Client) ListPeers(ctx context.Context, telegramID int64) ([]models.VpnPeer, error) {
	var resp struct {
		Peers []models.VpnPeer `json:"peers"`
	}
	query := map[string]string{"telegram_id": fmt.Sprintf("%d", telegramID)}
	if err := c.get(ctx, "list peers", "/api/v1/vpn/peers/list", query, &resp); err != nil {
		return nil, err
	}
	return resp.Peers, nil
}

// CreatePeer provisions (or reuses) a peer and returns its config
func (c *Client) CreatePeer(ctx context.Context, params CreatePeerParams) (*PeerConfig, error) {
	var peer PeerConfig
	if err := c.post(ctx, "create peer", "/api/v1/vpn/peers/create", params, &peer); err != nil {
		return nil, err
	}
	return &peer, nil
}

// PeerConfig fetches the .conf text for an owned peer
func (c *Client) PeerConfig(ctx context.Context, telegramID int64, clientID string) (*PeerConfig, error) {
	var peer PeerConfig
	query := map[string]string{
		"telegram_id": fmt.Sprintf("%d", telegramID),
		"client_id":   clientID,
	}
	if err := c.get(ctx, "peer config", "/api/v1/vpn/peers/config", query, &peer); err != nil {
		return nil, err
	}
	return &peer, nil
}

// RevokePeer deletes a peer on the panel and marks it inactive
func (c *Client) RevokePeer(ctx context.Context, telegramID int64, clientID string) error {
	body := map[string]interface{}{
		"telegram_id": telegramID,
		"client_id":   clientID,
	}
	return c.post(ctx, "revoke peer", "/api/v1/vpn/peers/revoke", body, nil)
}

// ConfirmStarsPayment reports a successful Stars payment to the backend
func (c *Client) ConfirmStarsPayment(ctx context.Context, payment models.StarsPayment) (*StarsConfirmation, error) {
	body := map[string]interface{}{
		"telegram_id":                payment.TelegramID,
		"currency":                   payment.Currency,
		"amount":                     payment.Amount,
		"invoice_payload":            payment.InvoicePayload,
		"telegram_payment_charge_id": payment.TelegramChargeID,
		"provider_payment_charge_id": payment.ProviderChargeID,
	}
	var confirmation StarsConfirmation
	if err := c.post(ctx, "confirm stars payment", "/api/v1/payments/stars/confirm", body, &confirmation); err != nil {
		return nil, err
	}
	return &confirmation, nil
}

// RecentPayments lists the newest payments across all users (admin)
func (c *Client) RecentPayments(ctx context.Context, limit int) ([]models.Payment, error) {
	var resp struct {
		Payments []models.Payment `json:"payments"`
	}
	query := map[string]string{"limit": fmt.Sprintf("%d", limit)}
	if err := c.adminGet(ctx, "recent payments", "/api/v1/admin/payments", query, &resp); err != nil {
		return nil, err
	}
	return resp.Payments, nil
}

// UserPayments lists a user's newest payments (admin)
func (c *Client) UserPayments(ctx context.Context, telegramID int64, limit int) ([]models.Payment, error) {
	var resp struct {
		Payments []models.Payment `json:"payments"`
	}
	path := fmt.Sprintf("/api/v1/admin/users/%d/payments", telegramID)
	query := map[string]string{"limit": fmt.Sprintf("%d", limit)}
	if err := c.adminGet(ctx, "user payments", path, query, &resp); err != nil {
		return nil, err
	}
	return resp.Payments, nil
}

// SetUserBlocked blocks or unblocks a user (admin)
func (c *Client) SetUserBlocked(ctx context.Context, telegramID int64, blocked bool) error {
	action := "unblock"
	if blocked {
		action = "block"
	}
	path := fmt.Sprintf("/api/v1/admin/users/%d/%s", telegramID, action)
	req := c.httpClient.R().SetContext(ctx).SetHeader("X-Mgmt-Token", c.mgmtToken)
	resp, err := req.Post(c.baseURL + path)
	if err != nil {
		return fmt.Errorf("%s user request failed: %w", action, err)
	}
	return c.decode(action+" user", resp, nil)
}

func (c *Client) adminGet(ctx context.Context, op, path string, query map[string]string, out interface{}) error {
	req := c.httpClient.R().SetContext(ctx).SetHeader("X-Mgmt-Token", c.mgmtToken)
	if query != nil {
		req.SetQueryParams(query)
	}
	resp, err := req.Get(c.baseURL + path)
	if err != nil {
		return fmt.Errorf("%s request failed: %w", op, err)
	}
	return c.decode(op, resp, out)
}

func (c *Client) get(ctx context.Context, op, path string, query map[string]string, out interface{}) error {
	req := c.httpClient.R().SetContext(ctx)
	if query != nil {
		req.SetQueryParams(query)
	}
	resp, err := req.Get(c.baseURL + path)
	if err != nil {
		return fmt.Errorf("%s request failed: %w", op, err)
	}
	return c.decode(op, resp, out)
}

func (c *Client) post(ctx context.Context, op, path string, body interface{}, out interface{}) error {
	req := c.httpClient.R().SetContext(ctx).SetHeader("Content-Type", "application/json")
	if body != nil {
		req.SetBody(body)
	}
	resp, err := req.Post(c.baseURL + path)
	if err != nil {
		return fmt.Errorf("%s request failed: %w", op, err)
	}
	return c.decode(op, resp, out)
}

func (c *Client) decode(op string, resp *resty.Response, out interface{}) error {
	if resp.StatusCode() < 200 || resp.StatusCode() > 299 {
		detail := extractDetail(resp.Body())
		c.logger.Warnf("Backend %s failed - Status: %d, Detail: %s", op, resp.StatusCode(), detail)
		return &apperrors.BackendAPIError{Operation: op, Status: resp.StatusCode(), Detail: detail}
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(resp.Body(), out); err != nil {
		return fmt.Errorf("failed to parse %s response: %w", op, err)
	}
	return nil
}

func extractDetail(body []byte) string {
	var payload struct {
		Detail string `json:"detail"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && payload.Detail != "" {
		return payload.Detail
	}
	return "unexpected backend error"
}
