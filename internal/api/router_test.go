package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"wg-vpn-service/internal/config"
	"wg-vpn-service/internal/models"
	"wg-vpn-service/internal/repository"
	"wg-vpn-service/internal/service"
	"wg-vpn-service/internal/service/mocks"
)

type okPinger struct{}

func (okPinger) Ping(context.Context) error { return nil }

type testEnv struct {
	router   http.Handler
	users    *mocks.MockUserRepository
	plans    *mocks.MockPlanRepository
	subs     *mocks.MockSubscriptionRepository
	payments *mocks.MockPaymentRepository
	peers    *mocks.MockPeerRepository
	wg       *mocks.MockWireGuard
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	env := &testEnv{
		users:    new(mocks.MockUserRepository),
		plans:    new(mocks.MockPlanRepository),
		subs:     new(mocks.MockSubscriptionRepository),
		payments: new(mocks.MockPaymentRepository),
		peers:    new(mocks.MockPeerRepository),
		wg:       new(mocks.MockWireGuard),
	}

	cfg := &config.Config{
		Server: config.ServerConfig{MgmtToken: "mgmt-secret"},
		WGEasy: config.WGEasyConfig{URL: "https://panel.example.com"},
		VPN:    config.VPNConfig{DefaultLocationCode: "nl-1", DefaultLocationName: "Netherlands", MaxConfigsPerUser: 2},
	}

	env.router = NewRouter(Deps{
		Config:        cfg,
		Logger:        logger,
		DB:            okPinger{},
		Users:         service.NewUserService(env.users, logger),
		Subscriptions: service.NewSubscriptionService(env.users, env.plans, env.subs, logger),
		Peers:         service.NewPeerService(env.users, env.peers, env.wg, cfg.VPN, logger),
		Payments:      service.NewPaymentService(env.users, env.plans, env.subs, env.payments, logger),
	})
	return env
}

func (e *testEnv) do(t *testing.T, method, path string, body interface{}, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/health", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, true, body["database"])
}

func TestFromTelegramRegistersNewUser(t *testing.T) {
	env := newTestEnv(t)

	env.users.On("GetUserByTelegramID", mock.Anything, int64(42)).Return(nil, repository.ErrNotFound)
	env.users.On("CreateUser", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		args.Get(1).(*models.User).ID = 7
	}).Return(nil)
	env.subs.On("HasTrialSubscription", mock.Anything, int64(7)).Return(false, nil)
	env.subs.On("GetActiveSubscription", mock.Anything, int64(7), mock.Anything).Return(nil, repository.ErrNotFound)

	rec := env.do(t, http.MethodPost, "/api/v1/users/from-telegram",
		map[string]interface{}{"telegram_id": 42, "first_name": "Alice"}, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	assert.Equal(t, true, body["is_new"])
	assert.Equal(t, true, body["trial_available"])
	env.users.AssertExpectations(t)
}

func TestFromTelegramRejectsMissingID(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/v1/users/from-telegram", map[string]interface{}{"first_name": "Alice"}, nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSubscriptionStatusBlockedUser(t *testing.T) {
	env := newTestEnv(t)

	env.users.On("GetUserByTelegramID", mock.Anything, int64(42)).
		Return(&models.User{ID: 7, TelegramID: 42, IsBlocked: true}, nil)

	rec := env.do(t, http.MethodGet, "/api/v1/users/42/subscription/active", nil, nil)
	require.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), "detail")
}

func TestTrialDenialIsABusinessOutcome(t *testing.T) {
	env := newTestEnv(t)

	env.users.On("GetUserByTelegramID", mock.Anything, int64(42)).Return(&models.User{ID: 7, TelegramID: 42}, nil)
	env.subs.On("HasTrialSubscription", mock.Anything, int64(7)).Return(true, nil)

	rec := env.do(t, http.MethodPost, "/api/v1/users/42/trial/activate", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "trial already used", body["reason"])
}

func TestStarsConfirmIsIdempotent(t *testing.T) {
	env := newTestEnv(t)

	planID := int64(3)
	stored := &models.Payment{ID: 21, TelegramID: 42, PlanID: &planID}
	env.payments.On("GetPaymentByChargeID", mock.Anything, "charge-1").Return(stored, nil)
	env.plans.On("GetPlanByID", mock.Anything, planID).
		Return(&models.SubscriptionPlan{ID: 3, Code: "stars_30", Name: "30 days"}, nil)

	rec := env.do(t, http.MethodPost, "/api/v1/payments/stars/confirm", map[string]interface{}{
		"telegram_id":                42,
		"currency":                   "XTR",
		"amount":                     150,
		"invoice_payload":            "vpn_plan:stars_30:42:1748779200",
		"telegram_payment_charge_id": "charge-1",
	}, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	assert.Equal(t, true, body["already_confirmed"])
	env.subs.AssertNotCalled(t, "CreateSubscriptionWithPayment", mock.Anything, mock.Anything, mock.Anything)
}

func TestPeerCreateDeniedAtDeviceLimit(t *testing.T) {
	env := newTestEnv(t)

	env.users.On("GetUserByTelegramID", mock.Anything, int64(42)).Return(&models.User{ID: 7, TelegramID: 42}, nil)
	env.peers.On("CountActivePeers", mock.Anything, int64(7)).Return(2, nil)

	rec := env.do(t, http.MethodPost, "/api/v1/vpn/peers/create", map[string]interface{}{
		"telegram_id": 42,
		"device_name": "phone-3",
	}, nil)
	require.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "device limit reached")
	env.wg.AssertNotCalled(t, "CreateClient", mock.Anything, mock.Anything)
}

func TestAdminRoutesRequireMgmtToken(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/v1/admin/payments", nil, nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	env.payments.On("ListRecentPayments", mock.Anything, mock.Anything).Return([]models.Payment{}, nil)

	rec = env.do(t, http.MethodGet, "/api/v1/admin/payments", nil, map[string]string{"X-Mgmt-Token": "mgmt-secret"})
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestAdminBlockUser(t *testing.T) {
	env := newTestEnv(t)

	env.users.On("SetUserBlocked", mock.Anything, int64(42), true).Return(nil)

	rec := env.do(t, http.MethodPost, "/api/v1/admin/users/42/block", nil,
		map[string]string{"X-Mgmt-Token": "mgmt-secret"})
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	assert.Equal(t, true, body["ok"])
	env.users.AssertExpectations(t)
}
