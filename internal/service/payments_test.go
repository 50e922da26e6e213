package service

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"wg-vpn-service/internal/models"
	"wg-vpn-service/internal/repository"
	"wg-vpn-service/internal/service/mocks"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func starsRequest() StarsConfirmRequest {
	return StarsConfirmRequest{
		TelegramID:       42,
		Currency:         "XTR",
		Amount:           150,
		InvoicePayload:   "vpn_plan:stars_30:42:1748779200",
		TelegramChargeID: "charge-1",
		ProviderChargeID: "provider-1",
	}
}

func TestPaymentServiceConfirmStars(t *testing.T) {
	user := &models.User{ID: 7, TelegramID: 42}
	plan := &models.SubscriptionPlan{ID: 3, Code: "stars_30", Name: "30 days", DurationDays: 30, PriceStars: 150, IsActive: true}

	t.Run("confirms a new payment", func(t *testing.T) {
		users := new(mocks.MockUserRepository)
		plans := new(mocks.MockPlanRepository)
		subs := new(mocks.MockSubscriptionRepository)
		payments := new(mocks.MockPaymentRepository)
		svc := NewPaymentService(users, plans, subs, payments, testLogger())

		payments.On("GetPaymentByChargeID", mock.Anything, "charge-1").Return(nil, repository.ErrNotFound)
		users.On("GetUserByTelegramID", mock.Anything, int64(42)).Return(user, nil)
		plans.On("GetPlanByCode", mock.Anything, "stars_30").Return(plan, nil)
		subs.On("CreateSubscriptionWithPayment", mock.Anything, mock.Anything, mock.Anything).
			Run(func(args mock.Arguments) {
				sub := args.Get(1).(*models.Subscription)
				payment := args.Get(2).(*models.Payment)
				sub.ID = 11
				payment.ID = 21
				payment.SubscriptionID = &sub.ID
			}).Return(nil)

		result, err := svc.ConfirmStars(context.Background(), starsRequest())
		require.NoError(t, err)

		assert.True(t, result.Ok)
		assert.False(t, result.AlreadyConfirmed)
		assert.Equal(t, int64(21), result.PaymentID)
		assert.Equal(t, "stars_30", result.PlanCode)
		require.NotNil(t, result.ActiveUntil)
		assert.WithinDuration(t, time.Now().UTC().AddDate(0, 0, 30), *result.ActiveUntil, time.Minute)

		subs.AssertExpectations(t)
		payments.AssertExpectations(t)
	})

	t.Run("replays an already confirmed charge", func(t *testing.T) {
		plans := new(mocks.MockPlanRepository)
		subs := new(mocks.MockSubscriptionRepository)
		payments := new(mocks.MockPaymentRepository)
		svc := NewPaymentService(new(mocks.MockUserRepository), plans, subs, payments, testLogger())

		planID := int64(3)
		subID := int64(11)
		stored := &models.Payment{ID: 21, TelegramID: 42, PlanID: &planID, SubscriptionID: &subID}
		endsAt := time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)

		payments.On("GetPaymentByChargeID", mock.Anything, "charge-1").Return(stored, nil)
		plans.On("GetPlanByID", mock.Anything, planID).Return(plan, nil)
		subs.On("GetSubscriptionByID", mock.Anything, subID).Return(&models.Subscription{ID: subID, EndsAt: endsAt}, nil)

		result, err := svc.ConfirmStars(context.Background(), starsRequest())
		require.NoError(t, err)

		assert.True(t, result.Ok)
		assert.True(t, result.AlreadyConfirmed)
		assert.Equal(t, int64(21), result.PaymentID)
		require.NotNil(t, result.ActiveUntil)
		assert.Equal(t, endsAt, *result.ActiveUntil)

		subs.AssertNotCalled(t, "CreateSubscriptionWithPayment", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("rejects a missing charge id", func(t *testing.T) {
		svc := NewPaymentService(new(mocks.MockUserRepository), new(mocks.MockPlanRepository),
			new(mocks.MockSubscriptionRepository), new(mocks.MockPaymentRepository), testLogger())

		req := starsRequest()
		req.TelegramChargeID = ""

		_, err := svc.ConfirmStars(context.Background(), req)
		require.Error(t, err)
	})

	t.Run("rejects a payload for another user", func(t *testing.T) {
		users := new(mocks.MockUserRepository)
		payments := new(mocks.MockPaymentRepository)
		svc := NewPaymentService(users, new(mocks.MockPlanRepository),
			new(mocks.MockSubscriptionRepository), payments, testLogger())

		payments.On("GetPaymentByChargeID", mock.Anything, "charge-1").Return(nil, repository.ErrNotFound)
		users.On("GetUserByTelegramID", mock.Anything, int64(42)).Return(user, nil)

		req := starsRequest()
		req.InvoicePayload = "vpn_plan:stars_30:999:1748779200"

		_, err := svc.ConfirmStars(context.Background(), req)
		require.ErrorIs(t, err, ErrBadPayload)
	})

	t.Run("rejects an amount mismatch", func(t *testing.T) {
		users := new(mocks.MockUserRepository)
		plans := new(mocks.MockPlanRepository)
		payments := new(mocks.MockPaymentRepository)
		svc := NewPaymentService(users, plans, new(mocks.MockSubscriptionRepository), payments, testLogger())

		payments.On("GetPaymentByChargeID", mock.Anything, "charge-1").Return(nil, repository.ErrNotFound)
		users.On("GetUserByTelegramID", mock.Anything, int64(42)).Return(user, nil)
		plans.On("GetPlanByCode", mock.Anything, "stars_30").Return(plan, nil)

		req := starsRequest()
		req.Amount = 100

		_, err := svc.ConfirmStars(context.Background(), req)
		require.ErrorIs(t, err, ErrAmountMismatch)
	})

	t.Run("rejects an inactive plan", func(t *testing.T) {
		users := new(mocks.MockUserRepository)
		plans := new(mocks.MockPlanRepository)
		payments := new(mocks.MockPaymentRepository)
		svc := NewPaymentService(users, plans, new(mocks.MockSubscriptionRepository), payments, testLogger())

		inactive := *plan
		inactive.IsActive = false

		payments.On("GetPaymentByChargeID", mock.Anything, "charge-1").Return(nil, repository.ErrNotFound)
		users.On("GetUserByTelegramID", mock.Anything, int64(42)).Return(user, nil)
		plans.On("GetPlanByCode", mock.Anything, "stars_30").Return(&inactive, nil)

		_, err := svc.ConfirmStars(context.Background(), starsRequest())
		require.ErrorIs(t, err, ErrPlanInactive)
	})

	t.Run("rejects an unknown plan", func(t *testing.T) {
		users := new(mocks.MockUserRepository)
		plans := new(mocks.MockPlanRepository)
		payments := new(mocks.MockPaymentRepository)
		svc := NewPaymentService(users, plans, new(mocks.MockSubscriptionRepository), payments, testLogger())

		payments.On("GetPaymentByChargeID", mock.Anything, "charge-1").Return(nil, repository.ErrNotFound)
		users.On("GetUserByTelegramID", mock.Anything, int64(42)).Return(user, nil)
		plans.On("GetPlanByCode", mock.Anything, "stars_30").Return(nil, repository.ErrNotFound)

		_, err := svc.ConfirmStars(context.Background(), starsRequest())
		require.ErrorIs(t, err, ErrPlanNotFound)
	})

	t.Run("rejects a blocked user", func(t *testing.T) {
		users := new(mocks.MockUserRepository)
		payments := new(mocks.MockPaymentRepository)
		svc := NewPaymentService(users, new(mocks.MockPlanRepository),
			new(mocks.MockSubscriptionRepository), payments, testLogger())

		payments.On("GetPaymentByChargeID", mock.Anything, "charge-1").Return(nil, repository.ErrNotFound)
		users.On("GetUserByTelegramID", mock.Anything, int64(42)).Return(&models.User{ID: 7, TelegramID: 42, IsBlocked: true}, nil)

		_, err := svc.ConfirmStars(context.Background(), starsRequest())
		require.ErrorIs(t, err, ErrUserBlocked)
	})
}

func TestPaymentServiceLimits(t *testing.T) {
	testCases := []struct {
		name      string
		limit     int
		wantLimit int
	}{
		{name: "default on zero", limit: 0, wantLimit: 20},
		{name: "default on negative", limit: -5, wantLimit: 20},
		{name: "passes through", limit: 50, wantLimit: 50},
		{name: "clamps to max", limit: 10000, wantLimit: 200},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			payments := new(mocks.MockPaymentRepository)
			svc := NewPaymentService(new(mocks.MockUserRepository), new(mocks.MockPlanRepository),
				new(mocks.MockSubscriptionRepository), payments, testLogger())

			payments.On("ListRecentPayments", mock.Anything, tc.wantLimit).Return([]models.Payment{}, nil)

			_, err := svc.Recent(context.Background(), tc.limit)
			require.NoError(t, err)
			payments.AssertExpectations(t)
		})
	}
}
