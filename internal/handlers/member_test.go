package handlers

import (
	"io"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"

	"wg-vpn-service/internal/config"
	"wg-vpn-service/internal/services"
)

func newTestMemberHandler(t *testing.T) *MemberHandler {
	t.Helper()

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	return NewMemberHandler(Services{
		State:     services.NewUserStateService(logger),
		Validator: services.NewTextValidator(logger),
	}, &config.Config{}, logger)
}

func TestDeviceNameFor(t *testing.T) {
	h := newTestMemberHandler(t)

	testCases := []struct {
		name      string
		firstName string
		n         int
		want      string
	}{
		{name: "plain name", firstName: "Alice", n: 1, want: "Alice_42_1"},
		{name: "spaces become underscores", firstName: "Jo Ann", n: 2, want: "Jo_Ann_42_2"},
		{name: "empty name", firstName: "", n: 3, want: "user_42_3"},
		{name: "emoji name falls back", firstName: "⭐⭐⭐", n: 1, want: "user_42_1"},
		{name: "cyrillic letters pass", firstName: "Иван", n: 1, want: "Иван_42_1"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, h.deviceNameFor(tc.firstName, 42, tc.n))
		})
	}
}
