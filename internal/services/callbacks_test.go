package services

import (
	"io"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCallbackTokenService(t *testing.T) {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	svc := NewCallbackTokenService(logger)

	token := svc.Register("client-1")
	require.NotEmpty(t, token)

	clientID, ok := svc.Resolve(token)
	require.True(t, ok)
	assert.Equal(t, "client-1", clientID)

	// Tokens are one per registration, not one per client
	other := svc.Register("client-1")
	assert.NotEqual(t, token, other)

	_, ok = svc.Resolve("unknown-token")
	assert.False(t, ok)
}
