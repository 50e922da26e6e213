package services

import (
	"io"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateQR(t *testing.T) {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	svc := NewQRService(logger)

	conf := "[Interface]\nPrivateKey = abc\n\n[Peer]\nEndpoint = vpn.example.com:51820\n"
	png, err := svc.GenerateQR(conf)
	require.NoError(t, err)

	assert.Equal(t, []byte("\x89PNG\r\n\x1a\n"), png[:8])
}
