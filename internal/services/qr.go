package services

import (
	"github.com/sirupsen/logrus"
	"github.com/skip2/go-qrcode"
)

// QRService renders WireGuard configs as QR codes scannable by the official
// WireGuard apps.
type QRService struct {
	logger *logrus.Logger
}

// NewQRService creates a new QR code service
func NewQRService(logger *logrus.Logger) *QRService {
	return &QRService{
		logger: logger,
	}
}

// GenerateQR encodes a config into a PNG QR code. Configs carry a private
// key, so only the payload length is logged. Medium recovery keeps a full
// .conf scannable at 256px.
func (s *QRService) GenerateQR(conf string) ([]byte, error) {
	s.logger.Debugf("Generating QR code for config of %d bytes", len(conf))

	png, err := qrcode.Encode(conf, qrcode.Medium, 256)
	if err != nil {
		s.logger.Errorf("Failed to generate QR code: %v", err)
		return nil, err
	}

	return png, nil
}
