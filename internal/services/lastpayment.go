package services

import (
	"sync"

	"github.com/sirupsen/logrus"

	"wg-vpn-service/internal/models"
)

// LastPaymentService keeps the most recent successful Stars payment in
// memory, so an admin can inspect or re-confirm it after a backend hiccup
type LastPaymentService struct {
	mu     sync.RWMutex
	last   *models.StarsPayment
	logger *logrus.Logger
}

// NewLastPaymentService creates a new last payment service
func NewLastPaymentService(logger *logrus.Logger) *LastPaymentService {
	return &LastPaymentService{logger: logger}
}

// Store remembers the payment as the most recent one
func (s *LastPaymentService) Store(payment models.StarsPayment) {
	s.mu.Lock()
	s.last = &payment
	s.mu.Unlock()
	s.logger.Debugf("Stored last payment %s from user %d", payment.TelegramChargeID, payment.TelegramID)
}

// Get returns the most recent payment, if any
func (s *LastPaymentService) Get() (*models.StarsPayment, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.last == nil {
		return nil, false
	}
	copied := *s.last
	return &copied, true
}
