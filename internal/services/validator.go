package services

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/sirupsen/logrus"

	apperrors "wg-vpn-service/internal/errors"
)

// TextValidator provides validation for admin and device-name input
type TextValidator struct {
	logger *logrus.Logger
}

// NewTextValidator creates a new text validator
func NewTextValidator(logger *logrus.Logger) *TextValidator {
	return &TextValidator{
		logger: logger,
	}
}

// ValidateDeviceName validates a device name for WG-Easy
func (v *TextValidator) ValidateDeviceName(name string) error {
	if len(name) < 1 || len(name) > 64 {
		return &apperrors.ValidationError{Field: "device_name", Message: "must be between 1 and 64 characters"}
	}
	for _, r := range name {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_' && r != '-' && r != '.' {
			return &apperrors.ValidationError{Field: "device_name", Message: "contains invalid characters"}
		}
	}
	return nil
}

// ParseTelegramID parses an admin-entered Telegram ID
func (v *TextValidator) ParseTelegramID(text string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(text), 10, 64)
	if err != nil || id <= 0 {
		return 0, &apperrors.ValidationError{Field: "telegram_id", Message: fmt.Sprintf("invalid value %q", text)}
	}
	return id, nil
}

// SafeFileName turns a client name into a filename suitable for a .conf
// attachment
func (v *TextValidator) SafeFileName(name string) string {
	mapped := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' || r == '-' || r == '.' {
			return r
		}
		return '_'
	}, name)
	if mapped == "" {
		mapped = "wireguard"
	}
	return mapped + ".conf"
}
