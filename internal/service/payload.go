package service

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"wg-vpn-service/internal/constants"
)

// BuildInvoicePayload encodes a Stars invoice payload:
// vpn_plan:<plan_code>:<telegram_id>:<unix_ts>
func BuildInvoicePayload(planCode string, telegramID int64, issuedAt time.Time) string {
	return fmt.Sprintf("%s:%s:%d:%d", constants.StarsPayloadPrefix, planCode, telegramID, issuedAt.Unix())
}

// ParseInvoicePayload decodes the payload back into plan code and Telegram ID
func ParseInvoicePayload(payload string) (string, int64, error) {
	parts := strings.Split(payload, ":")
	if len(parts) != 4 || parts[0] != constants.StarsPayloadPrefix || parts[1] == "" {
		return "", 0, ErrBadPayload
	}
	telegramID, err := strconv.ParseInt(parts[2], 10, 64)
	if err != nil || telegramID <= 0 {
		return "", 0, ErrBadPayload
	}
	return parts[1], telegramID, nil
}
