package service

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildInvoicePayload(t *testing.T) {
	issuedAt := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	payload := BuildInvoicePayload("stars_30", 42, issuedAt)
	assert.Equal(t, fmt.Sprintf("vpn_plan:stars_30:42:%d", issuedAt.Unix()), payload)
}

func TestParseInvoicePayload(t *testing.T) {
	testCases := []struct {
		name           string
		payload        string
		wantCode       string
		wantTelegramID int64
		wantErr        error
	}{
		{
			name:           "valid payload",
			payload:        "vpn_plan:stars_30:42:1748779200",
			wantCode:       "stars_30",
			wantTelegramID: 42,
		},
		{
			name:    "wrong prefix",
			payload: "other:stars_30:42:1748779200",
			wantErr: ErrBadPayload,
		},
		{
			name:    "missing parts",
			payload: "vpn_plan:stars_30:42",
			wantErr: ErrBadPayload,
		},
		{
			name:    "empty plan code",
			payload: "vpn_plan::42:1748779200",
			wantErr: ErrBadPayload,
		},
		{
			name:    "non numeric telegram id",
			payload: "vpn_plan:stars_30:abc:1748779200",
			wantErr: ErrBadPayload,
		},
		{
			name:    "negative telegram id",
			payload: "vpn_plan:stars_30:-5:1748779200",
			wantErr: ErrBadPayload,
		},
		{
			name:    "empty payload",
			payload: "",
			wantErr: ErrBadPayload,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			code, telegramID, err := ParseInvoicePayload(tc.payload)

			if tc.wantErr != nil {
				require.ErrorIs(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.wantCode, code)
			assert.Equal(t, tc.wantTelegramID, telegramID)
		})
	}
}

func TestInvoicePayloadRoundTrip(t *testing.T) {
	payload := BuildInvoicePayload("stars_90", 123456789, time.Now().UTC())

	code, telegramID, err := ParseInvoicePayload(payload)
	require.NoError(t, err)
	assert.Equal(t, "stars_90", code)
	assert.Equal(t, int64(123456789), telegramID)
}
