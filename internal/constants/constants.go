package constants

const (
	// Network constants
	DefaultTimeout          = 15
	DefaultRetryCount       = 3
	DefaultRetryWaitTime    = 2
	DefaultRetryMaxWaitTime = 10

	// Cache constants
	CacheExpiration      = 30 // minutes
	CacheCleanupInterval = 10 // minutes
	CallbackTokenTTL     = 60 // minutes

	// Stars payment constants
	StarsCurrency      = "XTR"
	StarsPayloadPrefix = "vpn_plan"
	StarsProvider      = "telegram_stars"
	PaymentStatusPaid  = "paid"

	// Trial plan constants
	TrialPlanCode = "trial_10"
	TrialPlanName = "Free 10-day trial"
	TrialDays     = 10

	// Admin listing limits
	DefaultPaymentsLimit     = 20
	MaxPaymentsLimit         = 200
	DefaultUserPaymentsLimit = 50
	MaxUserPaymentsLimit     = 500

	// Formatting constants
	TimestampFormat = "2006-01-02 15:04:05"
	DateFormat      = "2006-01-02"
)
