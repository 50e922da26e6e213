package commands

// TelegramCommands contains all commands for the Telegram bot
const (
	// Main commands
	Start  = "/start"
	Help   = "/help"
	Guide  = "/guide"
	Cancel = "Cancel"

	// Navigation commands
	ReturnToMainMenu = "⬅️ Main Menu"

	// Member commands
	SubscriptionStatus = "📊 Subscription Status"
	ActivateTrial      = "🎁 Activate Trial"
	WireGuardConfigs   = "🔐 WireGuard Configs"
	MyDevices          = "📱 My Devices"
	ConnectionGuide    = "📖 Connection Guide"
	BuySubscription    = "⭐ Buy Subscription"
	About              = "ℹ️ About"

	// Administrator commands
	AdminMenu           = "🛡 Admin Panel"
	AdminPlans          = "🧾 Plans"
	AdminPayments       = "💳 Recent Payments"
	AdminCheckSub       = "🔎 Check Subscription"
	AdminConfirmPayment = "✅ Confirm Stars Payment"
	AdminLastPayment    = "🕘 Last Payment"
	AdminBlockUser      = "🚫 Block User"
	AdminUnblockUser    = "♻️ Unblock User"
)
