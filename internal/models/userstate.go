package models

// ConversationState represents the state of a conversation with a user
type ConversationState int

const (
	// Default is the initial state
	Default ConversationState = iota
	// AwaitingCheckSubscriptionID is the state when an admin is inputting a
	// Telegram ID to look up
	AwaitingCheckSubscriptionID
	// AwaitingConfirmPayment is the state when an admin is inputting a manual
	// Stars confirmation line
	AwaitingConfirmPayment
	// AwaitingBlockUserID is the state when an admin is inputting a Telegram ID
	// to block
	AwaitingBlockUserID
	// AwaitingUnblockUserID is the state when an admin is inputting a Telegram
	// ID to unblock
	AwaitingUnblockUserID
)

// UserState represents the state of a user's conversation
type UserState struct {
	State ConversationState
}
