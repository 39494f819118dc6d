package models

// ConversationState represents the state of a conversation with a user
type ConversationState int

const (
	// Default is the initial state
	Default ConversationState = iota
	// AwaitingCouponCode is the state after the user asked to redeem a code
	AwaitingCouponCode
)

// UserState represents the state of a user's conversation
type UserState struct {
	State ConversationState
}
