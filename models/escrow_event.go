package models

import "time"

// EscrowEventType identifies what happened to a bounty
type EscrowEventType string

const (
	EventPosted              EscrowEventType = "posted"
	EventResponseSubmitted   EscrowEventType = "response_submitted"
	EventCompleted           EscrowEventType = "completed"
	EventVerificationFailed  EscrowEventType = "verification_failed"
	EventVerificationExpired EscrowEventType = "verification_expired"
)

// EscrowEvent is an append-only notification row for off-chain observers.
// Written in the same transaction as the state change it describes, then
// streamed to SSE subscribers and archived alongside the bounty.
type EscrowEvent struct {
	ID        string          `gorm:"primaryKey;type:uuid" json:"id"`
	Type      EscrowEventType `gorm:"size:32;not null;index" json:"type"`
	BountyID  uint            `gorm:"index" json:"bounty_id"`
	RequestID string          `gorm:"size:128" json:"request_id,omitempty"`
	Solver    string          `gorm:"size:128" json:"solver,omitempty"`
	Amount    uint64          `json:"amount"`
	Reason    string          `gorm:"type:text" json:"reason,omitempty"`
	Detail    string          `gorm:"type:text" json:"detail"`
	CreatedAt time.Time       `gorm:"index" json:"created_at"`
}
