package models

import "time"

// VerificationRequest links an oracle-assigned request id to the bounty it
// was issued for. Created in the same transaction that claims the bounty's
// solver slot; deleted when the verdict for that request id is processed,
// so a request id can never settle a bounty twice.
type VerificationRequest struct {
	RequestID string    `gorm:"primaryKey;size:128" json:"request_id"`
	BountyID  uint      `gorm:"not null;uniqueIndex" json:"bounty_id"` // at most one outstanding verification per bounty
	Solver    string    `gorm:"size:128;not null" json:"solver"`
	FeePaid   uint64    `gorm:"not null" json:"fee_paid"`
	CreatedAt time.Time `json:"created_at"`
}
