// models/account.go
package models

import "time"

// Reserved ledger addresses.
const (
	// EscrowAccount holds custody of every open bounty's reward pool.
	EscrowAccount = "escrow"
	// OracleFeeAccount collects verification fees. Fees are never refunded,
	// whatever the verdict turns out to be.
	OracleFeeAccount = "oracle-fees"
)

// Account mirrors a party's spendable balance inside the escrow service.
// Identities are opaque strings — we only ever compare them for equality.
type Account struct {
	Address   string    `gorm:"primaryKey;size:128" json:"address"`
	Balance   uint64    `gorm:"not null" json:"balance"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
