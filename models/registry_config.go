package models

import "time"

// RegistryConfig is the singleton row holding the privileged identities.
// OwnerIdentity is set once at first boot and never changes; OracleIdentity
// is the only identity allowed to deliver verdicts and can be replaced by
// the owner at runtime.
type RegistryConfig struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	OwnerIdentity  string    `gorm:"size:128;not null" json:"owner_identity"`
	OracleIdentity string    `gorm:"size:128;not null" json:"oracle_identity"`
	UpdatedAt      time.Time `json:"updated_at"`
}
