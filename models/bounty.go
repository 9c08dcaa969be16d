package models

import "time"

// Bounty = a funded question awaiting a verified answer.
// Rows are never deleted — completed bounties stay around as audit history.
type Bounty struct {
	ID              uint       `gorm:"primaryKey" json:"id"`
	Reference       string     `gorm:"size:160;index" json:"reference"` // slug of the question, for readable URLs/logs
	Question        string     `gorm:"type:text;not null" json:"question"`
	Requester       string     `gorm:"size:128;not null;index" json:"requester"`
	Reward          uint64     `gorm:"not null" json:"reward"` // smallest currency unit; equals custody currently held
	Completed       bool       `gorm:"not null;default:false" json:"completed"`
	Solver          *string    `gorm:"size:128" json:"solver,omitempty"` // non-nil while a submission is under verification
	SubmittedAnswer string     `gorm:"type:text" json:"submitted_answer"`
	ArchivedAt      *time.Time `gorm:"index" json:"archived_at,omitempty"` // set once the audit archiver has uploaded a snapshot
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}
