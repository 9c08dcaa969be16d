package workers

import (
	"context"
	"fmt"
	"log"
	"time"

	"bounty-escrow-system/models"
	"bounty-escrow-system/utils"

	"gorm.io/gorm"
)

// AuditArchiver uploads immutable JSON snapshots of completed bounties to
// the archive bucket. Bounty rows are never deleted, so together with the
// event trail this gives observers a durable audit history.
type AuditArchiver struct {
	DB *gorm.DB
}

func NewAuditArchiver(db *gorm.DB) *AuditArchiver {
	return &AuditArchiver{DB: db}
}

// bountySnapshot is the archived document: the final bounty row plus every
// event it ever emitted.
type bountySnapshot struct {
	Bounty     models.Bounty        `json:"bounty"`
	Events     []models.EscrowEvent `json:"events"`
	ArchivedAt time.Time            `json:"archived_at"`
}

// ArchiveCompletedBounties uploads a snapshot for every completed bounty
// that has not been archived yet. Returns how many were archived.
func (a *AuditArchiver) ArchiveCompletedBounties(ctx context.Context) (int, error) {
	var pending []models.Bounty
	if err := a.DB.
		Where("completed = ? AND archived_at IS NULL", true).
		Order("id ASC").
		Find(&pending).Error; err != nil {
		return 0, err
	}

	archived := 0
	for _, b := range pending {
		var events []models.EscrowEvent
		if err := a.DB.
			Where("bounty_id = ?", b.ID).
			Order("created_at ASC").
			Find(&events).Error; err != nil {
			return archived, err
		}

		now := time.Now().UTC()
		key := fmt.Sprintf("bounties/%d.json", b.ID)
		if _, err := utils.UploadJSONToArchive(ctx, key, bountySnapshot{
			Bounty:     b,
			Events:     events,
			ArchivedAt: now,
		}); err != nil {
			// Do NOT mark as archived on failure — retry on the next poll
			return archived, err
		}

		b.ArchivedAt = &now
		if err := a.DB.Save(&b).Error; err != nil {
			return archived, err
		}
		archived++
	}

	return archived, nil
}

// PollCompletedBounties runs the archiver on a fixed interval until ctx is
// cancelled.
func PollCompletedBounties(ctx context.Context, archiver *AuditArchiver, pollInterval time.Duration) {
	log.Println("Starting audit archive polling...")

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("Audit archive polling stopped.")
			return
		case <-ticker.C:
			count, err := archiver.ArchiveCompletedBounties(ctx)
			if err != nil {
				log.Printf("❌ Error archiving completed bounties: %v", err)
				continue
			}
			if count > 0 {
				log.Printf("📦 Archived %d completed bounty snapshot(s).", count)
			}
		}
	}
}
