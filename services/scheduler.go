// services/scheduler.go
package services

import (
	"log"
	"time"

	"bounty-escrow-system/models"

	"github.com/go-co-op/gocron/v2"
	"gorm.io/gorm"
)

// StartExpirySweep runs an optional background job that rolls bounties
// stuck in AwaitingVerdict back to Open once their verification request is
// older than ttl. Opt-in via VERIFICATION_TTL: without it, a bounty whose
// verdict never arrives stays locked forever, matching the original escrow
// semantics. The oracle fee is not refunded either way.
func (s *BountyService) StartExpirySweep(ttl time.Duration) {
	sched, _ := gocron.NewScheduler()
	sched.Start()

	// Every minute: reopen bounties whose verification timed out
	_, _ = sched.NewJob(
		gocron.DurationJob(1*time.Minute),
		gocron.NewTask(func() {
			expired, err := s.ExpireStaleVerifications(time.Now().Add(-ttl))
			if err != nil {
				log.Printf("[ExpirySweep] DB error: %v", err)
				return
			}
			if expired > 0 {
				log.Printf("⏰ Expired %d stale verification request(s)", expired)
			}
		}),
	)
}

// ExpireStaleVerifications consumes every verification request created
// before the cutoff and reopens its bounty. Returns how many were expired.
func (s *BountyService) ExpireStaleVerifications(before time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var expired int
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var stale []models.VerificationRequest
		if err := tx.Where("created_at < ?", before).Find(&stale).Error; err != nil {
			return err
		}

		for _, vr := range stale {
			var b models.Bounty
			if err := tx.First(&b, vr.BountyID).Error; err != nil {
				return err
			}

			if err := tx.Delete(&vr).Error; err != nil {
				return err
			}

			b.Solver = nil
			if err := tx.Save(&b).Error; err != nil {
				return err
			}

			if err := recordEvent(tx, &models.EscrowEvent{
				Type:      models.EventVerificationExpired,
				BountyID:  b.ID,
				RequestID: vr.RequestID,
				Solver:    vr.Solver,
				Reason:    "no verdict before the verification deadline",
			}); err != nil {
				return err
			}
			expired++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return expired, nil
}
