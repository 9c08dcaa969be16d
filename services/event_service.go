package services

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"bounty-escrow-system/models"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"gorm.io/gorm"
)

// amountPrinter formats currency amounts with thousands separators for the
// human-readable Detail field (e.g. "1,000,000").
var amountPrinter = message.NewPrinter(language.English)

// recordEvent appends an observer event inside the caller's transaction so
// the notification commits (or rolls back) together with the state change.
func recordEvent(tx *gorm.DB, ev *models.EscrowEvent) error {
	ev.ID = uuid.NewString()
	if ev.Detail == "" {
		ev.Detail = defaultEventDetail(ev)
	}
	return tx.Create(ev).Error
}

func defaultEventDetail(ev *models.EscrowEvent) string {
	switch ev.Type {
	case models.EventPosted:
		return amountPrinter.Sprintf("bounty #%d posted with a reward of %d", ev.BountyID, ev.Amount)
	case models.EventResponseSubmitted:
		return amountPrinter.Sprintf("bounty #%d: response from %s under verification (request %s)", ev.BountyID, ev.Solver, ev.RequestID)
	case models.EventCompleted:
		return amountPrinter.Sprintf("bounty #%d completed: %d paid out to %s", ev.BountyID, ev.Amount, ev.Solver)
	case models.EventVerificationFailed:
		return amountPrinter.Sprintf("bounty #%d reopened: %s", ev.BountyID, ev.Reason)
	case models.EventVerificationExpired:
		return amountPrinter.Sprintf("bounty #%d reopened: verification request %s expired", ev.BountyID, ev.RequestID)
	}
	return ""
}

// StreamEventsSSE streams escrow events to observers in real time.
// Fire-and-forget: no acknowledgement, slow consumers just miss nothing
// because the cursor is created_at based.
func (s *BountyService) StreamEventsSSE(c *fiber.Ctx) error {
	// SSE headers
	c.Set("Content-Type", "text/event-stream")
	c.Set("Cache-Control", "no-cache")
	c.Set("Connection", "keep-alive")
	c.Set("X-Accel-Buffering", "no") // nginx

	db := s.DB

	c.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
		ticker := time.NewTicker(2 * time.Second)
		defer ticker.Stop()

		var lastMaxCreatedAt time.Time

		// Initialize cursor at the newest existing event
		var latest models.EscrowEvent
		if err := db.Order("created_at DESC").First(&latest).Error; err == nil {
			lastMaxCreatedAt = latest.CreatedAt
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			log.Printf("SSE init error: %v", err)
		}

		// Initial keepalive (comment event)
		w.WriteString(":\n\n")
		w.Flush()

		for {
			select {
			case <-ticker.C:
				var newEvents []models.EscrowEvent

				err := db.
					Where("created_at > ?", lastMaxCreatedAt).
					Order("created_at ASC").
					Find(&newEvents).Error

				if err != nil {
					log.Printf("SSE query error: %v", err)
					continue
				}

				if len(newEvents) == 0 {
					continue
				}

				lastMaxCreatedAt = newEvents[len(newEvents)-1].CreatedAt

				for _, ev := range newEvents {
					payload, _ := json.Marshal(ev)

					fmt.Fprintf(w,
						"event: %s\ndata: %s\n\n",
						ev.Type, payload,
					)
				}

				if err := w.Flush(); err != nil {
					// Client disconnected
					return
				}

			case <-c.Context().Done():
				// Client closed connection
				return
			}
		}
	})

	return nil
}
