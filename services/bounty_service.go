// services/bounty_service.go
package services

import (
	"context"
	"errors"
	"log"
	"strconv"
	"sync"

	"bounty-escrow-system/models"

	"github.com/gofiber/fiber/v2"
	"github.com/gosimple/slug"
	"gorm.io/gorm"
)

const maxReferenceLength = 80

// BountyService owns the bounty table, the verification-request correlation
// table and custody movements. State machine per bounty:
//
//	Open (no solver) → AwaitingVerdict (solver, request id) → Completed
//	                                                        ↘ Open (verdict other than YES)
//
// Completed is terminal; every other state allows a fresh submission.
type BountyService struct {
	DB     *gorm.DB
	Oracle OracleVerifier

	// mu serializes state-changing ledger operations; each one then runs
	// in a single DB transaction, so it fully applies or fully rolls back.
	mu sync.Mutex
}

func NewBountyService(db *gorm.DB, oracle OracleVerifier) *BountyService {
	return &BountyService{DB: db, Oracle: oracle}
}

// InitRegistryConfig seeds the singleton config row on first boot. The
// owner identity is set exactly once; later boots keep whatever the owner
// has configured since (SetOracleIdentity survives restarts).
func (s *BountyService) InitRegistryConfig(ownerIdentity, oracleIdentity string) error {
	var cfg models.RegistryConfig
	err := s.DB.First(&cfg).Error
	if err == nil {
		log.Printf("Registry config already present (owner=%s, oracle=%s) — keeping it", cfg.OwnerIdentity, cfg.OracleIdentity)
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	cfg = models.RegistryConfig{OwnerIdentity: ownerIdentity, OracleIdentity: oracleIdentity}
	if err := s.DB.Create(&cfg).Error; err != nil {
		return err
	}
	log.Printf("✅ Registry config seeded: owner=%s, oracle=%s", ownerIdentity, oracleIdentity)
	return nil
}

func (s *BountyService) registryConfig(db *gorm.DB) (*models.RegistryConfig, error) {
	var cfg models.RegistryConfig
	if err := db.First(&cfg).Error; err != nil {
		return nil, err
	}
	return &cfg, nil
}

// --- Core operations ---

// PostBounty moves the deposit from the requester into escrow custody and
// appends a new open bounty. Returns the stored bounty.
func (s *BountyService) PostBounty(requester, question string, deposit uint64) (*models.Bounty, error) {
	if deposit == 0 {
		return nil, ErrInvalidDeposit
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	reference := slug.Make(question)
	if len(reference) > maxReferenceLength {
		reference = reference[:maxReferenceLength]
	}

	var bounty *models.Bounty
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if err := transferFunds(tx, requester, models.EscrowAccount, deposit); err != nil {
			return err
		}

		b := &models.Bounty{
			Reference: reference,
			Question:  question,
			Requester: requester,
			Reward:    deposit,
			Completed: false,
		}
		if err := tx.Create(b).Error; err != nil {
			return err
		}

		if err := recordEvent(tx, &models.EscrowEvent{
			Type:     models.EventPosted,
			BountyID: b.ID,
			Amount:   deposit,
		}); err != nil {
			return err
		}

		bounty = b
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Printf("💰 Bounty #%d posted by %s (reward=%d)", bounty.ID, requester, deposit)
	return bounty, nil
}

// SubmitResponse forwards a candidate answer to the oracle and claims the
// bounty's single verification slot. The fee is spent for good: it moves to
// the oracle fee account and is never refunded, whatever the verdict.
// Returns the oracle-assigned request id.
func (s *BountyService) SubmitResponse(ctx context.Context, caller string, bountyID uint, answer string, feePayment uint64) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var requestID string
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var b models.Bounty
		if err := tx.First(&b, bountyID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		if b.Completed {
			return ErrAlreadyCompleted
		}
		if b.Solver != nil {
			// one outstanding submission per bounty at a time — this is
			// the only concurrency control the state machine needs
			return ErrUnderVerification
		}

		fee, err := s.Oracle.EstimateFee(ctx, VerificationModelID)
		if err != nil {
			return err
		}
		if feePayment < fee {
			return ErrInsufficientFee
		}

		if err := transferFunds(tx, caller, models.OracleFeeAccount, feePayment); err != nil {
			return err
		}

		prompt := BuildVerificationPrompt(b.Question, answer)
		reqID, err := s.Oracle.RequestVerification(ctx, VerificationModelID, prompt, feePayment)
		if err != nil {
			return err
		}

		// The correlation entry must exist before the oracle can possibly
		// call back, hence same transaction as the solver claim.
		vr := &models.VerificationRequest{
			RequestID: reqID,
			BountyID:  b.ID,
			Solver:    caller,
			FeePaid:   feePayment,
		}
		if err := tx.Create(vr).Error; err != nil {
			return err
		}

		b.Solver = &caller
		b.SubmittedAnswer = answer
		if err := tx.Save(&b).Error; err != nil {
			return err
		}

		if err := recordEvent(tx, &models.EscrowEvent{
			Type:      models.EventResponseSubmitted,
			BountyID:  b.ID,
			RequestID: reqID,
			Solver:    caller,
			Amount:    feePayment,
		}); err != nil {
			return err
		}

		requestID = reqID
		return nil
	})
	if err != nil {
		return "", err
	}

	log.Printf("📨 Bounty #%d: response from %s sent for verification (request %s)", bountyID, caller, requestID)
	return requestID, nil
}

// DeliverVerdict is the oracle's callback. Only the identity currently
// registered as the oracle may call it — checked before any state lookup.
// A YES verdict pays the solver and completes the bounty; anything else
// reopens it for resubmission with the reward untouched. Either way the
// correlation entry is consumed, so replaying the same request id fails
// with ErrUnknownRequest instead of settling twice.
//
// metadata is accepted but unused — reserved for future oracle payloads.
func (s *BountyService) DeliverVerdict(caller, requestID, output, metadata string) (*models.Bounty, error) {
	cfg, err := s.registryConfig(s.DB)
	if err != nil {
		return nil, err
	}
	if caller != cfg.OracleIdentity {
		return nil, ErrUnauthorized
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var bounty *models.Bounty
	err = s.DB.Transaction(func(tx *gorm.DB) error {
		var vr models.VerificationRequest
		if err := tx.First(&vr, "request_id = ?", requestID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				// fail closed: never act on a forged or already-consumed id
				return ErrUnknownRequest
			}
			return err
		}

		var b models.Bounty
		if err := tx.First(&b, vr.BountyID).Error; err != nil {
			return err
		}

		// consume the correlation entry on both branches
		if err := tx.Delete(&vr).Error; err != nil {
			return err
		}

		if output == VerdictYes {
			amount := b.Reward
			b.Completed = true
			b.Reward = 0
			if err := tx.Save(&b).Error; err != nil {
				return err
			}
			if err := transferFunds(tx, models.EscrowAccount, vr.Solver, amount); err != nil {
				return err
			}
			if err := recordEvent(tx, &models.EscrowEvent{
				Type:      models.EventCompleted,
				BountyID:  b.ID,
				RequestID: requestID,
				Solver:    vr.Solver,
				Amount:    amount,
			}); err != nil {
				return err
			}
			log.Printf("🏆 Bounty #%d completed: %d paid to %s", b.ID, amount, vr.Solver)
		} else {
			b.Solver = nil
			if err := tx.Save(&b).Error; err != nil {
				return err
			}
			if err := recordEvent(tx, &models.EscrowEvent{
				Type:      models.EventVerificationFailed,
				BountyID:  b.ID,
				RequestID: requestID,
				Solver:    vr.Solver,
				Reason:    "oracle verdict was not YES",
			}); err != nil {
				return err
			}
			log.Printf("❌ Bounty #%d: verification failed, reopened for submissions", b.ID)
		}

		bounty = &b
		return nil
	})
	if err != nil {
		return nil, err
	}
	return bounty, nil
}

// SetOracleIdentity replaces the identity allowed to deliver verdicts.
// Owner only. In-flight verification requests are untouched and will now
// resolve against the new identity — replacing the oracle mid-flight can
// orphan outstanding requests, which is expected and not defended against.
func (s *BountyService) SetOracleIdentity(caller, newIdentity string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.DB.Transaction(func(tx *gorm.DB) error {
		cfg, err := s.registryConfig(tx)
		if err != nil {
			return err
		}
		if caller != cfg.OwnerIdentity {
			return ErrUnauthorized
		}
		cfg.OracleIdentity = newIdentity
		if err := tx.Save(cfg).Error; err != nil {
			return err
		}
		log.Printf("🔧 Oracle identity changed to %s by owner", newIdentity)
		return nil
	})
}

// GetBountyCount returns how many bounties have ever been posted.
func (s *BountyService) GetBountyCount() (int64, error) {
	var count int64
	err := s.DB.Model(&models.Bounty{}).Count(&count).Error
	return count, err
}

// GetBounty fetches a single bounty by id.
func (s *BountyService) GetBounty(bountyID uint) (*models.Bounty, error) {
	var b models.Bounty
	if err := s.DB.First(&b, bountyID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &b, nil
}

// CreditAccount funds an account out of thin air. Owner-only faucet for
// the mirrored ledger; real deposits arrive through the payment gateway.
func (s *BountyService) CreditAccount(caller, address string, amount uint64) error {
	cfg, err := s.registryConfig(s.DB)
	if err != nil {
		return err
	}
	if caller != cfg.OwnerIdentity {
		return ErrUnauthorized
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.DB.Transaction(func(tx *gorm.DB) error {
		return creditAccount(tx, address, amount)
	})
}

// --- HTTP handlers ---

func statusForError(err error) int {
	switch {
	case errors.Is(err, ErrInvalidDeposit):
		return fiber.StatusBadRequest
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrUnknownRequest):
		return fiber.StatusNotFound
	case errors.Is(err, ErrAlreadyCompleted), errors.Is(err, ErrUnderVerification):
		return fiber.StatusConflict
	case errors.Is(err, ErrInsufficientFee), errors.Is(err, ErrInsufficientFunds):
		return fiber.StatusPaymentRequired
	case errors.Is(err, ErrUnauthorized):
		return fiber.StatusUnauthorized
	case errors.Is(err, ErrServiceUnavailable):
		return fiber.StatusServiceUnavailable
	default:
		return fiber.StatusInternalServerError
	}
}

// CreateBounty handles POST /bounties
func (s *BountyService) CreateBounty(c *fiber.Ctx) error {
	caller := c.Locals("user_id").(string)

	var req struct {
		Question string `json:"question" validate:"required"`
		Deposit  uint64 `json:"deposit" validate:"required,min=1"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if req.Question == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "question is required"})
	}

	bounty, err := s.PostBounty(caller, req.Question, req.Deposit)
	if err != nil {
		return c.Status(statusForError(err)).JSON(fiber.Map{"error": err.Error()})
	}

	return c.Status(fiber.StatusCreated).JSON(bounty)
}

// SubmitBountyResponse handles POST /bounties/:id/responses
func (s *BountyService) SubmitBountyResponse(c *fiber.Ctx) error {
	caller := c.Locals("user_id").(string)

	bountyID, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid bounty ID"})
	}

	var req struct {
		Answer     string `json:"answer" validate:"required"`
		FeePayment uint64 `json:"fee_payment"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if req.Answer == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "answer is required"})
	}

	requestID, err := s.SubmitResponse(c.Context(), caller, uint(bountyID), req.Answer, req.FeePayment)
	if err != nil {
		return c.Status(statusForError(err)).JSON(fiber.Map{"error": err.Error()})
	}

	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
		"bounty_id":  bountyID,
		"request_id": requestID,
		"solver":     caller,
	})
}

// DeliverOracleVerdict handles POST /oracle/verdicts — the inbound half of
// the verification round trip.
func (s *BountyService) DeliverOracleVerdict(c *fiber.Ctx) error {
	caller := c.Locals("user_id").(string)

	var req struct {
		RequestID string `json:"request_id" validate:"required"`
		Output    string `json:"output"`
		Metadata  string `json:"metadata"` // accepted, unused
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if req.RequestID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "request_id is required"})
	}

	bounty, err := s.DeliverVerdict(caller, req.RequestID, req.Output, req.Metadata)
	if err != nil {
		return c.Status(statusForError(err)).JSON(fiber.Map{"error": err.Error()})
	}

	return c.JSON(bounty)
}

// UpdateOracleIdentity handles PUT /admin/oracle
func (s *BountyService) UpdateOracleIdentity(c *fiber.Ctx) error {
	caller := c.Locals("user_id").(string)

	var req struct {
		OracleIdentity string `json:"oracle_identity" validate:"required"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if req.OracleIdentity == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "oracle_identity is required"})
	}

	if err := s.SetOracleIdentity(caller, req.OracleIdentity); err != nil {
		return c.Status(statusForError(err)).JSON(fiber.Map{"error": err.Error()})
	}

	return c.JSON(fiber.Map{"message": "Oracle identity updated", "oracle_identity": req.OracleIdentity})
}

// GetBountyCountEndpoint handles GET /bounties/count
func (s *BountyService) GetBountyCountEndpoint(c *fiber.Ctx) error {
	count, err := s.GetBountyCount()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to count bounties"})
	}
	return c.JSON(fiber.Map{"count": count})
}

// GetAllBounties handles GET /bounties
func (s *BountyService) GetAllBounties(c *fiber.Ctx) error {
	var bounties []models.Bounty
	query := s.DB.Order("id ASC")

	// ?completed=true / ?completed=false
	switch c.Query("completed") {
	case "true":
		query = query.Where("completed = ?", true)
	case "false":
		query = query.Where("completed = ?", false)
	}

	if err := query.Find(&bounties).Error; err != nil {
		log.Printf("DB Error fetching bounties: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch bounties"})
	}
	return c.JSON(bounties)
}

// GetBountyByID handles GET /bounties/:id
func (s *BountyService) GetBountyByID(c *fiber.Ctx) error {
	bountyID, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid bounty ID"})
	}

	bounty, err := s.GetBounty(uint(bountyID))
	if err != nil {
		return c.Status(statusForError(err)).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(bounty)
}

// CreditAccountEndpoint handles POST /admin/accounts/credit
func (s *BountyService) CreditAccountEndpoint(c *fiber.Ctx) error {
	caller := c.Locals("user_id").(string)

	var req struct {
		Address string `json:"address" validate:"required"`
		Amount  uint64 `json:"amount" validate:"required,min=1"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if req.Address == "" || req.Amount == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "address and a positive amount are required"})
	}

	if err := s.CreditAccount(caller, req.Address, req.Amount); err != nil {
		return c.Status(statusForError(err)).JSON(fiber.Map{"error": err.Error()})
	}

	return c.JSON(fiber.Map{"message": "Account credited", "address": req.Address, "amount": req.Amount})
}

// GetAccountBalanceEndpoint handles GET /accounts/:address/balance
func (s *BountyService) GetAccountBalanceEndpoint(c *fiber.Ctx) error {
	address := c.Params("address")

	balance, err := GetAccountBalance(s.DB, address)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch balance"})
	}
	return c.JSON(fiber.Map{"address": address, "balance": balance})
}
