package services

import (
	"context"
	"fmt"
	"testing"

	"bounty-escrow-system/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	testOwner  = "owner-1"
	testOracle = "oracle-node-1"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	// shared cache so every pooled connection sees the same in-memory DB
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&models.RegistryConfig{},
		&models.Account{},
		&models.Bounty{},
		&models.VerificationRequest{},
		&models.EscrowEvent{},
	))

	return db
}

// stubOracle fakes the external verification service.
type stubOracle struct {
	fee        uint64
	feeErr     error
	requestErr error

	nextID     int
	lastPrompt string
	lastFee    uint64
}

func (o *stubOracle) EstimateFee(ctx context.Context, modelID string) (uint64, error) {
	if o.feeErr != nil {
		return 0, o.feeErr
	}
	return o.fee, nil
}

func (o *stubOracle) RequestVerification(ctx context.Context, modelID, prompt string, fee uint64) (string, error) {
	if o.requestErr != nil {
		return "", o.requestErr
	}
	o.nextID++
	o.lastPrompt = prompt
	o.lastFee = fee
	return fmt.Sprintf("req-%d", o.nextID), nil
}

func newTestService(t *testing.T) (*BountyService, *stubOracle) {
	t.Helper()

	db := newTestDB(t)
	oracle := &stubOracle{fee: 10}
	svc := NewBountyService(db, oracle)
	require.NoError(t, svc.InitRegistryConfig(testOwner, testOracle))
	return svc, oracle
}

func fundAccount(t *testing.T, svc *BountyService, address string, amount uint64) {
	t.Helper()
	require.NoError(t, svc.CreditAccount(testOwner, address, amount))
}

func balanceOf(t *testing.T, svc *BountyService, address string) uint64 {
	t.Helper()
	balance, err := GetAccountBalance(svc.DB, address)
	require.NoError(t, err)
	return balance
}

func countEvents(t *testing.T, svc *BountyService, eventType models.EscrowEventType) int64 {
	t.Helper()
	var count int64
	require.NoError(t, svc.DB.Model(&models.EscrowEvent{}).Where("type = ?", eventType).Count(&count).Error)
	return count
}
