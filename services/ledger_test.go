package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestCreditCreatesAccount(t *testing.T) {
	db := newTestDB(t)

	require.NoError(t, db.Transaction(func(tx *gorm.DB) error {
		return creditAccount(tx, "alice", 100)
	}))

	balance, err := GetAccountBalance(db, "alice")
	require.NoError(t, err)
	assert.Equal(t, uint64(100), balance)
}

func TestCreditAccumulates(t *testing.T) {
	db := newTestDB(t)

	require.NoError(t, db.Transaction(func(tx *gorm.DB) error {
		if err := creditAccount(tx, "alice", 100); err != nil {
			return err
		}
		return creditAccount(tx, "alice", 50)
	}))

	balance, err := GetAccountBalance(db, "alice")
	require.NoError(t, err)
	assert.Equal(t, uint64(150), balance)
}

func TestDebitMissingAccount(t *testing.T) {
	db := newTestDB(t)

	err := db.Transaction(func(tx *gorm.DB) error {
		return debitAccount(tx, "ghost", 1)
	})
	assert.ErrorIs(t, err, ErrInsufficientFunds)
}

func TestDebitInsufficientBalance(t *testing.T) {
	db := newTestDB(t)

	require.NoError(t, db.Transaction(func(tx *gorm.DB) error {
		return creditAccount(tx, "alice", 10)
	}))

	err := db.Transaction(func(tx *gorm.DB) error {
		return debitAccount(tx, "alice", 11)
	})
	assert.ErrorIs(t, err, ErrInsufficientFunds)

	balance, err := GetAccountBalance(db, "alice")
	require.NoError(t, err)
	assert.Equal(t, uint64(10), balance, "failed debit leaves balance untouched")
}

func TestTransferFunds(t *testing.T) {
	db := newTestDB(t)

	require.NoError(t, db.Transaction(func(tx *gorm.DB) error {
		return creditAccount(tx, "alice", 100)
	}))

	require.NoError(t, db.Transaction(func(tx *gorm.DB) error {
		return transferFunds(tx, "alice", "bob", 30)
	}))

	aliceBalance, err := GetAccountBalance(db, "alice")
	require.NoError(t, err)
	bobBalance, err := GetAccountBalance(db, "bob")
	require.NoError(t, err)
	assert.Equal(t, uint64(70), aliceBalance)
	assert.Equal(t, uint64(30), bobBalance)
}

func TestTransferRollsBackAsOne(t *testing.T) {
	db := newTestDB(t)

	require.NoError(t, db.Transaction(func(tx *gorm.DB) error {
		return creditAccount(tx, "alice", 10)
	}))

	err := db.Transaction(func(tx *gorm.DB) error {
		return transferFunds(tx, "alice", "bob", 50)
	})
	assert.ErrorIs(t, err, ErrInsufficientFunds)

	aliceBalance, err := GetAccountBalance(db, "alice")
	require.NoError(t, err)
	bobBalance, err := GetAccountBalance(db, "bob")
	require.NoError(t, err)
	assert.Equal(t, uint64(10), aliceBalance)
	assert.Equal(t, uint64(0), bobBalance)
}

func TestGetAccountBalanceMissingReadsZero(t *testing.T) {
	db := newTestDB(t)

	balance, err := GetAccountBalance(db, "nobody")
	require.NoError(t, err)
	assert.Equal(t, uint64(0), balance)
}
