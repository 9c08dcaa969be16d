// services/ledger.go
package services

import (
	"errors"

	"bounty-escrow-system/models"

	"gorm.io/gorm"
)

// Ledger helpers. The tx-taking functions must run inside the caller's
// transaction so a failed operation rolls every balance back together.

func creditAccount(tx *gorm.DB, address string, amount uint64) error {
	var acct models.Account
	if err := tx.Where("address = ?", address).First(&acct).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			acct = models.Account{Address: address, Balance: amount}
			return tx.Create(&acct).Error
		}
		return err
	}
	acct.Balance += amount
	return tx.Save(&acct).Error
}

func debitAccount(tx *gorm.DB, address string, amount uint64) error {
	var acct models.Account
	if err := tx.Where("address = ?", address).First(&acct).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// no account = zero balance
			return ErrInsufficientFunds
		}
		return err
	}
	if acct.Balance < amount {
		return ErrInsufficientFunds
	}
	acct.Balance -= amount
	return tx.Save(&acct).Error
}

func transferFunds(tx *gorm.DB, from, to string, amount uint64) error {
	if err := debitAccount(tx, from, amount); err != nil {
		return err
	}
	return creditAccount(tx, to, amount)
}

// GetAccountBalance returns the mirrored balance for an address. Missing
// accounts read as zero rather than erroring.
func GetAccountBalance(db *gorm.DB, address string) (uint64, error) {
	var acct models.Account
	if err := db.Where("address = ?", address).First(&acct).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, nil
		}
		return 0, err
	}
	return acct.Balance, nil
}
