package services

import "errors"

// Rejections surfaced by the registry. Every failed state-changing call
// leaves the ledger — custody balances included — exactly as it was.
var (
	ErrInvalidDeposit     = errors.New("deposit must be greater than zero")
	ErrNotFound           = errors.New("bounty not found")
	ErrAlreadyCompleted   = errors.New("bounty already completed")
	ErrUnderVerification  = errors.New("bounty already has a submission under verification")
	ErrInsufficientFee    = errors.New("fee payment below the current estimate")
	ErrUnauthorized       = errors.New("caller not authorized")
	ErrUnknownRequest     = errors.New("unknown verification request")
	ErrServiceUnavailable = errors.New("oracle service unavailable")
	ErrInsufficientFunds  = errors.New("account balance too low")
)
