package ledger

import (
	"errors"
	"fmt"
)

var (
	// ErrInsufficientFunds occurs when an expense apply (or an income
	// revert) would drive a wallet balance negative.
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrCannotDelete occurs when deleting an income transaction would
	// leave the wallet balance negative.
	ErrCannotDelete = errors.New("cannot delete transaction")

	// ErrValidation is the sentinel wrapped by every ValidationError.
	ErrValidation = errors.New("invalid transaction data")
)

// ValidationError reports a missing or malformed draft field. These are
// never retried; they surface to the caller as-is.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}
