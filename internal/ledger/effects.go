package ledger

import (
	"github.com/pocketbook/pocketbook/internal/transaction"
	"github.com/pocketbook/pocketbook/internal/wallet"
)

// applyEffect posts a transaction's contribution onto a wallet snapshot.
// An expense that would drive the balance negative is rejected before any
// field changes.
func applyEffect(w wallet.Wallet, kind transaction.Kind, amount int64) (wallet.Wallet, error) {
	switch kind {
	case transaction.KindIncome:
		w.Balance += amount
		w.TotalIncome += amount
	case transaction.KindExpense:
		if w.Balance-amount < 0 {
			return wallet.Wallet{}, ErrInsufficientFunds
		}
		w.Balance -= amount
		w.TotalExpenses += amount
	default:
		return wallet.Wallet{}, &ValidationError{Field: "type", Reason: "must be income or expense"}
	}
	return w, nil
}

// revertEffect is the exact inverse of applyEffect. Every revert
// corresponds to a prior apply, so the totals never go negative in
// practice; callers that need a floor (delete, wallet moves) check the
// resulting balance themselves.
func revertEffect(w wallet.Wallet, kind transaction.Kind, amount int64) (wallet.Wallet, error) {
	switch kind {
	case transaction.KindIncome:
		w.Balance -= amount
		w.TotalIncome -= amount
	case transaction.KindExpense:
		w.Balance += amount
		w.TotalExpenses -= amount
	default:
		return wallet.Wallet{}, &ValidationError{Field: "type", Reason: "must be income or expense"}
	}
	return w, nil
}
