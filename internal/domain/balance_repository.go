package domain

import (
	"context"

	"github.com/shopspring/decimal"
)

// BalanceRepository is the balance ledger: every balance mutation in the
// engine goes through Apply.
type BalanceRepository interface {
	GetByAccountID(ctx context.Context, accountID string) (Balance, error)

	// Apply adds the signed delta to the account's balance and returns the
	// new amount. A debit that the current balance cannot cover fails with
	// ErrInsufficientBalance and leaves the balance unchanged. Apply is
	// atomic with respect to concurrent applies on the same balance.
	Apply(ctx context.Context, accountID string, delta decimal.Decimal) (decimal.Decimal, error)
}
