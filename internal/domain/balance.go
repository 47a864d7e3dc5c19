package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Balance is the single mutable record per account. Amount never goes
// negative; all mutation happens through BalanceRepository.Apply.
type Balance struct {
	ID        string
	AccountID string
	Amount    decimal.Decimal
	CreatedAt time.Time
	UpdatedAt time.Time
}
