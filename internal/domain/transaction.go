package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type Indicator string

const (
	IndicatorDebit  Indicator = "DEBIT"
	IndicatorCredit Indicator = "CREDIT"
)

// ParseIndicator normalizes the wire value into the closed indicator set.
// The legacy two-letter codes are still accepted at the boundary.
func ParseIndicator(value string) (Indicator, error) {
	switch strings.ToUpper(strings.TrimSpace(value)) {
	case "DEBIT", "DB":
		return IndicatorDebit, nil
	case "CREDIT", "CR":
		return IndicatorCredit, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidIndicator, value)
	}
}

// SignedAmount returns the effect of amount on a balance under this
// indicator: negative for a debit, positive for a credit.
func (i Indicator) SignedAmount(amount decimal.Decimal) decimal.Decimal {
	if i == IndicatorDebit {
		return amount.Neg()
	}
	return amount
}

type Transaction struct {
	ID                    string
	AccountID             string
	Amount                decimal.Decimal
	Indicator             Indicator
	ReceiverAccountNumber *string
	Description           string
	Date                  time.Time
	LinkedTransactionID   *string
	RequestReference      *string
}
