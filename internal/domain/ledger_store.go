package domain

import (
	"context"

	"github.com/shopspring/decimal"
)

// TransferLeg is one side of a planned transfer: the signed balance delta
// for the account plus the journal entry recording it. Entry.ID,
// Entry.Date and the linkage fields are assigned at commit time.
type TransferLeg struct {
	AccountID string
	Delta     decimal.Decimal
	Entry     Transaction
}

// TransferPlan is a validated transfer ready to commit. Receiver is nil for
// a single-sided entry.
type TransferPlan struct {
	Source   TransferLeg
	Receiver *TransferLeg
}

// LedgerStore commits a transfer plan as a unit: both balance mutations and
// both journal entries land, or none do. The two persisted legs come back
// mutually linked.
type LedgerStore interface {
	CommitTransfer(ctx context.Context, plan TransferPlan) (Transaction, *Transaction, error)
}
