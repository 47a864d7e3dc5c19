package domain

import "context"

type TransactionRepository interface {
	GetByID(ctx context.Context, id string) (Transaction, error)
	ListByAccountID(ctx context.Context, accountID string) ([]Transaction, error)
	GetByRequestReference(ctx context.Context, reference string) (Transaction, error)

	// UpdateDescription is the administrative correction path. It touches
	// metadata only; amounts, indicators and balances are never re-applied.
	UpdateDescription(ctx context.Context, id string, description string) (Transaction, error)
}
