package domain

import "context"

type AccountRepository interface {
	GetByID(ctx context.Context, id string) (Account, error)
	GetByAccountNumber(ctx context.Context, accountNumber string) (Account, error)
}
