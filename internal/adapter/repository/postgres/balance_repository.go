package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/ha7san14/dev-bank-v2/internal/domain"
	"github.com/ha7san14/dev-bank-v2/internal/logger"
	"github.com/shopspring/decimal"
)

type BalanceRepository struct {
	db *sql.DB
}

func NewBalanceRepository(db *sql.DB) *BalanceRepository {
	return &BalanceRepository{db: db}
}

func (r *BalanceRepository) GetByAccountID(ctx context.Context, accountID string) (domain.Balance, error) {
	logger.Info("balance repository get by account id", logger.Fields{
		"accountId": accountID,
	})

	const query = `
SELECT id, account_id, amount, created_at, updated_at
FROM balances
WHERE account_id = $1`

	var balance domain.Balance
	if err := r.db.QueryRowContext(ctx, query, accountID).Scan(
		&balance.ID,
		&balance.AccountID,
		&balance.Amount,
		&balance.CreatedAt,
		&balance.UpdatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			logger.Info("balance repository record not found", logger.Fields{
				"accountId": accountID,
			})
			return domain.Balance{}, domain.ErrAccountNotFound
		}
		logger.Error("balance repository get by account id failed", err, logger.Fields{
			"accountId": accountID,
		})
		return domain.Balance{}, fmt.Errorf("%w: get balance by account id: %v", domain.ErrStorageFailure, err)
	}

	return balance, nil
}

// Apply adds the signed delta in a single conditional statement so two
// concurrent debits can never both read the pre-update amount. A delta the
// balance cannot cover matches zero rows and the balance stays untouched.
func (r *BalanceRepository) Apply(ctx context.Context, accountID string, delta decimal.Decimal) (decimal.Decimal, error) {
	logger.Info("balance repository apply", logger.Fields{
		"accountId": accountID,
		"delta":     delta,
	})

	const query = `
UPDATE balances
SET amount = amount + $2::numeric,
    updated_at = NOW()
WHERE account_id = $1
  AND amount + $2::numeric >= 0
RETURNING amount`

	var newAmount decimal.Decimal
	err := r.db.QueryRowContext(ctx, query, accountID, delta).Scan(&newAmount)
	if err == nil {
		logger.Info("balance repository apply success", logger.Fields{
			"accountId": accountID,
			"newAmount": newAmount,
		})
		return newAmount, nil
	}

	if !errors.Is(err, sql.ErrNoRows) {
		logger.Error("balance repository apply failed", err, logger.Fields{
			"accountId": accountID,
		})
		return decimal.Zero, fmt.Errorf("%w: apply balance delta: %v", domain.ErrStorageFailure, err)
	}

	// Zero rows: tell a missing balance apart from an uncoverable debit.
	if _, getErr := r.GetByAccountID(ctx, accountID); getErr != nil {
		return decimal.Zero, getErr
	}

	logger.Info("balance repository apply rejected", logger.Fields{
		"accountId": accountID,
		"delta":     delta,
	})
	return decimal.Zero, domain.ErrInsufficientBalance
}
