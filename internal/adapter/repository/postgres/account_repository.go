package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/ha7san14/dev-bank-v2/internal/domain"
	"github.com/ha7san14/dev-bank-v2/internal/logger"
)

type AccountRepository struct {
	db *sql.DB
}

func NewAccountRepository(db *sql.DB) *AccountRepository {
	return &AccountRepository{db: db}
}

func (r *AccountRepository) GetByID(ctx context.Context, id string) (domain.Account, error) {
	logger.Info("account repository get by id", logger.Fields{
		"accountId": id,
	})

	const query = `
SELECT id, user_id, account_number, created_at, updated_at
FROM accounts
WHERE id = $1`

	account, err := scanAccount(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			logger.Info("account repository record not found", logger.Fields{
				"accountId": id,
			})
			return domain.Account{}, domain.ErrAccountNotFound
		}
		logger.Error("account repository get by id failed", err, logger.Fields{
			"accountId": id,
		})
		return domain.Account{}, fmt.Errorf("%w: get account by id: %v", domain.ErrStorageFailure, err)
	}

	return account, nil
}

func (r *AccountRepository) GetByAccountNumber(ctx context.Context, accountNumber string) (domain.Account, error) {
	logger.Info("account repository get by account number", logger.Fields{
		"accountNumber": accountNumber,
	})

	const query = `
SELECT id, user_id, account_number, created_at, updated_at
FROM accounts
WHERE account_number = $1`

	account, err := scanAccount(r.db.QueryRowContext(ctx, query, accountNumber))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			logger.Info("account repository record not found", logger.Fields{
				"accountNumber": accountNumber,
			})
			return domain.Account{}, domain.ErrAccountNotFound
		}
		logger.Error("account repository get by account number failed", err, logger.Fields{
			"accountNumber": accountNumber,
		})
		return domain.Account{}, fmt.Errorf("%w: get account by account number: %v", domain.ErrStorageFailure, err)
	}

	return account, nil
}

func scanAccount(row *sql.Row) (domain.Account, error) {
	var account domain.Account
	var userID sql.NullString

	if err := row.Scan(
		&account.ID,
		&userID,
		&account.AccountNumber,
		&account.CreatedAt,
		&account.UpdatedAt,
	); err != nil {
		return domain.Account{}, err
	}

	if userID.Valid {
		value := userID.String
		account.UserID = &value
	}

	return account, nil
}
