package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/ha7san14/dev-bank-v2/internal/domain"
	"github.com/ha7san14/dev-bank-v2/internal/logger"
)

type TransactionRepository struct {
	db *sql.DB
}

func NewTransactionRepository(db *sql.DB) *TransactionRepository {
	return &TransactionRepository{db: db}
}

const transactionColumns = `id, account_id, amount, indicator, receiver_account_number, description, date, linked_transaction_id, request_reference`

func (r *TransactionRepository) GetByID(ctx context.Context, id string) (domain.Transaction, error) {
	logger.Info("transaction repository get by id", logger.Fields{
		"transactionId": id,
	})

	query := `
SELECT ` + transactionColumns + `
FROM transactions
WHERE id = $1`

	transaction, err := scanTransaction(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			logger.Info("transaction repository record not found", logger.Fields{
				"transactionId": id,
			})
			return domain.Transaction{}, domain.ErrRecordNotFound
		}
		logger.Error("transaction repository get by id failed", err, logger.Fields{
			"transactionId": id,
		})
		return domain.Transaction{}, fmt.Errorf("%w: get transaction by id: %v", domain.ErrStorageFailure, err)
	}

	return transaction, nil
}

func (r *TransactionRepository) GetByRequestReference(ctx context.Context, reference string) (domain.Transaction, error) {
	logger.Info("transaction repository get by request reference", logger.Fields{
		"requestReference": reference,
	})

	query := `
SELECT ` + transactionColumns + `
FROM transactions
WHERE request_reference = $1`

	transaction, err := scanTransaction(r.db.QueryRowContext(ctx, query, reference))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Transaction{}, domain.ErrRecordNotFound
		}
		logger.Error("transaction repository get by request reference failed", err, logger.Fields{
			"requestReference": reference,
		})
		return domain.Transaction{}, fmt.Errorf("%w: get transaction by request reference: %v", domain.ErrStorageFailure, err)
	}

	return transaction, nil
}

func (r *TransactionRepository) ListByAccountID(ctx context.Context, accountID string) ([]domain.Transaction, error) {
	logger.Info("transaction repository list by account id", logger.Fields{
		"accountId": accountID,
	})

	query := `
SELECT ` + transactionColumns + `
FROM transactions
WHERE account_id = $1
ORDER BY date ASC, id ASC`

	rows, err := r.db.QueryContext(ctx, query, accountID)
	if err != nil {
		logger.Error("transaction repository list by account id failed", err, logger.Fields{
			"accountId": accountID,
		})
		return nil, fmt.Errorf("%w: list transactions by account id: %v", domain.ErrStorageFailure, err)
	}
	defer rows.Close()

	var transactions []domain.Transaction
	for rows.Next() {
		transaction, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: scan transaction row: %v", domain.ErrStorageFailure, err)
		}
		transactions = append(transactions, transaction)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterate transaction rows: %v", domain.ErrStorageFailure, err)
	}

	return transactions, nil
}

func (r *TransactionRepository) UpdateDescription(ctx context.Context, id string, description string) (domain.Transaction, error) {
	logger.Info("transaction repository update description", logger.Fields{
		"transactionId": id,
	})

	query := `
UPDATE transactions
SET description = $2
WHERE id = $1
RETURNING ` + transactionColumns

	transaction, err := scanTransaction(r.db.QueryRowContext(ctx, query, id, description))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			logger.Info("transaction repository record not found", logger.Fields{
				"transactionId": id,
			})
			return domain.Transaction{}, domain.ErrRecordNotFound
		}
		logger.Error("transaction repository update description failed", err, logger.Fields{
			"transactionId": id,
		})
		return domain.Transaction{}, fmt.Errorf("%w: update transaction description: %v", domain.ErrStorageFailure, err)
	}

	logger.Info("transaction repository update description success", logger.Fields{
		"transactionId": transaction.ID,
	})
	return transaction, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTransaction(row rowScanner) (domain.Transaction, error) {
	var transaction domain.Transaction
	var receiverAccountNumber sql.NullString
	var linkedTransactionID sql.NullString
	var requestReference sql.NullString

	if err := row.Scan(
		&transaction.ID,
		&transaction.AccountID,
		&transaction.Amount,
		&transaction.Indicator,
		&receiverAccountNumber,
		&transaction.Description,
		&transaction.Date,
		&linkedTransactionID,
		&requestReference,
	); err != nil {
		return domain.Transaction{}, err
	}

	if receiverAccountNumber.Valid {
		value := receiverAccountNumber.String
		transaction.ReceiverAccountNumber = &value
	}
	if linkedTransactionID.Valid {
		value := linkedTransactionID.String
		transaction.LinkedTransactionID = &value
	}
	if requestReference.Valid {
		value := requestReference.String
		transaction.RequestReference = &value
	}

	return transaction, nil
}
