package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/ha7san14/dev-bank-v2/internal/domain"
	"github.com/ha7san14/dev-bank-v2/internal/logger"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

// LedgerStore posts a transfer plan inside a single database transaction:
// both balance mutations and both journal rows land, or none do. Transient
// conflicts (serialization failures, deadlocks) are retried a bounded number
// of times with linear backoff before surfacing as a storage failure.
type LedgerStore struct {
	db         *sql.DB
	maxRetries int
	backoff    time.Duration
}

func NewLedgerStore(db *sql.DB, maxRetries int, backoff time.Duration) *LedgerStore {
	if maxRetries < 1 {
		maxRetries = 1
	}
	return &LedgerStore{db: db, maxRetries: maxRetries, backoff: backoff}
}

func (s *LedgerStore) CommitTransfer(ctx context.Context, plan domain.TransferPlan) (domain.Transaction, *domain.Transaction, error) {
	var lastErr error

	for attempt := 1; attempt <= s.maxRetries; attempt++ {
		source, receiver, err := s.commitOnce(ctx, plan)
		if err == nil {
			return source, receiver, nil
		}
		if !isTransientConflict(err) {
			return domain.Transaction{}, nil, err
		}

		lastErr = err
		logger.Warn("ledger store transient conflict, retrying", logger.Fields{
			"attempt":         attempt,
			"sourceAccountId": plan.Source.AccountID,
		})
		if attempt < s.maxRetries {
			select {
			case <-time.After(s.backoff * time.Duration(attempt)):
			case <-ctx.Done():
				return domain.Transaction{}, nil, fmt.Errorf("%w: %v", domain.ErrStorageFailure, ctx.Err())
			}
		}
	}

	logger.Error("ledger store retries exhausted", lastErr, logger.Fields{
		"sourceAccountId": plan.Source.AccountID,
		"attempts":        s.maxRetries,
	})
	return domain.Transaction{}, nil, fmt.Errorf("%w: %v", domain.ErrStorageFailure, lastErr)
}

func (s *LedgerStore) commitOnce(ctx context.Context, plan domain.TransferPlan) (domain.Transaction, *domain.Transaction, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		logger.Error("ledger store begin tx failed", err, nil)
		return domain.Transaction{}, nil, fmt.Errorf("%w: begin transfer transaction: %v", domain.ErrStorageFailure, err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = applyDelta(ctx, tx, plan.Source.AccountID, plan.Source.Delta); err != nil {
		return domain.Transaction{}, nil, err
	}
	if plan.Receiver != nil {
		if err = applyDelta(ctx, tx, plan.Receiver.AccountID, plan.Receiver.Delta); err != nil {
			return domain.Transaction{}, nil, err
		}
	}

	now := time.Now().UTC()

	source := plan.Source.Entry
	source.ID = uuid.NewString()
	source.Date = now

	var receiver *domain.Transaction
	if plan.Receiver != nil {
		mirror := plan.Receiver.Entry
		mirror.ID = uuid.NewString()
		mirror.Date = now
		mirror.LinkedTransactionID = &source.ID
		receiver = &mirror
	}

	// The legs reference each other and the linked_transaction_id FK is
	// checked per statement, so the source row goes in unlinked, the mirror
	// follows pointing at it, and an UPDATE closes the loop.
	if err = insertTransaction(ctx, tx, source); err != nil {
		return domain.Transaction{}, nil, err
	}
	if receiver != nil {
		if err = insertTransaction(ctx, tx, *receiver); err != nil {
			return domain.Transaction{}, nil, err
		}
		if err = linkTransactions(ctx, tx, source.ID, receiver.ID); err != nil {
			return domain.Transaction{}, nil, err
		}
		source.LinkedTransactionID = &receiver.ID
	}

	if err = tx.Commit(); err != nil {
		logger.Error("ledger store commit tx failed", err, nil)
		if isTransientConflict(err) {
			return domain.Transaction{}, nil, err
		}
		return domain.Transaction{}, nil, fmt.Errorf("%w: commit transfer transaction: %v", domain.ErrStorageFailure, err)
	}

	logger.Info("ledger store transfer committed", logger.Fields{
		"sourceTransactionId": source.ID,
		"sourceAccountId":     source.AccountID,
		"twoLegged":           receiver != nil,
	})
	return source, receiver, nil
}

// applyDelta mutates one balance under the store's per-balance serialization
// boundary: the condition rides in the UPDATE itself, so a debit past the
// current amount matches zero rows and nothing changes.
func applyDelta(ctx context.Context, tx *sql.Tx, accountID string, delta decimal.Decimal) error {
	const query = `
UPDATE balances
SET amount = amount + $2::numeric,
    updated_at = NOW()
WHERE account_id = $1
  AND amount + $2::numeric >= 0`

	result, err := tx.ExecContext(ctx, query, accountID, delta)
	if err != nil {
		if isTransientConflict(err) {
			return err
		}
		logger.Error("ledger store apply delta failed", err, logger.Fields{
			"accountId": accountID,
		})
		return fmt.Errorf("%w: apply balance delta: %v", domain.ErrStorageFailure, err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: apply balance delta rows affected: %v", domain.ErrStorageFailure, err)
	}
	if rows > 0 {
		return nil
	}

	var exists bool
	if err := tx.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM balances WHERE account_id = $1)`, accountID).Scan(&exists); err != nil {
		return fmt.Errorf("%w: check balance existence: %v", domain.ErrStorageFailure, err)
	}
	if !exists {
		return domain.ErrAccountNotFound
	}
	return domain.ErrInsufficientBalance
}

func insertTransaction(ctx context.Context, tx *sql.Tx, transaction domain.Transaction) error {
	const query = `
INSERT INTO transactions (
	id,
	account_id,
	amount,
	indicator,
	receiver_account_number,
	description,
	date,
	linked_transaction_id,
	request_reference
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	if _, err := tx.ExecContext(
		ctx,
		query,
		transaction.ID,
		transaction.AccountID,
		transaction.Amount,
		transaction.Indicator,
		transaction.ReceiverAccountNumber,
		transaction.Description,
		transaction.Date,
		transaction.LinkedTransactionID,
		transaction.RequestReference,
	); err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicateRequest
		}
		if isTransientConflict(err) {
			return err
		}
		logger.Error("ledger store insert transaction failed", err, logger.Fields{
			"transactionId": transaction.ID,
		})
		return fmt.Errorf("%w: insert transaction: %v", domain.ErrStorageFailure, err)
	}
	return nil
}

func linkTransactions(ctx context.Context, tx *sql.Tx, sourceID string, mirrorID string) error {
	result, err := tx.ExecContext(ctx, `UPDATE transactions SET linked_transaction_id = $2 WHERE id = $1`, sourceID, mirrorID)
	if err != nil {
		if isTransientConflict(err) {
			return err
		}
		logger.Error("ledger store link transfer legs failed", err, logger.Fields{
			"sourceTransactionId": sourceID,
		})
		return fmt.Errorf("%w: link transfer legs: %v", domain.ErrStorageFailure, err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: link transfer legs rows affected: %v", domain.ErrStorageFailure, err)
	}
	if rows != 1 {
		return fmt.Errorf("%w: link transfer legs: source row missing", domain.ErrStorageFailure)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code) == "23505"
	}
	return false
}

func isTransientConflict(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		code := string(pqErr.Code)
		return code == "40001" || code == "40P01"
	}
	return false
}
