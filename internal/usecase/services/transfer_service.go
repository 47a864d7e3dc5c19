package services

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/ha7san14/dev-bank-v2/internal/domain"
	"github.com/ha7san14/dev-bank-v2/internal/logger"
)

// IdempotencyCache is the optional fast path for replayed request
// references. The transaction log's unique request_reference column remains
// the durable guard; a nil cache only costs the in-flight lock.
type IdempotencyCache interface {
	GetResult(ctx context.Context, reference string) ([]byte, error)
	AcquireLock(ctx context.Context, reference string) (bool, error)
	ReleaseLock(ctx context.Context, reference string) error
	StoreResult(ctx context.Context, reference string, payload []byte) error
}

// TransferResult carries the persisted leg(s) of a committed transfer.
// Receiver is nil for a single-sided entry.
type TransferResult struct {
	Source   domain.Transaction  `json:"source"`
	Receiver *domain.Transaction `json:"receiver,omitempty"`
}

// TransferService orchestrates a transfer: validate, build the two-leg
// plan, commit it atomically through the ledger store, and return the
// persisted records.
type TransferService struct {
	validator       *TransferValidator
	transactionRepo domain.TransactionRepository
	balanceRepo     domain.BalanceRepository
	store           domain.LedgerStore
	cache           IdempotencyCache
}

func NewTransferService(
	validator *TransferValidator,
	transactionRepo domain.TransactionRepository,
	balanceRepo domain.BalanceRepository,
	store domain.LedgerStore,
	cache IdempotencyCache,
) *TransferService {
	return &TransferService{
		validator:       validator,
		transactionRepo: transactionRepo,
		balanceRepo:     balanceRepo,
		store:           store,
		cache:           cache,
	}
}

func (s *TransferService) CreateTransfer(ctx context.Context, req TransferRequest) (TransferResult, error) {
	logger.Info("transfer service create transfer", logger.Fields{
		"payload": logger.SanitizePayload(req),
	})

	reference := strings.TrimSpace(req.RequestReference)
	if reference != "" {
		if result, replayed, err := s.replay(ctx, reference); err != nil {
			return TransferResult{}, err
		} else if replayed {
			logger.Info("transfer service replayed committed transfer", logger.Fields{
				"requestReference": reference,
			})
			return result, nil
		}

		if s.cache != nil {
			acquired, err := s.cache.AcquireLock(ctx, reference)
			switch {
			case err != nil:
				// Cache down: the unique request_reference column still
				// guards against a double commit.
				logger.Warn("transfer service idempotency cache unavailable", logger.Fields{
					"requestReference": reference,
				})
			case !acquired:
				return TransferResult{}, domain.ErrDuplicateRequest
			default:
				defer func() {
					_ = s.cache.ReleaseLock(ctx, reference)
				}()
				// Another request may have committed between the first
				// check and taking the lock.
				if result, replayed, err := s.replay(ctx, reference); err != nil {
					return TransferResult{}, err
				} else if replayed {
					return result, nil
				}
			}
		}
	}

	validated, err := s.validator.Validate(ctx, req)
	if err != nil {
		return TransferResult{}, err
	}

	plan := buildPlan(validated, strings.TrimSpace(req.Description), reference)

	source, receiver, err := s.store.CommitTransfer(ctx, plan)
	if err != nil {
		if errors.Is(err, domain.ErrDuplicateRequest) && reference != "" {
			// Lost the race on the durable guard; the winner's records are
			// the result.
			if result, replayed, replayErr := s.replay(ctx, reference); replayErr == nil && replayed {
				return result, nil
			}
		}
		return TransferResult{}, err
	}

	result := TransferResult{Source: source, Receiver: receiver}

	if reference != "" && s.cache != nil {
		if payload, marshalErr := json.Marshal(result); marshalErr == nil {
			if cacheErr := s.cache.StoreResult(ctx, reference, payload); cacheErr != nil {
				logger.Warn("transfer service failed to cache transfer result", logger.Fields{
					"requestReference": reference,
				})
			}
		}
	}

	logger.Info("transfer service transfer committed", logger.Fields{
		"sourceTransactionId": source.ID,
		"twoLegged":           receiver != nil,
	})
	return result, nil
}

// replay looks for an already-committed transfer under the reference, cache
// first, then the transaction log.
func (s *TransferService) replay(ctx context.Context, reference string) (TransferResult, bool, error) {
	if s.cache != nil {
		if payload, err := s.cache.GetResult(ctx, reference); err == nil && payload != nil {
			var result TransferResult
			if unmarshalErr := json.Unmarshal(payload, &result); unmarshalErr == nil {
				return result, true, nil
			}
		}
	}

	source, err := s.transactionRepo.GetByRequestReference(ctx, reference)
	if err != nil {
		if errors.Is(err, domain.ErrRecordNotFound) {
			return TransferResult{}, false, nil
		}
		return TransferResult{}, false, err
	}

	result := TransferResult{Source: source}
	if source.LinkedTransactionID != nil {
		receiver, err := s.transactionRepo.GetByID(ctx, *source.LinkedTransactionID)
		if err != nil {
			return TransferResult{}, false, err
		}
		result.Receiver = &receiver
	}
	return result, true, nil
}

func buildPlan(validated validatedTransfer, description string, reference string) domain.TransferPlan {
	sourceEntry := domain.Transaction{
		AccountID:   validated.source.ID,
		Amount:      validated.amount,
		Indicator:   validated.indicator,
		Description: description,
	}
	if reference != "" {
		sourceEntry.RequestReference = &reference
	}

	plan := domain.TransferPlan{
		Source: domain.TransferLeg{
			AccountID: validated.source.ID,
			Delta:     validated.indicator.SignedAmount(validated.amount),
			Entry:     sourceEntry,
		},
	}

	if validated.receiver != nil {
		receiverNumber := validated.receiver.AccountNumber
		plan.Source.Entry.ReceiverAccountNumber = &receiverNumber

		sourceNumber := validated.source.AccountNumber
		plan.Receiver = &domain.TransferLeg{
			AccountID: validated.receiver.ID,
			Delta:     validated.amount,
			Entry: domain.Transaction{
				AccountID:             validated.receiver.ID,
				Amount:                validated.amount,
				Indicator:             domain.IndicatorCredit,
				ReceiverAccountNumber: &sourceNumber,
				Description:           description,
			},
		}
	}

	return plan
}

// UpdateTransaction is the administrative correction path. It deliberately
// touches metadata only: re-applying a settled transaction's balance delta
// would duplicate the original transfer's effect.
func (s *TransferService) UpdateTransaction(ctx context.Context, id string, description string) (domain.Transaction, error) {
	logger.Info("transfer service update transaction", logger.Fields{
		"transactionId": id,
	})
	return s.transactionRepo.UpdateDescription(ctx, strings.TrimSpace(id), strings.TrimSpace(description))
}

func (s *TransferService) GetTransaction(ctx context.Context, id string) (domain.Transaction, error) {
	return s.transactionRepo.GetByID(ctx, strings.TrimSpace(id))
}

func (s *TransferService) ListTransactionsByAccount(ctx context.Context, accountID string) ([]domain.Transaction, error) {
	return s.transactionRepo.ListByAccountID(ctx, strings.TrimSpace(accountID))
}

func (s *TransferService) GetBalance(ctx context.Context, accountID string) (domain.Balance, error) {
	return s.balanceRepo.GetByAccountID(ctx, strings.TrimSpace(accountID))
}
