// Package memory holds a mutex-guarded in-memory ledger store. It honors the
// same contracts as the postgres adapter and backs the test suite. The single
// store-wide mutex is a deliberate coarsening for a test double: the postgres
// adapter, not this package, carries the per-balance serialization the engine
// relies on in production.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/ha7san14/dev-bank-v2/internal/domain"
	"github.com/ha7san14/dev-bank-v2/internal/logger"
	"github.com/shopspring/decimal"
)

type Store struct {
	mu               sync.Mutex
	accounts         map[string]domain.Account
	accountsByNumber map[string]string
	balances         map[string]domain.Balance
	transactions     map[string]domain.Transaction
	accountJournal   map[string][]string
	byReference      map[string]string
}

func NewStore() *Store {
	return &Store{
		accounts:         make(map[string]domain.Account),
		accountsByNumber: make(map[string]string),
		balances:         make(map[string]domain.Balance),
		transactions:     make(map[string]domain.Transaction),
		accountJournal:   make(map[string][]string),
		byReference:      make(map[string]string),
	}
}

// SeedAccount registers an account with an opening balance. The engine never
// provisions accounts itself; fixtures and callers do.
func (s *Store) SeedAccount(accountNumber string, opening decimal.Decimal) domain.Account {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	account := domain.Account{
		ID:            uuid.NewString(),
		AccountNumber: accountNumber,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	s.accounts[account.ID] = account
	s.accountsByNumber[accountNumber] = account.ID
	s.balances[account.ID] = domain.Balance{
		ID:        uuid.NewString(),
		AccountID: account.ID,
		Amount:    opening,
		CreatedAt: now,
		UpdatedAt: now,
	}
	return account
}

// DropBalance removes an account's balance record, leaving the account
// behind. Lets tests exercise the missing-balance paths.
func (s *Store) DropBalance(accountID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.balances, accountID)
}

// Accounts, Balances and Transactions expose the store through the domain
// repository interfaces, sharing the one mutex-guarded core.
func (s *Store) Accounts() domain.AccountRepository         { return accountView{s} }
func (s *Store) Balances() domain.BalanceRepository         { return balanceView{s} }
func (s *Store) Transactions() domain.TransactionRepository { return transactionView{s} }

type accountView struct{ s *Store }

func (v accountView) GetByID(_ context.Context, id string) (domain.Account, error) {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()

	account, ok := v.s.accounts[id]
	if !ok {
		return domain.Account{}, domain.ErrAccountNotFound
	}
	return account, nil
}

func (v accountView) GetByAccountNumber(_ context.Context, accountNumber string) (domain.Account, error) {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()

	id, ok := v.s.accountsByNumber[accountNumber]
	if !ok {
		return domain.Account{}, domain.ErrAccountNotFound
	}
	return v.s.accounts[id], nil
}

type balanceView struct{ s *Store }

func (v balanceView) GetByAccountID(_ context.Context, accountID string) (domain.Balance, error) {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()

	balance, ok := v.s.balances[accountID]
	if !ok {
		return domain.Balance{}, domain.ErrAccountNotFound
	}
	return balance, nil
}

func (v balanceView) Apply(_ context.Context, accountID string, delta decimal.Decimal) (decimal.Decimal, error) {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	return v.s.applyLocked(accountID, delta)
}

func (s *Store) applyLocked(accountID string, delta decimal.Decimal) (decimal.Decimal, error) {
	balance, ok := s.balances[accountID]
	if !ok {
		return decimal.Zero, domain.ErrAccountNotFound
	}

	next := balance.Amount.Add(delta)
	if next.IsNegative() {
		return decimal.Zero, domain.ErrInsufficientBalance
	}

	balance.Amount = next
	balance.UpdatedAt = time.Now().UTC()
	s.balances[accountID] = balance
	return next, nil
}

func (s *Store) CommitTransfer(_ context.Context, plan domain.TransferPlan) (domain.Transaction, *domain.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if ref := plan.Source.Entry.RequestReference; ref != nil {
		if _, exists := s.byReference[*ref]; exists {
			return domain.Transaction{}, nil, domain.ErrDuplicateRequest
		}
	}

	if _, err := s.applyLocked(plan.Source.AccountID, plan.Source.Delta); err != nil {
		return domain.Transaction{}, nil, err
	}

	if plan.Receiver != nil {
		if _, err := s.applyLocked(plan.Receiver.AccountID, plan.Receiver.Delta); err != nil {
			// Compensate the source leg already applied. A failed reversal
			// would leave the ledger torn; that must never pass silently.
			if _, revertErr := s.applyLocked(plan.Source.AccountID, plan.Source.Delta.Neg()); revertErr != nil {
				logger.Error("ledger invariant violated: compensating reversal failed", revertErr, logger.Fields{
					"sourceAccountId": plan.Source.AccountID,
				})
				return domain.Transaction{}, nil, fmt.Errorf("%w: compensating reversal failed: %v", domain.ErrStorageFailure, revertErr)
			}
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
		source.LinkedTransactionID = &mirror.ID
		receiver = &mirror
	}

	s.recordLocked(source)
	if receiver != nil {
		s.recordLocked(*receiver)
	}

	return source, receiver, nil
}

func (s *Store) recordLocked(transaction domain.Transaction) {
	s.transactions[transaction.ID] = transaction
	s.accountJournal[transaction.AccountID] = append(s.accountJournal[transaction.AccountID], transaction.ID)
	if transaction.RequestReference != nil {
		s.byReference[*transaction.RequestReference] = transaction.ID
	}
}

type transactionView struct{ s *Store }

func (v transactionView) GetByID(_ context.Context, id string) (domain.Transaction, error) {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()

	transaction, ok := v.s.transactions[id]
	if !ok {
		return domain.Transaction{}, domain.ErrRecordNotFound
	}
	return transaction, nil
}

func (v transactionView) GetByRequestReference(_ context.Context, reference string) (domain.Transaction, error) {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()

	id, ok := v.s.byReference[reference]
	if !ok {
		return domain.Transaction{}, domain.ErrRecordNotFound
	}
	return v.s.transactions[id], nil
}

func (v transactionView) ListByAccountID(_ context.Context, accountID string) ([]domain.Transaction, error) {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()

	ids := v.s.accountJournal[accountID]
	out := make([]domain.Transaction, 0, len(ids))
	for _, id := range ids {
		out = append(out, v.s.transactions[id])
	}
	return out, nil
}

func (v transactionView) UpdateDescription(_ context.Context, id string, description string) (domain.Transaction, error) {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()

	transaction, ok := v.s.transactions[id]
	if !ok {
		return domain.Transaction{}, domain.ErrRecordNotFound
	}
	transaction.Description = description
	v.s.transactions[id] = transaction
	return transaction, nil
}
