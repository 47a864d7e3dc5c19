package services

import (
	"context"
	"strings"

	"github.com/ha7san14/dev-bank-v2/internal/domain"
	"github.com/shopspring/decimal"
)

// TransferRequest is the logical request shape the boundary layer hands the
// engine. RequestReference is optional; when present the transfer becomes
// idempotent under that reference.
type TransferRequest struct {
	AccountID             string          `json:"accountId"`
	Amount                decimal.Decimal `json:"amount"`
	Indicator             string          `json:"indicator"`
	ReceiverAccountNumber string          `json:"receiverAccountNumber,omitempty"`
	Description           string          `json:"description,omitempty"`
	RequestReference      string          `json:"requestReference,omitempty"`
}

// validatedTransfer is the enriched request the orchestrator commits:
// resolved accounts, parsed indicator, balance records known to exist.
type validatedTransfer struct {
	source    domain.Account
	receiver  *domain.Account
	amount    decimal.Decimal
	indicator domain.Indicator
}

// TransferValidator is the pure validation stage. It reads the store but
// never mutates it, so it is safe to run repeatedly.
type TransferValidator struct {
	accountRepo domain.AccountRepository
	balanceRepo domain.BalanceRepository
}

func NewTransferValidator(accountRepo domain.AccountRepository, balanceRepo domain.BalanceRepository) *TransferValidator {
	return &TransferValidator{accountRepo: accountRepo, balanceRepo: balanceRepo}
}

func (v *TransferValidator) Validate(ctx context.Context, req TransferRequest) (validatedTransfer, error) {
	if req.Amount.LessThanOrEqual(decimal.Zero) {
		return validatedTransfer{}, domain.ErrInvalidAmount
	}

	indicator, err := domain.ParseIndicator(req.Indicator)
	if err != nil {
		return validatedTransfer{}, err
	}

	receiverNumber := strings.TrimSpace(req.ReceiverAccountNumber)

	// A cross-account transfer is initiated by its debit leg; the credit
	// mirror is constructed by the orchestrator. A credit that also names a
	// receiver would mint money out of nothing.
	if receiverNumber != "" && indicator != domain.IndicatorDebit {
		return validatedTransfer{}, domain.ErrInvalidIndicator
	}

	source, err := v.accountRepo.GetByID(ctx, strings.TrimSpace(req.AccountID))
	if err != nil {
		return validatedTransfer{}, err
	}
	if _, err := v.balanceRepo.GetByAccountID(ctx, source.ID); err != nil {
		return validatedTransfer{}, err
	}

	validated := validatedTransfer{
		source:    source,
		amount:    req.Amount,
		indicator: indicator,
	}

	if receiverNumber != "" {
		receiver, err := v.accountRepo.GetByAccountNumber(ctx, receiverNumber)
		if err != nil {
			return validatedTransfer{}, err
		}
		if _, err := v.balanceRepo.GetByAccountID(ctx, receiver.ID); err != nil {
			return validatedTransfer{}, err
		}
		validated.receiver = &receiver
	}

	return validated, nil
}
