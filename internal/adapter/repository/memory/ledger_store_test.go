package memory_test

import (
	"context"
	"testing"

	"github.com/ha7san14/dev-bank-v2/internal/adapter/repository/memory"
	"github.com/ha7san14/dev-bank-v2/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyDebitAndCredit(t *testing.T) {
	store := memory.NewStore()
	account := store.SeedAccount("1000000001", decimal.RequireFromString("100.00"))
	ctx := context.Background()

	newAmount, err := store.Balances().Apply(ctx, account.ID, decimal.RequireFromString("-40.00"))
	require.NoError(t, err)
	assert.True(t, newAmount.Equal(decimal.RequireFromString("60.00")))

	newAmount, err = store.Balances().Apply(ctx, account.ID, decimal.RequireFromString("15.50"))
	require.NoError(t, err)
	assert.True(t, newAmount.Equal(decimal.RequireFromString("75.50")))
}

func TestApplyRejectsUncoverableDebit(t *testing.T) {
	store := memory.NewStore()
	account := store.SeedAccount("1000000001", decimal.RequireFromString("30.00"))
	ctx := context.Background()

	_, err := store.Balances().Apply(ctx, account.ID, decimal.RequireFromString("-30.01"))
	require.ErrorIs(t, err, domain.ErrInsufficientBalance)

	balance, err := store.Balances().GetByAccountID(ctx, account.ID)
	require.NoError(t, err)
	assert.True(t, balance.Amount.Equal(decimal.RequireFromString("30.00")))
}

func TestApplyUnknownAccount(t *testing.T) {
	store := memory.NewStore()

	_, err := store.Balances().Apply(context.Background(), "missing", decimal.RequireFromString("1.00"))
	require.ErrorIs(t, err, domain.ErrAccountNotFound)
}

func TestCommitTransferLinksLegs(t *testing.T) {
	store := memory.NewStore()
	source := store.SeedAccount("1000000001", decimal.RequireFromString("100.00"))
	receiver := store.SeedAccount("1000000002", decimal.RequireFromString("5.00"))
	ctx := context.Background()

	amount := decimal.RequireFromString("25.00")
	receiverNumber := receiver.AccountNumber
	sourceNumber := source.AccountNumber
	plan := domain.TransferPlan{
		Source: domain.TransferLeg{
			AccountID: source.ID,
			Delta:     amount.Neg(),
			Entry: domain.Transaction{
				AccountID:             source.ID,
				Amount:                amount,
				Indicator:             domain.IndicatorDebit,
				ReceiverAccountNumber: &receiverNumber,
				Description:           "rent",
			},
		},
		Receiver: &domain.TransferLeg{
			AccountID: receiver.ID,
			Delta:     amount,
			Entry: domain.Transaction{
				AccountID:             receiver.ID,
				Amount:                amount,
				Indicator:             domain.IndicatorCredit,
				ReceiverAccountNumber: &sourceNumber,
				Description:           "rent",
			},
		},
	}

	sourceLeg, receiverLeg, err := store.CommitTransfer(ctx, plan)
	require.NoError(t, err)
	require.NotNil(t, receiverLeg)

	require.NotNil(t, sourceLeg.LinkedTransactionID)
	require.NotNil(t, receiverLeg.LinkedTransactionID)
	assert.Equal(t, receiverLeg.ID, *sourceLeg.LinkedTransactionID)
	assert.Equal(t, sourceLeg.ID, *receiverLeg.LinkedTransactionID)

	sourceBalance, err := store.Balances().GetByAccountID(ctx, source.ID)
	require.NoError(t, err)
	receiverBalance, err := store.Balances().GetByAccountID(ctx, receiver.ID)
	require.NoError(t, err)
	assert.True(t, sourceBalance.Amount.Equal(decimal.RequireFromString("75.00")))
	assert.True(t, receiverBalance.Amount.Equal(decimal.RequireFromString("30.00")))
}

func TestCommitTransferCompensatesSourceOnReceiverFailure(t *testing.T) {
	store := memory.NewStore()
	source := store.SeedAccount("1000000001", decimal.RequireFromString("100.00"))
	receiver := store.SeedAccount("1000000002", decimal.Zero)
	store.DropBalance(receiver.ID)
	ctx := context.Background()

	amount := decimal.RequireFromString("25.00")
	plan := domain.TransferPlan{
		Source: domain.TransferLeg{
			AccountID: source.ID,
			Delta:     amount.Neg(),
			Entry:     domain.Transaction{AccountID: source.ID, Amount: amount, Indicator: domain.IndicatorDebit},
		},
		Receiver: &domain.TransferLeg{
			AccountID: receiver.ID,
			Delta:     amount,
			Entry:     domain.Transaction{AccountID: receiver.ID, Amount: amount, Indicator: domain.IndicatorCredit},
		},
	}

	_, _, err := store.CommitTransfer(ctx, plan)
	require.ErrorIs(t, err, domain.ErrAccountNotFound)

	// The debit already applied to the source must have been reversed.
	sourceBalance, err := store.Balances().GetByAccountID(ctx, source.ID)
	require.NoError(t, err)
	assert.True(t, sourceBalance.Amount.Equal(decimal.RequireFromString("100.00")))

	entries, err := store.Transactions().ListByAccountID(ctx, source.ID)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestCommitTransferDuplicateReference(t *testing.T) {
	store := memory.NewStore()
	source := store.SeedAccount("1000000001", decimal.RequireFromString("100.00"))
	ctx := context.Background()

	reference := "req-123"
	amount := decimal.RequireFromString("10.00")
	plan := domain.TransferPlan{
		Source: domain.TransferLeg{
			AccountID: source.ID,
			Delta:     amount.Neg(),
			Entry: domain.Transaction{
				AccountID:        source.ID,
				Amount:           amount,
				Indicator:        domain.IndicatorDebit,
				RequestReference: &reference,
			},
		},
	}

	_, _, err := store.CommitTransfer(ctx, plan)
	require.NoError(t, err)

	_, _, err = store.CommitTransfer(ctx, plan)
	require.ErrorIs(t, err, domain.ErrDuplicateRequest)

	balance, err := store.Balances().GetByAccountID(ctx, source.ID)
	require.NoError(t, err)
	assert.True(t, balance.Amount.Equal(decimal.RequireFromString("90.00")))
}

func TestUpdateDescriptionMetadataOnly(t *testing.T) {
	store := memory.NewStore()
	source := store.SeedAccount("1000000001", decimal.RequireFromString("100.00"))
	ctx := context.Background()

	amount := decimal.RequireFromString("10.00")
	committed, _, err := store.CommitTransfer(ctx, domain.TransferPlan{
		Source: domain.TransferLeg{
			AccountID: source.ID,
			Delta:     amount.Neg(),
			Entry:     domain.Transaction{AccountID: source.ID, Amount: amount, Indicator: domain.IndicatorDebit, Description: "old"},
		},
	})
	require.NoError(t, err)

	updated, err := store.Transactions().UpdateDescription(ctx, committed.ID, "corrected")
	require.NoError(t, err)
	assert.Equal(t, "corrected", updated.Description)
	assert.True(t, updated.Amount.Equal(amount))

	balance, err := store.Balances().GetByAccountID(ctx, source.ID)
	require.NoError(t, err)
	assert.True(t, balance.Amount.Equal(decimal.RequireFromString("90.00")))

	_, err = store.Transactions().UpdateDescription(ctx, "missing", "x")
	require.ErrorIs(t, err, domain.ErrRecordNotFound)
}
