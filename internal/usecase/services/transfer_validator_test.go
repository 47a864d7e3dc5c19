package services_test

import (
	"context"
	"testing"

	"github.com/ha7san14/dev-bank-v2/internal/adapter/repository/memory"
	"github.com/ha7san14/dev-bank-v2/internal/domain"
	"github.com/ha7san14/dev-bank-v2/internal/usecase/services"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestTransferValidatorRejections(t *testing.T) {
	store := memory.NewStore()
	source := store.SeedAccount("1000000001", decimal.RequireFromString("50.00"))
	receiver := store.SeedAccount("1000000002", decimal.Zero)
	noBalance := store.SeedAccount("1000000003", decimal.Zero)
	store.DropBalance(noBalance.ID)

	validator := services.NewTransferValidator(store.Accounts(), store.Balances())

	tests := []struct {
		name    string
		req     services.TransferRequest
		wantErr error
	}{
		{
			name:    "zero amount",
			req:     services.TransferRequest{AccountID: source.ID, Amount: decimal.Zero, Indicator: "DEBIT"},
			wantErr: domain.ErrInvalidAmount,
		},
		{
			name:    "negative amount",
			req:     services.TransferRequest{AccountID: source.ID, Amount: decimal.RequireFromString("-5.00"), Indicator: "DEBIT"},
			wantErr: domain.ErrInvalidAmount,
		},
		{
			name:    "unknown indicator",
			req:     services.TransferRequest{AccountID: source.ID, Amount: decimal.RequireFromString("5.00"), Indicator: "WIRE"},
			wantErr: domain.ErrInvalidIndicator,
		},
		{
			name: "credit naming a receiver",
			req: services.TransferRequest{
				AccountID:             source.ID,
				Amount:                decimal.RequireFromString("5.00"),
				Indicator:             "CREDIT",
				ReceiverAccountNumber: receiver.AccountNumber,
			},
			wantErr: domain.ErrInvalidIndicator,
		},
		{
			name:    "unknown source account",
			req:     services.TransferRequest{AccountID: "missing", Amount: decimal.RequireFromString("5.00"), Indicator: "DEBIT"},
			wantErr: domain.ErrAccountNotFound,
		},
		{
			name:    "source account without balance record",
			req:     services.TransferRequest{AccountID: noBalance.ID, Amount: decimal.RequireFromString("5.00"), Indicator: "DEBIT"},
			wantErr: domain.ErrAccountNotFound,
		},
		{
			name: "unknown receiver account number",
			req: services.TransferRequest{
				AccountID:             source.ID,
				Amount:                decimal.RequireFromString("5.00"),
				Indicator:             "DEBIT",
				ReceiverAccountNumber: "9999999999",
			},
			wantErr: domain.ErrAccountNotFound,
		},
		{
			name: "receiver without balance record",
			req: services.TransferRequest{
				AccountID:             source.ID,
				Amount:                decimal.RequireFromString("5.00"),
				Indicator:             "DEBIT",
				ReceiverAccountNumber: noBalance.AccountNumber,
			},
			wantErr: domain.ErrAccountNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := validator.Validate(context.Background(), tt.req)
			require.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestTransferValidatorAcceptsLegacyIndicatorCodes(t *testing.T) {
	store := memory.NewStore()
	source := store.SeedAccount("1000000001", decimal.RequireFromString("50.00"))
	receiver := store.SeedAccount("1000000002", decimal.Zero)

	validator := services.NewTransferValidator(store.Accounts(), store.Balances())

	_, err := validator.Validate(context.Background(), services.TransferRequest{
		AccountID:             source.ID,
		Amount:                decimal.RequireFromString("5.00"),
		Indicator:             "DB",
		ReceiverAccountNumber: receiver.AccountNumber,
	})
	require.NoError(t, err)

	_, err = validator.Validate(context.Background(), services.TransferRequest{
		AccountID: source.ID,
		Amount:    decimal.RequireFromString("5.00"),
		Indicator: "CR",
	})
	require.NoError(t, err)
}
