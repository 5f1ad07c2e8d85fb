package repository

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"betpool/database"
	"betpool/models"
	"betpool/repository/testutil"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/require"
)

// seedAccount creates a wallet holding balance and an account that owns it, in one transaction
func seedAccount(t *testing.T, db *database.DB, name string, balance int64) *models.Account {
	t.Helper()
	ctx := context.Background()

	var account *models.Account
	err := withTransaction(ctx, db, func(tx pgx.Tx) error {
		wallets := newWalletRepositoryWithTx(tx)
		wallet, err := wallets.Create(ctx)
		if err != nil {
			return err
		}
		if balance > 0 {
			if _, err := wallets.Credit(ctx, wallet.ID, balance); err != nil {
				return err
			}
		}

		account = testutil.CreateTestAccount(wallet.ID, name)
		return newAccountRepositoryWithTx(tx).Create(ctx, account)
	})
	require.NoError(t, err)
	return account
}

// seedEvent stores an event owned by owner
func seedEvent(t *testing.T, db *database.DB, owner *models.Account, title string, status models.EventStatus, quotaPrice int64) *models.Event {
	t.Helper()

	event := testutil.CreateTestEvent(owner.ID, title, status, quotaPrice)
	require.NoError(t, NewEventRepository(db).Create(context.Background(), event))
	return event
}

func balanceOf(t *testing.T, db *database.DB, walletID int64) int64 {
	t.Helper()

	wallet, err := NewWalletRepository(db).GetByID(context.Background(), walletID)
	require.NoError(t, err)
	require.NotNil(t, wallet)
	return wallet.Balance
}

// withTransaction runs fn in a transaction, committing only when fn succeeds
func withTransaction(ctx context.Context, db *database.DB, fn func(tx pgx.Tx) error) error {
	tx, err := db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
			return fmt.Errorf("rollback failed: %v, original error: %w", rbErr, err)
		}
		return err
	}

	return tx.Commit(ctx)
}
