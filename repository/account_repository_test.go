package repository

import (
	"context"
	"testing"

	"betpool/models"
	"betpool/repository/testutil"
	"betpool/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccountRepository(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)
	repo := NewAccountRepository(testDB.DB)
	ctx := context.Background()

	account := seedAccount(t, testDB.DB, "Ana", 0)

	t.Run("get by email ignores case", func(t *testing.T) {
		found, err := repo.GetByEmail(ctx, "ana@example.com")
		require.NoError(t, err)
		require.NotNil(t, found)
		assert.Equal(t, account.ID, found.ID)
		assert.Equal(t, account.WalletID, found.WalletID)
	})

	t.Run("unknown email", func(t *testing.T) {
		found, err := repo.GetByEmail(ctx, "nobody@example.com")
		require.NoError(t, err)
		assert.Nil(t, found)
	})

	t.Run("duplicate email", func(t *testing.T) {
		wallet, err := NewWalletRepository(testDB.DB).Create(ctx)
		require.NoError(t, err)

		dup := testutil.CreateTestAccount(wallet.ID, "ANA")
		err = repo.Create(ctx, dup)

		var verr *service.ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, "email", verr.Field)
	})

	t.Run("one account per wallet", func(t *testing.T) {
		shared := testutil.CreateTestAccount(account.WalletID, "other")
		err := repo.Create(ctx, shared)
		assert.ErrorIs(t, err, service.ErrPermanentStore)
		assert.NotErrorIs(t, err, service.ErrValidation)
	})
}

func TestBalanceHistoryRepository(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)
	repo := NewBalanceHistoryRepository(testDB.DB)
	ctx := context.Background()

	account := seedAccount(t, testDB.DB, "ana", 0)

	first := testutil.CreateTestBalanceHistory(account.WalletID, 0, 100, models.TransactionTypeFund)
	second := testutil.CreateTestBalanceHistory(account.WalletID, 100, 40, models.TransactionTypeBetPlaced)
	require.NoError(t, repo.Record(ctx, first))
	require.NoError(t, repo.Record(ctx, second))

	history, err := repo.GetByWallet(ctx, account.WalletID, 10)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, second.ID, history[0].ID)
	assert.Equal(t, int64(-60), history[0].ChangeAmount)
	assert.Equal(t, true, history[0].TransactionMetadata["test"])

	limited, err := repo.GetByWallet(ctx, account.WalletID, 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)

	inconsistent := testutil.CreateTestBalanceHistory(account.WalletID, 40, 50, models.TransactionTypeFund)
	inconsistent.ChangeAmount = 99
	assert.ErrorIs(t, repo.Record(ctx, inconsistent), service.ErrPermanentStore)
}
