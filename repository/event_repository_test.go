package repository

import (
	"context"
	"testing"
	"time"

	"betpool/models"
	"betpool/repository/testutil"
	"betpool/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventRepository_Lifecycle(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)
	repo := NewEventRepository(testDB.DB)
	ctx := context.Background()

	owner := seedAccount(t, testDB.DB, "owner", 0)
	event := seedEvent(t, testDB.DB, owner, "Final match", models.EventStatusPendingReview, 10)

	t.Run("get by id", func(t *testing.T) {
		found, err := repo.GetByID(ctx, event.ID)
		require.NoError(t, err)
		require.NotNil(t, found)
		assert.Equal(t, models.EventStatusPendingReview, found.Status)
		assert.Equal(t, int64(10), found.QuotaPrice)
		assert.Nil(t, found.WinningOutcome)
	})

	t.Run("missing event", func(t *testing.T) {
		found, err := repo.GetByID(ctx, event.ID+1000)
		require.NoError(t, err)
		assert.Nil(t, found)
	})

	t.Run("settle", func(t *testing.T) {
		outcome := "Team A"
		settledAt := time.Now().UTC().Truncate(time.Microsecond)
		event.Status = models.EventStatusSettled
		event.WinningOutcome = &outcome
		event.SettledAt = &settledAt
		require.NoError(t, repo.Update(ctx, event))

		found, err := repo.GetByID(ctx, event.ID)
		require.NoError(t, err)
		assert.Equal(t, models.EventStatusSettled, found.Status)
		require.NotNil(t, found.WinningOutcome)
		assert.Equal(t, "Team A", *found.WinningOutcome)
		require.NotNil(t, found.SettledAt)
		assert.True(t, settledAt.Equal(*found.SettledAt))
	})

	t.Run("settled requires an outcome", func(t *testing.T) {
		other := seedEvent(t, testDB.DB, owner, "Other", models.EventStatusOpenForBetting, 5)
		other.Status = models.EventStatusSettled

		err := repo.Update(ctx, other)
		assert.ErrorIs(t, err, service.ErrPermanentStore)
	})

	t.Run("update missing event", func(t *testing.T) {
		ghost := testutil.CreateTestEvent(owner.ID, "ghost", models.EventStatusRemoved, 1)
		ghost.ID = 999999
		assert.ErrorIs(t, repo.Update(ctx, ghost), service.ErrNotFound)
	})
}

func TestEventRepository_ListAndSearch(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)
	repo := NewEventRepository(testDB.DB)
	ctx := context.Background()

	owner := seedAccount(t, testDB.DB, "owner", 0)
	seedEvent(t, testDB.DB, owner, "Copa Final", models.EventStatusOpenForBetting, 10)
	seedEvent(t, testDB.DB, owner, "Election 100% turnout", models.EventStatusOpenForBetting, 10)
	seedEvent(t, testDB.DB, owner, "Copa semifinal", models.EventStatusPendingReview, 10)

	t.Run("list all", func(t *testing.T) {
		all, err := repo.List(ctx, nil)
		require.NoError(t, err)
		assert.Len(t, all, 3)
	})

	t.Run("list by status", func(t *testing.T) {
		status := models.EventStatusPendingReview
		pending, err := repo.List(ctx, &status)
		require.NoError(t, err)
		require.Len(t, pending, 1)
		assert.Equal(t, "Copa semifinal", pending[0].Title)
	})

	t.Run("search is case-insensitive and open-only", func(t *testing.T) {
		found, err := repo.Search(ctx, "copa", models.EventStatusOpenForBetting)
		require.NoError(t, err)
		require.Len(t, found, 1)
		assert.Equal(t, "Copa Final", found[0].Title)
	})

	t.Run("search treats wildcards literally", func(t *testing.T) {
		found, err := repo.Search(ctx, "100%", models.EventStatusOpenForBetting)
		require.NoError(t, err)
		require.Len(t, found, 1)

		percent, err := repo.Search(ctx, "%", models.EventStatusOpenForBetting)
		require.NoError(t, err)
		assert.Len(t, percent, 1)

		underscore, err := repo.Search(ctx, "_", models.EventStatusOpenForBetting)
		require.NoError(t, err)
		assert.Empty(t, underscore)
	})
}

func TestEscapeLike(t *testing.T) {
	assert.Equal(t, `100\%`, escapeLike("100%"))
	assert.Equal(t, `a\_b`, escapeLike("a_b"))
	assert.Equal(t, `c:\\dir`, escapeLike(`c:\dir`))
}
