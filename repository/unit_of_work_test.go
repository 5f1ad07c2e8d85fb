package repository

import (
	"context"
	"sync"
	"testing"
	"time"

	"betpool/config"
	"betpool/events"
	"betpool/models"
	"betpool/repository/testutil"
	"betpool/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type outcomeRecorder struct {
	mu       sync.Mutex
	outcomes map[string]int
}

func (r *outcomeRecorder) ObserveTransaction(outcome string, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.outcomes == nil {
		r.outcomes = map[string]int{}
	}
	r.outcomes[outcome]++
}

func (r *outcomeRecorder) count(outcome string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.outcomes[outcome]
}

type services struct {
	accounts   service.AccountService
	wallets    service.WalletService
	events     service.EventService
	betting    service.BettingService
	settlement service.SettlementService
}

func newServices(factory service.UnitOfWorkFactory, cfg *config.Config) services {
	return services{
		accounts:   service.NewAccountService(factory, cfg),
		wallets:    service.NewWalletService(factory, cfg),
		events:     service.NewEventService(factory, cfg),
		betting:    service.NewBettingService(factory, cfg),
		settlement: service.NewSettlementService(factory, cfg),
	}
}

var testCard = models.CardDetails{Number: "4111111111111111", CVV: "123", Expiry: "12/49"}

func signup(t *testing.T, svc services, name string) int64 {
	t.Helper()
	id, err := svc.accounts.CreateAccount(context.Background(), service.CreateAccountRequest{
		DisplayName: name,
		Email:       name + "@example.com",
		Credential:  "Str0ng!Pass",
		BirthDate:   time.Date(1990, 1, 1, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	return id
}

func openEvent(t *testing.T, svc services, ownerID, quotaPrice int64) int64 {
	t.Helper()
	ctx := context.Background()
	start := time.Now().Add(24 * time.Hour).UTC()

	eventID, err := svc.events.SubmitEvent(ctx, service.SubmitEventRequest{
		OwnerAccountID: ownerID,
		Title:          "Final match",
		Description:    "Who lifts the cup",
		Category:       "sports",
		QuotaPrice:     quotaPrice,
		StartTime:      start,
		EndTime:        start.Add(2 * time.Hour),
		EventDate:      start,
	})
	require.NoError(t, err)
	require.NoError(t, svc.events.ReviewEvent(ctx, eventID, models.ReviewDecisionApprove, ""))
	return eventID
}

func TestUnitOfWork_BettingRoundTrip(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)
	ctx := context.Background()

	bus := events.NewBus()
	recorder := &outcomeRecorder{}
	factory := NewUnitOfWorkFactory(testDB.DB, bus).WithObserver(recorder)
	svc := newServices(factory, config.NewTestConfig())

	var settledMu sync.Mutex
	var settled []events.EventSettledEvent
	bus.Subscribe(events.EventTypeEventSettled, func(_ context.Context, e events.Event) {
		settledMu.Lock()
		defer settledMu.Unlock()
		settled = append(settled, e.(events.EventSettledEvent))
	})

	owner := signup(t, svc, "owner")
	alice := signup(t, svc, "alice")
	bob := signup(t, svc, "bob")
	require.NoError(t, svc.wallets.Fund(ctx, alice, 1000, testCard))
	require.NoError(t, svc.wallets.Fund(ctx, bob, 1000, testCard))

	eventID := openEvent(t, svc, owner, 10)

	_, err := svc.betting.PlaceBet(ctx, alice, eventID, 6, "A")
	require.NoError(t, err)
	_, err = svc.betting.PlaceBet(ctx, bob, eventID, 4, "B")
	require.NoError(t, err)

	t.Run("failed bet leaves no trace", func(t *testing.T) {
		_, err := svc.betting.PlaceBet(ctx, bob, eventID, 200, "B")
		assert.ErrorIs(t, err, service.ErrInsufficientFunds)

		bets, err := svc.betting.ListBets(ctx, eventID)
		require.NoError(t, err)
		assert.Len(t, bets, 2)

		balance, err := svc.wallets.GetBalance(ctx, bob)
		require.NoError(t, err)
		assert.Equal(t, int64(960), balance)
	})

	t.Run("settlement pays the pool", func(t *testing.T) {
		settlement, err := svc.settlement.FinalizeEvent(ctx, eventID, "A")
		require.NoError(t, err)
		assert.Equal(t, int64(100), settlement.Pool)
		assert.Equal(t, int64(100), settlement.TotalPaid())

		balance, err := svc.wallets.GetBalance(ctx, alice)
		require.NoError(t, err)
		assert.Equal(t, int64(1040), balance)

		event, err := svc.events.GetEvent(ctx, eventID)
		require.NoError(t, err)
		assert.Equal(t, models.EventStatusSettled, event.Status)
		require.NotNil(t, event.WinningOutcome)
		assert.Equal(t, "A", *event.WinningOutcome)

		bets, err := svc.betting.ListBets(ctx, eventID)
		require.NoError(t, err)
		for _, bet := range bets {
			require.NotNil(t, bet.Payout)
		}
	})

	t.Run("second finalize is rejected", func(t *testing.T) {
		_, err := svc.settlement.FinalizeEvent(ctx, eventID, "B")
		assert.ErrorIs(t, err, service.ErrInvalidState)

		balance, err := svc.wallets.GetBalance(ctx, bob)
		require.NoError(t, err)
		assert.Equal(t, int64(960), balance)
	})

	t.Run("settled event takes no bets", func(t *testing.T) {
		_, err := svc.betting.PlaceBet(ctx, bob, eventID, 1, "A")
		assert.ErrorIs(t, err, service.ErrNotFound)
		assert.ErrorIs(t, err, service.ErrInvalidState)
	})

	t.Run("withdraw everything", func(t *testing.T) {
		net, err := svc.wallets.Withdraw(ctx, alice, 1040)
		require.NoError(t, err)
		assert.Equal(t, int64(1020), net)

		history, err := svc.wallets.History(ctx, alice, 0)
		require.NoError(t, err)
		require.Len(t, history, 4)
		assert.Equal(t, models.TransactionTypeWithdraw, history[0].TransactionType)
		assert.Equal(t, int64(0), history[0].BalanceAfter)
	})

	bus.Wait()
	settledMu.Lock()
	defer settledMu.Unlock()
	require.Len(t, settled, 1)
	assert.Equal(t, events.EventSettledEvent{EventID: eventID, WinningOutcome: "A", Pool: 100, WinnerCount: 1, LoserCount: 1}, settled[0])

	assert.Positive(t, recorder.count("commit"))
	assert.Positive(t, recorder.count("rollback"))
}

func TestUnitOfWork_IdempotentFundUnderConcurrency(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)
	factory := NewUnitOfWorkFactory(testDB.DB, events.NewBus())
	svc := newServices(factory, config.NewTestConfig())

	alice := signup(t, svc, "alice")
	ctx := service.WithIdempotencyKey(context.Background(), "fund-once")

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, svc.wallets.Fund(ctx, alice, 100, testCard))
		}()
	}
	wg.Wait()

	balance, err := svc.wallets.GetBalance(context.Background(), alice)
	require.NoError(t, err)
	assert.Equal(t, int64(100), balance)
}

func TestUnitOfWork_RemovalRefunds(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)
	ctx := context.Background()

	cfg := config.NewTestConfig()
	cfg.RemovalPolicy = config.RemovalPolicyRefund
	svc := newServices(NewUnitOfWorkFactory(testDB.DB, events.NewBus()), cfg)

	owner := signup(t, svc, "owner")
	alice := signup(t, svc, "alice")
	require.NoError(t, svc.wallets.Fund(ctx, alice, 500, testCard))

	eventID := openEvent(t, svc, owner, 25)
	_, err := svc.betting.PlaceBet(ctx, alice, eventID, 4, "A")
	require.NoError(t, err)

	require.NoError(t, svc.events.RemoveEvent(ctx, eventID))

	balance, err := svc.wallets.GetBalance(ctx, alice)
	require.NoError(t, err)
	assert.Equal(t, int64(500), balance)

	_, err = svc.settlement.FinalizeEvent(ctx, eventID, "A")
	assert.ErrorIs(t, err, service.ErrInvalidState)
}

func TestUnitOfWork_RepositoriesRequireBegin(t *testing.T) {
	uow := (&UnitOfWorkFactory{}).Create()

	assert.PanicsWithValue(t, notStarted, func() { uow.WalletRepository() })
	assert.NoError(t, uow.Rollback())
	assert.Error(t, uow.Commit())
}
