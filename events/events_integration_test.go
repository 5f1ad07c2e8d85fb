package events

import (
	"context"
	"sync"
	"testing"
	"time"

	"betpool/models"

	"github.com/stretchr/testify/assert"
)

// TestEventDeliveryIntegration tests the complete event flow from TransactionalBus to main Bus
func TestEventDeliveryIntegration(t *testing.T) {
	mainBus := NewBus()
	transactionalBus := NewTransactionalBus(mainBus)

	eventReceived := make(chan BalanceChangeEvent, 1)
	mainBus.Subscribe(EventTypeBalanceChange, func(ctx context.Context, event Event) {
		if balanceEvent, ok := event.(BalanceChangeEvent); ok {
			eventReceived <- balanceEvent
		} else {
			t.Errorf("Expected BalanceChangeEvent, got %T", event)
		}
	})

	testEvent := BalanceChangeEvent{
		WalletID:        42,
		OldBalance:      1000,
		NewBalance:      1060,
		TransactionType: models.TransactionTypeSettlementPayout,
		ChangeAmount:    60,
	}

	transactionalBus.Publish(testEvent)
	assert.Len(t, transactionalBus.Pending(), 1)

	err := transactionalBus.Flush(context.Background())
	assert.NoError(t, err)
	assert.Empty(t, transactionalBus.Pending())

	select {
	case received := <-eventReceived:
		assert.Equal(t, testEvent, received)
	case <-time.After(2 * time.Second):
		t.Fatal("Event was not received within timeout")
	}
}

// TestMultipleEventsDelivery tests delivering events of several types in one flush
func TestMultipleEventsDelivery(t *testing.T) {
	mainBus := NewBus()
	transactionalBus := NewTransactionalBus(mainBus)

	var mu sync.Mutex
	received := make(map[EventType]int)
	for _, et := range []EventType{EventTypeBalanceChange, EventTypeBetPlaced, EventTypeEventSettled} {
		mainBus.Subscribe(et, func(ctx context.Context, event Event) {
			mu.Lock()
			defer mu.Unlock()
			received[event.Type()]++
		})
	}

	transactionalBus.Publish(BalanceChangeEvent{WalletID: 1, OldBalance: 100, NewBalance: 70, ChangeAmount: -30, TransactionType: models.TransactionTypeBetPlaced})
	transactionalBus.Publish(BetPlacedEvent{BetID: 1, EventID: 9, AccountID: 1, QuotaCount: 3, Outcome: "yes", Stake: 30})
	transactionalBus.Publish(BalanceChangeEvent{WalletID: 1, OldBalance: 70, NewBalance: 130, ChangeAmount: 60, TransactionType: models.TransactionTypeSettlementPayout})
	transactionalBus.Publish(EventSettledEvent{EventID: 9, WinningOutcome: "yes", Pool: 60, WinnerCount: 1})

	assert.NoError(t, transactionalBus.Flush(context.Background()))
	mainBus.Wait()

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 2, received[EventTypeBalanceChange])
	assert.Equal(t, 1, received[EventTypeBetPlaced])
	assert.Equal(t, 1, received[EventTypeEventSettled])
}

// TestTransactionalBusDiscard tests that discarded events are not delivered
func TestTransactionalBusDiscard(t *testing.T) {
	mainBus := NewBus()
	transactionalBus := NewTransactionalBus(mainBus)

	eventReceived := make(chan bool, 1)
	mainBus.Subscribe(EventTypeEventRejected, func(ctx context.Context, event Event) {
		eventReceived <- true
	})

	transactionalBus.Publish(EventRejectedEvent{EventID: 5, Title: "Derby", RejectionMessage: "duplicate"})

	// Discard instead of flush (simulating transaction rollback)
	transactionalBus.Discard()

	select {
	case <-eventReceived:
		t.Fatal("Event was received despite being discarded")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestBus_HandlerPanicIsRecovered(t *testing.T) {
	bus := NewBus()

	done := make(chan struct{})
	bus.Subscribe(EventTypeEventRemoved, func(ctx context.Context, event Event) {
		panic("boom")
	})
	bus.Subscribe(EventTypeEventRemoved, func(ctx context.Context, event Event) {
		close(done)
	})

	bus.Emit(context.Background(), EventRemovedEvent{EventID: 3, Policy: "forfeit"})
	bus.Wait()

	select {
	case <-done:
	default:
		t.Fatal("second handler did not run")
	}
}

func TestTransactionalBus_FlushContextOutlivesCaller(t *testing.T) {
	bus := NewBus()
	transactionalBus := NewTransactionalBus(bus)

	ctxErr := make(chan error, 1)
	bus.Subscribe(EventTypeAccountCreated, func(ctx context.Context, event Event) {
		ctxErr <- ctx.Err()
	})

	ctx, cancel := context.WithCancel(context.Background())
	transactionalBus.Publish(AccountCreatedEvent{AccountID: 1, WalletID: 1, DisplayName: "ana"})
	cancel()
	assert.NoError(t, transactionalBus.Flush(ctx))
	bus.Wait()

	assert.NoError(t, <-ctxErr)
}
