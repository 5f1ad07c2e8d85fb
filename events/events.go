package events

import (
	"context"
	"sync"

	"betpool/models"
	log "github.com/sirupsen/logrus"
)

// EventType represents different types of events in the system
type EventType string

const (
	EventTypeBalanceChange  EventType = "balance_change"
	EventTypeAccountCreated EventType = "account_created"
	EventTypeBetPlaced      EventType = "bet_placed"
	EventTypeEventSubmitted EventType = "event_submitted"
	EventTypeEventApproved  EventType = "event_approved"
	EventTypeEventRejected  EventType = "event_rejected"
	EventTypeEventRemoved   EventType = "event_removed"
	EventTypeEventSettled   EventType = "event_settled"
)

// AllEventTypes lists every event type emitted by the services
func AllEventTypes() []EventType {
	return []EventType{
		EventTypeBalanceChange,
		EventTypeAccountCreated,
		EventTypeBetPlaced,
		EventTypeEventSubmitted,
		EventTypeEventApproved,
		EventTypeEventRejected,
		EventTypeEventRemoved,
		EventTypeEventSettled,
	}
}

// Event is the base interface for all events
type Event interface {
	Type() EventType
}

// BalanceChangeEvent represents a balance change that occurred
type BalanceChangeEvent struct {
	WalletID        int64                  `json:"wallet_id"`
	OldBalance      int64                  `json:"old_balance"`
	NewBalance      int64                  `json:"new_balance"`
	TransactionType models.TransactionType `json:"transaction_type"`
	ChangeAmount    int64                  `json:"change_amount"`
}

func (e BalanceChangeEvent) Type() EventType {
	return EventTypeBalanceChange
}

// AccountCreatedEvent represents a new account and its wallet
type AccountCreatedEvent struct {
	AccountID   int64  `json:"account_id"`
	WalletID    int64  `json:"wallet_id"`
	DisplayName string `json:"display_name"`
}

func (e AccountCreatedEvent) Type() EventType {
	return EventTypeAccountCreated
}

// BetPlacedEvent represents a bet accepted into the bet book
type BetPlacedEvent struct {
	BetID      int64  `json:"bet_id"`
	EventID    int64  `json:"event_id"`
	AccountID  int64  `json:"account_id"`
	QuotaCount int64  `json:"quota_count"`
	Outcome    string `json:"outcome"`
	Stake      int64  `json:"stake"`
}

func (e BetPlacedEvent) Type() EventType {
	return EventTypeBetPlaced
}

// EventSubmittedEvent represents a new event awaiting review
type EventSubmittedEvent struct {
	EventID        int64  `json:"event_id"`
	OwnerAccountID int64  `json:"owner_account_id"`
	Title          string `json:"title"`
}

func (e EventSubmittedEvent) Type() EventType {
	return EventTypeEventSubmitted
}

// EventApprovedEvent represents an event opened for betting
type EventApprovedEvent struct {
	EventID int64  `json:"event_id"`
	Title   string `json:"title"`
}

func (e EventApprovedEvent) Type() EventType {
	return EventTypeEventApproved
}

// EventRejectedEvent carries everything needed to tell the owner why the event was rejected
type EventRejectedEvent struct {
	EventID          int64  `json:"event_id"`
	Title            string `json:"title"`
	OwnerAccountID   int64  `json:"owner_account_id"`
	OwnerEmail       string `json:"owner_email"`
	OwnerName        string `json:"owner_name"`
	RejectionMessage string `json:"rejection_message"`
}

func (e EventRejectedEvent) Type() EventType {
	return EventTypeEventRejected
}

// EventRemovedEvent represents an open event withdrawn from the market
type EventRemovedEvent struct {
	EventID      int64  `json:"event_id"`
	Policy       string `json:"policy"`
	BetsAffected int    `json:"bets_affected"`
	Refunded     int64  `json:"refunded"`
}

func (e EventRemovedEvent) Type() EventType {
	return EventTypeEventRemoved
}

// EventSettledEvent represents a finalized event
type EventSettledEvent struct {
	EventID        int64  `json:"event_id"`
	WinningOutcome string `json:"winning_outcome"`
	Pool           int64  `json:"pool"`
	WinnerCount    int    `json:"winner_count"`
	LoserCount     int    `json:"loser_count"`
}

func (e EventSettledEvent) Type() EventType {
	return EventTypeEventSettled
}

// Handler is a function that handles events
type Handler func(ctx context.Context, event Event)

// Bus manages event subscriptions and dispatching
type Bus struct {
	mu       sync.RWMutex
	handlers map[EventType][]Handler
	wg       sync.WaitGroup
}

// NewBus creates a new event bus
func NewBus() *Bus {
	return &Bus{
		handlers: make(map[EventType][]Handler),
	}
}

// Subscribe adds a handler for a specific event type
func (b *Bus) Subscribe(eventType EventType, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.handlers[eventType] = append(b.handlers[eventType], handler)

	log.WithFields(log.Fields{
		"eventType":    eventType,
		"handlerCount": len(b.handlers[eventType]),
	}).Debug("Subscribed handler to event type on main event bus")
}

// Emit publishes an event to all registered handlers
func (b *Bus) Emit(ctx context.Context, event Event) {
	b.mu.RLock()
	handlers := make([]Handler, len(b.handlers[event.Type()]))
	copy(handlers, b.handlers[event.Type()])
	b.mu.RUnlock()

	log.WithFields(log.Fields{
		"eventType":    event.Type(),
		"handlerCount": len(handlers),
	}).Debug("Emitting event to handlers on main event bus")

	// Call handlers asynchronously to avoid blocking
	for i, handler := range handlers {
		b.wg.Add(1)
		go func(h Handler, handlerIndex int) {
			defer b.wg.Done()
			defer func() {
				if r := recover(); r != nil {
					log.WithFields(log.Fields{
						"eventType":    event.Type(),
						"handlerIndex": handlerIndex,
						"panic":        r,
					}).Error("Event handler panicked")
				}
			}()
			h(ctx, event)
		}(handler, i)
	}
}

// Wait blocks until every handler started so far has returned
func (b *Bus) Wait() {
	b.wg.Wait()
}

// A transactional event bus for holding pending events coupled to the Unit of Work.
// Flushes to the underlying event bus.
type TransactionalBus struct {
	real    *Bus
	pending []Event // stashed until Flush
}

func NewTransactionalBus(real *Bus) *TransactionalBus {
	return &TransactionalBus{real: real}
}

func (b *TransactionalBus) Publish(e Event) {
	log.WithFields(log.Fields{
		"eventType":    e.Type(),
		"pendingCount": len(b.pending),
	}).Debug("Adding event to transactional bus pending queue")
	b.pending = append(b.pending, e)
}

// Pending returns the events waiting for a commit
func (b *TransactionalBus) Pending() []Event {
	return b.pending
}

// called after successful DB commit
func (b *TransactionalBus) Flush(ctx context.Context) error {
	log.WithFields(log.Fields{
		"pendingEventCount": len(b.pending),
	}).Debug("Flushing pending events from transactional bus to main event bus")

	// Handlers outlive the transaction, so they get a context that is never cancelled with it
	eventCtx := context.WithoutCancel(ctx)

	for _, ev := range b.pending {
		b.real.Emit(eventCtx, ev)
	}
	b.pending = nil
	return nil
}

// called after db rollback or to clear state.
func (b *TransactionalBus) Discard() {
	if len(b.pending) > 0 {
		log.WithField("discardedCount", len(b.pending)).Debug("Discarding pending events after rollback")
	}
	b.pending = nil
}
