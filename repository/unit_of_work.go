package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"betpool/database"
	"betpool/events"
	"betpool/service"

	"github.com/jackc/pgx/v5"
	log "github.com/sirupsen/logrus"
)

// TransactionObserver is told how each unit of work ended
type TransactionObserver interface {
	ObserveTransaction(outcome string, duration time.Duration)
}

// unitOfWork implements the UnitOfWork interface
type unitOfWork struct {
	db               *database.DB
	tx               pgx.Tx
	ctx              context.Context
	startedAt        time.Time
	observer         TransactionObserver
	transactionalBus *events.TransactionalBus

	accountRepo           service.AccountRepository
	walletRepo            service.WalletRepository
	paymentInstrumentRepo service.PaymentInstrumentRepository
	eventRepo             service.EventRepository
	betRepo               service.BetRepository
	balanceHistoryRepo    service.BalanceHistoryRepository
	idempotencyRepo       service.IdempotencyRepository
}

// UnitOfWorkFactory creates units of work bound to one connection pool and event bus
type UnitOfWorkFactory struct {
	db       *database.DB
	eventBus *events.Bus
	observer TransactionObserver
}

// NewUnitOfWorkFactory creates a new UnitOfWork factory
func NewUnitOfWorkFactory(db *database.DB, eventBus *events.Bus) *UnitOfWorkFactory {
	return &UnitOfWorkFactory{
		db:       db,
		eventBus: eventBus,
	}
}

// WithObserver reports the outcome and duration of every transaction to o
func (f *UnitOfWorkFactory) WithObserver(o TransactionObserver) *UnitOfWorkFactory {
	f.observer = o
	return f
}

func (f *UnitOfWorkFactory) Create() service.UnitOfWork {
	return &unitOfWork{
		db:               f.db,
		observer:         f.observer,
		transactionalBus: events.NewTransactionalBus(f.eventBus),
	}
}

// Begin starts a new transaction
func (u *unitOfWork) Begin(ctx context.Context) error {
	if u.tx != nil {
		return fmt.Errorf("transaction already started")
	}

	tx, err := u.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", classify(err))
	}

	u.tx = tx
	u.ctx = ctx
	u.startedAt = time.Now()

	// Create repositories with the transaction
	u.accountRepo = newAccountRepositoryWithTx(tx)
	u.walletRepo = newWalletRepositoryWithTx(tx)
	u.paymentInstrumentRepo = newPaymentInstrumentRepositoryWithTx(tx)
	u.eventRepo = newEventRepositoryWithTx(tx)
	u.betRepo = newBetRepositoryWithTx(tx)
	u.balanceHistoryRepo = newBalanceHistoryRepositoryWithTx(tx)
	u.idempotencyRepo = newIdempotencyRepositoryWithTx(tx)

	return nil
}

// Commit commits the transaction and then flushes pending events
func (u *unitOfWork) Commit() error {
	if u.tx == nil {
		return fmt.Errorf("no transaction to commit")
	}

	err := u.tx.Commit(u.ctx)
	u.tx = nil
	if err != nil {
		u.transactionalBus.Discard()
		u.observe("commit_failed")
		return fmt.Errorf("failed to commit transaction: %w", classify(err))
	}

	u.observe("commit")
	u.transactionalBus.Flush(u.ctx)

	return nil
}

// Rollback rolls back the transaction. It is a no-op after Commit.
func (u *unitOfWork) Rollback() error {
	if u.tx == nil {
		return nil
	}

	// The caller's context may already be done; the rollback must still reach the server
	err := u.tx.Rollback(context.WithoutCancel(u.ctx))
	u.tx = nil
	u.transactionalBus.Discard()
	u.observe("rollback")

	if err != nil && !errors.Is(err, pgx.ErrTxClosed) {
		log.WithError(err).Warn("Failed to roll back transaction")
		return fmt.Errorf("failed to rollback transaction: %w", err)
	}

	return nil
}

func (u *unitOfWork) observe(outcome string) {
	if u.observer != nil {
		u.observer.ObserveTransaction(outcome, time.Since(u.startedAt))
	}
}

const notStarted = "unit of work not started - call Begin() first"

// AccountRepository returns the account repository for this unit of work
func (u *unitOfWork) AccountRepository() service.AccountRepository {
	if u.accountRepo == nil {
		panic(notStarted)
	}
	return u.accountRepo
}

// WalletRepository returns the wallet repository for this unit of work
func (u *unitOfWork) WalletRepository() service.WalletRepository {
	if u.walletRepo == nil {
		panic(notStarted)
	}
	return u.walletRepo
}

// PaymentInstrumentRepository returns the payment instrument repository for this unit of work
func (u *unitOfWork) PaymentInstrumentRepository() service.PaymentInstrumentRepository {
	if u.paymentInstrumentRepo == nil {
		panic(notStarted)
	}
	return u.paymentInstrumentRepo
}

// EventRepository returns the event repository for this unit of work
func (u *unitOfWork) EventRepository() service.EventRepository {
	if u.eventRepo == nil {
		panic(notStarted)
	}
	return u.eventRepo
}

// BetRepository returns the bet repository for this unit of work
func (u *unitOfWork) BetRepository() service.BetRepository {
	if u.betRepo == nil {
		panic(notStarted)
	}
	return u.betRepo
}

// BalanceHistoryRepository returns the balance history repository for this unit of work
func (u *unitOfWork) BalanceHistoryRepository() service.BalanceHistoryRepository {
	if u.balanceHistoryRepo == nil {
		panic(notStarted)
	}
	return u.balanceHistoryRepo
}

// IdempotencyRepository returns the idempotency repository for this unit of work
func (u *unitOfWork) IdempotencyRepository() service.IdempotencyRepository {
	if u.idempotencyRepo == nil {
		panic(notStarted)
	}
	return u.idempotencyRepo
}

// EventBus returns the transactional event bus for this unit of work
func (u *unitOfWork) EventBus() service.EventPublisher {
	if u.transactionalBus == nil {
		panic(notStarted)
	}
	return u.transactionalBus
}
