package service

import (
	"context"

	"betpool/events"
	"betpool/models"
)

// AccountRepository defines the interface for account data access
type AccountRepository interface {
	// Create inserts a new account bound to an existing wallet
	Create(ctx context.Context, account *models.Account) error

	// GetByID retrieves an account by ID, returning nil if it does not exist
	GetByID(ctx context.Context, id int64) (*models.Account, error)

	// GetByEmail retrieves an account by its lower-cased email, returning nil if it does not exist
	GetByEmail(ctx context.Context, email string) (*models.Account, error)
}

// WalletRepository is the ledger store. Debit and Credit are single-row atomic
// updates and return the balance after the change.
type WalletRepository interface {
	// Create opens a wallet with a zero balance
	Create(ctx context.Context) (*models.Wallet, error)

	// GetByID retrieves a wallet by ID, returning nil if it does not exist
	GetByID(ctx context.Context, id int64) (*models.Wallet, error)

	// Debit subtracts amount only if the balance covers it
	Debit(ctx context.Context, walletID int64, amount int64) (int64, error)

	// Credit adds amount to the balance
	Credit(ctx context.Context, walletID int64, amount int64) (int64, error)
}

// PaymentInstrumentRepository defines the interface for stored card references
type PaymentInstrumentRepository interface {
	// GetOrCreate registers the instrument for the wallet, reusing an existing row for the same card
	GetOrCreate(ctx context.Context, instrument *models.PaymentInstrument) error

	// GetByWallet lists the instruments registered against a wallet
	GetByWallet(ctx context.Context, walletID int64) ([]*models.PaymentInstrument, error)
}

// EventRepository defines the interface for event data access
type EventRepository interface {
	// Create inserts a new event
	Create(ctx context.Context, event *models.Event) error

	// GetByID retrieves an event without locking, returning nil if it does not exist
	GetByID(ctx context.Context, id int64) (*models.Event, error)

	// GetByIDForUpdate retrieves an event and holds an exclusive row lock until the transaction ends
	GetByIDForUpdate(ctx context.Context, id int64) (*models.Event, error)

	// GetByIDForShare retrieves an event and holds a shared row lock until the transaction ends
	GetByIDForShare(ctx context.Context, id int64) (*models.Event, error)

	// Update persists status, winning outcome, rejection message and settlement time
	Update(ctx context.Context, event *models.Event) error

	// List returns events, optionally filtered by status
	List(ctx context.Context, status *models.EventStatus) ([]*models.Event, error)

	// Search returns events in the given status whose title, description or category contains term
	Search(ctx context.Context, term string, status models.EventStatus) ([]*models.Event, error)
}

// BetRepository is the bet book
type BetRepository interface {
	// Create inserts a new bet
	Create(ctx context.Context, bet *models.Bet) error

	// GetByEvent returns every bet on an event ordered by ID
	GetByEvent(ctx context.Context, eventID int64) ([]*models.Bet, error)

	// GetByEventAndOutcome returns the bets on an event for one exact outcome
	GetByEventAndOutcome(ctx context.Context, eventID int64, outcome string) ([]*models.Bet, error)

	// GetOutcomeTotals aggregates quotas per outcome for an event
	GetOutcomeTotals(ctx context.Context, eventID int64) ([]*models.OutcomeTotal, error)

	// UpdatePayouts stores the settlement payout annotation on each bet
	UpdatePayouts(ctx context.Context, bets []*models.Bet) error
}

// BalanceHistoryRepository defines the interface for the ledger journal
type BalanceHistoryRepository interface {
	// Record creates a new balance history entry
	Record(ctx context.Context, history *models.BalanceHistory) error

	// GetByWallet returns the most recent entries for a wallet
	GetByWallet(ctx context.Context, walletID int64, limit int) ([]*models.BalanceHistory, error)
}

// IdempotencyRepository records client-supplied idempotency keys
type IdempotencyRepository interface {
	// Claim reserves (scope, key). When the key was already completed it returns
	// claimed=false and the stored result. Concurrent claims of the same key block
	// until the first transaction ends.
	Claim(ctx context.Context, scope, key string) (claimed bool, resultID *int64, err error)

	// Complete stores the result of the operation guarded by (scope, key)
	Complete(ctx context.Context, scope, key string, resultID int64) error
}

// EventPublisher defines the interface for publishing events
type EventPublisher interface {
	Publish(event events.Event)
}

// ReviewNotifier delivers a rejection notice to the event owner
type ReviewNotifier interface {
	NotifyRejection(ctx context.Context, notice events.EventRejectedEvent) error
}

// UnitOfWork defines the interface for transactional repository operations
type UnitOfWork interface {
	// Begin starts a new transaction
	Begin(ctx context.Context) error

	// Commit commits the transaction
	Commit() error

	// Rollback rolls back the transaction
	Rollback() error

	// Repository getters
	AccountRepository() AccountRepository
	WalletRepository() WalletRepository
	PaymentInstrumentRepository() PaymentInstrumentRepository
	EventRepository() EventRepository
	BetRepository() BetRepository
	BalanceHistoryRepository() BalanceHistoryRepository
	IdempotencyRepository() IdempotencyRepository
	EventBus() EventPublisher
}

// UnitOfWorkFactory defines the interface for creating UnitOfWork instances
type UnitOfWorkFactory interface {
	Create() UnitOfWork
}

// AccountService defines the interface for account operations
type AccountService interface {
	// CreateAccount validates the signup data and creates the account with an empty wallet
	CreateAccount(ctx context.Context, req CreateAccountRequest) (int64, error)

	// Authenticate checks credentials and returns the account ID
	Authenticate(ctx context.Context, email, credential string) (int64, error)

	// GetAccount retrieves an account by ID
	GetAccount(ctx context.Context, accountID int64) (*models.Account, error)
}

// WalletService defines the interface for wallet operations
type WalletService interface {
	// GetBalance returns the balance of the account's wallet
	GetBalance(ctx context.Context, accountID int64) (int64, error)

	// Fund credits the account's wallet from a payment card
	Fund(ctx context.Context, accountID int64, amount int64, card models.CardDetails) error

	// Withdraw debits the gross amount and returns the net paid out after tax
	Withdraw(ctx context.Context, accountID int64, amount int64) (int64, error)

	// History returns the most recent ledger entries of the account's wallet
	History(ctx context.Context, accountID int64, limit int) ([]*models.BalanceHistory, error)
}

// EventService defines the interface for event lifecycle operations
type EventService interface {
	// SubmitEvent creates an event pending review
	SubmitEvent(ctx context.Context, req SubmitEventRequest) (int64, error)

	// ReviewEvent approves or rejects a pending event
	ReviewEvent(ctx context.Context, eventID int64, decision models.ReviewDecision, rejectionMessage string) error

	// RemoveEvent withdraws an open event from the market
	RemoveEvent(ctx context.Context, eventID int64) error

	// GetEvent retrieves an event by ID
	GetEvent(ctx context.Context, eventID int64) (*models.Event, error)

	// ListEvents returns events in the given status, or all events for an empty status
	ListEvents(ctx context.Context, status models.EventStatus) ([]*models.Event, error)

	// SearchEvents returns open events matching term
	SearchEvents(ctx context.Context, term string) ([]*models.Event, error)
}

// BettingService defines the interface for bet book operations
type BettingService interface {
	// PlaceBet debits the stake and records the bet
	PlaceBet(ctx context.Context, accountID, eventID int64, quotaCount int64, outcome string) (int64, error)

	// ListBets returns every bet on an event
	ListBets(ctx context.Context, eventID int64) ([]*models.Bet, error)

	// ListBetsByOutcome returns the bets on an event for one outcome
	ListBetsByOutcome(ctx context.Context, eventID int64, outcome string) ([]*models.Bet, error)

	// OutcomeTotals returns quota totals per outcome
	OutcomeTotals(ctx context.Context, eventID int64) ([]*models.OutcomeTotal, error)
}

// SettlementService defines the interface for resolving events
type SettlementService interface {
	// FinalizeEvent distributes the pool to the winning bets and settles the event
	FinalizeEvent(ctx context.Context, eventID int64, winningOutcome string) (*models.Settlement, error)
}
