package service

import (
	"context"
	"sync"

	"betpool/events"
	"betpool/models"

	"github.com/stretchr/testify/mock"
)

// MockAccountRepository is a mock implementation of AccountRepository
type MockAccountRepository struct {
	mock.Mock
}

func (m *MockAccountRepository) Create(ctx context.Context, account *models.Account) error {
	args := m.Called(ctx, account)
	return args.Error(0)
}

func (m *MockAccountRepository) GetByID(ctx context.Context, id int64) (*models.Account, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Account), args.Error(1)
}

func (m *MockAccountRepository) GetByEmail(ctx context.Context, email string) (*models.Account, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Account), args.Error(1)
}

// MockWalletRepository is a mock implementation of WalletRepository
type MockWalletRepository struct {
	mock.Mock
}

func (m *MockWalletRepository) Create(ctx context.Context) (*models.Wallet, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Wallet), args.Error(1)
}

func (m *MockWalletRepository) GetByID(ctx context.Context, id int64) (*models.Wallet, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Wallet), args.Error(1)
}

func (m *MockWalletRepository) Debit(ctx context.Context, walletID int64, amount int64) (int64, error) {
	args := m.Called(ctx, walletID, amount)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockWalletRepository) Credit(ctx context.Context, walletID int64, amount int64) (int64, error) {
	args := m.Called(ctx, walletID, amount)
	return args.Get(0).(int64), args.Error(1)
}

// MockPaymentInstrumentRepository is a mock implementation of PaymentInstrumentRepository
type MockPaymentInstrumentRepository struct {
	mock.Mock
}

func (m *MockPaymentInstrumentRepository) GetOrCreate(ctx context.Context, instrument *models.PaymentInstrument) error {
	args := m.Called(ctx, instrument)
	return args.Error(0)
}

func (m *MockPaymentInstrumentRepository) GetByWallet(ctx context.Context, walletID int64) ([]*models.PaymentInstrument, error) {
	args := m.Called(ctx, walletID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.PaymentInstrument), args.Error(1)
}

// MockEventRepository is a mock implementation of EventRepository
type MockEventRepository struct {
	mock.Mock
}

func (m *MockEventRepository) Create(ctx context.Context, event *models.Event) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *MockEventRepository) GetByID(ctx context.Context, id int64) (*models.Event, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Event), args.Error(1)
}

func (m *MockEventRepository) GetByIDForUpdate(ctx context.Context, id int64) (*models.Event, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Event), args.Error(1)
}

func (m *MockEventRepository) GetByIDForShare(ctx context.Context, id int64) (*models.Event, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Event), args.Error(1)
}

func (m *MockEventRepository) Update(ctx context.Context, event *models.Event) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *MockEventRepository) List(ctx context.Context, status *models.EventStatus) ([]*models.Event, error) {
	args := m.Called(ctx, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Event), args.Error(1)
}

func (m *MockEventRepository) Search(ctx context.Context, term string, status models.EventStatus) ([]*models.Event, error) {
	args := m.Called(ctx, term, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Event), args.Error(1)
}

// MockBetRepository is a mock implementation of BetRepository
type MockBetRepository struct {
	mock.Mock
}

func (m *MockBetRepository) Create(ctx context.Context, bet *models.Bet) error {
	args := m.Called(ctx, bet)
	return args.Error(0)
}

func (m *MockBetRepository) GetByEvent(ctx context.Context, eventID int64) ([]*models.Bet, error) {
	args := m.Called(ctx, eventID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Bet), args.Error(1)
}

func (m *MockBetRepository) GetByEventAndOutcome(ctx context.Context, eventID int64, outcome string) ([]*models.Bet, error) {
	args := m.Called(ctx, eventID, outcome)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Bet), args.Error(1)
}

func (m *MockBetRepository) GetOutcomeTotals(ctx context.Context, eventID int64) ([]*models.OutcomeTotal, error) {
	args := m.Called(ctx, eventID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.OutcomeTotal), args.Error(1)
}

func (m *MockBetRepository) UpdatePayouts(ctx context.Context, bets []*models.Bet) error {
	args := m.Called(ctx, bets)
	return args.Error(0)
}

// MockBalanceHistoryRepository is a mock implementation of BalanceHistoryRepository
type MockBalanceHistoryRepository struct {
	mock.Mock
}

func (m *MockBalanceHistoryRepository) Record(ctx context.Context, history *models.BalanceHistory) error {
	args := m.Called(ctx, history)
	return args.Error(0)
}

func (m *MockBalanceHistoryRepository) GetByWallet(ctx context.Context, walletID int64, limit int) ([]*models.BalanceHistory, error) {
	args := m.Called(ctx, walletID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.BalanceHistory), args.Error(1)
}

// MockIdempotencyRepository is a mock implementation of IdempotencyRepository
type MockIdempotencyRepository struct {
	mock.Mock
}

func (m *MockIdempotencyRepository) Claim(ctx context.Context, scope, key string) (bool, *int64, error) {
	args := m.Called(ctx, scope, key)
	var result *int64
	if args.Get(1) != nil {
		result = args.Get(1).(*int64)
	}
	return args.Bool(0), result, args.Error(2)
}

func (m *MockIdempotencyRepository) Complete(ctx context.Context, scope, key string, resultID int64) error {
	args := m.Called(ctx, scope, key, resultID)
	return args.Error(0)
}

// MockEventPublisher is a mock implementation of EventPublisher for testing
type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(event events.Event) {
	m.Called(event)
}

// MockReviewNotifier is a mock implementation of ReviewNotifier
type MockReviewNotifier struct {
	mock.Mock
}

func (m *MockReviewNotifier) NotifyRejection(ctx context.Context, notice events.EventRejectedEvent) error {
	args := m.Called(ctx, notice)
	return args.Error(0)
}

// recordingPublisher keeps every event published through a mock unit of work
type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *recordingPublisher) Publish(e events.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
}

// MockUnitOfWork is a mock implementation of UnitOfWork. Begin, Commit and
// Rollback go through testify; repositories are whatever was set on it.
type MockUnitOfWork struct {
	mock.Mock

	accountRepo           AccountRepository
	walletRepo            WalletRepository
	paymentInstrumentRepo PaymentInstrumentRepository
	eventRepo             EventRepository
	betRepo               BetRepository
	balanceHistoryRepo    BalanceHistoryRepository
	idempotencyRepo       IdempotencyRepository
	publisher             recordingPublisher
}

// MockRepositories groups the repositories handed out by a MockUnitOfWork
type MockRepositories struct {
	Accounts           *MockAccountRepository
	Wallets            *MockWalletRepository
	PaymentInstruments *MockPaymentInstrumentRepository
	Events             *MockEventRepository
	Bets               *MockBetRepository
	BalanceHistory     *MockBalanceHistoryRepository
	Idempotency        *MockIdempotencyRepository
}

// NewMockRepositories creates a fresh set of repository mocks
func NewMockRepositories() *MockRepositories {
	return &MockRepositories{
		Accounts:           new(MockAccountRepository),
		Wallets:            new(MockWalletRepository),
		PaymentInstruments: new(MockPaymentInstrumentRepository),
		Events:             new(MockEventRepository),
		Bets:               new(MockBetRepository),
		BalanceHistory:     new(MockBalanceHistoryRepository),
		Idempotency:        new(MockIdempotencyRepository),
	}
}

// AssertExpectations asserts every repository mock
func (r *MockRepositories) AssertExpectations(t mock.TestingT) {
	r.Accounts.AssertExpectations(t)
	r.Wallets.AssertExpectations(t)
	r.PaymentInstruments.AssertExpectations(t)
	r.Events.AssertExpectations(t)
	r.Bets.AssertExpectations(t)
	r.BalanceHistory.AssertExpectations(t)
	r.Idempotency.AssertExpectations(t)
}

// SetRepositories wires the mocks into the unit of work
func (m *MockUnitOfWork) SetRepositories(r *MockRepositories) {
	m.accountRepo = r.Accounts
	m.walletRepo = r.Wallets
	m.paymentInstrumentRepo = r.PaymentInstruments
	m.eventRepo = r.Events
	m.betRepo = r.Bets
	m.balanceHistoryRepo = r.BalanceHistory
	m.idempotencyRepo = r.Idempotency
}

// Published returns the events published during the unit of work
func (m *MockUnitOfWork) Published() []events.Event {
	m.publisher.mu.Lock()
	defer m.publisher.mu.Unlock()
	return append([]events.Event(nil), m.publisher.events...)
}

func (m *MockUnitOfWork) Begin(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockUnitOfWork) Commit() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockUnitOfWork) Rollback() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockUnitOfWork) AccountRepository() AccountRepository { return m.accountRepo }

func (m *MockUnitOfWork) WalletRepository() WalletRepository { return m.walletRepo }

func (m *MockUnitOfWork) PaymentInstrumentRepository() PaymentInstrumentRepository {
	return m.paymentInstrumentRepo
}

func (m *MockUnitOfWork) EventRepository() EventRepository { return m.eventRepo }

func (m *MockUnitOfWork) BetRepository() BetRepository { return m.betRepo }

func (m *MockUnitOfWork) BalanceHistoryRepository() BalanceHistoryRepository {
	return m.balanceHistoryRepo
}

func (m *MockUnitOfWork) IdempotencyRepository() IdempotencyRepository { return m.idempotencyRepo }

func (m *MockUnitOfWork) EventBus() EventPublisher { return &m.publisher }

// MockUnitOfWorkFactory is a mock implementation of UnitOfWorkFactory
type MockUnitOfWorkFactory struct {
	mock.Mock
}

func (m *MockUnitOfWorkFactory) Create() UnitOfWork {
	args := m.Called()
	return args.Get(0).(UnitOfWork)
}
