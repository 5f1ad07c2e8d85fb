package service

import (
	"testing"
	"time"

	"betpool/config"
	"betpool/events"
	"betpool/models"

	"github.com/stretchr/testify/mock"
)

// Mock helper functions

type serviceMocks struct {
	factory *MockUnitOfWorkFactory
	uow     *MockUnitOfWork
	repos   *MockRepositories
	cfg     *config.Config
}

func newServiceMocks() *serviceMocks {
	m := &serviceMocks{
		factory: new(MockUnitOfWorkFactory),
		uow:     new(MockUnitOfWork),
		repos:   NewMockRepositories(),
		cfg:     config.NewTestConfig(),
	}
	m.uow.SetRepositories(m.repos)
	m.factory.On("Create").Return(m.uow)
	return m
}

func (m *serviceMocks) assertExpectations(t *testing.T) {
	m.factory.AssertExpectations(t)
	m.uow.AssertExpectations(t)
	m.repos.AssertExpectations(t)
}

func setupBasicTransactionMocks(mockUoW *MockUnitOfWork) {
	mockUoW.On("Begin", mock.Anything).Return(nil)
	mockUoW.On("Commit").Return(nil)
	mockUoW.On("Rollback").Return(nil)
}

// setupReadOnlyTransactionMocks is for paths that must end without a commit
func setupReadOnlyTransactionMocks(mockUoW *MockUnitOfWork) {
	mockUoW.On("Begin", mock.Anything).Return(nil)
	mockUoW.On("Rollback").Return(nil)
}

func setupAccountMocks(repo *MockAccountRepository, account *models.Account) {
	repo.On("GetByID", mock.Anything, account.ID).Return(account, nil)
}

// setupCreditMocks expects a credit of amount to walletID landing on after
func setupCreditMocks(repos *MockRepositories, walletID, amount, after int64, txType models.TransactionType) {
	repos.Wallets.On("Credit", mock.Anything, walletID, amount).Return(after, nil).Once()
	repos.BalanceHistory.On("Record", mock.Anything, mock.MatchedBy(func(h *models.BalanceHistory) bool {
		return h.WalletID == walletID && h.ChangeAmount == amount && h.TransactionType == txType &&
			h.BalanceBefore == after-amount && h.BalanceAfter == after
	})).Return(nil).Once()
}

// setupDebitMocks expects a debit of amount from walletID landing on after
func setupDebitMocks(repos *MockRepositories, walletID, amount, after int64, txType models.TransactionType) {
	repos.Wallets.On("Debit", mock.Anything, walletID, amount).Return(after, nil).Once()
	repos.BalanceHistory.On("Record", mock.Anything, mock.MatchedBy(func(h *models.BalanceHistory) bool {
		return h.WalletID == walletID && h.ChangeAmount == -amount && h.TransactionType == txType &&
			h.BalanceBefore == after+amount && h.BalanceAfter == after
	})).Return(nil).Once()
}

func testAccount(id, walletID int64) *models.Account {
	return &models.Account{
		ID:          id,
		DisplayName: "Ana",
		Email:       "ana@example.com",
		WalletID:    walletID,
	}
}

func testEvent(id int64, status models.EventStatus, quotaPrice int64) *models.Event {
	start := time.Date(2030, 1, 1, 10, 0, 0, 0, time.UTC)
	return &models.Event{
		ID:             id,
		OwnerAccountID: 1,
		Title:          "Final match",
		Description:    "Who wins the final",
		Category:       "sports",
		QuotaPrice:     quotaPrice,
		StartTime:      start,
		EndTime:        start.Add(2 * time.Hour),
		EventDate:      start,
		Status:         status,
	}
}

// publishedOfType filters the events a mock unit of work published
func publishedOfType(uow *MockUnitOfWork, eventType events.EventType) []events.Event {
	var out []events.Event
	for _, e := range uow.Published() {
		if e.Type() == eventType {
			out = append(out, e)
		}
	}
	return out
}
