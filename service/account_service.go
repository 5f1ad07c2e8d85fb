package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"betpool/config"
	"betpool/events"
	"betpool/models"

	log "github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

type accountService struct {
	uowFactory UnitOfWorkFactory
	config     *config.Config
	now        func() time.Time
}

// NewAccountService creates a new account service
func NewAccountService(uowFactory UnitOfWorkFactory, cfg *config.Config) AccountService {
	return &accountService{
		uowFactory: uowFactory,
		config:     cfg,
		now:        time.Now,
	}
}

// CreateAccount creates the account and its zero-balance wallet in one transaction
func (s *accountService) CreateAccount(ctx context.Context, req CreateAccountRequest) (int64, error) {
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.DisplayName = strings.TrimSpace(req.DisplayName)

	if err := validate.Struct(req); err != nil {
		return 0, fromValidator(err)
	}
	if ageAt(req.BirthDate, s.now()) < s.config.MinimumAge {
		return 0, newValidationError("birthdate", fmt.Sprintf("account holder must be at least %d years old", s.config.MinimumAge))
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Credential), s.config.BcryptCost)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return 0, newValidationError("credential", fmt.Sprintf("must be at most %d bytes", maxCredentialBytes))
	}
	if err != nil {
		return 0, fmt.Errorf("failed to hash credential: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, s.config.StoreTimeout)
	defer cancel()

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return 0, asStoreTimeout(err)
	}
	defer uow.Rollback()

	existing, err := uow.AccountRepository().GetByEmail(ctx, req.Email)
	if err != nil {
		return 0, asStoreTimeout(fmt.Errorf("failed to check email: %w", err))
	}
	if existing != nil {
		return 0, newValidationError("email", "already registered")
	}

	wallet, err := uow.WalletRepository().Create(ctx)
	if err != nil {
		return 0, asStoreTimeout(fmt.Errorf("failed to create wallet: %w", err))
	}

	account := &models.Account{
		DisplayName:    req.DisplayName,
		Email:          req.Email,
		CredentialHash: string(hash),
		BirthDate:      req.BirthDate,
		WalletID:       wallet.ID,
	}
	if err := uow.AccountRepository().Create(ctx, account); err != nil {
		return 0, asStoreTimeout(fmt.Errorf("failed to create account: %w", err))
	}

	uow.EventBus().Publish(events.AccountCreatedEvent{
		AccountID:   account.ID,
		WalletID:    wallet.ID,
		DisplayName: account.DisplayName,
	})

	if err := uow.Commit(); err != nil {
		return 0, asStoreTimeout(err)
	}

	log.WithFields(log.Fields{
		"accountID": account.ID,
		"walletID":  wallet.ID,
	}).Info("Account created")

	return account.ID, nil
}

// Authenticate returns the account ID when the credential matches
func (s *accountService) Authenticate(ctx context.Context, email, credential string) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, s.config.StoreTimeout)
	defer cancel()

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return 0, asStoreTimeout(err)
	}
	defer uow.Rollback()

	account, err := uow.AccountRepository().GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return 0, asStoreTimeout(fmt.Errorf("failed to get account: %w", err))
	}
	if account == nil {
		return 0, ErrAuthFailure
	}

	err = bcrypt.CompareHashAndPassword([]byte(account.CredentialHash), []byte(credential))
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return 0, ErrAuthFailure
	}
	if err != nil {
		return 0, fmt.Errorf("failed to verify credential: %w", err)
	}

	return account.ID, nil
}

// GetAccount retrieves an account by ID
func (s *accountService) GetAccount(ctx context.Context, accountID int64) (*models.Account, error) {
	ctx, cancel := context.WithTimeout(ctx, s.config.StoreTimeout)
	defer cancel()

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, asStoreTimeout(err)
	}
	defer uow.Rollback()

	account, err := getAccount(ctx, uow, accountID)
	if err != nil {
		return nil, asStoreTimeout(err)
	}
	return account, nil
}

// getAccount loads an account or fails with ErrNotFound
func getAccount(ctx context.Context, uow UnitOfWork, accountID int64) (*models.Account, error) {
	account, err := uow.AccountRepository().GetByID(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	if account == nil {
		return nil, fmt.Errorf("account %d: %w", accountID, ErrNotFound)
	}
	return account, nil
}
