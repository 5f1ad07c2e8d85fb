package service

import (
	"context"
	"fmt"
	"time"

	"betpool/config"
	"betpool/models"

	log "github.com/sirupsen/logrus"
)

const (
	defaultHistoryLimit = 50
	maxHistoryLimit     = 500
)

type walletService struct {
	uowFactory UnitOfWorkFactory
	config     *config.Config
	now        func() time.Time
}

// NewWalletService creates a new wallet service
func NewWalletService(uowFactory UnitOfWorkFactory, cfg *config.Config) WalletService {
	return &walletService{
		uowFactory: uowFactory,
		config:     cfg,
		now:        time.Now,
	}
}

// GetBalance returns the balance of the account's wallet
func (s *walletService) GetBalance(ctx context.Context, accountID int64) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, s.config.StoreTimeout)
	defer cancel()

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return 0, asStoreTimeout(err)
	}
	defer uow.Rollback()

	account, err := getAccount(ctx, uow, accountID)
	if err != nil {
		return 0, asStoreTimeout(err)
	}

	wallet, err := uow.WalletRepository().GetByID(ctx, account.WalletID)
	if err != nil {
		return 0, asStoreTimeout(fmt.Errorf("failed to get wallet: %w", err))
	}
	if wallet == nil {
		return 0, fmt.Errorf("wallet %d: %w", account.WalletID, ErrNotFound)
	}

	return wallet.Balance, nil
}

// Fund credits the wallet after registering the card it was paid from
func (s *walletService) Fund(ctx context.Context, accountID int64, amount int64, card models.CardDetails) error {
	if err := validatePositive("amount", amount); err != nil {
		return err
	}
	month, year, err := validateCard(card, s.now())
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, s.config.StoreTimeout)
	defer cancel()

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return asStoreTimeout(err)
	}
	defer uow.Rollback()

	guard, replayed, _, err := claimIdempotency(ctx, uow, accountScope("fund", accountID))
	if err != nil {
		return asStoreTimeout(err)
	}
	if replayed {
		log.WithField("accountID", accountID).Info("Fund request replayed, skipping")
		return nil
	}

	account, err := getAccount(ctx, uow, accountID)
	if err != nil {
		return asStoreTimeout(err)
	}

	instrument := &models.PaymentInstrument{
		WalletID:    account.WalletID,
		CardLast4:   card.Last4(),
		ExpiryMonth: month,
		ExpiryYear:  year,
	}
	if err := uow.PaymentInstrumentRepository().GetOrCreate(ctx, instrument); err != nil {
		return asStoreTimeout(fmt.Errorf("failed to register payment instrument: %w", err))
	}

	history, err := creditWallet(ctx, uow, ledgerEntry{
		walletID: account.WalletID,
		amount:   amount,
		txType:   models.TransactionTypeFund,
		metadata: map[string]any{
			"card_last4": instrument.CardLast4,
		},
		relatedID:   int64Ptr(instrument.ID),
		relatedType: models.RelatedTypePaymentInstrument,
	})
	if err != nil {
		return asStoreTimeout(fmt.Errorf("failed to fund wallet: %w", err))
	}

	if err := guard.complete(ctx, uow, history.ID); err != nil {
		return asStoreTimeout(err)
	}

	if err := uow.Commit(); err != nil {
		return asStoreTimeout(err)
	}

	log.WithFields(log.Fields{
		"accountID":  accountID,
		"amount":     amount,
		"newBalance": history.BalanceAfter,
	}).Info("Wallet funded")

	return nil
}

// Withdraw debits the full gross amount and returns what is paid out after tax.
// The tax stays with the platform.
func (s *walletService) Withdraw(ctx context.Context, accountID int64, amount int64) (int64, error) {
	if err := validatePositive("amount", amount); err != nil {
		return 0, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.config.StoreTimeout)
	defer cancel()

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return 0, asStoreTimeout(err)
	}
	defer uow.Rollback()

	guard, replayed, storedNet, err := claimIdempotency(ctx, uow, accountScope("withdraw", accountID))
	if err != nil {
		return 0, asStoreTimeout(err)
	}
	if replayed {
		return storedNet, nil
	}

	account, err := getAccount(ctx, uow, accountID)
	if err != nil {
		return 0, asStoreTimeout(err)
	}

	fee := WithdrawalFee(amount)
	net := amount - fee

	history, err := debitWallet(ctx, uow, ledgerEntry{
		walletID: account.WalletID,
		amount:   amount,
		txType:   models.TransactionTypeWithdraw,
		metadata: map[string]any{
			"gross":    amount,
			"fee":      fee,
			"net":      net,
			"tax_rate": WithdrawalRate(amount).String(),
		},
	})
	if err != nil {
		return 0, asStoreTimeout(fmt.Errorf("failed to withdraw: %w", err))
	}

	if err := guard.complete(ctx, uow, net); err != nil {
		return 0, asStoreTimeout(err)
	}

	if err := uow.Commit(); err != nil {
		return 0, asStoreTimeout(err)
	}

	log.WithFields(log.Fields{
		"accountID":  accountID,
		"gross":      amount,
		"net":        net,
		"newBalance": history.BalanceAfter,
	}).Info("Withdrawal processed")

	return net, nil
}

// History returns the most recent ledger entries, newest first
func (s *walletService) History(ctx context.Context, accountID int64, limit int) ([]*models.BalanceHistory, error) {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}

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

	history, err := uow.BalanceHistoryRepository().GetByWallet(ctx, account.WalletID, limit)
	if err != nil {
		return nil, asStoreTimeout(fmt.Errorf("failed to get wallet history: %w", err))
	}

	return history, nil
}
