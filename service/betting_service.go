package service

import (
	"context"
	"fmt"
	"math"
	"strings"

	"betpool/config"
	"betpool/events"
	"betpool/models"

	log "github.com/sirupsen/logrus"
)

type bettingService struct {
	uowFactory UnitOfWorkFactory
	config     *config.Config
}

// NewBettingService creates a new betting service
func NewBettingService(uowFactory UnitOfWorkFactory, cfg *config.Config) BettingService {
	return &bettingService{
		uowFactory: uowFactory,
		config:     cfg,
	}
}

// PlaceBet debits the stake from the bettor's wallet and records the bet in one
// transaction. The event row is share-locked so settlement cannot run until the
// bet is committed or rolled back.
func (s *bettingService) PlaceBet(ctx context.Context, accountID, eventID int64, quotaCount int64, outcome string) (int64, error) {
	if err := validatePositive("quotacount", quotaCount); err != nil {
		return 0, err
	}
	if strings.TrimSpace(outcome) == "" {
		return 0, newValidationError("outcome", "must not be empty")
	}

	ctx, cancel := context.WithTimeout(ctx, s.config.StoreTimeout)
	defer cancel()

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return 0, asStoreTimeout(err)
	}
	defer uow.Rollback()

	guard, replayed, storedBetID, err := claimIdempotency(ctx, uow, accountScope("place_bet", accountID))
	if err != nil {
		return 0, asStoreTimeout(err)
	}
	if replayed {
		return storedBetID, nil
	}

	account, err := getAccount(ctx, uow, accountID)
	if err != nil {
		return 0, asStoreTimeout(err)
	}

	event, err := uow.EventRepository().GetByIDForShare(ctx, eventID)
	if err != nil {
		return 0, asStoreTimeout(fmt.Errorf("failed to get event: %w", err))
	}
	if event == nil {
		return 0, fmt.Errorf("event %d: %w", eventID, ErrNotFound)
	}
	if !event.IsOpenForBetting() {
		// Callers that only know "no open event with this id" match ErrNotFound
		return 0, fmt.Errorf("event %d is %s: %w: %w", eventID, event.Status, ErrNotFound, ErrInvalidState)
	}

	if quotaCount > math.MaxInt64/event.QuotaPrice {
		return 0, newValidationError("quotacount", "stake exceeds ledger range")
	}
	stake := event.StakeFor(quotaCount)

	bet := &models.Bet{
		EventID:       eventID,
		AccountID:     accountID,
		WalletID:      account.WalletID,
		QuotaCount:    quotaCount,
		ChosenOutcome: outcome,
	}
	if err := uow.BetRepository().Create(ctx, bet); err != nil {
		return 0, asStoreTimeout(fmt.Errorf("failed to create bet: %w", err))
	}

	history, err := debitWallet(ctx, uow, ledgerEntry{
		walletID: account.WalletID,
		amount:   stake,
		txType:   models.TransactionTypeBetPlaced,
		metadata: map[string]any{
			"event_id":    eventID,
			"quota_count": quotaCount,
			"quota_price": event.QuotaPrice,
			"outcome":     outcome,
		},
		relatedID:   int64Ptr(bet.ID),
		relatedType: models.RelatedTypeBet,
	})
	if err != nil {
		return 0, asStoreTimeout(fmt.Errorf("failed to debit stake: %w", err))
	}

	if err := guard.complete(ctx, uow, bet.ID); err != nil {
		return 0, asStoreTimeout(err)
	}

	uow.EventBus().Publish(events.BetPlacedEvent{
		BetID:      bet.ID,
		EventID:    eventID,
		AccountID:  accountID,
		QuotaCount: quotaCount,
		Outcome:    outcome,
		Stake:      stake,
	})

	if err := uow.Commit(); err != nil {
		return 0, asStoreTimeout(err)
	}

	log.WithFields(log.Fields{
		"betID":      bet.ID,
		"eventID":    eventID,
		"accountID":  accountID,
		"stake":      stake,
		"newBalance": history.BalanceAfter,
	}).Info("Bet placed")

	return bet.ID, nil
}

// ListBets returns every bet on an event
func (s *bettingService) ListBets(ctx context.Context, eventID int64) ([]*models.Bet, error) {
	var bets []*models.Bet
	err := s.readEvent(ctx, eventID, func(ctx context.Context, uow UnitOfWork) error {
		var err error
		bets, err = uow.BetRepository().GetByEvent(ctx, eventID)
		return err
	})
	return bets, err
}

// ListBetsByOutcome returns the bets on an event whose outcome matches exactly
func (s *bettingService) ListBetsByOutcome(ctx context.Context, eventID int64, outcome string) ([]*models.Bet, error) {
	var bets []*models.Bet
	err := s.readEvent(ctx, eventID, func(ctx context.Context, uow UnitOfWork) error {
		var err error
		bets, err = uow.BetRepository().GetByEventAndOutcome(ctx, eventID, outcome)
		return err
	})
	return bets, err
}

// OutcomeTotals returns quota totals per outcome, largest first
func (s *bettingService) OutcomeTotals(ctx context.Context, eventID int64) ([]*models.OutcomeTotal, error) {
	var totals []*models.OutcomeTotal
	err := s.readEvent(ctx, eventID, func(ctx context.Context, uow UnitOfWork) error {
		var err error
		totals, err = uow.BetRepository().GetOutcomeTotals(ctx, eventID)
		return err
	})
	return totals, err
}

// readEvent runs fn in a read transaction after checking the event exists
func (s *bettingService) readEvent(ctx context.Context, eventID int64, fn func(ctx context.Context, uow UnitOfWork) error) error {
	ctx, cancel := context.WithTimeout(ctx, s.config.StoreTimeout)
	defer cancel()

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return asStoreTimeout(err)
	}
	defer uow.Rollback()

	event, err := uow.EventRepository().GetByID(ctx, eventID)
	if err != nil {
		return asStoreTimeout(fmt.Errorf("failed to get event: %w", err))
	}
	if event == nil {
		return fmt.Errorf("event %d: %w", eventID, ErrNotFound)
	}

	if err := fn(ctx, uow); err != nil {
		return asStoreTimeout(fmt.Errorf("failed to read bet book: %w", err))
	}
	return nil
}
