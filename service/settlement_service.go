package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"betpool/config"
	"betpool/events"
	"betpool/models"

	log "github.com/sirupsen/logrus"
)

type settlementService struct {
	uowFactory UnitOfWorkFactory
	config     *config.Config
	now        func() time.Time
}

// NewSettlementService creates a new settlement service
func NewSettlementService(uowFactory UnitOfWorkFactory, cfg *config.Config) SettlementService {
	return &settlementService{
		uowFactory: uowFactory,
		config:     cfg,
		now:        time.Now,
	}
}

// FinalizeEvent pays the pool out to the winning bets and marks the event
// settled, all in one transaction. Cancelling ctx does not interrupt a
// settlement in progress; only the configured settlement timeout does.
func (s *settlementService) FinalizeEvent(ctx context.Context, eventID int64, winningOutcome string) (*models.Settlement, error) {
	if strings.TrimSpace(winningOutcome) == "" {
		return nil, newValidationError("winningoutcome", "must not be empty")
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.config.SettlementTimeout)
	defer cancel()

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, asStoreTimeout(err)
	}
	defer uow.Rollback()

	guard, replayed, _, err := claimIdempotency(ctx, uow, fmt.Sprintf("finalize_event:%d", eventID))
	if err != nil {
		return nil, asStoreTimeout(err)
	}

	event, err := lockEvent(ctx, uow, eventID)
	if err != nil {
		return nil, asStoreTimeout(err)
	}

	bets, err := uow.BetRepository().GetByEvent(ctx, eventID)
	if err != nil {
		return nil, asStoreTimeout(fmt.Errorf("failed to get bets: %w", err))
	}

	if replayed {
		return settlementFromBook(event, bets), nil
	}

	if !event.Status.CanTransitionTo(models.EventStatusSettled) {
		return nil, fmt.Errorf("event %d is %s, cannot settle: %w", eventID, event.Status, ErrInvalidState)
	}

	settlement, err := ComputeSettlement(eventID, event.QuotaPrice, bets, winningOutcome)
	if err != nil {
		return nil, err
	}

	for _, p := range settlement.Payouts {
		if p.Amount == 0 {
			continue
		}
		_, err := creditWallet(ctx, uow, ledgerEntry{
			walletID: p.WalletID,
			amount:   p.Amount,
			txType:   models.TransactionTypeSettlementPayout,
			metadata: map[string]any{
				"event_id":        eventID,
				"winning_outcome": winningOutcome,
				"stake":           p.Stake,
				"pool":            settlement.Pool,
				"winner_pool":     settlement.WinnerPool,
			},
			relatedID:   int64Ptr(p.BetID),
			relatedType: models.RelatedTypeBet,
		})
		if err != nil {
			return nil, asStoreTimeout(fmt.Errorf("failed to pay bet %d: %w", p.BetID, err))
		}
	}

	for _, bet := range bets {
		bet.Payout = int64Ptr(settlement.PayoutFor(bet.ID))
	}
	if err := uow.BetRepository().UpdatePayouts(ctx, bets); err != nil {
		return nil, asStoreTimeout(fmt.Errorf("failed to record payouts: %w", err))
	}

	settledAt := s.now().UTC()
	event.Status = models.EventStatusSettled
	event.WinningOutcome = &winningOutcome
	event.SettledAt = &settledAt
	if err := uow.EventRepository().Update(ctx, event); err != nil {
		return nil, asStoreTimeout(fmt.Errorf("failed to settle event: %w", err))
	}

	if err := guard.complete(ctx, uow, eventID); err != nil {
		return nil, asStoreTimeout(err)
	}

	uow.EventBus().Publish(events.EventSettledEvent{
		EventID:        eventID,
		WinningOutcome: winningOutcome,
		Pool:           settlement.Pool,
		WinnerCount:    len(settlement.Payouts),
		LoserCount:     len(settlement.Losers),
	})

	if err := uow.Commit(); err != nil {
		return nil, asStoreTimeout(err)
	}

	log.WithFields(log.Fields{
		"eventID":        eventID,
		"winningOutcome": winningOutcome,
		"pool":           settlement.Pool,
		"winners":        len(settlement.Payouts),
		"losers":         len(settlement.Losers),
	}).Info("Event settled")

	return settlement, nil
}
