package service

import (
	"context"
	"fmt"

	"betpool/events"
	"betpool/models"
)

// RecordBalanceChange records a balance history entry and emits the matching
// event on the unit of work bus, delivered only after commit.
func RecordBalanceChange(ctx context.Context, uow UnitOfWork, history *models.BalanceHistory) error {
	if err := uow.BalanceHistoryRepository().Record(ctx, history); err != nil {
		return fmt.Errorf("failed to record balance history: %w", err)
	}

	uow.EventBus().Publish(events.BalanceChangeEvent{
		WalletID:        history.WalletID,
		OldBalance:      history.BalanceBefore,
		NewBalance:      history.BalanceAfter,
		TransactionType: history.TransactionType,
		ChangeAmount:    history.ChangeAmount,
	})

	return nil
}

// ledgerEntry describes one wallet movement and its journal annotations
type ledgerEntry struct {
	walletID    int64
	amount      int64 // always positive; direction comes from debit or credit
	txType      models.TransactionType
	metadata    map[string]any
	relatedID   *int64
	relatedType models.RelatedType
}

// debitWallet atomically debits the wallet and journals the movement
func debitWallet(ctx context.Context, uow UnitOfWork, e ledgerEntry) (*models.BalanceHistory, error) {
	after, err := uow.WalletRepository().Debit(ctx, e.walletID, e.amount)
	if err != nil {
		return nil, err
	}
	return journal(ctx, uow, e, after+e.amount, after, -e.amount)
}

// creditWallet atomically credits the wallet and journals the movement
func creditWallet(ctx context.Context, uow UnitOfWork, e ledgerEntry) (*models.BalanceHistory, error) {
	after, err := uow.WalletRepository().Credit(ctx, e.walletID, e.amount)
	if err != nil {
		return nil, err
	}
	return journal(ctx, uow, e, after-e.amount, after, e.amount)
}

func journal(ctx context.Context, uow UnitOfWork, e ledgerEntry, before, after, change int64) (*models.BalanceHistory, error) {
	history := &models.BalanceHistory{
		WalletID:            e.walletID,
		BalanceBefore:       before,
		BalanceAfter:        after,
		ChangeAmount:        change,
		TransactionType:     e.txType,
		TransactionMetadata: e.metadata,
		RelatedID:           e.relatedID,
	}
	if e.relatedType != "" {
		history.RelatedType = relatedTypePtr(e.relatedType)
	}

	if err := RecordBalanceChange(ctx, uow, history); err != nil {
		return nil, err
	}
	return history, nil
}

func relatedTypePtr(rt models.RelatedType) *models.RelatedType {
	return &rt
}

func int64Ptr(v int64) *int64 {
	return &v
}
