package models

import (
	"time"
)

// TransactionType represents the type of balance change
type TransactionType string

const (
	TransactionTypeInitial          TransactionType = "initial"
	TransactionTypeFund             TransactionType = "fund"
	TransactionTypeWithdraw         TransactionType = "withdraw"
	TransactionTypeBetPlaced        TransactionType = "bet_placed"
	TransactionTypeSettlementPayout TransactionType = "settlement_payout"
	TransactionTypeBetRefund        TransactionType = "bet_refund"
)

// RelatedType represents what type of entity the related_id refers to
type RelatedType string

const (
	RelatedTypeBet               RelatedType = "bet"
	RelatedTypeEvent             RelatedType = "event"
	RelatedTypePaymentInstrument RelatedType = "payment_instrument"
)

// BalanceHistory is one journal line of the wallet ledger
type BalanceHistory struct {
	ID                  int64           `db:"id"`
	WalletID            int64           `db:"wallet_id"`
	BalanceBefore       int64           `db:"balance_before"`
	BalanceAfter        int64           `db:"balance_after"`
	ChangeAmount        int64           `db:"change_amount"`
	TransactionType     TransactionType `db:"transaction_type"`
	TransactionMetadata map[string]any  `db:"transaction_metadata"`
	RelatedID           *int64          `db:"related_id"`
	RelatedType         *RelatedType    `db:"related_type"`
	CreatedAt           time.Time       `db:"created_at"`
}
