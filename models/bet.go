package models

import (
	"time"
)

// Bet is an immutable wager of a number of quotas on one outcome of an event
type Bet struct {
	ID            int64     `db:"id"`
	EventID       int64     `db:"event_id"`
	AccountID     int64     `db:"account_id"`
	WalletID      int64     `db:"wallet_id"`
	QuotaCount    int64     `db:"quota_count"`
	ChosenOutcome string    `db:"chosen_outcome"`
	Payout        *int64    `db:"payout"` // set once the event is settled
	CreatedAt     time.Time `db:"created_at"`
}

// OutcomeTotal aggregates the quotas staked on a single outcome
type OutcomeTotal struct {
	Outcome    string `db:"chosen_outcome"`
	QuotaCount int64  `db:"quota_count"`
	BetCount   int64  `db:"bet_count"`
}
