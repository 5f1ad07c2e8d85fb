package models

import (
	"time"
)

// Wallet holds the currency balance owned by exactly one account
type Wallet struct {
	ID        int64     `db:"id"`
	Balance   int64     `db:"balance"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// CanCover reports whether the wallet balance covers the given amount
func (w *Wallet) CanCover(amount int64) bool {
	return amount > 0 && w.Balance >= amount
}
