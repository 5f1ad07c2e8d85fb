package models

import (
	"time"
)

// PaymentInstrument is a card registered against a wallet when it is funded.
// Only the last four digits of the card number are ever persisted.
type PaymentInstrument struct {
	ID          int64     `db:"id"`
	WalletID    int64     `db:"wallet_id"`
	CardLast4   string    `db:"card_last4"`
	ExpiryMonth int       `db:"expiry_month"`
	ExpiryYear  int       `db:"expiry_year"`
	CreatedAt   time.Time `db:"created_at"`
}

// CardDetails is the full card data supplied by the caller when funding a wallet
type CardDetails struct {
	Number string `validate:"required,numeric,min=14,max=16"`
	CVV    string `validate:"required,numeric,len=3"`
	Expiry string `validate:"required,card_expiry"` // MM/YY
}

// Last4 returns the last four digits of the card number
func (c CardDetails) Last4() string {
	if len(c.Number) < 4 {
		return c.Number
	}
	return c.Number[len(c.Number)-4:]
}
