package repository

import (
	"context"
	"fmt"

	"betpool/database"
	"betpool/models"
)

// PaymentInstrumentRepository implements the PaymentInstrumentRepository interface
type PaymentInstrumentRepository struct {
	q queryable
}

// NewPaymentInstrumentRepository creates a new payment instrument repository
func NewPaymentInstrumentRepository(db *database.DB) *PaymentInstrumentRepository {
	return &PaymentInstrumentRepository{q: db.Pool}
}

func newPaymentInstrumentRepositoryWithTx(tx queryable) *PaymentInstrumentRepository {
	return &PaymentInstrumentRepository{q: tx}
}

// GetOrCreate registers the card against the wallet. A card already on file
// keeps its original row.
func (r *PaymentInstrumentRepository) GetOrCreate(ctx context.Context, instrument *models.PaymentInstrument) error {
	query := `
		INSERT INTO payment_instruments (wallet_id, card_last4, expiry_month, expiry_year)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (wallet_id, card_last4, expiry_month, expiry_year)
		DO UPDATE SET wallet_id = EXCLUDED.wallet_id
		RETURNING id, created_at
	`

	err := r.q.QueryRow(ctx, query,
		instrument.WalletID,
		instrument.CardLast4,
		instrument.ExpiryMonth,
		instrument.ExpiryYear,
	).Scan(&instrument.ID, &instrument.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to register payment instrument for wallet %d: %w", instrument.WalletID, classify(err))
	}

	return nil
}

// GetByWallet lists the instruments registered against a wallet
func (r *PaymentInstrumentRepository) GetByWallet(ctx context.Context, walletID int64) ([]*models.PaymentInstrument, error) {
	query := `
		SELECT id, wallet_id, card_last4, expiry_month, expiry_year, created_at
		FROM payment_instruments
		WHERE wallet_id = $1
		ORDER BY created_at DESC, id DESC
	`

	rows, err := r.q.Query(ctx, query, walletID)
	if err != nil {
		return nil, fmt.Errorf("failed to get payment instruments for wallet %d: %w", walletID, classify(err))
	}
	defer rows.Close()

	var instruments []*models.PaymentInstrument
	for rows.Next() {
		var pi models.PaymentInstrument
		if err := rows.Scan(&pi.ID, &pi.WalletID, &pi.CardLast4, &pi.ExpiryMonth, &pi.ExpiryYear, &pi.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan payment instrument: %w", err)
		}
		instruments = append(instruments, &pi)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate payment instruments: %w", classify(err))
	}

	return instruments, nil
}
