package repository

import (
	"context"
	"fmt"

	"betpool/database"
	"betpool/models"

	"github.com/jackc/pgx/v5"
)

// BetRepository implements the bet book
type BetRepository struct {
	q queryable
}

// NewBetRepository creates a new bet repository
func NewBetRepository(db *database.DB) *BetRepository {
	return &BetRepository{q: db.Pool}
}

// newBetRepositoryWithTx creates a new bet repository with a transaction
func newBetRepositoryWithTx(tx queryable) *BetRepository {
	return &BetRepository{q: tx}
}

const betColumns = `id, event_id, account_id, wallet_id, quota_count, chosen_outcome, payout, created_at`

// Create inserts a new bet
func (r *BetRepository) Create(ctx context.Context, bet *models.Bet) error {
	query := `
		INSERT INTO bets (event_id, account_id, wallet_id, quota_count, chosen_outcome)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`

	err := r.q.QueryRow(ctx, query,
		bet.EventID,
		bet.AccountID,
		bet.WalletID,
		bet.QuotaCount,
		bet.ChosenOutcome,
	).Scan(&bet.ID, &bet.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create bet on event %d: %w", bet.EventID, classify(err))
	}

	return nil
}

// GetByEvent returns every bet on an event
func (r *BetRepository) GetByEvent(ctx context.Context, eventID int64) ([]*models.Bet, error) {
	query := `SELECT ` + betColumns + ` FROM bets WHERE event_id = $1 ORDER BY id`

	rows, err := r.q.Query(ctx, query, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to get bets for event %d: %w", eventID, classify(err))
	}
	defer rows.Close()

	return collectBets(rows)
}

// GetByEventAndOutcome returns the bets on an event whose outcome matches exactly
func (r *BetRepository) GetByEventAndOutcome(ctx context.Context, eventID int64, outcome string) ([]*models.Bet, error) {
	query := `SELECT ` + betColumns + ` FROM bets WHERE event_id = $1 AND chosen_outcome = $2 ORDER BY id`

	rows, err := r.q.Query(ctx, query, eventID, outcome)
	if err != nil {
		return nil, fmt.Errorf("failed to get bets for event %d outcome %q: %w", eventID, outcome, classify(err))
	}
	defer rows.Close()

	return collectBets(rows)
}

// GetOutcomeTotals aggregates quotas and bet counts per outcome
func (r *BetRepository) GetOutcomeTotals(ctx context.Context, eventID int64) ([]*models.OutcomeTotal, error) {
	query := `
		SELECT chosen_outcome, SUM(quota_count)::BIGINT, COUNT(*)
		FROM bets
		WHERE event_id = $1
		GROUP BY chosen_outcome
		ORDER BY SUM(quota_count) DESC, chosen_outcome
	`

	rows, err := r.q.Query(ctx, query, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to get outcome totals for event %d: %w", eventID, classify(err))
	}
	defer rows.Close()

	var totals []*models.OutcomeTotal
	for rows.Next() {
		var t models.OutcomeTotal
		if err := rows.Scan(&t.Outcome, &t.QuotaCount, &t.BetCount); err != nil {
			return nil, fmt.Errorf("failed to scan outcome total: %w", err)
		}
		totals = append(totals, &t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate outcome totals: %w", classify(err))
	}

	return totals, nil
}

// UpdatePayouts writes the payout annotation of every given bet in one statement
func (r *BetRepository) UpdatePayouts(ctx context.Context, bets []*models.Bet) error {
	if len(bets) == 0 {
		return nil
	}

	ids := make([]int64, 0, len(bets))
	payouts := make([]int64, 0, len(bets))
	for _, bet := range bets {
		if bet.Payout == nil {
			return fmt.Errorf("bet %d has no payout to record", bet.ID)
		}
		ids = append(ids, bet.ID)
		payouts = append(payouts, *bet.Payout)
	}

	query := `
		UPDATE bets AS b
		SET payout = u.payout
		FROM unnest($1::BIGINT[], $2::BIGINT[]) AS u(id, payout)
		WHERE b.id = u.id
	`

	result, err := r.q.Exec(ctx, query, ids, payouts)
	if err != nil {
		return fmt.Errorf("failed to update bet payouts: %w", classify(err))
	}
	if result.RowsAffected() != int64(len(bets)) {
		return fmt.Errorf("updated %d bet payouts, expected %d", result.RowsAffected(), len(bets))
	}

	return nil
}

func collectBets(rows pgx.Rows) ([]*models.Bet, error) {
	var bets []*models.Bet
	for rows.Next() {
		var bet models.Bet
		err := rows.Scan(
			&bet.ID,
			&bet.EventID,
			&bet.AccountID,
			&bet.WalletID,
			&bet.QuotaCount,
			&bet.ChosenOutcome,
			&bet.Payout,
			&bet.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan bet: %w", err)
		}
		bets = append(bets, &bet)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate bets: %w", classify(err))
	}

	return bets, nil
}
