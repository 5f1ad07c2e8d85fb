package repository

import (
	"context"
	"errors"
	"fmt"

	"betpool/database"

	"github.com/jackc/pgx/v5"
)

// IdempotencyRepository stores idempotency keys next to the effects they guard
type IdempotencyRepository struct {
	q queryable
}

// NewIdempotencyRepository creates a new idempotency repository
func NewIdempotencyRepository(db *database.DB) *IdempotencyRepository {
	return &IdempotencyRepository{q: db.Pool}
}

func newIdempotencyRepositoryWithTx(tx queryable) *IdempotencyRepository {
	return &IdempotencyRepository{q: tx}
}

// Claim inserts the key. The primary key makes a concurrent claim of the same
// key wait for the first transaction; once that commits the insert is skipped
// and the stored result is returned instead.
func (r *IdempotencyRepository) Claim(ctx context.Context, scope, key string) (bool, *int64, error) {
	insert := `
		INSERT INTO idempotency_keys (scope, key)
		VALUES ($1, $2)
		ON CONFLICT (scope, key) DO NOTHING
		RETURNING true
	`

	var inserted bool
	err := r.q.QueryRow(ctx, insert, scope, key).Scan(&inserted)
	if err == nil {
		return true, nil, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return false, nil, fmt.Errorf("failed to claim idempotency key %s/%s: %w", scope, key, classify(err))
	}

	var resultID *int64
	err = r.q.QueryRow(ctx, `SELECT result_id FROM idempotency_keys WHERE scope = $1 AND key = $2`, scope, key).Scan(&resultID)
	if err != nil {
		return false, nil, fmt.Errorf("failed to read idempotency key %s/%s: %w", scope, key, classify(err))
	}

	return false, resultID, nil
}

// Complete stores the result produced under the key
func (r *IdempotencyRepository) Complete(ctx context.Context, scope, key string, resultID int64) error {
	result, err := r.q.Exec(ctx,
		`UPDATE idempotency_keys SET result_id = $3 WHERE scope = $1 AND key = $2`,
		scope, key, resultID,
	)
	if err != nil {
		return fmt.Errorf("failed to complete idempotency key %s/%s: %w", scope, key, classify(err))
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("idempotency key %s/%s was never claimed", scope, key)
	}
	return nil
}
