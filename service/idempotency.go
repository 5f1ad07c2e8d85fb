package service

import (
	"context"
	"fmt"
)

type idempotencyKeyCtx struct{}

// maxIdempotencyKeyLength matches the idempotency_keys.key column
const maxIdempotencyKeyLength = 255

// WithIdempotencyKey attaches a client-supplied key to ctx. Operations that
// honour it apply their effects at most once per key.
func WithIdempotencyKey(ctx context.Context, key string) context.Context {
	return context.WithValue(ctx, idempotencyKeyCtx{}, key)
}

// IdempotencyKeyFrom returns the key attached to ctx, if any
func IdempotencyKeyFrom(ctx context.Context) (string, bool) {
	key, ok := ctx.Value(idempotencyKeyCtx{}).(string)
	return key, ok && key != ""
}

// idempotencyGuard binds a key to one unit of work
type idempotencyGuard struct {
	scope string
	key   string
}

// claimIdempotency reserves the key carried by ctx inside uow. When the key was
// already used it returns replayed=true and the stored result.
func claimIdempotency(ctx context.Context, uow UnitOfWork, scope string) (guard *idempotencyGuard, replayed bool, resultID int64, err error) {
	key, ok := IdempotencyKeyFrom(ctx)
	if !ok {
		return nil, false, 0, nil
	}
	if len(key) > maxIdempotencyKeyLength {
		return nil, false, 0, newValidationError("idempotency_key", fmt.Sprintf("must be at most %d bytes", maxIdempotencyKeyLength))
	}

	claimed, stored, err := uow.IdempotencyRepository().Claim(ctx, scope, key)
	if err != nil {
		return nil, false, 0, fmt.Errorf("failed to claim idempotency key: %w", err)
	}
	if !claimed {
		if stored != nil {
			resultID = *stored
		}
		return nil, true, resultID, nil
	}

	return &idempotencyGuard{scope: scope, key: key}, false, 0, nil
}

// complete records the result. A nil guard is a no-op.
func (g *idempotencyGuard) complete(ctx context.Context, uow UnitOfWork, resultID int64) error {
	if g == nil {
		return nil
	}
	if err := uow.IdempotencyRepository().Complete(ctx, g.scope, g.key, resultID); err != nil {
		return fmt.Errorf("failed to record idempotency key: %w", err)
	}
	return nil
}

func accountScope(op string, accountID int64) string {
	return fmt.Sprintf("%s:%d", op, accountID)
}
