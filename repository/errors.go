package repository

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"

	"betpool/service"

	"github.com/jackc/pgx/v5/pgconn"
)

// SQLSTATE codes handled explicitly
const (
	sqlStateSerializationFailure = "40001"
	sqlStateDeadlockDetected     = "40P01"
	sqlStateQueryCanceled        = "57014"
	sqlStateUniqueViolation      = "23505"
	sqlStateCheckViolation       = "23514"
)

// classify tags a driver error as transient or permanent so callers can match
// service.ErrTransientStore or service.ErrPermanentStore. Unknown errors pass through.
func classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, service.ErrTransientStore) || errors.Is(err, service.ErrPermanentStore) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("%w: %w", service.ErrTransientStore, err)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch {
		case pgErr.Code == sqlStateSerializationFailure,
			pgErr.Code == sqlStateDeadlockDetected,
			pgErr.Code == sqlStateQueryCanceled,
			strings.HasPrefix(pgErr.Code, "08"), // connection exception
			strings.HasPrefix(pgErr.Code, "53"): // insufficient resources
			return fmt.Errorf("%w: %w", service.ErrTransientStore, err)
		case strings.HasPrefix(pgErr.Code, "22"), // data exception, e.g. BIGINT overflow or an over-long value
			strings.HasPrefix(pgErr.Code, "23"): // integrity constraint violation
			return fmt.Errorf("%w: %w", service.ErrPermanentStore, err)
		}
		return err
	}

	var netErr net.Error
	if errors.As(err, &netErr) || pgconn.SafeToRetry(err) || pgconn.Timeout(err) {
		return fmt.Errorf("%w: %w", service.ErrTransientStore, err)
	}

	return err
}

// violatesConstraint reports whether err is a unique violation of the named constraint or index
func violatesConstraint(err error, name string) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == sqlStateUniqueViolation && pgErr.ConstraintName == name
}

// isCheckViolation reports whether err is a check constraint violation
func isCheckViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == sqlStateCheckViolation
}
