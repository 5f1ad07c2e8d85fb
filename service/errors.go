package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Failure taxonomy shared by every core operation. Callers match with errors.Is.
var (
	ErrNotFound          = errors.New("not found")
	ErrInvalidState      = errors.New("invalid state")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrNoBetsFound       = errors.New("no bets found")
	ErrNoWinningBets     = errors.New("no winning bets")
	ErrValidation        = errors.New("validation failed")
	ErrAuthFailure       = errors.New("authentication failed")
	ErrTransientStore    = errors.New("transient store error")
	ErrPermanentStore    = errors.New("permanent store error")
)

// ValidationError describes malformed input rejected before touching the store
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// Unwrap lets errors.Is(err, ErrValidation) match
func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

func newValidationError(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// fromValidator converts validator/v10 field errors into a ValidationError
func fromValidator(err error) error {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}

	fe := fieldErrs[0]
	reason := fe.Tag()
	if fe.Param() != "" {
		reason = fmt.Sprintf("%s=%s", fe.Tag(), fe.Param())
	}
	return &ValidationError{Field: strings.ToLower(fe.Field()), Reason: "failed " + reason}
}

// IsRetryable reports whether the whole operation may be safely retried
func IsRetryable(err error) bool {
	return errors.Is(err, ErrTransientStore)
}

// asStoreTimeout marks a context deadline hit inside the store as transient
func asStoreTimeout(err error) error {
	if err == nil || errors.Is(err, ErrTransientStore) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %w", ErrTransientStore, err)
	}
	return err
}
