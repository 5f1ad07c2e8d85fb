package service

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"betpool/models"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("card_expiry", func(fl validator.FieldLevel) bool {
		_, _, err := parseCardExpiry(fl.Field().String())
		return err == nil
	})
	_ = v.RegisterValidation("credential", func(fl validator.FieldLevel) bool {
		return isStrongCredential(fl.Field().String())
	})
	return v
}

// CreateAccountRequest carries signup data
type CreateAccountRequest struct {
	DisplayName string    `validate:"required,max=100"`
	Email       string    `validate:"required,email,max=255"`
	Credential  string    `validate:"required,max=72,credential"`
	BirthDate   time.Time `validate:"required"`
}

// SubmitEventRequest carries the data of a new event
type SubmitEventRequest struct {
	OwnerAccountID int64     `validate:"required,gt=0"`
	Title          string    `validate:"required,max=200"`
	Description    string    `validate:"required"`
	Category       string    `validate:"required,max=100"`
	QuotaPrice     int64     `validate:"required,gt=0"`
	StartTime      time.Time `validate:"required"`
	EndTime        time.Time `validate:"required,gtfield=StartTime"`
	EventDate      time.Time `validate:"required"`
}

const credentialSpecials = "@$!%*?&"

// maxCredentialBytes is the longest input bcrypt accepts
const maxCredentialBytes = 72

// isStrongCredential requires 8+ characters drawn from letters, digits and
// credentialSpecials, with at least one of each class
func isStrongCredential(s string) bool {
	if len(s) < 8 {
		return false
	}

	var lower, upper, digit, special bool
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z':
			lower = true
		case r >= 'A' && r <= 'Z':
			upper = true
		case r >= '0' && r <= '9':
			digit = true
		case strings.ContainsRune(credentialSpecials, r):
			special = true
		default:
			return false
		}
	}
	return lower && upper && digit && special
}

// parseCardExpiry parses MM/YY
func parseCardExpiry(expiry string) (month, year int, err error) {
	parts := strings.Split(expiry, "/")
	if len(parts) != 2 || len(parts[0]) != 2 || len(parts[1]) != 2 {
		return 0, 0, fmt.Errorf("expiry %q is not MM/YY", expiry)
	}

	month, err = strconv.Atoi(parts[0])
	if err != nil || month < 1 || month > 12 {
		return 0, 0, fmt.Errorf("expiry %q has an invalid month", expiry)
	}
	yy, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, fmt.Errorf("expiry %q has an invalid year", expiry)
	}

	return month, 2000 + yy, nil
}

// validateCard checks the card format and that it has not expired at now.
// A card is valid through the last day of its expiry month.
func validateCard(card models.CardDetails, now time.Time) (month, year int, err error) {
	if err := validate.Struct(card); err != nil {
		return 0, 0, fromValidator(err)
	}

	month, year, err = parseCardExpiry(card.Expiry)
	if err != nil {
		return 0, 0, newValidationError("expiry", err.Error())
	}

	firstOfNextMonth := time.Date(year, time.Month(month)+1, 1, 0, 0, 0, 0, time.UTC)
	if !now.UTC().Before(firstOfNextMonth) {
		return 0, 0, newValidationError("expiry", "card has expired")
	}

	return month, year, nil
}

// ageAt returns the completed years between birth and now
func ageAt(birth, now time.Time) int {
	years := now.Year() - birth.Year()
	if now.Month() < birth.Month() || (now.Month() == birth.Month() && now.Day() < birth.Day()) {
		years--
	}
	return years
}

// validatePositive rejects zero or negative amounts and counts
func validatePositive(field string, v int64) error {
	if v <= 0 {
		return newValidationError(field, "must be positive")
	}
	return nil
}
