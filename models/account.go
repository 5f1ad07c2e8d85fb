package models

import (
	"time"
)

// Account is the identity record of a platform user
type Account struct {
	ID             int64     `db:"id"`
	DisplayName    string    `db:"display_name"`
	Email          string    `db:"email"`
	CredentialHash string    `db:"credential_hash"`
	BirthDate      time.Time `db:"birth_date"`
	WalletID       int64     `db:"wallet_id"`
	CreatedAt      time.Time `db:"created_at"`
}
