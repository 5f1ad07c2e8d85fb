package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"betpool/database"
	"betpool/models"
	"betpool/service"

	"github.com/jackc/pgx/v5"
)

// AccountRepository implements the AccountRepository interface
type AccountRepository struct {
	q queryable
}

// NewAccountRepository creates a new account repository
func NewAccountRepository(db *database.DB) *AccountRepository {
	return &AccountRepository{q: db.Pool}
}

// newAccountRepositoryWithTx creates a new account repository with a transaction
func newAccountRepositoryWithTx(tx queryable) *AccountRepository {
	return &AccountRepository{q: tx}
}

const accountColumns = `id, display_name, email, credential_hash, birth_date, wallet_id, created_at`

// Create inserts a new account
func (r *AccountRepository) Create(ctx context.Context, account *models.Account) error {
	query := `
		INSERT INTO accounts (display_name, email, credential_hash, birth_date, wallet_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`

	account.Email = strings.ToLower(account.Email)
	err := r.q.QueryRow(ctx, query,
		account.DisplayName,
		account.Email,
		account.CredentialHash,
		account.BirthDate,
		account.WalletID,
	).Scan(&account.ID, &account.CreatedAt)
	if violatesConstraint(err, "idx_accounts_email") {
		return &service.ValidationError{Field: "email", Reason: "already registered"}
	}
	if err != nil {
		return fmt.Errorf("failed to create account %s: %w", account.Email, classify(err))
	}

	return nil
}

// GetByID retrieves an account by ID
func (r *AccountRepository) GetByID(ctx context.Context, id int64) (*models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1`

	account, err := scanAccount(r.q.QueryRow(ctx, query, id))
	if err != nil {
		return nil, fmt.Errorf("failed to get account %d: %w", id, classify(err))
	}
	return account, nil
}

// GetByEmail retrieves an account by email, case-insensitively
func (r *AccountRepository) GetByEmail(ctx context.Context, email string) (*models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE LOWER(email) = LOWER($1)`

	account, err := scanAccount(r.q.QueryRow(ctx, query, email))
	if err != nil {
		return nil, fmt.Errorf("failed to get account by email: %w", classify(err))
	}
	return account, nil
}

func scanAccount(row pgx.Row) (*models.Account, error) {
	var account models.Account
	err := row.Scan(
		&account.ID,
		&account.DisplayName,
		&account.Email,
		&account.CredentialHash,
		&account.BirthDate,
		&account.WalletID,
		&account.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &account, nil
}
