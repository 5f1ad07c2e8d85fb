package repository

import (
	"context"
	"errors"
	"fmt"

	"betpool/database"
	"betpool/models"
	"betpool/service"

	"github.com/jackc/pgx/v5"
)

// WalletRepository implements the ledger store over the wallets table
type WalletRepository struct {
	q queryable
}

// NewWalletRepository creates a new wallet repository
func NewWalletRepository(db *database.DB) *WalletRepository {
	return &WalletRepository{q: db.Pool}
}

// newWalletRepositoryWithTx creates a new wallet repository with a transaction
func newWalletRepositoryWithTx(tx queryable) *WalletRepository {
	return &WalletRepository{q: tx}
}

// Create opens a wallet with a zero balance
func (r *WalletRepository) Create(ctx context.Context) (*models.Wallet, error) {
	query := `
		INSERT INTO wallets (balance)
		VALUES (0)
		RETURNING id, balance, created_at, updated_at
	`

	var wallet models.Wallet
	err := r.q.QueryRow(ctx, query).Scan(
		&wallet.ID,
		&wallet.Balance,
		&wallet.CreatedAt,
		&wallet.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create wallet: %w", classify(err))
	}

	return &wallet, nil
}

// GetByID retrieves a wallet by ID
func (r *WalletRepository) GetByID(ctx context.Context, id int64) (*models.Wallet, error) {
	query := `
		SELECT id, balance, created_at, updated_at
		FROM wallets
		WHERE id = $1
	`

	var wallet models.Wallet
	err := r.q.QueryRow(ctx, query, id).Scan(
		&wallet.ID,
		&wallet.Balance,
		&wallet.CreatedAt,
		&wallet.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get wallet %d: %w", id, classify(err))
	}

	return &wallet, nil
}

// Debit subtracts amount in one conditional UPDATE, so concurrent debits can
// never drive the balance below zero
func (r *WalletRepository) Debit(ctx context.Context, walletID int64, amount int64) (int64, error) {
	if amount <= 0 {
		return 0, fmt.Errorf("debit amount %d: %w", amount, &service.ValidationError{Field: "amount", Reason: "must be positive"})
	}

	query := `
		UPDATE wallets
		SET balance = balance - $1, updated_at = NOW()
		WHERE id = $2 AND balance >= $1
		RETURNING balance
	`

	var balance int64
	err := r.q.QueryRow(ctx, query, amount, walletID).Scan(&balance)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, r.missingOrShort(ctx, walletID, amount)
	}
	if err != nil {
		if isCheckViolation(err) {
			return 0, fmt.Errorf("failed to debit wallet %d: %w", walletID, service.ErrInsufficientFunds)
		}
		return 0, fmt.Errorf("failed to debit wallet %d: %w", walletID, classify(err))
	}

	return balance, nil
}

// missingOrShort explains why a conditional debit matched no row
func (r *WalletRepository) missingOrShort(ctx context.Context, walletID int64, amount int64) error {
	var exists bool
	err := r.q.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM wallets WHERE id = $1)`, walletID).Scan(&exists)
	if err != nil {
		return fmt.Errorf("failed to check wallet %d: %w", walletID, classify(err))
	}
	if !exists {
		return fmt.Errorf("wallet %d: %w", walletID, service.ErrNotFound)
	}
	return fmt.Errorf("wallet %d cannot cover %d: %w", walletID, amount, service.ErrInsufficientFunds)
}

// Credit adds amount to the balance
func (r *WalletRepository) Credit(ctx context.Context, walletID int64, amount int64) (int64, error) {
	if amount <= 0 {
		return 0, fmt.Errorf("credit amount %d: %w", amount, &service.ValidationError{Field: "amount", Reason: "must be positive"})
	}

	query := `
		UPDATE wallets
		SET balance = balance + $1, updated_at = NOW()
		WHERE id = $2
		RETURNING balance
	`

	var balance int64
	err := r.q.QueryRow(ctx, query, amount, walletID).Scan(&balance)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, fmt.Errorf("wallet %d: %w", walletID, service.ErrNotFound)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to credit wallet %d: %w", walletID, classify(err))
	}

	return balance, nil
}
