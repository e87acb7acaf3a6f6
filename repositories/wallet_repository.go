package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Dosada05/raffle-system/models"
)

var (
	ErrWalletNotFound     = errors.New("wallet not found")
	ErrInsufficientFunds  = errors.New("insufficient wallet funds")
	ErrWalletTxNotFound   = errors.New("wallet transaction not found")
	ErrWalletAmountNotPos = errors.New("wallet amount must be positive")
)

type WalletRepository interface {
	CreateForUser(ctx context.Context, exec SQLExecutor, userID int) error
	GetByUser(ctx context.Context, exec SQLExecutor, userID int) (*models.Wallet, error)
	Credit(ctx context.Context, exec SQLExecutor, userID, amount int) error
	// Debit subtracts amount only when the balance covers it, in one guarded
	// UPDATE. Zero rows affected means insufficient funds.
	Debit(ctx context.Context, exec SQLExecutor, userID, amount int) error
	RecordTransaction(ctx context.Context, exec SQLExecutor, tx *models.WalletTransaction) error
	ListTransactions(ctx context.Context, userID int, limit, offset int) ([]*models.WalletTransaction, error)
}

type postgresWalletRepository struct {
	db *sql.DB
}

func NewPostgresWalletRepository(db *sql.DB) WalletRepository {
	return &postgresWalletRepository{db: db}
}

func (r *postgresWalletRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresWalletRepository) CreateForUser(ctx context.Context, exec SQLExecutor, userID int) error {
	executor := r.getExecutor(exec)
	query := `INSERT INTO wallets (user_id, balance) VALUES ($1, 0) ON CONFLICT (user_id) DO NOTHING`
	if _, err := executor.ExecContext(ctx, query, userID); err != nil {
		return fmt.Errorf("failed to create wallet for user %d: %w", userID, err)
	}
	return nil
}

func (r *postgresWalletRepository) GetByUser(ctx context.Context, exec SQLExecutor, userID int) (*models.Wallet, error) {
	executor := r.getExecutor(exec)
	query := `SELECT user_id, balance, updated_at FROM wallets WHERE user_id = $1`

	var w models.Wallet
	err := executor.QueryRowContext(ctx, query, userID).Scan(&w.UserID, &w.Balance, &w.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrWalletNotFound
		}
		return nil, err
	}
	return &w, nil
}

func (r *postgresWalletRepository) Credit(ctx context.Context, exec SQLExecutor, userID, amount int) error {
	if amount <= 0 {
		return ErrWalletAmountNotPos
	}
	executor := r.getExecutor(exec)
	query := `UPDATE wallets SET balance = balance + $1, updated_at = NOW() WHERE user_id = $2`
	result, err := executor.ExecContext(ctx, query, amount, userID)
	if err != nil {
		return fmt.Errorf("failed to credit wallet of user %d: %w", userID, err)
	}
	return checkAffectedRows(result, ErrWalletNotFound)
}

func (r *postgresWalletRepository) Debit(ctx context.Context, exec SQLExecutor, userID, amount int) error {
	if amount <= 0 {
		return ErrWalletAmountNotPos
	}
	executor := r.getExecutor(exec)
	query := `
		UPDATE wallets
		SET balance = balance - $1, updated_at = NOW()
		WHERE user_id = $2 AND balance >= $1`

	result, err := executor.ExecContext(ctx, query, amount, userID)
	if err != nil {
		return fmt.Errorf("failed to debit wallet of user %d: %w", userID, err)
	}
	// Either no wallet row or the balance guard failed; the caller resolves
	// the user first, so in practice this is insufficient funds.
	return checkAffectedRows(result, ErrInsufficientFunds)
}

func (r *postgresWalletRepository) RecordTransaction(ctx context.Context, exec SQLExecutor, tx *models.WalletTransaction) error {
	executor := r.getExecutor(exec)
	query := `
		INSERT INTO wallet_transactions (user_id, type, amount, competition_id, reference)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`

	err := executor.QueryRowContext(ctx, query,
		tx.UserID, tx.Type, tx.Amount, tx.CompetitionID, tx.Reference,
	).Scan(&tx.ID, &tx.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to record wallet transaction for user %d: %w", tx.UserID, err)
	}
	return nil
}

func (r *postgresWalletRepository) ListTransactions(ctx context.Context, userID int, limit, offset int) ([]*models.WalletTransaction, error) {
	query := `
		SELECT id, user_id, type, amount, competition_id, reference, created_at
		FROM wallet_transactions
		WHERE user_id = $1
		ORDER BY created_at DESC`
	args := []interface{}{userID}
	argID := 2
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argID)
		args = append(args, limit)
		argID++
	}
	if offset > 0 {
		query += fmt.Sprintf(" OFFSET $%d", argID)
		args = append(args, offset)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	txs := make([]*models.WalletTransaction, 0)
	for rows.Next() {
		var t models.WalletTransaction
		if scanErr := rows.Scan(&t.ID, &t.UserID, &t.Type, &t.Amount, &t.CompetitionID, &t.Reference, &t.CreatedAt); scanErr != nil {
			return nil, scanErr
		}
		txs = append(txs, &t)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return txs, nil
}
