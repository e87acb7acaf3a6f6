package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Dosada05/raffle-system/models"
	"github.com/Dosada05/raffle-system/repositories"
)

type WalletService interface {
	GetBalance(ctx context.Context, userID int) (*models.Wallet, error)
	// Credit tops the wallet up, e.g. after a verified card payment or an
	// admin adjustment, recording the transaction alongside.
	Credit(ctx context.Context, userID, amount int, reference *string) (*models.WalletTransaction, error)
	ListTransactions(ctx context.Context, userID, limit, offset int) ([]*models.WalletTransaction, error)
}

type walletService struct {
	db         *sql.DB
	walletRepo repositories.WalletRepository
	userRepo   repositories.UserRepository
}

func NewWalletService(db *sql.DB, walletRepo repositories.WalletRepository, userRepo repositories.UserRepository) WalletService {
	return &walletService{
		db:         db,
		walletRepo: walletRepo,
		userRepo:   userRepo,
	}
}

func (s *walletService) GetBalance(ctx context.Context, userID int) (*models.Wallet, error) {
	wallet, err := s.walletRepo.GetByUser(ctx, nil, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrWalletNotFound) {
			return nil, ErrWalletNotFound
		}
		return nil, err
	}
	return wallet, nil
}

func (s *walletService) Credit(ctx context.Context, userID, amount int, reference *string) (*models.WalletTransaction, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("%w: credit amount must be positive", ErrValidationFailed)
	}
	if _, err := s.userRepo.GetByID(ctx, nil, userID); err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	// Баланс и журнал транзакций меняются вместе или никак.
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}

	if err := s.walletRepo.Credit(ctx, tx, userID, amount); err != nil {
		_ = tx.Rollback()
		if errors.Is(err, repositories.ErrWalletNotFound) {
			return nil, ErrWalletNotFound
		}
		return nil, err
	}
	walletTx := &models.WalletTransaction{
		UserID:    userID,
		Type:      models.WalletTxCredit,
		Amount:    amount,
		Reference: reference,
	}
	if err := s.walletRepo.RecordTransaction(ctx, tx, walletTx); err != nil {
		_ = tx.Rollback()
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit wallet credit: %w", err)
	}
	return walletTx, nil
}

func (s *walletService) ListTransactions(ctx context.Context, userID, limit, offset int) ([]*models.WalletTransaction, error) {
	txs, err := s.walletRepo.ListTransactions(ctx, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list wallet transactions for user %d: %w", userID, err)
	}
	return txs, nil
}
