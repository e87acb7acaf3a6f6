package repositories

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestDebitGuardedByBalance(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock new: %v", err)
	}
	defer db.Close()

	repo := NewPostgresWalletRepository(db)

	mock.ExpectExec(`UPDATE wallets`).
		WithArgs(500, 3).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.Debit(context.Background(), nil, 3, 500); err != nil {
		t.Fatalf("Debit: %v", err)
	}

	// Баланс меньше суммы: гард не пропускает строку.
	mock.ExpectExec(`UPDATE wallets`).
		WithArgs(10_000, 3).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err = repo.Debit(context.Background(), nil, 3, 10_000)
	if !errors.Is(err, ErrInsufficientFunds) {
		t.Fatalf("err = %v, want ErrInsufficientFunds", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestDebitRejectsNonPositiveAmount(t *testing.T) {
	db, _, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock new: %v", err)
	}
	defer db.Close()

	repo := NewPostgresWalletRepository(db)

	if err := repo.Debit(context.Background(), nil, 3, 0); !errors.Is(err, ErrWalletAmountNotPos) {
		t.Fatalf("err = %v, want ErrWalletAmountNotPos", err)
	}
	if err := repo.Credit(context.Background(), nil, 3, -5); !errors.Is(err, ErrWalletAmountNotPos) {
		t.Fatalf("err = %v, want ErrWalletAmountNotPos", err)
	}
}

func TestCreateForUserIsIdempotent(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock new: %v", err)
	}
	defer db.Close()

	repo := NewPostgresWalletRepository(db)

	// ON CONFLICT DO NOTHING: повторный вызов не падает.
	mock.ExpectExec(`INSERT INTO wallets`).
		WithArgs(3).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO wallets`).
		WithArgs(3).
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := repo.CreateForUser(context.Background(), nil, 3); err != nil {
		t.Fatalf("first CreateForUser: %v", err)
	}
	if err := repo.CreateForUser(context.Background(), nil, 3); err != nil {
		t.Fatalf("second CreateForUser: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}
