package repositories

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/Dosada05/raffle-system/models"
)

func TestClaimSetsClaimedFields(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock new: %v", err)
	}
	defer db.Close()

	repo := NewPostgresWinningTicketRepository(db)
	claimedAt := time.Date(2026, 2, 14, 12, 0, 0, 0, time.UTC)

	mock.ExpectExec(`UPDATE winning_tickets`).
		WithArgs(models.WinningTicketClaimed, 3, claimedAt, 9, 101, models.WinningTicketAvailable).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.Claim(context.Background(), nil, 101, 3, 9, claimedAt); err != nil {
		t.Fatalf("Claim: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestClaimLostRaceReturnsAlreadyClaimed(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock new: %v", err)
	}
	defer db.Close()

	repo := NewPostgresWinningTicketRepository(db)
	claimedAt := time.Now().UTC()

	// Гард по статусу не нашёл available-строки: билет уже забран.
	mock.ExpectExec(`UPDATE winning_tickets`).
		WithArgs(models.WinningTicketClaimed, 3, claimedAt, 9, 101, models.WinningTicketAvailable).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err = repo.Claim(context.Background(), nil, 101, 3, 9, claimedAt)
	if !errors.Is(err, ErrWinningTicketAlreadyClaimed) {
		t.Fatalf("err = %v, want ErrWinningTicketAlreadyClaimed", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestExistsByCompetition(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock new: %v", err)
	}
	defer db.Close()

	repo := NewPostgresWinningTicketRepository(db)

	mock.ExpectQuery(`SELECT EXISTS`).
		WithArgs(7).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	exists, err := repo.ExistsByCompetition(context.Background(), nil, 7)
	if err != nil {
		t.Fatalf("ExistsByCompetition: %v", err)
	}
	if !exists {
		t.Error("exists = false, want true")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestDeleteByCompetitionWholePool(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock new: %v", err)
	}
	defer db.Close()

	repo := NewPostgresWinningTicketRepository(db)

	mock.ExpectExec(`DELETE FROM winning_tickets WHERE competition_id = \$1`).
		WithArgs(7).
		WillReturnResult(sqlmock.NewResult(0, 19))

	deleted, err := repo.DeleteByCompetition(context.Background(), nil, 7, nil)
	if err != nil {
		t.Fatalf("DeleteByCompetition: %v", err)
	}
	if deleted != 19 {
		t.Errorf("deleted = %d, want 19", deleted)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestDeleteByCompetitionSinglePrize(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock new: %v", err)
	}
	defer db.Close()

	repo := NewPostgresWinningTicketRepository(db)
	prizeID := 4

	mock.ExpectExec(`DELETE FROM winning_tickets WHERE competition_id = \$1 AND prize_id = \$2`).
		WithArgs(7, prizeID).
		WillReturnResult(sqlmock.NewResult(0, 5))

	deleted, err := repo.DeleteByCompetition(context.Background(), nil, 7, &prizeID)
	if err != nil {
		t.Fatalf("DeleteByCompetition: %v", err)
	}
	if deleted != 5 {
		t.Errorf("deleted = %d, want 5", deleted)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestFindByNumberNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock new: %v", err)
	}
	defer db.Close()

	repo := NewPostgresWinningTicketRepository(db)

	mock.ExpectQuery(`SELECT id, competition_id, prize_id, ticket_number, status`).
		WithArgs(7, 999).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err = repo.FindByNumber(context.Background(), 7, 999)
	if !errors.Is(err, ErrWinningTicketNotFound) {
		t.Fatalf("err = %v, want ErrWinningTicketNotFound", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}
