package services

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/Dosada05/raffle-system/models"
)

func newCompetitionServiceForTest(
	t *testing.T,
	compRepo *fakeCompetitionRepo,
	winningRepo *fakeWinningTicketRepo,
) (*competitionService, sqlmock.Sqlmock, func()) {
	t.Helper()

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock new: %v", err)
	}
	svc := &competitionService{
		db:          db,
		compRepo:    compRepo,
		prizeRepo:   &fakePrizeRepo{},
		winningRepo: winningRepo,
		logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	return svc, mock, func() { db.Close() }
}

func TestCreateCompetitionStartsAsDraft(t *testing.T) {
	compRepo := &fakeCompetitionRepo{}
	svc, mock, closeDB := newCompetitionServiceForTest(t, compRepo, &fakeWinningTicketRepo{})
	defer closeDB()

	mock.ExpectBegin()
	mock.ExpectCommit()

	c, err := svc.CreateCompetition(context.Background(), CreateCompetitionInput{
		Title:        "Mega Console Giveaway",
		Type:         models.CompetitionTypeInstantWin,
		TicketPrice:  250,
		TotalTickets: 300,
		StartsAt:     "2026-09-01T00:00:00Z",
		EndsAt:       "2026-09-30T00:00:00Z",
	})
	if err != nil {
		t.Fatalf("CreateCompetition: %v", err)
	}

	if c.Status != models.CompetitionStatusDraft {
		t.Errorf("new competition status = %q, want draft", c.Status)
	}
	if c.ID == 0 {
		t.Error("competition id not assigned")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestCreateCompetitionValidation(t *testing.T) {
	svc, _, closeDB := newCompetitionServiceForTest(t, &fakeCompetitionRepo{}, &fakeWinningTicketRepo{})
	defer closeDB()

	base := CreateCompetitionInput{
		Title:        "Mega Console Giveaway",
		Type:         models.CompetitionTypeInstantWin,
		TicketPrice:  250,
		TotalTickets: 300,
		StartsAt:     "2026-09-01T00:00:00Z",
		EndsAt:       "2026-09-30T00:00:00Z",
	}

	t.Run("EmptyTitle", func(t *testing.T) {
		input := base
		input.Title = ""
		if _, err := svc.CreateCompetition(context.Background(), input); !errors.Is(err, ErrValidationFailed) {
			t.Fatalf("err = %v, want ErrValidationFailed", err)
		}
	})
	t.Run("ZeroCapacity", func(t *testing.T) {
		input := base
		input.TotalTickets = 0
		if _, err := svc.CreateCompetition(context.Background(), input); !errors.Is(err, ErrCompetitionInvalidCapacity) {
			t.Fatalf("err = %v, want ErrCompetitionInvalidCapacity", err)
		}
	})
	t.Run("ZeroPrice", func(t *testing.T) {
		input := base
		input.TicketPrice = 0
		if _, err := svc.CreateCompetition(context.Background(), input); !errors.Is(err, ErrCompetitionInvalidPrice) {
			t.Fatalf("err = %v, want ErrCompetitionInvalidPrice", err)
		}
	})
	t.Run("EndBeforeStart", func(t *testing.T) {
		input := base
		input.EndsAt = "2026-08-01T00:00:00Z"
		if _, err := svc.CreateCompetition(context.Background(), input); !errors.Is(err, ErrCompetitionInvalidDates) {
			t.Fatalf("err = %v, want ErrCompetitionInvalidDates", err)
		}
	})
}

func TestUpdateCompetitionLockedWhileWinningTicketsExist(t *testing.T) {
	compRepo := &fakeCompetitionRepo{competition: &models.Competition{
		ID:           7,
		Title:        "Mega Console Giveaway",
		Type:         models.CompetitionTypeInstantWin,
		Status:       models.CompetitionStatusActive,
		TicketPrice:  250,
		TotalTickets: 300,
	}}
	winningRepo := &fakeWinningTicketRepo{existing: []*models.WinningTicket{
		{ID: 1, CompetitionID: 7, TicketNumber: 42, Status: models.WinningTicketAvailable},
	}}

	svc, _, closeDB := newCompetitionServiceForTest(t, compRepo, winningRepo)
	defer closeDB()

	newPrice := 300
	_, err := svc.UpdateCompetition(context.Background(), 7, UpdateCompetitionInput{TicketPrice: &newPrice})
	if !errors.Is(err, ErrCompetitionLocked) {
		t.Fatalf("err = %v, want ErrCompetitionLocked", err)
	}

	newTotal := 600
	_, err = svc.UpdateCompetition(context.Background(), 7, UpdateCompetitionInput{TotalTickets: &newTotal})
	if !errors.Is(err, ErrCompetitionLocked) {
		t.Fatalf("err = %v, want ErrCompetitionLocked", err)
	}

	// Поля вне блокировки редактируются свободно.
	newTitle := "Mega Console Giveaway 2"
	updated, err := svc.UpdateCompetition(context.Background(), 7, UpdateCompetitionInput{Title: &newTitle})
	if err != nil {
		t.Fatalf("UpdateCompetition (title only): %v", err)
	}
	if updated.Title != newTitle {
		t.Errorf("title = %q, want %q", updated.Title, newTitle)
	}
}

func TestUpdateCompetitionPriceWhenUnlocked(t *testing.T) {
	compRepo := &fakeCompetitionRepo{competition: &models.Competition{
		ID:           7,
		Title:        "Mega Console Giveaway",
		Status:       models.CompetitionStatusDraft,
		TicketPrice:  250,
		TotalTickets: 300,
	}}

	svc, _, closeDB := newCompetitionServiceForTest(t, compRepo, &fakeWinningTicketRepo{})
	defer closeDB()

	newPrice := 500
	updated, err := svc.UpdateCompetition(context.Background(), 7, UpdateCompetitionInput{TicketPrice: &newPrice})
	if err != nil {
		t.Fatalf("UpdateCompetition: %v", err)
	}
	if updated.TicketPrice != 500 {
		t.Errorf("ticket price = %d, want 500", updated.TicketPrice)
	}
	if compRepo.updated == nil {
		t.Fatal("repository Update not called")
	}
}

func TestUpdateCompetitionCapacityCannotDropBelowSold(t *testing.T) {
	compRepo := &fakeCompetitionRepo{competition: &models.Competition{
		ID:           7,
		Title:        "Mega Console Giveaway",
		Status:       models.CompetitionStatusActive,
		TicketPrice:  250,
		TotalTickets: 300,
		TicketsSold:  120,
	}}

	svc, _, closeDB := newCompetitionServiceForTest(t, compRepo, &fakeWinningTicketRepo{})
	defer closeDB()

	newTotal := 100
	_, err := svc.UpdateCompetition(context.Background(), 7, UpdateCompetitionInput{TotalTickets: &newTotal})
	if !errors.Is(err, ErrCompetitionInvalidCapacity) {
		t.Fatalf("err = %v, want ErrCompetitionInvalidCapacity", err)
	}
}

func TestUpdateCompetitionStatusTransitions(t *testing.T) {
	cases := []struct {
		name    string
		from    models.CompetitionStatus
		to      models.CompetitionStatus
		allowed bool
	}{
		{"DraftToActive", models.CompetitionStatusDraft, models.CompetitionStatusActive, true},
		{"ActiveToEnded", models.CompetitionStatusActive, models.CompetitionStatusEnded, true},
		{"ActiveToCancelled", models.CompetitionStatusActive, models.CompetitionStatusCancelled, true},
		{"EndedToActive", models.CompetitionStatusEnded, models.CompetitionStatusActive, false},
		{"DraftToEnded", models.CompetitionStatusDraft, models.CompetitionStatusEnded, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			compRepo := &fakeCompetitionRepo{competition: &models.Competition{
				ID:           7,
				Title:        "Mega Console Giveaway",
				Status:       tc.from,
				TicketPrice:  250,
				TotalTickets: 300,
			}}
			svc, _, closeDB := newCompetitionServiceForTest(t, compRepo, &fakeWinningTicketRepo{})
			defer closeDB()

			status := tc.to
			_, err := svc.UpdateCompetition(context.Background(), 7, UpdateCompetitionInput{Status: &status})
			if tc.allowed && err != nil {
				t.Fatalf("transition %s -> %s rejected: %v", tc.from, tc.to, err)
			}
			if !tc.allowed && !errors.Is(err, ErrCompetitionInvalidStatusTransition) {
				t.Fatalf("transition %s -> %s: err = %v, want ErrCompetitionInvalidStatusTransition", tc.from, tc.to, err)
			}
		})
	}
}

func TestDeleteCompetitionOnlyDrafts(t *testing.T) {
	compRepo := &fakeCompetitionRepo{competition: &models.Competition{
		ID:     7,
		Status: models.CompetitionStatusActive,
	}}
	svc, _, closeDB := newCompetitionServiceForTest(t, compRepo, &fakeWinningTicketRepo{})
	defer closeDB()

	if err := svc.DeleteCompetition(context.Background(), 7); !errors.Is(err, ErrCompetitionNotDraft) {
		t.Fatalf("err = %v, want ErrCompetitionNotDraft", err)
	}
}

func TestAutoStatusUpdateAdvancesByDates(t *testing.T) {
	compRepo := &fakeCompetitionRepo{autoCandidates: []*models.Competition{
		{ID: 1, Status: models.CompetitionStatusDraft},
		{ID: 2, Status: models.CompetitionStatusActive},
		{ID: 3, Status: models.CompetitionStatusEnded}, // не трогаем
	}}
	svc, _, closeDB := newCompetitionServiceForTest(t, compRepo, &fakeWinningTicketRepo{})
	defer closeDB()

	if err := svc.AutoUpdateCompetitionStatusesByDates(context.Background()); err != nil {
		t.Fatalf("AutoUpdateCompetitionStatusesByDates: %v", err)
	}

	if got := compRepo.statusUpdates[1]; got != models.CompetitionStatusActive {
		t.Errorf("competition 1 moved to %q, want active", got)
	}
	if got := compRepo.statusUpdates[2]; got != models.CompetitionStatusEnded {
		t.Errorf("competition 2 moved to %q, want ended", got)
	}
	if _, ok := compRepo.statusUpdates[3]; ok {
		t.Error("ended competition should not be touched")
	}
}
