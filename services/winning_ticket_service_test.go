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

func newWinningTicketServiceForTest(
	t *testing.T,
	compRepo *fakeCompetitionRepo,
	prizeRepo *fakePrizeRepo,
	winningRepo *fakeWinningTicketRepo,
	productRepo *fakeProductRepo,
) (*winningTicketService, sqlmock.Sqlmock, func()) {
	t.Helper()

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock new: %v", err)
	}

	seq := 0
	svc := &winningTicketService{
		db:          db,
		compRepo:    compRepo,
		prizeRepo:   prizeRepo,
		winningRepo: winningRepo,
		productRepo: productRepo,
		logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
		// Детеминированный источник: последовательные значения по модулю n.
		randInt: func(n int) int {
			seq++
			return seq % n
		},
	}
	return svc, mock, func() { db.Close() }
}

func TestComputeGeneratesExactQuantitiesPerPhase(t *testing.T) {
	compRepo := &fakeCompetitionRepo{competition: &models.Competition{
		ID:           7,
		Type:         models.CompetitionTypeInstantWin,
		Status:       models.CompetitionStatusActive,
		TotalTickets: 300,
	}}
	prizeRepo := &fakePrizeRepo{prizes: []*models.CompetitionPrize{
		{ID: 1, CompetitionID: 7, ProductID: 11, Phase: 1, TotalQuantity: 5},
		{ID: 2, CompetitionID: 7, ProductID: 12, Phase: 1, TotalQuantity: 3},
		{ID: 3, CompetitionID: 7, ProductID: 13, Phase: 2, TotalQuantity: 10},
		{ID: 4, CompetitionID: 7, ProductID: 11, Phase: 3, TotalQuantity: 1},
	}}
	winningRepo := &fakeWinningTicketRepo{}

	svc, mock, closeDB := newWinningTicketServiceForTest(t, compRepo, prizeRepo, winningRepo, &fakeProductRepo{})
	defer closeDB()

	mock.ExpectBegin()
	mock.ExpectCommit()

	summary, err := svc.Compute(context.Background(), 7)
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}

	if summary.TotalTickets != 300 {
		t.Errorf("summary.TotalTickets = %d, want 300", summary.TotalTickets)
	}
	if len(summary.Phases) != models.NumPhases {
		t.Fatalf("summary has %d phases, want %d", len(summary.Phases), models.NumPhases)
	}
	wantCounts := map[int]int{1: 8, 2: 10, 3: 1}
	for _, entry := range summary.Phases {
		if entry.TicketCount != wantCounts[entry.Phase] {
			t.Errorf("phase %d ticket count = %d, want %d", entry.Phase, entry.TicketCount, wantCounts[entry.Phase])
		}
	}

	if len(winningRepo.created) != 19 {
		t.Fatalf("created %d winning tickets, want 19", len(winningRepo.created))
	}

	// Все номера уникальны в рамках конкурса и лежат в диапазоне своей фазы.
	seen := make(map[int]bool)
	perPrize := make(map[int][]int)
	for _, ticket := range winningRepo.created {
		if seen[ticket.TicketNumber] {
			t.Errorf("ticket number %d drawn twice", ticket.TicketNumber)
		}
		seen[ticket.TicketNumber] = true

		if ticket.Status != models.WinningTicketAvailable {
			t.Errorf("ticket %d created with status %q, want available", ticket.TicketNumber, ticket.Status)
		}
		perPrize[ticket.PrizeID] = append(perPrize[ticket.PrizeID], ticket.TicketNumber)
	}

	prizePhases := map[int]int{1: 1, 2: 1, 3: 2, 4: 3}
	wantQuantities := map[int]int{1: 5, 2: 3, 3: 10, 4: 1}
	for prizeID, numbers := range perPrize {
		if len(numbers) != wantQuantities[prizeID] {
			t.Errorf("prize %d got %d tickets, want %d", prizeID, len(numbers), wantQuantities[prizeID])
		}
		phaseRange := models.PhaseRangeFor(300, prizePhases[prizeID])
		for i, n := range numbers {
			if !phaseRange.Contains(n) {
				t.Errorf("prize %d ticket %d outside phase range %s", prizeID, n, phaseRange)
			}
			if i > 0 && numbers[i-1] >= n {
				t.Errorf("prize %d numbers not sorted ascending: %v", prizeID, numbers)
			}
		}
	}

	// Кеш номеров приза зеркалит сгенерированные билеты.
	for prizeID, numbers := range perPrize {
		cache := prizeRepo.numberCaches[prizeID]
		if len(cache) != len(numbers) {
			t.Errorf("prize %d cache has %d numbers, want %d", prizeID, len(cache), len(numbers))
			continue
		}
		for i := range numbers {
			if cache[i] != int64(numbers[i]) {
				t.Errorf("prize %d cache[%d] = %d, want %d", prizeID, i, cache[i], numbers[i])
			}
		}
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestComputeRejectsRaffleCompetition(t *testing.T) {
	compRepo := &fakeCompetitionRepo{competition: &models.Competition{
		ID:           7,
		Type:         models.CompetitionTypeRaffle,
		TotalTickets: 300,
	}}

	svc, mock, closeDB := newWinningTicketServiceForTest(t, compRepo, &fakePrizeRepo{}, &fakeWinningTicketRepo{}, &fakeProductRepo{})
	defer closeDB()

	mock.ExpectBegin()
	mock.ExpectRollback()

	_, err := svc.Compute(context.Background(), 7)
	if !errors.Is(err, ErrCompetitionNotInstantWin) {
		t.Fatalf("err = %v, want ErrCompetitionNotInstantWin", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestComputeRequiresPrizes(t *testing.T) {
	compRepo := &fakeCompetitionRepo{competition: &models.Competition{
		ID:           7,
		Type:         models.CompetitionTypeInstantWin,
		TotalTickets: 300,
	}}

	svc, mock, closeDB := newWinningTicketServiceForTest(t, compRepo, &fakePrizeRepo{}, &fakeWinningTicketRepo{}, &fakeProductRepo{})
	defer closeDB()

	mock.ExpectBegin()
	mock.ExpectRollback()

	_, err := svc.Compute(context.Background(), 7)
	if !errors.Is(err, ErrNoPrizesConfigured) {
		t.Fatalf("err = %v, want ErrNoPrizesConfigured", err)
	}
}

func TestComputeRefusesSecondRun(t *testing.T) {
	compRepo := &fakeCompetitionRepo{competition: &models.Competition{
		ID:           7,
		Type:         models.CompetitionTypeInstantWin,
		TotalTickets: 300,
	}}
	prizeRepo := &fakePrizeRepo{prizes: []*models.CompetitionPrize{
		{ID: 1, CompetitionID: 7, ProductID: 11, Phase: 1, TotalQuantity: 1},
	}}
	winningRepo := &fakeWinningTicketRepo{existing: []*models.WinningTicket{
		{ID: 1, CompetitionID: 7, PrizeID: 1, TicketNumber: 42, Status: models.WinningTicketAvailable},
	}}

	svc, mock, closeDB := newWinningTicketServiceForTest(t, compRepo, prizeRepo, winningRepo, &fakeProductRepo{})
	defer closeDB()

	mock.ExpectBegin()
	mock.ExpectRollback()

	_, err := svc.Compute(context.Background(), 7)
	if !errors.Is(err, ErrWinningTicketsExist) {
		t.Fatalf("err = %v, want ErrWinningTicketsExist", err)
	}
	if len(winningRepo.created) != 0 {
		t.Errorf("second run created %d tickets, want 0", len(winningRepo.created))
	}
}

func TestComputeRejectsQuantityAbovePhaseCapacity(t *testing.T) {
	// 9 билетов: каждая фаза вмещает только 3 номера.
	compRepo := &fakeCompetitionRepo{competition: &models.Competition{
		ID:           7,
		Type:         models.CompetitionTypeInstantWin,
		TotalTickets: 9,
	}}
	prizeRepo := &fakePrizeRepo{prizes: []*models.CompetitionPrize{
		{ID: 1, CompetitionID: 7, ProductID: 11, Phase: 2, TotalQuantity: 4},
	}}

	svc, mock, closeDB := newWinningTicketServiceForTest(t, compRepo, prizeRepo, &fakeWinningTicketRepo{}, &fakeProductRepo{})
	defer closeDB()

	mock.ExpectBegin()
	mock.ExpectRollback()

	_, err := svc.Compute(context.Background(), 7)
	if !errors.Is(err, ErrPhaseCapacityExceeded) {
		t.Fatalf("err = %v, want ErrPhaseCapacityExceeded", err)
	}
}

func TestClearDeletesAndResetsCaches(t *testing.T) {
	compRepo := &fakeCompetitionRepo{competition: &models.Competition{
		ID:           7,
		Type:         models.CompetitionTypeInstantWin,
		TotalTickets: 300,
	}}
	prizeRepo := &fakePrizeRepo{
		prizes:       []*models.CompetitionPrize{{ID: 1, CompetitionID: 7, ProductID: 11, Phase: 1, TotalQuantity: 5}},
		numberCaches: map[int][]int64{1: {10, 20, 30}},
	}
	winningRepo := &fakeWinningTicketRepo{deleted: 19}

	svc, mock, closeDB := newWinningTicketServiceForTest(t, compRepo, prizeRepo, winningRepo, &fakeProductRepo{})
	defer closeDB()

	mock.ExpectBegin()
	mock.ExpectCommit()

	deleted, err := svc.Clear(context.Background(), 7, nil)
	if err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if deleted != 19 {
		t.Errorf("deleted = %d, want 19", deleted)
	}
	if prizeRepo.resetCalls != 1 {
		t.Errorf("ResetCaches called %d times, want 1", prizeRepo.resetCalls)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestClearRejectsPrizeFromOtherCompetition(t *testing.T) {
	compRepo := &fakeCompetitionRepo{competition: &models.Competition{
		ID:           7,
		Type:         models.CompetitionTypeInstantWin,
		TotalTickets: 300,
	}}
	prizeRepo := &fakePrizeRepo{prizes: []*models.CompetitionPrize{
		{ID: 1, CompetitionID: 99, ProductID: 11, Phase: 1, TotalQuantity: 5},
	}}

	svc, _, closeDB := newWinningTicketServiceForTest(t, compRepo, prizeRepo, &fakeWinningTicketRepo{}, &fakeProductRepo{})
	defer closeDB()

	prizeID := 1
	_, err := svc.Clear(context.Background(), 7, &prizeID)
	if !errors.Is(err, ErrPrizeNotFound) {
		t.Fatalf("err = %v, want ErrPrizeNotFound", err)
	}
}

func TestGetCompetitionStatsAggregatesAndResolvesProducts(t *testing.T) {
	compRepo := &fakeCompetitionRepo{competition: &models.Competition{
		ID:           7,
		Type:         models.CompetitionTypeInstantWin,
		TotalTickets: 300,
	}}
	prizeRepo := &fakePrizeRepo{prizes: []*models.CompetitionPrize{
		{ID: 1, CompetitionID: 7, ProductID: 11, Phase: 1, TotalQuantity: 5},
		{ID: 2, CompetitionID: 7, ProductID: 12, Phase: 2, TotalQuantity: 10},
	}}
	winningRepo := &fakeWinningTicketRepo{stats: []models.PrizeTicketStats{
		{PrizeID: 1, ProductID: 11, Phase: 1, Total: 5, Claimed: 2, Available: 3},
		{PrizeID: 2, ProductID: 12, Phase: 2, Total: 10, Claimed: 0, Available: 10},
	}}
	productRepo := &fakeProductRepo{products: map[int]*models.Product{
		11: {ID: 11, Name: "Games Console"},
		12: {ID: 12, Name: "Gift Card"},
	}}

	svc, _, closeDB := newWinningTicketServiceForTest(t, compRepo, prizeRepo, winningRepo, productRepo)
	defer closeDB()

	stats, err := svc.GetCompetitionStats(context.Background(), 7)
	if err != nil {
		t.Fatalf("GetCompetitionStats: %v", err)
	}

	if stats.Total != 15 || stats.Claimed != 2 || stats.Available != 13 {
		t.Errorf("totals = %d/%d/%d, want 15/2/13", stats.Total, stats.Claimed, stats.Available)
	}
	if len(stats.ByPrize) != 2 {
		t.Fatalf("ByPrize has %d rows, want 2", len(stats.ByPrize))
	}
	if stats.ByPrize[0].Product != "Games Console" || stats.ByPrize[1].Product != "Gift Card" {
		t.Errorf("product names not resolved: %+v", stats.ByPrize)
	}
}
