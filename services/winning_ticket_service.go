package services

import (
	"context"
	cryptorand "crypto/rand"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"sort"

	"github.com/Dosada05/raffle-system/models"
	"github.com/Dosada05/raffle-system/repositories"
	"golang.org/x/sync/errgroup"
)

type WinningTicketService interface {
	// Compute generates the full winning-ticket pool of an instant-win
	// competition. One-shot: it refuses to run while any winning ticket
	// rows remain (clear first).
	Compute(ctx context.Context, competitionID int) (*models.PhaseSummary, error)
	// Clear deletes winning tickets (one prize or the whole competition)
	// and resets the prize number caches, unlocking competition editing.
	Clear(ctx context.Context, competitionID int, prizeID *int) (int64, error)
	GetCompetitionStats(ctx context.Context, competitionID int) (*models.CompetitionTicketStats, error)
	LookupByNumber(ctx context.Context, competitionID, ticketNumber int) (*models.WinningTicket, error)
	ListUserWins(ctx context.Context, userID int) ([]*models.WinningTicket, error)
	ListPrizesByProduct(ctx context.Context, competitionID int) ([]models.ProductPrizeGroup, error)
}

type winningTicketService struct {
	db          *sql.DB
	compRepo    repositories.CompetitionRepository
	prizeRepo   repositories.PrizeRepository
	winningRepo repositories.WinningTicketRepository
	productRepo repositories.ProductRepository
	logger      *slog.Logger

	// randInt returns a uniform value in [0, n); tests replace it with a
	// deterministic source.
	randInt func(n int) int
}

func NewWinningTicketService(
	db *sql.DB,
	compRepo repositories.CompetitionRepository,
	prizeRepo repositories.PrizeRepository,
	winningRepo repositories.WinningTicketRepository,
	productRepo repositories.ProductRepository,
	logger *slog.Logger,
) WinningTicketService {
	return &winningTicketService{
		db:          db,
		compRepo:    compRepo,
		prizeRepo:   prizeRepo,
		winningRepo: winningRepo,
		productRepo: productRepo,
		logger:      logger,
		randInt:     secureIntn,
	}
}

// secureIntn returns a uniform random int in [0, n) using crypto/rand.
// Winning numbers decide real prizes, so the draw uses a CSPRNG.
func secureIntn(n int) int {
	if n <= 0 {
		return 0
	}
	v, err := cryptorand.Int(cryptorand.Reader, big.NewInt(int64(n)))
	if err != nil {
		return 0
	}
	return int(v.Int64())
}

func (s *winningTicketService) Compute(ctx context.Context, competitionID int) (*models.PhaseSummary, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	var txErr error
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		} else if txErr != nil {
			_ = tx.Rollback()
		}
	}()

	summary, txErr := s.computeInTx(ctx, tx, competitionID)
	if txErr != nil {
		return nil, txErr
	}
	if txErr = tx.Commit(); txErr != nil {
		return nil, fmt.Errorf("failed to commit winning ticket computation: %w", txErr)
	}

	s.logger.Info("winning tickets computed",
		slog.Int("competition_id", competitionID),
		slog.Int("total_tickets", summary.TotalTickets),
	)
	return summary, nil
}

func (s *winningTicketService) computeInTx(ctx context.Context, tx *sql.Tx, competitionID int) (*models.PhaseSummary, error) {
	competition, err := s.compRepo.GetByID(ctx, tx, competitionID)
	if err != nil {
		if errors.Is(err, repositories.ErrCompetitionNotFound) {
			return nil, ErrCompetitionNotFound
		}
		return nil, err
	}
	if competition.Type != models.CompetitionTypeInstantWin {
		return nil, ErrCompetitionNotInstantWin
	}

	prizes, err := s.prizeRepo.ListByCompetition(ctx, tx, competitionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list prizes for competition %d: %w", competitionID, err)
	}
	if len(prizes) == 0 {
		return nil, ErrNoPrizesConfigured
	}

	exists, err := s.winningRepo.ExistsByCompetition(ctx, tx, competitionID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrWinningTicketsExist
	}

	prizesByPhase := make(map[int][]*models.CompetitionPrize)
	for _, p := range prizes {
		prizesByPhase[p.Phase] = append(prizesByPhase[p.Phase], p)
	}

	summary := &models.PhaseSummary{
		CompetitionID: competitionID,
		TotalTickets:  competition.TotalTickets,
	}

	for _, phaseRange := range models.AllPhaseRanges(competition.TotalTickets) {
		phasePrizes := prizesByPhase[phaseRange.Phase]

		required := 0
		for _, p := range phasePrizes {
			required += p.TotalQuantity
		}
		if required > phaseRange.Size() {
			return nil, fmt.Errorf("%w: phase %d needs %d tickets but range %s holds only %d",
				ErrPhaseCapacityExceeded, phaseRange.Phase, required, phaseRange, phaseRange.Size())
		}

		// Один общий used-набор на фазу: призы одной фазы никогда не делят номер.
		used := make(map[int]bool, required)
		phaseTickets := 0

		for _, prize := range phasePrizes {
			numbers := s.drawUniqueNumbers(phaseRange, prize.TotalQuantity, used)

			tickets := make([]*models.WinningTicket, 0, len(numbers))
			for _, n := range numbers {
				tickets = append(tickets, &models.WinningTicket{
					CompetitionID: competitionID,
					PrizeID:       prize.ID,
					TicketNumber:  n,
					Status:        models.WinningTicketAvailable,
				})
			}
			if err := s.winningRepo.CreateBatch(ctx, tx, tickets); err != nil {
				return nil, err
			}

			cache := make([]int64, 0, len(numbers))
			for _, n := range numbers {
				cache = append(cache, int64(n))
			}
			if err := s.prizeRepo.UpdateNumberCache(ctx, tx, prize.ID, cache); err != nil {
				return nil, err
			}
			phaseTickets += len(numbers)
		}

		summary.Phases = append(summary.Phases, models.PhaseSummaryEntry{
			Phase:       phaseRange.Phase,
			Range:       phaseRange.String(),
			PrizeCount:  len(phasePrizes),
			TicketCount: phaseTickets,
		})
	}

	return summary, nil
}

// drawUniqueNumbers picks count distinct numbers from the range that are not
// yet in used, marks them used, and returns them sorted ascending.
func (s *winningTicketService) drawUniqueNumbers(r models.PhaseRange, count int, used map[int]bool) []int {
	numbers := make([]int, 0, count)
	for len(numbers) < count {
		n := r.Start + s.randInt(r.Size())
		if used[n] {
			continue
		}
		used[n] = true
		numbers = append(numbers, n)
	}
	sort.Ints(numbers)
	return numbers
}

func (s *winningTicketService) Clear(ctx context.Context, competitionID int, prizeID *int) (int64, error) {
	if _, err := s.compRepo.GetByID(ctx, nil, competitionID); err != nil {
		if errors.Is(err, repositories.ErrCompetitionNotFound) {
			return 0, ErrCompetitionNotFound
		}
		return 0, err
	}
	if prizeID != nil {
		prize, err := s.prizeRepo.GetByID(ctx, nil, *prizeID)
		if err != nil {
			if errors.Is(err, repositories.ErrPrizeNotFound) {
				return 0, ErrPrizeNotFound
			}
			return 0, err
		}
		if prize.CompetitionID != competitionID {
			return 0, ErrPrizeNotFound
		}
	}

	// Удаление строк и сброс кешей — строго одна транзакция.
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}

	deleted, err := s.winningRepo.DeleteByCompetition(ctx, tx, competitionID, prizeID)
	if err != nil {
		_ = tx.Rollback()
		return 0, err
	}
	if err := s.prizeRepo.ResetCaches(ctx, tx, competitionID, prizeID); err != nil {
		_ = tx.Rollback()
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit winning ticket clear: %w", err)
	}

	s.logger.Info("winning tickets cleared",
		slog.Int("competition_id", competitionID),
		slog.Int("prize_id", derefInt(prizeID)),
		slog.Int64("deleted", deleted),
	)
	return deleted, nil
}

// GetCompetitionStats aggregates per-prize claim counters and resolves the
// product names concurrently.
func (s *winningTicketService) GetCompetitionStats(ctx context.Context, competitionID int) (*models.CompetitionTicketStats, error) {
	if _, err := s.compRepo.GetByID(ctx, nil, competitionID); err != nil {
		if errors.Is(err, repositories.ErrCompetitionNotFound) {
			return nil, ErrCompetitionNotFound
		}
		return nil, err
	}

	var (
		byPrize  []models.PrizeTicketStats
		products map[int]*models.Product
	)

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		byPrize, err = s.winningRepo.StatsByCompetition(gCtx, competitionID)
		return err
	})
	g.Go(func() error {
		prizes, err := s.prizeRepo.ListByCompetition(gCtx, nil, competitionID)
		if err != nil {
			return err
		}
		ids := make([]int, 0, len(prizes))
		for _, p := range prizes {
			ids = append(ids, p.ProductID)
		}
		products, err = s.productRepo.GetByIDs(gCtx, ids)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to aggregate winning ticket stats for competition %d: %w", competitionID, err)
	}

	stats := &models.CompetitionTicketStats{CompetitionID: competitionID}
	for i := range byPrize {
		if product, ok := products[byPrize[i].ProductID]; ok {
			byPrize[i].Product = product.Name
		}
		stats.Total += byPrize[i].Total
		stats.Claimed += byPrize[i].Claimed
		stats.Available += byPrize[i].Available
	}
	stats.ByPrize = byPrize
	return stats, nil
}

func (s *winningTicketService) LookupByNumber(ctx context.Context, competitionID, ticketNumber int) (*models.WinningTicket, error) {
	ticket, err := s.winningRepo.FindByNumber(ctx, competitionID, ticketNumber)
	if err != nil {
		if errors.Is(err, repositories.ErrWinningTicketNotFound) {
			return nil, ErrWinningTicketNotFound
		}
		return nil, err
	}
	return ticket, nil
}

func (s *winningTicketService) ListUserWins(ctx context.Context, userID int) ([]*models.WinningTicket, error) {
	tickets, err := s.winningRepo.ListClaimedByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list claimed tickets for user %d: %w", userID, err)
	}
	return tickets, nil
}

// ListPrizesByProduct groups a competition's prizes by product, since one
// product may be offered across several phases.
func (s *winningTicketService) ListPrizesByProduct(ctx context.Context, competitionID int) ([]models.ProductPrizeGroup, error) {
	prizes, err := s.prizeRepo.ListByCompetition(ctx, nil, competitionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list prizes for competition %d: %w", competitionID, err)
	}

	ids := make([]int, 0, len(prizes))
	for _, p := range prizes {
		ids = append(ids, p.ProductID)
	}
	products, err := s.productRepo.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	groupIndex := make(map[int]int)
	groups := make([]models.ProductPrizeGroup, 0)
	for _, p := range prizes {
		idx, ok := groupIndex[p.ProductID]
		if !ok {
			idx = len(groups)
			groupIndex[p.ProductID] = idx
			groups = append(groups, models.ProductPrizeGroup{Product: products[p.ProductID]})
		}
		groups[idx].Prizes = append(groups[idx].Prizes, *p)
	}
	return groups, nil
}
