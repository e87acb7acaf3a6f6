package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Dosada05/raffle-system/live"
	"github.com/Dosada05/raffle-system/models"
	"github.com/Dosada05/raffle-system/repositories"
	"github.com/google/uuid"
)

type PurchaseInput struct {
	CompetitionID int
	UserID        int
	TicketCount   int
	// WalletAmount is the part of the price paid from the internal wallet,
	// in pence. The remainder must be covered by PaymentReference.
	WalletAmount     int
	PaymentReference *string
}

type ClaimedPrize struct {
	TicketNumber int `json:"ticket_number"`
	PrizeID      int `json:"prize_id"`
	ProductID    int `json:"product_id"`
}

type PurchaseResult struct {
	EntryID        int            `json:"entry_id"`
	OrderID        string         `json:"order_id"`
	TicketNumbers  []int64        `json:"ticket_numbers"`
	WinningTickets []ClaimedPrize `json:"winning_tickets"`
}

type PurchaseService interface {
	Purchase(ctx context.Context, input PurchaseInput) (*PurchaseResult, error)
	ListUserEntries(ctx context.Context, userID, limit, offset int) ([]*models.CompetitionEntry, error)
	GetEntry(ctx context.Context, entryID int) (*models.CompetitionEntry, error)
}

type purchaseService struct {
	db          *sql.DB
	userRepo    repositories.UserRepository
	compRepo    repositories.CompetitionRepository
	counterRepo repositories.TicketCounterRepository
	entryRepo   repositories.EntryRepository
	winningRepo repositories.WinningTicketRepository
	prizeRepo   repositories.PrizeRepository
	walletRepo  repositories.WalletRepository
	hub         *live.Hub
	logger      *slog.Logger
}

func NewPurchaseService(
	db *sql.DB,
	userRepo repositories.UserRepository,
	compRepo repositories.CompetitionRepository,
	counterRepo repositories.TicketCounterRepository,
	entryRepo repositories.EntryRepository,
	winningRepo repositories.WinningTicketRepository,
	prizeRepo repositories.PrizeRepository,
	walletRepo repositories.WalletRepository,
	hub *live.Hub,
	logger *slog.Logger,
) PurchaseService {
	return &purchaseService{
		db:          db,
		userRepo:    userRepo,
		compRepo:    compRepo,
		counterRepo: counterRepo,
		entryRepo:   entryRepo,
		winningRepo: winningRepo,
		prizeRepo:   prizeRepo,
		walletRepo:  walletRepo,
		hub:         hub,
		logger:      logger,
	}
}

// Purchase runs the whole buy flow in one database transaction: allocation,
// payment settlement, entry insertion, sold-count increment and instant-win
// claiming either all commit or all roll back.
func (s *purchaseService) Purchase(ctx context.Context, input PurchaseInput) (*PurchaseResult, error) {
	if input.TicketCount <= 0 {
		return nil, ErrTicketCountNotPos
	}

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
			if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
				s.logger.Error("purchase rollback failed",
					slog.Int("competition_id", input.CompetitionID),
					slog.Any("error", rbErr),
				)
			}
		}
	}()

	result, competition, txErr := s.purchaseInTx(ctx, tx, input)
	if txErr != nil {
		return nil, txErr
	}
	if txErr = tx.Commit(); txErr != nil {
		return nil, fmt.Errorf("failed to commit purchase: %w", txErr)
	}

	s.logger.Info("purchase completed",
		slog.Int("competition_id", input.CompetitionID),
		slog.Int("user_id", input.UserID),
		slog.Int("entry_id", result.EntryID),
		slog.Int("tickets", input.TicketCount),
		slog.Int("wins", len(result.WinningTickets)),
	)
	s.broadcast(competition, result)
	return result, nil
}

func (s *purchaseService) purchaseInTx(ctx context.Context, tx *sql.Tx, input PurchaseInput) (*PurchaseResult, *models.Competition, error) {
	// 1. Пользователь.
	user, err := s.userRepo.GetByID(ctx, tx, input.UserID)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, nil, ErrUserNotFound
		}
		return nil, nil, err
	}

	// 2. Конкурс.
	competition, err := s.compRepo.GetByID(ctx, tx, input.CompetitionID)
	if err != nil {
		if errors.Is(err, repositories.ErrCompetitionNotFound) {
			return nil, nil, ErrCompetitionNotFound
		}
		return nil, nil, err
	}
	if competition.Status != models.CompetitionStatusActive {
		return nil, nil, ErrCompetitionNotActive
	}

	totalPrice := competition.TicketPrice * input.TicketCount
	if input.WalletAmount < 0 || input.WalletAmount > totalPrice {
		return nil, nil, fmt.Errorf("%w: wallet amount %d out of range for price %d",
			ErrValidationFailed, input.WalletAmount, totalPrice)
	}
	if input.WalletAmount < totalPrice && input.PaymentReference == nil {
		return nil, nil, ErrPaymentRequired
	}

	// 3. Атомарное выделение диапазона номеров.
	ticketRange, err := s.counterRepo.AllocateRange(ctx, tx, competition.ID, input.TicketCount)
	if err != nil {
		if errors.Is(err, repositories.ErrInsufficientTickets) {
			return nil, nil, ErrInsufficientTickets
		}
		return nil, nil, err
	}
	ticketNumbers := ticketRange.Numbers()

	// 4. Списание с кошелька, если часть цены платится им.
	var walletTxID *int
	if input.WalletAmount > 0 {
		if err := s.walletRepo.Debit(ctx, tx, user.ID, input.WalletAmount); err != nil {
			if errors.Is(err, repositories.ErrInsufficientFunds) {
				return nil, nil, ErrInsufficientFunds
			}
			return nil, nil, err
		}
		walletTx := &models.WalletTransaction{
			UserID:        user.ID,
			Type:          models.WalletTxTicketPurchase,
			Amount:        input.WalletAmount,
			CompetitionID: &competition.ID,
			Reference:     input.PaymentReference,
		}
		if err := s.walletRepo.RecordTransaction(ctx, tx, walletTx); err != nil {
			return nil, nil, err
		}
		walletTxID = &walletTx.ID
	}

	// 5. Запись участия.
	entry := &models.CompetitionEntry{
		CompetitionID:        competition.ID,
		UserID:               user.ID,
		OrderID:              uuid.NewString(),
		WalletTransactionID:  walletTxID,
		PaymentTransactionID: input.PaymentReference,
		Tickets:              ticketNumbers,
	}
	if err := s.entryRepo.Create(ctx, tx, entry); err != nil {
		return nil, nil, err
	}

	// 6. Продвигаем счётчик проданных.
	if err := s.compRepo.IncrementTicketsSold(ctx, tx, competition.ID, input.TicketCount); err != nil {
		return nil, nil, err
	}
	competition.TicketsSold += input.TicketCount

	// 7. Проверка выигрышных билетов в выделенном диапазоне.
	claimed, err := s.claimWinningTickets(ctx, tx, competition.ID, user.ID, entry.ID, ticketNumbers)
	if err != nil {
		return nil, nil, err
	}

	result := &PurchaseResult{
		EntryID:        entry.ID,
		OrderID:        entry.OrderID,
		TicketNumbers:  ticketNumbers,
		WinningTickets: claimed,
	}
	return result, competition, nil
}

// claimWinningTickets transitions every available winning ticket inside the
// allocated block to claimed. The per-row status guard is defense in depth:
// allocation blocks never overlap, so a lost claim race should be
// unreachable — if it happens anyway the ticket is skipped, not double-won.
func (s *purchaseService) claimWinningTickets(ctx context.Context, tx *sql.Tx, competitionID, userID, entryID int, numbers []int64) ([]ClaimedPrize, error) {
	matches, err := s.winningRepo.FindAvailableInNumbers(ctx, tx, competitionID, numbers)
	if err != nil {
		return nil, err
	}

	claimed := make([]ClaimedPrize, 0, len(matches))
	now := time.Now().UTC()
	for _, ticket := range matches {
		err := s.winningRepo.Claim(ctx, tx, ticket.ID, userID, entryID, now)
		if err != nil {
			if errors.Is(err, repositories.ErrWinningTicketAlreadyClaimed) {
				s.logger.Warn("winning ticket claimed concurrently, skipping",
					slog.Int("competition_id", competitionID),
					slog.Int("ticket_number", ticket.TicketNumber),
				)
				continue
			}
			return nil, err
		}
		if err := s.prizeRepo.AppendClaimedCache(ctx, tx, ticket.PrizeID, ticket.TicketNumber); err != nil {
			return nil, err
		}

		prize, err := s.prizeRepo.GetByID(ctx, tx, ticket.PrizeID)
		if err != nil {
			return nil, err
		}
		claimed = append(claimed, ClaimedPrize{
			TicketNumber: ticket.TicketNumber,
			PrizeID:      ticket.PrizeID,
			ProductID:    prize.ProductID,
		})
	}
	return claimed, nil
}

func (s *purchaseService) ListUserEntries(ctx context.Context, userID, limit, offset int) ([]*models.CompetitionEntry, error) {
	entries, err := s.entryRepo.ListByUser(ctx, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list entries for user %d: %w", userID, err)
	}
	return entries, nil
}

func (s *purchaseService) GetEntry(ctx context.Context, entryID int) (*models.CompetitionEntry, error) {
	entry, err := s.entryRepo.GetByID(ctx, entryID)
	if err != nil {
		if errors.Is(err, repositories.ErrEntryNotFound) {
			return nil, ErrEntryNotFound
		}
		return nil, err
	}
	return entry, nil
}

func (s *purchaseService) broadcast(competition *models.Competition, result *PurchaseResult) {
	if s.hub == nil {
		return
	}
	s.hub.BroadcastToCompetition(competition.ID, live.EventTicketsSold, map[string]interface{}{
		"competition_id": competition.ID,
		"tickets_sold":   competition.TicketsSold,
		"total_tickets":  competition.TotalTickets,
	})
	for _, win := range result.WinningTickets {
		s.hub.BroadcastToCompetition(competition.ID, live.EventWinningTicketClaimed, map[string]interface{}{
			"competition_id": competition.ID,
			"ticket_number":  win.TicketNumber,
			"prize_id":       win.PrizeID,
		})
	}
}
