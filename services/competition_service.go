package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/Dosada05/raffle-system/models"
	"github.com/Dosada05/raffle-system/repositories"
	"github.com/Dosada05/raffle-system/storage"
)

type CreateCompetitionInput struct {
	Title        string                 `json:"title"`
	Description  *string                `json:"description"`
	Type         models.CompetitionType `json:"type"`
	TicketPrice  int                    `json:"ticket_price"`
	TotalTickets int                    `json:"total_tickets"`
	StartsAt     string                 `json:"starts_at"`
	EndsAt       string                 `json:"ends_at"`
}

type UpdateCompetitionInput struct {
	Title        *string                   `json:"title"`
	Description  *string                   `json:"description"`
	Status       *models.CompetitionStatus `json:"status"`
	TicketPrice  *int                      `json:"ticket_price"`
	TotalTickets *int                      `json:"total_tickets"`
	StartsAt     *string                   `json:"starts_at"`
	EndsAt       *string                   `json:"ends_at"`
}

type CompetitionService interface {
	CreateCompetition(ctx context.Context, input CreateCompetitionInput) (*models.Competition, error)
	GetCompetitionByID(ctx context.Context, id int) (*models.Competition, error)
	ListCompetitions(ctx context.Context, filter repositories.ListCompetitionsFilter) ([]models.Competition, error)
	UpdateCompetition(ctx context.Context, id int, input UpdateCompetitionInput) (*models.Competition, error)
	DeleteCompetition(ctx context.Context, id int) error
	UploadImage(ctx context.Context, competitionID int, contentType string, file io.Reader) (*models.Competition, error)
	AutoUpdateCompetitionStatusesByDates(ctx context.Context) error
}

type competitionService struct {
	db          *sql.DB
	compRepo    repositories.CompetitionRepository
	prizeRepo   repositories.PrizeRepository
	winningRepo repositories.WinningTicketRepository
	uploader    storage.FileUploader
	logger      *slog.Logger
}

func NewCompetitionService(
	db *sql.DB,
	compRepo repositories.CompetitionRepository,
	prizeRepo repositories.PrizeRepository,
	winningRepo repositories.WinningTicketRepository,
	uploader storage.FileUploader,
	logger *slog.Logger,
) CompetitionService {
	return &competitionService{
		db:          db,
		compRepo:    compRepo,
		prizeRepo:   prizeRepo,
		winningRepo: winningRepo,
		uploader:    uploader,
		logger:      logger,
	}
}

func (s *competitionService) CreateCompetition(ctx context.Context, input CreateCompetitionInput) (*models.Competition, error) {
	c := &models.Competition{
		Title:        input.Title,
		Description:  input.Description,
		Type:         input.Type,
		Status:       models.CompetitionStatusDraft,
		TicketPrice:  input.TicketPrice,
		TotalTickets: input.TotalTickets,
	}
	if c.Title == "" {
		return nil, fmt.Errorf("%w: title is required", ErrValidationFailed)
	}
	if c.Type != models.CompetitionTypeRaffle && c.Type != models.CompetitionTypeInstantWin {
		return nil, fmt.Errorf("%w: unknown competition type %q", ErrValidationFailed, input.Type)
	}
	if c.TotalTickets <= 0 {
		return nil, ErrCompetitionInvalidCapacity
	}
	if c.TicketPrice <= 0 {
		return nil, ErrCompetitionInvalidPrice
	}

	var err error
	if c.StartsAt, c.EndsAt, err = parseCompetitionDates(input.StartsAt, input.EndsAt); err != nil {
		return nil, err
	}

	// Конкурс и его счётчик билетов создаются в одной транзакции.
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	if err := s.compRepo.Create(ctx, tx, c); err != nil {
		_ = tx.Rollback()
		if errors.Is(err, repositories.ErrCompetitionTitleConflict) {
			return nil, ErrCompetitionTitleConflict
		}
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit competition creation: %w", err)
	}

	s.logger.Info("competition created",
		slog.Int("competition_id", c.ID),
		slog.String("type", string(c.Type)),
		slog.Int("total_tickets", c.TotalTickets),
	)
	return c, nil
}

func (s *competitionService) GetCompetitionByID(ctx context.Context, id int) (*models.Competition, error) {
	c, err := s.compRepo.GetByID(ctx, nil, id)
	if err != nil {
		if errors.Is(err, repositories.ErrCompetitionNotFound) {
			return nil, ErrCompetitionNotFound
		}
		return nil, err
	}

	prizes, err := s.prizeRepo.ListByCompetition(ctx, nil, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load prizes for competition %d: %w", id, err)
	}
	c.Prizes = make([]models.CompetitionPrize, 0, len(prizes))
	for _, p := range prizes {
		c.Prizes = append(c.Prizes, *p)
	}

	populateCompetitionImageURL(c, s.uploader)
	return c, nil
}

func (s *competitionService) ListCompetitions(ctx context.Context, filter repositories.ListCompetitionsFilter) ([]models.Competition, error) {
	competitions, err := s.compRepo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list competitions: %w", err)
	}
	for i := range competitions {
		populateCompetitionImageURL(&competitions[i], s.uploader)
	}
	return competitions, nil
}

// UpdateCompetition enforces the edit lock: once winning tickets exist,
// ticket_price and total_tickets are frozen until an explicit clear.
func (s *competitionService) UpdateCompetition(ctx context.Context, id int, input UpdateCompetitionInput) (*models.Competition, error) {
	c, err := s.compRepo.GetByID(ctx, nil, id)
	if err != nil {
		if errors.Is(err, repositories.ErrCompetitionNotFound) {
			return nil, ErrCompetitionNotFound
		}
		return nil, err
	}

	if input.TicketPrice != nil || input.TotalTickets != nil {
		locked, err := s.winningRepo.ExistsByCompetition(ctx, nil, id)
		if err != nil {
			return nil, err
		}
		if locked {
			return nil, ErrCompetitionLocked
		}
	}

	if input.Title != nil {
		c.Title = *input.Title
	}
	if input.Description != nil {
		c.Description = input.Description
	}
	if input.TicketPrice != nil {
		if *input.TicketPrice <= 0 {
			return nil, ErrCompetitionInvalidPrice
		}
		c.TicketPrice = *input.TicketPrice
	}
	if input.TotalTickets != nil {
		if *input.TotalTickets <= 0 {
			return nil, ErrCompetitionInvalidCapacity
		}
		if *input.TotalTickets < c.TicketsSold {
			return nil, fmt.Errorf("%w: %d tickets already sold", ErrCompetitionInvalidCapacity, c.TicketsSold)
		}
		c.TotalTickets = *input.TotalTickets
	}
	if input.Status != nil {
		if !isValidStatusTransition(c.Status, *input.Status) {
			return nil, fmt.Errorf("%w: %s -> %s", ErrCompetitionInvalidStatusTransition, c.Status, *input.Status)
		}
		c.Status = *input.Status
	}
	if input.StartsAt != nil || input.EndsAt != nil {
		startsAt := c.StartsAt.Format(competitionDateLayout)
		endsAt := c.EndsAt.Format(competitionDateLayout)
		if input.StartsAt != nil {
			startsAt = *input.StartsAt
		}
		if input.EndsAt != nil {
			endsAt = *input.EndsAt
		}
		if c.StartsAt, c.EndsAt, err = parseCompetitionDates(startsAt, endsAt); err != nil {
			return nil, err
		}
	}

	if err := s.compRepo.Update(ctx, c); err != nil {
		if errors.Is(err, repositories.ErrCompetitionTitleConflict) {
			return nil, ErrCompetitionTitleConflict
		}
		return nil, err
	}
	populateCompetitionImageURL(c, s.uploader)
	return c, nil
}

func (s *competitionService) DeleteCompetition(ctx context.Context, id int) error {
	c, err := s.compRepo.GetByID(ctx, nil, id)
	if err != nil {
		if errors.Is(err, repositories.ErrCompetitionNotFound) {
			return ErrCompetitionNotFound
		}
		return err
	}
	if c.Status != models.CompetitionStatusDraft {
		return ErrCompetitionNotDraft
	}
	if err := s.compRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, repositories.ErrCompetitionNotFound) {
			return ErrCompetitionNotFound
		}
		return err
	}
	return nil
}

func (s *competitionService) UploadImage(ctx context.Context, competitionID int, contentType string, file io.Reader) (*models.Competition, error) {
	c, err := s.compRepo.GetByID(ctx, nil, competitionID)
	if err != nil {
		if errors.Is(err, repositories.ErrCompetitionNotFound) {
			return nil, ErrCompetitionNotFound
		}
		return nil, err
	}

	key := fmt.Sprintf("competitions/%d/cover", competitionID)
	result, err := s.uploader.Upload(ctx, key, contentType, file)
	if err != nil {
		return nil, fmt.Errorf("failed to upload competition image: %w", err)
	}

	if err := s.compRepo.UpdateImageKey(ctx, competitionID, &result.Key); err != nil {
		return nil, err
	}
	c.ImageKey = &result.Key
	populateCompetitionImageURL(c, s.uploader)
	return c, nil
}

// AutoUpdateCompetitionStatusesByDates activates drafts whose starts_at has
// passed and ends active competitions past ends_at or sold out. Called by the
// scheduler goroutine in main.
func (s *competitionService) AutoUpdateCompetitionStatusesByDates(ctx context.Context) error {
	candidates, err := s.compRepo.GetCompetitionsForAutoStatusUpdate(ctx, nil)
	if err != nil {
		return err
	}

	for _, c := range candidates {
		var next models.CompetitionStatus
		switch c.Status {
		case models.CompetitionStatusDraft:
			next = models.CompetitionStatusActive
		case models.CompetitionStatusActive:
			next = models.CompetitionStatusEnded
		default:
			continue
		}

		if err := s.compRepo.UpdateStatus(ctx, nil, c.ID, next); err != nil {
			s.logger.Error("failed to auto-update competition status",
				slog.Int("competition_id", c.ID),
				slog.String("next_status", string(next)),
				slog.Any("error", err),
			)
			continue
		}
		s.logger.Info("competition status auto-updated",
			slog.Int("competition_id", c.ID),
			slog.String("from", string(c.Status)),
			slog.String("to", string(next)),
		)
	}
	return nil
}
