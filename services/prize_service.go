package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/Dosada05/raffle-system/models"
	"github.com/Dosada05/raffle-system/repositories"
)

type CreatePrizeInput struct {
	CompetitionID int     `json:"competition_id"`
	ProductID     int     `json:"product_id"`
	Phase         int     `json:"phase"`
	TotalQuantity int     `json:"total_quantity"`
	PrizeGroup    *string `json:"prize_group"`
	IsInstantWin  bool    `json:"is_instant_win"`
}

type UpdatePrizeInput struct {
	ProductID     *int    `json:"product_id"`
	Phase         *int    `json:"phase"`
	TotalQuantity *int    `json:"total_quantity"`
	PrizeGroup    *string `json:"prize_group"`
	IsInstantWin  *bool   `json:"is_instant_win"`
}

type PrizeService interface {
	CreatePrize(ctx context.Context, input CreatePrizeInput) (*models.CompetitionPrize, error)
	GetPrizeByID(ctx context.Context, id int) (*models.CompetitionPrize, error)
	ListByCompetition(ctx context.Context, competitionID int) ([]*models.CompetitionPrize, error)
	UpdatePrize(ctx context.Context, id int, input UpdatePrizeInput) (*models.CompetitionPrize, error)
	DeletePrize(ctx context.Context, id int) error
}

type prizeService struct {
	prizeRepo   repositories.PrizeRepository
	compRepo    repositories.CompetitionRepository
	productRepo repositories.ProductRepository
	winningRepo repositories.WinningTicketRepository
}

func NewPrizeService(
	prizeRepo repositories.PrizeRepository,
	compRepo repositories.CompetitionRepository,
	productRepo repositories.ProductRepository,
	winningRepo repositories.WinningTicketRepository,
) PrizeService {
	return &prizeService{
		prizeRepo:   prizeRepo,
		compRepo:    compRepo,
		productRepo: productRepo,
		winningRepo: winningRepo,
	}
}

func (s *prizeService) validatePhaseAndQuantity(phase, quantity int) error {
	if phase < 1 || phase > models.NumPhases {
		return fmt.Errorf("%w: phase must be between 1 and %d", ErrValidationFailed, models.NumPhases)
	}
	if quantity <= 0 {
		return fmt.Errorf("%w: total_quantity must be positive", ErrValidationFailed)
	}
	return nil
}

// checkNotLocked rejects prize edits once winning tickets exist for the
// competition; clearing the pool unlocks them again.
func (s *prizeService) checkNotLocked(ctx context.Context, competitionID int) error {
	locked, err := s.winningRepo.ExistsByCompetition(ctx, nil, competitionID)
	if err != nil {
		return err
	}
	if locked {
		return ErrPrizesLocked
	}
	return nil
}

func (s *prizeService) CreatePrize(ctx context.Context, input CreatePrizeInput) (*models.CompetitionPrize, error) {
	if err := s.validatePhaseAndQuantity(input.Phase, input.TotalQuantity); err != nil {
		return nil, err
	}
	if _, err := s.compRepo.GetByID(ctx, nil, input.CompetitionID); err != nil {
		if errors.Is(err, repositories.ErrCompetitionNotFound) {
			return nil, ErrCompetitionNotFound
		}
		return nil, err
	}
	if _, err := s.productRepo.GetByID(ctx, input.ProductID); err != nil {
		if errors.Is(err, repositories.ErrProductNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}
	if err := s.checkNotLocked(ctx, input.CompetitionID); err != nil {
		return nil, err
	}

	prize := &models.CompetitionPrize{
		CompetitionID: input.CompetitionID,
		ProductID:     input.ProductID,
		Phase:         input.Phase,
		TotalQuantity: input.TotalQuantity,
		PrizeGroup:    input.PrizeGroup,
		IsInstantWin:  input.IsInstantWin,
	}
	if err := s.prizeRepo.Create(ctx, prize); err != nil {
		return nil, fmt.Errorf("failed to create prize: %w", err)
	}
	return prize, nil
}

func (s *prizeService) GetPrizeByID(ctx context.Context, id int) (*models.CompetitionPrize, error) {
	prize, err := s.prizeRepo.GetByID(ctx, nil, id)
	if err != nil {
		if errors.Is(err, repositories.ErrPrizeNotFound) {
			return nil, ErrPrizeNotFound
		}
		return nil, err
	}
	return prize, nil
}

func (s *prizeService) ListByCompetition(ctx context.Context, competitionID int) ([]*models.CompetitionPrize, error) {
	prizes, err := s.prizeRepo.ListByCompetition(ctx, nil, competitionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list prizes for competition %d: %w", competitionID, err)
	}
	return prizes, nil
}

func (s *prizeService) UpdatePrize(ctx context.Context, id int, input UpdatePrizeInput) (*models.CompetitionPrize, error) {
	prize, err := s.prizeRepo.GetByID(ctx, nil, id)
	if err != nil {
		if errors.Is(err, repositories.ErrPrizeNotFound) {
			return nil, ErrPrizeNotFound
		}
		return nil, err
	}
	if err := s.checkNotLocked(ctx, prize.CompetitionID); err != nil {
		return nil, err
	}

	if input.ProductID != nil {
		if _, err := s.productRepo.GetByID(ctx, *input.ProductID); err != nil {
			if errors.Is(err, repositories.ErrProductNotFound) {
				return nil, ErrProductNotFound
			}
			return nil, err
		}
		prize.ProductID = *input.ProductID
	}
	if input.Phase != nil {
		prize.Phase = *input.Phase
	}
	if input.TotalQuantity != nil {
		prize.TotalQuantity = *input.TotalQuantity
	}
	if err := s.validatePhaseAndQuantity(prize.Phase, prize.TotalQuantity); err != nil {
		return nil, err
	}
	if input.PrizeGroup != nil {
		prize.PrizeGroup = input.PrizeGroup
	}
	if input.IsInstantWin != nil {
		prize.IsInstantWin = *input.IsInstantWin
	}

	if err := s.prizeRepo.Update(ctx, prize); err != nil {
		return nil, fmt.Errorf("failed to update prize %d: %w", id, err)
	}
	return prize, nil
}

func (s *prizeService) DeletePrize(ctx context.Context, id int) error {
	prize, err := s.prizeRepo.GetByID(ctx, nil, id)
	if err != nil {
		if errors.Is(err, repositories.ErrPrizeNotFound) {
			return ErrPrizeNotFound
		}
		return err
	}
	if err := s.checkNotLocked(ctx, prize.CompetitionID); err != nil {
		return err
	}
	return s.prizeRepo.Delete(ctx, id)
}
