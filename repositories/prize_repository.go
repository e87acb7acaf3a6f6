package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Dosada05/raffle-system/models"
	"github.com/lib/pq"
)

var (
	ErrPrizeNotFound           = errors.New("competition prize not found")
	ErrPrizeCompetitionInvalid = errors.New("prize competition conflict or invalid")
	ErrPrizeProductInvalid     = errors.New("prize product conflict or invalid")
	ErrPrizeInvalidPhase       = errors.New("prize phase must be 1, 2 or 3")
)

type PrizeRepository interface {
	Create(ctx context.Context, prize *models.CompetitionPrize) error
	GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.CompetitionPrize, error)
	ListByCompetition(ctx context.Context, exec SQLExecutor, competitionID int) ([]*models.CompetitionPrize, error)
	Update(ctx context.Context, prize *models.CompetitionPrize) error
	Delete(ctx context.Context, id int) error
	UpdateNumberCache(ctx context.Context, exec SQLExecutor, prizeID int, numbers []int64) error
	AppendClaimedCache(ctx context.Context, exec SQLExecutor, prizeID int, ticketNumber int) error
	ResetCaches(ctx context.Context, exec SQLExecutor, competitionID int, prizeID *int) error
}

type postgresPrizeRepository struct {
	db *sql.DB
}

func NewPostgresPrizeRepository(db *sql.DB) PrizeRepository {
	return &postgresPrizeRepository{db: db}
}

func (r *postgresPrizeRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresPrizeRepository) Create(ctx context.Context, p *models.CompetitionPrize) error {
	query := `
		INSERT INTO competition_prizes (competition_id, product_id, phase, total_quantity, prize_group, is_instant_win)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query,
		p.CompetitionID, p.ProductID, p.Phase, p.TotalQuantity, p.PrizeGroup, p.IsInstantWin,
	).Scan(&p.ID, &p.CreatedAt)

	return r.handlePrizeError(err)
}

func (r *postgresPrizeRepository) GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.CompetitionPrize, error) {
	executor := r.getExecutor(exec)
	query := `
		SELECT id, competition_id, product_id, phase, total_quantity, prize_group,
		       is_instant_win, winning_ticket_numbers, claimed_ticket_numbers, created_at
		FROM competition_prizes
		WHERE id = $1`

	p := &models.CompetitionPrize{}
	err := executor.QueryRowContext(ctx, query, id).Scan(
		&p.ID, &p.CompetitionID, &p.ProductID, &p.Phase, &p.TotalQuantity, &p.PrizeGroup,
		&p.IsInstantWin, pq.Array(&p.WinningTicketNumbers), pq.Array(&p.ClaimedTicketNumbers), &p.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPrizeNotFound
		}
		return nil, err
	}
	return p, nil
}

func (r *postgresPrizeRepository) ListByCompetition(ctx context.Context, exec SQLExecutor, competitionID int) ([]*models.CompetitionPrize, error) {
	executor := r.getExecutor(exec)
	query := `
		SELECT id, competition_id, product_id, phase, total_quantity, prize_group,
		       is_instant_win, winning_ticket_numbers, claimed_ticket_numbers, created_at
		FROM competition_prizes
		WHERE competition_id = $1
		ORDER BY phase ASC, id ASC`

	rows, err := executor.QueryContext(ctx, query, competitionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	prizes := make([]*models.CompetitionPrize, 0)
	for rows.Next() {
		var p models.CompetitionPrize
		if scanErr := rows.Scan(
			&p.ID, &p.CompetitionID, &p.ProductID, &p.Phase, &p.TotalQuantity, &p.PrizeGroup,
			&p.IsInstantWin, pq.Array(&p.WinningTicketNumbers), pq.Array(&p.ClaimedTicketNumbers), &p.CreatedAt,
		); scanErr != nil {
			return nil, scanErr
		}
		prizes = append(prizes, &p)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return prizes, nil
}

func (r *postgresPrizeRepository) Update(ctx context.Context, p *models.CompetitionPrize) error {
	query := `
		UPDATE competition_prizes SET
			product_id = $1,
			phase = $2,
			total_quantity = $3,
			prize_group = $4,
			is_instant_win = $5
		WHERE id = $6`

	result, err := r.db.ExecContext(ctx, query,
		p.ProductID, p.Phase, p.TotalQuantity, p.PrizeGroup, p.IsInstantWin, p.ID,
	)
	if err != nil {
		return r.handlePrizeError(err)
	}
	return checkAffectedRows(result, ErrPrizeNotFound)
}

func (r *postgresPrizeRepository) Delete(ctx context.Context, id int) error {
	query := `DELETE FROM competition_prizes WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return r.handlePrizeError(err)
	}
	return checkAffectedRows(result, ErrPrizeNotFound)
}

// UpdateNumberCache mirrors the sorted winning numbers onto the prize row.
// Pass nil to reset the cache; the claimed cache is cleared alongside.
func (r *postgresPrizeRepository) UpdateNumberCache(ctx context.Context, exec SQLExecutor, prizeID int, numbers []int64) error {
	executor := r.getExecutor(exec)
	query := `UPDATE competition_prizes SET winning_ticket_numbers = $1 WHERE id = $2`
	var arg interface{}
	if numbers != nil {
		arg = pq.Array(numbers)
	}
	result, err := executor.ExecContext(ctx, query, arg, prizeID)
	if err != nil {
		return fmt.Errorf("failed to update winning number cache for prize %d: %w", prizeID, err)
	}
	return checkAffectedRows(result, ErrPrizeNotFound)
}

// AppendClaimedCache records a claimed number on the prize's display cache.
func (r *postgresPrizeRepository) AppendClaimedCache(ctx context.Context, exec SQLExecutor, prizeID int, ticketNumber int) error {
	executor := r.getExecutor(exec)
	query := `
		UPDATE competition_prizes
		SET claimed_ticket_numbers = array_append(COALESCE(claimed_ticket_numbers, '{}'), $1)
		WHERE id = $2`
	result, err := executor.ExecContext(ctx, query, ticketNumber, prizeID)
	if err != nil {
		return fmt.Errorf("failed to append claimed number cache for prize %d: %w", prizeID, err)
	}
	return checkAffectedRows(result, ErrPrizeNotFound)
}

// ResetCaches nulls both derived number lists, for one prize or for every
// prize of the competition.
func (r *postgresPrizeRepository) ResetCaches(ctx context.Context, exec SQLExecutor, competitionID int, prizeID *int) error {
	executor := r.getExecutor(exec)
	query := `
		UPDATE competition_prizes
		SET winning_ticket_numbers = NULL, claimed_ticket_numbers = NULL
		WHERE competition_id = $1`
	args := []interface{}{competitionID}
	if prizeID != nil {
		query += ` AND id = $2`
		args = append(args, *prizeID)
	}
	_, err := executor.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to reset prize caches for competition %d: %w", competitionID, err)
	}
	return nil
}

func (r *postgresPrizeRepository) handlePrizeError(err error) error {
	if err == nil {
		return nil
	}
	if pqErr, ok := err.(*pq.Error); ok {
		switch pqErr.Code {
		case "23503":
			switch pqErr.Constraint {
			case "competition_prizes_competition_id_fkey":
				return ErrPrizeCompetitionInvalid
			case "competition_prizes_product_id_fkey":
				return ErrPrizeProductInvalid
			}
		case "23514":
			if pqErr.Constraint == "competition_prizes_phase_check" {
				return ErrPrizeInvalidPhase
			}
		}
	}
	return err
}
