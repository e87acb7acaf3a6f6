package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Dosada05/raffle-system/models"
	"github.com/lib/pq"
)

var (
	ErrWinningTicketNotFound       = errors.New("winning ticket not found")
	ErrWinningTicketNumberConflict = errors.New("winning ticket number already exists for this competition")
	ErrWinningTicketAlreadyClaimed = errors.New("winning ticket already claimed")
)

type WinningTicketRepository interface {
	CreateBatch(ctx context.Context, exec SQLExecutor, tickets []*models.WinningTicket) error
	ExistsByCompetition(ctx context.Context, exec SQLExecutor, competitionID int) (bool, error)
	// FindAvailableInNumbers locks and returns the available winning tickets
	// whose numbers fall inside the freshly allocated block.
	FindAvailableInNumbers(ctx context.Context, exec SQLExecutor, competitionID int, numbers []int64) ([]*models.WinningTicket, error)
	// Claim transitions available → claimed; the status guard in the WHERE
	// clause makes a lost race surface as ErrWinningTicketAlreadyClaimed.
	Claim(ctx context.Context, exec SQLExecutor, ticketID, userID, entryID int, claimedAt time.Time) error
	FindByNumber(ctx context.Context, competitionID, ticketNumber int) (*models.WinningTicket, error)
	ListClaimedByUser(ctx context.Context, userID int) ([]*models.WinningTicket, error)
	DeleteByCompetition(ctx context.Context, exec SQLExecutor, competitionID int, prizeID *int) (int64, error)
	StatsByCompetition(ctx context.Context, competitionID int) ([]models.PrizeTicketStats, error)
}

type postgresWinningTicketRepository struct {
	db *sql.DB
}

func NewPostgresWinningTicketRepository(db *sql.DB) WinningTicketRepository {
	return &postgresWinningTicketRepository{db: db}
}

func (r *postgresWinningTicketRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresWinningTicketRepository) CreateBatch(ctx context.Context, exec SQLExecutor, tickets []*models.WinningTicket) error {
	if len(tickets) == 0 {
		return nil
	}
	executor := r.getExecutor(exec)

	query := `
		INSERT INTO winning_tickets (competition_id, prize_id, ticket_number, status)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`

	for _, t := range tickets {
		err := executor.QueryRowContext(ctx, query,
			t.CompetitionID, t.PrizeID, t.TicketNumber, t.Status,
		).Scan(&t.ID, &t.CreatedAt)
		if err != nil {
			if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
				if pqErr.Constraint == "winning_tickets_competition_id_ticket_number_key" {
					return fmt.Errorf("%w: number %d", ErrWinningTicketNumberConflict, t.TicketNumber)
				}
			}
			return fmt.Errorf("failed to insert winning ticket %d for prize %d: %w", t.TicketNumber, t.PrizeID, err)
		}
	}
	return nil
}

func (r *postgresWinningTicketRepository) ExistsByCompetition(ctx context.Context, exec SQLExecutor, competitionID int) (bool, error) {
	executor := r.getExecutor(exec)
	query := `SELECT EXISTS (SELECT 1 FROM winning_tickets WHERE competition_id = $1)`

	var exists bool
	if err := executor.QueryRowContext(ctx, query, competitionID).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check winning tickets existence for competition %d: %w", competitionID, err)
	}
	return exists, nil
}

func (r *postgresWinningTicketRepository) FindAvailableInNumbers(ctx context.Context, exec SQLExecutor, competitionID int, numbers []int64) ([]*models.WinningTicket, error) {
	if len(numbers) == 0 {
		return []*models.WinningTicket{}, nil
	}
	executor := r.getExecutor(exec)
	query := `
		SELECT id, competition_id, prize_id, ticket_number, status,
		       claimed_by_user_id, claimed_at, competition_entry_id, created_at
		FROM winning_tickets
		WHERE competition_id = $1
		  AND ticket_number = ANY($2)
		  AND status = $3
		ORDER BY ticket_number ASC
		FOR UPDATE`

	rows, err := executor.QueryContext(ctx, query, competitionID, pq.Array(numbers), models.WinningTicketAvailable)
	if err != nil {
		return nil, fmt.Errorf("failed to find available winning tickets for competition %d: %w", competitionID, err)
	}
	defer rows.Close()

	tickets := make([]*models.WinningTicket, 0)
	for rows.Next() {
		var t models.WinningTicket
		if scanErr := rows.Scan(
			&t.ID, &t.CompetitionID, &t.PrizeID, &t.TicketNumber, &t.Status,
			&t.ClaimedByUserID, &t.ClaimedAt, &t.CompetitionEntryID, &t.CreatedAt,
		); scanErr != nil {
			return nil, scanErr
		}
		tickets = append(tickets, &t)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return tickets, nil
}

func (r *postgresWinningTicketRepository) Claim(ctx context.Context, exec SQLExecutor, ticketID, userID, entryID int, claimedAt time.Time) error {
	executor := r.getExecutor(exec)
	query := `
		UPDATE winning_tickets
		SET status = $1, claimed_by_user_id = $2, claimed_at = $3, competition_entry_id = $4
		WHERE id = $5 AND status = $6`

	result, err := executor.ExecContext(ctx, query,
		models.WinningTicketClaimed, userID, claimedAt, entryID, ticketID, models.WinningTicketAvailable,
	)
	if err != nil {
		return fmt.Errorf("failed to claim winning ticket %d: %w", ticketID, err)
	}
	return checkAffectedRows(result, ErrWinningTicketAlreadyClaimed)
}

func (r *postgresWinningTicketRepository) FindByNumber(ctx context.Context, competitionID, ticketNumber int) (*models.WinningTicket, error) {
	query := `
		SELECT id, competition_id, prize_id, ticket_number, status,
		       claimed_by_user_id, claimed_at, competition_entry_id, created_at
		FROM winning_tickets
		WHERE competition_id = $1 AND ticket_number = $2`

	var t models.WinningTicket
	err := r.db.QueryRowContext(ctx, query, competitionID, ticketNumber).Scan(
		&t.ID, &t.CompetitionID, &t.PrizeID, &t.TicketNumber, &t.Status,
		&t.ClaimedByUserID, &t.ClaimedAt, &t.CompetitionEntryID, &t.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrWinningTicketNotFound
		}
		return nil, err
	}
	return &t, nil
}

func (r *postgresWinningTicketRepository) ListClaimedByUser(ctx context.Context, userID int) ([]*models.WinningTicket, error) {
	query := `
		SELECT id, competition_id, prize_id, ticket_number, status,
		       claimed_by_user_id, claimed_at, competition_entry_id, created_at
		FROM winning_tickets
		WHERE claimed_by_user_id = $1 AND status = $2
		ORDER BY claimed_at DESC`

	rows, err := r.db.QueryContext(ctx, query, userID, models.WinningTicketClaimed)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tickets := make([]*models.WinningTicket, 0)
	for rows.Next() {
		var t models.WinningTicket
		if scanErr := rows.Scan(
			&t.ID, &t.CompetitionID, &t.PrizeID, &t.TicketNumber, &t.Status,
			&t.ClaimedByUserID, &t.ClaimedAt, &t.CompetitionEntryID, &t.CreatedAt,
		); scanErr != nil {
			return nil, scanErr
		}
		tickets = append(tickets, &t)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return tickets, nil
}

func (r *postgresWinningTicketRepository) DeleteByCompetition(ctx context.Context, exec SQLExecutor, competitionID int, prizeID *int) (int64, error) {
	executor := r.getExecutor(exec)
	query := `DELETE FROM winning_tickets WHERE competition_id = $1`
	args := []interface{}{competitionID}
	if prizeID != nil {
		query += ` AND prize_id = $2`
		args = append(args, *prizeID)
	}

	result, err := executor.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to delete winning tickets for competition %d: %w", competitionID, err)
	}
	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to check deleted winning tickets: %w", err)
	}
	return deleted, nil
}

func (r *postgresWinningTicketRepository) StatsByCompetition(ctx context.Context, competitionID int) ([]models.PrizeTicketStats, error) {
	query := `
		SELECT p.id, p.product_id, p.phase,
		       COUNT(wt.id),
		       COUNT(wt.id) FILTER (WHERE wt.status = $2),
		       COUNT(wt.id) FILTER (WHERE wt.status = $3)
		FROM competition_prizes p
		LEFT JOIN winning_tickets wt ON wt.prize_id = p.id
		WHERE p.competition_id = $1
		GROUP BY p.id, p.product_id, p.phase
		ORDER BY p.phase ASC, p.id ASC`

	rows, err := r.db.QueryContext(ctx, query, competitionID, models.WinningTicketClaimed, models.WinningTicketAvailable)
	if err != nil {
		return nil, fmt.Errorf("failed to query winning ticket stats for competition %d: %w", competitionID, err)
	}
	defer rows.Close()

	stats := make([]models.PrizeTicketStats, 0)
	for rows.Next() {
		var s models.PrizeTicketStats
		if scanErr := rows.Scan(&s.PrizeID, &s.ProductID, &s.Phase, &s.Total, &s.Claimed, &s.Available); scanErr != nil {
			return nil, scanErr
		}
		stats = append(stats, s)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return stats, nil
}
