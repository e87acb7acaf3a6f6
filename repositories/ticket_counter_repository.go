package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Dosada05/raffle-system/models"
)

var (
	ErrTicketCounterNotFound = errors.New("ticket counter not found")
	ErrInsufficientTickets   = errors.New("not enough tickets available")
)

type TicketCounterRepository interface {
	// AllocateRange atomically reserves count consecutive ticket numbers for
	// the competition, failing with ErrInsufficientTickets when the pool
	// cannot fit them.
	AllocateRange(ctx context.Context, exec SQLExecutor, competitionID, count int) (*models.TicketRange, error)
	Current(ctx context.Context, exec SQLExecutor, competitionID int) (int, error)
}

type postgresTicketCounterRepository struct {
	db *sql.DB
}

func NewPostgresTicketCounterRepository(db *sql.DB) TicketCounterRepository {
	return &postgresTicketCounterRepository{db: db}
}

func (r *postgresTicketCounterRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

// AllocateRange is the single serialization point for competition capacity.
// The increment and the capacity check happen in one guarded UPDATE, so two
// concurrent purchases can never both read a stale counter and overrun
// total_tickets: the row lock taken by the first UPDATE blocks the second
// until commit, and the guard re-evaluates against the committed value.
func (r *postgresTicketCounterRepository) AllocateRange(ctx context.Context, exec SQLExecutor, competitionID, count int) (*models.TicketRange, error) {
	if count <= 0 {
		return nil, fmt.Errorf("ticket count must be positive, got %d", count)
	}
	executor := r.getExecutor(exec)

	query := `
		UPDATE ticket_counters tc
		SET last_ticket_number = tc.last_ticket_number + $2
		FROM competitions c
		WHERE tc.competition_id = $1
		  AND c.id = tc.competition_id
		  AND tc.last_ticket_number + $2 <= c.total_tickets
		RETURNING tc.last_ticket_number`

	var newLast int
	err := executor.QueryRowContext(ctx, query, competitionID, count).Scan(&newLast)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// Counter rows are created with the competition, so an empty
			// result means the guard failed, not a missing row.
			return nil, ErrInsufficientTickets
		}
		return nil, fmt.Errorf("failed to allocate ticket range for competition %d: %w", competitionID, err)
	}

	return &models.TicketRange{Start: newLast - count + 1, End: newLast}, nil
}

func (r *postgresTicketCounterRepository) Current(ctx context.Context, exec SQLExecutor, competitionID int) (int, error) {
	executor := r.getExecutor(exec)
	query := `SELECT last_ticket_number FROM ticket_counters WHERE competition_id = $1`

	var last int
	err := executor.QueryRowContext(ctx, query, competitionID).Scan(&last)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, ErrTicketCounterNotFound
		}
		return 0, err
	}
	return last, nil
}
