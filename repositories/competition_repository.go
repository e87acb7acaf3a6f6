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
	ErrCompetitionNotFound      = errors.New("competition not found")
	ErrCompetitionTitleConflict = errors.New("competition title conflict")
	ErrCompetitionInUse         = errors.New("competition is in use (entries or winning tickets exist)")
)

type ListCompetitionsFilter struct {
	Type   *models.CompetitionType
	Status *models.CompetitionStatus
	Limit  int
	Offset int
}

type CompetitionRepository interface {
	Create(ctx context.Context, exec SQLExecutor, competition *models.Competition) error
	GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.Competition, error)
	List(ctx context.Context, filter ListCompetitionsFilter) ([]models.Competition, error)
	Update(ctx context.Context, competition *models.Competition) error
	UpdateStatus(ctx context.Context, exec SQLExecutor, id int, status models.CompetitionStatus) error
	UpdateImageKey(ctx context.Context, competitionID int, imageKey *string) error
	IncrementTicketsSold(ctx context.Context, exec SQLExecutor, id int, count int) error
	Delete(ctx context.Context, id int) error
	GetCompetitionsForAutoStatusUpdate(ctx context.Context, exec SQLExecutor) ([]*models.Competition, error)
}

type postgresCompetitionRepository struct {
	db *sql.DB
}

func NewPostgresCompetitionRepository(db *sql.DB) CompetitionRepository {
	return &postgresCompetitionRepository{db: db}
}

func (r *postgresCompetitionRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

const competitionColumns = `
	id, title, description, type, status, ticket_price, total_tickets,
	tickets_sold, starts_at, ends_at, created_at, image_key`

func scanCompetition(row interface {
	Scan(dest ...interface{}) error
}, c *models.Competition) error {
	return row.Scan(
		&c.ID, &c.Title, &c.Description, &c.Type, &c.Status, &c.TicketPrice, &c.TotalTickets,
		&c.TicketsSold, &c.StartsAt, &c.EndsAt, &c.CreatedAt, &c.ImageKey,
	)
}

// Create inserts the competition together with its ticket counter row, so an
// allocation can always assume the counter exists.
func (r *postgresCompetitionRepository) Create(ctx context.Context, exec SQLExecutor, c *models.Competition) error {
	executor := r.getExecutor(exec)
	query := `
		INSERT INTO competitions (title, description, type, status, ticket_price, total_tickets, starts_at, ends_at, image_key)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, tickets_sold, created_at`

	err := executor.QueryRowContext(ctx, query,
		c.Title, c.Description, c.Type, c.Status, c.TicketPrice, c.TotalTickets, c.StartsAt, c.EndsAt, c.ImageKey,
	).Scan(&c.ID, &c.TicketsSold, &c.CreatedAt)
	if err != nil {
		return r.handleCompetitionError(err)
	}

	_, err = executor.ExecContext(ctx,
		`INSERT INTO ticket_counters (competition_id, last_ticket_number) VALUES ($1, 0)`, c.ID)
	if err != nil {
		return fmt.Errorf("failed to create ticket counter for competition %d: %w", c.ID, err)
	}
	return nil
}

func (r *postgresCompetitionRepository) GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.Competition, error) {
	executor := r.getExecutor(exec)
	query := `SELECT` + competitionColumns + ` FROM competitions WHERE id = $1`

	c := &models.Competition{}
	err := scanCompetition(executor.QueryRowContext(ctx, query, id), c)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCompetitionNotFound
		}
		return nil, err
	}
	return c, nil
}

func (r *postgresCompetitionRepository) List(ctx context.Context, filter ListCompetitionsFilter) ([]models.Competition, error) {
	executor := r.getExecutor(nil)
	query := `SELECT` + competitionColumns + ` FROM competitions WHERE 1=1`

	args := []interface{}{}
	argID := 1

	if filter.Type != nil {
		query += fmt.Sprintf(" AND type = $%d", argID)
		args = append(args, *filter.Type)
		argID++
	}
	if filter.Status != nil {
		query += fmt.Sprintf(" AND status = $%d", argID)
		args = append(args, *filter.Status)
		argID++
	}

	query += " ORDER BY ends_at ASC, created_at DESC"

	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argID)
		args = append(args, filter.Limit)
		argID++
	}
	if filter.Offset > 0 {
		query += fmt.Sprintf(" OFFSET $%d", argID)
		args = append(args, filter.Offset)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	competitions := make([]models.Competition, 0)
	for rows.Next() {
		var c models.Competition
		if scanErr := scanCompetition(rows, &c); scanErr != nil {
			return nil, scanErr
		}
		competitions = append(competitions, c)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return competitions, nil
}

func (r *postgresCompetitionRepository) Update(ctx context.Context, c *models.Competition) error {
	executor := r.getExecutor(nil)
	// tickets_sold is only ever moved by IncrementTicketsSold.
	query := `
		UPDATE competitions SET
			title = $1,
			description = $2,
			status = $3,
			ticket_price = $4,
			total_tickets = $5,
			starts_at = $6,
			ends_at = $7
		WHERE id = $8`

	result, err := executor.ExecContext(ctx, query,
		c.Title, c.Description, c.Status, c.TicketPrice, c.TotalTickets, c.StartsAt, c.EndsAt, c.ID,
	)
	if err != nil {
		return r.handleCompetitionError(err)
	}
	return checkAffectedRows(result, ErrCompetitionNotFound)
}

func (r *postgresCompetitionRepository) UpdateStatus(ctx context.Context, exec SQLExecutor, id int, status models.CompetitionStatus) error {
	executor := r.getExecutor(exec)
	query := `UPDATE competitions SET status = $1 WHERE id = $2`
	result, err := executor.ExecContext(ctx, query, status, id)
	if err != nil {
		return r.handleCompetitionError(err)
	}
	return checkAffectedRows(result, ErrCompetitionNotFound)
}

func (r *postgresCompetitionRepository) UpdateImageKey(ctx context.Context, competitionID int, imageKey *string) error {
	executor := r.getExecutor(nil)
	query := `UPDATE competitions SET image_key = $1 WHERE id = $2`
	result, err := executor.ExecContext(ctx, query, imageKey, competitionID)
	if err != nil {
		return fmt.Errorf("failed to update competition image key: %w", err)
	}
	return checkAffectedRows(result, ErrCompetitionNotFound)
}

// IncrementTicketsSold bumps the running sold counter; must run on the same
// executor as the allocation so a rollback undoes both.
func (r *postgresCompetitionRepository) IncrementTicketsSold(ctx context.Context, exec SQLExecutor, id int, count int) error {
	executor := r.getExecutor(exec)
	query := `UPDATE competitions SET tickets_sold = tickets_sold + $1 WHERE id = $2`
	result, err := executor.ExecContext(ctx, query, count, id)
	if err != nil {
		return fmt.Errorf("failed to increment tickets_sold for competition %d: %w", id, err)
	}
	return checkAffectedRows(result, ErrCompetitionNotFound)
}

func (r *postgresCompetitionRepository) Delete(ctx context.Context, id int) error {
	executor := r.getExecutor(nil)
	query := `DELETE FROM competitions WHERE id = $1`
	result, err := executor.ExecContext(ctx, query, id)
	if err != nil {
		return r.handleCompetitionError(err)
	}
	return checkAffectedRows(result, ErrCompetitionNotFound)
}

// GetCompetitionsForAutoStatusUpdate returns competitions whose status no
// longer matches their dates: drafts past starts_at and active ones past
// ends_at or sold out.
func (r *postgresCompetitionRepository) GetCompetitionsForAutoStatusUpdate(ctx context.Context, exec SQLExecutor) ([]*models.Competition, error) {
	executor := r.getExecutor(exec)
	query := `SELECT` + competitionColumns + `
		FROM competitions
		WHERE (status = $1 AND starts_at <= NOW())
		   OR (status = $2 AND (ends_at <= NOW() OR tickets_sold >= total_tickets))`

	rows, err := executor.QueryContext(ctx, query, models.CompetitionStatusDraft, models.CompetitionStatusActive)
	if err != nil {
		return nil, fmt.Errorf("failed to query competitions for auto status update: %w", err)
	}
	defer rows.Close()

	var competitions []*models.Competition
	for rows.Next() {
		var c models.Competition
		if scanErr := scanCompetition(rows, &c); scanErr != nil {
			return nil, fmt.Errorf("failed to scan competition for auto status update: %w", scanErr)
		}
		competitions = append(competitions, &c)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return competitions, nil
}

func (r *postgresCompetitionRepository) handleCompetitionError(err error) error {
	if err == nil {
		return nil
	}
	if pqErr, ok := err.(*pq.Error); ok {
		switch pqErr.Code {
		case "23505":
			if pqErr.Constraint == "competitions_title_key" {
				return ErrCompetitionTitleConflict
			}
		case "23503":
			// FK violations from entries/winning_tickets pointing at the
			// competition when deleting it.
			return ErrCompetitionInUse
		}
	}
	return err
}
