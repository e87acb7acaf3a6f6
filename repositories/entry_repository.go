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
	ErrEntryNotFound           = errors.New("competition entry not found")
	ErrEntryCompetitionInvalid = errors.New("entry competition conflict or invalid")
	ErrEntryUserInvalid        = errors.New("entry user conflict or invalid")
)

type EntryRepository interface {
	Create(ctx context.Context, exec SQLExecutor, entry *models.CompetitionEntry) error
	GetByID(ctx context.Context, id int) (*models.CompetitionEntry, error)
	ListByUser(ctx context.Context, userID int, limit, offset int) ([]*models.CompetitionEntry, error)
	ListByCompetition(ctx context.Context, competitionID int, limit, offset int) ([]*models.CompetitionEntry, error)
}

type postgresEntryRepository struct {
	db *sql.DB
}

func NewPostgresEntryRepository(db *sql.DB) EntryRepository {
	return &postgresEntryRepository{db: db}
}

func (r *postgresEntryRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresEntryRepository) Create(ctx context.Context, exec SQLExecutor, e *models.CompetitionEntry) error {
	executor := r.getExecutor(exec)
	query := `
		INSERT INTO competition_entries (competition_id, user_id, order_id, wallet_transaction_id, payment_transaction_id, tickets)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at`

	err := executor.QueryRowContext(ctx, query,
		e.CompetitionID, e.UserID, e.OrderID, e.WalletTransactionID, e.PaymentTransactionID, pq.Array(e.Tickets),
	).Scan(&e.ID, &e.CreatedAt)

	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23503" {
			switch pqErr.Constraint {
			case "competition_entries_competition_id_fkey":
				return ErrEntryCompetitionInvalid
			case "competition_entries_user_id_fkey":
				return ErrEntryUserInvalid
			}
		}
		return fmt.Errorf("failed to create competition entry: %w", err)
	}
	return nil
}

func (r *postgresEntryRepository) GetByID(ctx context.Context, id int) (*models.CompetitionEntry, error) {
	query := `
		SELECT id, competition_id, user_id, order_id, wallet_transaction_id, payment_transaction_id, tickets, created_at
		FROM competition_entries
		WHERE id = $1`

	e := &models.CompetitionEntry{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&e.ID, &e.CompetitionID, &e.UserID, &e.OrderID, &e.WalletTransactionID, &e.PaymentTransactionID,
		pq.Array(&e.Tickets), &e.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrEntryNotFound
		}
		return nil, err
	}
	return e, nil
}

func (r *postgresEntryRepository) ListByUser(ctx context.Context, userID int, limit, offset int) ([]*models.CompetitionEntry, error) {
	query := `
		SELECT id, competition_id, user_id, order_id, wallet_transaction_id, payment_transaction_id, tickets, created_at
		FROM competition_entries
		WHERE user_id = $1
		ORDER BY created_at DESC`
	args := []interface{}{userID}
	argID := 2
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argID)
		args = append(args, limit)
		argID++
	}
	if offset > 0 {
		query += fmt.Sprintf(" OFFSET $%d", argID)
		args = append(args, offset)
	}
	return r.list(ctx, query, args...)
}

func (r *postgresEntryRepository) ListByCompetition(ctx context.Context, competitionID int, limit, offset int) ([]*models.CompetitionEntry, error) {
	query := `
		SELECT id, competition_id, user_id, order_id, wallet_transaction_id, payment_transaction_id, tickets, created_at
		FROM competition_entries
		WHERE competition_id = $1
		ORDER BY created_at DESC`
	args := []interface{}{competitionID}
	argID := 2
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argID)
		args = append(args, limit)
		argID++
	}
	if offset > 0 {
		query += fmt.Sprintf(" OFFSET $%d", argID)
		args = append(args, offset)
	}
	return r.list(ctx, query, args...)
}

func (r *postgresEntryRepository) list(ctx context.Context, query string, args ...interface{}) ([]*models.CompetitionEntry, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := make([]*models.CompetitionEntry, 0)
	for rows.Next() {
		var e models.CompetitionEntry
		if scanErr := rows.Scan(
			&e.ID, &e.CompetitionID, &e.UserID, &e.OrderID, &e.WalletTransactionID, &e.PaymentTransactionID,
			pq.Array(&e.Tickets), &e.CreatedAt,
		); scanErr != nil {
			return nil, scanErr
		}
		entries = append(entries, &e)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}
