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
	ErrProductNotFound     = errors.New("product not found")
	ErrProductNameConflict = errors.New("product name conflict")
	ErrProductInUse        = errors.New("product cannot be deleted as it is in use")
)

type ProductRepository interface {
	Create(ctx context.Context, product *models.Product) error
	GetByID(ctx context.Context, id int) (*models.Product, error)
	GetByIDs(ctx context.Context, ids []int) (map[int]*models.Product, error)
	GetAll(ctx context.Context) ([]models.Product, error)
	Update(ctx context.Context, product *models.Product) error
	UpdateImageKey(ctx context.Context, productID int, imageKey *string) error
	Delete(ctx context.Context, id int) error
}

type postgresProductRepository struct {
	db *sql.DB
}

func NewPostgresProductRepository(db *sql.DB) ProductRepository {
	return &postgresProductRepository{db: db}
}

func (r *postgresProductRepository) Create(ctx context.Context, p *models.Product) error {
	query := `
		INSERT INTO products (name, description, market_value, image_key)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query, p.Name, p.Description, p.MarketValue, p.ImageKey).Scan(&p.ID, &p.CreatedAt)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			if pqErr.Constraint == "products_name_key" {
				return ErrProductNameConflict
			}
		}
		return err
	}
	return nil
}

func (r *postgresProductRepository) GetByID(ctx context.Context, id int) (*models.Product, error) {
	query := `SELECT id, name, description, market_value, image_key, created_at FROM products WHERE id = $1`

	var p models.Product
	err := r.db.QueryRowContext(ctx, query, id).Scan(&p.ID, &p.Name, &p.Description, &p.MarketValue, &p.ImageKey, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (r *postgresProductRepository) GetByIDs(ctx context.Context, ids []int) (map[int]*models.Product, error) {
	products := make(map[int]*models.Product, len(ids))
	if len(ids) == 0 {
		return products, nil
	}

	query := `SELECT id, name, description, market_value, image_key, created_at FROM products WHERE id = ANY($1)`
	rows, err := r.db.QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var p models.Product
		if scanErr := rows.Scan(&p.ID, &p.Name, &p.Description, &p.MarketValue, &p.ImageKey, &p.CreatedAt); scanErr != nil {
			return nil, scanErr
		}
		products[p.ID] = &p
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return products, nil
}

func (r *postgresProductRepository) GetAll(ctx context.Context) ([]models.Product, error) {
	query := `SELECT id, name, description, market_value, image_key, created_at FROM products ORDER BY name ASC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	products := make([]models.Product, 0)
	for rows.Next() {
		var p models.Product
		if scanErr := rows.Scan(&p.ID, &p.Name, &p.Description, &p.MarketValue, &p.ImageKey, &p.CreatedAt); scanErr != nil {
			return nil, scanErr
		}
		products = append(products, p)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return products, nil
}

func (r *postgresProductRepository) Update(ctx context.Context, p *models.Product) error {
	query := `UPDATE products SET name = $1, description = $2, market_value = $3 WHERE id = $4`

	result, err := r.db.ExecContext(ctx, query, p.Name, p.Description, p.MarketValue, p.ID)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			if pqErr.Constraint == "products_name_key" {
				return ErrProductNameConflict
			}
		}
		return err
	}
	return checkAffectedRows(result, ErrProductNotFound)
}

func (r *postgresProductRepository) UpdateImageKey(ctx context.Context, productID int, imageKey *string) error {
	query := `UPDATE products SET image_key = $1 WHERE id = $2`
	result, err := r.db.ExecContext(ctx, query, imageKey, productID)
	if err != nil {
		return fmt.Errorf("failed to update product image key: %w", err)
	}
	return checkAffectedRows(result, ErrProductNotFound)
}

func (r *postgresProductRepository) Delete(ctx context.Context, id int) error {
	query := `DELETE FROM products WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23503" {
			return ErrProductInUse
		}
		return err
	}
	return checkAffectedRows(result, ErrProductNotFound)
}
