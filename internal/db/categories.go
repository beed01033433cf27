package db

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vedacart/vedacart/internal/models"
)

type CategoryStore struct {
	pool *pgxpool.Pool
}

func NewCategoryStore(pool *pgxpool.Pool) *CategoryStore {
	return &CategoryStore{pool: pool}
}

func (s *CategoryStore) Create(ctx context.Context, c *models.Category) error {
	err := s.pool.QueryRow(ctx, `
		INSERT INTO categories (name, slug, parent_id, active)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`, c.Name, c.Slug, c.ParentID, c.Active).Scan(&c.ID, &c.CreatedAt)
	if isUniqueViolation(err) {
		return fmt.Errorf("category slug already exists: %w", ErrDuplicate)
	}
	return err
}

func (s *CategoryStore) Update(ctx context.Context, c *models.Category) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE categories SET name = $1, slug = $2, parent_id = $3, active = $4 WHERE id = $5
	`, c.Name, c.Slug, c.ParentID, c.Active, c.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("category slug already exists: %w", ErrDuplicate)
		}
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (s *CategoryStore) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, `UPDATE categories SET active = false WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (s *CategoryStore) GetByID(ctx context.Context, id uuid.UUID) (*models.Category, error) {
	var c models.Category
	err := s.pool.QueryRow(ctx, `
		SELECT id, name, slug, parent_id, active, created_at FROM categories WHERE id = $1
	`, id).Scan(&c.ID, &c.Name, &c.Slug, &c.ParentID, &c.Active, &c.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *CategoryStore) List(ctx context.Context, activeOnly bool) ([]models.Category, error) {
	query := `SELECT id, name, slug, parent_id, active, created_at FROM categories`
	if activeOnly {
		query += ` WHERE active`
	}
	query += ` ORDER BY name`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var categories []models.Category
	for rows.Next() {
		var c models.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Slug, &c.ParentID, &c.Active, &c.CreatedAt); err != nil {
			return nil, err
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}
