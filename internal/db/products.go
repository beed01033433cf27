package db

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vedacart/vedacart/internal/models"
)

type ProductStore struct {
	pool *pgxpool.Pool
}

func NewProductStore(pool *pgxpool.Pool) *ProductStore {
	return &ProductStore{pool: pool}
}

const productColumns = `id, category_id, sku, name, description, price_paise, weight_grams,
	image_keys, active, created_at, updated_at`

func (s *ProductStore) Create(ctx context.Context, p *models.Product) error {
	err := s.pool.QueryRow(ctx, `
		INSERT INTO products (category_id, sku, name, description, price_paise, weight_grams, image_keys, active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at
	`, p.CategoryID, p.SKU, p.Name, pgtype.Text{String: p.Description, Valid: p.Description != ""},
		p.PricePaise, p.WeightGrams, p.ImageKeys, p.Active,
	).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	if isUniqueViolation(err) {
		return fmt.Errorf("product sku already exists: %w", ErrDuplicate)
	}
	return err
}

func (s *ProductStore) Update(ctx context.Context, p *models.Product) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE products
		SET category_id = $1, sku = $2, name = $3, description = $4, price_paise = $5,
			weight_grams = $6, image_keys = $7, active = $8, updated_at = NOW()
		WHERE id = $9
	`, p.CategoryID, p.SKU, p.Name, pgtype.Text{String: p.Description, Valid: p.Description != ""},
		p.PricePaise, p.WeightGrams, p.ImageKeys, p.Active, p.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("product sku already exists: %w", ErrDuplicate)
		}
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (s *ProductStore) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, `UPDATE products SET active = false, updated_at = NOW() WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (s *ProductStore) GetByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	p, err := s.scanProduct(s.pool.QueryRow(ctx, `
		SELECT `+productColumns+` FROM products WHERE id = $1
	`, id))
	if err != nil {
		return nil, err
	}
	variants, err := s.listVariants(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	p.Variants = variants
	return p, nil
}

func (s *ProductStore) List(ctx context.Context, categoryID *uuid.UUID, activeOnly bool) ([]models.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products`
	args := []any{}
	where := ""
	if categoryID != nil {
		args = append(args, *categoryID)
		where = ` WHERE category_id = $1`
	}
	if activeOnly {
		if where == "" {
			where = ` WHERE active`
		} else {
			where += ` AND active`
		}
	}
	query += where + ` ORDER BY name`

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var products []models.Product
	for rows.Next() {
		p, err := s.scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, *p)
	}
	return products, rows.Err()
}

func (s *ProductStore) scanProduct(row interface{ Scan(dest ...any) error }) (*models.Product, error) {
	var p models.Product
	var description pgtype.Text
	if err := row.Scan(&p.ID, &p.CategoryID, &p.SKU, &p.Name, &description,
		&p.PricePaise, &p.WeightGrams, &p.ImageKeys, &p.Active, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	if description.Valid {
		p.Description = description.String
	}
	return &p, nil
}

func (s *ProductStore) CreateVariant(ctx context.Context, v *models.Variant) error {
	err := s.pool.QueryRow(ctx, `
		INSERT INTO variants (product_id, sku, name, price_paise, active)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`, v.ProductID, v.SKU, v.Name, v.PricePaise, v.Active).Scan(&v.ID)
	if isUniqueViolation(err) {
		return fmt.Errorf("variant sku already exists: %w", ErrDuplicate)
	}
	return err
}

func (s *ProductStore) UpdateVariant(ctx context.Context, v *models.Variant) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE variants SET sku = $1, name = $2, price_paise = $3, active = $4
		WHERE id = $5 AND product_id = $6
	`, v.SKU, v.Name, v.PricePaise, v.Active, v.ID, v.ProductID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (s *ProductStore) GetVariant(ctx context.Context, id uuid.UUID) (*models.Variant, error) {
	var v models.Variant
	err := s.pool.QueryRow(ctx, `
		SELECT id, product_id, sku, name, price_paise, active FROM variants WHERE id = $1
	`, id).Scan(&v.ID, &v.ProductID, &v.SKU, &v.Name, &v.PricePaise, &v.Active)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func (s *ProductStore) listVariants(ctx context.Context, productID uuid.UUID) ([]models.Variant, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, product_id, sku, name, price_paise, active FROM variants WHERE product_id = $1 ORDER BY name
	`, productID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var variants []models.Variant
	for rows.Next() {
		var v models.Variant
		if err := rows.Scan(&v.ID, &v.ProductID, &v.SKU, &v.Name, &v.PricePaise, &v.Active); err != nil {
			return nil, err
		}
		variants = append(variants, v)
	}
	return variants, rows.Err()
}
