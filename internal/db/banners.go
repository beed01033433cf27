package db

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vedacart/vedacart/internal/models"
)

type BannerStore struct {
	pool *pgxpool.Pool
}

func NewBannerStore(pool *pgxpool.Pool) *BannerStore {
	return &BannerStore{pool: pool}
}

func (s *BannerStore) Create(ctx context.Context, b *models.Banner) error {
	return s.pool.QueryRow(ctx, `
		INSERT INTO banners (title, image_key, link_url, position, active)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`, b.Title, b.ImageKey, pgtype.Text{String: b.LinkURL, Valid: b.LinkURL != ""},
		b.Position, b.Active).Scan(&b.ID, &b.CreatedAt)
}

func (s *BannerStore) Update(ctx context.Context, b *models.Banner) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE banners SET title = $1, image_key = $2, link_url = $3, position = $4, active = $5
		WHERE id = $6
	`, b.Title, b.ImageKey, pgtype.Text{String: b.LinkURL, Valid: b.LinkURL != ""},
		b.Position, b.Active, b.ID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (s *BannerStore) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM banners WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (s *BannerStore) GetByID(ctx context.Context, id uuid.UUID) (*models.Banner, error) {
	return scanBanner(s.pool.QueryRow(ctx, `
		SELECT id, title, image_key, link_url, position, active, created_at FROM banners WHERE id = $1
	`, id))
}

func (s *BannerStore) List(ctx context.Context, activeOnly bool) ([]models.Banner, error) {
	query := `SELECT id, title, image_key, link_url, position, active, created_at FROM banners`
	if activeOnly {
		query += ` WHERE active`
	}
	query += ` ORDER BY position`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var banners []models.Banner
	for rows.Next() {
		b, err := scanBanner(rows)
		if err != nil {
			return nil, err
		}
		banners = append(banners, *b)
	}
	return banners, rows.Err()
}

func scanBanner(row interface{ Scan(dest ...any) error }) (*models.Banner, error) {
	var b models.Banner
	var linkURL pgtype.Text
	if err := row.Scan(&b.ID, &b.Title, &b.ImageKey, &linkURL, &b.Position, &b.Active, &b.CreatedAt); err != nil {
		return nil, err
	}
	if linkURL.Valid {
		b.LinkURL = linkURL.String
	}
	return &b, nil
}
