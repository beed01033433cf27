package db

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vedacart/vedacart/internal/models"
)

type AddressStore struct {
	pool *pgxpool.Pool
}

func NewAddressStore(pool *pgxpool.Pool) *AddressStore {
	return &AddressStore{pool: pool}
}

const addressColumns = `id, user_id, name, phone, line1, line2, city, state, pincode, country,
	is_default_shipping, is_default_billing, created_at`

func (s *AddressStore) Create(ctx context.Context, a *models.Address) error {
	return s.pool.QueryRow(ctx, `
		INSERT INTO addresses (user_id, name, phone, line1, line2, city, state, pincode, country,
			is_default_shipping, is_default_billing)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id, created_at
	`, a.UserID, a.Name, a.Phone, a.Line1, pgtype.Text{String: a.Line2, Valid: a.Line2 != ""},
		a.City, a.State, a.Pincode, a.Country, a.IsDefaultShipping, a.IsDefaultBilling,
	).Scan(&a.ID, &a.CreatedAt)
}

func (s *AddressStore) Update(ctx context.Context, a *models.Address) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE addresses
		SET name = $1, phone = $2, line1 = $3, line2 = $4, city = $5, state = $6,
			pincode = $7, country = $8, is_default_shipping = $9, is_default_billing = $10
		WHERE id = $11 AND user_id = $12
	`, a.Name, a.Phone, a.Line1, pgtype.Text{String: a.Line2, Valid: a.Line2 != ""},
		a.City, a.State, a.Pincode, a.Country, a.IsDefaultShipping, a.IsDefaultBilling,
		a.ID, a.UserID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (s *AddressStore) Delete(ctx context.Context, id, userID uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM addresses WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (s *AddressStore) GetForUser(ctx context.Context, id, userID uuid.UUID) (*models.Address, error) {
	return scanAddress(s.pool.QueryRow(ctx, `
		SELECT `+addressColumns+` FROM addresses WHERE id = $1 AND user_id = $2
	`, id, userID))
}

func (s *AddressStore) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Address, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+addressColumns+` FROM addresses WHERE user_id = $1 ORDER BY created_at DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var addresses []models.Address
	for rows.Next() {
		a, err := scanAddress(rows)
		if err != nil {
			return nil, err
		}
		addresses = append(addresses, *a)
	}
	return addresses, rows.Err()
}

func scanAddress(row interface{ Scan(dest ...any) error }) (*models.Address, error) {
	var a models.Address
	var line2 pgtype.Text
	if err := row.Scan(&a.ID, &a.UserID, &a.Name, &a.Phone, &a.Line1, &line2,
		&a.City, &a.State, &a.Pincode, &a.Country,
		&a.IsDefaultShipping, &a.IsDefaultBilling, &a.CreatedAt); err != nil {
		return nil, err
	}
	if line2.Valid {
		a.Line2 = line2.String
	}
	return &a, nil
}
