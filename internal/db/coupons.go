package db

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vedacart/vedacart/internal/models"
)

type CouponStore struct {
	pool *pgxpool.Pool
}

func NewCouponStore(pool *pgxpool.Pool) *CouponStore {
	return &CouponStore{pool: pool}
}

const couponColumns = `id, code, type, value, min_order_paise, max_usage, per_user_limit,
	valid_from, valid_until, active, usage_count, created_at`

func (s *CouponStore) Create(ctx context.Context, c *models.Coupon) error {
	err := s.pool.QueryRow(ctx, `
		INSERT INTO coupons (code, type, value, min_order_paise, max_usage, per_user_limit,
			valid_from, valid_until, active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, usage_count, created_at
	`, strings.ToUpper(c.Code), c.Type, c.Value, c.MinOrderPaise, c.MaxUsage, c.PerUserLimit,
		c.ValidFrom, c.ValidUntil, c.Active,
	).Scan(&c.ID, &c.UsageCount, &c.CreatedAt)
	if isUniqueViolation(err) {
		return fmt.Errorf("coupon code already exists: %w", ErrDuplicate)
	}
	return err
}

func (s *CouponStore) Update(ctx context.Context, c *models.Coupon) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE coupons
		SET type = $1, value = $2, min_order_paise = $3, max_usage = $4, per_user_limit = $5,
			valid_from = $6, valid_until = $7, active = $8
		WHERE id = $9
	`, c.Type, c.Value, c.MinOrderPaise, c.MaxUsage, c.PerUserLimit,
		c.ValidFrom, c.ValidUntil, c.Active, c.ID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (s *CouponStore) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, `UPDATE coupons SET active = false WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (s *CouponStore) GetByCode(ctx context.Context, code string) (*models.Coupon, error) {
	return scanCoupon(s.pool.QueryRow(ctx, `
		SELECT `+couponColumns+` FROM coupons WHERE code = $1
	`, strings.ToUpper(strings.TrimSpace(code))))
}

func (s *CouponStore) List(ctx context.Context) ([]models.Coupon, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+couponColumns+` FROM coupons ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var coupons []models.Coupon
	for rows.Next() {
		c, err := scanCoupon(rows)
		if err != nil {
			return nil, err
		}
		coupons = append(coupons, *c)
	}
	return coupons, rows.Err()
}

// CountRedemptions returns how many times a user has redeemed a coupon.
func (s *CouponStore) CountRedemptions(ctx context.Context, couponID, userID uuid.UUID) (int, error) {
	var count int
	err := s.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM coupon_redemptions WHERE coupon_id = $1 AND user_id = $2
	`, couponID, userID).Scan(&count)
	return count, err
}

func scanCoupon(row interface{ Scan(dest ...any) error }) (*models.Coupon, error) {
	var c models.Coupon
	if err := row.Scan(&c.ID, &c.Code, &c.Type, &c.Value, &c.MinOrderPaise,
		&c.MaxUsage, &c.PerUserLimit, &c.ValidFrom, &c.ValidUntil,
		&c.Active, &c.UsageCount, &c.CreatedAt); err != nil {
		return nil, err
	}
	return &c, nil
}
