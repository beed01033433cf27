package db

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vedacart/vedacart/internal/models"
)

type CartStore struct {
	pool *pgxpool.Pool
}

func NewCartStore(pool *pgxpool.Pool) *CartStore {
	return &CartStore{pool: pool}
}

// Upsert adds quantity to an existing line or creates it. Variant
// identity uses IS NOT DISTINCT FROM so NULL variants match.
func (s *CartStore) Upsert(ctx context.Context, item *models.CartItem) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE cart_items SET quantity = $1
		WHERE user_id = $2 AND product_id = $3 AND variant_id IS NOT DISTINCT FROM $4
	`, item.Quantity, item.UserID, item.ProductID, item.VariantID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() > 0 {
		return nil
	}
	return s.pool.QueryRow(ctx, `
		INSERT INTO cart_items (user_id, product_id, variant_id, quantity)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`, item.UserID, item.ProductID, item.VariantID, item.Quantity).Scan(&item.ID, &item.CreatedAt)
}

func (s *CartStore) Remove(ctx context.Context, userID, itemID uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM cart_items WHERE id = $1 AND user_id = $2`, itemID, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (s *CartStore) Clear(ctx context.Context, q Querier, userID uuid.UUID) error {
	_, err := q.Exec(ctx, `DELETE FROM cart_items WHERE user_id = $1`, userID)
	return err
}

func (s *CartStore) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.CartItem, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, user_id, product_id, variant_id, quantity, created_at
		FROM cart_items WHERE user_id = $1 ORDER BY created_at
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []models.CartItem
	for rows.Next() {
		var item models.CartItem
		if err := rows.Scan(&item.ID, &item.UserID, &item.ProductID, &item.VariantID,
			&item.Quantity, &item.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

type WishlistStore struct {
	pool *pgxpool.Pool
}

func NewWishlistStore(pool *pgxpool.Pool) *WishlistStore {
	return &WishlistStore{pool: pool}
}

func (s *WishlistStore) Add(ctx context.Context, item *models.WishlistItem) error {
	return s.pool.QueryRow(ctx, `
		INSERT INTO wishlist_items (user_id, product_id)
		VALUES ($1, $2)
		ON CONFLICT (user_id, product_id) DO UPDATE SET user_id = EXCLUDED.user_id
		RETURNING id, created_at
	`, item.UserID, item.ProductID).Scan(&item.ID, &item.CreatedAt)
}

func (s *WishlistStore) Remove(ctx context.Context, userID, productID uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, `
		DELETE FROM wishlist_items WHERE user_id = $1 AND product_id = $2
	`, userID, productID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (s *WishlistStore) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.WishlistItem, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, user_id, product_id, created_at
		FROM wishlist_items WHERE user_id = $1 ORDER BY created_at DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []models.WishlistItem
	for rows.Next() {
		var item models.WishlistItem
		if err := rows.Scan(&item.ID, &item.UserID, &item.ProductID, &item.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}
