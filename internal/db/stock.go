package db

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vedacart/vedacart/internal/models"
)

type WarehouseStore struct {
	pool *pgxpool.Pool
}

func NewWarehouseStore(pool *pgxpool.Pool) *WarehouseStore {
	return &WarehouseStore{pool: pool}
}

func (s *WarehouseStore) Create(ctx context.Context, w *models.Warehouse) error {
	return s.pool.QueryRow(ctx, `
		INSERT INTO warehouses (name, pincode, address, active)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`, w.Name, w.Pincode, w.Address, w.Active).Scan(&w.ID, &w.CreatedAt)
}

func (s *WarehouseStore) Update(ctx context.Context, w *models.Warehouse) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE warehouses SET name = $1, pincode = $2, address = $3, active = $4 WHERE id = $5
	`, w.Name, w.Pincode, w.Address, w.Active, w.ID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (s *WarehouseStore) GetByID(ctx context.Context, id uuid.UUID) (*models.Warehouse, error) {
	var w models.Warehouse
	err := s.pool.QueryRow(ctx, `
		SELECT id, name, pincode, address, active, created_at FROM warehouses WHERE id = $1
	`, id).Scan(&w.ID, &w.Name, &w.Pincode, &w.Address, &w.Active, &w.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &w, nil
}

func (s *WarehouseStore) List(ctx context.Context) ([]models.Warehouse, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, name, pincode, address, active, created_at FROM warehouses ORDER BY name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var warehouses []models.Warehouse
	for rows.Next() {
		var w models.Warehouse
		if err := rows.Scan(&w.ID, &w.Name, &w.Pincode, &w.Address, &w.Active, &w.CreatedAt); err != nil {
			return nil, err
		}
		warehouses = append(warehouses, w)
	}
	return warehouses, rows.Err()
}

type StockStore struct {
	pool *pgxpool.Pool
}

func NewStockStore(pool *pgxpool.Pool) *StockStore {
	return &StockStore{pool: pool}
}

const stockColumns = `id, product_id, variant_id, warehouse_id, quantity, low_stock_threshold, updated_at`

// Ensure creates the stock row for a (product, variant?, warehouse)
// triple if it does not exist yet.
func (s *StockStore) Ensure(ctx context.Context, st *models.Stock) error {
	return s.pool.QueryRow(ctx, `
		INSERT INTO stock (product_id, variant_id, warehouse_id, quantity, low_stock_threshold)
		VALUES ($1, $2, $3, 0, $4)
		ON CONFLICT (product_id, variant_id, warehouse_id)
		DO UPDATE SET low_stock_threshold = EXCLUDED.low_stock_threshold
		RETURNING id, quantity, updated_at
	`, st.ProductID, st.VariantID, st.WarehouseID, st.LowStockThreshold,
	).Scan(&st.ID, &st.Quantity, &st.UpdatedAt)
}

func (s *StockStore) GetByID(ctx context.Context, id uuid.UUID) (*models.Stock, error) {
	return scanStock(s.pool.QueryRow(ctx, `
		SELECT `+stockColumns+` FROM stock WHERE id = $1
	`, id))
}

// FindFulfillable picks the stock row with the most quantity for a
// product/variant that can cover the requested amount.
func (s *StockStore) FindFulfillable(ctx context.Context, productID uuid.UUID, variantID *uuid.UUID, quantity int) (*models.Stock, error) {
	return scanStock(s.pool.QueryRow(ctx, `
		SELECT `+stockColumns+` FROM stock
		WHERE product_id = $1 AND variant_id IS NOT DISTINCT FROM $2 AND quantity >= $3
		ORDER BY quantity DESC
		LIMIT 1
	`, productID, variantID, quantity))
}

// Adjust applies a signed delta with a guard against going negative and
// writes the audit row in the same transaction.
func (s *StockStore) Adjust(ctx context.Context, adj *models.StockAdjustment) error {
	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
			UPDATE stock SET quantity = quantity + $1, updated_at = NOW()
			WHERE id = $2 AND quantity + $1 >= 0
		`, adj.Delta, adj.StockID)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return fmt.Errorf("adjustment would drive quantity negative: %w", ErrInsufficientStock)
		}
		return tx.QueryRow(ctx, `
			INSERT INTO stock_adjustments (stock_id, delta, reason, actor_id)
			VALUES ($1, $2, $3, $4)
			RETURNING id, created_at
		`, adj.StockID, adj.Delta, adj.Reason, adj.ActorID).Scan(&adj.ID, &adj.CreatedAt)
	})
}

func (s *StockStore) ListByWarehouse(ctx context.Context, warehouseID uuid.UUID) ([]models.Stock, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+stockColumns+` FROM stock WHERE warehouse_id = $1 ORDER BY updated_at DESC
	`, warehouseID)
	if err != nil {
		return nil, err
	}
	return collectStock(rows)
}

// ListLow returns stock rows at or below their low-stock threshold.
func (s *StockStore) ListLow(ctx context.Context) ([]models.Stock, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+stockColumns+` FROM stock WHERE quantity <= low_stock_threshold ORDER BY quantity
	`)
	if err != nil {
		return nil, err
	}
	return collectStock(rows)
}

func (s *StockStore) ListAdjustments(ctx context.Context, stockID uuid.UUID, limit int) ([]models.StockAdjustment, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.pool.Query(ctx, `
		SELECT id, stock_id, delta, reason, actor_id, created_at
		FROM stock_adjustments WHERE stock_id = $1 ORDER BY created_at DESC LIMIT $2
	`, stockID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var adjustments []models.StockAdjustment
	for rows.Next() {
		var adj models.StockAdjustment
		if err := rows.Scan(&adj.ID, &adj.StockID, &adj.Delta, &adj.Reason, &adj.ActorID, &adj.CreatedAt); err != nil {
			return nil, err
		}
		adjustments = append(adjustments, adj)
	}
	return adjustments, rows.Err()
}

func collectStock(rows pgx.Rows) ([]models.Stock, error) {
	defer rows.Close()
	var stocks []models.Stock
	for rows.Next() {
		st, err := scanStock(rows)
		if err != nil {
			return nil, err
		}
		stocks = append(stocks, *st)
	}
	return stocks, rows.Err()
}

func scanStock(row interface{ Scan(dest ...any) error }) (*models.Stock, error) {
	var st models.Stock
	if err := row.Scan(&st.ID, &st.ProductID, &st.VariantID, &st.WarehouseID,
		&st.Quantity, &st.LowStockThreshold, &st.UpdatedAt); err != nil {
		return nil, err
	}
	return &st, nil
}
