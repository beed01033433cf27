package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/vedacart/vedacart/internal/apperr"
	"github.com/vedacart/vedacart/internal/db"
	"github.com/vedacart/vedacart/internal/logging"
	"github.com/vedacart/vedacart/internal/models"
)

type StockService struct {
	warehouseStore *db.WarehouseStore
	stockStore     *db.StockStore
	productStore   *db.ProductStore
	logger         *slog.Logger
}

func NewStockService(warehouseStore *db.WarehouseStore, stockStore *db.StockStore, productStore *db.ProductStore, logger *slog.Logger) *StockService {
	return &StockService{
		warehouseStore: warehouseStore,
		stockStore:     stockStore,
		productStore:   productStore,
		logger:         logger,
	}
}

func (s *StockService) loggerFromContext(ctx context.Context) *slog.Logger {
	return logging.FromContext(ctx, s.logger)
}

type WarehouseInput struct {
	Name    string `json:"name" validate:"required,min=2,max=100"`
	Pincode string `json:"pincode" validate:"required,len=6,numeric"`
	Address string `json:"address" validate:"required,max=500"`
	Active  bool   `json:"active"`
}

func (s *StockService) CreateWarehouse(ctx context.Context, input WarehouseInput) (*models.Warehouse, error) {
	warehouse := &models.Warehouse{
		Name:    input.Name,
		Pincode: input.Pincode,
		Address: input.Address,
		Active:  input.Active,
	}
	if err := s.warehouseStore.Create(ctx, warehouse); err != nil {
		return nil, fmt.Errorf("failed to create warehouse: %w", err)
	}
	return warehouse, nil
}

func (s *StockService) UpdateWarehouse(ctx context.Context, warehouse *models.Warehouse) error {
	if err := s.warehouseStore.Update(ctx, warehouse); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperr.New(apperr.KindNotFound, "warehouse not found")
		}
		return fmt.Errorf("failed to update warehouse: %w", err)
	}
	return nil
}

func (s *StockService) ListWarehouses(ctx context.Context) ([]models.Warehouse, error) {
	warehouses, err := s.warehouseStore.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list warehouses: %w", err)
	}
	return warehouses, nil
}

type StockInput struct {
	ProductID         uuid.UUID  `json:"product_id" validate:"required"`
	VariantID         *uuid.UUID `json:"variant_id,omitempty"`
	WarehouseID       uuid.UUID  `json:"warehouse_id" validate:"required"`
	LowStockThreshold int        `json:"low_stock_threshold" validate:"gte=0"`
}

// EnsureStock creates or refreshes the stock row for a (product,
// variant?, warehouse) triple. Quantity moves only through Adjust.
func (s *StockService) EnsureStock(ctx context.Context, input StockInput) (*models.Stock, error) {
	if _, err := s.productStore.GetByID(ctx, input.ProductID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.New(apperr.KindValidation, "product does not exist")
		}
		return nil, fmt.Errorf("failed to load product: %w", err)
	}
	if _, err := s.warehouseStore.GetByID(ctx, input.WarehouseID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.New(apperr.KindValidation, "warehouse does not exist")
		}
		return nil, fmt.Errorf("failed to load warehouse: %w", err)
	}

	stock := &models.Stock{
		ProductID:         input.ProductID,
		VariantID:         input.VariantID,
		WarehouseID:       input.WarehouseID,
		LowStockThreshold: input.LowStockThreshold,
	}
	if err := s.stockStore.Ensure(ctx, stock); err != nil {
		return nil, fmt.Errorf("failed to ensure stock row: %w", err)
	}
	return stock, nil
}

type AdjustmentInput struct {
	StockID uuid.UUID `json:"stock_id" validate:"required"`
	Delta   int       `json:"delta" validate:"required"`
	Reason  string    `json:"reason" validate:"required,min=3,max=200"`
}

// Adjust applies a signed delta with an audit row. The conditional
// update in the store rejects any delta that would drive quantity
// negative.
func (s *StockService) Adjust(ctx context.Context, actorID uuid.UUID, input AdjustmentInput) (*models.Stock, error) {
	adj := &models.StockAdjustment{
		StockID: input.StockID,
		Delta:   input.Delta,
		Reason:  input.Reason,
		ActorID: actorID,
	}
	if err := s.stockStore.Adjust(ctx, adj); err != nil {
		if errors.Is(err, db.ErrInsufficientStock) {
			return nil, apperr.New(apperr.KindBusiness, "adjustment would make stock negative")
		}
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.New(apperr.KindNotFound, "stock row not found")
		}
		return nil, fmt.Errorf("failed to adjust stock: %w", err)
	}

	stock, err := s.stockStore.GetByID(ctx, input.StockID)
	if err != nil {
		return nil, fmt.Errorf("failed to reload stock: %w", err)
	}

	s.loggerFromContext(ctx).Info("stock adjusted",
		"stock_id", input.StockID, "delta", input.Delta, "reason", input.Reason, "actor_id", actorID)
	return stock, nil
}

func (s *StockService) ListByWarehouse(ctx context.Context, warehouseID uuid.UUID) ([]models.Stock, error) {
	stock, err := s.stockStore.ListByWarehouse(ctx, warehouseID)
	if err != nil {
		return nil, fmt.Errorf("failed to list stock: %w", err)
	}
	return stock, nil
}

// ListLow returns rows at or below their low-stock threshold.
func (s *StockService) ListLow(ctx context.Context) ([]models.Stock, error) {
	stock, err := s.stockStore.ListLow(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list low stock: %w", err)
	}
	return stock, nil
}

func (s *StockService) ListAdjustments(ctx context.Context, stockID uuid.UUID, limit int) ([]models.StockAdjustment, error) {
	adjustments, err := s.stockStore.ListAdjustments(ctx, stockID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list adjustments: %w", err)
	}
	return adjustments, nil
}
