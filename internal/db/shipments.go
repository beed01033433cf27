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

type ShipmentStore struct {
	pool *pgxpool.Pool
}

func NewShipmentStore(pool *pgxpool.Pool) *ShipmentStore {
	return &ShipmentStore{pool: pool}
}

// CreateAndMarkShipped persists the shipment and advances the order to
// shipped in one transaction, so a crash between the two cannot leave a
// shipped order without tracking.
func (s *ShipmentStore) CreateAndMarkShipped(ctx context.Context, orders *OrderStore, sh *models.Shipment) error {
	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, `
			INSERT INTO shipments (order_id, waybill_number, courier_name, carrier_shipment_id,
				pickup_scheduled_at, estimated_delivery)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING id, created_at
		`, sh.OrderID, sh.WaybillNumber, sh.CourierName,
			pgtype.Text{String: sh.CarrierShipmentID, Valid: sh.CarrierShipmentID != ""},
			sh.PickupScheduledAt, sh.EstimatedDelivery,
		).Scan(&sh.ID, &sh.CreatedAt)
		if err != nil {
			if isUniqueViolation(err) {
				return fmt.Errorf("shipment already exists for order: %w", ErrDuplicate)
			}
			return err
		}
		return orders.MarkShipped(ctx, tx, sh.OrderID)
	})
}

func (s *ShipmentStore) GetByOrderID(ctx context.Context, orderID uuid.UUID) (*models.Shipment, error) {
	var sh models.Shipment
	var carrierShipmentID pgtype.Text
	err := s.pool.QueryRow(ctx, `
		SELECT id, order_id, waybill_number, courier_name, carrier_shipment_id,
			pickup_scheduled_at, estimated_delivery, created_at
		FROM shipments WHERE order_id = $1
	`, orderID).Scan(&sh.ID, &sh.OrderID, &sh.WaybillNumber, &sh.CourierName,
		&carrierShipmentID, &sh.PickupScheduledAt, &sh.EstimatedDelivery, &sh.CreatedAt)
	if err != nil {
		return nil, err
	}
	if carrierShipmentID.Valid {
		sh.CarrierShipmentID = carrierShipmentID.String
	}
	return &sh, nil
}
