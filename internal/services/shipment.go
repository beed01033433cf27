package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/getsentry/sentry-go/attribute"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/vedacart/vedacart/internal/apperr"
	"github.com/vedacart/vedacart/internal/db"
	"github.com/vedacart/vedacart/internal/logging"
	"github.com/vedacart/vedacart/internal/models"
	"github.com/vedacart/vedacart/internal/observability"
	"github.com/vedacart/vedacart/internal/shipping"
)

// shipmentOrders is the slice of the order stores the dispatcher needs;
// an interface so the scheduler loop is testable without a database.
type shipmentOrders interface {
	ListAwaitingShipment(ctx context.Context, limit int) ([]models.Order, error)
	CreateShipment(ctx context.Context, sh *models.Shipment) error
}

// storeShipmentOrders adapts the concrete stores.
type storeShipmentOrders struct {
	orders    *db.OrderStore
	shipments *db.ShipmentStore
}

func (s storeShipmentOrders) ListAwaitingShipment(ctx context.Context, limit int) ([]models.Order, error) {
	return s.orders.ListAwaitingShipment(ctx, limit)
}

func (s storeShipmentOrders) CreateShipment(ctx context.Context, sh *models.Shipment) error {
	return s.shipments.CreateAndMarkShipped(ctx, s.orders, sh)
}

type ShipmentService struct {
	store       shipmentOrders
	shipments   *db.ShipmentStore
	orderStore  *db.OrderStore
	userStore   *db.UserStore
	carrier     shipping.Carrier
	emailSender OrderEmailSender
	logger      *slog.Logger
}

func NewShipmentService(
	orderStore *db.OrderStore,
	shipmentStore *db.ShipmentStore,
	userStore *db.UserStore,
	carrier shipping.Carrier,
	emailSender OrderEmailSender,
	logger *slog.Logger,
) *ShipmentService {
	if emailSender == nil {
		emailSender = noopOrderEmailSender{}
	}

	return &ShipmentService{
		store:       storeShipmentOrders{orders: orderStore, shipments: shipmentStore},
		shipments:   shipmentStore,
		orderStore:  orderStore,
		userStore:   userStore,
		carrier:     carrier,
		emailSender: emailSender,
		logger:      logger,
	}
}

func (s *ShipmentService) loggerFromContext(ctx context.Context) *slog.Logger {
	return logging.FromContext(ctx, s.logger)
}

func (s *ShipmentService) GetForOrder(ctx context.Context, orderID, userID uuid.UUID, isAdmin bool) (*models.Shipment, error) {
	order, err := s.orderStore.GetByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.New(apperr.KindNotFound, "order not found")
		}
		return nil, fmt.Errorf("failed to load order: %w", err)
	}
	if !isAdmin && order.UserID != userID {
		return nil, apperr.New(apperr.KindNotFound, "order not found")
	}

	sh, err := s.shipments.GetByOrderID(ctx, orderID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.New(apperr.KindNotFound, "order has not shipped yet")
		}
		return nil, fmt.Errorf("failed to load shipment: %w", err)
	}
	return sh, nil
}

// DispatchBatch books shipments for a bounded batch of paid orders.
// Failures are isolated per order: a carrier error leaves that order
// untouched for the next tick and never aborts the rest of the batch.
// Returns the number of orders shipped.
func (s *ShipmentService) DispatchBatch(ctx context.Context, batchSize int) (int, error) {
	logger := s.loggerFromContext(ctx)
	meter := observability.MeterFromContext(ctx)

	orders, err := s.store.ListAwaitingShipment(ctx, batchSize)
	if err != nil {
		return 0, fmt.Errorf("failed to list orders awaiting shipment: %w", err)
	}

	shipped := 0
	for _, order := range orders {
		if err := s.dispatchOne(ctx, &order); err != nil {
			meter.Count("shipment.dispatch.failed", 1, sentry.WithAttributes(
				attribute.String("order_id", order.ID.String()),
			))
			logger.Error("failed to dispatch order, will retry next tick",
				"error", err, "order_id", order.ID, "order_number", order.OrderNumber)
			continue
		}
		shipped++
		meter.Count("shipment.dispatch.processed", 1)
	}
	return shipped, nil
}

func (s *ShipmentService) dispatchOne(ctx context.Context, order *models.Order) error {
	if order.ShippingAddress == nil {
		return fmt.Errorf("order %s has no shipping address snapshot", order.ID)
	}

	serviceable, err := s.carrier.Serviceable(ctx, order.ShippingAddress.Pincode)
	if err != nil {
		return fmt.Errorf("serviceability check failed: %w", err)
	}
	if !serviceable {
		return fmt.Errorf("carrier does not service pincode %s", order.ShippingAddress.Pincode)
	}

	req := &shipping.Request{
		OrderNumber:     fmt.Sprintf("VC-%d", order.OrderNumber),
		ShippingAddress: *order.ShippingAddress,
		AmountPaise:     order.TotalPaise,
	}
	for _, item := range order.Items {
		req.Items = append(req.Items, shipping.RequestItem{
			Name:      item.ProductName,
			SKU:       item.ProductID.String(),
			Quantity:  item.Quantity,
			UnitPaise: item.UnitPricePaise,
		})
	}

	result, err := s.carrier.CreateShipment(ctx, req)
	if err != nil {
		return fmt.Errorf("carrier booking failed: %w", err)
	}

	sh := &models.Shipment{
		OrderID:       order.ID,
		WaybillNumber: result.WaybillNumber,
		CourierName:   result.CourierName,
	}
	if !result.PickupScheduledAt.IsZero() {
		t := result.PickupScheduledAt
		sh.PickupScheduledAt = &t
	}
	if !result.EstimatedDelivery.IsZero() {
		t := result.EstimatedDelivery
		sh.EstimatedDelivery = &t
	}

	if err := s.store.CreateShipment(ctx, sh); err != nil {
		return fmt.Errorf("failed to persist shipment: %w", err)
	}

	s.loggerFromContext(ctx).Info("order shipped",
		"order_id", order.ID, "waybill", sh.WaybillNumber, "courier", sh.CourierName)
	s.notifyShipped(ctx, order, sh)
	return nil
}

func (s *ShipmentService) notifyShipped(ctx context.Context, order *models.Order, sh *models.Shipment) {
	if s.userStore == nil {
		return
	}
	logger := s.loggerFromContext(ctx)

	user, err := s.userStore.GetByID(ctx, order.UserID)
	if err != nil {
		logger.Error("failed to load user for shipment email", "error", err, "order_id", order.ID)
		return
	}
	if err := s.emailSender.SendOrderShipped(ctx, user, order, sh); err != nil {
		logger.Error("failed to send shipment email", "error", err, "order_id", order.ID)
	}
}

// Scheduler runs DispatchBatch on a fixed interval until the context is
// cancelled. Orders that keep failing are retried indefinitely; the
// failure counter metric is the alerting hook for persistent carrier
// trouble.
type Scheduler struct {
	service   *ShipmentService
	interval  time.Duration
	batchSize int
	logger    *slog.Logger
}

func NewScheduler(service *ShipmentService, interval time.Duration, batchSize int, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		service:   service,
		interval:  interval,
		batchSize: batchSize,
		logger:    logger,
	}
}

func (s *Scheduler) Run(ctx context.Context) {
	logger := s.logger.With("component", "shipment_scheduler")
	logger.Info("shipment scheduler started", "interval", s.interval, "batch_size", s.batchSize)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("shipment scheduler stopped")
			return
		case <-ticker.C:
			shipped, err := s.service.DispatchBatch(ctx, s.batchSize)
			if err != nil {
				logger.Error("shipment batch failed", "error", err)
				continue
			}
			if shipped > 0 {
				logger.Info("shipment batch complete", "shipped", shipped)
			}
		}
	}
}
