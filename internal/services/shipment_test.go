package services

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/google/uuid"

	"github.com/vedacart/vedacart/internal/models"
	"github.com/vedacart/vedacart/internal/shipping"
)

type fakeShipmentOrders struct {
	awaiting []models.Order
	created  []*models.Shipment
}

func (f *fakeShipmentOrders) ListAwaitingShipment(_ context.Context, limit int) ([]models.Order, error) {
	if len(f.awaiting) > limit {
		return f.awaiting[:limit], nil
	}
	return f.awaiting, nil
}

func (f *fakeShipmentOrders) CreateShipment(_ context.Context, sh *models.Shipment) error {
	f.created = append(f.created, sh)
	return nil
}

type fakeCarrier struct {
	failOrders    map[string]bool
	unserviceable map[string]bool
	booked        []string
}

func (f *fakeCarrier) Name() string { return "fake" }

func (f *fakeCarrier) Serviceable(_ context.Context, pincode string) (bool, error) {
	return !f.unserviceable[pincode], nil
}

func (f *fakeCarrier) CreateShipment(_ context.Context, req *shipping.Request) (*shipping.Result, error) {
	if f.failOrders[req.OrderNumber] {
		return nil, errors.New("carrier unavailable")
	}
	f.booked = append(f.booked, req.OrderNumber)
	return &shipping.Result{
		WaybillNumber: "AWB-" + req.OrderNumber,
		CourierName:   "Delhivery",
	}, nil
}

func paidOrder(number int64) models.Order {
	return models.Order{
		ID:          uuid.New(),
		UserID:      uuid.New(),
		OrderNumber: number,
		Status:      models.OrderProcessing,
		TotalPaise:  50_000,
		ShippingAddress: &models.AddressSnapshot{
			Name:    "Asha Rao",
			Phone:   "9876543210",
			Line1:   "14 MG Road",
			City:    "Bengaluru",
			State:   "Karnataka",
			Pincode: "560001",
			Country: "India",
		},
		Items: []models.OrderItem{{
			ID:             uuid.New(),
			ProductID:      uuid.New(),
			ProductName:    "Ashwagandha Capsules",
			Quantity:       2,
			UnitPricePaise: 25_000,
		}},
	}
}

func TestDispatchBatchIsolatesFailures(t *testing.T) {
	t.Parallel()

	failing := paidOrder(1001)
	succeeding := paidOrder(1002)
	store := &fakeShipmentOrders{awaiting: []models.Order{failing, succeeding}}
	carrier := &fakeCarrier{failOrders: map[string]bool{"VC-1001": true}}

	service := &ShipmentService{
		store:       store,
		carrier:     carrier,
		emailSender: noopOrderEmailSender{},
		logger:      slog.Default(),
	}

	shipped, err := service.DispatchBatch(context.Background(), 10)
	if err != nil {
		t.Fatalf("DispatchBatch() error = %v", err)
	}
	if shipped != 1 {
		t.Errorf("shipped = %d, want 1", shipped)
	}
	if len(store.created) != 1 {
		t.Fatalf("created %d shipments, want 1", len(store.created))
	}
	if store.created[0].OrderID != succeeding.ID {
		t.Errorf("shipped wrong order: %s", store.created[0].OrderID)
	}
	if store.created[0].WaybillNumber != "AWB-VC-1002" {
		t.Errorf("waybill = %q", store.created[0].WaybillNumber)
	}

	// The failing order is still queued for the next tick.
	carrier.failOrders = nil
	shipped, err = service.DispatchBatch(context.Background(), 10)
	if err != nil {
		t.Fatalf("DispatchBatch() retry error = %v", err)
	}
	if shipped != 2 {
		t.Errorf("retry shipped = %d, want 2", shipped)
	}
}

func TestDispatchBatchRespectsBatchSize(t *testing.T) {
	t.Parallel()

	store := &fakeShipmentOrders{awaiting: []models.Order{paidOrder(1), paidOrder(2), paidOrder(3)}}
	service := &ShipmentService{
		store:       store,
		carrier:     &fakeCarrier{},
		emailSender: noopOrderEmailSender{},
		logger:      slog.Default(),
	}

	shipped, err := service.DispatchBatch(context.Background(), 2)
	if err != nil {
		t.Fatalf("DispatchBatch() error = %v", err)
	}
	if shipped != 2 {
		t.Errorf("shipped = %d, want 2", shipped)
	}
}

func TestDispatchBatchSkipsUnserviceablePincode(t *testing.T) {
	t.Parallel()

	order := paidOrder(2001)
	store := &fakeShipmentOrders{awaiting: []models.Order{order}}
	carrier := &fakeCarrier{unserviceable: map[string]bool{"560001": true}}
	service := &ShipmentService{
		store:       store,
		carrier:     carrier,
		emailSender: noopOrderEmailSender{},
		logger:      slog.Default(),
	}

	shipped, err := service.DispatchBatch(context.Background(), 10)
	if err != nil {
		t.Fatalf("DispatchBatch() error = %v", err)
	}
	if shipped != 0 {
		t.Errorf("shipped = %d, want 0", shipped)
	}
	if len(carrier.booked) != 0 {
		t.Errorf("booked %d shipments, want 0", len(carrier.booked))
	}

	// Serviceability can change; the order ships on a later tick.
	carrier.unserviceable = nil
	shipped, err = service.DispatchBatch(context.Background(), 10)
	if err != nil {
		t.Fatalf("DispatchBatch() retry error = %v", err)
	}
	if shipped != 1 {
		t.Errorf("retry shipped = %d, want 1", shipped)
	}
}

func TestDispatchBatchSkipsOrderWithoutAddress(t *testing.T) {
	t.Parallel()

	order := paidOrder(77)
	order.ShippingAddress = nil
	store := &fakeShipmentOrders{awaiting: []models.Order{order}}
	service := &ShipmentService{
		store:       store,
		carrier:     &fakeCarrier{},
		emailSender: noopOrderEmailSender{},
		logger:      slog.Default(),
	}

	shipped, err := service.DispatchBatch(context.Background(), 10)
	if err != nil {
		t.Fatalf("DispatchBatch() error = %v", err)
	}
	if shipped != 0 {
		t.Errorf("shipped = %d, want 0", shipped)
	}
	if len(store.created) != 0 {
		t.Errorf("created %d shipments, want 0", len(store.created))
	}
}
