package services

import (
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/vedacart/vedacart/internal/apperr"
	"github.com/vedacart/vedacart/internal/cache"
	"github.com/vedacart/vedacart/internal/db"
	"github.com/vedacart/vedacart/internal/models"
	"github.com/vedacart/vedacart/internal/payment"
)

// fakeGateway verifies with the literal signature "good" and decodes
// the payload as a JSON WebhookEvent.
type fakeGateway struct {
	created []int64
}

func (f *fakeGateway) Name() string { return "fake" }

func (f *fakeGateway) CreateOrder(_ context.Context, amountPaise int64, receipt string) (*payment.GatewayOrder, error) {
	f.created = append(f.created, amountPaise)
	return &payment.GatewayOrder{ID: "gw_" + receipt, AmountPaise: amountPaise, Currency: "INR"}, nil
}

func (f *fakeGateway) Refund(context.Context, string, int64) error { return nil }

func (f *fakeGateway) ParseWebhook(payload []byte, signature string) (*payment.WebhookEvent, error) {
	if signature != "good" {
		return nil, payment.ErrInvalidSignature
	}
	var event payment.WebhookEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return nil, err
	}
	return &event, nil
}

type fakePaymentStores struct {
	payments  map[string]*models.Payment
	orders    map[uuid.UUID]*models.Order
	users     map[uuid.UUID]*models.User
	captures  int
	createErr error
}

func newFakePaymentStores() *fakePaymentStores {
	return &fakePaymentStores{
		payments: make(map[string]*models.Payment),
		orders:   make(map[uuid.UUID]*models.Order),
		users:    make(map[uuid.UUID]*models.User),
	}
}

func (f *fakePaymentStores) CreatePayment(_ context.Context, p *models.Payment) error {
	if f.createErr != nil {
		return f.createErr
	}
	p.ID = uuid.New()
	f.payments[p.GatewayOrderID] = p
	return nil
}

func (f *fakePaymentStores) PaymentByOrderID(_ context.Context, orderID uuid.UUID) (*models.Payment, error) {
	for _, p := range f.payments {
		if p.OrderID == orderID {
			return p, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (f *fakePaymentStores) PaymentByGatewayOrderID(_ context.Context, gatewayOrderID string) (*models.Payment, error) {
	if p, ok := f.payments[gatewayOrderID]; ok {
		return p, nil
	}
	return nil, pgx.ErrNoRows
}

func (f *fakePaymentStores) ApplyCapture(_ context.Context, paymentID, orderID uuid.UUID, gatewayPaymentID string) error {
	f.captures++
	for _, p := range f.payments {
		if p.ID == paymentID {
			if p.Status != models.PaymentPending {
				return db.ErrInvalidStatusTransition
			}
			p.Status = models.PaymentSuccess
			p.GatewayPaymentID = gatewayPaymentID
		}
	}
	if o, ok := f.orders[orderID]; ok {
		o.Status = models.OrderProcessing
	}
	return nil
}

func (f *fakePaymentStores) MarkPaymentFailed(_ context.Context, paymentID uuid.UUID, gatewayPaymentID string) error {
	for _, p := range f.payments {
		if p.ID == paymentID {
			if p.Status != models.PaymentPending {
				return db.ErrInvalidStatusTransition
			}
			p.Status = models.PaymentFailed
			p.GatewayPaymentID = gatewayPaymentID
		}
	}
	return nil
}

func (f *fakePaymentStores) RecordRefund(_ context.Context, paymentID uuid.UUID, refundPaise int64) error {
	for _, p := range f.payments {
		if p.ID == paymentID {
			p.RefundPaise += refundPaise
		}
	}
	return nil
}

func (f *fakePaymentStores) Order(_ context.Context, orderID uuid.UUID) (*models.Order, error) {
	if o, ok := f.orders[orderID]; ok {
		return o, nil
	}
	return nil, pgx.ErrNoRows
}

func (f *fakePaymentStores) User(_ context.Context, userID uuid.UUID) (*models.User, error) {
	if u, ok := f.users[userID]; ok {
		return u, nil
	}
	return nil, pgx.ErrNoRows
}

func newPaymentFixture(t *testing.T) (*PaymentService, *fakePaymentStores) {
	t.Helper()

	memory, err := cache.NewMemoryProvider()
	if err != nil {
		t.Fatalf("NewMemoryProvider() error = %v", err)
	}
	store := newFakePaymentStores()
	service := &PaymentService{
		store:       store,
		gateway:     &fakeGateway{},
		cache:       memory,
		emailSender: noopOrderEmailSender{},
		logger:      slog.Default(),
	}
	return service, store
}

func pendingPaymentOrder(store *fakePaymentStores, gatewayOrderID string) *models.Order {
	user := &models.User{ID: uuid.New(), Name: "Asha Rao", Email: "asha@example.com"}
	order := &models.Order{
		ID:          uuid.New(),
		UserID:      user.ID,
		OrderNumber: 1001,
		Status:      models.OrderPending,
		TotalPaise:  61_000,
	}
	store.users[user.ID] = user
	store.orders[order.ID] = order
	store.payments[gatewayOrderID] = &models.Payment{
		ID:             uuid.New(),
		OrderID:        order.ID,
		Gateway:        "fake",
		GatewayOrderID: gatewayOrderID,
		Status:         models.PaymentPending,
		AmountPaise:    order.TotalPaise,
	}
	return order
}

func capturedEvent(t *testing.T, eventID, gatewayOrderID string) []byte {
	t.Helper()
	payload, err := json.Marshal(payment.WebhookEvent{
		ID:               eventID,
		GatewayOrderID:   gatewayOrderID,
		GatewayPaymentID: "pay_1",
		Captured:         true,
	})
	if err != nil {
		t.Fatalf("marshal event: %v", err)
	}
	return payload
}

func TestHandleWebhookRedeliveryIsNoOp(t *testing.T) {
	t.Parallel()

	service, store := newPaymentFixture(t)
	order := pendingPaymentOrder(store, "rzp_order_1")
	payload := capturedEvent(t, "evt_1", "rzp_order_1")

	if err := service.HandleWebhook(context.Background(), payload, "good"); err != nil {
		t.Fatalf("HandleWebhook() error = %v", err)
	}
	if got := store.payments["rzp_order_1"].Status; got != models.PaymentSuccess {
		t.Errorf("payment status = %q, want success", got)
	}
	if got := store.orders[order.ID].Status; got != models.OrderProcessing {
		t.Errorf("order status = %q, want processing", got)
	}
	if store.captures != 1 {
		t.Fatalf("captures = %d, want 1", store.captures)
	}

	// The same event id is dropped by the dedup cache.
	if err := service.HandleWebhook(context.Background(), payload, "good"); err != nil {
		t.Fatalf("HandleWebhook() redelivery error = %v", err)
	}
	if store.captures != 1 {
		t.Errorf("captures after redelivery = %d, want 1", store.captures)
	}

	// A fresh event id for an already-captured payment short-circuits on
	// the payment status, before touching the stores.
	if err := service.HandleWebhook(context.Background(), capturedEvent(t, "evt_2", "rzp_order_1"), "good"); err != nil {
		t.Fatalf("HandleWebhook() fresh-event error = %v", err)
	}
	if store.captures != 1 {
		t.Errorf("captures after fresh event id = %d, want 1", store.captures)
	}
	if got := store.payments["rzp_order_1"].GatewayPaymentID; got != "pay_1" {
		t.Errorf("gateway payment id = %q, want pay_1", got)
	}
}

func TestHandleWebhookRejectsBadSignature(t *testing.T) {
	t.Parallel()

	service, store := newPaymentFixture(t)
	pendingPaymentOrder(store, "rzp_order_1")
	payload := capturedEvent(t, "evt_1", "rzp_order_1")

	err := service.HandleWebhook(context.Background(), payload, "forged")
	if apperr.KindOf(err) != apperr.KindValidation {
		t.Fatalf("kind = %v, want validation", apperr.KindOf(err))
	}
	if got := store.payments["rzp_order_1"].Status; got != models.PaymentPending {
		t.Errorf("payment status = %q, want pending (no state change)", got)
	}
	if store.captures != 0 {
		t.Errorf("captures = %d, want 0", store.captures)
	}
}

func TestInitiateDuplicateIsConflict(t *testing.T) {
	t.Parallel()

	service, store := newPaymentFixture(t)
	user := &models.User{ID: uuid.New(), Email: "asha@example.com"}
	order := &models.Order{
		ID:          uuid.New(),
		UserID:      user.ID,
		OrderNumber: 1002,
		Status:      models.OrderPending,
		TotalPaise:  25_000,
	}
	store.users[user.ID] = user
	store.orders[order.ID] = order

	// A concurrent Initiate slipped in between the lookup and the
	// insert, tripping the unique key on order_id.
	store.createErr = db.ErrDuplicate

	_, err := service.Initiate(context.Background(), order.ID, user.ID)
	if apperr.KindOf(err) != apperr.KindConflict {
		t.Fatalf("kind = %v, want conflict", apperr.KindOf(err))
	}
}

func TestInitiateReturnsPendingSession(t *testing.T) {
	t.Parallel()

	service, store := newPaymentFixture(t)
	user := &models.User{ID: uuid.New(), Email: "asha@example.com"}
	order := &models.Order{
		ID:          uuid.New(),
		UserID:      user.ID,
		OrderNumber: 1003,
		Status:      models.OrderPending,
		TotalPaise:  25_000,
	}
	store.users[user.ID] = user
	store.orders[order.ID] = order

	p, err := service.Initiate(context.Background(), order.ID, user.ID)
	if err != nil {
		t.Fatalf("Initiate() error = %v", err)
	}
	if p.Status != models.PaymentPending {
		t.Errorf("status = %q, want pending", p.Status)
	}
	if p.GatewayOrderID != "gw_order_1003" {
		t.Errorf("gateway order id = %q", p.GatewayOrderID)
	}
	if p.AmountPaise != order.TotalPaise {
		t.Errorf("amount = %d, want %d", p.AmountPaise, order.TotalPaise)
	}

	// A second Initiate hands the open session back instead of opening
	// a new gateway order.
	again, err := service.Initiate(context.Background(), order.ID, user.ID)
	if err != nil {
		t.Fatalf("Initiate() again error = %v", err)
	}
	if again.ID != p.ID {
		t.Errorf("second Initiate opened a new session: %s != %s", again.ID, p.ID)
	}
}
