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
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vedacart/vedacart/internal/apperr"
	"github.com/vedacart/vedacart/internal/cache"
	"github.com/vedacart/vedacart/internal/db"
	"github.com/vedacart/vedacart/internal/logging"
	"github.com/vedacart/vedacart/internal/models"
	"github.com/vedacart/vedacart/internal/observability"
	"github.com/vedacart/vedacart/internal/payment"
)

// webhookDedupTTL bounds the event-id cache used to drop redelivered
// webhooks early. The status guards remain the real idempotency wall.
const webhookDedupTTL = 24 * time.Hour

// CallbackVerifier checks the browser-callback signature over
// "gatewayOrderID|gatewayPaymentID". Only Razorpay has this flow.
type CallbackVerifier interface {
	VerifyCallbackSignature(gatewayOrderID, gatewayPaymentID, signature string) bool
}

// paymentStores is the slice of the storage layer reconciliation
// needs; an interface so webhook idempotency is testable without a
// database.
type paymentStores interface {
	CreatePayment(ctx context.Context, p *models.Payment) error
	PaymentByOrderID(ctx context.Context, orderID uuid.UUID) (*models.Payment, error)
	PaymentByGatewayOrderID(ctx context.Context, gatewayOrderID string) (*models.Payment, error)
	// ApplyCapture marks the payment captured and advances the order to
	// processing in one transaction.
	ApplyCapture(ctx context.Context, paymentID, orderID uuid.UUID, gatewayPaymentID string) error
	MarkPaymentFailed(ctx context.Context, paymentID uuid.UUID, gatewayPaymentID string) error
	RecordRefund(ctx context.Context, paymentID uuid.UUID, refundPaise int64) error
	Order(ctx context.Context, orderID uuid.UUID) (*models.Order, error)
	User(ctx context.Context, userID uuid.UUID) (*models.User, error)
}

// storePayments adapts the concrete stores.
type storePayments struct {
	pool     *pgxpool.Pool
	payments *db.PaymentStore
	orders   *db.OrderStore
	users    *db.UserStore
}

func (s storePayments) CreatePayment(ctx context.Context, p *models.Payment) error {
	return s.payments.Create(ctx, p)
}

func (s storePayments) PaymentByOrderID(ctx context.Context, orderID uuid.UUID) (*models.Payment, error) {
	return s.payments.GetByOrderID(ctx, orderID)
}

func (s storePayments) PaymentByGatewayOrderID(ctx context.Context, gatewayOrderID string) (*models.Payment, error) {
	return s.payments.GetByGatewayOrderID(ctx, gatewayOrderID)
}

func (s storePayments) ApplyCapture(ctx context.Context, paymentID, orderID uuid.UUID, gatewayPaymentID string) error {
	return s.payments.Tx(ctx, func(tx pgx.Tx) error {
		if err := s.payments.MarkSuccess(ctx, tx, paymentID, gatewayPaymentID); err != nil {
			return err
		}
		return s.orders.MarkProcessing(ctx, tx, orderID)
	})
}

func (s storePayments) MarkPaymentFailed(ctx context.Context, paymentID uuid.UUID, gatewayPaymentID string) error {
	return s.payments.MarkFailed(ctx, s.pool, paymentID, gatewayPaymentID)
}

func (s storePayments) RecordRefund(ctx context.Context, paymentID uuid.UUID, refundPaise int64) error {
	return s.payments.RecordRefund(ctx, paymentID, refundPaise)
}

func (s storePayments) Order(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	return s.orders.GetByID(ctx, orderID)
}

func (s storePayments) User(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	return s.users.GetByID(ctx, userID)
}

type PaymentService struct {
	store       paymentStores
	gateway     payment.Gateway
	callbacks   CallbackVerifier
	cache       cache.Provider
	emailSender OrderEmailSender
	logger      *slog.Logger
}

func NewPaymentService(
	pool *pgxpool.Pool,
	paymentStore *db.PaymentStore,
	orderStore *db.OrderStore,
	userStore *db.UserStore,
	gateway payment.Gateway,
	callbacks CallbackVerifier,
	cacheProvider cache.Provider,
	emailSender OrderEmailSender,
	logger *slog.Logger,
) *PaymentService {
	if emailSender == nil {
		emailSender = noopOrderEmailSender{}
	}

	return &PaymentService{
		store:       storePayments{pool: pool, payments: paymentStore, orders: orderStore, users: userStore},
		gateway:     gateway,
		callbacks:   callbacks,
		cache:       cacheProvider,
		emailSender: emailSender,
		logger:      logger,
	}
}

func (s *PaymentService) loggerFromContext(ctx context.Context) *slog.Logger {
	return logging.FromContext(ctx, s.logger)
}

// Initiate opens a gateway session for the order total and persists the
// pending payment row keyed by the gateway order id.
func (s *PaymentService) Initiate(ctx context.Context, orderID, userID uuid.UUID) (*models.Payment, error) {
	order, err := s.store.Order(ctx, orderID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.New(apperr.KindNotFound, "order not found")
		}
		return nil, fmt.Errorf("failed to load order: %w", err)
	}
	if order.UserID != userID {
		return nil, apperr.New(apperr.KindNotFound, "order not found")
	}
	if order.Status != models.OrderPending {
		return nil, apperr.New(apperr.KindConflict, "order is not awaiting payment")
	}

	if existing, err := s.store.PaymentByOrderID(ctx, orderID); err == nil {
		if existing.Status == models.PaymentSuccess {
			return nil, apperr.New(apperr.KindConflict, "order is already paid")
		}
		// A pending session can be handed back to the client as is.
		return existing, nil
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("failed to look up payment: %w", err)
	}

	gatewayOrder, err := s.gateway.CreateOrder(ctx, order.TotalPaise, fmt.Sprintf("order_%d", order.OrderNumber))
	if err != nil {
		return nil, fmt.Errorf("failed to create gateway order: %w", err)
	}

	p := &models.Payment{
		OrderID:        orderID,
		Gateway:        s.gateway.Name(),
		GatewayOrderID: gatewayOrder.ID,
		Method:         order.PaymentMethod,
		Status:         models.PaymentPending,
		AmountPaise:    order.TotalPaise,
	}
	if err := s.store.CreatePayment(ctx, p); err != nil {
		if errors.Is(err, db.ErrDuplicate) {
			// A concurrent Initiate won the unique-key race.
			return nil, apperr.New(apperr.KindConflict, "a payment session already exists for this order")
		}
		return nil, fmt.Errorf("failed to persist payment: %w", err)
	}

	s.loggerFromContext(ctx).Info("payment initiated",
		"order_id", orderID, "gateway", p.Gateway, "gateway_order_id", p.GatewayOrderID)
	return p, nil
}

// HandleWebhook applies a gateway webhook. A bad signature is the only
// caller error; every verified payload is absorbed, with unknown orders
// and replays logged as benign.
func (s *PaymentService) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	logger := s.loggerFromContext(ctx)
	meter := observability.MeterFromContext(ctx)
	meter.Count("payment.webhook.received", 1)

	event, err := s.gateway.ParseWebhook(payload, signature)
	if err != nil {
		if errors.Is(err, payment.ErrInvalidSignature) {
			meter.Count("payment.webhook.rejected", 1)
			return apperr.New(apperr.KindValidation, "invalid signature")
		}
		return apperr.Wrap(apperr.KindValidation, "invalid webhook payload", err)
	}

	dedupKey := cache.WebhookKey(s.gateway.Name(), event.ID)
	if _, err := s.cache.Get(ctx, dedupKey); err == nil {
		logger.Info("dropping already-processed webhook", "event_id", event.ID)
		return nil
	}

	p, err := s.store.PaymentByGatewayOrderID(ctx, event.GatewayOrderID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			logger.Warn("webhook for unknown gateway order", "gateway_order_id", event.GatewayOrderID)
			return nil
		}
		return fmt.Errorf("failed to look up payment: %w", err)
	}

	if event.Captured {
		err = s.applySuccess(ctx, p, event.GatewayPaymentID)
	} else {
		err = s.applyFailure(ctx, p, event.GatewayPaymentID)
	}
	if err != nil {
		return err
	}

	if cacheErr := s.cache.Set(ctx, dedupKey, "1", webhookDedupTTL); cacheErr != nil {
		logger.Warn("failed to record webhook dedup key", "error", cacheErr, "event_id", event.ID)
	}
	meter.Count("payment.webhook.processed", 1, sentry.WithAttributes(
		attribute.Bool("captured", event.Captured),
	))
	return nil
}

func (s *PaymentService) applySuccess(ctx context.Context, p *models.Payment, gatewayPaymentID string) error {
	logger := s.loggerFromContext(ctx)

	if p.Status == models.PaymentSuccess {
		logger.Info("payment already captured, webhook is a no-op", "payment_id", p.ID)
		return nil
	}

	if err := s.store.ApplyCapture(ctx, p.ID, p.OrderID, gatewayPaymentID); err != nil {
		if errors.Is(err, db.ErrInvalidStatusTransition) {
			logger.Info("payment or order already transitioned, webhook is a no-op",
				"payment_id", p.ID, "order_id", p.OrderID, "error", err)
			return nil
		}
		return fmt.Errorf("failed to apply payment success: %w", err)
	}

	logger.Info("payment captured", "payment_id", p.ID, "order_id", p.OrderID)
	s.sendReceipt(ctx, p.OrderID)
	return nil
}

func (s *PaymentService) applyFailure(ctx context.Context, p *models.Payment, gatewayPaymentID string) error {
	logger := s.loggerFromContext(ctx)

	if err := s.store.MarkPaymentFailed(ctx, p.ID, gatewayPaymentID); err != nil {
		if errors.Is(err, db.ErrInvalidStatusTransition) {
			logger.Info("payment not pending, failure webhook is a no-op", "payment_id", p.ID)
			return nil
		}
		return fmt.Errorf("failed to mark payment failed: %w", err)
	}

	logger.Info("payment failed", "payment_id", p.ID, "order_id", p.OrderID)
	return nil
}

func (s *PaymentService) sendReceipt(ctx context.Context, orderID uuid.UUID) {
	logger := s.loggerFromContext(ctx)

	order, err := s.store.Order(ctx, orderID)
	if err != nil {
		logger.Error("failed to load order for receipt", "error", err, "order_id", orderID)
		return
	}
	user, err := s.store.User(ctx, order.UserID)
	if err != nil {
		logger.Error("failed to load user for receipt", "error", err, "order_id", orderID)
		return
	}
	if err := s.emailSender.SendPaymentReceipt(ctx, user, order); err != nil {
		logger.Error("failed to send payment receipt", "error", err, "order_id", orderID)
	}
}

// ConfirmCallback verifies the signature a checkout page posts back
// after the gateway redirects. It is an optimistic fast path; the
// webhook remains the source of truth.
func (s *PaymentService) ConfirmCallback(ctx context.Context, gatewayOrderID, gatewayPaymentID, signature string) error {
	if s.callbacks == nil {
		return apperr.New(apperr.KindValidation, "callback verification is not supported for this gateway")
	}
	if !s.callbacks.VerifyCallbackSignature(gatewayOrderID, gatewayPaymentID, signature) {
		return apperr.New(apperr.KindValidation, "invalid signature")
	}

	p, err := s.store.PaymentByGatewayOrderID(ctx, gatewayOrderID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperr.New(apperr.KindNotFound, "payment not found")
		}
		return fmt.Errorf("failed to look up payment: %w", err)
	}

	return s.applySuccess(ctx, p, gatewayPaymentID)
}

// Refund initiates a (partial) refund with the gateway and records it.
func (s *PaymentService) Refund(ctx context.Context, orderID uuid.UUID, amountPaise int64) error {
	if amountPaise <= 0 {
		return apperr.New(apperr.KindValidation, "refund amount must be positive")
	}

	p, err := s.store.PaymentByOrderID(ctx, orderID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperr.New(apperr.KindNotFound, "no payment found for order")
		}
		return fmt.Errorf("failed to look up payment: %w", err)
	}
	if p.RefundPaise+amountPaise > p.AmountPaise {
		return apperr.New(apperr.KindBusiness, "refund exceeds captured amount")
	}

	if err := s.gateway.Refund(ctx, p.GatewayPaymentID, amountPaise); err != nil {
		return fmt.Errorf("gateway refund failed: %w", err)
	}

	if err := s.store.RecordRefund(ctx, p.ID, amountPaise); err != nil {
		if errors.Is(err, db.ErrInvalidStatusTransition) {
			return apperr.New(apperr.KindBusiness, "refund exceeds captured amount")
		}
		return fmt.Errorf("failed to record refund: %w", err)
	}

	s.loggerFromContext(ctx).Info("refund recorded",
		"order_id", orderID, "payment_id", p.ID, "refund_paise", amountPaise)
	return nil
}

func (s *PaymentService) GetForOrder(ctx context.Context, orderID, userID uuid.UUID, isAdmin bool) (*models.Payment, error) {
	order, err := s.store.Order(ctx, orderID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.New(apperr.KindNotFound, "order not found")
		}
		return nil, fmt.Errorf("failed to load order: %w", err)
	}
	if !isAdmin && order.UserID != userID {
		return nil, apperr.New(apperr.KindNotFound, "order not found")
	}

	p, err := s.store.PaymentByOrderID(ctx, orderID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.New(apperr.KindNotFound, "no payment found for order")
		}
		return nil, fmt.Errorf("failed to look up payment: %w", err)
	}
	return p, nil
}
