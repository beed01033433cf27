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

type PaymentStore struct {
	pool *pgxpool.Pool
}

func NewPaymentStore(pool *pgxpool.Pool) *PaymentStore {
	return &PaymentStore{pool: pool}
}

const paymentColumns = `id, order_id, gateway, gateway_order_id, gateway_payment_id, method,
	status, amount_paise, refund_paise, created_at, updated_at`

func (s *PaymentStore) Create(ctx context.Context, p *models.Payment) error {
	err := s.pool.QueryRow(ctx, `
		INSERT INTO payments (order_id, gateway, gateway_order_id, method, status, amount_paise)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at
	`, p.OrderID, p.Gateway, p.GatewayOrderID, p.Method, p.Status, p.AmountPaise,
	).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	if isUniqueViolation(err) {
		return fmt.Errorf("payment already exists for order: %w", ErrDuplicate)
	}
	return err
}

func (s *PaymentStore) GetByOrderID(ctx context.Context, orderID uuid.UUID) (*models.Payment, error) {
	return scanPayment(s.pool.QueryRow(ctx, `
		SELECT `+paymentColumns+` FROM payments WHERE order_id = $1
	`, orderID))
}

func (s *PaymentStore) GetByGatewayOrderID(ctx context.Context, gatewayOrderID string) (*models.Payment, error) {
	return scanPayment(s.pool.QueryRow(ctx, `
		SELECT `+paymentColumns+` FROM payments WHERE gateway_order_id = $1
	`, gatewayOrderID))
}

// MarkSuccess is guarded so a redelivered webhook cannot double-apply:
// only a pending or failed payment moves to success.
func (s *PaymentStore) MarkSuccess(ctx context.Context, q Querier, paymentID uuid.UUID, gatewayPaymentID string) error {
	tag, err := q.Exec(ctx, `
		UPDATE payments
		SET status = $1, gateway_payment_id = $2, updated_at = NOW()
		WHERE id = $3 AND status IN ('pending', 'failed')
	`, models.PaymentSuccess, gatewayPaymentID, paymentID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: expected pending/failed", ErrInvalidStatusTransition)
	}
	return nil
}

func (s *PaymentStore) MarkFailed(ctx context.Context, q Querier, paymentID uuid.UUID, gatewayPaymentID string) error {
	tag, err := q.Exec(ctx, `
		UPDATE payments
		SET status = $1, gateway_payment_id = $2, updated_at = NOW()
		WHERE id = $3 AND status = 'pending'
	`, models.PaymentFailed, gatewayPaymentID, paymentID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: expected pending", ErrInvalidStatusTransition)
	}
	return nil
}

// RecordRefund stores the refunded amount. The guard keeps the refund
// within the captured amount.
func (s *PaymentStore) RecordRefund(ctx context.Context, paymentID uuid.UUID, refundPaise int64) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE payments
		SET status = $1, refund_paise = refund_paise + $2, updated_at = NOW()
		WHERE id = $3 AND status IN ('success', 'refunded') AND refund_paise + $2 <= amount_paise
	`, models.PaymentRefunded, refundPaise, paymentID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: refund exceeds amount or payment not captured", ErrInvalidStatusTransition)
	}
	return nil
}

func scanPayment(row interface{ Scan(dest ...any) error }) (*models.Payment, error) {
	var p models.Payment
	var gatewayPaymentID pgtype.Text
	if err := row.Scan(&p.ID, &p.OrderID, &p.Gateway, &p.GatewayOrderID, &gatewayPaymentID,
		&p.Method, &p.Status, &p.AmountPaise, &p.RefundPaise, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	if gatewayPaymentID.Valid {
		p.GatewayPaymentID = gatewayPaymentID.String
	}
	return &p, nil
}

// Tx runs fn inside one transaction; used by payment reconciliation to
// move the payment and its order together.
func (s *PaymentStore) Tx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	return pgx.BeginFunc(ctx, s.pool, fn)
}
