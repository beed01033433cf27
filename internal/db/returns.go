package db

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vedacart/vedacart/internal/models"
)

type ReturnStore struct {
	pool *pgxpool.Pool
}

func NewReturnStore(pool *pgxpool.Pool) *ReturnStore {
	return &ReturnStore{pool: pool}
}

const returnColumns = `id, order_id, order_item_id, user_id, reason, status, created_at, updated_at`

func (s *ReturnStore) Create(ctx context.Context, r *models.ReturnRequest) error {
	err := s.pool.QueryRow(ctx, `
		INSERT INTO return_requests (order_id, order_item_id, user_id, reason, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at
	`, r.OrderID, r.OrderItemID, r.UserID, r.Reason, r.Status).Scan(&r.ID, &r.CreatedAt, &r.UpdatedAt)
	if isUniqueViolation(err) {
		return fmt.Errorf("return already requested for item: %w", ErrDuplicate)
	}
	return err
}

func (s *ReturnStore) GetByID(ctx context.Context, id uuid.UUID) (*models.ReturnRequest, error) {
	return scanReturn(s.pool.QueryRow(ctx, `
		SELECT `+returnColumns+` FROM return_requests WHERE id = $1
	`, id))
}

func (s *ReturnStore) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.ReturnRequest, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+returnColumns+` FROM return_requests WHERE user_id = $1 ORDER BY created_at DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var returns []models.ReturnRequest
	for rows.Next() {
		r, err := scanReturn(rows)
		if err != nil {
			return nil, err
		}
		returns = append(returns, *r)
	}
	return returns, rows.Err()
}

func (s *ReturnStore) ListByStatus(ctx context.Context, status models.ReturnStatus) ([]models.ReturnRequest, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+returnColumns+` FROM return_requests WHERE status = $1 ORDER BY created_at
	`, status)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var returns []models.ReturnRequest
	for rows.Next() {
		r, err := scanReturn(rows)
		if err != nil {
			return nil, err
		}
		returns = append(returns, *r)
	}
	return returns, rows.Err()
}

// Transition guards status changes: requested can be approved or
// rejected, approved can be completed.
func (s *ReturnStore) Transition(ctx context.Context, id uuid.UUID, to models.ReturnStatus) error {
	var from models.ReturnStatus
	switch to {
	case models.ReturnApproved, models.ReturnRejected:
		from = models.ReturnRequested
	case models.ReturnCompleted:
		from = models.ReturnApproved
	default:
		return fmt.Errorf("%w: to %s", ErrInvalidStatusTransition, to)
	}

	tag, err := s.pool.Exec(ctx, `
		UPDATE return_requests SET status = $1, updated_at = NOW()
		WHERE id = $2 AND status = $3
	`, to, id, from)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: expected %s", ErrInvalidStatusTransition, from)
	}
	return nil
}

func scanReturn(row interface{ Scan(dest ...any) error }) (*models.ReturnRequest, error) {
	var r models.ReturnRequest
	if err := row.Scan(&r.ID, &r.OrderID, &r.OrderItemID, &r.UserID, &r.Reason,
		&r.Status, &r.CreatedAt, &r.UpdatedAt); err != nil {
		return nil, err
	}
	return &r, nil
}
