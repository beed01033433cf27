package db

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vedacart/vedacart/internal/models"
)

type ConsultationStore struct {
	pool *pgxpool.Pool
}

func NewConsultationStore(pool *pgxpool.Pool) *ConsultationStore {
	return &ConsultationStore{pool: pool}
}

const consultationColumns = `id, user_id, topic, notes, preferred_slot, contact_phone, status, created_at`

func (s *ConsultationStore) Create(ctx context.Context, c *models.Consultation) error {
	return s.pool.QueryRow(ctx, `
		INSERT INTO consultations (user_id, topic, notes, preferred_slot, contact_phone, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`, c.UserID, c.Topic, pgtype.Text{String: c.Notes, Valid: c.Notes != ""},
		c.PreferredSlot, c.ContactPhone, c.Status).Scan(&c.ID, &c.CreatedAt)
}

func (s *ConsultationStore) GetByID(ctx context.Context, id uuid.UUID) (*models.Consultation, error) {
	return scanConsultation(s.pool.QueryRow(ctx, `
		SELECT `+consultationColumns+` FROM consultations WHERE id = $1
	`, id))
}

func (s *ConsultationStore) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Consultation, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+consultationColumns+` FROM consultations WHERE user_id = $1 ORDER BY preferred_slot DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var consultations []models.Consultation
	for rows.Next() {
		c, err := scanConsultation(rows)
		if err != nil {
			return nil, err
		}
		consultations = append(consultations, *c)
	}
	return consultations, rows.Err()
}

func (s *ConsultationStore) List(ctx context.Context, status models.ConsultationStatus) ([]models.Consultation, error) {
	query := `SELECT ` + consultationColumns + ` FROM consultations`
	args := []any{}
	if status != "" {
		query += ` WHERE status = $1`
		args = append(args, status)
	}
	query += ` ORDER BY preferred_slot`

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var consultations []models.Consultation
	for rows.Next() {
		c, err := scanConsultation(rows)
		if err != nil {
			return nil, err
		}
		consultations = append(consultations, *c)
	}
	return consultations, rows.Err()
}

func (s *ConsultationStore) UpdateStatus(ctx context.Context, id uuid.UUID, status models.ConsultationStatus) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE consultations SET status = $1 WHERE id = $2 AND status NOT IN ('done', 'cancelled')
	`, status, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: consultation closed", ErrInvalidStatusTransition)
	}
	return nil
}

func scanConsultation(row interface{ Scan(dest ...any) error }) (*models.Consultation, error) {
	var c models.Consultation
	var notes pgtype.Text
	if err := row.Scan(&c.ID, &c.UserID, &c.Topic, &notes, &c.PreferredSlot,
		&c.ContactPhone, &c.Status, &c.CreatedAt); err != nil {
		return nil, err
	}
	if notes.Valid {
		c.Notes = notes.String
	}
	return &c, nil
}
