package db

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vedacart/vedacart/internal/models"
)

type UserStore struct {
	pool *pgxpool.Pool
}

func NewUserStore(pool *pgxpool.Pool) *UserStore {
	return &UserStore{pool: pool}
}

func (s *UserStore) Create(ctx context.Context, user *models.User) error {
	err := s.pool.QueryRow(ctx, `
		INSERT INTO users (name, email, phone, password_hash, is_admin, is_super_admin)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`, user.Name, user.Email, pgtype.Text{String: user.Phone, Valid: user.Phone != ""},
		user.PasswordHash, user.IsAdmin, user.IsSuperAdmin,
	).Scan(&user.ID, &user.CreatedAt)
	if isUniqueViolation(err) {
		return fmt.Errorf("email already registered: %w", ErrDuplicate)
	}
	return err
}

func (s *UserStore) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.scanUser(s.pool.QueryRow(ctx, `
		SELECT id, name, email, phone, password_hash, is_admin, is_super_admin, created_at
		FROM users WHERE email = $1
	`, email))
}

func (s *UserStore) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return s.scanUser(s.pool.QueryRow(ctx, `
		SELECT id, name, email, phone, password_hash, is_admin, is_super_admin, created_at
		FROM users WHERE id = $1
	`, id))
}

func (s *UserStore) scanUser(row interface{ Scan(dest ...any) error }) (*models.User, error) {
	var user models.User
	var phone pgtype.Text
	if err := row.Scan(&user.ID, &user.Name, &user.Email, &phone,
		&user.PasswordHash, &user.IsAdmin, &user.IsSuperAdmin, &user.CreatedAt); err != nil {
		return nil, err
	}
	if phone.Valid {
		user.Phone = phone.String
	}
	return &user, nil
}

type PermissionStore struct {
	pool *pgxpool.Pool
}

func NewPermissionStore(pool *pgxpool.Pool) *PermissionStore {
	return &PermissionStore{pool: pool}
}

func (s *PermissionStore) Grant(ctx context.Context, userID uuid.UUID, module, action string) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO permissions (user_id, module, action)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, module, action) DO NOTHING
	`, userID, module, action)
	return err
}

func (s *PermissionStore) Revoke(ctx context.Context, userID uuid.UUID, module, action string) error {
	_, err := s.pool.Exec(ctx, `
		DELETE FROM permissions WHERE user_id = $1 AND module = $2 AND action = $3
	`, userID, module, action)
	return err
}

func (s *PermissionStore) Has(ctx context.Context, userID uuid.UUID, module, action string) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM permissions WHERE user_id = $1 AND module = $2 AND action = $3
		)
	`, userID, module, action).Scan(&exists)
	return exists, err
}

func (s *PermissionStore) ListForUser(ctx context.Context, userID uuid.UUID) ([]models.Permission, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, user_id, module, action FROM permissions WHERE user_id = $1 ORDER BY module, action
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var perms []models.Permission
	for rows.Next() {
		var p models.Permission
		if err := rows.Scan(&p.ID, &p.UserID, &p.Module, &p.Action); err != nil {
			return nil, err
		}
		perms = append(perms, p)
	}
	return perms, rows.Err()
}
