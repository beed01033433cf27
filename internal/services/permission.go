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

// Modules an admin permission can name. Actions are read/write.
var permissionModules = map[string]bool{
	"categories":    true,
	"products":      true,
	"banners":       true,
	"coupons":       true,
	"orders":        true,
	"payments":      true,
	"shipments":     true,
	"warehouses":    true,
	"stock":         true,
	"returns":       true,
	"consultations": true,
	"permissions":   true,
}

type PermissionService struct {
	permissionStore *db.PermissionStore
	userStore       *db.UserStore
	logger          *slog.Logger
}

func NewPermissionService(permissionStore *db.PermissionStore, userStore *db.UserStore, logger *slog.Logger) *PermissionService {
	return &PermissionService{
		permissionStore: permissionStore,
		userStore:       userStore,
		logger:          logger,
	}
}

func (s *PermissionService) loggerFromContext(ctx context.Context) *slog.Logger {
	return logging.FromContext(ctx, s.logger)
}

type PermissionInput struct {
	UserID uuid.UUID `json:"user_id" validate:"required"`
	Module string    `json:"module" validate:"required"`
	Action string    `json:"action" validate:"required,oneof=read write"`
}

func (s *PermissionService) Grant(ctx context.Context, input PermissionInput) error {
	if !permissionModules[input.Module] {
		return apperr.Newf(apperr.KindValidation, "unknown module %q", input.Module)
	}

	user, err := s.userStore.GetByID(ctx, input.UserID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperr.New(apperr.KindNotFound, "user not found")
		}
		return fmt.Errorf("failed to load user: %w", err)
	}
	if !user.IsAdmin {
		return apperr.New(apperr.KindValidation, "permissions can only be granted to admin users")
	}

	if err := s.permissionStore.Grant(ctx, input.UserID, input.Module, input.Action); err != nil {
		return fmt.Errorf("failed to grant permission: %w", err)
	}

	s.loggerFromContext(ctx).Info("permission granted",
		"user_id", input.UserID, "module", input.Module, "action", input.Action)
	return nil
}

func (s *PermissionService) Revoke(ctx context.Context, input PermissionInput) error {
	if err := s.permissionStore.Revoke(ctx, input.UserID, input.Module, input.Action); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperr.New(apperr.KindNotFound, "permission not found")
		}
		return fmt.Errorf("failed to revoke permission: %w", err)
	}

	s.loggerFromContext(ctx).Info("permission revoked",
		"user_id", input.UserID, "module", input.Module, "action", input.Action)
	return nil
}

func (s *PermissionService) ListForUser(ctx context.Context, userID uuid.UUID) ([]models.Permission, error) {
	permissions, err := s.permissionStore.ListForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list permissions: %w", err)
	}
	return permissions, nil
}

// Allowed reports whether the user may perform (module, action). Super
// admins bypass permission rows entirely.
func (s *PermissionService) Allowed(ctx context.Context, user *models.User, module, action string) (bool, error) {
	if user.IsSuperAdmin {
		return true, nil
	}
	if !user.IsAdmin {
		return false, nil
	}
	return s.permissionStore.Has(ctx, user.ID, module, action)
}
