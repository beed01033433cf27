package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/vedacart/vedacart/internal/apperr"
	"github.com/vedacart/vedacart/internal/auth"
	"github.com/vedacart/vedacart/internal/crypto"
	"github.com/vedacart/vedacart/internal/db"
	"github.com/vedacart/vedacart/internal/logging"
	"github.com/vedacart/vedacart/internal/models"
)

type AuthService struct {
	userStore *db.UserStore
	tokens    *auth.Manager
	logger    *slog.Logger
}

func NewAuthService(userStore *db.UserStore, tokens *auth.Manager, logger *slog.Logger) *AuthService {
	return &AuthService{userStore: userStore, tokens: tokens, logger: logger}
}

func (s *AuthService) loggerFromContext(ctx context.Context) *slog.Logger {
	return logging.FromContext(ctx, s.logger)
}

type RegisterInput struct {
	Name     string `json:"name" validate:"required,min=2,max=100"`
	Email    string `json:"email" validate:"required,email"`
	Phone    string `json:"phone" validate:"omitempty,len=10,numeric"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type AuthResult struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*AuthResult, error) {
	hash, err := crypto.HashPassword(input.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Name:         strings.TrimSpace(input.Name),
		Email:        strings.ToLower(strings.TrimSpace(input.Email)),
		Phone:        strings.TrimSpace(input.Phone),
		PasswordHash: hash,
	}

	if err := s.userStore.Create(ctx, user); err != nil {
		if errors.Is(err, db.ErrDuplicate) {
			return nil, apperr.New(apperr.KindConflict, "an account with this email already exists")
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.loggerFromContext(ctx).Info("user registered", "user_id", user.ID)
	return s.issue(user)
}

func (s *AuthService) Login(ctx context.Context, input LoginInput) (*AuthResult, error) {
	user, err := s.userStore.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(input.Email)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.New(apperr.KindAuth, "invalid email or password")
		}
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	if !crypto.CheckPassword(user.PasswordHash, input.Password) {
		return nil, apperr.New(apperr.KindAuth, "invalid email or password")
	}

	return s.issue(user)
}

func (s *AuthService) Profile(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	user, err := s.userStore.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.New(apperr.KindNotFound, "user not found")
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	return user, nil
}

func (s *AuthService) issue(user *models.User) (*AuthResult, error) {
	token, err := s.tokens.IssueToken(user)
	if err != nil {
		return nil, fmt.Errorf("failed to issue token: %w", err)
	}
	return &AuthResult{Token: token, User: user}, nil
}
