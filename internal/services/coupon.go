package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/vedacart/vedacart/internal/apperr"
	"github.com/vedacart/vedacart/internal/db"
	"github.com/vedacart/vedacart/internal/logging"
	"github.com/vedacart/vedacart/internal/models"
)

// couponFinder is the slice of the coupon store the validator needs.
type couponFinder interface {
	GetByCode(ctx context.Context, code string) (*models.Coupon, error)
	CountRedemptions(ctx context.Context, couponID, userID uuid.UUID) (int, error)
}

type CouponService struct {
	store  *db.CouponStore
	finder couponFinder
	now    func() time.Time
	logger *slog.Logger
}

func NewCouponService(store *db.CouponStore, logger *slog.Logger) *CouponService {
	return &CouponService{store: store, finder: store, now: time.Now, logger: logger}
}

func (s *CouponService) loggerFromContext(ctx context.Context) *slog.Logger {
	return logging.FromContext(ctx, s.logger)
}

type CouponInput struct {
	Code          string              `json:"code" validate:"required,min=3,max=32"`
	Type          models.DiscountType `json:"type" validate:"required,oneof=percentage fixed"`
	Value         int64               `json:"value" validate:"required,gt=0"`
	MinOrderPaise int64               `json:"min_order_paise" validate:"gte=0"`
	MaxUsage      int                 `json:"max_usage" validate:"gte=0"`
	PerUserLimit  int                 `json:"per_user_limit" validate:"gte=0"`
	ValidFrom     time.Time           `json:"valid_from" validate:"required"`
	ValidUntil    time.Time           `json:"valid_until" validate:"required"`
	Active        bool                `json:"active"`
}

func (s *CouponService) Create(ctx context.Context, input CouponInput) (*models.Coupon, error) {
	if input.Type == models.DiscountPercentage && input.Value > 100 {
		return nil, apperr.New(apperr.KindValidation, "percentage discount cannot exceed 100")
	}
	if !input.ValidUntil.After(input.ValidFrom) {
		return nil, apperr.New(apperr.KindValidation, "valid_until must be after valid_from")
	}

	coupon := &models.Coupon{
		Code:          input.Code,
		Type:          input.Type,
		Value:         input.Value,
		MinOrderPaise: input.MinOrderPaise,
		MaxUsage:      input.MaxUsage,
		PerUserLimit:  input.PerUserLimit,
		ValidFrom:     input.ValidFrom,
		ValidUntil:    input.ValidUntil,
		Active:        input.Active,
	}

	if err := s.store.Create(ctx, coupon); err != nil {
		if errors.Is(err, db.ErrDuplicate) {
			return nil, apperr.New(apperr.KindConflict, "a coupon with this code already exists")
		}
		return nil, fmt.Errorf("failed to create coupon: %w", err)
	}
	return coupon, nil
}

func (s *CouponService) Update(ctx context.Context, coupon *models.Coupon) error {
	if err := s.store.Update(ctx, coupon); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperr.New(apperr.KindNotFound, "coupon not found")
		}
		return fmt.Errorf("failed to update coupon: %w", err)
	}
	return nil
}

func (s *CouponService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.store.Delete(ctx, id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperr.New(apperr.KindNotFound, "coupon not found")
		}
		return fmt.Errorf("failed to delete coupon: %w", err)
	}
	return nil
}

func (s *CouponService) List(ctx context.Context) ([]models.Coupon, error) {
	coupons, err := s.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list coupons: %w", err)
	}
	return coupons, nil
}

// ValidationResult is the quote for applying a coupon to a subtotal.
// Validation has no side effects; the usage counter moves only inside
// the order-creation transaction.
type ValidationResult struct {
	Coupon        *models.Coupon `json:"-"`
	Code          string         `json:"code"`
	DiscountPaise int64          `json:"discount_paise"`
}

// Validate runs the checks in a fixed order, short-circuiting on the
// first failure: existence/active, validity window, minimum order,
// total usage cap, per-user cap.
func (s *CouponService) Validate(ctx context.Context, code string, subtotalPaise int64, userID uuid.UUID) (*ValidationResult, error) {
	coupon, err := s.finder.GetByCode(ctx, code)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.New(apperr.KindBusiness, "coupon not found or inactive")
		}
		return nil, fmt.Errorf("failed to look up coupon: %w", err)
	}
	if !coupon.Active {
		return nil, apperr.New(apperr.KindBusiness, "coupon not found or inactive")
	}

	now := s.now()
	if now.Before(coupon.ValidFrom) {
		return nil, apperr.New(apperr.KindBusiness, "coupon is not yet active")
	}
	if now.After(coupon.ValidUntil) {
		return nil, apperr.New(apperr.KindBusiness, "coupon has expired")
	}

	if subtotalPaise < coupon.MinOrderPaise {
		return nil, apperr.New(apperr.KindBusiness, "minimum order value not met")
	}

	if coupon.MaxUsage > 0 && coupon.UsageCount >= coupon.MaxUsage {
		return nil, apperr.New(apperr.KindBusiness, "coupon usage limit reached")
	}

	if coupon.PerUserLimit > 0 {
		used, err := s.finder.CountRedemptions(ctx, coupon.ID, userID)
		if err != nil {
			return nil, fmt.Errorf("failed to count redemptions: %w", err)
		}
		if used >= coupon.PerUserLimit {
			return nil, apperr.New(apperr.KindBusiness, "per-user limit reached")
		}
	}

	return &ValidationResult{
		Coupon:        coupon,
		Code:          coupon.Code,
		DiscountPaise: coupon.Discount(subtotalPaise),
	}, nil
}
