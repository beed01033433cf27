package services

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/vedacart/vedacart/internal/apperr"
	"github.com/vedacart/vedacart/internal/models"
)

type fakeCouponFinder struct {
	coupons     map[string]*models.Coupon
	redemptions map[uuid.UUID]int
}

func (f *fakeCouponFinder) GetByCode(_ context.Context, code string) (*models.Coupon, error) {
	c, ok := f.coupons[code]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	cp := *c
	return &cp, nil
}

func (f *fakeCouponFinder) CountRedemptions(_ context.Context, couponID, _ uuid.UUID) (int, error) {
	return f.redemptions[couponID], nil
}

func TestCouponValidate(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
	save10 := &models.Coupon{
		ID:            uuid.New(),
		Code:          "SAVE10",
		Type:          models.DiscountPercentage,
		Value:         10,
		MinOrderPaise: 50_000,
		MaxUsage:      100,
		PerUserLimit:  1,
		ValidFrom:     now.Add(-24 * time.Hour),
		ValidUntil:    now.Add(24 * time.Hour),
		Active:        true,
	}
	flat200 := &models.Coupon{
		ID:         uuid.New(),
		Code:       "FLAT200",
		Type:       models.DiscountFixed,
		Value:      20_000,
		ValidFrom:  now.Add(-24 * time.Hour),
		ValidUntil: now.Add(24 * time.Hour),
		Active:     true,
	}
	inactive := &models.Coupon{
		ID:         uuid.New(),
		Code:       "DEAD",
		Type:       models.DiscountFixed,
		Value:      100,
		ValidFrom:  now.Add(-24 * time.Hour),
		ValidUntil: now.Add(24 * time.Hour),
		Active:     false,
	}
	future := &models.Coupon{
		ID:         uuid.New(),
		Code:       "SOON",
		Type:       models.DiscountFixed,
		Value:      100,
		ValidFrom:  now.Add(time.Hour),
		ValidUntil: now.Add(48 * time.Hour),
		Active:     true,
	}
	expired := &models.Coupon{
		ID:         uuid.New(),
		Code:       "GONE",
		Type:       models.DiscountFixed,
		Value:      100,
		ValidFrom:  now.Add(-48 * time.Hour),
		ValidUntil: now.Add(-time.Hour),
		Active:     true,
	}
	exhausted := &models.Coupon{
		ID:         uuid.New(),
		Code:       "FULL",
		Type:       models.DiscountFixed,
		Value:      100,
		MaxUsage:   2,
		UsageCount: 2,
		ValidFrom:  now.Add(-24 * time.Hour),
		ValidUntil: now.Add(24 * time.Hour),
		Active:     true,
	}

	userID := uuid.New()
	finder := &fakeCouponFinder{
		coupons: map[string]*models.Coupon{
			"SAVE10":  save10,
			"FLAT200": flat200,
			"DEAD":    inactive,
			"SOON":    future,
			"GONE":    expired,
			"FULL":    exhausted,
		},
		redemptions: map[uuid.UUID]int{},
	}
	service := &CouponService{
		finder: finder,
		now:    func() time.Time { return now },
		logger: slog.Default(),
	}

	tests := []struct {
		name         string
		code         string
		subtotal     int64
		wantDiscount int64
		wantMessage  string
	}{
		{
			name:         "percentage discount on qualifying subtotal",
			code:         "SAVE10",
			subtotal:     120_000,
			wantDiscount: 12_000,
		},
		{
			name:         "fixed discount",
			code:         "FLAT200",
			subtotal:     35_000,
			wantDiscount: 20_000,
		},
		{
			name:         "fixed discount clamps at subtotal",
			code:         "FLAT200",
			subtotal:     15_000,
			wantDiscount: 15_000,
		},
		{
			name:        "unknown code",
			code:        "NOPE",
			subtotal:    120_000,
			wantMessage: "coupon not found or inactive",
		},
		{
			name:        "inactive coupon",
			code:        "DEAD",
			subtotal:    120_000,
			wantMessage: "coupon not found or inactive",
		},
		{
			name:        "not yet active",
			code:        "SOON",
			subtotal:    120_000,
			wantMessage: "coupon is not yet active",
		},
		{
			name:        "expired",
			code:        "GONE",
			subtotal:    120_000,
			wantMessage: "coupon has expired",
		},
		{
			name:        "below minimum order",
			code:        "SAVE10",
			subtotal:    40_000,
			wantMessage: "minimum order value not met",
		},
		{
			name:        "usage cap reached",
			code:        "FULL",
			subtotal:    120_000,
			wantMessage: "coupon usage limit reached",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			result, err := service.Validate(context.Background(), tt.code, tt.subtotal, userID)
			if tt.wantMessage != "" {
				if err == nil {
					t.Fatalf("expected error %q, got result %+v", tt.wantMessage, result)
				}
				if kind := apperr.KindOf(err); kind != apperr.KindBusiness {
					t.Errorf("kind = %v, want KindBusiness", kind)
				}
				if msg := apperr.Message(err); msg != tt.wantMessage {
					t.Errorf("message = %q, want %q", msg, tt.wantMessage)
				}
				return
			}
			if err != nil {
				t.Fatalf("Validate() error = %v", err)
			}
			if result.DiscountPaise != tt.wantDiscount {
				t.Errorf("discount = %d, want %d", result.DiscountPaise, tt.wantDiscount)
			}
			if result.Code != tt.code {
				t.Errorf("code = %q, want %q", result.Code, tt.code)
			}
		})
	}
}

func TestCouponValidatePerUserLimit(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
	coupon := &models.Coupon{
		ID:           uuid.New(),
		Code:         "ONCE",
		Type:         models.DiscountPercentage,
		Value:        10,
		PerUserLimit: 1,
		ValidFrom:    now.Add(-time.Hour),
		ValidUntil:   now.Add(time.Hour),
		Active:       true,
	}
	finder := &fakeCouponFinder{
		coupons:     map[string]*models.Coupon{"ONCE": coupon},
		redemptions: map[uuid.UUID]int{coupon.ID: 1},
	}
	service := &CouponService{
		finder: finder,
		now:    func() time.Time { return now },
		logger: slog.Default(),
	}

	_, err := service.Validate(context.Background(), "ONCE", 100_000, uuid.New())
	if err == nil {
		t.Fatal("expected per-user limit error")
	}
	if msg := apperr.Message(err); msg != "per-user limit reached" {
		t.Errorf("message = %q, want %q", msg, "per-user limit reached")
	}

	// A user with no prior redemptions passes.
	finder.redemptions = map[uuid.UUID]int{}
	result, err := service.Validate(context.Background(), "ONCE", 100_000, uuid.New())
	if err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if result.DiscountPaise != 10_000 {
		t.Errorf("discount = %d, want 10000", result.DiscountPaise)
	}
}
