package models

import (
	"time"

	"github.com/google/uuid"
)

type DiscountType string

const (
	DiscountPercentage DiscountType = "percentage"
	DiscountFixed      DiscountType = "fixed"
)

// Coupon usage accounting: UsageCount is incremented only inside the
// order-creation transaction and must never exceed MaxUsage. A zero
// MaxUsage or PerUserLimit means "no cap".
type Coupon struct {
	ID            uuid.UUID    `json:"id"`
	Code          string       `json:"code"`
	Type          DiscountType `json:"type"`
	Value         int64        `json:"value"`
	MinOrderPaise int64        `json:"min_order_paise"`
	MaxUsage      int          `json:"max_usage"`
	PerUserLimit  int          `json:"per_user_limit"`
	ValidFrom     time.Time    `json:"valid_from"`
	ValidUntil    time.Time    `json:"valid_until"`
	Active        bool         `json:"active"`
	UsageCount    int          `json:"usage_count"`
	CreatedAt     time.Time    `json:"created_at"`
}

// Discount computes the discount for a subtotal in paise, capped at the
// subtotal. For percentage coupons Value is a whole percent and the
// result truncates toward zero.
func (c *Coupon) Discount(subtotalPaise int64) int64 {
	var discount int64
	switch c.Type {
	case DiscountPercentage:
		discount = subtotalPaise * c.Value / 100
	case DiscountFixed:
		discount = c.Value
	}
	if discount > subtotalPaise {
		discount = subtotalPaise
	}
	if discount < 0 {
		discount = 0
	}
	return discount
}

// CouponRedemption records one successful use of a coupon by a user.
// Rows are written in the same transaction as the order.
type CouponRedemption struct {
	ID       uuid.UUID `json:"id"`
	CouponID uuid.UUID `json:"coupon_id"`
	UserID   uuid.UUID `json:"user_id"`
	OrderID  uuid.UUID `json:"order_id"`
	UsedAt   time.Time `json:"used_at"`
}
