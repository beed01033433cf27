package models

import (
	"time"

	"github.com/google/uuid"
)

type OrderStatus string

const (
	OrderPending    OrderStatus = "pending"
	OrderProcessing OrderStatus = "processing"
	OrderShipped    OrderStatus = "shipped"
	OrderDelivered  OrderStatus = "delivered"
	OrderCompleted  OrderStatus = "completed"
	OrderCancelled  OrderStatus = "cancelled"
)

// AddressSnapshot is an immutable copy of an address taken at checkout.
// Later edits to the user's address book never alter historical orders.
type AddressSnapshot struct {
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Line1   string `json:"line1"`
	Line2   string `json:"line2,omitempty"`
	City    string `json:"city"`
	State   string `json:"state"`
	Pincode string `json:"pincode"`
	Country string `json:"country"`
}

// Order monetary fields are integer paise. The stored invariant is
// TotalPaise == SubtotalPaise - DiscountPaise + ShippingPaise + TaxPaise,
// clamped at zero.
type Order struct {
	ID              uuid.UUID        `json:"id"`
	OrderNumber     int64            `json:"order_number"`
	UserID          uuid.UUID        `json:"user_id"`
	Status          OrderStatus      `json:"status"`
	SubtotalPaise   int64            `json:"subtotal_paise"`
	DiscountPaise   int64            `json:"discount_paise"`
	ShippingPaise   int64            `json:"shipping_paise"`
	TaxPaise        int64            `json:"tax_paise"`
	TotalPaise      int64            `json:"total_paise"`
	CouponID        *uuid.UUID       `json:"coupon_id,omitempty"`
	CouponCode      string           `json:"coupon_code,omitempty"`
	PaymentMethod   string           `json:"payment_method"`
	ShippingAddress *AddressSnapshot `json:"shipping_address"`
	BillingAddress  *AddressSnapshot `json:"billing_address"`
	Items           []OrderItem      `json:"items,omitempty"`
	DeliveredAt     *time.Time       `json:"delivered_at,omitempty"`
	CreatedAt       time.Time        `json:"created_at"`
	UpdatedAt       time.Time        `json:"updated_at"`
}

// OrderItem captures the unit price at order time, decoupled from the
// live product price.
type OrderItem struct {
	ID             uuid.UUID  `json:"id"`
	OrderID        uuid.UUID  `json:"order_id"`
	ProductID      uuid.UUID  `json:"product_id"`
	VariantID      *uuid.UUID `json:"variant_id,omitempty"`
	ProductName    string     `json:"product_name"`
	Quantity       int        `json:"quantity"`
	UnitPricePaise int64      `json:"unit_price_paise"`

	// StockID records which stock row fulfilled the line so a
	// cancellation or approved return can restock the same row.
	StockID uuid.UUID `json:"-"`
}

// Line is one (product, variant?, quantity) entry of a checkout request,
// sourced from the cart or supplied directly for buy-now.
type Line struct {
	ProductID uuid.UUID
	VariantID *uuid.UUID
	Quantity  int
}
