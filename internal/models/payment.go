package models

import (
	"time"

	"github.com/google/uuid"
)

type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "pending"
	PaymentSuccess  PaymentStatus = "success"
	PaymentFailed   PaymentStatus = "failed"
	PaymentRefunded PaymentStatus = "refunded"
)

// Payment is one-to-one with its order. RefundPaise never exceeds
// AmountPaise.
type Payment struct {
	ID               uuid.UUID     `json:"id"`
	OrderID          uuid.UUID     `json:"order_id"`
	Gateway          string        `json:"gateway"`
	GatewayOrderID   string        `json:"gateway_order_id"`
	GatewayPaymentID string        `json:"gateway_payment_id,omitempty"`
	Method           string        `json:"method"`
	Status           PaymentStatus `json:"status"`
	AmountPaise      int64         `json:"amount_paise"`
	RefundPaise      int64         `json:"refund_paise"`
	CreatedAt        time.Time     `json:"created_at"`
	UpdatedAt        time.Time     `json:"updated_at"`
}

// Shipment is one-to-one with its order, populated asynchronously by
// the scheduler after payment.
type Shipment struct {
	ID                uuid.UUID  `json:"id"`
	OrderID           uuid.UUID  `json:"order_id"`
	WaybillNumber     string     `json:"waybill_number"`
	CourierName       string     `json:"courier_name"`
	CarrierShipmentID string     `json:"carrier_shipment_id,omitempty"`
	PickupScheduledAt *time.Time `json:"pickup_scheduled_at,omitempty"`
	EstimatedDelivery *time.Time `json:"estimated_delivery,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
}
