// Package shipping abstracts the courier aggregator used to dispatch
// paid orders.
package shipping

import (
	"context"
	"time"

	"github.com/vedacart/vedacart/internal/models"
)

// Request carries everything the carrier needs to book a pickup for an
// order. Addresses are the immutable snapshots taken at checkout.
type Request struct {
	OrderNumber     string
	ShippingAddress models.AddressSnapshot
	WeightGrams     int
	AmountPaise     int64
	Items           []RequestItem
}

type RequestItem struct {
	Name     string
	SKU      string
	Quantity int
	// UnitPaise is the captured per-unit price, not the live catalog one.
	UnitPaise int64
}

// Result is the booking confirmation returned by the carrier.
type Result struct {
	WaybillNumber     string
	CourierName       string
	PickupScheduledAt time.Time
	EstimatedDelivery time.Time
}

type Carrier interface {
	Name() string
	// Serviceable reports whether the carrier delivers to the pincode.
	Serviceable(ctx context.Context, pincode string) (bool, error)
	// CreateShipment books a pickup and assigns a waybill.
	CreateShipment(ctx context.Context, req *Request) (*Result, error)
}
