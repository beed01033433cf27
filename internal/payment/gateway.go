// Package payment abstracts the payment service providers. Razorpay is
// the primary gateway; Stripe is the swap point for card/international
// payments.
package payment

import (
	"context"
	"errors"
)

var ErrInvalidSignature = errors.New("invalid payment signature")

// GatewayOrder is the remote payment session opened for an order total.
type GatewayOrder struct {
	ID          string
	AmountPaise int64
	Currency    string
}

type Gateway interface {
	Name() string
	// CreateOrder opens a payment session for the amount, keyed by a
	// merchant receipt reference.
	CreateOrder(ctx context.Context, amountPaise int64, receipt string) (*GatewayOrder, error)
	// Refund returns (part of) a captured payment.
	Refund(ctx context.Context, gatewayPaymentID string, amountPaise int64) error
	// ParseWebhook verifies the gateway signature over the raw body and
	// decodes the event. Returns ErrInvalidSignature on a bad signature.
	ParseWebhook(payload []byte, signature string) (*WebhookEvent, error)
}

// WebhookEvent is the normalized payload of a gateway callback.
type WebhookEvent struct {
	ID               string
	GatewayOrderID   string
	GatewayPaymentID string
	Captured         bool
}
