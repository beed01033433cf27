package payment

import (
	"context"
	"encoding/json"
	"fmt"

	stripeapi "github.com/stripe/stripe-go/v84"
	"github.com/stripe/stripe-go/v84/webhook"
)

// StripeClient implements Gateway on top of Stripe PaymentIntents.
type StripeClient struct {
	client        *stripeapi.Client
	webhookSecret string
}

func NewStripeClient(secretKey, webhookSecret string) *StripeClient {
	return &StripeClient{
		client:        stripeapi.NewClient(secretKey),
		webhookSecret: webhookSecret,
	}
}

func (c *StripeClient) Name() string { return "stripe" }

func (c *StripeClient) CreateOrder(ctx context.Context, amountPaise int64, receipt string) (*GatewayOrder, error) {
	params := &stripeapi.PaymentIntentCreateParams{
		Amount:   stripeapi.Int64(amountPaise),
		Currency: stripeapi.String(string(stripeapi.CurrencyINR)),
		Metadata: map[string]string{"receipt": receipt},
	}

	intent, err := c.client.V1PaymentIntents.Create(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("failed to create payment intent: %w", err)
	}

	return &GatewayOrder{ID: intent.ID, AmountPaise: intent.Amount, Currency: string(intent.Currency)}, nil
}

func (c *StripeClient) Refund(ctx context.Context, gatewayPaymentID string, amountPaise int64) error {
	params := &stripeapi.RefundCreateParams{
		PaymentIntent: stripeapi.String(gatewayPaymentID),
		Amount:        stripeapi.Int64(amountPaise),
	}

	if _, err := c.client.V1Refunds.Create(ctx, params); err != nil {
		return fmt.Errorf("failed to create refund: %w", err)
	}
	return nil
}

// ParseWebhook validates the Stripe-Signature header and normalizes the
// payment_intent event into a WebhookEvent.
func (c *StripeClient) ParseWebhook(payload []byte, signature string) (*WebhookEvent, error) {
	event, err := webhook.ConstructEvent(payload, signature, c.webhookSecret)
	if err != nil {
		return nil, ErrInvalidSignature
	}

	var intent stripeapi.PaymentIntent
	if err := json.Unmarshal(event.Data.Raw, &intent); err != nil {
		return nil, fmt.Errorf("failed to decode webhook payload: %w", err)
	}
	if intent.ID == "" {
		return nil, fmt.Errorf("webhook payload missing payment intent id")
	}

	return &WebhookEvent{
		ID:               event.ID,
		GatewayOrderID:   intent.ID,
		GatewayPaymentID: intent.ID,
		Captured:         event.Type == "payment_intent.succeeded",
	}, nil
}
