package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/vedacart/vedacart/internal/crypto"
	"github.com/vedacart/vedacart/internal/observability"
)

const razorpayBaseURL = "https://api.razorpay.com/v1"

// RazorpayClient talks to the Razorpay REST API with basic auth.
type RazorpayClient struct {
	keyID         string
	keySecret     string
	webhookSecret string
	baseURL       string
	httpClient    *http.Client
}

func NewRazorpayClient(keyID, keySecret, webhookSecret string) *RazorpayClient {
	return &RazorpayClient{
		keyID:         keyID,
		keySecret:     keySecret,
		webhookSecret: webhookSecret,
		baseURL:       razorpayBaseURL,
		httpClient:    observability.NewHTTPClient(30 * time.Second),
	}
}

// NewRazorpayClientWithBaseURL is used by tests to point at a fake server.
func NewRazorpayClientWithBaseURL(keyID, keySecret, webhookSecret, baseURL string) *RazorpayClient {
	c := NewRazorpayClient(keyID, keySecret, webhookSecret)
	c.baseURL = baseURL
	return c
}

func (c *RazorpayClient) Name() string { return "razorpay" }

type razorpayOrderResponse struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Status   string `json:"status"`
}

type razorpayErrorResponse struct {
	Error struct {
		Code        string `json:"code"`
		Description string `json:"description"`
	} `json:"error"`
}

func (c *RazorpayClient) CreateOrder(ctx context.Context, amountPaise int64, receipt string) (*GatewayOrder, error) {
	body := map[string]any{
		"amount":   amountPaise,
		"currency": "INR",
		"receipt":  receipt,
	}

	var resp razorpayOrderResponse
	if err := c.post(ctx, "/orders", body, &resp); err != nil {
		return nil, err
	}
	return &GatewayOrder{ID: resp.ID, AmountPaise: resp.Amount, Currency: resp.Currency}, nil
}

func (c *RazorpayClient) Refund(ctx context.Context, gatewayPaymentID string, amountPaise int64) error {
	body := map[string]any{"amount": amountPaise}
	return c.post(ctx, fmt.Sprintf("/payments/%s/refund", gatewayPaymentID), body, nil)
}

func (c *RazorpayClient) post(ctx context.Context, path string, body any, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to encode razorpay request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create razorpay request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth(c.keyID, c.keySecret)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("razorpay request failed: %w", err)
	}
	respBody, readErr := io.ReadAll(resp.Body)
	closeErr := resp.Body.Close()
	if readErr != nil {
		return fmt.Errorf("failed to read razorpay response: %w", readErr)
	}
	if closeErr != nil {
		return fmt.Errorf("failed to close razorpay response body: %w", closeErr)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var errResp razorpayErrorResponse
		if json.Unmarshal(respBody, &errResp) == nil && errResp.Error.Description != "" {
			return fmt.Errorf("razorpay error: %s", errResp.Error.Description)
		}
		return fmt.Errorf("razorpay API returned status %d: %s", resp.StatusCode, string(respBody))
	}

	if out != nil {
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("failed to decode razorpay response: %w", err)
		}
	}
	return nil
}

// VerifyWebhookSignature checks the X-Razorpay-Signature header value
// against the raw request body in constant time.
func (c *RazorpayClient) VerifyWebhookSignature(payload []byte, signature string) bool {
	return crypto.VerifyHMAC(c.webhookSecret, payload, signature)
}

// VerifyCallbackSignature checks the checkout callback signature, which
// is computed over "<orderID>|<paymentID>" with the key secret.
func (c *RazorpayClient) VerifyCallbackSignature(gatewayOrderID, gatewayPaymentID, signature string) bool {
	return crypto.VerifyHMAC(c.keySecret, []byte(gatewayOrderID+"|"+gatewayPaymentID), signature)
}

type razorpayWebhookBody struct {
	Event   string `json:"event"`
	Payload struct {
		Payment struct {
			Entity struct {
				ID      string `json:"id"`
				OrderID string `json:"order_id"`
				Status  string `json:"status"`
			} `json:"entity"`
		} `json:"payment"`
	} `json:"payload"`
}

// ParseWebhook verifies the signature and decodes the payment entity.
// A bad signature returns ErrInvalidSignature before any decoding of
// untrusted input is acted on.
func (c *RazorpayClient) ParseWebhook(payload []byte, signature string) (*WebhookEvent, error) {
	if !c.VerifyWebhookSignature(payload, signature) {
		return nil, ErrInvalidSignature
	}

	var body razorpayWebhookBody
	if err := json.Unmarshal(payload, &body); err != nil {
		return nil, fmt.Errorf("failed to decode webhook payload: %w", err)
	}
	entity := body.Payload.Payment.Entity
	if entity.OrderID == "" {
		return nil, fmt.Errorf("webhook payload missing order id")
	}

	return &WebhookEvent{
		ID:               entity.ID + ":" + body.Event,
		GatewayOrderID:   entity.OrderID,
		GatewayPaymentID: entity.ID,
		Captured:         body.Event == "payment.captured" || entity.Status == "captured",
	}, nil
}
