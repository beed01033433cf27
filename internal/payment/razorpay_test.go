package payment

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/vedacart/vedacart/internal/crypto"
)

func mustSign(t *testing.T, secret string, payload []byte) string {
	t.Helper()
	signature, err := crypto.SignHMAC(secret, payload)
	if err != nil {
		t.Fatalf("failed to sign payload: %v", err)
	}
	return signature
}

func TestRazorpayCreateOrder(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/orders" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		user, pass, ok := r.BasicAuth()
		if !ok || user != "key_test" || pass != "secret_test" {
			t.Errorf("unexpected basic auth: %s / %s", user, pass)
		}

		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("failed to decode request body: %v", err)
		}
		if body["currency"] != "INR" {
			t.Errorf("expected INR currency, got %v", body["currency"])
		}
		if body["amount"] != float64(149900) {
			t.Errorf("expected amount 149900, got %v", body["amount"])
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"order_test123","amount":149900,"currency":"INR","status":"created"}`))
	}))
	defer srv.Close()

	client := NewRazorpayClientWithBaseURL("key_test", "secret_test", "wh_secret", srv.URL)

	order, err := client.CreateOrder(context.Background(), 149900, "rcpt_1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if order.ID != "order_test123" {
		t.Errorf("expected order_test123, got %s", order.ID)
	}
	if order.AmountPaise != 149900 {
		t.Errorf("expected 149900 paise, got %d", order.AmountPaise)
	}
}

func TestRazorpayCreateOrderAPIError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"code":"BAD_REQUEST_ERROR","description":"amount must be at least INR 1.00"}}`))
	}))
	defer srv.Close()

	client := NewRazorpayClientWithBaseURL("key_test", "secret_test", "wh_secret", srv.URL)

	_, err := client.CreateOrder(context.Background(), 10, "rcpt_1")
	if err == nil {
		t.Fatal("expected error for API failure")
	}
}

func TestRazorpayParseWebhook(t *testing.T) {
	t.Parallel()

	secret := "wh_secret"
	payload := []byte(`{"event":"payment.captured","payload":{"payment":{"entity":{"id":"pay_abc","order_id":"order_xyz","status":"captured"}}}}`)
	signature := mustSign(t, secret, payload)

	client := NewRazorpayClient("key_test", "secret_test", secret)

	event, err := client.ParseWebhook(payload, signature)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if event.GatewayOrderID != "order_xyz" {
		t.Errorf("expected order_xyz, got %s", event.GatewayOrderID)
	}
	if event.GatewayPaymentID != "pay_abc" {
		t.Errorf("expected pay_abc, got %s", event.GatewayPaymentID)
	}
	if !event.Captured {
		t.Error("expected captured event")
	}
}

func TestRazorpayParseWebhookBadSignature(t *testing.T) {
	t.Parallel()

	client := NewRazorpayClient("key_test", "secret_test", "wh_secret")
	payload := []byte(`{"event":"payment.captured","payload":{"payment":{"entity":{"id":"pay_abc","order_id":"order_xyz"}}}}`)

	tests := []struct {
		name      string
		signature string
	}{
		{name: "empty", signature: ""},
		{name: "garbage", signature: "deadbeef"},
		{name: "wrong secret", signature: mustSign(t, "other_secret", payload)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := client.ParseWebhook(payload, tt.signature)
			if !errors.Is(err, ErrInvalidSignature) {
				t.Fatalf("expected ErrInvalidSignature, got %v", err)
			}
		})
	}
}

func TestRazorpayCallbackSignature(t *testing.T) {
	t.Parallel()

	client := NewRazorpayClient("key_test", "secret_test", "wh_secret")

	valid := mustSign(t, "secret_test", []byte("order_xyz|pay_abc"))
	if !client.VerifyCallbackSignature("order_xyz", "pay_abc", valid) {
		t.Error("expected valid callback signature to verify")
	}
	if client.VerifyCallbackSignature("order_xyz", "pay_other", valid) {
		t.Error("expected signature over different payment id to fail")
	}
}
