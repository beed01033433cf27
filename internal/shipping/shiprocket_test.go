package shipping

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/vedacart/vedacart/internal/models"
)

func newFakeShiprocket(t *testing.T, loginCount *atomic.Int32) *httptest.Server {
	t.Helper()

	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		switch r.URL.Path {
		case "/v1/external/auth/login":
			loginCount.Add(1)
			var creds map[string]string
			if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
				t.Fatalf("failed to decode login body: %v", err)
			}
			if creds["email"] != "ops@example.com" || creds["password"] != "hunter2" {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			_, _ = w.Write([]byte(`{"token":"tok_test"}`))

		case "/v1/external/courier/serviceability/":
			if r.Header.Get("Authorization") != "Bearer tok_test" {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			if r.URL.Query().Get("delivery_postcode") == "999999" {
				_, _ = w.Write([]byte(`{"status":200,"data":{"available_courier_companies":[]}}`))
				return
			}
			_, _ = w.Write([]byte(`{"status":200,"data":{"available_courier_companies":[{"courier_name":"Delhivery"}]}}`))

		case "/v1/external/orders/create/adhoc":
			if r.Header.Get("Authorization") != "Bearer tok_test" {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			var body map[string]any
			if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
				t.Fatalf("failed to decode order body: %v", err)
			}
			if body["order_id"] != "VC-20260831-0001" {
				t.Errorf("unexpected order_id: %v", body["order_id"])
			}
			_, _ = w.Write([]byte(`{"shipment_id":42,"awb_code":"AWB123456","courier_name":"Delhivery","pickup_scheduled_date":"2026-09-01 11:00:00","expected_delivery_date":"2026-09-04"}`))

		default:
			t.Errorf("unexpected path: %s", r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}))
}

func TestShiprocketCreateShipment(t *testing.T) {
	t.Parallel()

	var logins atomic.Int32
	srv := newFakeShiprocket(t, &logins)
	defer srv.Close()

	client := NewShiprocketClient(srv.URL, "ops@example.com", "hunter2")

	result, err := client.CreateShipment(context.Background(), &Request{
		OrderNumber: "VC-20260831-0001",
		ShippingAddress: models.AddressSnapshot{
			Name:    "Asha Rao",
			Phone:   "9876543210",
			Line1:   "12 MG Road",
			City:    "Bengaluru",
			State:   "Karnataka",
			Pincode: "560001",
			Country: "India",
		},
		WeightGrams: 500,
		AmountPaise: 149900,
		Items:       []RequestItem{{Name: "Ashwagandha 60ct", SKU: "ASH-60", Quantity: 2, UnitPaise: 74950}},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.WaybillNumber != "AWB123456" {
		t.Errorf("expected AWB123456, got %s", result.WaybillNumber)
	}
	if result.CourierName != "Delhivery" {
		t.Errorf("expected Delhivery, got %s", result.CourierName)
	}
	if result.PickupScheduledAt.IsZero() {
		t.Error("expected pickup time to be parsed")
	}
}

func TestShiprocketTokenReuse(t *testing.T) {
	t.Parallel()

	var logins atomic.Int32
	srv := newFakeShiprocket(t, &logins)
	defer srv.Close()

	client := NewShiprocketClient(srv.URL, "ops@example.com", "hunter2")

	for range 3 {
		ok, err := client.Serviceable(context.Background(), "560001")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !ok {
			t.Fatal("expected pincode to be serviceable")
		}
	}

	if got := logins.Load(); got != 1 {
		t.Errorf("expected a single login, got %d", got)
	}
}

func TestShiprocketNotServiceable(t *testing.T) {
	t.Parallel()

	var logins atomic.Int32
	srv := newFakeShiprocket(t, &logins)
	defer srv.Close()

	client := NewShiprocketClient(srv.URL, "ops@example.com", "hunter2")

	ok, err := client.Serviceable(context.Background(), "999999")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Error("expected pincode to be unserviceable")
	}
}
