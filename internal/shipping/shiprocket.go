package shipping

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/vedacart/vedacart/internal/observability"
)

// tokenLifetime is shorter than Shiprocket's advertised 10 days so a
// stale token is refreshed well before the API starts rejecting it.
const tokenLifetime = 7 * 24 * time.Hour

// ShiprocketClient implements Carrier against the Shiprocket external
// API. Auth tokens are obtained lazily and cached until close to expiry.
type ShiprocketClient struct {
	baseURL    string
	email      string
	password   string
	httpClient *http.Client

	mu           sync.Mutex
	token        string
	tokenExpires time.Time
}

func NewShiprocketClient(baseURL, email, password string) *ShiprocketClient {
	return &ShiprocketClient{
		baseURL:    baseURL,
		email:      email,
		password:   password,
		httpClient: observability.NewHTTPClient(30 * time.Second),
	}
}

func (c *ShiprocketClient) Name() string { return "shiprocket" }

type shiprocketLoginResponse struct {
	Token string `json:"token"`
}

func (c *ShiprocketClient) authToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.token != "" && time.Now().Before(c.tokenExpires) {
		return c.token, nil
	}

	body := map[string]string{"email": c.email, "password": c.password}
	var resp shiprocketLoginResponse
	if err := c.do(ctx, http.MethodPost, "/v1/external/auth/login", "", body, &resp); err != nil {
		return "", fmt.Errorf("shiprocket login failed: %w", err)
	}
	if resp.Token == "" {
		return "", fmt.Errorf("shiprocket login returned empty token")
	}

	c.token = resp.Token
	c.tokenExpires = time.Now().Add(tokenLifetime)
	return c.token, nil
}

type shiprocketServiceabilityResponse struct {
	Status int `json:"status"`
	Data   struct {
		AvailableCourierCompanies []struct {
			CourierName string `json:"courier_name"`
		} `json:"available_courier_companies"`
	} `json:"data"`
}

func (c *ShiprocketClient) Serviceable(ctx context.Context, pincode string) (bool, error) {
	token, err := c.authToken(ctx)
	if err != nil {
		return false, err
	}

	path := "/v1/external/courier/serviceability/?" + url.Values{
		"delivery_postcode": {pincode},
		"weight":            {"1"},
		"cod":               {"0"},
	}.Encode()

	var resp shiprocketServiceabilityResponse
	if err := c.do(ctx, http.MethodGet, path, token, nil, &resp); err != nil {
		return false, err
	}
	return len(resp.Data.AvailableCourierCompanies) > 0, nil
}

type shiprocketOrderResponse struct {
	ShipmentID           int64  `json:"shipment_id"`
	AWBCode              string `json:"awb_code"`
	CourierName          string `json:"courier_name"`
	PickupScheduledDate  string `json:"pickup_scheduled_date"`
	ExpectedDeliveryDate string `json:"expected_delivery_date"`
}

func (c *ShiprocketClient) CreateShipment(ctx context.Context, req *Request) (*Result, error) {
	token, err := c.authToken(ctx)
	if err != nil {
		return nil, err
	}

	items := make([]map[string]any, 0, len(req.Items))
	for _, item := range req.Items {
		items = append(items, map[string]any{
			"name":          item.Name,
			"sku":           item.SKU,
			"units":         item.Quantity,
			"selling_price": float64(item.UnitPaise) / 100,
		})
	}

	// Shiprocket rejects bookings with zero weight.
	weightGrams := req.WeightGrams
	if weightGrams <= 0 {
		weightGrams = 500
	}

	addr := req.ShippingAddress
	body := map[string]any{
		"order_id":              req.OrderNumber,
		"order_date":            time.Now().Format("2006-01-02 15:04"),
		"billing_customer_name": addr.Name,
		"billing_address":       addr.Line1,
		"billing_address_2":     addr.Line2,
		"billing_city":          addr.City,
		"billing_state":         addr.State,
		"billing_pincode":       addr.Pincode,
		"billing_country":       addr.Country,
		"billing_phone":         addr.Phone,
		"shipping_is_billing":   true,
		"order_items":           items,
		"payment_method":        "Prepaid",
		"sub_total":             float64(req.AmountPaise) / 100,
		"weight":                float64(weightGrams) / 1000,
		"length":                10,
		"breadth":               10,
		"height":                10,
	}

	var resp shiprocketOrderResponse
	if err := c.do(ctx, http.MethodPost, "/v1/external/orders/create/adhoc", token, body, &resp); err != nil {
		return nil, err
	}
	if resp.AWBCode == "" {
		return nil, fmt.Errorf("shiprocket did not assign a waybill for order %s", req.OrderNumber)
	}

	result := &Result{
		WaybillNumber: resp.AWBCode,
		CourierName:   resp.CourierName,
	}
	if t, err := time.Parse("2006-01-02 15:04:05", resp.PickupScheduledDate); err == nil {
		result.PickupScheduledAt = t
	} else {
		result.PickupScheduledAt = time.Now()
	}
	if t, err := time.Parse("2006-01-02", resp.ExpectedDeliveryDate); err == nil {
		result.EstimatedDelivery = t
	}
	return result, nil
}

func (c *ShiprocketClient) do(ctx context.Context, method, path, token string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode shiprocket request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create shiprocket request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("shiprocket request failed: %w", err)
	}
	respBody, readErr := io.ReadAll(resp.Body)
	closeErr := resp.Body.Close()
	if readErr != nil {
		return fmt.Errorf("failed to read shiprocket response: %w", readErr)
	}
	if closeErr != nil {
		return fmt.Errorf("failed to close shiprocket response body: %w", closeErr)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("shiprocket API returned status %d: %s", resp.StatusCode, string(respBody))
	}

	if out != nil {
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("failed to decode shiprocket response: %w", err)
		}
	}
	return nil
}
