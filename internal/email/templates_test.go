package email

import (
	"context"
	"strings"
	"testing"
)

func TestFormatPaise(t *testing.T) {
	t.Parallel()

	tests := []struct {
		paise int64
		want  string
	}{
		{paise: 0, want: "₹0.00"},
		{paise: 5, want: "₹0.05"},
		{paise: 149900, want: "₹1499.00"},
		{paise: 100050, want: "₹1000.50"},
		{paise: -2500, want: "-₹25.00"},
	}

	for _, tt := range tests {
		if got := FormatPaise(tt.paise); got != tt.want {
			t.Errorf("FormatPaise(%d) = %s, want %s", tt.paise, got, tt.want)
		}
	}
}

func TestRenderOrderConfirmation(t *testing.T) {
	t.Parallel()

	renderer, err := NewRenderer()
	if err != nil {
		t.Fatalf("failed to create renderer: %v", err)
	}

	info := &OrderInfo{
		OrderNumber:   "VC-20260831-0001",
		CustomerName:  "Asha Rao",
		CustomerEmail: "asha@example.com",
		Items: []OrderItem{
			{Name: "Ashwagandha 60ct", SKU: "ASH-60", Quantity: 2, UnitPrice: "₹749.50", TotalPrice: "₹1499.00"},
		},
		Subtotal: "₹1499.00",
		Discount: "₹149.90",
		Shipping: "₹50.00",
		Tax:      "₹67.46",
		Total:    "₹1466.56",
	}

	msg, err := renderer.Render(context.Background(), "order_confirmation", info)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if msg.To != "asha@example.com" {
		t.Errorf("unexpected recipient: %s", msg.To)
	}
	if !strings.Contains(msg.Subject, "VC-20260831-0001") {
		t.Errorf("subject missing order number: %s", msg.Subject)
	}
	for _, want := range []string{"Ashwagandha 60ct", "₹1466.56", "₹149.90"} {
		if !strings.Contains(msg.HTML, want) {
			t.Errorf("HTML body missing %q", want)
		}
		if !strings.Contains(msg.Text, want) {
			t.Errorf("text body missing %q", want)
		}
	}
}

func TestRenderReturnUpdateWithoutRefund(t *testing.T) {
	t.Parallel()

	renderer, err := NewRenderer()
	if err != nil {
		t.Fatalf("failed to create renderer: %v", err)
	}

	msg, err := renderer.Render(context.Background(), "return_update", &OrderInfo{
		OrderNumber:   "VC-20260831-0002",
		CustomerName:  "Asha Rao",
		CustomerEmail: "asha@example.com",
		ReturnStatus:  "rejected",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.Contains(msg.Text, "refund") {
		t.Errorf("rejected return should not mention a refund: %s", msg.Text)
	}
	if !strings.Contains(msg.Text, "rejected") {
		t.Errorf("text body missing status: %s", msg.Text)
	}
}
