// Package email provides email templates.
package email

import (
	"bytes"
	"context"
	"fmt"
	"text/template"
)

// OrderInfo contains all the information needed for order email templates
type OrderInfo struct {
	OrderNumber     string
	CustomerName    string
	CustomerEmail   string
	ShippingAddress string
	WaybillNumber   string
	CourierName     string
	Items           []OrderItem
	Subtotal        string
	Discount        string
	Shipping        string
	Tax             string
	Total           string
	Refund          string
	ReturnStatus    string
	ReturnReason    string
}

// OrderItem represents a single item in an order
type OrderItem struct {
	Name       string
	SKU        string
	Quantity   int
	UnitPrice  string
	TotalPrice string
}

// EmailTemplate defines a named email template
type EmailTemplate struct {
	Name    string
	Subject string
	HTML    string
	Text    string
}

// Renderer provides methods to render email templates
type Renderer struct {
	templates *template.Template
}

// FormatPaise renders an integer paise amount as rupees for display.
func FormatPaise(paise int64) string {
	sign := ""
	if paise < 0 {
		sign = "-"
		paise = -paise
	}
	return fmt.Sprintf("%s₹%d.%02d", sign, paise/100, paise%100)
}

// NewRenderer creates a new email template renderer with built-in templates
func NewRenderer() (*Renderer, error) {
	templates := map[string]EmailTemplate{
		"order_confirmation": {
			Name: "Order Confirmation",
			HTML: orderConfirmationHTML,
			Text: orderConfirmationText,
		},
		"payment_receipt": {
			Name: "Payment Receipt",
			HTML: paymentReceiptHTML,
			Text: paymentReceiptText,
		},
		"order_shipped": {
			Name: "Order Shipped",
			HTML: orderShippedHTML,
			Text: orderShippedText,
		},
		"return_update": {
			Name: "Return Update",
			HTML: returnUpdateHTML,
			Text: returnUpdateText,
		},
	}

	tmpl := template.New("email")

	for key, t := range templates {
		if _, err := tmpl.New(key + "_html").Parse(t.HTML); err != nil {
			return nil, fmt.Errorf("failed to parse HTML template %s: %w", key, err)
		}
		if _, err := tmpl.New(key + "_text").Parse(t.Text); err != nil {
			return nil, fmt.Errorf("failed to parse text template %s: %w", key, err)
		}
	}

	return &Renderer{
		templates: tmpl,
	}, nil
}

// Render renders an email template with the given data
func (r *Renderer) Render(ctx context.Context, templateName string, data *OrderInfo) (*Email, error) {
	var htmlBuf, textBuf bytes.Buffer

	err := r.templates.ExecuteTemplate(&htmlBuf, templateName+"_html", data)
	if err != nil {
		return nil, fmt.Errorf("failed to render HTML template: %w", err)
	}

	err = r.templates.ExecuteTemplate(&textBuf, templateName+"_text", data)
	if err != nil {
		return nil, fmt.Errorf("failed to render text template: %w", err)
	}

	subject := ""
	switch templateName {
	case "order_confirmation":
		subject = fmt.Sprintf("Order Confirmed - %s", data.OrderNumber)
	case "payment_receipt":
		subject = fmt.Sprintf("Payment Received - %s", data.OrderNumber)
	case "order_shipped":
		subject = fmt.Sprintf("Your Order Has Shipped - %s", data.OrderNumber)
	case "return_update":
		subject = fmt.Sprintf("Update on Your Return - %s", data.OrderNumber)
	}

	return &Email{
		To:      data.CustomerEmail,
		Subject: subject,
		Text:    textBuf.String(),
		HTML:    htmlBuf.String(),
	}, nil
}

func send(ctx context.Context, p Provider, templateName string, orderInfo *OrderInfo) error {
	if p == nil {
		return nil
	}

	renderer, err := NewRenderer()
	if err != nil {
		return fmt.Errorf("failed to create renderer: %w", err)
	}

	email, err := renderer.Render(ctx, templateName, orderInfo)
	if err != nil {
		return fmt.Errorf("failed to render template: %w", err)
	}

	return p.SendEmail(ctx, email)
}

// SendOrderConfirmation sends an order confirmation email
func SendOrderConfirmation(ctx context.Context, p Provider, orderInfo *OrderInfo) error {
	return send(ctx, p, "order_confirmation", orderInfo)
}

// SendPaymentReceipt sends a payment receipt email
func SendPaymentReceipt(ctx context.Context, p Provider, orderInfo *OrderInfo) error {
	return send(ctx, p, "payment_receipt", orderInfo)
}

// SendOrderShipped sends an order shipped email
func SendOrderShipped(ctx context.Context, p Provider, orderInfo *OrderInfo) error {
	return send(ctx, p, "order_shipped", orderInfo)
}

// SendReturnUpdate sends a return status update email
func SendReturnUpdate(ctx context.Context, p Provider, orderInfo *OrderInfo) error {
	return send(ctx, p, "return_update", orderInfo)
}

const orderConfirmationText = `Thank you for your order!

Hi {{.CustomerName}},

We have received your order {{.OrderNumber}}.

Items:
{{range .Items}}- {{.Name}} ({{.SKU}}) x{{.Quantity}} - {{.TotalPrice}}
{{end}}
Subtotal: {{.Subtotal}}
{{if .Discount}}Discount: -{{.Discount}}
{{end}}Shipping: {{.Shipping}}
Tax: {{.Tax}}
Total: {{.Total}}

Shipping to:
{{.ShippingAddress}}

We will email you again once your payment is confirmed.
`

const orderConfirmationHTML = `<html>
<body style="font-family: sans-serif; color: #333;">
  <h2>Thank you for your order!</h2>
  <p>Hi {{.CustomerName}},</p>
  <p>We have received your order <strong>{{.OrderNumber}}</strong>.</p>
  <table cellpadding="6" cellspacing="0" border="0">
    {{range .Items}}<tr><td>{{.Name}} ({{.SKU}})</td><td>x{{.Quantity}}</td><td align="right">{{.TotalPrice}}</td></tr>
    {{end}}
    <tr><td colspan="2">Subtotal</td><td align="right">{{.Subtotal}}</td></tr>
    {{if .Discount}}<tr><td colspan="2">Discount</td><td align="right">-{{.Discount}}</td></tr>{{end}}
    <tr><td colspan="2">Shipping</td><td align="right">{{.Shipping}}</td></tr>
    <tr><td colspan="2">Tax</td><td align="right">{{.Tax}}</td></tr>
    <tr><td colspan="2"><strong>Total</strong></td><td align="right"><strong>{{.Total}}</strong></td></tr>
  </table>
  <p>Shipping to:<br>{{.ShippingAddress}}</p>
  <p>We will email you again once your payment is confirmed.</p>
</body>
</html>`

const paymentReceiptText = `Payment received

Hi {{.CustomerName}},

We have received your payment of {{.Total}} for order {{.OrderNumber}}.
Your order is now being prepared for dispatch.
`

const paymentReceiptHTML = `<html>
<body style="font-family: sans-serif; color: #333;">
  <h2>Payment received</h2>
  <p>Hi {{.CustomerName}},</p>
  <p>We have received your payment of <strong>{{.Total}}</strong> for order <strong>{{.OrderNumber}}</strong>.</p>
  <p>Your order is now being prepared for dispatch.</p>
</body>
</html>`

const orderShippedText = `Your order is on its way!

Hi {{.CustomerName}},

Order {{.OrderNumber}} has been handed to {{.CourierName}}.

Waybill number: {{.WaybillNumber}}

Shipping to:
{{.ShippingAddress}}
`

const orderShippedHTML = `<html>
<body style="font-family: sans-serif; color: #333;">
  <h2>Your order is on its way!</h2>
  <p>Hi {{.CustomerName}},</p>
  <p>Order <strong>{{.OrderNumber}}</strong> has been handed to {{.CourierName}}.</p>
  <p>Waybill number: <strong>{{.WaybillNumber}}</strong></p>
  <p>Shipping to:<br>{{.ShippingAddress}}</p>
</body>
</html>`

const returnUpdateText = `Update on your return

Hi {{.CustomerName}},

Your return request for order {{.OrderNumber}} is now: {{.ReturnStatus}}.
{{if .Refund}}
A refund of {{.Refund}} has been initiated to your original payment method.
{{end}}`

const returnUpdateHTML = `<html>
<body style="font-family: sans-serif; color: #333;">
  <h2>Update on your return</h2>
  <p>Hi {{.CustomerName}},</p>
  <p>Your return request for order <strong>{{.OrderNumber}}</strong> is now: <strong>{{.ReturnStatus}}</strong>.</p>
  {{if .Refund}}<p>A refund of <strong>{{.Refund}}</strong> has been initiated to your original payment method.</p>{{end}}
</body>
</html>`
