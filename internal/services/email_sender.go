package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/vedacart/vedacart/internal/email"
	"github.com/vedacart/vedacart/internal/models"
)

// OrderEmailSender sends the customer-facing lifecycle emails. The noop
// implementation keeps email strictly best-effort in tests and when no
// provider is configured.
type OrderEmailSender interface {
	SendOrderConfirmation(ctx context.Context, user *models.User, order *models.Order) error
	SendPaymentReceipt(ctx context.Context, user *models.User, order *models.Order) error
	SendOrderShipped(ctx context.Context, user *models.User, order *models.Order, shipment *models.Shipment) error
	SendReturnUpdate(ctx context.Context, user *models.User, order *models.Order, ret *models.ReturnRequest, refundPaise int64) error
}

type ProviderOrderEmailSender struct {
	provider email.Provider
}

func NewProviderOrderEmailSender(provider email.Provider) *ProviderOrderEmailSender {
	return &ProviderOrderEmailSender{provider: provider}
}

func buildOrderInfo(user *models.User, order *models.Order) *email.OrderInfo {
	info := &email.OrderInfo{
		OrderNumber:   fmt.Sprintf("VC-%d", order.OrderNumber),
		CustomerName:  user.Name,
		CustomerEmail: user.Email,
		Subtotal:      email.FormatPaise(order.SubtotalPaise),
		Shipping:      email.FormatPaise(order.ShippingPaise),
		Tax:           email.FormatPaise(order.TaxPaise),
		Total:         email.FormatPaise(order.TotalPaise),
	}
	if order.DiscountPaise > 0 {
		info.Discount = email.FormatPaise(order.DiscountPaise)
	}
	if addr := order.ShippingAddress; addr != nil {
		parts := []string{addr.Name, addr.Line1}
		if addr.Line2 != "" {
			parts = append(parts, addr.Line2)
		}
		parts = append(parts, fmt.Sprintf("%s, %s %s", addr.City, addr.State, addr.Pincode), addr.Country)
		info.ShippingAddress = strings.Join(parts, "\n")
	}
	for _, item := range order.Items {
		info.Items = append(info.Items, email.OrderItem{
			Name:       item.ProductName,
			Quantity:   item.Quantity,
			UnitPrice:  email.FormatPaise(item.UnitPricePaise),
			TotalPrice: email.FormatPaise(item.UnitPricePaise * int64(item.Quantity)),
		})
	}
	return info
}

func (s *ProviderOrderEmailSender) SendOrderConfirmation(ctx context.Context, user *models.User, order *models.Order) error {
	return email.SendOrderConfirmation(ctx, s.provider, buildOrderInfo(user, order))
}

func (s *ProviderOrderEmailSender) SendPaymentReceipt(ctx context.Context, user *models.User, order *models.Order) error {
	return email.SendPaymentReceipt(ctx, s.provider, buildOrderInfo(user, order))
}

func (s *ProviderOrderEmailSender) SendOrderShipped(ctx context.Context, user *models.User, order *models.Order, shipment *models.Shipment) error {
	info := buildOrderInfo(user, order)
	info.WaybillNumber = shipment.WaybillNumber
	info.CourierName = shipment.CourierName
	return email.SendOrderShipped(ctx, s.provider, info)
}

func (s *ProviderOrderEmailSender) SendReturnUpdate(ctx context.Context, user *models.User, order *models.Order, ret *models.ReturnRequest, refundPaise int64) error {
	info := buildOrderInfo(user, order)
	info.ReturnStatus = string(ret.Status)
	info.ReturnReason = ret.Reason
	if refundPaise > 0 {
		info.Refund = email.FormatPaise(refundPaise)
	}
	return email.SendReturnUpdate(ctx, s.provider, info)
}

type noopOrderEmailSender struct{}

func (noopOrderEmailSender) SendOrderConfirmation(context.Context, *models.User, *models.Order) error {
	return nil
}

func (noopOrderEmailSender) SendPaymentReceipt(context.Context, *models.User, *models.Order) error {
	return nil
}

func (noopOrderEmailSender) SendOrderShipped(context.Context, *models.User, *models.Order, *models.Shipment) error {
	return nil
}

func (noopOrderEmailSender) SendReturnUpdate(context.Context, *models.User, *models.Order, *models.ReturnRequest, int64) error {
	return nil
}
