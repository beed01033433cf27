package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/getsentry/sentry-go"
	"github.com/getsentry/sentry-go/attribute"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vedacart/vedacart/internal/apperr"
	"github.com/vedacart/vedacart/internal/db"
	"github.com/vedacart/vedacart/internal/logging"
	"github.com/vedacart/vedacart/internal/models"
	"github.com/vedacart/vedacart/internal/observability"
	"github.com/vedacart/vedacart/internal/rates"
)

// couponValidator is the slice of the coupon service checkout needs.
type couponValidator interface {
	Validate(ctx context.Context, code string, subtotalPaise int64, userID uuid.UUID) (*ValidationResult, error)
}

// checkoutStores is the slice of the storage layer the assembler
// needs; an interface so checkout math is testable without a database.
type checkoutStores interface {
	CartLines(ctx context.Context, userID uuid.UUID) ([]models.CartItem, error)
	ClearCart(ctx context.Context, userID uuid.UUID) error
	Product(ctx context.Context, id uuid.UUID) (*models.Product, error)
	Variant(ctx context.Context, id uuid.UUID) (*models.Variant, error)
	Category(ctx context.Context, id uuid.UUID) (*models.Category, error)
	FulfillableStock(ctx context.Context, productID uuid.UUID, variantID *uuid.UUID, quantity int) (*models.Stock, error)
	Address(ctx context.Context, id, userID uuid.UUID) (*models.Address, error)
	User(ctx context.Context, id uuid.UUID) (*models.User, error)
	CreateCheckout(ctx context.Context, order *models.Order, decrements []db.StockDecrement, couponUse *db.CouponUse) error
}

// storeCheckout adapts the concrete stores.
type storeCheckout struct {
	pool       *pgxpool.Pool
	orders     *db.OrderStore
	carts      *db.CartStore
	products   *db.ProductStore
	categories *db.CategoryStore
	stock      *db.StockStore
	addresses  *db.AddressStore
	users      *db.UserStore
}

func (s storeCheckout) CartLines(ctx context.Context, userID uuid.UUID) ([]models.CartItem, error) {
	return s.carts.ListByUser(ctx, userID)
}

func (s storeCheckout) ClearCart(ctx context.Context, userID uuid.UUID) error {
	return s.carts.Clear(ctx, s.pool, userID)
}

func (s storeCheckout) Product(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	return s.products.GetByID(ctx, id)
}

func (s storeCheckout) Variant(ctx context.Context, id uuid.UUID) (*models.Variant, error) {
	return s.products.GetVariant(ctx, id)
}

func (s storeCheckout) Category(ctx context.Context, id uuid.UUID) (*models.Category, error) {
	return s.categories.GetByID(ctx, id)
}

func (s storeCheckout) FulfillableStock(ctx context.Context, productID uuid.UUID, variantID *uuid.UUID, quantity int) (*models.Stock, error) {
	return s.stock.FindFulfillable(ctx, productID, variantID, quantity)
}

func (s storeCheckout) Address(ctx context.Context, id, userID uuid.UUID) (*models.Address, error) {
	return s.addresses.GetForUser(ctx, id, userID)
}

func (s storeCheckout) User(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return s.users.GetByID(ctx, id)
}

func (s storeCheckout) CreateCheckout(ctx context.Context, order *models.Order, decrements []db.StockDecrement, couponUse *db.CouponUse) error {
	return s.orders.CreateCheckout(ctx, order, decrements, couponUse)
}

type OrderService struct {
	store       checkoutStores
	orderStore  *db.OrderStore
	coupons     couponValidator
	rates       *rates.Table
	emailSender OrderEmailSender
	logger      *slog.Logger
}

func NewOrderService(
	pool *pgxpool.Pool,
	orderStore *db.OrderStore,
	cartStore *db.CartStore,
	productStore *db.ProductStore,
	categoryStore *db.CategoryStore,
	stockStore *db.StockStore,
	addressStore *db.AddressStore,
	userStore *db.UserStore,
	coupons couponValidator,
	rateTable *rates.Table,
	emailSender OrderEmailSender,
	logger *slog.Logger,
) *OrderService {
	if emailSender == nil {
		emailSender = noopOrderEmailSender{}
	}

	return &OrderService{
		store: storeCheckout{
			pool:       pool,
			orders:     orderStore,
			carts:      cartStore,
			products:   productStore,
			categories: categoryStore,
			stock:      stockStore,
			addresses:  addressStore,
			users:      userStore,
		},
		orderStore:  orderStore,
		coupons:     coupons,
		rates:       rateTable,
		emailSender: emailSender,
		logger:      logger,
	}
}

func (s *OrderService) loggerFromContext(ctx context.Context) *slog.Logger {
	return logging.FromContext(ctx, s.logger)
}

type CheckoutLineInput struct {
	ProductID uuid.UUID  `json:"product_id" validate:"required"`
	VariantID *uuid.UUID `json:"variant_id,omitempty"`
	Quantity  int        `json:"quantity" validate:"required,gt=0"`
}

type CheckoutInput struct {
	// Lines empty means checkout from the persisted cart.
	Lines             []CheckoutLineInput `json:"lines,omitempty" validate:"dive"`
	ShippingAddressID uuid.UUID           `json:"shipping_address_id" validate:"required"`
	BillingAddressID  *uuid.UUID          `json:"billing_address_id,omitempty"`
	CouponCode        string              `json:"coupon_code,omitempty"`
	PaymentMethod     string              `json:"payment_method" validate:"required"`
}

// pricedLine is one checkout line after price, stock, and tax category
// resolution.
type pricedLine struct {
	line         models.Line
	productName  string
	unitPaise    int64
	weightGrams  int
	categorySlug string
	stockID      uuid.UUID
}

// Checkout assembles and persists an order: resolve lines, price them,
// reserve stock, quote the coupon, compute shipping and tax, then
// commit everything in one transaction. Stock and coupon caps are
// enforced inside that transaction, so a quote passing here can still
// fail on commit under concurrency.
func (s *OrderService) Checkout(ctx context.Context, userID uuid.UUID, input CheckoutInput) (*models.Order, error) {
	logger := s.loggerFromContext(ctx)
	meter := observability.MeterFromContext(ctx)
	meter.Count("checkout.received", 1)

	lines, fromCart, err := s.resolveLines(ctx, userID, input.Lines)
	if err != nil {
		return nil, err
	}

	priced, subtotal, err := s.priceLines(ctx, lines)
	if err != nil {
		return nil, err
	}

	shippingAddr, billingAddr, err := s.resolveAddresses(ctx, userID, input.ShippingAddressID, input.BillingAddressID)
	if err != nil {
		return nil, err
	}

	var discount int64
	var couponUse *db.CouponUse
	order := &models.Order{
		UserID:          userID,
		Status:          models.OrderPending,
		SubtotalPaise:   subtotal,
		PaymentMethod:   input.PaymentMethod,
		ShippingAddress: shippingAddr.Snapshot(),
		BillingAddress:  billingAddr.Snapshot(),
	}

	if input.CouponCode != "" {
		result, err := s.coupons.Validate(ctx, input.CouponCode, subtotal, userID)
		if err != nil {
			return nil, err
		}
		discount = result.DiscountPaise
		order.CouponID = &result.Coupon.ID
		order.CouponCode = result.Coupon.Code
		couponUse = &db.CouponUse{
			CouponID:     result.Coupon.ID,
			UserID:       userID,
			PerUserLimit: result.Coupon.PerUserLimit,
		}
	}

	var totalWeight int
	var tax int64
	decrements := make(map[uuid.UUID]int, len(priced))
	for _, p := range priced {
		lineSubtotal := p.unitPaise * int64(p.line.Quantity)
		tax += s.rates.TaxPaise(lineSubtotal, p.categorySlug)
		totalWeight += p.weightGrams * p.line.Quantity
		decrements[p.stockID] += p.line.Quantity

		order.Items = append(order.Items, models.OrderItem{
			ProductID:      p.line.ProductID,
			VariantID:      p.line.VariantID,
			ProductName:    p.productName,
			Quantity:       p.line.Quantity,
			UnitPricePaise: p.unitPaise,
			StockID:        p.stockID,
		})
	}

	shipping, err := s.rates.ShippingPaise(shippingAddr.Pincode, totalWeight)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindValidation, "shipping is not available for this pincode", err)
	}

	order.DiscountPaise = discount
	order.ShippingPaise = shipping
	order.TaxPaise = tax
	order.TotalPaise = subtotal - discount + shipping + tax
	if order.TotalPaise < 0 {
		order.TotalPaise = 0
	}

	stockDecrements := make([]db.StockDecrement, 0, len(decrements))
	for stockID, qty := range decrements {
		stockDecrements = append(stockDecrements, db.StockDecrement{StockID: stockID, Quantity: qty})
	}

	if err := s.store.CreateCheckout(ctx, order, stockDecrements, couponUse); err != nil {
		switch {
		case errors.Is(err, db.ErrInsufficientStock):
			meter.Count("checkout.rejected", 1, sentry.WithAttributes(attribute.String("reason", "stock")))
			return nil, apperr.New(apperr.KindBusiness, "insufficient stock")
		case errors.Is(err, db.ErrCouponExhausted):
			meter.Count("checkout.rejected", 1, sentry.WithAttributes(attribute.String("reason", "coupon")))
			return nil, apperr.New(apperr.KindBusiness, "coupon usage limit reached")
		case errors.Is(err, db.ErrCouponPerUserLimit):
			meter.Count("checkout.rejected", 1, sentry.WithAttributes(attribute.String("reason", "coupon")))
			return nil, apperr.New(apperr.KindBusiness, "per-user limit reached")
		}
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	if fromCart {
		if err := s.store.ClearCart(ctx, userID); err != nil {
			logger.Error("failed to clear cart after checkout", "error", err, "user_id", userID)
		}
	}

	if user, err := s.store.User(ctx, userID); err == nil {
		if err := s.emailSender.SendOrderConfirmation(ctx, user, order); err != nil {
			logger.Error("failed to send order confirmation", "error", err, "order_id", order.ID)
		}
	}

	meter.Count("checkout.processed", 1)
	logger.Info("order created", "order_id", order.ID, "order_number", order.OrderNumber, "total_paise", order.TotalPaise)
	return order, nil
}

func (s *OrderService) resolveLines(ctx context.Context, userID uuid.UUID, inputs []CheckoutLineInput) ([]models.Line, bool, error) {
	if len(inputs) > 0 {
		lines := make([]models.Line, 0, len(inputs))
		for _, in := range inputs {
			lines = append(lines, models.Line{ProductID: in.ProductID, VariantID: in.VariantID, Quantity: in.Quantity})
		}
		return lines, false, nil
	}

	items, err := s.store.CartLines(ctx, userID)
	if err != nil {
		return nil, false, fmt.Errorf("failed to load cart: %w", err)
	}
	if len(items) == 0 {
		return nil, false, apperr.New(apperr.KindValidation, "cart is empty")
	}

	lines := make([]models.Line, 0, len(items))
	for _, item := range items {
		lines = append(lines, models.Line{ProductID: item.ProductID, VariantID: item.VariantID, Quantity: item.Quantity})
	}
	return lines, true, nil
}

func (s *OrderService) priceLines(ctx context.Context, lines []models.Line) ([]pricedLine, int64, error) {
	priced := make([]pricedLine, 0, len(lines))
	var subtotal int64

	for _, line := range lines {
		product, err := s.store.Product(ctx, line.ProductID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, 0, apperr.New(apperr.KindNotFound, "product not found")
			}
			return nil, 0, fmt.Errorf("failed to load product: %w", err)
		}
		if !product.Active {
			return nil, 0, apperr.Newf(apperr.KindBusiness, "product %s is no longer available", product.Name)
		}

		name := product.Name
		unit := product.PricePaise
		if line.VariantID != nil {
			variant, err := s.store.Variant(ctx, *line.VariantID)
			if err != nil {
				if errors.Is(err, pgx.ErrNoRows) {
					return nil, 0, apperr.New(apperr.KindNotFound, "variant not found")
				}
				return nil, 0, fmt.Errorf("failed to load variant: %w", err)
			}
			if variant.ProductID != product.ID || !variant.Active {
				return nil, 0, apperr.New(apperr.KindValidation, "variant does not belong to product")
			}
			name = fmt.Sprintf("%s (%s)", product.Name, variant.Name)
			if variant.PricePaise > 0 {
				unit = variant.PricePaise
			}
		}

		category, err := s.store.Category(ctx, product.CategoryID)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to load category: %w", err)
		}

		stock, err := s.store.FulfillableStock(ctx, line.ProductID, line.VariantID, line.Quantity)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, 0, apperr.New(apperr.KindBusiness, "insufficient stock")
			}
			return nil, 0, fmt.Errorf("failed to check stock: %w", err)
		}

		subtotal += unit * int64(line.Quantity)
		priced = append(priced, pricedLine{
			line:         line,
			productName:  name,
			unitPaise:    unit,
			weightGrams:  product.WeightGrams,
			categorySlug: category.Slug,
			stockID:      stock.ID,
		})
	}

	return priced, subtotal, nil
}

func (s *OrderService) resolveAddresses(ctx context.Context, userID, shippingID uuid.UUID, billingID *uuid.UUID) (*models.Address, *models.Address, error) {
	shipping, err := s.store.Address(ctx, shippingID, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil, apperr.New(apperr.KindNotFound, "shipping address not found")
		}
		return nil, nil, fmt.Errorf("failed to load shipping address: %w", err)
	}

	billing := shipping
	if billingID != nil && *billingID != shippingID {
		billing, err = s.store.Address(ctx, *billingID, userID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, nil, apperr.New(apperr.KindNotFound, "billing address not found")
			}
			return nil, nil, fmt.Errorf("failed to load billing address: %w", err)
		}
	}

	return shipping, billing, nil
}

func (s *OrderService) Get(ctx context.Context, orderID, userID uuid.UUID, isAdmin bool) (*models.Order, error) {
	order, err := s.orderStore.GetByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.New(apperr.KindNotFound, "order not found")
		}
		return nil, fmt.Errorf("failed to load order: %w", err)
	}
	if !isAdmin && order.UserID != userID {
		return nil, apperr.New(apperr.KindNotFound, "order not found")
	}
	return order, nil
}

func (s *OrderService) ListForUser(ctx context.Context, userID uuid.UUID, limit int) ([]models.Order, error) {
	orders, err := s.orderStore.ListByUser(ctx, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	return orders, nil
}

// Cancel is allowed from pending only and restocks every line.
func (s *OrderService) Cancel(ctx context.Context, orderID, userID uuid.UUID, isAdmin bool) error {
	if _, err := s.Get(ctx, orderID, userID, isAdmin); err != nil {
		return err
	}

	if err := s.orderStore.Cancel(ctx, orderID, userID); err != nil {
		if errors.Is(err, db.ErrInvalidStatusTransition) {
			return apperr.New(apperr.KindConflict, "order can no longer be cancelled")
		}
		return fmt.Errorf("failed to cancel order: %w", err)
	}

	s.loggerFromContext(ctx).Info("order cancelled", "order_id", orderID, "actor_id", userID)
	return nil
}

// MarkDelivered and MarkCompleted are the admin-driven tail of the
// order lifecycle; earlier transitions happen via webhook and scheduler.
func (s *OrderService) MarkDelivered(ctx context.Context, orderID uuid.UUID) error {
	return s.adminTransition(ctx, s.orderStore.MarkDelivered, orderID, "delivered")
}

func (s *OrderService) MarkCompleted(ctx context.Context, orderID uuid.UUID) error {
	return s.adminTransition(ctx, s.orderStore.MarkCompleted, orderID, "completed")
}

func (s *OrderService) adminTransition(ctx context.Context, fn func(context.Context, uuid.UUID) error, orderID uuid.UUID, target string) error {
	if err := fn(ctx, orderID); err != nil {
		if errors.Is(err, db.ErrInvalidStatusTransition) {
			return apperr.Newf(apperr.KindConflict, "order cannot move to %s from its current status", target)
		}
		return fmt.Errorf("failed to transition order: %w", err)
	}
	s.loggerFromContext(ctx).Info("order status updated", "order_id", orderID, "status", target)
	return nil
}
