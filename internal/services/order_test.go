package services

import (
	"context"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/vedacart/vedacart/internal/apperr"
	"github.com/vedacart/vedacart/internal/db"
	"github.com/vedacart/vedacart/internal/models"
	"github.com/vedacart/vedacart/internal/rates"
)

type fakeCheckoutStores struct {
	cart        []models.CartItem
	products    map[uuid.UUID]*models.Product
	variants    map[uuid.UUID]*models.Variant
	categories  map[uuid.UUID]*models.Category
	stock       map[uuid.UUID]*models.Stock
	addresses   map[uuid.UUID]*models.Address
	users       map[uuid.UUID]*models.User
	created     []*models.Order
	checkoutErr error
	cleared     bool
}

func (f *fakeCheckoutStores) CartLines(context.Context, uuid.UUID) ([]models.CartItem, error) {
	return f.cart, nil
}

func (f *fakeCheckoutStores) ClearCart(context.Context, uuid.UUID) error {
	f.cleared = true
	return nil
}

func (f *fakeCheckoutStores) Product(_ context.Context, id uuid.UUID) (*models.Product, error) {
	if p, ok := f.products[id]; ok {
		return p, nil
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeCheckoutStores) Variant(_ context.Context, id uuid.UUID) (*models.Variant, error) {
	if v, ok := f.variants[id]; ok {
		return v, nil
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeCheckoutStores) Category(_ context.Context, id uuid.UUID) (*models.Category, error) {
	if c, ok := f.categories[id]; ok {
		return c, nil
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeCheckoutStores) FulfillableStock(_ context.Context, productID uuid.UUID, _ *uuid.UUID, quantity int) (*models.Stock, error) {
	if s, ok := f.stock[productID]; ok && s.Quantity >= quantity {
		return s, nil
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeCheckoutStores) Address(_ context.Context, id, _ uuid.UUID) (*models.Address, error) {
	if a, ok := f.addresses[id]; ok {
		return a, nil
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeCheckoutStores) User(_ context.Context, id uuid.UUID) (*models.User, error) {
	if u, ok := f.users[id]; ok {
		return u, nil
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeCheckoutStores) CreateCheckout(_ context.Context, order *models.Order, _ []db.StockDecrement, _ *db.CouponUse) error {
	if f.checkoutErr != nil {
		return f.checkoutErr
	}
	order.ID = uuid.New()
	order.OrderNumber = int64(1000 + len(f.created))
	f.created = append(f.created, order)
	return nil
}

type stubCouponValidator struct {
	result *ValidationResult
	err    error
}

func (s stubCouponValidator) Validate(context.Context, string, int64, uuid.UUID) (*ValidationResult, error) {
	return s.result, s.err
}

func checkoutRates() *rates.Table {
	return &rates.Table{
		Tax: rates.TaxConfig{
			DefaultPercent: 12,
			Categories:     map[string]int64{"supplements": 5},
		},
		Shipping: rates.ShippingConfig{
			Zones: []rates.Zone{
				{Name: "south", PincodePrefixes: []string{"5"}},
				{Name: "rest"},
			},
			Slabs: []rates.Slab{
				{MaxWeightGrams: 500, Rates: map[string]int64{"south": 4_000, "rest": 6_000}},
				{MaxWeightGrams: 0, Rates: map[string]int64{"south": 9_000, "rest": 12_000}},
			},
		},
	}
}

type checkoutFixture struct {
	service   *OrderService
	store     *fakeCheckoutStores
	userID    uuid.UUID
	productID uuid.UUID
	addressID uuid.UUID
}

// newCheckoutFixture seeds one user with a Bengaluru address and one
// supplement at 200.00 per unit, 150g, 10 in stock.
func newCheckoutFixture(t *testing.T) *checkoutFixture {
	t.Helper()

	userID := uuid.New()
	productID := uuid.New()
	categoryID := uuid.New()
	addressID := uuid.New()

	store := &fakeCheckoutStores{
		products: map[uuid.UUID]*models.Product{
			productID: {
				ID:          productID,
				CategoryID:  categoryID,
				SKU:         "ASHWA-60",
				Name:        "Ashwagandha Capsules",
				PricePaise:  20_000,
				WeightGrams: 150,
				Active:      true,
			},
		},
		variants: map[uuid.UUID]*models.Variant{},
		categories: map[uuid.UUID]*models.Category{
			categoryID: {ID: categoryID, Name: "Supplements", Slug: "supplements", Active: true},
		},
		stock: map[uuid.UUID]*models.Stock{
			productID: {ID: uuid.New(), ProductID: productID, Quantity: 10},
		},
		addresses: map[uuid.UUID]*models.Address{
			addressID: {
				ID:      addressID,
				UserID:  userID,
				Name:    "Asha Rao",
				Phone:   "9876543210",
				Line1:   "14 MG Road",
				City:    "Bengaluru",
				State:   "Karnataka",
				Pincode: "560001",
				Country: "India",
			},
		},
		users: map[uuid.UUID]*models.User{
			userID: {ID: userID, Name: "Asha Rao", Email: "asha@example.com"},
		},
	}

	service := &OrderService{
		store:       store,
		rates:       checkoutRates(),
		emailSender: noopOrderEmailSender{},
		logger:      slog.Default(),
	}
	return &checkoutFixture{
		service:   service,
		store:     store,
		userID:    userID,
		productID: productID,
		addressID: addressID,
	}
}

func TestCheckoutTotalIdentity(t *testing.T) {
	t.Parallel()

	f := newCheckoutFixture(t)
	coupon := &models.Coupon{ID: uuid.New(), Code: "SAVE10", PerUserLimit: 1}
	f.service.coupons = stubCouponValidator{result: &ValidationResult{
		Coupon:        coupon,
		Code:          coupon.Code,
		DiscountPaise: 6_000,
	}}

	order, err := f.service.Checkout(context.Background(), f.userID, CheckoutInput{
		Lines:             []CheckoutLineInput{{ProductID: f.productID, Quantity: 3}},
		ShippingAddressID: f.addressID,
		CouponCode:        "SAVE10",
		PaymentMethod:     "razorpay",
	})
	if err != nil {
		t.Fatalf("Checkout() error = %v", err)
	}

	// 3 x 20000 subtotal, 5% tax, 450g to a "5" pincode.
	if order.SubtotalPaise != 60_000 {
		t.Errorf("subtotal = %d, want 60000", order.SubtotalPaise)
	}
	if order.DiscountPaise != 6_000 {
		t.Errorf("discount = %d, want 6000", order.DiscountPaise)
	}
	if order.ShippingPaise != 4_000 {
		t.Errorf("shipping = %d, want 4000", order.ShippingPaise)
	}
	if order.TaxPaise != 3_000 {
		t.Errorf("tax = %d, want 3000", order.TaxPaise)
	}
	want := order.SubtotalPaise - order.DiscountPaise + order.ShippingPaise + order.TaxPaise
	if order.TotalPaise != want || order.TotalPaise != 61_000 {
		t.Errorf("total = %d, want %d", order.TotalPaise, want)
	}

	if len(order.Items) != 1 {
		t.Fatalf("items = %d, want 1", len(order.Items))
	}
	if order.Items[0].UnitPricePaise != 20_000 || order.Items[0].Quantity != 3 {
		t.Errorf("item = %+v", order.Items[0])
	}
	if order.Items[0].StockID == uuid.Nil {
		t.Error("item has no fulfilling stock row")
	}
	if f.store.cleared {
		t.Error("cart cleared on a buy-now checkout")
	}
}

func TestCheckoutTotalNeverNegative(t *testing.T) {
	t.Parallel()

	f := newCheckoutFixture(t)
	coupon := &models.Coupon{ID: uuid.New(), Code: "OVERSHOOT"}
	f.service.coupons = stubCouponValidator{result: &ValidationResult{
		Coupon:        coupon,
		Code:          coupon.Code,
		DiscountPaise: 100_000,
	}}

	order, err := f.service.Checkout(context.Background(), f.userID, CheckoutInput{
		Lines:             []CheckoutLineInput{{ProductID: f.productID, Quantity: 3}},
		ShippingAddressID: f.addressID,
		CouponCode:        "OVERSHOOT",
		PaymentMethod:     "razorpay",
	})
	if err != nil {
		t.Fatalf("Checkout() error = %v", err)
	}
	if order.TotalPaise != 0 {
		t.Errorf("total = %d, want 0", order.TotalPaise)
	}
}

func TestCheckoutInsufficientStock(t *testing.T) {
	t.Parallel()

	t.Run("at pricing", func(t *testing.T) {
		t.Parallel()

		f := newCheckoutFixture(t)
		_, err := f.service.Checkout(context.Background(), f.userID, CheckoutInput{
			Lines:             []CheckoutLineInput{{ProductID: f.productID, Quantity: 11}},
			ShippingAddressID: f.addressID,
			PaymentMethod:     "razorpay",
		})
		if apperr.KindOf(err) != apperr.KindBusiness {
			t.Fatalf("kind = %v, want business", apperr.KindOf(err))
		}
		if len(f.store.created) != 0 {
			t.Errorf("created %d orders, want 0", len(f.store.created))
		}
	})

	t.Run("at commit", func(t *testing.T) {
		t.Parallel()

		// The quote passed but a concurrent checkout drained the row
		// before the conditional update ran.
		f := newCheckoutFixture(t)
		f.store.checkoutErr = db.ErrInsufficientStock
		_, err := f.service.Checkout(context.Background(), f.userID, CheckoutInput{
			Lines:             []CheckoutLineInput{{ProductID: f.productID, Quantity: 3}},
			ShippingAddressID: f.addressID,
			PaymentMethod:     "razorpay",
		})
		if apperr.KindOf(err) != apperr.KindBusiness {
			t.Fatalf("kind = %v, want business", apperr.KindOf(err))
		}
	})
}

func TestCheckoutFromCartClearsCart(t *testing.T) {
	t.Parallel()

	f := newCheckoutFixture(t)
	f.store.cart = []models.CartItem{
		{ID: uuid.New(), UserID: f.userID, ProductID: f.productID, Quantity: 2},
	}

	order, err := f.service.Checkout(context.Background(), f.userID, CheckoutInput{
		ShippingAddressID: f.addressID,
		PaymentMethod:     "razorpay",
	})
	if err != nil {
		t.Fatalf("Checkout() error = %v", err)
	}
	if order.SubtotalPaise != 40_000 {
		t.Errorf("subtotal = %d, want 40000", order.SubtotalPaise)
	}
	if !f.store.cleared {
		t.Error("cart not cleared after checkout")
	}
}
