package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/vedacart/vedacart/internal/config"
	"github.com/vedacart/vedacart/internal/handlers"
)

type Server struct {
	cfg        *config.Config
	logger     *slog.Logger
	handlers   *handlers.Handlers
	httpServer *http.Server
}

func New(cfg *config.Config, logger *slog.Logger, h *handlers.Handlers) (*Server, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if h == nil {
		return nil, fmt.Errorf("handlers are required")
	}

	s := &Server{
		cfg:      cfg,
		logger:   logger,
		handlers: h,
	}

	router := s.buildRouter()
	s.httpServer = &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	return s, nil
}

func (s *Server) Run() error {
	s.logger.Info("server starting", "port", s.cfg.Port)

	err := s.httpServer.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (s *Server) Close(ctx context.Context) error {
	if s == nil || s.httpServer == nil {
		return nil
	}

	s.logger.Info("server shutting down")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return err
	}
	s.logger.Info("server stopped")
	return nil
}

func (s *Server) buildRouter() *mux.Router {
	h := s.handlers

	r := mux.NewRouter()
	r.Use(h.RequestLogger)
	r.Use(h.MetricsContext)
	r.Use(h.SecurityHeaders)
	r.HandleFunc("/health", h.Health).Methods("GET").Name("health")

	// The gateway authenticates webhooks by signature, not bearer token.
	r.HandleFunc("/webhooks/razorpay", h.PaymentWebhook).Methods("POST").Name("webhooks.razorpay")
	r.HandleFunc("/webhooks/stripe", h.PaymentWebhook).Methods("POST").Name("webhooks.stripe")

	api := r.PathPrefix("/api/v1").Subrouter()

	// Public storefront reads and account creation.
	api.HandleFunc("/auth/register", h.Register).Methods("POST").Name("auth.register")
	api.HandleFunc("/auth/login", h.Login).Methods("POST").Name("auth.login")
	api.HandleFunc("/categories", h.ListCategories).Methods("GET").Name("categories.list")
	api.HandleFunc("/products", h.ListProducts).Methods("GET").Name("products.list")
	api.HandleFunc("/products/{id}", h.GetProduct).Methods("GET").Name("products.get")
	api.HandleFunc("/banners", h.ListBanners).Methods("GET").Name("banners.list")

	// Authenticated customer routes.
	account := api.NewRoute().Subrouter()
	account.Use(h.Authenticate)
	account.HandleFunc("/profile", h.Profile).Methods("GET").Name("profile")

	account.HandleFunc("/addresses", h.ListAddresses).Methods("GET").Name("addresses.list")
	account.HandleFunc("/addresses", h.CreateAddress).Methods("POST").Name("addresses.create")
	account.HandleFunc("/addresses/{id}", h.UpdateAddress).Methods("PUT").Name("addresses.update")
	account.HandleFunc("/addresses/{id}", h.DeleteAddress).Methods("DELETE").Name("addresses.delete")

	account.HandleFunc("/cart", h.ListCart).Methods("GET").Name("cart.list")
	account.HandleFunc("/cart", h.AddToCart).Methods("POST").Name("cart.add")
	account.HandleFunc("/cart", h.ClearCart).Methods("DELETE").Name("cart.clear")
	account.HandleFunc("/cart/{id}", h.RemoveFromCart).Methods("DELETE").Name("cart.remove")
	account.HandleFunc("/wishlist", h.ListWishlist).Methods("GET").Name("wishlist.list")
	account.HandleFunc("/wishlist/{productID}", h.AddToWishlist).Methods("POST").Name("wishlist.add")
	account.HandleFunc("/wishlist/{productID}", h.RemoveFromWishlist).Methods("DELETE").Name("wishlist.remove")

	account.HandleFunc("/coupons/validate", h.ValidateCoupon).Methods("POST").Name("coupons.validate")

	account.HandleFunc("/orders", h.Checkout).Methods("POST").Name("orders.checkout")
	account.HandleFunc("/orders", h.ListOrders).Methods("GET").Name("orders.list")
	account.HandleFunc("/orders/{id}", h.GetOrder).Methods("GET").Name("orders.get")
	account.HandleFunc("/orders/{id}/cancel", h.CancelOrder).Methods("POST").Name("orders.cancel")
	account.HandleFunc("/orders/{id}/payment", h.InitiatePayment).Methods("POST").Name("payments.initiate")
	account.HandleFunc("/orders/{id}/payment", h.GetPayment).Methods("GET").Name("payments.get")
	account.HandleFunc("/orders/{id}/shipment", h.GetShipment).Methods("GET").Name("shipments.get")
	account.HandleFunc("/payments/callback", h.PaymentCallback).Methods("POST").Name("payments.callback")

	account.HandleFunc("/returns", h.RequestReturn).Methods("POST").Name("returns.request")
	account.HandleFunc("/returns", h.ListReturns).Methods("GET").Name("returns.list")

	account.HandleFunc("/consultations", h.BookConsultation).Methods("POST").Name("consultations.book")
	account.HandleFunc("/consultations", h.ListConsultations).Methods("GET").Name("consultations.list")

	// Admin routes gated per module grant. Super admins pass every check.
	admin := api.PathPrefix("/admin").Subrouter()
	admin.Use(h.Authenticate)
	admin.Use(h.RequireAdmin)

	route := func(perm mux.MiddlewareFunc, fn http.HandlerFunc) http.Handler {
		return perm(fn)
	}

	catRead := h.RequirePermission("categories", "read")
	catWrite := h.RequirePermission("categories", "write")
	admin.Handle("/categories", route(catRead, h.AdminListCategories)).Methods("GET").Name("admin.categories.list")
	admin.Handle("/categories", route(catWrite, h.AdminCreateCategory)).Methods("POST").Name("admin.categories.create")
	admin.Handle("/categories/{id}", route(catWrite, h.AdminUpdateCategory)).Methods("PUT").Name("admin.categories.update")
	admin.Handle("/categories/{id}", route(catWrite, h.AdminDeleteCategory)).Methods("DELETE").Name("admin.categories.delete")

	prodRead := h.RequirePermission("products", "read")
	prodWrite := h.RequirePermission("products", "write")
	admin.Handle("/products", route(prodRead, h.AdminListProducts)).Methods("GET").Name("admin.products.list")
	admin.Handle("/products", route(prodWrite, h.AdminCreateProduct)).Methods("POST").Name("admin.products.create")
	admin.Handle("/products/{id}", route(prodRead, h.AdminGetProduct)).Methods("GET").Name("admin.products.get")
	admin.Handle("/products/{id}", route(prodWrite, h.AdminUpdateProduct)).Methods("PUT").Name("admin.products.update")
	admin.Handle("/products/{id}", route(prodWrite, h.AdminDeleteProduct)).Methods("DELETE").Name("admin.products.delete")
	admin.Handle("/products/{id}/variants", route(prodWrite, h.AdminCreateVariant)).Methods("POST").Name("admin.variants.create")
	admin.Handle("/products/{id}/variants/{variantID}", route(prodWrite, h.AdminUpdateVariant)).Methods("PUT").Name("admin.variants.update")
	admin.Handle("/media/uploads", route(prodWrite, h.AdminCreateMediaUpload)).Methods("POST").Name("admin.media.upload")

	bannerRead := h.RequirePermission("banners", "read")
	bannerWrite := h.RequirePermission("banners", "write")
	admin.Handle("/banners", route(bannerRead, h.AdminListBanners)).Methods("GET").Name("admin.banners.list")
	admin.Handle("/banners", route(bannerWrite, h.AdminCreateBanner)).Methods("POST").Name("admin.banners.create")
	admin.Handle("/banners/{id}", route(bannerWrite, h.AdminUpdateBanner)).Methods("PUT").Name("admin.banners.update")
	admin.Handle("/banners/{id}", route(bannerWrite, h.AdminDeleteBanner)).Methods("DELETE").Name("admin.banners.delete")

	couponRead := h.RequirePermission("coupons", "read")
	couponWrite := h.RequirePermission("coupons", "write")
	admin.Handle("/coupons", route(couponRead, h.AdminListCoupons)).Methods("GET").Name("admin.coupons.list")
	admin.Handle("/coupons", route(couponWrite, h.AdminCreateCoupon)).Methods("POST").Name("admin.coupons.create")
	admin.Handle("/coupons/{id}", route(couponWrite, h.AdminUpdateCoupon)).Methods("PUT").Name("admin.coupons.update")
	admin.Handle("/coupons/{id}", route(couponWrite, h.AdminDeleteCoupon)).Methods("DELETE").Name("admin.coupons.delete")

	orderWrite := h.RequirePermission("orders", "write")
	admin.Handle("/orders/{id}/deliver", route(orderWrite, h.AdminMarkOrderDelivered)).Methods("POST").Name("admin.orders.deliver")
	admin.Handle("/orders/{id}/complete", route(orderWrite, h.AdminMarkOrderCompleted)).Methods("POST").Name("admin.orders.complete")

	paymentWrite := h.RequirePermission("payments", "write")
	admin.Handle("/orders/{id}/refund", route(paymentWrite, h.AdminRefundPayment)).Methods("POST").Name("admin.payments.refund")

	shipmentWrite := h.RequirePermission("shipments", "write")
	admin.Handle("/shipments/dispatch", route(shipmentWrite, h.AdminDispatchShipments)).Methods("POST").Name("admin.shipments.dispatch")

	warehouseRead := h.RequirePermission("warehouses", "read")
	warehouseWrite := h.RequirePermission("warehouses", "write")
	admin.Handle("/warehouses", route(warehouseRead, h.AdminListWarehouses)).Methods("GET").Name("admin.warehouses.list")
	admin.Handle("/warehouses", route(warehouseWrite, h.AdminCreateWarehouse)).Methods("POST").Name("admin.warehouses.create")
	admin.Handle("/warehouses/{id}", route(warehouseWrite, h.AdminUpdateWarehouse)).Methods("PUT").Name("admin.warehouses.update")
	admin.Handle("/warehouses/{id}/stock", route(warehouseRead, h.AdminListWarehouseStock)).Methods("GET").Name("admin.warehouses.stock")

	stockRead := h.RequirePermission("stock", "read")
	stockWrite := h.RequirePermission("stock", "write")
	admin.Handle("/stock", route(stockWrite, h.AdminEnsureStock)).Methods("POST").Name("admin.stock.ensure")
	admin.Handle("/stock/adjust", route(stockWrite, h.AdminAdjustStock)).Methods("POST").Name("admin.stock.adjust")
	admin.Handle("/stock/low", route(stockRead, h.AdminListLowStock)).Methods("GET").Name("admin.stock.low")
	admin.Handle("/stock/{id}/adjustments", route(stockRead, h.AdminListStockAdjustments)).Methods("GET").Name("admin.stock.adjustments")

	returnRead := h.RequirePermission("returns", "read")
	returnWrite := h.RequirePermission("returns", "write")
	admin.Handle("/returns", route(returnRead, h.AdminListReturns)).Methods("GET").Name("admin.returns.list")
	admin.Handle("/returns/{id}/approve", route(returnWrite, h.AdminApproveReturn)).Methods("POST").Name("admin.returns.approve")
	admin.Handle("/returns/{id}/reject", route(returnWrite, h.AdminRejectReturn)).Methods("POST").Name("admin.returns.reject")
	admin.Handle("/returns/{id}/complete", route(returnWrite, h.AdminCompleteReturn)).Methods("POST").Name("admin.returns.complete")

	consultRead := h.RequirePermission("consultations", "read")
	consultWrite := h.RequirePermission("consultations", "write")
	admin.Handle("/consultations", route(consultRead, h.AdminListConsultations)).Methods("GET").Name("admin.consultations.list")
	admin.Handle("/consultations/{id}", route(consultWrite, h.AdminUpdateConsultation)).Methods("PUT").Name("admin.consultations.update")

	permWrite := h.RequirePermission("permissions", "write")
	permRead := h.RequirePermission("permissions", "read")
	admin.Handle("/permissions/grant", route(permWrite, h.AdminGrantPermission)).Methods("POST").Name("admin.permissions.grant")
	admin.Handle("/permissions/revoke", route(permWrite, h.AdminRevokePermission)).Methods("POST").Name("admin.permissions.revoke")
	admin.Handle("/users/{id}/permissions", route(permRead, h.AdminListPermissions)).Methods("GET").Name("admin.permissions.list")

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"success":false,"message":"not found"}`))
	})

	return r
}
