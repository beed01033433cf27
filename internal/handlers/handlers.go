package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vedacart/vedacart/internal/auth"
	"github.com/vedacart/vedacart/internal/config"
	"github.com/vedacart/vedacart/internal/logging"
	"github.com/vedacart/vedacart/internal/services"
)

const maxWebhookBodyBytes = 1 << 20 // 1 MB

// Handlers provides the HTTP request handlers for the storefront and
// admin APIs.
type Handlers struct {
	config              *config.Config
	db                  *pgxpool.Pool
	tokens              *auth.Manager
	authService         *services.AuthService
	addressService      *services.AddressService
	catalogService      *services.CatalogService
	cartService         *services.CartService
	couponService       *services.CouponService
	orderService        *services.OrderService
	paymentService      *services.PaymentService
	shipmentService     *services.ShipmentService
	stockService        *services.StockService
	returnService       *services.ReturnService
	consultationService *services.ConsultationService
	permissionService   *services.PermissionService
	logger              *slog.Logger
}

type Dependencies struct {
	Config              *config.Config
	DB                  *pgxpool.Pool
	Tokens              *auth.Manager
	AuthService         *services.AuthService
	AddressService      *services.AddressService
	CatalogService      *services.CatalogService
	CartService         *services.CartService
	CouponService       *services.CouponService
	OrderService        *services.OrderService
	PaymentService      *services.PaymentService
	ShipmentService     *services.ShipmentService
	StockService        *services.StockService
	ReturnService       *services.ReturnService
	ConsultationService *services.ConsultationService
	PermissionService   *services.PermissionService
	Logger              *slog.Logger
}

func New(deps Dependencies) (*Handlers, error) {
	logger := deps.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	if deps.Config == nil {
		return nil, fmt.Errorf("handlers dependencies: config is required")
	}
	if deps.DB == nil {
		return nil, fmt.Errorf("handlers dependencies: db is required")
	}
	if deps.Tokens == nil {
		return nil, fmt.Errorf("handlers dependencies: token manager is required")
	}
	if deps.AuthService == nil {
		return nil, fmt.Errorf("handlers dependencies: authService is required")
	}
	if deps.AddressService == nil {
		return nil, fmt.Errorf("handlers dependencies: addressService is required")
	}
	if deps.CatalogService == nil {
		return nil, fmt.Errorf("handlers dependencies: catalogService is required")
	}
	if deps.CartService == nil {
		return nil, fmt.Errorf("handlers dependencies: cartService is required")
	}
	if deps.CouponService == nil {
		return nil, fmt.Errorf("handlers dependencies: couponService is required")
	}
	if deps.OrderService == nil {
		return nil, fmt.Errorf("handlers dependencies: orderService is required")
	}
	if deps.PaymentService == nil {
		return nil, fmt.Errorf("handlers dependencies: paymentService is required")
	}
	if deps.ShipmentService == nil {
		return nil, fmt.Errorf("handlers dependencies: shipmentService is required")
	}
	if deps.StockService == nil {
		return nil, fmt.Errorf("handlers dependencies: stockService is required")
	}
	if deps.ReturnService == nil {
		return nil, fmt.Errorf("handlers dependencies: returnService is required")
	}
	if deps.ConsultationService == nil {
		return nil, fmt.Errorf("handlers dependencies: consultationService is required")
	}
	if deps.PermissionService == nil {
		return nil, fmt.Errorf("handlers dependencies: permissionService is required")
	}

	return &Handlers{
		config:              deps.Config,
		db:                  deps.DB,
		tokens:              deps.Tokens,
		authService:         deps.AuthService,
		addressService:      deps.AddressService,
		catalogService:      deps.CatalogService,
		cartService:         deps.CartService,
		couponService:       deps.CouponService,
		orderService:        deps.OrderService,
		paymentService:      deps.PaymentService,
		shipmentService:     deps.ShipmentService,
		stockService:        deps.StockService,
		returnService:       deps.ReturnService,
		consultationService: deps.ConsultationService,
		permissionService:   deps.PermissionService,
		logger:              logger.With("component", "handlers"),
	}, nil
}

func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := h.loggerFromContext(ctx)

	if err := h.db.Ping(ctx); err != nil {
		logger.Error("database health check failed", "error", err)
		http.Error(w, "Database unhealthy", http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(map[string]string{
		"status": "healthy",
	}); err != nil {
		logger.Error("failed to encode health response", "error", err)
	}
}

func (h *Handlers) loggerFromContext(ctx context.Context) *slog.Logger {
	return logging.FromContext(ctx, h.logger)
}
