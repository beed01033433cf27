package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/lmittmann/tint"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vedacart/vedacart/internal/auth"
	"github.com/vedacart/vedacart/internal/cache"
	"github.com/vedacart/vedacart/internal/config"
	"github.com/vedacart/vedacart/internal/db"
	"github.com/vedacart/vedacart/internal/email"
	"github.com/vedacart/vedacart/internal/handlers"
	"github.com/vedacart/vedacart/internal/media"
	"github.com/vedacart/vedacart/internal/payment"
	"github.com/vedacart/vedacart/internal/rates"
	"github.com/vedacart/vedacart/internal/services"
	"github.com/vedacart/vedacart/internal/shipping"
)

type App struct {
	Config        *config.Config
	Logger        *slog.Logger
	DB            *pgxpool.Pool
	CacheProvider cache.Provider
	Handlers      *handlers.Handlers
	Scheduler     *services.Scheduler
}

func New() (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger := newLogger(cfg)

	startupCtx, startupCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer startupCancel()

	database, err := db.Connect(startupCtx, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}

	cacheProvider, err := cache.NewProvider(cache.Config{
		Provider:              cfg.CacheProvider,
		RedisConnectionString: cfg.RedisConnectionString,
	})
	if err != nil {
		database.Close()
		return nil, fmt.Errorf("failed to initialize cache provider: %w", err)
	}

	tokens, err := auth.NewManager(cfg.JWTSecret, cfg.JWTExpiry)
	if err != nil {
		closeCacheProvider(logger, cacheProvider)
		database.Close()
		return nil, fmt.Errorf("failed to initialize token manager: %w", err)
	}

	rateTable, err := rates.Load(cfg.RatesPath)
	if err != nil {
		closeCacheProvider(logger, cacheProvider)
		database.Close()
		return nil, fmt.Errorf("failed to load rate table: %w", err)
	}

	var gateway payment.Gateway
	var callbacks *payment.RazorpayClient
	switch cfg.PaymentGateway {
	case "stripe":
		gateway = payment.NewStripeClient(cfg.StripeSecretKey, cfg.StripeWebhookSecret)
	default:
		razorpay := payment.NewRazorpayClient(cfg.RazorpayKeyID, cfg.RazorpayKeySecret, cfg.RazorpayWebhookSecret)
		gateway = razorpay
		callbacks = razorpay
	}

	carrier := shipping.NewShiprocketClient(cfg.ShiprocketBaseURL, cfg.ShiprocketEmail, cfg.ShiprocketPassword)

	emailProvider, err := email.NewProvider(email.Config{
		Provider: cfg.EmailProvider,
		APIKey:   cfg.ResendAPIKey,
		From:     cfg.EmailFrom,
	})
	if err != nil {
		closeCacheProvider(logger, cacheProvider)
		database.Close()
		return nil, fmt.Errorf("failed to initialize email provider: %w", err)
	}
	emailSender := services.NewProviderOrderEmailSender(emailProvider)

	var storage *media.Storage
	if cfg.MediaBucket != "" {
		storage, err = media.NewStorage(startupCtx, cfg.MediaBucket)
		if err != nil {
			closeCacheProvider(logger, cacheProvider)
			database.Close()
			return nil, fmt.Errorf("failed to initialize media storage: %w", err)
		}
	}

	userStore := db.NewUserStore(database)
	permissionStore := db.NewPermissionStore(database)
	addressStore := db.NewAddressStore(database)
	categoryStore := db.NewCategoryStore(database)
	productStore := db.NewProductStore(database)
	bannerStore := db.NewBannerStore(database)
	cartStore := db.NewCartStore(database)
	wishlistStore := db.NewWishlistStore(database)
	couponStore := db.NewCouponStore(database)
	orderStore := db.NewOrderStore(database)
	paymentStore := db.NewPaymentStore(database)
	shipmentStore := db.NewShipmentStore(database)
	warehouseStore := db.NewWarehouseStore(database)
	stockStore := db.NewStockStore(database)
	returnStore := db.NewReturnStore(database)
	consultationStore := db.NewConsultationStore(database)

	authService := services.NewAuthService(userStore, tokens, logger.With("component", "auth_service"))
	addressService := services.NewAddressService(addressStore, logger.With("component", "address_service"))
	catalogService := services.NewCatalogService(categoryStore, productStore, bannerStore, cacheProvider, storage, logger.With("component", "catalog_service"))
	cartService := services.NewCartService(database, cartStore, wishlistStore, productStore, logger.With("component", "cart_service"))
	couponService := services.NewCouponService(couponStore, logger.With("component", "coupon_service"))
	orderService := services.NewOrderService(
		database,
		orderStore,
		cartStore,
		productStore,
		categoryStore,
		stockStore,
		addressStore,
		userStore,
		couponService,
		rateTable,
		emailSender,
		logger.With("component", "order_service"),
	)
	paymentService := services.NewPaymentService(
		database,
		paymentStore,
		orderStore,
		userStore,
		gateway,
		callbackVerifier(callbacks),
		cacheProvider,
		emailSender,
		logger.With("component", "payment_service"),
	)
	shipmentService := services.NewShipmentService(
		orderStore,
		shipmentStore,
		userStore,
		carrier,
		emailSender,
		logger.With("component", "shipment_service"),
	)
	stockService := services.NewStockService(warehouseStore, stockStore, productStore, logger.With("component", "stock_service"))
	returnService := services.NewReturnService(
		returnStore,
		orderStore,
		userStore,
		paymentService,
		emailSender,
		logger.With("component", "return_service"),
	)
	consultationService := services.NewConsultationService(consultationStore, userStore, emailProvider, logger.With("component", "consultation_service"))
	permissionService := services.NewPermissionService(permissionStore, userStore, logger.With("component", "permission_service"))

	scheduler := services.NewScheduler(shipmentService, cfg.ShipmentInterval, cfg.ShipmentBatchSize, logger)

	h, err := handlers.New(handlers.Dependencies{
		Config:              cfg,
		DB:                  database,
		Tokens:              tokens,
		AuthService:         authService,
		AddressService:      addressService,
		CatalogService:      catalogService,
		CartService:         cartService,
		CouponService:       couponService,
		OrderService:        orderService,
		PaymentService:      paymentService,
		ShipmentService:     shipmentService,
		StockService:        stockService,
		ReturnService:       returnService,
		ConsultationService: consultationService,
		PermissionService:   permissionService,
		Logger:              logger,
	})
	if err != nil {
		closeCacheProvider(logger, cacheProvider)
		database.Close()
		return nil, fmt.Errorf("failed to initialize handlers: %w", err)
	}

	return &App{
		Config:        cfg,
		Logger:        logger,
		DB:            database,
		CacheProvider: cacheProvider,
		Handlers:      h,
		Scheduler:     scheduler,
	}, nil
}

// callbackVerifier keeps a typed nil from masquerading as a non-nil
// interface when the gateway has no callback flow.
func callbackVerifier(c *payment.RazorpayClient) services.CallbackVerifier {
	if c == nil {
		return nil
	}
	return c
}

func (a *App) Close() {
	if a == nil {
		return
	}
	if a.CacheProvider != nil {
		closeCacheProvider(a.Logger, a.CacheProvider)
	}
	if a.DB != nil {
		a.DB.Close()
	}
}

func newLogger(cfg *config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}

	format := strings.ToLower(strings.TrimSpace(cfg.LogFormat))
	switch format {
	case "json":
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	case "text", "":
		return slog.New(tint.NewHandler(os.Stdout, &tint.Options{
			Level: cfg.LogLevel,
		}))
	}
	return slog.New(tint.NewHandler(os.Stdout, &tint.Options{Level: cfg.LogLevel}))
}

func closeCacheProvider(logger *slog.Logger, provider cache.Provider) {
	if provider == nil {
		return
	}
	if err := provider.Close(); err != nil && logger != nil {
		logger.Warn("failed to close cache provider", "error", err)
	}
}
