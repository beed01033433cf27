package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
)

type Config struct {
	DatabaseURL string `env:"DATABASE_URL,required" validate:"required"`

	JWTSecret string        `env:"JWT_SECRET,required" validate:"required,min=32"`
	JWTExpiry time.Duration `env:"JWT_EXPIRY" envDefault:"24h"`

	PaymentGateway        string `env:"PAYMENT_GATEWAY" envDefault:"razorpay" validate:"oneof=razorpay stripe"`
	RazorpayKeyID         string `env:"RAZORPAY_KEY_ID"`
	RazorpayKeySecret     string `env:"RAZORPAY_KEY_SECRET"`
	RazorpayWebhookSecret string `env:"RAZORPAY_WEBHOOK_SECRET"`
	StripeSecretKey       string `env:"STRIPE_SECRET_KEY"`
	StripeWebhookSecret   string `env:"STRIPE_WEBHOOK_SECRET"`

	ShiprocketBaseURL  string `env:"SHIPROCKET_BASE_URL" envDefault:"https://apiv2.shiprocket.in/v1/external" validate:"url"`
	ShiprocketEmail    string `env:"SHIPROCKET_EMAIL"`
	ShiprocketPassword string `env:"SHIPROCKET_PASSWORD"`

	ShipmentInterval  time.Duration `env:"SHIPMENT_INTERVAL" envDefault:"5m"`
	ShipmentBatchSize int           `env:"SHIPMENT_BATCH_SIZE" envDefault:"25" validate:"gt=0"`

	EmailProvider string `env:"EMAIL_PROVIDER" envDefault:"resend" validate:"oneof=resend none"`
	ResendAPIKey  string `env:"RESEND_API_KEY"`
	EmailFrom     string `env:"EMAIL_FROM" envDefault:"orders@vedacart.in"`

	MediaBucket string `env:"MEDIA_BUCKET"`

	RatesPath string `env:"RATES_PATH" envDefault:"rates.yaml" validate:"required"`

	CacheProvider         string `env:"CACHE_PROVIDER" envDefault:"memory" validate:"omitempty,oneof=memory redis"`
	RedisConnectionString string `env:"REDIS_CONNECTION_STRING" envDefault:"redis://localhost:6379/0" validate:"required_if=CacheProvider redis"`

	LogLevel  slog.Level `env:"LOG_LEVEL" envDefault:"INFO"`
	LogFormat string     `env:"LOG_FORMAT" envDefault:"text" validate:"omitempty,oneof=text json"`
	Port      string     `env:"PORT" envDefault:"8080"`
}

var configValidator = validator.New()

func Load() (*Config, error) {
	var cfg Config

	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) validate() error {
	if err := configValidator.Struct(c); err != nil {
		return err
	}

	switch c.PaymentGateway {
	case "razorpay":
		if strings.TrimSpace(c.RazorpayKeyID) == "" || strings.TrimSpace(c.RazorpayKeySecret) == "" {
			return fmt.Errorf("RAZORPAY_KEY_ID and RAZORPAY_KEY_SECRET are required when PAYMENT_GATEWAY=razorpay")
		}
		if strings.TrimSpace(c.RazorpayWebhookSecret) == "" {
			return fmt.Errorf("RAZORPAY_WEBHOOK_SECRET is required when PAYMENT_GATEWAY=razorpay")
		}
	case "stripe":
		if strings.TrimSpace(c.StripeSecretKey) == "" || strings.TrimSpace(c.StripeWebhookSecret) == "" {
			return fmt.Errorf("STRIPE_SECRET_KEY and STRIPE_WEBHOOK_SECRET are required when PAYMENT_GATEWAY=stripe")
		}
	}

	if c.EmailProvider == "resend" && strings.TrimSpace(c.ResendAPIKey) == "" {
		return fmt.Errorf("RESEND_API_KEY is required when EMAIL_PROVIDER=resend")
	}

	if c.ShipmentInterval < time.Minute {
		return fmt.Errorf("SHIPMENT_INTERVAL must be at least 1m")
	}

	return nil
}
