package cache

// Package cache backs webhook idempotency and short-lived catalog reads.

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var ErrNotFound = errors.New("key not found")

type Provider interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value string, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

type Config struct {
	Provider              string
	RedisConnectionString string
}

func NewProvider(cfg Config) (Provider, error) {
	switch cfg.Provider {
	case "memory", "":
		return NewMemoryProvider()
	case "redis":
		return NewRedisProvider(cfg.RedisConnectionString)
	default:
		return nil, fmt.Errorf("unsupported cache provider: %s", cfg.Provider)
	}
}

// WebhookKey dedupes gateway webhook deliveries by event id.
func WebhookKey(gateway, eventID string) string {
	return fmt.Sprintf("webhook:%s:%s", gateway, eventID)
}

// ProductListKey caches the public product listing per category filter.
func ProductListKey(categoryID string) string {
	if categoryID == "" {
		return "catalog:products:all"
	}
	return "catalog:products:" + categoryID
}
