// Package email provides email provider interface.
package email

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/vedacart/vedacart/internal/logging"
)

type Provider interface {
	SendEmail(ctx context.Context, email *Email) error
	ValidateAPIKey(ctx context.Context) error
}

type Email struct {
	To      string
	Subject string
	Text    string
	HTML    string
}

type Config struct {
	Provider string
	APIKey   string
	From     string
}

func NewProvider(config Config) (Provider, error) {
	switch config.Provider {
	case "resend":
		return NewResendProvider(config.APIKey, config.From), nil
	case "none":
		return &NoopProvider{}, nil
	default:
		return nil, fmt.Errorf("EMAIL_PROVIDER must be either 'resend' or 'none'")
	}
}

// NoopProvider logs instead of sending. Used in development and tests.
type NoopProvider struct{}

func (p *NoopProvider) SendEmail(ctx context.Context, email *Email) error {
	logging.FromContext(ctx, slog.Default()).Info("email sending disabled, dropping message",
		"to", email.To,
		"subject", email.Subject)
	return nil
}

func (p *NoopProvider) ValidateAPIKey(ctx context.Context) error { return nil }
