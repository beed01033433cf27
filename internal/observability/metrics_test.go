package observability

import (
	"context"
	"testing"

	"github.com/getsentry/sentry-go"
)

func TestWithMeterStoresMeter(t *testing.T) {
	t.Parallel()

	base := context.Background()
	ctx := WithMeter(base, sentry.NewMeter(base))

	if ctx == base {
		t.Fatal("WithMeter() returned the base context unchanged")
	}
	stored, ok := ctx.Value(meterContextKey{}).(sentry.Meter)
	if !ok || stored == nil {
		t.Fatalf("stored meter = %v (ok %v), want a meter", stored, ok)
	}
}

func TestWithMeterNilArguments(t *testing.T) {
	t.Parallel()

	ctx := WithMeter(nil, nil) //nolint:staticcheck // nil handling is part of the contract
	if ctx == nil {
		t.Fatal("WithMeter(nil, nil) returned nil context")
	}
	if stored, ok := ctx.Value(meterContextKey{}).(sentry.Meter); !ok || stored == nil {
		t.Error("WithMeter(nil, nil) did not store a fallback meter")
	}
}

func TestMeterFromContextFallback(t *testing.T) {
	t.Parallel()

	if meter := MeterFromContext(context.Background()); meter == nil {
		t.Error("MeterFromContext() on a bare context returned nil")
	}
	ctx := WithMeter(context.Background(), nil)
	if meter := MeterFromContext(ctx); meter == nil {
		t.Error("MeterFromContext() on an enriched context returned nil")
	}
}
