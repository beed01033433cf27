package services

import (
	"testing"
	"time"

	"github.com/vedacart/vedacart/internal/models"
)

func TestWithinReturnWindow(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)
	daysAgo := func(d int) time.Time { return now.Add(-time.Duration(d) * 24 * time.Hour) }

	tests := []struct {
		name        string
		deliveredAt *time.Time
		updatedAt   time.Time
		want        bool
	}{
		{
			name:        "delivered yesterday",
			deliveredAt: ptr(daysAgo(1)),
			updatedAt:   daysAgo(1),
			want:        true,
		},
		{
			name:        "delivered eight days ago",
			deliveredAt: ptr(daysAgo(8)),
			updatedAt:   daysAgo(8),
			want:        false,
		},
		{
			// A delivered to completed transition bumps updated_at but
			// must not reopen the window.
			name:        "stale delivery with fresh update",
			deliveredAt: ptr(daysAgo(8)),
			updatedAt:   daysAgo(0),
			want:        false,
		},
		{
			name:      "no delivered timestamp falls back to updated_at",
			updatedAt: daysAgo(3),
			want:      true,
		},
		{
			name:      "no delivered timestamp and stale update",
			updatedAt: daysAgo(10),
			want:      false,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			svc := &ReturnService{now: func() time.Time { return now }}
			order := &models.Order{DeliveredAt: tc.deliveredAt, UpdatedAt: tc.updatedAt}
			if got := svc.withinReturnWindow(order); got != tc.want {
				t.Errorf("withinReturnWindow() = %v, want %v", got, tc.want)
			}
		})
	}
}

func ptr[T any](v T) *T { return &v }
