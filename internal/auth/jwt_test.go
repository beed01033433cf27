package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/vedacart/vedacart/internal/models"
)

func TestIssueAndParseToken(t *testing.T) {
	t.Parallel()

	manager, err := NewManager("test-secret", time.Hour)
	if err != nil {
		t.Fatalf("failed to create manager: %v", err)
	}

	user := &models.User{
		ID:      uuid.New(),
		Email:   "asha@example.com",
		IsAdmin: true,
	}

	token, err := manager.IssueToken(user)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	claims, err := manager.ParseToken(token)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if claims.UserID != user.ID {
		t.Errorf("expected user id %s, got %s", user.ID, claims.UserID)
	}
	if claims.Email != user.Email {
		t.Errorf("expected email %s, got %s", user.Email, claims.Email)
	}
	if !claims.IsAdmin {
		t.Error("expected admin claim to carry over")
	}
	if claims.IsSuperAdmin {
		t.Error("expected super admin claim to be false")
	}
}

func TestParseTokenRejectsBadInput(t *testing.T) {
	t.Parallel()

	manager, err := NewManager("test-secret", time.Hour)
	if err != nil {
		t.Fatalf("failed to create manager: %v", err)
	}
	other, err := NewManager("other-secret", time.Hour)
	if err != nil {
		t.Fatalf("failed to create manager: %v", err)
	}
	expired, err := NewManager("test-secret", -time.Hour)
	if err == nil {
		t.Fatal("expected error for non-positive expiry")
	}
	_ = expired

	user := &models.User{ID: uuid.New(), Email: "asha@example.com"}

	otherToken, err := other.IssueToken(user)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	tests := []struct {
		name  string
		token string
	}{
		{name: "empty", token: ""},
		{name: "garbage", token: "not.a.token"},
		{name: "wrong secret", token: otherToken},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if _, err := manager.ParseToken(tt.token); !errors.Is(err, ErrInvalidToken) {
				t.Fatalf("expected ErrInvalidToken, got %v", err)
			}
		})
	}
}
