package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/getsentry/sentry-go/attribute"
	"github.com/gorilla/mux"

	"github.com/vedacart/vedacart/internal/apperr"
	"github.com/vedacart/vedacart/internal/models"
	"github.com/vedacart/vedacart/internal/observability"
)

type contextKey string

const userContextKey contextKey = "current_user"

func withUser(ctx context.Context, user *models.User) context.Context {
	return context.WithValue(ctx, userContextKey, user)
}

func userFromContext(ctx context.Context) (*models.User, bool) {
	user, ok := ctx.Value(userContextKey).(*models.User)
	return user, ok && user != nil
}

// currentUser returns the authenticated user or writes a 401. Handlers
// behind Authenticate can rely on the bool.
func (h *Handlers) currentUser(w http.ResponseWriter, r *http.Request) (*models.User, bool) {
	user, ok := userFromContext(r.Context())
	if !ok {
		h.respondError(w, r, apperr.New(apperr.KindAuth, "authentication required"))
		return nil, false
	}
	return user, true
}

// Authenticate verifies the bearer token and loads the current user
// into the request context. The user row is reloaded on every request
// so admin flag or permission revocations take effect immediately.
func (h *Handlers) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			h.respondError(w, r, apperr.New(apperr.KindAuth, "authentication required"))
			return
		}

		claims, err := h.tokens.ParseToken(token)
		if err != nil {
			h.respondError(w, r, apperr.New(apperr.KindAuth, "invalid or expired token"))
			return
		}

		user, err := h.authService.Profile(r.Context(), claims.UserID)
		if err != nil {
			if apperr.KindOf(err) == apperr.KindNotFound {
				h.respondError(w, r, apperr.New(apperr.KindAuth, "invalid or expired token"))
				return
			}
			h.respondError(w, r, err)
			return
		}

		ctx := withUser(r.Context(), user)

		meter := observability.MeterFromContext(ctx)
		meter.SetAttributes(attribute.String("user.id", user.ID.String()))
		ctx = observability.WithMeter(ctx, meter)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireAdmin gates a route to admin accounts.
func (h *Handlers) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := h.currentUser(w, r)
		if !ok {
			return
		}
		if !user.IsAdmin && !user.IsSuperAdmin {
			h.respondError(w, r, apperr.New(apperr.KindPermission, "admin access required"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequirePermission gates a route to admins holding a module grant.
// Super admins pass every check.
func (h *Handlers) RequirePermission(module, action string) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := h.currentUser(w, r)
			if !ok {
				return
			}

			allowed, err := h.permissionService.Allowed(r.Context(), user, module, action)
			if err != nil {
				h.respondError(w, r, err)
				return
			}
			if !allowed {
				h.respondError(w, r, apperr.Newf(apperr.KindPermission, "missing %s permission on %s", action, module))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func bearerToken(r *http.Request) string {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
