package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestMetricsContextEnrichesRequestContext(t *testing.T) {
	t.Parallel()

	h := testHandlers(t)

	var gotCtx context.Context
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotCtx = r.Context()
		w.WriteHeader(http.StatusNoContent)
	})

	r := httptest.NewRequest(http.MethodGet, "/products", nil)
	r.Header.Set("X-Request-ID", "req-42")
	w := httptest.NewRecorder()

	h.MetricsContext(next).ServeHTTP(w, r)

	if gotCtx == nil {
		t.Fatal("next handler did not run")
	}
	if gotCtx == r.Context() {
		t.Error("next handler received the request context without a meter attached")
	}
	if w.Code != http.StatusNoContent {
		t.Errorf("status = %d, want 204", w.Code)
	}
}
