package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/vedacart/vedacart/internal/apperr"
)

const maxRequestBodyBytes = 1 << 20 // 1 MB

var requestValidator = validator.New()

// envelope is the uniform JSON response body.
type envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

func (h *Handlers) respond(w http.ResponseWriter, r *http.Request, status int, body envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.loggerFromContext(r.Context()).Error("failed to encode response", "error", err)
	}
}

func (h *Handlers) respondData(w http.ResponseWriter, r *http.Request, status int, data any) {
	h.respond(w, r, status, envelope{Success: true, Data: data})
}

func (h *Handlers) respondMessage(w http.ResponseWriter, r *http.Request, status int, message string) {
	h.respond(w, r, status, envelope{Success: true, Message: message})
}

// respondError maps the error taxonomy onto HTTP status codes.
// Unclassified errors are logged with full detail and surface as a
// generic 500.
func (h *Handlers) respondError(w http.ResponseWriter, r *http.Request, err error) {
	kind := apperr.KindOf(err)
	status := statusForKind(kind)

	logger := h.loggerFromContext(r.Context())
	if status >= http.StatusInternalServerError {
		logger.Error("request failed", "error", err, "path", r.URL.Path)
	} else {
		logger.Debug("request rejected", "error", err, "status", status)
	}

	h.respond(w, r, status, envelope{Success: false, Message: apperr.Message(err)})
}

func statusForKind(kind apperr.Kind) int {
	switch kind {
	case apperr.KindValidation, apperr.KindBusiness:
		return http.StatusBadRequest
	case apperr.KindAuth:
		return http.StatusUnauthorized
	case apperr.KindPermission:
		return http.StatusForbidden
	case apperr.KindNotFound:
		return http.StatusNotFound
	case apperr.KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// decodeJSON decodes and validates a request body into dst. dst must be
// a pointer to a struct carrying validate tags.
func decodeJSON(r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(nil, r.Body, maxRequestBodyBytes)

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		return apperr.Wrap(apperr.KindValidation, "invalid request body", err)
	}

	if err := requestValidator.Struct(dst); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			first := fieldErrs[0]
			return apperr.Newf(apperr.KindValidation, "invalid field %s: failed %s check",
				strings.ToLower(first.Field()), first.Tag())
		}
		return apperr.Wrap(apperr.KindValidation, "invalid request body", err)
	}
	return nil
}

// pathID extracts a UUID path variable.
func pathID(r *http.Request, name string) (uuid.UUID, error) {
	raw := mux.Vars(r)[name]
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, apperr.Newf(apperr.KindValidation, "invalid %s", name)
	}
	return id, nil
}

func optionalCategoryFilter(r *http.Request) (*uuid.UUID, error) {
	raw := strings.TrimSpace(r.URL.Query().Get("category_id"))
	if raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, apperr.New(apperr.KindValidation, "invalid category_id")
	}
	return &id, nil
}

func listLimit(r *http.Request, fallback, max int) int {
	raw := strings.TrimSpace(r.URL.Query().Get("limit"))
	if raw == "" {
		return fallback
	}
	var limit int
	if _, err := fmt.Sscanf(raw, "%d", &limit); err != nil || limit <= 0 {
		return fallback
	}
	if limit > max {
		return max
	}
	return limit
}
