package handlers

import (
	"net/http"

	"github.com/vedacart/vedacart/internal/services"
)

func (h *Handlers) Register(w http.ResponseWriter, r *http.Request) {
	var input services.RegisterInput
	if err := decodeJSON(r, &input); err != nil {
		h.respondError(w, r, err)
		return
	}

	result, err := h.authService.Register(r.Context(), input)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondData(w, r, http.StatusCreated, result)
}

func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	var input services.LoginInput
	if err := decodeJSON(r, &input); err != nil {
		h.respondError(w, r, err)
		return
	}

	result, err := h.authService.Login(r.Context(), input)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondData(w, r, http.StatusOK, result)
}

func (h *Handlers) Profile(w http.ResponseWriter, r *http.Request) {
	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}
	h.respondData(w, r, http.StatusOK, user)
}
