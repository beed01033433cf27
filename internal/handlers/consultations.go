package handlers

import (
	"net/http"
	"strings"

	"github.com/vedacart/vedacart/internal/models"
	"github.com/vedacart/vedacart/internal/services"
)

func (h *Handlers) BookConsultation(w http.ResponseWriter, r *http.Request) {
	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}
	var input services.ConsultationInput
	if err := decodeJSON(r, &input); err != nil {
		h.respondError(w, r, err)
		return
	}

	consultation, err := h.consultationService.Book(r.Context(), user.ID, input)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondData(w, r, http.StatusCreated, consultation)
}

func (h *Handlers) ListConsultations(w http.ResponseWriter, r *http.Request) {
	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}

	consultations, err := h.consultationService.ListForUser(r.Context(), user.ID)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondData(w, r, http.StatusOK, consultations)
}

func (h *Handlers) AdminListConsultations(w http.ResponseWriter, r *http.Request) {
	status := models.ConsultationStatus(strings.TrimSpace(r.URL.Query().Get("status")))
	consultations, err := h.consultationService.List(r.Context(), status)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondData(w, r, http.StatusOK, consultations)
}

type consultationStatusRequest struct {
	Status models.ConsultationStatus `json:"status" validate:"required,oneof=confirmed done cancelled"`
}

func (h *Handlers) AdminUpdateConsultation(w http.ResponseWriter, r *http.Request) {
	consultationID, err := pathID(r, "id")
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	var req consultationStatusRequest
	if err := decodeJSON(r, &req); err != nil {
		h.respondError(w, r, err)
		return
	}

	consultation, err := h.consultationService.UpdateStatus(r.Context(), consultationID, req.Status)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondData(w, r, http.StatusOK, consultation)
}
