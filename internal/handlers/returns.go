package handlers

import (
	"net/http"
	"strings"

	"github.com/vedacart/vedacart/internal/models"
	"github.com/vedacart/vedacart/internal/services"
)

func (h *Handlers) RequestReturn(w http.ResponseWriter, r *http.Request) {
	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}
	var input services.ReturnInput
	if err := decodeJSON(r, &input); err != nil {
		h.respondError(w, r, err)
		return
	}

	ret, err := h.returnService.Request(r.Context(), user.ID, input)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondData(w, r, http.StatusCreated, ret)
}

func (h *Handlers) ListReturns(w http.ResponseWriter, r *http.Request) {
	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}

	returns, err := h.returnService.ListForUser(r.Context(), user.ID)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondData(w, r, http.StatusOK, returns)
}

func (h *Handlers) AdminListReturns(w http.ResponseWriter, r *http.Request) {
	status := models.ReturnStatus(strings.TrimSpace(r.URL.Query().Get("status")))
	returns, err := h.returnService.ListByStatus(r.Context(), status)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondData(w, r, http.StatusOK, returns)
}

func (h *Handlers) AdminApproveReturn(w http.ResponseWriter, r *http.Request) {
	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}
	returnID, err := pathID(r, "id")
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	ret, err := h.returnService.Approve(r.Context(), returnID, user.ID)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondData(w, r, http.StatusOK, ret)
}

func (h *Handlers) AdminRejectReturn(w http.ResponseWriter, r *http.Request) {
	returnID, err := pathID(r, "id")
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	ret, err := h.returnService.Reject(r.Context(), returnID)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondData(w, r, http.StatusOK, ret)
}

func (h *Handlers) AdminCompleteReturn(w http.ResponseWriter, r *http.Request) {
	returnID, err := pathID(r, "id")
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	ret, err := h.returnService.Complete(r.Context(), returnID)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondData(w, r, http.StatusOK, ret)
}
