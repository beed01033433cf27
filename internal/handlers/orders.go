package handlers

import (
	"net/http"

	"github.com/vedacart/vedacart/internal/services"
)

func (h *Handlers) Checkout(w http.ResponseWriter, r *http.Request) {
	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}
	var input services.CheckoutInput
	if err := decodeJSON(r, &input); err != nil {
		h.respondError(w, r, err)
		return
	}

	order, err := h.orderService.Checkout(r.Context(), user.ID, input)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondData(w, r, http.StatusCreated, order)
}

func (h *Handlers) ListOrders(w http.ResponseWriter, r *http.Request) {
	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}

	orders, err := h.orderService.ListForUser(r.Context(), user.ID, listLimit(r, 50, 200))
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondData(w, r, http.StatusOK, orders)
}

func (h *Handlers) GetOrder(w http.ResponseWriter, r *http.Request) {
	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}
	orderID, err := pathID(r, "id")
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	order, err := h.orderService.Get(r.Context(), orderID, user.ID, user.IsAdmin || user.IsSuperAdmin)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondData(w, r, http.StatusOK, order)
}

func (h *Handlers) CancelOrder(w http.ResponseWriter, r *http.Request) {
	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}
	orderID, err := pathID(r, "id")
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	if err := h.orderService.Cancel(r.Context(), orderID, user.ID, user.IsAdmin || user.IsSuperAdmin); err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondMessage(w, r, http.StatusOK, "order cancelled")
}

func (h *Handlers) AdminMarkOrderDelivered(w http.ResponseWriter, r *http.Request) {
	orderID, err := pathID(r, "id")
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	if err := h.orderService.MarkDelivered(r.Context(), orderID); err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondMessage(w, r, http.StatusOK, "order delivered")
}

func (h *Handlers) AdminMarkOrderCompleted(w http.ResponseWriter, r *http.Request) {
	orderID, err := pathID(r, "id")
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	if err := h.orderService.MarkCompleted(r.Context(), orderID); err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondMessage(w, r, http.StatusOK, "order completed")
}
