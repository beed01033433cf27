package handlers

import (
	"net/http"

	"github.com/vedacart/vedacart/internal/services"
)

func (h *Handlers) AddToCart(w http.ResponseWriter, r *http.Request) {
	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}
	var input services.CartItemInput
	if err := decodeJSON(r, &input); err != nil {
		h.respondError(w, r, err)
		return
	}

	item, err := h.cartService.AddToCart(r.Context(), user.ID, input)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondData(w, r, http.StatusOK, item)
}

func (h *Handlers) RemoveFromCart(w http.ResponseWriter, r *http.Request) {
	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}
	itemID, err := pathID(r, "id")
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	if err := h.cartService.RemoveFromCart(r.Context(), user.ID, itemID); err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondMessage(w, r, http.StatusOK, "item removed")
}

func (h *Handlers) ClearCart(w http.ResponseWriter, r *http.Request) {
	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}

	if err := h.cartService.ClearCart(r.Context(), user.ID); err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondMessage(w, r, http.StatusOK, "cart cleared")
}

func (h *Handlers) ListCart(w http.ResponseWriter, r *http.Request) {
	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}

	items, err := h.cartService.ListCart(r.Context(), user.ID)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondData(w, r, http.StatusOK, items)
}

func (h *Handlers) AddToWishlist(w http.ResponseWriter, r *http.Request) {
	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}
	productID, err := pathID(r, "productID")
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	item, err := h.cartService.AddToWishlist(r.Context(), user.ID, productID)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondData(w, r, http.StatusOK, item)
}

func (h *Handlers) RemoveFromWishlist(w http.ResponseWriter, r *http.Request) {
	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}
	productID, err := pathID(r, "productID")
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	if err := h.cartService.RemoveFromWishlist(r.Context(), user.ID, productID); err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondMessage(w, r, http.StatusOK, "item removed")
}

func (h *Handlers) ListWishlist(w http.ResponseWriter, r *http.Request) {
	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}

	items, err := h.cartService.ListWishlist(r.Context(), user.ID)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondData(w, r, http.StatusOK, items)
}
