package handlers

import (
	"net/http"

	"github.com/vedacart/vedacart/internal/services"
)

func (h *Handlers) CreateAddress(w http.ResponseWriter, r *http.Request) {
	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}

	var input services.AddressInput
	if err := decodeJSON(r, &input); err != nil {
		h.respondError(w, r, err)
		return
	}

	address, err := h.addressService.Create(r.Context(), user.ID, input)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondData(w, r, http.StatusCreated, address)
}

func (h *Handlers) UpdateAddress(w http.ResponseWriter, r *http.Request) {
	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}
	addressID, err := pathID(r, "id")
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	var input services.AddressInput
	if err := decodeJSON(r, &input); err != nil {
		h.respondError(w, r, err)
		return
	}

	address, err := h.addressService.Update(r.Context(), user.ID, addressID, input)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondData(w, r, http.StatusOK, address)
}

func (h *Handlers) DeleteAddress(w http.ResponseWriter, r *http.Request) {
	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}
	addressID, err := pathID(r, "id")
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	if err := h.addressService.Delete(r.Context(), user.ID, addressID); err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondMessage(w, r, http.StatusOK, "address deleted")
}

func (h *Handlers) ListAddresses(w http.ResponseWriter, r *http.Request) {
	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}

	addresses, err := h.addressService.List(r.Context(), user.ID)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondData(w, r, http.StatusOK, addresses)
}
