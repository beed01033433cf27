package handlers

import (
	"net/http"

	"github.com/vedacart/vedacart/internal/services"
)

func (h *Handlers) AdminGrantPermission(w http.ResponseWriter, r *http.Request) {
	var input services.PermissionInput
	if err := decodeJSON(r, &input); err != nil {
		h.respondError(w, r, err)
		return
	}

	if err := h.permissionService.Grant(r.Context(), input); err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondMessage(w, r, http.StatusOK, "permission granted")
}

func (h *Handlers) AdminRevokePermission(w http.ResponseWriter, r *http.Request) {
	var input services.PermissionInput
	if err := decodeJSON(r, &input); err != nil {
		h.respondError(w, r, err)
		return
	}

	if err := h.permissionService.Revoke(r.Context(), input); err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondMessage(w, r, http.StatusOK, "permission revoked")
}

func (h *Handlers) AdminListPermissions(w http.ResponseWriter, r *http.Request) {
	userID, err := pathID(r, "id")
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	permissions, err := h.permissionService.ListForUser(r.Context(), userID)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondData(w, r, http.StatusOK, permissions)
}
