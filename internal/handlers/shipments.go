package handlers

import (
	"net/http"
)

func (h *Handlers) GetShipment(w http.ResponseWriter, r *http.Request) {
	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}
	orderID, err := pathID(r, "id")
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	shipment, err := h.shipmentService.GetForOrder(r.Context(), orderID, user.ID, user.IsAdmin || user.IsSuperAdmin)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondData(w, r, http.StatusOK, shipment)
}

// AdminDispatchShipments triggers one dispatch batch outside the
// scheduler cadence.
func (h *Handlers) AdminDispatchShipments(w http.ResponseWriter, r *http.Request) {
	shipped, err := h.shipmentService.DispatchBatch(r.Context(), h.config.ShipmentBatchSize)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondData(w, r, http.StatusOK, map[string]int{"shipped": shipped})
}
