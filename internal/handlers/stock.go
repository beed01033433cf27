package handlers

import (
	"net/http"

	"github.com/vedacart/vedacart/internal/models"
	"github.com/vedacart/vedacart/internal/services"
)

func (h *Handlers) AdminListWarehouses(w http.ResponseWriter, r *http.Request) {
	warehouses, err := h.stockService.ListWarehouses(r.Context())
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondData(w, r, http.StatusOK, warehouses)
}

func (h *Handlers) AdminCreateWarehouse(w http.ResponseWriter, r *http.Request) {
	var input services.WarehouseInput
	if err := decodeJSON(r, &input); err != nil {
		h.respondError(w, r, err)
		return
	}

	warehouse, err := h.stockService.CreateWarehouse(r.Context(), input)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondData(w, r, http.StatusCreated, warehouse)
}

func (h *Handlers) AdminUpdateWarehouse(w http.ResponseWriter, r *http.Request) {
	warehouseID, err := pathID(r, "id")
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	var input services.WarehouseInput
	if err := decodeJSON(r, &input); err != nil {
		h.respondError(w, r, err)
		return
	}

	warehouse := &models.Warehouse{
		ID:      warehouseID,
		Name:    input.Name,
		Pincode: input.Pincode,
		Address: input.Address,
		Active:  input.Active,
	}
	if err := h.stockService.UpdateWarehouse(r.Context(), warehouse); err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondData(w, r, http.StatusOK, warehouse)
}

func (h *Handlers) AdminListWarehouseStock(w http.ResponseWriter, r *http.Request) {
	warehouseID, err := pathID(r, "id")
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	stock, err := h.stockService.ListByWarehouse(r.Context(), warehouseID)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondData(w, r, http.StatusOK, stock)
}

func (h *Handlers) AdminEnsureStock(w http.ResponseWriter, r *http.Request) {
	var input services.StockInput
	if err := decodeJSON(r, &input); err != nil {
		h.respondError(w, r, err)
		return
	}

	stock, err := h.stockService.EnsureStock(r.Context(), input)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondData(w, r, http.StatusCreated, stock)
}

func (h *Handlers) AdminAdjustStock(w http.ResponseWriter, r *http.Request) {
	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}
	var input services.AdjustmentInput
	if err := decodeJSON(r, &input); err != nil {
		h.respondError(w, r, err)
		return
	}

	stock, err := h.stockService.Adjust(r.Context(), user.ID, input)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondData(w, r, http.StatusOK, stock)
}

func (h *Handlers) AdminListLowStock(w http.ResponseWriter, r *http.Request) {
	stock, err := h.stockService.ListLow(r.Context())
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondData(w, r, http.StatusOK, stock)
}

func (h *Handlers) AdminListStockAdjustments(w http.ResponseWriter, r *http.Request) {
	stockID, err := pathID(r, "id")
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	adjustments, err := h.stockService.ListAdjustments(r.Context(), stockID, listLimit(r, 50, 200))
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondData(w, r, http.StatusOK, adjustments)
}
