package handlers

import (
	"net/http"

	"github.com/vedacart/vedacart/internal/models"
	"github.com/vedacart/vedacart/internal/services"
)

type couponValidateRequest struct {
	Code          string `json:"code" validate:"required"`
	SubtotalPaise int64  `json:"subtotal_paise" validate:"required,gt=0"`
}

// ValidateCoupon quotes the discount for a code against a subtotal
// without consuming a redemption.
func (h *Handlers) ValidateCoupon(w http.ResponseWriter, r *http.Request) {
	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}
	var req couponValidateRequest
	if err := decodeJSON(r, &req); err != nil {
		h.respondError(w, r, err)
		return
	}

	result, err := h.couponService.Validate(r.Context(), req.Code, req.SubtotalPaise, user.ID)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondData(w, r, http.StatusOK, result)
}

func (h *Handlers) AdminListCoupons(w http.ResponseWriter, r *http.Request) {
	coupons, err := h.couponService.List(r.Context())
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondData(w, r, http.StatusOK, coupons)
}

func (h *Handlers) AdminCreateCoupon(w http.ResponseWriter, r *http.Request) {
	var input services.CouponInput
	if err := decodeJSON(r, &input); err != nil {
		h.respondError(w, r, err)
		return
	}

	coupon, err := h.couponService.Create(r.Context(), input)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondData(w, r, http.StatusCreated, coupon)
}

func (h *Handlers) AdminUpdateCoupon(w http.ResponseWriter, r *http.Request) {
	couponID, err := pathID(r, "id")
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	var input services.CouponInput
	if err := decodeJSON(r, &input); err != nil {
		h.respondError(w, r, err)
		return
	}

	coupon := &models.Coupon{
		ID:            couponID,
		Code:          input.Code,
		Type:          input.Type,
		Value:         input.Value,
		MinOrderPaise: input.MinOrderPaise,
		MaxUsage:      input.MaxUsage,
		PerUserLimit:  input.PerUserLimit,
		ValidFrom:     input.ValidFrom,
		ValidUntil:    input.ValidUntil,
		Active:        input.Active,
	}
	if err := h.couponService.Update(r.Context(), coupon); err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondData(w, r, http.StatusOK, coupon)
}

func (h *Handlers) AdminDeleteCoupon(w http.ResponseWriter, r *http.Request) {
	couponID, err := pathID(r, "id")
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	if err := h.couponService.Delete(r.Context(), couponID); err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondMessage(w, r, http.StatusOK, "coupon deleted")
}
