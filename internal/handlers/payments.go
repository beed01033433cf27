package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/vedacart/vedacart/internal/apperr"
)

func (h *Handlers) InitiatePayment(w http.ResponseWriter, r *http.Request) {
	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}
	orderID, err := pathID(r, "id")
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	payment, err := h.paymentService.Initiate(r.Context(), orderID, user.ID)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondData(w, r, http.StatusCreated, payment)
}

func (h *Handlers) GetPayment(w http.ResponseWriter, r *http.Request) {
	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}
	orderID, err := pathID(r, "id")
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	payment, err := h.paymentService.GetForOrder(r.Context(), orderID, user.ID, user.IsAdmin || user.IsSuperAdmin)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondData(w, r, http.StatusOK, payment)
}

type paymentCallbackRequest struct {
	GatewayOrderID   string `json:"razorpay_order_id" validate:"required"`
	GatewayPaymentID string `json:"razorpay_payment_id" validate:"required"`
	Signature        string `json:"razorpay_signature" validate:"required"`
}

// PaymentCallback confirms a payment from the browser checkout flow.
// The webhook remains the source of truth; this only settles faster
// when the client reports back first.
func (h *Handlers) PaymentCallback(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.currentUser(w, r); !ok {
		return
	}
	var req paymentCallbackRequest
	if err := decodeJSON(r, &req); err != nil {
		h.respondError(w, r, err)
		return
	}

	if err := h.paymentService.ConfirmCallback(r.Context(), req.GatewayOrderID, req.GatewayPaymentID, req.Signature); err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondMessage(w, r, http.StatusOK, "payment confirmed")
}

type refundRequest struct {
	AmountPaise int64 `json:"amount_paise" validate:"required,gt=0"`
}

func (h *Handlers) AdminRefundPayment(w http.ResponseWriter, r *http.Request) {
	orderID, err := pathID(r, "id")
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	var req refundRequest
	if err := decodeJSON(r, &req); err != nil {
		h.respondError(w, r, err)
		return
	}

	if err := h.paymentService.Refund(r.Context(), orderID, req.AmountPaise); err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondMessage(w, r, http.StatusOK, "refund issued")
}

// PaymentWebhook receives gateway delivery notifications. Signature
// failures return 400; everything else returns 200 so the gateway does
// not retry events we have already absorbed.
func (h *Handlers) PaymentWebhook(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := h.loggerFromContext(ctx)

	r.Body = http.MaxBytesReader(w, r.Body, maxWebhookBodyBytes)
	payload, err := io.ReadAll(r.Body)
	if err != nil {
		logger.Error("failed to read webhook payload", "error", err)
		http.Error(w, "Invalid webhook", http.StatusBadRequest)
		return
	}

	signature := r.Header.Get("X-Razorpay-Signature")
	if signature == "" {
		signature = r.Header.Get("Stripe-Signature")
	}

	if err := h.paymentService.HandleWebhook(ctx, payload, signature); err != nil {
		var appErr *apperr.Error
		if errors.As(err, &appErr) && appErr.Kind == apperr.KindValidation {
			logger.Warn("rejected webhook", "error", err)
			http.Error(w, "Invalid webhook", http.StatusBadRequest)
			return
		}
		logger.Error("failed to process webhook", "error", err)
		http.Error(w, "Processing failed", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusOK)
}
