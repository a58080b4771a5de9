package httpapi

import (
	"errors"
	"net/http"

	"storefront-be/internal/payment"

	"github.com/go-chi/chi/v5"
)

func (h *Handler) watchPayment(w http.ResponseWriter, r *http.Request) {
	watch, err := h.Payments.Watch(r.Context(), chi.URLParam(r, "orderNumber"))
	if err != nil {
		writePaymentError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, watch.Status())
}

func (h *Handler) paymentStatus(w http.ResponseWriter, r *http.Request) {
	watch, ok := h.Payments.Get(chi.URLParam(r, "orderNumber"))
	if !ok {
		writePaymentError(w, payment.ErrWatchNotFound)
		return
	}
	writeJSON(w, http.StatusOK, watch.Status())
}

func (h *Handler) restartPayment(w http.ResponseWriter, r *http.Request) {
	watch, err := h.Payments.Restart(r.Context(), chi.URLParam(r, "orderNumber"))
	if err != nil {
		writePaymentError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, watch.Status())
}

func (h *Handler) stopPayment(w http.ResponseWriter, r *http.Request) {
	if !h.Payments.Stop(chi.URLParam(r, "orderNumber")) {
		writePaymentError(w, payment.ErrWatchNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func writePaymentError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, payment.ErrEmptyOrderNumber):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, payment.ErrWatchNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, payment.ErrAlreadyPaid), errors.Is(err, payment.ErrWatchRunning):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, payment.ErrManagerClosed):
		writeError(w, http.StatusServiceUnavailable, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "payment watch failed")
	}
}
