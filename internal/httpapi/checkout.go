package httpapi

import (
	"errors"
	"net/http"

	"storefront-be/internal/address"
	"storefront-be/internal/backend"
	"storefront-be/internal/cart"
	"storefront-be/internal/order"
)

// shippingFee quotes delivery to the address being filled in on the checkout
// form. Only the district and ward codes matter, the rest may still be blank.
func (h *Handler) shippingFee(w http.ResponseWriter, r *http.Request) {
	var addr address.ShippingAddress
	if err := decodeJSON(w, r, &addr); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	s, ok := h.store(w, r)
	if !ok {
		return
	}
	snap := s.Snapshot()
	quote := h.Shipping.Estimate(r.Context(), addr.Normalize().Destination(), snap.Items, cart.Subtotal(snap))
	writeJSON(w, http.StatusOK, quote)
}

func (h *Handler) placeOrder(w http.ResponseWriter, r *http.Request) {
	var input order.CheckoutInput
	if err := decodeJSON(w, r, &input); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	input.IdempotencyKey = r.Header.Get("Idempotency-Key")

	s, ok := h.store(w, r)
	if !ok {
		return
	}

	placement, err := h.Orders.PlaceOrder(r.Context(), s, input)
	if err != nil {
		var verr *address.ValidationError
		switch {
		case errors.As(err, &verr):
			writeFieldErrors(w, "invalid checkout input", verr.Fields)
		case errors.Is(err, order.ErrCartEmpty):
			writeError(w, http.StatusConflict, "cart is empty")
		default:
			if apiErr, ok := backend.AsRejection(err); ok && apiErr.Message != "" {
				writeError(w, http.StatusUnprocessableEntity, apiErr.Message)
				return
			}
			writeError(w, http.StatusBadGateway, "cannot place order, please retry")
		}
		return
	}

	writeJSON(w, http.StatusCreated, placement)
}
