package httpapi

import (
	"net/http"
	"strings"

	"storefront-be/internal/cart"
	"storefront-be/internal/voucher"

	"github.com/go-chi/chi/v5"
)

type addItemRequest struct {
	Line     cart.Line `json:"line"`
	Quantity int       `json:"quantity"`
}

type addItemResponse struct {
	Result cart.AddResult `json:"result"`
	Cart   cart.Summary   `json:"cart"`
}

type updateItemRequest struct {
	VariantID string `json:"variantId"`
	Quantity  int    `json:"quantity"`
}

type voucherRequest struct {
	Code string `json:"code"`
}

type voucherResponse struct {
	Result voucher.Result `json:"result"`
	Cart   cart.Summary   `json:"cart"`
}

func (h *Handler) getCart(w http.ResponseWriter, r *http.Request) {
	s, ok := h.store(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, summary(s))
}

func (h *Handler) addItem(w http.ResponseWriter, r *http.Request) {
	var req addItemRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	req.Line.ProductID = strings.TrimSpace(req.Line.ProductID)
	if req.Line.ProductID == "" {
		writeError(w, http.StatusBadRequest, "line.productId is required")
		return
	}
	if req.Line.Price < 0 {
		writeError(w, http.StatusBadRequest, "line.price must not be negative")
		return
	}

	s, ok := h.store(w, r)
	if !ok {
		return
	}
	res := s.AddItem(r.Context(), req.Line, req.Quantity)
	writeJSON(w, http.StatusOK, addItemResponse{Result: res, Cart: summary(s)})
}

func (h *Handler) updateItem(w http.ResponseWriter, r *http.Request) {
	var req updateItemRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	s, ok := h.store(w, r)
	if !ok {
		return
	}
	s.UpdateQuantity(r.Context(), chi.URLParam(r, "productId"), req.VariantID, req.Quantity)
	writeJSON(w, http.StatusOK, summary(s))
}

func (h *Handler) removeItem(w http.ResponseWriter, r *http.Request) {
	s, ok := h.store(w, r)
	if !ok {
		return
	}
	s.RemoveItem(r.Context(), chi.URLParam(r, "productId"), r.URL.Query().Get("variantId"))
	writeJSON(w, http.StatusOK, summary(s))
}

func (h *Handler) clearCart(w http.ResponseWriter, r *http.Request) {
	s, ok := h.store(w, r)
	if !ok {
		return
	}
	s.ClearCart(r.Context())
	writeJSON(w, http.StatusOK, summary(s))
}

func (h *Handler) applyVoucher(w http.ResponseWriter, r *http.Request) {
	var req voucherRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	s, ok := h.store(w, r)
	if !ok {
		return
	}

	res := h.Vouchers.Apply(r.Context(), s, req.Code)
	code := http.StatusOK
	switch res.Outcome {
	case voucher.Rejected:
		code = http.StatusUnprocessableEntity
	case voucher.Unavailable:
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, voucherResponse{Result: res, Cart: summary(s)})
}

func (h *Handler) removeVoucher(w http.ResponseWriter, r *http.Request) {
	s, ok := h.store(w, r)
	if !ok {
		return
	}
	h.Vouchers.Remove(r.Context(), s)
	writeJSON(w, http.StatusOK, summary(s))
}
