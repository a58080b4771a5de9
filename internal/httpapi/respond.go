package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"storefront-be/internal/cart"
	"storefront-be/internal/logger"
	"storefront-be/internal/utils"

	"go.uber.org/zap"
)

const maxBodyBytes = 1 << 20

var errBadBody = errors.New("invalid request body")

func decodeJSON(w http.ResponseWriter, r *http.Request, dest any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	defer func() {
		io.Copy(io.Discard, r.Body)
	}()

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dest); err != nil {
		return fmt.Errorf("%w: %v", errBadBody, err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	utils.WriteJSON(w, code, v)
}

func writeError(w http.ResponseWriter, code int, message string) {
	utils.WriteJSONError(w, message, code)
}

func writeFieldErrors(w http.ResponseWriter, message string, fields map[string]string) {
	writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
		"error":  message,
		"fields": fields,
	})
}

// store resolves the cart of the current shopper and answers 503 itself
// when the slot cannot be read.
func (h *Handler) store(w http.ResponseWriter, r *http.Request) (*cart.Store, bool) {
	shopper, ok := utils.GetShopperFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unknown shopper")
		return nil, false
	}

	s, err := h.Carts.Get(r.Context(), shopper.SlotKey)
	if err != nil {
		logger.FromCtx(r.Context()).Error("failed to load cart", zap.Error(err))
		writeError(w, http.StatusServiceUnavailable, "cart is unavailable, please retry")
		return nil, false
	}
	return s, true
}

func summary(s *cart.Store) cart.Summary {
	sum := cart.Summarize(s.Snapshot())
	if sum.Items == nil {
		sum.Items = []cart.Line{}
	}
	return sum
}
