package middleware

import (
	"net/http"
	"strings"

	"storefront-be/internal/auth"
	"storefront-be/internal/backend"
	"storefront-be/internal/logger"
	"storefront-be/internal/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const CartIDHeader = "X-Cart-ID"

// ShopperMiddleware decides whose cart the request works on. A verified
// token maps to user:<id> and is forwarded to the backend; otherwise the
// X-Cart-ID header names a guest cart, minted and echoed when missing.
// A token that fails verification is rejected with 401.
func ShopperMiddleware(secret []byte) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			var shopper utils.Shopper

			if token := auth.ExtractAccessToken(r); token != "" && len(secret) > 0 {
				userID, err := auth.ParseUserID(token, secret)
				if err != nil {
					logger.FromCtx(ctx).Info("rejected access token", zap.Error(err))
					utils.WriteJSONError(w, "invalid access token", http.StatusUnauthorized)
					return
				}
				shopper = utils.Shopper{UserID: userID, SlotKey: utils.UserSlotKey(userID)}
				ctx = backend.WithAccessToken(ctx, token)
			} else {
				cartID := strings.TrimSpace(r.Header.Get(CartIDHeader))
				if _, err := uuid.Parse(cartID); err != nil {
					cartID = uuid.NewString()
				}
				w.Header().Set(CartIDHeader, cartID)
				shopper = utils.Shopper{CartID: cartID, SlotKey: utils.GuestSlotKey(cartID)}
			}

			ctx = utils.SetShopperContext(ctx, shopper)
			ctx = logger.WithShopper(ctx, shopper.SlotKey)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
