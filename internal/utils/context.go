package utils

import "context"

type contextKey string

const shopperKey contextKey = "shopper"

// Shopper identifies whose cart a request works on.
type Shopper struct {
	UserID  string
	CartID  string
	SlotKey string
}

func (s Shopper) IsGuest() bool {
	return s.UserID == ""
}

// SetShopperContext is called by the identity middleware.
func SetShopperContext(ctx context.Context, s Shopper) context.Context {
	return context.WithValue(ctx, shopperKey, s)
}

// GetShopperFromContext retrieves the shopper safely
func GetShopperFromContext(ctx context.Context) (Shopper, bool) {
	s, ok := ctx.Value(shopperKey).(Shopper)
	return s, ok && s.SlotKey != ""
}

func UserSlotKey(userID string) string {
	return "user:" + userID
}

func GuestSlotKey(cartID string) string {
	return "guest:" + cartID
}
