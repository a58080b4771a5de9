package order

import (
	"storefront-be/internal/address"
	"storefront-be/internal/backend"
	"storefront-be/internal/payment"
)

// CheckoutInput is what the checkout form submits. ShippingFee is the quote
// the shopper saw after picking the address.
type CheckoutInput struct {
	Address        address.ShippingAddress `json:"address"`
	PaymentMethod  string                  `json:"paymentMethod" validate:"required,oneof=COD BANK_TRANSFER"`
	ShippingFee    int64                   `json:"shippingFee" validate:"gte=0"`
	Note           string                  `json:"note,omitempty" validate:"max=500"`
	PointsToRedeem *int                    `json:"pointsToRedeem,omitempty" validate:"omitempty,gt=0"`
	IdempotencyKey string                  `json:"-"`
}

type Placement struct {
	OrderID       backend.ID      `json:"orderId"`
	OrderNumber   string          `json:"orderNumber"`
	PaymentMethod string          `json:"paymentMethod"`
	Subtotal      int64           `json:"subtotal"`
	Discount      int64           `json:"discount"`
	ShippingFee   int64           `json:"shippingFee"`
	Total         int64           `json:"total"`
	VoucherCode   *string         `json:"voucherCode,omitempty"`
	Payment       *payment.Status `json:"payment,omitempty"`
}
