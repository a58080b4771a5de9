package order

import "errors"

var (
	ErrCartEmpty         = errors.New("cart is empty")
	ErrInvalidCheckout   = errors.New("invalid checkout input")
	ErrFailedCreateOrder = errors.New("failed to create order")
)
