package cart

import "errors"

var (
	ErrSlotUnavailable = errors.New("cart storage unavailable")
	ErrEmptySlotKey    = errors.New("cart slot key is empty")
)
