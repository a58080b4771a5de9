package payment

import (
	"context"
	"time"

	"storefront-be/internal/backend"
)

type State string

const (
	StateLoading State = "loading"
	StateActive  State = "active"
	StatePaid    State = "paid"
	StateExpired State = "expired"
	StateError   State = "error"
)

const (
	DefaultPollInterval = 5 * time.Second
	DefaultWindow       = 15 * time.Minute
	countdownStep       = time.Second
)

// Tracker fetches the payment side of an order. backend.Client satisfies it.
type Tracker interface {
	GetOrderTracking(ctx context.Context, orderNumber string) (*backend.OrderTracking, error)
}

// Status is a point-in-time view of a watch.
type Status struct {
	OrderNumber      string                 `json:"orderNumber"`
	State            State                  `json:"state"`
	Remaining        time.Duration          `json:"-"`
	RemainingSeconds int                    `json:"remainingSeconds"`
	Tracking         *backend.OrderTracking `json:"tracking,omitempty"`
	Transfer         *TransferDetails       `json:"transfer,omitempty"`
	LastError        string                 `json:"lastError,omitempty"`
}

// Terminal reports whether the watch can no longer change on its own:
// paid, or expired until the shopper restarts it.
func (s State) Terminal() bool {
	return s == StatePaid || s == StateExpired
}
