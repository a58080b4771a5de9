// Package metrics holds the in-process counters of the checkout core. They are
// reported on /health, exported to Prometheus on /metrics and used by tests to
// assert how many remote calls a component made.
package metrics

import (
	"sync/atomic"
	"time"
)

type Counter struct {
	value atomic.Uint64
}

func (c *Counter) Inc() {
	c.value.Add(1)
}

func (c *Counter) Add(n uint64) {
	c.value.Add(n)
}

func (c *Counter) Load() uint64 {
	return c.value.Load()
}

type Timer struct {
	start time.Time
}

func StartTimer() *Timer {
	return &Timer{start: time.Now()}
}

func (t *Timer) Duration() time.Duration {
	return time.Since(t.start)
}

// Checkout aggregates counters across the checkout core.
type Checkout struct {
	BackendCalls      Counter
	BackendFailures   Counter
	ShippingFallbacks Counter
	PaymentPolls      Counter
	PaymentsSettled   Counter
	PaymentsExpired   Counter
}

type CheckoutSnapshot struct {
	BackendCalls      uint64 `json:"backendCalls"`
	BackendFailures   uint64 `json:"backendFailures"`
	ShippingFallbacks uint64 `json:"shippingFallbacks"`
	PaymentPolls      uint64 `json:"paymentPolls"`
	PaymentsSettled   uint64 `json:"paymentsSettled"`
	PaymentsExpired   uint64 `json:"paymentsExpired"`
}

func (c *Checkout) Snapshot() CheckoutSnapshot {
	return CheckoutSnapshot{
		BackendCalls:      c.BackendCalls.Load(),
		BackendFailures:   c.BackendFailures.Load(),
		ShippingFallbacks: c.ShippingFallbacks.Load(),
		PaymentPolls:      c.PaymentPolls.Load(),
		PaymentsSettled:   c.PaymentsSettled.Load(),
		PaymentsExpired:   c.PaymentsExpired.Load(),
	}
}
