package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Register exposes the checkout counters on reg. A nil reg is a no-op.
func (c *Checkout) Register(reg prometheus.Registerer) error {
	if reg == nil {
		return nil
	}

	counters := []struct {
		name    string
		help    string
		counter *Counter
	}{
		{"storefront_backend_calls_total", "REST backend calls made.", &c.BackendCalls},
		{"storefront_backend_failures_total", "REST backend calls that failed or returned non-2xx.", &c.BackendFailures},
		{"storefront_shipping_fallbacks_total", "Shipping quotes answered with the flat fallback fee.", &c.ShippingFallbacks},
		{"storefront_payment_polls_total", "Order tracking fetches made by payment watches.", &c.PaymentPolls},
		{"storefront_payments_settled_total", "Payment watches that saw the order paid.", &c.PaymentsSettled},
		{"storefront_payments_expired_total", "Payment watches whose window ran out.", &c.PaymentsExpired},
	}

	for _, m := range counters {
		counter := m.counter
		cf := prometheus.NewCounterFunc(prometheus.CounterOpts{
			Name: m.name,
			Help: m.help,
		}, func() float64 {
			return float64(counter.Load())
		})
		if err := reg.Register(cf); err != nil {
			return err
		}
	}
	return nil
}
