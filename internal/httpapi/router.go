package httpapi

import (
	"net/http"

	"storefront-be/internal/cart"
	"storefront-be/internal/metrics"
	"storefront-be/internal/middleware"
	"storefront-be/internal/order"
	"storefront-be/internal/payment"
	"storefront-be/internal/shipping"
	"storefront-be/internal/voucher"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Handler serves the checkout core to the storefront UI.
type Handler struct {
	Carts     *cart.Registry
	Vouchers  voucher.Resolver
	Shipping  *shipping.Estimator
	Orders    order.Service
	Payments  *payment.Manager
	Stats     *metrics.Checkout
	Gatherer  prometheus.Gatherer
	Limiter   *middleware.RateLimiter
	SecretKey []byte
	Origins   []string
}

func NewRouter(h *Handler) http.Handler {
	if h.Stats == nil {
		h.Stats = &metrics.Checkout{}
	}
	if h.Limiter == nil {
		h.Limiter = middleware.NewRateLimiter()
	}

	r := chi.NewRouter()
	r.Use(
		middleware.RequestIDMiddleware,
		middleware.LoggingMiddleware,
		chimw.Recoverer,
		middleware.CORS(h.Origins),
	)

	r.Get("/health", h.health)
	if h.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(h.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Group(func(r chi.Router) {
		r.Use(middleware.ShopperMiddleware(h.SecretKey), h.Limiter.Middleware)

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", h.getCart)
			r.Delete("/", h.clearCart)
			r.Post("/items", h.addItem)
			r.Patch("/items/{productId}", h.updateItem)
			r.Delete("/items/{productId}", h.removeItem)
			r.Post("/voucher", h.applyVoucher)
			r.Delete("/voucher", h.removeVoucher)
		})

		r.Route("/checkout", func(r chi.Router) {
			r.Post("/shipping-fee", h.shippingFee)
			r.Post("/orders", h.placeOrder)
		})

		r.Route("/payments/{orderNumber}", func(r chi.Router) {
			r.Get("/", h.paymentStatus)
			r.Post("/watch", h.watchPayment)
			r.Delete("/watch", h.stopPayment)
			r.Post("/restart", h.restartPayment)
		})
	})

	return r
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	body := map[string]any{
		"status":  "ok",
		"metrics": h.Stats.Snapshot(),
	}
	if h.Carts != nil {
		body["carts"] = h.Carts.Len()
	}
	if h.Payments != nil {
		body["paymentWatches"] = h.Payments.Len()
	}
	writeJSON(w, http.StatusOK, body)
}
