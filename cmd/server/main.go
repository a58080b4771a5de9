package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"storefront-be/internal/backend"
	"storefront-be/internal/cart"
	"storefront-be/internal/config"
	"storefront-be/internal/db"
	"storefront-be/internal/httpapi"
	"storefront-be/internal/logger"
	"storefront-be/internal/metrics"
	"storefront-be/internal/middleware"
	"storefront-be/internal/order"
	"storefront-be/internal/payment"
	"storefront-be/internal/shipping"
	"storefront-be/internal/storage"
	"storefront-be/internal/voucher"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
)

const (
	cartSweepEvery  = time.Minute
	cartIdle        = 30 * time.Minute
	paymentSweep    = time.Minute
	shutdownTimeout = 10 * time.Second
)

var (
	initDBFunc      = db.NewDatabase
	newRedisFunc    = storage.NewRedisClient
	startServerFunc = func(srv *http.Server) error { return srv.ListenAndServe() }
)

func main() {
	if err := run(context.Background()); err != nil {
		logger.L().Fatal("server stopped", zap.Error(err))
	}
}

type app struct {
	handler  http.Handler
	carts    *cart.Registry
	payments *payment.Manager
	limiter  *middleware.RateLimiter
}

// openSlot picks the cart persistence named by CART_STORE. The returned func
// releases its connection.
func openSlot(ctx context.Context, cfg *config.Config) (cart.Slot, func(), error) {
	switch cfg.CartStore {
	case config.StoreRedis:
		client, err := newRedisFunc(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			return nil, nil, err
		}
		return storage.NewRedisSlot(client, cfg.CartSlotTTL), func() { client.Close() }, nil
	case config.StorePostgres:
		database, err := initDBFunc(cfg)
		if err != nil {
			return nil, nil, err
		}
		logger.L().Info("Database connection established",
			zap.String("host", cfg.DBHost),
			zap.String("db", cfg.DBName),
		)
		return storage.NewPostgresSlot(database), func() { database.Close() }, nil
	default:
		return storage.NewMemorySlot(), func() {}, nil
	}
}

func newServer(cfg *config.Config, slot cart.Slot, reg *prometheus.Registry) (*app, error) {
	stats := &metrics.Checkout{}
	if err := stats.Register(reg); err != nil {
		return nil, err
	}

	client, err := backend.NewClient(cfg.BackendBaseURL, cfg.BackendTimeout, backend.WithMetrics(stats))
	if err != nil {
		return nil, err
	}

	payments := payment.NewManager(client,
		payment.WithPollInterval(cfg.PaymentPollInterval),
		payment.WithWindow(cfg.PaymentWindow),
		payment.WithTemplate(cfg.VietQRTemplate),
		payment.WithMetrics(stats),
	)

	a := &app{
		carts:    cart.NewRegistry(slot),
		payments: payments,
		limiter:  middleware.NewRateLimiter(),
	}
	a.handler = httpapi.NewRouter(&httpapi.Handler{
		Carts:    a.carts,
		Vouchers: voucher.NewResolver(client),
		Shipping: shipping.NewEstimator(client,
			shipping.WithFallbackFee(cfg.ShippingFallbackFee),
			shipping.WithServiceTypeID(cfg.ShippingServiceTypeID),
			shipping.WithMetrics(stats),
		),
		Orders:    order.NewService(client, payments),
		Payments:  payments,
		Stats:     stats,
		Gatherer:  reg,
		Limiter:   a.limiter,
		SecretKey: []byte(cfg.SecretKey),
		Origins:   cfg.CORSAllowOrigins,
	})
	return a, nil
}

func run(ctx context.Context) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}

	logger.Init(cfg.AppEnv, cfg.LogLevel)
	defer logger.Sync()

	if cfg.SecretKey == "" {
		logger.L().Warn("SECRET_KEY not set, every shopper is served as a guest")
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	slot, release, err := openSlot(ctx, cfg)
	if err != nil {
		return err
	}
	defer release()

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	a, err := newServer(cfg, slot, reg)
	if err != nil {
		return err
	}
	defer a.payments.Close()

	go a.carts.Run(ctx, cartSweepEvery, cartIdle)
	go a.limiter.Run(ctx)
	go a.payments.Run(ctx, paymentSweep, cfg.PaymentRetention)

	srv := &http.Server{
		Addr:              ":" + cfg.AppPort,
		Handler:           a.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- startServerFunc(srv) }()

	logger.L().Info("storefront server running",
		zap.String("addr", srv.Addr),
		zap.String("env", cfg.AppEnv),
		zap.String("cartStore", cfg.CartStore),
	)

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	logger.L().Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
