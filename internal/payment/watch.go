package payment

import (
	"context"
	"sync"
	"time"

	"storefront-be/internal/backend"
	"storefront-be/internal/logger"
	"storefront-be/internal/metrics"

	"go.uber.org/zap"
)

type Option func(*options)

type options struct {
	pollInterval time.Duration
	window       time.Duration
	template     string
	stats        *metrics.Checkout
}

func WithPollInterval(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.pollInterval = d
		}
	}
}

func WithWindow(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.window = d
		}
	}
}

func WithTemplate(template string) Option {
	return func(o *options) { o.template = template }
}

func WithMetrics(m *metrics.Checkout) Option {
	return func(o *options) { o.stats = m }
}

func buildOptions(opts []Option) options {
	o := options{
		pollInterval: DefaultPollInterval,
		window:       DefaultWindow,
		template:     DefaultVietQRTemplate,
		stats:        &metrics.Checkout{},
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Watch polls one order until it is paid or its payment window runs out.
//
// loading -> active | error, active -> paid | expired, expired | error -> loading
// on Restart. paid is terminal.
type Watch struct {
	orderNumber string
	tracker     Tracker
	opts        options

	mu        sync.Mutex
	state     State
	remaining time.Duration
	tracking  *backend.OrderTracking
	lastErr   error
	endedAt   time.Time
	running   bool
	gen       uint64
	cancel    context.CancelFunc
	done      chan struct{}
}

type fetchResult struct {
	tracking *backend.OrderTracking
	err      error
}

func NewWatch(orderNumber string, tracker Tracker, opts ...Option) *Watch {
	o := buildOptions(opts)
	return &Watch{
		orderNumber: orderNumber,
		tracker:     tracker,
		opts:        o,
		state:       StateLoading,
		remaining:   o.window,
	}
}

func (w *Watch) OrderNumber() string {
	return w.orderNumber
}

// Start mounts the watch: one tracking fetch, then the poll and countdown
// timers unless the order is already paid or the fetch failed with nothing
// to show. The timers outlive ctx; only Stop ends them.
func (w *Watch) Start(ctx context.Context) error {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "payment"),
		zap.String("method", "Watch.Start"),
		zap.String("order_number", w.orderNumber),
	)

	w.mu.Lock()
	switch {
	case w.state == StatePaid:
		w.mu.Unlock()
		return ErrAlreadyPaid
	case w.running:
		w.mu.Unlock()
		return ErrWatchRunning
	}
	w.gen++
	gen := w.gen
	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	w.running = true
	w.state = StateLoading
	w.remaining = w.opts.window
	w.lastErr = nil
	w.endedAt = time.Time{}
	w.cancel = cancel
	w.done = nil
	w.mu.Unlock()

	tracking, err := w.tracker.GetOrderTracking(runCtx, w.orderNumber)
	w.opts.stats.PaymentPolls.Inc()

	w.mu.Lock()
	defer w.mu.Unlock()
	if gen != w.gen {
		cancel()
		// stopped while fetching; a newer Start owns the state when running
		if w.state == StateLoading && !w.running {
			w.state = StateError
			w.lastErr = ErrWatchStopped
			w.endedAt = time.Now()
		}
		return nil
	}

	if err != nil {
		w.lastErr = err
		if w.tracking == nil {
			log.Warn("initial tracking fetch failed", zap.Error(err))
			w.state = StateError
			w.running = false
			w.cancel = nil
			w.endedAt = time.Now()
			cancel()
			return nil
		}
		log.Warn("initial tracking fetch failed, keeping previous data", zap.Error(err))
	} else {
		w.tracking = tracking
	}

	if w.tracking.IsPaid() {
		log.Info("order already paid")
		w.settleLocked()
		cancel()
		return nil
	}

	w.state = StateActive
	w.done = make(chan struct{})
	go w.run(runCtx, cancel, gen, time.Now().Add(w.opts.window), w.done)

	log.Info("payment watch started",
		zap.Duration("window", w.opts.window),
		zap.Duration("poll_interval", w.opts.pollInterval),
	)
	return nil
}

// Restart is the retry action for an expired or failed watch.
func (w *Watch) Restart(ctx context.Context) error {
	return w.Start(ctx)
}

// Stop tears the watch down and waits for its goroutine, so nothing ticks
// or fetches once it returns. Safe to call more than once.
func (w *Watch) Stop() {
	w.mu.Lock()
	cancel, done := w.cancel, w.done
	w.gen++
	w.running = false
	w.cancel = nil
	w.done = nil
	w.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}
}

func (w *Watch) Status() Status {
	w.mu.Lock()
	defer w.mu.Unlock()

	st := Status{
		OrderNumber:      w.orderNumber,
		State:            w.state,
		Remaining:        w.remaining,
		RemainingSeconds: int(w.remaining / time.Second),
	}
	if w.tracking != nil {
		t := *w.tracking
		st.Tracking = &t
		if details, err := BuildTransferDetails(&t, w.opts.template); err == nil {
			st.Transfer = details
		}
	}
	if w.lastErr != nil {
		st.LastError = w.lastErr.Error()
	}
	return st
}

// ended reports when the watch stopped for good: paid, expired or failed.
// The zero time means it is still loading or active.
func (w *Watch) ended() (State, time.Time) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.running {
		return w.state, time.Time{}
	}
	return w.state, w.endedAt
}

// run owns both timers. The countdown is measured against expiresAt, and
// fetches happen off the loop one at a time, so a slow backend cannot hold
// the window open.
func (w *Watch) run(ctx context.Context, cancel context.CancelFunc, gen uint64, expiresAt time.Time, done chan struct{}) {
	defer close(done)

	results := make(chan fetchResult, 1)
	inFlight := false
	defer func() {
		cancel()
		if inFlight {
			<-results
		}
	}()

	log := logger.FromCtx(ctx).With(
		zap.String("layer", "payment"),
		zap.String("method", "Watch.run"),
		zap.String("order_number", w.orderNumber),
	)

	poll := time.NewTicker(w.opts.pollInterval)
	defer poll.Stop()
	countdown := time.NewTicker(countdownStep)
	defer countdown.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case <-countdown.C:
			w.mu.Lock()
			if gen != w.gen {
				w.mu.Unlock()
				return
			}
			if left := time.Until(expiresAt); left > 0 {
				w.remaining = left
				w.mu.Unlock()
				continue
			}
			w.remaining = 0
			w.state = StateExpired
			w.running = false
			w.cancel = nil
			w.endedAt = time.Now()
			w.mu.Unlock()

			w.opts.stats.PaymentsExpired.Inc()
			log.Info("payment window expired")
			return

		case <-poll.C:
			if inFlight {
				continue
			}
			inFlight = true
			go func() {
				tracking, err := w.tracker.GetOrderTracking(ctx, w.orderNumber)
				w.opts.stats.PaymentPolls.Inc()
				results <- fetchResult{tracking: tracking, err: err}
			}()

		case res := <-results:
			inFlight = false
			if ctx.Err() != nil {
				return
			}
			if res.err != nil {
				log.Warn("payment poll failed", zap.Error(res.err))
				continue
			}

			w.mu.Lock()
			if gen != w.gen {
				w.mu.Unlock()
				return
			}
			w.tracking = res.tracking
			if !res.tracking.IsPaid() {
				w.mu.Unlock()
				continue
			}
			w.remaining = max(time.Until(expiresAt), 0)
			w.settleLocked()
			w.mu.Unlock()

			log.Info("payment received", zap.Int64("total", res.tracking.Total))
			return
		}
	}
}

func (w *Watch) settleLocked() {
	w.state = StatePaid
	w.running = false
	w.cancel = nil
	w.lastErr = nil
	w.endedAt = time.Now()
	w.opts.stats.PaymentsSettled.Inc()
}
