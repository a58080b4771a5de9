package payment

import (
	"context"
	"strings"
	"sync"
	"time"

	"storefront-be/internal/logger"

	"go.uber.org/zap"
)

// Manager keeps at most one Watch per order number.
type Manager struct {
	tracker Tracker
	opts    []Option

	mu      sync.Mutex
	watches map[string]*Watch
	closed  bool
}

func NewManager(tracker Tracker, opts ...Option) *Manager {
	return &Manager{
		tracker: tracker,
		opts:    opts,
		watches: make(map[string]*Watch),
	}
}

// Watch returns the running watch for orderNumber, mounting a new one when
// none exists yet.
func (m *Manager) Watch(ctx context.Context, orderNumber string) (*Watch, error) {
	orderNumber = strings.TrimSpace(orderNumber)
	if orderNumber == "" {
		return nil, ErrEmptyOrderNumber
	}

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil, ErrManagerClosed
	}
	if w, ok := m.watches[orderNumber]; ok {
		m.mu.Unlock()
		return w, nil
	}
	w := NewWatch(orderNumber, m.tracker, m.opts...)
	m.watches[orderNumber] = w
	m.mu.Unlock()

	if err := w.Start(ctx); err != nil {
		return nil, err
	}

	m.mu.Lock()
	closed := m.closed
	m.mu.Unlock()
	if closed {
		// Close ran while this watch was starting
		w.Stop()
		return nil, ErrManagerClosed
	}
	return w, nil
}

func (m *Manager) Get(orderNumber string) (*Watch, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	w, ok := m.watches[strings.TrimSpace(orderNumber)]
	return w, ok
}

func (m *Manager) Restart(ctx context.Context, orderNumber string) (*Watch, error) {
	w, ok := m.Get(orderNumber)
	if !ok {
		return nil, ErrWatchNotFound
	}
	if err := w.Restart(ctx); err != nil {
		return w, err
	}
	return w, nil
}

// Stop tears down and forgets the watch. It reports whether one existed.
func (m *Manager) Stop(orderNumber string) bool {
	orderNumber = strings.TrimSpace(orderNumber)

	m.mu.Lock()
	w, ok := m.watches[orderNumber]
	delete(m.watches, orderNumber)
	m.mu.Unlock()

	if ok {
		w.Stop()
	}
	return ok
}

// Sweep forgets watches that ended more than retention ago (paid, expired
// or failed) and returns how many were dropped. A shopper coming back later
// mounts a fresh watch.
func (m *Manager) Sweep(retention time.Duration) int {
	m.mu.Lock()
	var stale []*Watch
	for orderNumber, w := range m.watches {
		state, endedAt := w.ended()
		if endedAt.IsZero() || !(state.Terminal() || state == StateError) {
			continue
		}
		if time.Since(endedAt) > retention {
			delete(m.watches, orderNumber)
			stale = append(stale, w)
		}
	}
	m.mu.Unlock()

	for _, w := range stale {
		w.Stop()
	}
	return len(stale)
}

// Run sweeps every interval until ctx is done.
func (m *Manager) Run(ctx context.Context, every, retention time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := m.Sweep(retention); n > 0 {
				logger.L().Debug("evicted ended payment watches", zap.Int("count", n))
			}
		}
	}
}

func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.watches)
}

// Close stops every watch. Later calls to Watch fail with ErrManagerClosed.
func (m *Manager) Close() {
	m.mu.Lock()
	m.closed = true
	watches := m.watches
	m.watches = make(map[string]*Watch)
	m.mu.Unlock()

	for _, w := range watches {
		w.Stop()
	}
	logger.L().Info("payment watches stopped", zap.Int("count", len(watches)))
}
