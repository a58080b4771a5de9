package cart

import (
	"context"
	"sync"
	"time"

	"storefront-be/internal/logger"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

type entry struct {
	store    *Store
	lastSeen time.Time
}

// Registry hands out one Store per shopper slot key, loading it on first use.
type Registry struct {
	slot Slot

	mu     sync.Mutex
	stores map[string]*entry
	loads  singleflight.Group
}

func NewRegistry(slot Slot) *Registry {
	return &Registry{
		slot:   slot,
		stores: make(map[string]*entry),
	}
}

// Get returns the cart for key. A slot load runs without the registry lock
// so one slow key does not stall the others. Concurrent first requests for the
// same key share a single load.
func (r *Registry) Get(ctx context.Context, key string) (*Store, error) {
	if key == "" {
		return nil, ErrEmptySlotKey
	}

	if s, ok := r.cached(key); ok {
		return s, nil
	}

	v, err, _ := r.loads.Do(key, func() (interface{}, error) {
		if s, ok := r.cached(key); ok {
			return s, nil
		}

		s, err := NewStore(ctx, key, r.slot)
		if err != nil {
			return nil, err
		}

		r.mu.Lock()
		r.stores[key] = &entry{store: s, lastSeen: time.Now()}
		r.mu.Unlock()
		return s, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Store), nil
}

func (r *Registry) cached(key string) (*Store, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.stores[key]
	if !ok {
		return nil, false
	}
	e.lastSeen = time.Now()
	return e.store, true
}

// Len reports how many carts are held in memory.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.stores)
}

// Sweep drops carts not touched for idle. They reload from the slot on next use.
func (r *Registry) Sweep(idle time.Duration) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	removed := 0
	for key, e := range r.stores {
		if time.Since(e.lastSeen) > idle {
			delete(r.stores, key)
			removed++
		}
	}
	return removed
}

// Run sweeps every interval until ctx is done.
func (r *Registry) Run(ctx context.Context, every, idle time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := r.Sweep(idle); n > 0 {
				logger.L().Debug("evicted idle carts", zap.Int("count", n))
			}
		}
	}
}
