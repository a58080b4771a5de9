package cart

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"storefront-be/internal/logger"

	"go.uber.org/zap"
)

// Slot is the durable key-value slot a cart is persisted to.
// Load returns nil data and a nil error when nothing is stored under key.
type Slot interface {
	Load(ctx context.Context, key string) ([]byte, error)
	Save(ctx context.Context, key string, data []byte) error
}

type Listener func(State)

// Store is the single source of truth for one shopper's cart. All mutation
// goes through its methods; none of them can fail.
type Store struct {
	key  string
	slot Slot

	mu    sync.Mutex
	state State

	subMu  sync.Mutex
	subs   map[uint64]Listener
	nextID uint64

	// snapshots waiting for listeners, in mutation order. Lock order is
	// mu then qMu.
	qMu        sync.Mutex
	pending    []State
	delivering bool
}

// NewStore loads the persisted cart once. An unreadable payload starts an
// empty cart; a slot that cannot be reached is an error, since saving over it
// would drop the shopper's items.
func NewStore(ctx context.Context, key string, slot Slot) (*Store, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "cart"),
		zap.String("method", "NewStore"),
		zap.String("slot", key),
	)

	s := &Store{
		key:   key,
		slot:  slot,
		state: State{Items: []Line{}},
		subs:  make(map[uint64]Listener),
	}

	data, err := slot.Load(ctx, key)
	if err != nil {
		log.Error("failed to load cart slot", zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrSlotUnavailable, err)
	}
	if len(data) == 0 {
		return s, nil
	}

	var persisted State
	if err := json.Unmarshal(data, &persisted); err != nil {
		log.Warn("discarding unreadable cart slot", zap.Error(err))
		return s, nil
	}

	s.state = normalize(persisted)
	log.Debug("cart restored", zap.Int("lines", len(s.state.Items)))
	return s, nil
}

// normalize re-applies the line invariants to data that came from storage.
func normalize(st State) State {
	out := State{Items: make([]Line, 0, len(st.Items))}
	seen := make(map[Key]bool, len(st.Items))
	for _, l := range st.Items {
		if l.ProductID == "" || l.MaxQuantity < 1 || l.Quantity < 1 || seen[l.Key()] {
			continue
		}
		if l.Quantity > l.MaxQuantity {
			l.Quantity = l.MaxQuantity
		}
		seen[l.Key()] = true
		out.Items = append(out.Items, l)
	}
	if st.VoucherCode != nil && *st.VoucherCode != "" && st.VoucherDiscount > 0 {
		out.VoucherCode = st.VoucherCode
		out.VoucherDiscount = st.VoucherDiscount
	}
	return out
}

func (s *Store) Key() string {
	return s.key
}

// AddItem merges quantity into the line with the same key, or inserts the
// line. The result is clamped to the line's MaxQuantity; quantity < 1 counts
// as 1. The freshest MaxQuantity wins when the incoming line carries one.
func (s *Store) AddItem(ctx context.Context, line Line, quantity int) AddResult {
	if quantity < 1 {
		quantity = 1
	}
	res := AddResult{Requested: quantity}

	s.mu.Lock()
	idx := s.state.indexOf(line.Key())
	switch {
	case idx >= 0:
		existing := &s.state.Items[idx]
		if line.MaxQuantity > 0 {
			existing.MaxQuantity = line.MaxQuantity
		}
		want := existing.Quantity + quantity
		next := min(want, existing.MaxQuantity)
		res.Added = next - existing.Quantity
		res.Clamped = next < want
		existing.Quantity = next
		res.Line = *existing
	case line.MaxQuantity < 1:
		// out of stock: nothing can be added
		line.Quantity = 0
		res.Line = line
		res.Clamped = true
		s.mu.Unlock()
		return res
	default:
		line.Quantity = min(quantity, line.MaxQuantity)
		res.Added = line.Quantity
		res.Clamped = line.Quantity < quantity
		s.state.Items = append(s.state.Items, line)
		res.Line = line
	}
	s.persistLocked(ctx, "AddItem")
	s.mu.Unlock()

	s.deliver()
	return res
}

// RemoveItem deletes the matching line; absent lines are a no-op.
func (s *Store) RemoveItem(ctx context.Context, productID, variantID string) {
	s.mu.Lock()
	idx := s.state.indexOf(Key{ProductID: productID, VariantID: variantID})
	if idx < 0 {
		s.mu.Unlock()
		return
	}
	s.state.Items = append(s.state.Items[:idx], s.state.Items[idx+1:]...)
	s.persistLocked(ctx, "RemoveItem")
	s.mu.Unlock()

	s.deliver()
}

// UpdateQuantity sets the line quantity, clamped to MaxQuantity.
// quantity <= 0 removes the line.
func (s *Store) UpdateQuantity(ctx context.Context, productID, variantID string, quantity int) {
	if quantity <= 0 {
		s.RemoveItem(ctx, productID, variantID)
		return
	}

	s.mu.Lock()
	idx := s.state.indexOf(Key{ProductID: productID, VariantID: variantID})
	if idx < 0 {
		s.mu.Unlock()
		return
	}
	line := &s.state.Items[idx]
	line.Quantity = min(quantity, line.MaxQuantity)
	s.persistLocked(ctx, "UpdateQuantity")
	s.mu.Unlock()

	s.deliver()
}

// ClearCart empties the lines and drops any applied voucher.
func (s *Store) ClearCart(ctx context.Context) {
	s.mu.Lock()
	s.state = State{Items: []Line{}}
	s.persistLocked(ctx, "ClearCart")
	s.mu.Unlock()

	s.deliver()
}

// ApplyVoucher stores a validated voucher code and its discount.
func (s *Store) ApplyVoucher(ctx context.Context, code string, discount int64) {
	if discount < 0 {
		discount = 0
	}

	s.mu.Lock()
	s.state.VoucherCode = &code
	s.state.VoucherDiscount = discount
	s.persistLocked(ctx, "ApplyVoucher")
	s.mu.Unlock()

	s.deliver()
}

// RemoveVoucher clears code and discount unconditionally.
func (s *Store) RemoveVoucher(ctx context.Context) {
	s.mu.Lock()
	s.state.VoucherCode = nil
	s.state.VoucherDiscount = 0
	s.persistLocked(ctx, "RemoveVoucher")
	s.mu.Unlock()

	s.deliver()
}

// Snapshot returns a deep copy of the current state.
func (s *Store) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.clone()
}

func (s *Store) Subtotal() int64 {
	return Subtotal(s.Snapshot())
}

func (s *Store) TotalItemCount() int {
	return TotalItemCount(s.Snapshot())
}

func (s *Store) Total() int64 {
	return Total(s.Snapshot())
}

// Subscribe registers fn to receive the new state after every mutation, in
// the order the mutations happened. Listeners run without any store lock held
// and may mutate the store themselves. The returned func unsubscribes.
func (s *Store) Subscribe(fn Listener) func() {
	s.subMu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	s.subMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.subMu.Lock()
			delete(s.subs, id)
			s.subMu.Unlock()
		})
	}
}

// deliver hands queued snapshots to the listeners. One goroutine delivers at
// a time; a mutation that finds delivery underway leaves its snapshot to it.
func (s *Store) deliver() {
	s.qMu.Lock()
	if s.delivering {
		s.qMu.Unlock()
		return
	}
	s.delivering = true
	for len(s.pending) > 0 {
		snap := s.pending[0]
		s.pending = s.pending[1:]
		s.qMu.Unlock()

		s.notify(snap)

		s.qMu.Lock()
	}
	s.delivering = false
	s.qMu.Unlock()
}

func (s *Store) notify(snap State) {
	s.subMu.Lock()
	listeners := make([]Listener, 0, len(s.subs))
	for _, fn := range s.subs {
		listeners = append(listeners, fn)
	}
	s.subMu.Unlock()

	for _, fn := range listeners {
		fn(snap.clone())
	}
}

// persistLocked saves the designated fields and queues a snapshot for the
// listeners. Callers hold s.mu. A failed save is logged, never returned.
func (s *Store) persistLocked(ctx context.Context, method string) {
	snap := s.state.clone()

	data, err := json.Marshal(snap)
	if err == nil {
		err = s.slot.Save(ctx, s.key, data)
	}
	if err != nil {
		logger.FromCtx(ctx).Warn("failed to persist cart",
			zap.String("layer", "cart"),
			zap.String("method", method),
			zap.String("slot", s.key),
			zap.Error(err),
		)
	}

	s.qMu.Lock()
	s.pending = append(s.pending, snap)
	s.qMu.Unlock()
}
