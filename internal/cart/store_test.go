package cart

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"storefront-be/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockSlot struct {
	mock.Mock
}

func (m *MockSlot) Load(ctx context.Context, key string) ([]byte, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *MockSlot) Save(ctx context.Context, key string, data []byte) error {
	args := m.Called(ctx, key, data)
	return args.Error(0)
}

func newTestStore(t *testing.T) (*Store, *storage.MemorySlot) {
	t.Helper()
	slot := storage.NewMemorySlot()
	s, err := NewStore(context.Background(), "guest:test", slot)
	require.NoError(t, err)
	return s, slot
}

func shirt(max int) Line {
	return Line{ProductID: "p1", Name: "Áo thun", Price: 100000, MaxQuantity: max}
}

func TestStore_AddItem(t *testing.T) {
	ctx := context.Background()

	t.Run("Scenario add twice then clamp", func(t *testing.T) {
		s, _ := newTestStore(t)

		s.AddItem(ctx, shirt(2), 1)
		res := s.AddItem(ctx, shirt(2), 1)
		assert.False(t, res.Clamped)
		assert.Equal(t, 2, res.Line.Quantity)

		res = s.AddItem(ctx, shirt(2), 1)
		assert.True(t, res.Clamped)
		assert.Equal(t, 0, res.Added)

		snap := s.Snapshot()
		require.Len(t, snap.Items, 1)
		assert.Equal(t, 2, snap.Items[0].Quantity)
	})

	t.Run("Sum of requests is clamped regardless of batching", func(t *testing.T) {
		batches := [][]int{{1, 1, 1, 1, 1, 1, 1}, {7}, {3, 4}, {2, 2, 3}, {6, 1}}
		for _, max := range []int{1, 4, 7, 10} {
			for _, b := range batches {
				s, _ := newTestStore(t)
				sum := 0
				for _, q := range b {
					s.AddItem(ctx, shirt(max), q)
					sum += q
				}
				assert.Equal(t, min(sum, max), s.Snapshot().Items[0].Quantity, "max=%d batch=%v", max, b)
			}
		}
	})

	t.Run("New line over the cap is clamped", func(t *testing.T) {
		s, _ := newTestStore(t)

		res := s.AddItem(ctx, shirt(3), 10)
		assert.True(t, res.Clamped)
		assert.Equal(t, 10, res.Requested)
		assert.Equal(t, 3, res.Added)
		assert.Equal(t, 3, s.TotalItemCount())
	})

	t.Run("Non-positive quantity counts as one", func(t *testing.T) {
		s, _ := newTestStore(t)

		s.AddItem(ctx, shirt(5), 0)
		s.AddItem(ctx, shirt(5), -3)
		assert.Equal(t, 2, s.TotalItemCount())
	})

	t.Run("Out of stock line is not inserted", func(t *testing.T) {
		s, _ := newTestStore(t)

		res := s.AddItem(ctx, shirt(0), 1)
		assert.True(t, res.Clamped)
		assert.Equal(t, 0, res.Added)
		assert.Empty(t, s.Snapshot().Items)
	})

	t.Run("Variants stay distinct", func(t *testing.T) {
		s, _ := newTestStore(t)

		red := shirt(5)
		red.VariantID = "red-m"
		blue := shirt(5)
		blue.VariantID = "blue-m"

		s.AddItem(ctx, red, 1)
		s.AddItem(ctx, blue, 2)
		s.AddItem(ctx, shirt(5), 1)

		snap := s.Snapshot()
		require.Len(t, snap.Items, 3)
		assert.Equal(t, "red-m", snap.Items[0].VariantID)
		assert.Equal(t, "blue-m", snap.Items[1].VariantID)
		assert.Equal(t, "", snap.Items[2].VariantID)
		assert.Equal(t, 4, s.TotalItemCount())
	})

	t.Run("Fresh stock ceiling replaces the stored one", func(t *testing.T) {
		s, _ := newTestStore(t)

		s.AddItem(ctx, shirt(10), 6)
		res := s.AddItem(ctx, shirt(4), 1)

		assert.True(t, res.Clamped)
		assert.Equal(t, 4, res.Line.Quantity)
		assert.Equal(t, 4, res.Line.MaxQuantity)
	})
}

func TestStore_RemoveItem(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)

	s.AddItem(ctx, shirt(5), 2)
	s.RemoveItem(ctx, "missing", "")
	assert.Len(t, s.Snapshot().Items, 1)

	s.RemoveItem(ctx, "p1", "other-variant")
	assert.Len(t, s.Snapshot().Items, 1)

	s.RemoveItem(ctx, "p1", "")
	assert.Empty(t, s.Snapshot().Items)
}

func TestStore_UpdateQuantity(t *testing.T) {
	ctx := context.Background()

	t.Run("Zero is remove", func(t *testing.T) {
		a, _ := newTestStore(t)
		b, _ := newTestStore(t)
		for _, s := range []*Store{a, b} {
			s.AddItem(ctx, shirt(5), 2)
			s.AddItem(ctx, Line{ProductID: "p2", Price: 50000, MaxQuantity: 9}, 1)
		}

		a.UpdateQuantity(ctx, "p1", "", 0)
		b.RemoveItem(ctx, "p1", "")

		assert.Equal(t, b.Snapshot(), a.Snapshot())
		assert.Equal(t, -1, a.Snapshot().indexOf(Key{ProductID: "p1"}))
	})

	t.Run("Negative is remove", func(t *testing.T) {
		s, _ := newTestStore(t)
		s.AddItem(ctx, shirt(5), 2)
		s.UpdateQuantity(ctx, "p1", "", -1)
		assert.Empty(t, s.Snapshot().Items)
	})

	t.Run("Clamped to max", func(t *testing.T) {
		s, _ := newTestStore(t)
		s.AddItem(ctx, shirt(5), 1)

		s.UpdateQuantity(ctx, "p1", "", 3)
		assert.Equal(t, 3, s.TotalItemCount())

		s.UpdateQuantity(ctx, "p1", "", 99)
		assert.Equal(t, 5, s.TotalItemCount())
	})

	t.Run("Unknown line is ignored", func(t *testing.T) {
		s, _ := newTestStore(t)
		s.UpdateQuantity(ctx, "ghost", "", 3)
		assert.Empty(t, s.Snapshot().Items)
	})
}

func TestStore_VoucherAndClear(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)

	s.AddItem(ctx, Line{ProductID: "p1", Price: 200000, MaxQuantity: 3}, 1)
	s.ApplyVoucher(ctx, "SAVE50K", 50000)

	assert.Equal(t, int64(200000), s.Subtotal())
	assert.Equal(t, int64(150000), s.Total())
	require.NotNil(t, s.Snapshot().VoucherCode)
	assert.Equal(t, "SAVE50K", *s.Snapshot().VoucherCode)

	s.RemoveVoucher(ctx)
	assert.Nil(t, s.Snapshot().VoucherCode)
	assert.Equal(t, int64(200000), s.Total())

	s.ApplyVoucher(ctx, "SAVE50K", 50000)
	s.ClearCart(ctx)
	snap := s.Snapshot()
	assert.Empty(t, snap.Items)
	assert.Nil(t, snap.VoucherCode)
	assert.Equal(t, int64(0), snap.VoucherDiscount)
}

func TestStore_SnapshotIsACopy(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)

	orig := int64(150000)
	line := shirt(5)
	line.OriginalPrice = &orig
	s.AddItem(ctx, line, 1)
	s.ApplyVoucher(ctx, "A", 1000)

	snap := s.Snapshot()
	snap.Items[0].Quantity = 99
	*snap.Items[0].OriginalPrice = 1
	*snap.VoucherCode = "B"

	fresh := s.Snapshot()
	assert.Equal(t, 1, fresh.Items[0].Quantity)
	assert.Equal(t, int64(150000), *fresh.Items[0].OriginalPrice)
	assert.Equal(t, "A", *fresh.VoucherCode)
}

func TestStore_Persistence(t *testing.T) {
	ctx := context.Background()

	t.Run("Survives a reload", func(t *testing.T) {
		s, slot := newTestStore(t)
		s.AddItem(ctx, shirt(5), 2)
		s.ApplyVoucher(ctx, "SAVE50K", 50000)

		reloaded, err := NewStore(ctx, "guest:test", slot)
		require.NoError(t, err)
		assert.Equal(t, s.Snapshot(), reloaded.Snapshot())
	})

	t.Run("Only the designated fields are written", func(t *testing.T) {
		s, slot := newTestStore(t)
		s.AddItem(ctx, shirt(5), 1)

		data, err := slot.Load(ctx, "guest:test")
		require.NoError(t, err)

		var raw map[string]json.RawMessage
		require.NoError(t, json.Unmarshal(data, &raw))
		assert.Len(t, raw, 3)
		assert.Contains(t, raw, "items")
		assert.Contains(t, raw, "voucherCode")
		assert.Contains(t, raw, "voucherDiscount")
	})

	t.Run("Corrupt payload starts empty", func(t *testing.T) {
		slot := storage.NewMemorySlot()
		require.NoError(t, slot.Save(ctx, "guest:bad", []byte("{not json")))

		s, err := NewStore(ctx, "guest:bad", slot)
		require.NoError(t, err)
		assert.Empty(t, s.Snapshot().Items)
	})

	t.Run("Stored lines are normalized", func(t *testing.T) {
		slot := storage.NewMemorySlot()
		raw := `{"items":[
			{"productId":"p1","price":1000,"quantity":9,"maxQuantity":3},
			{"productId":"p1","price":1000,"quantity":1,"maxQuantity":3},
			{"productId":"p2","price":1000,"quantity":0,"maxQuantity":3}
		],"voucherCode":"","voucherDiscount":500}`
		require.NoError(t, slot.Save(ctx, "guest:n", []byte(raw)))

		s, err := NewStore(ctx, "guest:n", slot)
		require.NoError(t, err)

		snap := s.Snapshot()
		require.Len(t, snap.Items, 1)
		assert.Equal(t, 3, snap.Items[0].Quantity)
		assert.Nil(t, snap.VoucherCode)
		assert.Equal(t, int64(0), snap.VoucherDiscount)
	})

	t.Run("Unreachable slot fails the load", func(t *testing.T) {
		slot := new(MockSlot)
		slot.On("Load", mock.Anything, "user:1").Return(nil, errors.New("connection refused"))

		s, err := NewStore(ctx, "user:1", slot)
		assert.Nil(t, s)
		assert.ErrorIs(t, err, ErrSlotUnavailable)
	})

	t.Run("Save failures never surface", func(t *testing.T) {
		slot := new(MockSlot)
		slot.On("Load", mock.Anything, "user:2").Return(nil, nil)
		slot.On("Save", mock.Anything, "user:2", mock.Anything).Return(errors.New("disk full"))

		s, err := NewStore(ctx, "user:2", slot)
		require.NoError(t, err)

		s.AddItem(ctx, shirt(5), 1)
		s.UpdateQuantity(ctx, "p1", "", 4)

		assert.Equal(t, 4, s.TotalItemCount())
		slot.AssertNumberOfCalls(t, "Save", 2)
	})
}

func TestStore_Subscribe(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)

	var seen []int
	unsubscribe := s.Subscribe(func(st State) {
		seen = append(seen, TotalItemCount(st))
	})

	s.AddItem(ctx, shirt(5), 1)
	s.AddItem(ctx, shirt(5), 2)
	s.RemoveItem(ctx, "absent", "") // no-op, no event
	s.UpdateQuantity(ctx, "p1", "", 0)

	unsubscribe()
	unsubscribe()
	s.AddItem(ctx, shirt(5), 1)

	assert.Equal(t, []int{1, 3, 0}, seen)
}

func TestStore_SubscribeSeesMutationOrder(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)

	var (
		mu   sync.Mutex
		seen []int
	)
	s.Subscribe(func(st State) {
		mu.Lock()
		seen = append(seen, TotalItemCount(st))
		mu.Unlock()
	})

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.AddItem(ctx, shirt(1000), 1)
		}()
	}
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, seen, 50)
	for i, n := range seen {
		assert.Equal(t, i+1, n, "event %d out of order", i)
	}
	assert.Equal(t, s.TotalItemCount(), seen[len(seen)-1])
}

func TestStore_ListenerMayMutate(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)

	var seen []int
	s.Subscribe(func(st State) {
		seen = append(seen, TotalItemCount(st))
		if TotalItemCount(st) > 3 {
			s.UpdateQuantity(ctx, "p1", "", 3)
		}
	})

	done := make(chan struct{})
	go func() {
		s.AddItem(ctx, shirt(10), 5)
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("mutating from a listener deadlocked")
	}

	assert.Equal(t, []int{5, 3}, seen)
	assert.Equal(t, 3, s.TotalItemCount())
}
