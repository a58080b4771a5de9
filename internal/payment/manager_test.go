package payment

import (
	"context"
	"fmt"
	"testing"
	"testing/synctest"
	"time"

	"storefront-be/internal/backend"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManager_Watch(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		tracker := &fakeTracker{respond: alwaysPending}
		m := NewManager(tracker, WithPollInterval(time.Second))
		defer m.Close()

		w1, err := m.Watch(context.Background(), "DH1")
		require.NoError(t, err)
		w2, err := m.Watch(context.Background(), " DH1 ")
		require.NoError(t, err)

		assert.Same(t, w1, w2)
		assert.Equal(t, 1, m.Len())
		assert.Equal(t, 1, tracker.Calls(), "second Watch does not mount again")

		got, ok := m.Get("DH1")
		assert.True(t, ok)
		assert.Same(t, w1, got)

		_, err = m.Watch(context.Background(), "  ")
		assert.ErrorIs(t, err, ErrEmptyOrderNumber)
	})
}

func TestManager_Restart(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		tracker := &fakeTracker{respond: alwaysPending}
		m := NewManager(tracker, WithWindow(5*time.Second))
		defer m.Close()

		_, err := m.Restart(context.Background(), "missing")
		assert.ErrorIs(t, err, ErrWatchNotFound)

		_, err = m.Watch(context.Background(), "DH1")
		require.NoError(t, err)

		_, err = m.Restart(context.Background(), "DH1")
		assert.ErrorIs(t, err, ErrWatchRunning)

		time.Sleep(5 * time.Second)
		synctest.Wait()

		w, err := m.Restart(context.Background(), "DH1")
		require.NoError(t, err)
		assert.Equal(t, StateActive, w.Status().State)
	})
}

func TestManager_StopAndClose(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		tracker := &fakeTracker{respond: alwaysPending}
		m := NewManager(tracker)

		_, err := m.Watch(context.Background(), "DH1")
		require.NoError(t, err)
		_, err = m.Watch(context.Background(), "DH2")
		require.NoError(t, err)

		assert.True(t, m.Stop("DH1"))
		assert.False(t, m.Stop("DH1"))
		_, ok := m.Get("DH1")
		assert.False(t, ok)

		m.Close()
		assert.Equal(t, 0, m.Len())

		calls := tracker.Calls()
		time.Sleep(time.Hour)
		synctest.Wait()
		assert.Equal(t, calls, tracker.Calls())

		_, err = m.Watch(context.Background(), "DH3")
		assert.ErrorIs(t, err, ErrManagerClosed)
	})
}

func TestManager_PaidWatchIsKept(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		tracker := &fakeTracker{respond: func(int) (*backend.OrderTracking, error) { return paid() }}
		m := NewManager(tracker)
		defer m.Close()

		w, err := m.Watch(context.Background(), "DH1")
		require.NoError(t, err)
		assert.Equal(t, StatePaid, w.Status().State)

		again, err := m.Watch(context.Background(), "DH1")
		require.NoError(t, err)
		assert.Equal(t, StatePaid, again.Status().State)
		assert.Equal(t, 1, tracker.Calls())
	})
}

func TestManager_Sweep(t *testing.T) {
	t.Run("Ended watches go after retention", func(t *testing.T) {
		synctest.Test(t, func(t *testing.T) {
			m := NewManager(&fakeTracker{respond: alwaysPending}, WithWindow(time.Minute))
			defer m.Close()

			for _, n := range []string{"DH1", "DH2"} {
				_, err := m.Watch(context.Background(), n)
				require.NoError(t, err)
			}
			time.Sleep(time.Minute)
			synctest.Wait()

			assert.Equal(t, 0, m.Sweep(10*time.Minute), "still within retention")
			assert.Equal(t, 2, m.Len())

			time.Sleep(10*time.Minute + time.Second)
			assert.Equal(t, 2, m.Sweep(10*time.Minute))
			assert.Equal(t, 0, m.Len())
		})
	})

	t.Run("Active watches stay", func(t *testing.T) {
		synctest.Test(t, func(t *testing.T) {
			m := NewManager(&fakeTracker{respond: alwaysPending})
			defer m.Close()

			_, err := m.Watch(context.Background(), "DH1")
			require.NoError(t, err)
			time.Sleep(10 * time.Minute)
			synctest.Wait()

			assert.Equal(t, 0, m.Sweep(0))
			assert.Equal(t, 1, m.Len())
		})
	})

	t.Run("Paid and failed watches go", func(t *testing.T) {
		synctest.Test(t, func(t *testing.T) {
			m := NewManager(&fakeTracker{respond: func(n int) (*backend.OrderTracking, error) {
				if n == 1 {
					return paid()
				}
				return nil, backend.ErrUnavailable
			}})
			defer m.Close()

			w1, err := m.Watch(context.Background(), "DH1")
			require.NoError(t, err)
			require.Equal(t, StatePaid, w1.Status().State)
			w2, err := m.Watch(context.Background(), "DH2")
			require.NoError(t, err)
			require.Equal(t, StateError, w2.Status().State)

			time.Sleep(time.Hour + time.Second)
			assert.Equal(t, 2, m.Sweep(time.Hour))
		})
	})
}

func TestManager_RunEvictsExpiredWatches(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		m := NewManager(&fakeTracker{respond: alwaysPending}, WithWindow(time.Minute))
		defer m.Close()

		for i := range 100 {
			_, err := m.Watch(context.Background(), fmt.Sprintf("DH%d", i))
			require.NoError(t, err)
		}

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		go m.Run(ctx, time.Minute, time.Hour)

		time.Sleep(24 * time.Hour)
		synctest.Wait()
		assert.Equal(t, 0, m.Len())
	})
}
