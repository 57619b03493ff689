package sources

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIntervalLimiter_Wait(t *testing.T) {
	t.Run("consecutive completions respect min interval", func(t *testing.T) {
		const interval = 30 * time.Millisecond
		limiter := NewIntervalLimiter(interval)
		ctx := context.Background()

		var stamps []time.Time
		for i := 0; i < 4; i++ {
			require.NoError(t, limiter.Wait(ctx))
			stamps = append(stamps, time.Now())
		}

		for i := 1; i < len(stamps); i++ {
			delta := stamps[i].Sub(stamps[i-1])
			// Small scheduling slack; the limiter itself never releases early.
			assert.GreaterOrEqual(t, delta, interval-2*time.Millisecond,
				"completions %d and %d were %v apart", i-1, i, delta)
		}
	})

	t.Run("concurrent waiters are still spaced out", func(t *testing.T) {
		const interval = 20 * time.Millisecond
		limiter := NewIntervalLimiter(interval)

		var mu sync.Mutex
		var stamps []time.Time
		var wg sync.WaitGroup
		for i := 0; i < 3; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				require.NoError(t, limiter.Wait(context.Background()))
				mu.Lock()
				stamps = append(stamps, time.Now())
				mu.Unlock()
			}()
		}
		wg.Wait()

		require.Len(t, stamps, 3)
		for i := 1; i < len(stamps); i++ {
			delta := stamps[i].Sub(stamps[i-1])
			assert.GreaterOrEqual(t, delta, interval-2*time.Millisecond)
		}
	})

	t.Run("canceled context aborts the wait", func(t *testing.T) {
		limiter := NewIntervalLimiter(time.Hour)
		require.NoError(t, limiter.Wait(context.Background()))

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
		defer cancel()
		err := limiter.Wait(ctx)
		assert.Error(t, err)
	})

	t.Run("zero interval never blocks", func(t *testing.T) {
		limiter := NewIntervalLimiter(0)
		for i := 0; i < 100; i++ {
			require.NoError(t, limiter.Wait(context.Background()))
		}
	})
}

func TestIntervalLimiter_Allow(t *testing.T) {
	limiter := NewIntervalLimiter(time.Hour)
	assert.True(t, limiter.Allow())
	assert.False(t, limiter.Allow())
}

func TestIntervalLimiter_Interval(t *testing.T) {
	assert.Equal(t, 3*time.Second, NewIntervalLimiter(3*time.Second).Interval())
	assert.Equal(t, time.Duration(0), NewIntervalLimiter(0).Interval())
}
