package service

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBudgetTracker_ReserveAndSettle(t *testing.T) {
	b := NewBudgetTracker(1.0, nil)

	r, err := b.TryReserve(0.6)
	require.NoError(t, err)
	assert.InDelta(t, 0.4, b.Remaining(), 1e-9)

	// Outstanding reservation counts against the ceiling.
	_, err = b.TryReserve(0.5)
	require.ErrorIs(t, err, ErrBudgetExceeded)

	r.Settle(0.2)
	assert.InDelta(t, 0.2, b.Spent(), 1e-9)
	assert.InDelta(t, 0.8, b.Remaining(), 1e-9)

	// Settling twice is a no-op.
	r.Settle(0.5)
	assert.InDelta(t, 0.2, b.Spent(), 1e-9)
}

func TestBudgetTracker_Release(t *testing.T) {
	b := NewBudgetTracker(1.0, nil)
	r, err := b.TryReserve(0.9)
	require.NoError(t, err)
	r.Release()
	assert.Zero(t, b.Spent())
	assert.InDelta(t, 1.0, b.Remaining(), 1e-9)
}

func TestBudgetTracker_Unlimited(t *testing.T) {
	b := NewBudgetTracker(0, nil)
	for range 100 {
		r, err := b.TryReserve(10)
		require.NoError(t, err)
		r.Settle(10)
	}
	assert.Equal(t, -1.0, b.Remaining())
	assert.InDelta(t, 1000, b.Spent(), 1e-9)
}

func TestBudgetTracker_NeverExceededConcurrently(t *testing.T) {
	b := NewBudgetTracker(1.0, nil)

	var wg sync.WaitGroup
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r, err := b.TryReserve(0.1)
			if err != nil {
				return
			}
			r.Settle(0.1)
		}()
	}
	wg.Wait()

	assert.LessOrEqual(t, b.Spent(), 1.0+1e-9)
}

func TestPricing(t *testing.T) {
	p := Pricing{PromptPerMillion: 1, CompletionPerMillion: 2}
	assert.InDelta(t, 0.000005, p.Cost(Usage{PromptTokens: 1, CompletionTokens: 2}), 1e-12)
	assert.Greater(t, p.Estimate(400, 100), p.Cost(Usage{PromptTokens: 100, CompletionTokens: 0}))
}
