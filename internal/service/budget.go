package service

import (
	"fmt"
	"sync"

	"go.uber.org/zap"

	"propsearch/internal/metrics"
)

// Pricing converts token usage into USD.
type Pricing struct {
	PromptPerMillion     float64
	CompletionPerMillion float64
}

// Cost returns the USD cost of the given usage.
func (p Pricing) Cost(u Usage) float64 {
	return float64(u.PromptTokens)*p.PromptPerMillion/1e6 +
		float64(u.CompletionTokens)*p.CompletionPerMillion/1e6
}

// Estimate returns a worst-case cost for a call with the given prompt size
// and output cap. Prompt tokens are approximated at four bytes per token.
func (p Pricing) Estimate(promptBytes, maxOutputTokens int) float64 {
	return p.Cost(Usage{PromptTokens: promptBytes/4 + 1, CompletionTokens: maxOutputTokens})
}

// BudgetTracker caps cumulative extraction spend for the process lifetime.
// A call reserves its estimated cost up front and settles to the actual
// cost afterwards, so concurrent callers can never push spend past the
// limit. The tracker never resets itself.
type BudgetTracker struct {
	mu       sync.Mutex
	limit    float64 // 0 means unlimited
	spent    float64
	reserved float64
	logger   *zap.Logger
}

// NewBudgetTracker creates a tracker with the given USD ceiling.
func NewBudgetTracker(limitUSD float64, logger *zap.Logger) *BudgetTracker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BudgetTracker{limit: limitUSD, logger: logger}
}

// Reservation is a pending charge against the budget.
type Reservation struct {
	tracker *BudgetTracker
	amount  float64
	done    bool
}

// TryReserve reserves cost if spend plus outstanding reservations stays
// within the limit.
func (b *BudgetTracker) TryReserve(cost float64) (*Reservation, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.limit > 0 && b.spent+b.reserved+cost > b.limit {
		b.logger.Warn("Extraction budget exhausted",
			zap.Float64("spent_usd", b.spent),
			zap.Float64("reserved_usd", b.reserved),
			zap.Float64("limit_usd", b.limit),
		)
		return nil, fmt.Errorf("spent %.4f of %.4f USD: %w", b.spent, b.limit, ErrBudgetExceeded)
	}
	b.reserved += cost
	return &Reservation{tracker: b, amount: cost}, nil
}

// Settle releases the reservation and records the actual cost.
func (r *Reservation) Settle(actual float64) {
	b := r.tracker
	b.mu.Lock()
	defer b.mu.Unlock()
	if r.done {
		return
	}
	r.done = true
	b.reserved -= r.amount
	b.spent += actual
	metrics.LLMSpendUSD.Set(b.spent)
}

// Release drops the reservation without charging anything.
func (r *Reservation) Release() { r.Settle(0) }

// Spent returns the settled spend in USD.
func (b *BudgetTracker) Spent() float64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.spent
}

// Remaining returns the unreserved budget in USD, or -1 when unlimited.
func (b *BudgetTracker) Remaining() float64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.limit == 0 {
		return -1
	}
	if left := b.limit - b.spent - b.reserved; left > 0 {
		return left
	}
	return 0
}
