// Package budget bounds the number of mutating actions one run may take.
package budget

import (
	"sync/atomic"

	"github.com/steveyegge/stale/internal/policy"
)

// Budget is a per-run action counter. It is safe for concurrent use by the
// workers of a single run and must not be reused across runs.
type Budget struct {
	limit     int64
	remaining atomic.Int64
}

// New returns a budget of min(limitPerRun, 30) actions. Negative limits
// yield an empty budget.
func New(limitPerRun int) *Budget {
	limit := int64(max(0, min(limitPerRun, policy.MaxLimitPerRun)))
	b := &Budget{limit: limit}
	b.remaining.Store(limit)
	return b
}

// Take consumes one action. It reports false, without blocking, when the
// budget is exhausted; the caller skips the action.
func (b *Budget) Take() bool {
	for {
		n := b.remaining.Load()
		if n <= 0 {
			return false
		}
		if b.remaining.CompareAndSwap(n, n-1) {
			return true
		}
	}
}

// Remaining returns the number of actions still available.
func (b *Budget) Remaining() int {
	return int(b.remaining.Load())
}

// Used returns the number of actions taken so far.
func (b *Budget) Used() int {
	return int(b.limit - b.remaining.Load())
}
