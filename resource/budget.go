// Package resource provides the memory budget enforced by collection
// engines and the IO throttling applied to persistence writes.
package resource

import (
	"sync/atomic"

	"golang.org/x/sync/semaphore"
)

// Budget tracks bytes consumed by stored embeddings against a fixed
// ceiling. The ceiling is set at construction and never changes.
type Budget struct {
	ceiling int64

	sem  *semaphore.Weighted // nil if unlimited
	used atomic.Int64
}

// NewBudget creates a budget with the given ceiling.
// If ceilingBytes is 0, no limit is enforced (only tracking).
func NewBudget(ceilingBytes int64) *Budget {
	b := &Budget{}

	if ceilingBytes > 0 {
		b.ceiling = ceilingBytes
		b.sem = semaphore.NewWeighted(ceilingBytes)
	}

	return b
}

// TryReserve attempts to reserve bytes without blocking. It either moves
// the budget and returns true, or leaves it untouched and returns false;
// there is no window in which a rejected reservation is visible.
func (b *Budget) TryReserve(bytes int64) bool {
	if b == nil {
		return true
	}
	if bytes <= 0 {
		return true
	}

	if b.sem != nil {
		if !b.sem.TryAcquire(bytes) {
			return false
		}
	}

	b.used.Add(bytes)
	return true
}

// Release returns reserved bytes to the budget.
func (b *Budget) Release(bytes int64) {
	if b == nil {
		return
	}
	if bytes <= 0 {
		return
	}

	if b.sem != nil {
		b.sem.Release(bytes)
	}
	b.used.Add(-bytes)
}

// Used returns the currently reserved bytes.
func (b *Budget) Used() int64 {
	if b == nil {
		return 0
	}
	return b.used.Load()
}

// Ceiling returns the configured ceiling, 0 if unlimited.
func (b *Budget) Ceiling() int64 {
	if b == nil {
		return 0
	}
	return b.ceiling
}
