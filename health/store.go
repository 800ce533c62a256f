package health

import (
	"context"
	"fmt"

	"github.com/hongliangan/inflight/store"
)

// StoreChecker reports cache storage health: aggregate size against the
// configured budget.
type StoreChecker struct {
	store  store.Store
	budget int64
}

// NewStoreChecker creates a checker over the given store and size budget.
func NewStoreChecker(st store.Store, budgetBytes int64) *StoreChecker {
	return &StoreChecker{store: st, budget: budgetBytes}
}

// Name returns the name of this checker.
func (c *StoreChecker) Name() string {
	return "store"
}

// Check reads store statistics. Usage over budget reports degraded: eviction
// is asynchronous, so transient overshoot is expected rather than fatal.
func (c *StoreChecker) Check(ctx context.Context) Result {
	select {
	case <-ctx.Done():
		return Unhealthy("context cancelled", ctx.Err())
	default:
	}

	stats := c.store.Stats(ctx)
	details := map[string]any{
		"entry_count":  stats.EntryCount,
		"total_bytes":  stats.TotalSize,
		"budget_bytes": c.budget,
	}

	if c.budget > 0 && stats.TotalSize > c.budget {
		return Degraded(
			fmt.Sprintf("cache over budget: %d of %d bytes", stats.TotalSize, c.budget),
		).WithDetails(details)
	}

	return Healthy(
		fmt.Sprintf("%d entries, %d bytes", stats.EntryCount, stats.TotalSize),
	).WithDetails(details)
}
