package health

import (
	"context"
	"fmt"

	"github.com/hongliangan/inflight/scheduler"
)

// SchedulerChecker reports scheduler health: pending queue depth against a
// configured ceiling.
type SchedulerChecker struct {
	sched    *scheduler.Scheduler
	maxDepth int
}

// NewSchedulerChecker creates a checker over the given scheduler. A queue
// deeper than maxDepth reports degraded.
func NewSchedulerChecker(s *scheduler.Scheduler, maxDepth int) *SchedulerChecker {
	if maxDepth <= 0 {
		maxDepth = 100
	}
	return &SchedulerChecker{sched: s, maxDepth: maxDepth}
}

// Name returns the name of this checker.
func (c *SchedulerChecker) Name() string {
	return "scheduler"
}

// Check reads scheduler statistics.
func (c *SchedulerChecker) Check(ctx context.Context) Result {
	select {
	case <-ctx.Done():
		return Unhealthy("context cancelled", ctx.Err())
	default:
	}

	stats := c.sched.Stats()
	details := map[string]any{
		"active":      stats.Active,
		"queued":      stats.Queued,
		"max_depth":   c.maxDepth,
		"hit_rate":    stats.HitRate,
		"completed":   stats.Completed,
		"failed":      stats.Failed,
		"avg_latency": stats.AvgLatency.String(),
	}

	if stats.Queued > c.maxDepth {
		return Degraded(
			fmt.Sprintf("queue backlog: %d pending (ceiling %d)", stats.Queued, c.maxDepth),
		).WithDetails(details)
	}

	return Healthy(
		fmt.Sprintf("%d active, %d queued", stats.Active, stats.Queued),
	).WithDetails(details)
}
