package health

import (
	"context"
	"testing"

	"github.com/hongliangan/inflight/scheduler"
	"github.com/hongliangan/inflight/store"
)

func newIdleScheduler(t *testing.T) *scheduler.Scheduler {
	t.Helper()
	s, err := scheduler.New(scheduler.Config{Store: store.NewMemoryStore()})
	if err != nil {
		t.Fatalf("scheduler.New: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSchedulerChecker_Healthy(t *testing.T) {
	checker := NewSchedulerChecker(newIdleScheduler(t), 10)
	if checker.Name() != "scheduler" {
		t.Errorf("Name() = %v, want 'scheduler'", checker.Name())
	}

	result := checker.Check(context.Background())
	if result.Status != StatusHealthy {
		t.Errorf("Status = %v, want StatusHealthy", result.Status)
	}
	if result.Details["queued"] != 0 {
		t.Errorf("Details[queued] = %v, want 0", result.Details["queued"])
	}
}

func TestSchedulerChecker_DefaultDepth(t *testing.T) {
	checker := NewSchedulerChecker(newIdleScheduler(t), 0)
	if checker.maxDepth != 100 {
		t.Errorf("maxDepth = %d, want default 100", checker.maxDepth)
	}
}

func TestSchedulerChecker_CancelledContext(t *testing.T) {
	checker := NewSchedulerChecker(newIdleScheduler(t), 10)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result := checker.Check(ctx)
	if result.Status != StatusUnhealthy {
		t.Errorf("Status = %v, want StatusUnhealthy", result.Status)
	}
}
