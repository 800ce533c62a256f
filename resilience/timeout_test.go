package resilience

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestExecuteWithTimeout_Completes(t *testing.T) {
	err := ExecuteWithTimeout(context.Background(), time.Second, func(ctx context.Context) error {
		return nil
	})
	if err != nil {
		t.Errorf("fast operation should succeed, got %v", err)
	}
}

func TestExecuteWithTimeout_TimesOut(t *testing.T) {
	start := time.Now()
	err := ExecuteWithTimeout(context.Background(), 20*time.Millisecond, func(ctx context.Context) error {
		select {
		case <-time.After(time.Second):
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	})

	if !errors.Is(err, ErrTimeout) {
		t.Errorf("expected ErrTimeout, got %v", err)
	}
	if elapsed := time.Since(start); elapsed > 500*time.Millisecond {
		t.Errorf("timeout took %v, the loser was not cancelled", elapsed)
	}
}

func TestExecuteWithTimeout_LoserSeesCancellation(t *testing.T) {
	cancelled := make(chan struct{})

	_ = ExecuteWithTimeout(context.Background(), 10*time.Millisecond, func(ctx context.Context) error {
		<-ctx.Done()
		close(cancelled)
		return ctx.Err()
	})

	select {
	case <-cancelled:
	case <-time.After(time.Second):
		t.Error("losing operation never observed cancellation")
	}
}

func TestExecuteWithTimeout_PropagatesOperationError(t *testing.T) {
	opErr := errors.New("backend failure")
	err := ExecuteWithTimeout(context.Background(), time.Second, func(ctx context.Context) error {
		return opErr
	})
	if !errors.Is(err, opErr) {
		t.Errorf("expected operation error, got %v", err)
	}
}

func TestExecuteWithTimeout_CallerCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := ExecuteWithTimeout(ctx, time.Second, func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}
