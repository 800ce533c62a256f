package inflight_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	inflight "github.com/hongliangan/inflight"
	"github.com/hongliangan/inflight/config"
	"github.com/hongliangan/inflight/health"
	"github.com/hongliangan/inflight/scheduler"
	"github.com/hongliangan/inflight/store"
)

func newTestClient(t *testing.T) *inflight.Client {
	t.Helper()

	cfg := config.Default()
	cfg.Cache.Directory = t.TempDir()
	cfg.Retry.InitialDelay = config.Duration(time.Millisecond)
	cfg.Observe.Logging.Enabled = false

	c, err := inflight.New(context.Background(), cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { c.Close(context.Background()) })
	return c
}

func TestNew_RejectsInvalidConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Cache.Directory = ""
	if _, err := inflight.New(context.Background(), cfg); !errors.Is(err, config.ErrMissingDirectory) {
		t.Errorf("err = %v, want ErrMissingDirectory", err)
	}
}

func TestClient_EnqueueAndCache(t *testing.T) {
	c := newTestClient(t)

	req := inflight.Request{
		Operation: "identify-item",
		Params:    map[string]any{"photo_id": "p-1"},
		Category:  store.CategoryIdentification,
	}

	var calls atomic.Int32
	exec := func(ctx context.Context) ([]byte, error) {
		calls.Add(1)
		return []byte("tent"), nil
	}

	result, err := c.Enqueue(context.Background(), req, exec)
	if err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	if string(result) != "tent" {
		t.Errorf("result = %q, want tent", result)
	}

	// Identical request: served from disk, no executor call.
	again, err := c.Enqueue(context.Background(), req, exec)
	if err != nil {
		t.Fatalf("second Enqueue: %v", err)
	}
	if string(again) != "tent" {
		t.Errorf("cached result = %q, want tent", again)
	}
	if calls.Load() != 1 {
		t.Errorf("executor invoked %d times, want 1", calls.Load())
	}
}

func TestClient_GetCached(t *testing.T) {
	c := newTestClient(t)

	req := inflight.Request{Operation: "suggest", Params: "beach", Category: store.CategorySuggestions}
	if _, err := c.Enqueue(context.Background(), req, func(ctx context.Context) ([]byte, error) {
		return []byte("sunscreen"), nil
	}); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}

	fp, err := c.Fingerprint("suggest", "beach")
	if err != nil {
		t.Fatalf("Fingerprint: %v", err)
	}
	payload, ok := c.GetCached(context.Background(), fp)
	if !ok {
		t.Fatal("expected cache hit by fingerprint")
	}
	if string(payload) != "sunscreen" {
		t.Errorf("payload = %q, want sunscreen", payload)
	}

	if _, ok := c.GetCached(context.Background(), "infl:suggest:unknown"); ok {
		t.Error("expected miss for unknown fingerprint")
	}
}

func TestClient_TTLOverride(t *testing.T) {
	cfg := config.Default()
	cfg.Cache.Directory = t.TempDir()
	cfg.Cache.TTLOverrides = map[string]config.Duration{"suggestions": config.Duration(time.Nanosecond)}
	cfg.Observe.Logging.Enabled = false

	c, err := inflight.New(context.Background(), cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer c.Close(context.Background())

	req := inflight.Request{Operation: "suggest", Params: "x", Category: store.CategorySuggestions}
	if _, err := c.Enqueue(context.Background(), req, func(ctx context.Context) ([]byte, error) {
		return []byte("v"), nil
	}); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}

	time.Sleep(10 * time.Millisecond)
	fp, _ := c.Fingerprint("suggest", "x")
	if _, ok := c.GetCached(context.Background(), fp); ok {
		t.Error("entry should have expired under the 1ns TTL override")
	}
}

func TestClient_ClearOperations(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()

	put := func(op string, cat store.Category) {
		t.Helper()
		req := inflight.Request{Operation: op, Params: op, Category: cat}
		if _, err := c.Enqueue(ctx, req, func(ctx context.Context) ([]byte, error) {
			return []byte("v"), nil
		}); err != nil {
			t.Fatalf("Enqueue %s: %v", op, err)
		}
	}
	put("a", store.CategorySuggestions)
	put("b", store.CategorySuggestions)
	put("c", store.CategoryPolicyLookup)

	if err := c.ClearCategory(ctx, store.CategorySuggestions); err != nil {
		t.Fatalf("ClearCategory: %v", err)
	}
	st := c.Stats(ctx)
	if st.Cache.EntryCount != 1 {
		t.Errorf("entries after ClearCategory = %d, want 1", st.Cache.EntryCount)
	}

	if err := c.ClearAll(ctx); err != nil {
		t.Fatalf("ClearAll: %v", err)
	}
	st = c.Stats(ctx)
	if st.Cache.EntryCount != 0 {
		t.Errorf("entries after ClearAll = %d, want 0", st.Cache.EntryCount)
	}

	if _, err := c.ClearExpired(ctx); err != nil {
		t.Fatalf("ClearExpired: %v", err)
	}
}

func TestClient_Stats(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()

	req := inflight.Request{Operation: "op", Params: 1, Category: store.CategorySuggestions}
	if _, err := c.Enqueue(ctx, req, func(ctx context.Context) ([]byte, error) {
		return []byte("v"), nil
	}); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}

	st := c.Stats(ctx)
	if st.Cache.EntryCount != 1 {
		t.Errorf("cache entries = %d, want 1", st.Cache.EntryCount)
	}
	if st.Scheduler.Misses != 1 {
		t.Errorf("scheduler misses = %d, want 1", st.Scheduler.Misses)
	}
}

func TestClient_Health(t *testing.T) {
	c := newTestClient(t)

	status, results := c.Health(context.Background())
	if status == health.StatusUnhealthy {
		t.Errorf("fresh client unhealthy: %+v", results)
	}
	for _, name := range []string{"store", "scheduler", "memory"} {
		if _, ok := results[name]; !ok {
			t.Errorf("missing %q check result", name)
		}
	}
}

func TestClient_Close(t *testing.T) {
	cfg := config.Default()
	cfg.Cache.Directory = t.TempDir()
	cfg.Observe.Logging.Enabled = false

	c, err := inflight.New(context.Background(), cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := c.Close(context.Background()); err != nil {
		t.Fatalf("Close: %v", err)
	}

	req := inflight.Request{Operation: "op", Params: 1, Category: store.CategorySuggestions}
	if _, err := c.Enqueue(context.Background(), req, func(ctx context.Context) ([]byte, error) {
		return nil, nil
	}); !errors.Is(err, scheduler.ErrClosed) {
		t.Errorf("Enqueue after Close err = %v, want scheduler.ErrClosed", err)
	}
}
