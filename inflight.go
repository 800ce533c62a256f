// Package inflight orchestrates requests to a slow, rate-limited inference
// backend and caches their results.
//
// Client is the single entry point: it wires the persistent compressed cache,
// the adaptive concurrency controller, the deduplicating scheduler, and
// telemetry from one configuration. The surrounding application enqueues
// typed requests with an executor for the backend call; identical concurrent
// requests share a single backend invocation and cached results short-circuit
// the executor entirely.
package inflight

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/hongliangan/inflight/adaptive"
	"github.com/hongliangan/inflight/config"
	"github.com/hongliangan/inflight/fingerprint"
	"github.com/hongliangan/inflight/health"
	"github.com/hongliangan/inflight/observe"
	"github.com/hongliangan/inflight/resilience"
	"github.com/hongliangan/inflight/scheduler"
	"github.com/hongliangan/inflight/store"
)

// Request is re-exported so callers only import this package for common use.
type Request = scheduler.Request

// Executor is re-exported from the scheduler package.
type Executor = scheduler.Executor

// Stats combines cache and scheduler statistics.
type Stats struct {
	Cache     store.Stats
	Scheduler scheduler.Stats
}

// Client is the library facade. All methods are safe for concurrent use.
type Client struct {
	cfg   config.Config
	obs   observe.Observer
	store *store.DiskStore
	ctrl  *adaptive.Controller
	sched *scheduler.Scheduler
	gen   fingerprint.Generator
	agg   *health.Aggregator

	ttlOverrides map[store.Category]time.Duration
}

// New builds a Client from the given configuration. Use config.Default() for
// a working local setup.
func New(ctx context.Context, cfg config.Config) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	obs, err := observe.NewObserver(ctx, cfg.Observe.ObserverConfig())
	if err != nil {
		return nil, fmt.Errorf("inflight: observer: %w", err)
	}

	st, err := store.NewDiskStore(store.DiskConfig{
		Directory:   cfg.Cache.Directory,
		SizeBudget:  cfg.Cache.SizeBudgetBytes,
		EvictTarget: cfg.Cache.EvictTargetFraction,
		Logger:      obs.Logger(),
	})
	if err != nil {
		obs.Shutdown(ctx)
		return nil, fmt.Errorf("inflight: store: %w", err)
	}

	ctrl := adaptive.NewController(adaptive.Config{
		MaxConcurrent: cfg.Concurrency.MaxConcurrent,
	})

	metrics, err := observe.NewMetrics(obs.Meter())
	if err != nil {
		st.Close()
		obs.Shutdown(ctx)
		return nil, fmt.Errorf("inflight: metrics: %w", err)
	}

	gen := fingerprint.NewDefaultGenerator()
	sched, err := scheduler.New(scheduler.Config{
		Store:      st,
		Controller: ctrl,
		Generator:  gen,
		Retry: resilience.RetryPolicy{
			MaxAttempts:  cfg.Retry.MaxAttempts,
			InitialDelay: cfg.Retry.InitialDelay.Std(),
			MaxDelay:     cfg.Retry.MaxDelay.Std(),
			Jitter:       cfg.Retry.Jitter,
		},
		BaseTimeout:          cfg.Timeout.Base.Std(),
		OperationMultipliers: cfg.Timeout.OperationMultipliers,
		RateLimit:            cfg.RateLimit.RequestsPerSecond,
		RateBurst:            cfg.RateLimit.Burst,
		Logger:               obs.Logger(),
		Metrics:              metrics,
		Tracer:               observe.NewTracer(obs.Tracer()),
	})
	if err != nil {
		st.Close()
		obs.Shutdown(ctx)
		return nil, fmt.Errorf("inflight: scheduler: %w", err)
	}

	ttls := make(map[store.Category]time.Duration, len(cfg.Cache.TTLOverrides))
	for name, ttl := range cfg.Cache.TTLOverrides {
		ttls[store.Category(name)] = ttl.Std()
	}

	agg := health.NewAggregator()
	agg.Register("store", health.NewStoreChecker(st, cfg.Cache.SizeBudgetBytes))
	agg.Register("scheduler", health.NewSchedulerChecker(sched, 0))
	agg.Register("memory", health.NewMemoryChecker(health.MemoryCheckerConfig{}))

	return &Client{
		cfg:          cfg,
		obs:          obs,
		store:        st,
		ctrl:         ctrl,
		sched:        sched,
		gen:          gen,
		agg:          agg,
		ttlOverrides: ttls,
	}, nil
}

// Enqueue resolves a request through the cache and the scheduler. Configured
// per-category TTL overrides apply when the request does not set its own.
func (c *Client) Enqueue(ctx context.Context, req Request, exec Executor) ([]byte, error) {
	if req.TTL <= 0 {
		if ttl, ok := c.ttlOverrides[req.Category]; ok {
			req.TTL = ttl
		}
	}
	return c.sched.Enqueue(ctx, req, exec)
}

// Fingerprint computes the cache key for an operation and its parameters.
func (c *Client) Fingerprint(operation string, params any) (string, error) {
	return c.gen.Fingerprint(operation, params)
}

// GetCached returns the cached payload for a fingerprint, or a miss. It never
// triggers a backend call.
func (c *Client) GetCached(ctx context.Context, fp string) ([]byte, bool) {
	return c.store.Get(ctx, fp)
}

// Stats returns combined cache and scheduler statistics.
func (c *Client) Stats(ctx context.Context) Stats {
	return Stats{
		Cache:     c.store.Stats(ctx),
		Scheduler: c.sched.Stats(),
	}
}

// ClearCategory removes all cached entries in a category.
func (c *Client) ClearCategory(ctx context.Context, category store.Category) error {
	return c.store.RemoveCategory(ctx, category)
}

// ClearAll removes all cached entries.
func (c *Client) ClearAll(ctx context.Context) error {
	return c.store.Clear(ctx)
}

// ClearExpired removes expired entries and reports how many were purged.
func (c *Client) ClearExpired(ctx context.Context) (int, error) {
	return c.store.ClearExpired(ctx)
}

// Health runs all component checks and returns the overall status with
// per-component results.
func (c *Client) Health(ctx context.Context) (health.Status, map[string]health.Result) {
	results := c.agg.CheckAll(ctx)
	return c.agg.OverallStatus(results), results
}

// Close shuts the scheduler, the store, and telemetry down. In-flight callers
// receive scheduler.ErrClosed.
func (c *Client) Close(ctx context.Context) error {
	// The scheduler must stop before the store so no write-through races the
	// store shutdown; store and observer can then close concurrently.
	if err := c.sched.Close(); err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(c.store.Close)
	g.Go(func() error { return c.obs.Shutdown(ctx) })
	return g.Wait()
}
