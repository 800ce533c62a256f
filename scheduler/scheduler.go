package scheduler

import (
	"container/heap"
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/hongliangan/inflight/adaptive"
	"github.com/hongliangan/inflight/fingerprint"
	"github.com/hongliangan/inflight/observe"
	"github.com/hongliangan/inflight/resilience"
	"github.com/hongliangan/inflight/store"
)

// DefaultBaseTimeout is the executor deadline before multipliers are applied.
const DefaultBaseTimeout = 10 * time.Second

// Config configures a Scheduler.
type Config struct {
	// Store receives write-through results and serves cache lookups. Required.
	Store store.Store

	// Controller supplies the concurrency limit and timeout multipliers.
	// Default: adaptive.NewController with a runtime probe.
	Controller *adaptive.Controller

	// Generator computes request fingerprints. Default: fingerprint.NewDefaultGenerator.
	Generator fingerprint.Generator

	// Retry bounds and paces retries of transient failures.
	// Zero value gets resilience defaults applied.
	Retry resilience.RetryPolicy

	// Breaker optionally guards the backend with a circuit breaker.
	Breaker *resilience.CircuitBreaker

	// BaseTimeout is the executor deadline before the operation, network,
	// device, and load multipliers are applied. Default: DefaultBaseTimeout.
	BaseTimeout time.Duration

	// OperationMultipliers scales the timeout per operation kind.
	// Operations not listed use 1.0.
	OperationMultipliers map[string]float64

	// RateLimit caps backend calls per second across all requests.
	// Zero means unlimited.
	RateLimit float64

	// RateBurst is the token bucket burst size. Default: 1 when RateLimit is set.
	RateBurst int

	// Logger, Metrics, and Tracer default to no-op implementations.
	Logger  observe.Logger
	Metrics observe.Metrics
	Tracer  observe.Tracer
}

// Stats is a point-in-time snapshot of scheduler counters.
type Stats struct {
	Hits       uint64        // cache hits
	Misses     uint64        // cache misses (a backend call was needed)
	Completed  uint64        // calls resolved successfully
	Failed     uint64        // calls resolved with an error
	HitRate    float64       // Hits / (Hits + Misses)
	AvgLatency time.Duration // mean executor latency of successful calls
	Active     int           // executor calls in flight
	Queued     int           // calls waiting for admission
}

// call is one logical backend call, shared by every caller whose request
// produced the same fingerprint.
type call struct {
	id          string
	fingerprint string
	req         Request
	exec        Executor

	priority Priority
	seq      uint64
	index    int // heap index; -1 when not pending

	waiters int
	attempt int

	ctx    context.Context
	cancel context.CancelFunc

	done   chan struct{}
	result []byte
	err    error
}

func (c *call) meta() observe.RequestMeta {
	return observe.RequestMeta{
		ID:          c.id,
		Operation:   c.req.Operation,
		Category:    string(c.req.Category),
		Fingerprint: c.fingerprint,
	}
}

// Scheduler is the single point of mutation for pending and active call
// state. One mutex guards the queue, the in-flight registry, and the
// counters; executor invocations run outside it, concurrently up to the
// adaptive limit.
type Scheduler struct {
	store   store.Store
	ctrl    *adaptive.Controller
	gen     fingerprint.Generator
	retry   resilience.RetryPolicy
	breaker *resilience.CircuitBreaker

	baseTimeout time.Duration
	opMult      map[string]float64
	limiter     *rate.Limiter

	logger  observe.Logger
	metrics observe.Metrics
	mw      *observe.Middleware

	mu      sync.Mutex
	calls   map[string]*call
	pending pendingQueue
	active  int
	seq     uint64
	closed  bool

	hits       uint64
	misses     uint64
	completed  uint64
	failed     uint64
	latencySum time.Duration

	wg sync.WaitGroup
}

// New creates a Scheduler. The store is required; everything else has
// working defaults.
func New(cfg Config) (*Scheduler, error) {
	if cfg.Store == nil {
		return nil, ErrNilStore
	}
	if cfg.Controller == nil {
		cfg.Controller = adaptive.NewController(adaptive.Config{})
	}
	if cfg.Generator == nil {
		cfg.Generator = fingerprint.NewDefaultGenerator()
	}
	if cfg.BaseTimeout <= 0 {
		cfg.BaseTimeout = DefaultBaseTimeout
	}
	if cfg.Logger == nil {
		cfg.Logger = observe.NopLogger()
	}
	if cfg.Metrics == nil {
		cfg.Metrics = observe.NopMetrics()
	}
	if cfg.Tracer == nil {
		cfg.Tracer = observe.NewNopTracer()
	}

	var limiter *rate.Limiter
	if cfg.RateLimit > 0 {
		burst := cfg.RateBurst
		if burst <= 0 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), burst)
	}

	return &Scheduler{
		store:       cfg.Store,
		ctrl:        cfg.Controller,
		gen:         cfg.Generator,
		retry:       resilience.NewRetryPolicy(cfg.Retry),
		breaker:     cfg.Breaker,
		baseTimeout: cfg.BaseTimeout,
		opMult:      cfg.OperationMultipliers,
		limiter:     limiter,
		logger:      cfg.Logger,
		metrics:     cfg.Metrics,
		mw:          observe.NewMiddleware(cfg.Tracer, cfg.Metrics, cfg.Logger),
		calls:       make(map[string]*call),
	}, nil
}

// Enqueue resolves a request: cache hit, attachment to an identical in-flight
// call, or a new backend call admitted under the concurrency limit. All
// callers sharing a fingerprint receive the same result or error from a
// single executor invocation.
//
// Cancelling ctx releases only this caller's wait. A shared in-flight call is
// aborted only when its last waiter departs.
func (s *Scheduler) Enqueue(ctx context.Context, req Request, exec Executor) ([]byte, error) {
	if exec == nil {
		return nil, ErrNilExecutor
	}
	if !req.Category.Valid() {
		return nil, fmt.Errorf("%w: unknown category %q", resilience.ErrConfiguration, req.Category)
	}

	fp, err := s.gen.Fingerprint(req.Operation, req.Params)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", resilience.ErrConfiguration, err)
	}

	// Stage 1: cache. A hit never touches the executor.
	if payload, ok := s.store.Get(ctx, fp); ok {
		s.metrics.RecordCacheHit(ctx, string(req.Category))
		s.mu.Lock()
		s.hits++
		s.mu.Unlock()
		return payload, nil
	}
	s.metrics.RecordCacheMiss(ctx, string(req.Category))

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, ErrClosed
	}
	s.misses++

	// Stage 2: dedup. Attach to an existing call for the same fingerprint
	// without contributing to the concurrency count.
	if c, ok := s.calls[fp]; ok {
		c.waiters++
		s.mu.Unlock()
		s.logger.WithRequest(c.meta()).Debug(ctx, "attached to in-flight call")
		return s.wait(ctx, c)
	}

	// Stage 3: new call, queued for admission.
	callCtx, cancel := context.WithCancel(context.Background())
	c := &call{
		id:          uuid.NewString(),
		fingerprint: fp,
		req:         req,
		exec:        exec,
		priority:    req.Priority,
		seq:         s.seq,
		waiters:     1,
		ctx:         callCtx,
		cancel:      cancel,
		done:        make(chan struct{}),
	}
	s.seq++
	s.calls[fp] = c
	heap.Push(&s.pending, c)
	s.admitLocked()
	s.mu.Unlock()

	return s.wait(ctx, c)
}

// wait blocks until the call resolves or ctx is cancelled.
func (s *Scheduler) wait(ctx context.Context, c *call) ([]byte, error) {
	select {
	case <-c.done:
		if c.err != nil && errors.Is(c.err, context.Canceled) && ctx.Err() == nil {
			// The shared call was aborted underneath this waiter. Surface a
			// distinct signal so the caller can re-enqueue.
			return nil, fmt.Errorf("%w: shared call aborted before completion", resilience.ErrDuplicateInFlight)
		}
		return c.result, c.err
	case <-ctx.Done():
		s.detach(c)
		return nil, ctx.Err()
	}
}

// detach releases one waiter's claim on a call. The last waiter to leave
// aborts the call itself.
func (s *Scheduler) detach(c *call) {
	s.mu.Lock()
	c.waiters--
	if c.waiters > 0 {
		s.mu.Unlock()
		return
	}

	if s.calls[c.fingerprint] == c {
		delete(s.calls, c.fingerprint)
	}
	if c.index >= 0 {
		// Never admitted; no goroutine owns it, close it out here.
		heap.Remove(&s.pending, c.index)
		s.mu.Unlock()
		c.cancel()
		c.err = context.Canceled
		close(c.done)
		return
	}
	s.mu.Unlock()

	// Admitted: the running goroutine observes the cancellation and finishes.
	c.cancel()
}

// admitLocked pops pending calls while slots remain under the adaptive limit.
// Callers must hold s.mu.
func (s *Scheduler) admitLocked() {
	for !s.closed && s.pending.Len() > 0 && s.active < s.ctrl.Limit() {
		c := heap.Pop(&s.pending).(*call)
		s.active++
		s.ctrl.ObserveLoad(s.active)
		s.wg.Add(1)
		go s.run(c)
	}
}

// run executes one admitted attempt of a call. It owns the concurrency slot
// until the call resolves or is re-queued for retry.
func (s *Scheduler) run(c *call) {
	defer s.wg.Done()

	if s.limiter != nil {
		if err := s.limiter.Wait(c.ctx); err != nil {
			s.finish(c, nil, s.abortErr(), 0, true)
			return
		}
	}

	timeout := s.timeoutFor(c.req.Operation)
	wrapped := s.mw.Wrap(c.meta(), observe.ExecuteFunc(c.exec))

	var payload []byte
	start := time.Now()
	invoke := func(ctx context.Context) error {
		b, err := wrapped(ctx)
		if err != nil {
			return err
		}
		payload = b
		return nil
	}

	var err error
	if s.breaker != nil {
		err = s.breaker.Execute(c.ctx, func(ctx context.Context) error {
			return resilience.ExecuteWithTimeout(ctx, timeout, invoke)
		})
	} else {
		err = resilience.ExecuteWithTimeout(c.ctx, timeout, invoke)
	}
	rtt := time.Since(start)

	if err == nil {
		s.ctrl.Observe(rtt)
		s.writeThrough(c, payload)
		s.finish(c, payload, nil, rtt, true)
		return
	}

	if c.ctx.Err() != nil {
		// Last waiter departed, or the scheduler closed.
		s.finish(c, nil, s.abortErr(), 0, true)
		return
	}

	c.attempt++
	if s.retry.ShouldRetry(err, c.attempt) {
		s.requeue(c, err)
		return
	}
	s.finish(c, nil, err, 0, true)
}

// requeue releases the slot and re-enters the call into the pending queue
// after a backoff delay. The delay wait is cancellable.
func (s *Scheduler) requeue(c *call, cause error) {
	delay := s.retry.BackoffDelay(c.attempt)
	s.logger.WithRequest(c.meta()).Warn(c.ctx, "retrying after transient failure",
		observe.Field{Key: "attempt", Value: c.attempt},
		observe.Field{Key: "backoff_ms", Value: delay.Milliseconds()},
		observe.Field{Key: "error", Value: cause.Error()},
	)

	s.mu.Lock()
	s.active--
	s.ctrl.ObserveLoad(s.active)
	s.admitLocked()
	s.mu.Unlock()

	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-c.ctx.Done():
		s.finish(c, nil, s.abortErr(), 0, false)
		return
	case <-timer.C:
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		s.finish(c, nil, ErrClosed, 0, false)
		return
	}
	c.seq = s.seq
	s.seq++
	heap.Push(&s.pending, c)
	s.admitLocked()
	s.mu.Unlock()
}

// finish resolves a call, publishes the outcome to all waiters, and frees
// the concurrency slot when this goroutine still holds one.
func (s *Scheduler) finish(c *call, result []byte, err error, rtt time.Duration, releaseSlot bool) {
	c.cancel()

	s.mu.Lock()
	if s.calls[c.fingerprint] == c {
		delete(s.calls, c.fingerprint)
	}
	if releaseSlot {
		s.active--
		s.ctrl.ObserveLoad(s.active)
	}
	if err == nil {
		s.completed++
		s.latencySum += rtt
	} else {
		s.failed++
	}
	s.admitLocked()
	s.mu.Unlock()

	c.result = result
	c.err = err
	close(c.done)
}

// abortErr distinguishes shutdown from waiter departure.
func (s *Scheduler) abortErr() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	return context.Canceled
}

// writeThrough caches a successful result. Storage failures degrade to
// cache-bypass: the result is still returned to waiters.
func (s *Scheduler) writeThrough(c *call, payload []byte) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.store.Put(ctx, c.fingerprint, payload, c.req.Category, c.req.TTL); err != nil {
		s.logger.WithRequest(c.meta()).Warn(ctx, "cache write skipped",
			observe.Field{Key: "error", Value: err.Error()})
	}
}

// timeoutFor computes the executor deadline: base timeout scaled by the
// operation, network, device, and load multipliers.
func (s *Scheduler) timeoutFor(operation string) time.Duration {
	mult := 1.0
	if m, ok := s.opMult[operation]; ok && m > 0 {
		mult = m
	}
	budget := float64(s.baseTimeout) * mult *
		s.ctrl.NetworkMultiplier() * s.ctrl.DeviceMultiplier() * s.ctrl.LoadMultiplier()
	return time.Duration(budget)
}

// Stats returns a snapshot of scheduler counters.
func (s *Scheduler) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := Stats{
		Hits:      s.hits,
		Misses:    s.misses,
		Completed: s.completed,
		Failed:    s.failed,
		Active:    s.active,
		Queued:    s.pending.Len(),
	}
	if lookups := s.hits + s.misses; lookups > 0 {
		st.HitRate = float64(s.hits) / float64(lookups)
	}
	if s.completed > 0 {
		st.AvgLatency = s.latencySum / time.Duration(s.completed)
	}
	return st
}

// Close aborts all pending and in-flight calls and waits for their
// goroutines to drain. Waiters receive ErrClosed. Idempotent.
func (s *Scheduler) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true

	var queued []*call
	for s.pending.Len() > 0 {
		c := heap.Pop(&s.pending).(*call)
		delete(s.calls, c.fingerprint)
		queued = append(queued, c)
	}
	for _, c := range s.calls {
		c.cancel()
	}
	s.mu.Unlock()

	for _, c := range queued {
		c.cancel()
		c.err = ErrClosed
		close(c.done)
	}

	s.wg.Wait()
	return nil
}
