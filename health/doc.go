// Package health reports the health of the cache and scheduler components.
//
// A Checker is any component that can report its health status: Healthy,
// Degraded, or Unhealthy. StoreChecker watches cache size against its budget,
// SchedulerChecker watches queue depth against the concurrency limit, and
// MemoryChecker watches device memory pressure through the same resource
// probe the concurrency controller uses.
//
// Use Aggregator to combine checkers into a single composite check:
//
//	agg := health.NewAggregator()
//	agg.Register("store", health.NewStoreChecker(st, budget))
//	agg.Register("scheduler", health.NewSchedulerChecker(sched, 100))
//
//	results := agg.CheckAll(ctx)
//	overall := agg.OverallStatus(results)
//
// HTTP handlers for liveness, readiness, and detailed status are provided for
// embedding services:
//
//	mux := http.NewServeMux()
//	health.RegisterHandlers(mux, agg)
package health
