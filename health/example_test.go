package health_test

import (
	"context"
	"fmt"

	"github.com/hongliangan/inflight/adaptive"
	"github.com/hongliangan/inflight/health"
	"github.com/hongliangan/inflight/store"
)

func ExampleNewMemoryChecker() {
	checker := health.NewMemoryChecker(health.MemoryCheckerConfig{
		Probe:             &adaptive.StaticProbe{Pressure: 0.42, Processors: 4},
		WarningThreshold:  0.80,
		CriticalThreshold: 0.95,
	})

	result := checker.Check(context.Background())
	fmt.Println(result.Status)
	fmt.Println(result.Message)

	// Output:
	// healthy
	// memory pressure normal: 42%
}

func ExampleNewStoreChecker() {
	mem := store.NewMemoryStore()

	checker := health.NewStoreChecker(mem, 1<<20)
	result := checker.Check(context.Background())

	fmt.Println(result.Status)
	fmt.Println(result.Message)

	// Output:
	// healthy
	// 0 entries, 0 bytes
}

func ExampleAggregator() {
	agg := health.NewAggregator()

	agg.Register("store", health.NewStoreChecker(store.NewMemoryStore(), 1<<20))
	agg.Register("memory", health.NewMemoryChecker(health.MemoryCheckerConfig{
		Probe: &adaptive.StaticProbe{Pressure: 0.9, Processors: 4},
	}))

	results := agg.CheckAll(context.Background())
	fmt.Println(agg.OverallStatus(results))

	// Output:
	// degraded
}
