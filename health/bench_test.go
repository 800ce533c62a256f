package health

import (
	"context"
	"fmt"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/hongliangan/inflight/adaptive"
	"github.com/hongliangan/inflight/store"
)

// BenchmarkMemoryChecker_Check measures probe-backed memory check performance.
func BenchmarkMemoryChecker_Check(b *testing.B) {
	checker := NewMemoryChecker(MemoryCheckerConfig{
		Probe: &adaptive.StaticProbe{Pressure: 0.4, Processors: 4},
	})
	ctx := context.Background()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = checker.Check(ctx)
	}
}

// BenchmarkStoreChecker_Check measures store stat collection performance.
func BenchmarkStoreChecker_Check(b *testing.B) {
	mem := store.NewMemoryStore()
	for i := 0; i < 100; i++ {
		_ = mem.Put(context.Background(), fmt.Sprintf("key-%d", i), []byte("payload"), store.CategorySuggestions, time.Hour)
	}
	checker := NewStoreChecker(mem, 1<<20)
	ctx := context.Background()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = checker.Check(ctx)
	}
}

// BenchmarkAggregator_CheckAll measures parallel check aggregation.
func BenchmarkAggregator_CheckAll(b *testing.B) {
	agg := NewAggregator(AggregatorConfig{
		Timeout:  10 * time.Second,
		Parallel: true,
	})

	for i := 0; i < 5; i++ {
		name := fmt.Sprintf("check%d", i)
		agg.Register(name, NewCheckerFunc(name, func(ctx context.Context) Result {
			return Healthy("ok")
		}))
	}
	ctx := context.Background()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = agg.CheckAll(ctx)
	}
}

// BenchmarkReadinessHandler_ServeHTTP measures readiness handler overhead.
func BenchmarkReadinessHandler_ServeHTTP(b *testing.B) {
	agg := NewAggregator()
	agg.Register("check", NewCheckerFunc("check", func(ctx context.Context) Result {
		return Healthy("ok")
	}))

	handler := ReadinessHandler(agg)
	req := httptest.NewRequest("GET", "/readyz", nil)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
	}
}
