package observe

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics records telemetry for the request pipeline.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Errors: implementations must not panic and must return quickly.
type Metrics interface {
	// RecordRequest records a terminal request resolution with duration and
	// error status.
	RecordRequest(ctx context.Context, meta RequestMeta, duration time.Duration, err error)

	// RecordCacheHit records a cache hit for a category.
	RecordCacheHit(ctx context.Context, category string)

	// RecordCacheMiss records a cache miss for a category.
	RecordCacheMiss(ctx context.Context, category string)

	// AddActive adjusts the in-flight backend call gauge.
	AddActive(ctx context.Context, delta int64)
}

// metricsImpl is the concrete implementation of Metrics.
type metricsImpl struct {
	meter        metric.Meter
	totalCount   metric.Int64Counter
	errorCount   metric.Int64Counter
	durationHist metric.Float64Histogram
	cacheHits    metric.Int64Counter
	cacheMisses  metric.Int64Counter
	activeGauge  metric.Int64UpDownCounter
}

// NewMetrics creates a Metrics instance with the given meter.
func NewMetrics(meter metric.Meter) (Metrics, error) {
	totalCount, err := meter.Int64Counter(
		"infer.requests.total",
		metric.WithDescription("Total number of backend inference requests"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, err
	}

	errorCount, err := meter.Int64Counter(
		"infer.requests.errors",
		metric.WithDescription("Total number of failed inference requests"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return nil, err
	}

	durationHist, err := meter.Float64Histogram(
		"infer.request.duration_ms",
		metric.WithDescription("Inference request duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	cacheHits, err := meter.Int64Counter(
		"infer.cache.hits",
		metric.WithDescription("Cache hits by category"),
		metric.WithUnit("{hit}"),
	)
	if err != nil {
		return nil, err
	}

	cacheMisses, err := meter.Int64Counter(
		"infer.cache.misses",
		metric.WithDescription("Cache misses by category"),
		metric.WithUnit("{miss}"),
	)
	if err != nil {
		return nil, err
	}

	activeGauge, err := meter.Int64UpDownCounter(
		"infer.requests.active",
		metric.WithDescription("Backend calls currently in flight"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, err
	}

	return &metricsImpl{
		meter:        meter,
		totalCount:   totalCount,
		errorCount:   errorCount,
		durationHist: durationHist,
		cacheHits:    cacheHits,
		cacheMisses:  cacheMisses,
		activeGauge:  activeGauge,
	}, nil
}

// RecordRequest records metrics for a terminal request resolution.
func (m *metricsImpl) RecordRequest(ctx context.Context, meta RequestMeta, duration time.Duration, err error) {
	attrs := []attribute.KeyValue{
		attribute.String("request.operation", meta.Operation),
	}
	if meta.Category != "" {
		attrs = append(attrs, attribute.String("request.category", meta.Category))
	}
	opt := metric.WithAttributes(attrs...)

	m.totalCount.Add(ctx, 1, opt)
	if err != nil {
		m.errorCount.Add(ctx, 1, opt)
	}
	m.durationHist.Record(ctx, float64(duration.Milliseconds()), opt)
}

func (m *metricsImpl) RecordCacheHit(ctx context.Context, category string) {
	m.cacheHits.Add(ctx, 1, metric.WithAttributes(attribute.String("request.category", category)))
}

func (m *metricsImpl) RecordCacheMiss(ctx context.Context, category string) {
	m.cacheMisses.Add(ctx, 1, metric.WithAttributes(attribute.String("request.category", category)))
}

func (m *metricsImpl) AddActive(ctx context.Context, delta int64) {
	m.activeGauge.Add(ctx, delta)
}

// nopMetrics discards everything.
type nopMetrics struct{}

// NopMetrics returns a Metrics that discards everything.
func NopMetrics() Metrics { return nopMetrics{} }

func (nopMetrics) RecordRequest(context.Context, RequestMeta, time.Duration, error) {}
func (nopMetrics) RecordCacheHit(context.Context, string)                           {}
func (nopMetrics) RecordCacheMiss(context.Context, string)                          {}
func (nopMetrics) AddActive(context.Context, int64)                                 {}

// Ensure implementations satisfy Metrics
var (
	_ Metrics = (*metricsImpl)(nil)
	_ Metrics = nopMetrics{}
)
