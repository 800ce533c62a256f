package observe

import (
	"context"
	"errors"
	"testing"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func newTestTracer(t *testing.T) (Tracer, *tracetest.InMemoryExporter) {
	t.Helper()
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSyncer(exporter),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
	)
	t.Cleanup(func() { tp.Shutdown(context.Background()) })
	return NewTracer(tp.Tracer("test")), exporter
}

func TestRequestMeta_SpanName(t *testing.T) {
	meta := RequestMeta{Operation: "identify-item"}
	if got := meta.SpanName(); got != "infer.exec.identify-item" {
		t.Errorf("SpanName() = %q, want infer.exec.identify-item", got)
	}
}

func TestTracer_StartSpanAttributes(t *testing.T) {
	tr, exporter := newTestTracer(t)
	meta := RequestMeta{
		ID:          "req-1",
		Operation:   "identify-item",
		Category:    "identification",
		Fingerprint: "infl:identify-item:abcd",
	}

	_, span := tr.StartSpan(context.Background(), meta)
	tr.EndSpan(span, nil)

	spans := exporter.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}
	s := spans[0]
	if s.Name != "infer.exec.identify-item" {
		t.Errorf("span name = %q", s.Name)
	}
	if s.Status.Code != codes.Ok {
		t.Errorf("span status = %v, want Ok", s.Status.Code)
	}

	attrs := make(map[attribute.Key]attribute.Value, len(s.Attributes))
	for _, kv := range s.Attributes {
		attrs[kv.Key] = kv.Value
	}
	if attrs["request.id"].AsString() != "req-1" {
		t.Errorf("request.id = %v", attrs["request.id"])
	}
	if attrs["request.category"].AsString() != "identification" {
		t.Errorf("request.category = %v", attrs["request.category"])
	}
	if attrs["request.fingerprint"].AsString() != "infl:identify-item:abcd" {
		t.Errorf("request.fingerprint = %v", attrs["request.fingerprint"])
	}
}

func TestTracer_EndSpanRecordsError(t *testing.T) {
	tr, exporter := newTestTracer(t)

	_, span := tr.StartSpan(context.Background(), RequestMeta{ID: "req-2", Operation: "suggest"})
	tr.EndSpan(span, errors.New("backend unreachable"))

	spans := exporter.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}
	s := spans[0]
	if s.Status.Code != codes.Error {
		t.Errorf("span status = %v, want Error", s.Status.Code)
	}
	if len(s.Events) == 0 {
		t.Error("expected recorded error event")
	}
}

func TestNopTracer(t *testing.T) {
	tr := NewNopTracer()
	_, span := tr.StartSpan(context.Background(), RequestMeta{Operation: "op"})
	tr.EndSpan(span, errors.New("ignored"))
}
