package observe

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
)

func decodeLogLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	line := strings.TrimSpace(buf.String())
	if line == "" {
		t.Fatal("expected a log line, got empty output")
	}
	var entry map[string]any
	if err := json.Unmarshal([]byte(line), &entry); err != nil {
		t.Fatalf("invalid JSON log line %q: %v", line, err)
	}
	return entry
}

func TestLogger_EmitsJSON(t *testing.T) {
	var buf bytes.Buffer
	log := NewLoggerWithWriter("info", &buf)

	log.Info(context.Background(), "hello", Field{Key: "count", Value: 3})

	entry := decodeLogLine(t, &buf)
	if entry["msg"] != "hello" {
		t.Errorf("msg = %v, want hello", entry["msg"])
	}
	if entry["level"] != "info" {
		t.Errorf("level = %v, want info", entry["level"])
	}
	if entry["count"] != float64(3) {
		t.Errorf("count = %v, want 3", entry["count"])
	}
	if entry["timestamp"] == nil {
		t.Error("expected timestamp field")
	}
}

func TestLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	log := NewLoggerWithWriter("warn", &buf)

	log.Debug(context.Background(), "debug msg")
	log.Info(context.Background(), "info msg")
	if buf.Len() != 0 {
		t.Fatalf("below-threshold messages should be dropped, got %q", buf.String())
	}

	log.Warn(context.Background(), "warn msg")
	if buf.Len() == 0 {
		t.Fatal("warn message should be emitted at warn level")
	}
}

func TestLogger_RedactsSensitiveFields(t *testing.T) {
	var buf bytes.Buffer
	log := NewLoggerWithWriter("info", &buf)

	log.Info(context.Background(), "request",
		Field{Key: "params", Value: "user photo bytes"},
		Field{Key: "operation", Value: "identify-item"},
	)

	entry := decodeLogLine(t, &buf)
	if entry["params"] != "[REDACTED]" {
		t.Errorf("params = %v, want [REDACTED]", entry["params"])
	}
	if entry["operation"] != "identify-item" {
		t.Errorf("operation = %v, want identify-item", entry["operation"])
	}
}

func TestLogger_WithRequest(t *testing.T) {
	var buf bytes.Buffer
	log := NewLoggerWithWriter("info", &buf)

	meta := RequestMeta{
		ID:          "req-1",
		Operation:   "identify-item",
		Category:    "identification",
		Fingerprint: "infl:identify-item:abcd",
	}
	log.WithRequest(meta).Info(context.Background(), "queued")

	entry := decodeLogLine(t, &buf)
	if entry["request.id"] != "req-1" {
		t.Errorf("request.id = %v, want req-1", entry["request.id"])
	}
	if entry["request.operation"] != "identify-item" {
		t.Errorf("request.operation = %v", entry["request.operation"])
	}
	if entry["request.category"] != "identification" {
		t.Errorf("request.category = %v", entry["request.category"])
	}
	if entry["request.fingerprint"] != "infl:identify-item:abcd" {
		t.Errorf("request.fingerprint = %v", entry["request.fingerprint"])
	}
}

func TestLogger_WithRequestDoesNotMutateParent(t *testing.T) {
	var buf bytes.Buffer
	log := NewLoggerWithWriter("info", &buf)

	_ = log.WithRequest(RequestMeta{ID: "child", Operation: "op"})
	log.Info(context.Background(), "parent line")

	entry := decodeLogLine(t, &buf)
	if _, ok := entry["request.id"]; ok {
		t.Error("parent logger should not carry child request attributes")
	}
}

func TestParseLogLevel(t *testing.T) {
	cases := map[string]LogLevel{
		"debug":   LevelDebug,
		"info":    LevelInfo,
		"warn":    LevelWarn,
		"error":   LevelError,
		"unknown": LevelInfo,
		"":        LevelInfo,
	}
	for input, want := range cases {
		if got := ParseLogLevel(input); got != want {
			t.Errorf("ParseLogLevel(%q) = %v, want %v", input, got, want)
		}
	}
}
