// Package observe provides telemetry for the inference request pipeline.
//
// It wires OpenTelemetry tracing and metrics together with a structured JSON
// logger behind a single Observer, and offers a Middleware that wraps backend
// executor calls with spans, request metrics, and logs.
package observe
