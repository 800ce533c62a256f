// Package resilience classifies backend inference failures and provides the
// retry, timeout, and circuit breaker primitives the request scheduler
// composes around executor calls.
//
// The error taxonomy splits failures into retryable (transient network
// failures, timeouts) and fatal (authentication, configuration, rate-limit
// rejections). Retryable failures are retried with capped exponential
// backoff up to a fixed attempt budget; fatal failures surface on the first
// occurrence.
package resilience
