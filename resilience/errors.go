package resilience

import "errors"

// Sentinel errors forming the failure taxonomy for backend calls.
var (
	// ErrTimeout is returned when an executor call exceeds its computed
	// deadline. Retryable.
	ErrTimeout = errors.New("resilience: operation timed out")

	// ErrNetworkTransient marks a transient network failure. Retryable.
	ErrNetworkTransient = errors.New("resilience: transient network failure")

	// ErrRateLimited is returned when the backend rejects for rate limiting.
	// Surfaced immediately; retrying would burn quota.
	ErrRateLimited = errors.New("resilience: rate limited by backend")

	// ErrAuthentication marks an authentication failure. Fatal.
	ErrAuthentication = errors.New("resilience: authentication failed")

	// ErrConfiguration marks a malformed request or configuration error. Fatal.
	ErrConfiguration = errors.New("resilience: configuration error")

	// ErrDuplicateInFlight is returned when a wait on an identical in-flight
	// request could not resolve to a result. The caller may retry.
	ErrDuplicateInFlight = errors.New("resilience: duplicate in-flight request did not resolve")

	// ErrCircuitOpen is returned when the circuit breaker is open.
	ErrCircuitOpen = errors.New("resilience: circuit breaker is open")

	// ErrMaxRetriesExceeded wraps the final error after the retry budget is
	// exhausted.
	ErrMaxRetriesExceeded = errors.New("resilience: max retries exceeded")
)
