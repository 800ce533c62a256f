package resilience

import (
	"math/rand"
	"time"
)

// RetryPolicy bounds and paces retries of backend calls.
type RetryPolicy struct {
	// MaxAttempts is the maximum number of attempts (including the first).
	// Default: 3.
	MaxAttempts int

	// InitialDelay is the backoff before the first retry.
	// Default: 1s.
	InitialDelay time.Duration

	// MaxDelay caps the backoff between retries.
	// Default: 30s.
	MaxDelay time.Duration

	// Jitter adds up to 25% randomness to delays to prevent thundering herd.
	// Default: false.
	Jitter bool
}

// NewRetryPolicy creates a policy with defaults applied.
func NewRetryPolicy(p RetryPolicy) RetryPolicy {
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = 3
	}
	if p.InitialDelay <= 0 {
		p.InitialDelay = time.Second
	}
	if p.MaxDelay <= 0 {
		p.MaxDelay = 30 * time.Second
	}
	return p
}

// ShouldRetry reports whether another attempt is permitted after err on the
// given 1-based attempt number.
func (p RetryPolicy) ShouldRetry(err error, attempt int) bool {
	if attempt >= p.MaxAttempts {
		return false
	}
	return Retryable(err)
}

// BackoffDelay returns the delay before the retry following the given
// 1-based attempt: min(initial * 2^(attempt-1), max), plus optional jitter.
// Without jitter the sequence is non-decreasing.
func (p RetryPolicy) BackoffDelay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}

	delay := p.InitialDelay
	for i := 1; i < attempt; i++ {
		delay *= 2
		if delay >= p.MaxDelay {
			delay = p.MaxDelay
			break
		}
	}
	if delay > p.MaxDelay {
		delay = p.MaxDelay
	}

	if p.Jitter && delay > 0 {
		// #nosec G404 -- jitter is non-cryptographic timing variance.
		delay += time.Duration(rand.Int63n(int64(delay / 4)))
	}

	return delay
}
