package resilience

import (
	"context"
	"errors"
)

// Class is the retry classification of a failure.
type Class int

const (
	// ClassRetryable failures may be retried within the attempt budget.
	ClassRetryable Class = iota
	// ClassFatal failures surface to the caller on the first occurrence.
	ClassFatal
)

// String returns the string representation of the class.
func (c Class) String() string {
	switch c {
	case ClassRetryable:
		return "retryable"
	case ClassFatal:
		return "fatal"
	default:
		return "unknown"
	}
}

// Classify maps an error to its retry class.
//
// Timeouts and transient network failures are retryable. Authentication,
// configuration, rate-limit, and duplicate-request failures are fatal.
// Context cancellation is fatal: the caller left, retrying is pointless.
// Unrecognized errors default to retryable, matching the assumption that an
// unknown backend failure is more likely transient than permanent.
func Classify(err error) Class {
	switch {
	case err == nil:
		return ClassFatal

	case errors.Is(err, context.Canceled):
		return ClassFatal

	case errors.Is(err, ErrAuthentication),
		errors.Is(err, ErrConfiguration),
		errors.Is(err, ErrRateLimited),
		errors.Is(err, ErrDuplicateInFlight),
		errors.Is(err, ErrCircuitOpen):
		return ClassFatal

	case errors.Is(err, ErrTimeout),
		errors.Is(err, ErrNetworkTransient),
		errors.Is(err, context.DeadlineExceeded):
		return ClassRetryable

	default:
		return ClassRetryable
	}
}

// Retryable reports whether the error is classified retryable.
func Retryable(err error) bool {
	return err != nil && Classify(err) == ClassRetryable
}
