package resilience

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Class
	}{
		{"timeout", ErrTimeout, ClassRetryable},
		{"network transient", ErrNetworkTransient, ClassRetryable},
		{"deadline exceeded", context.DeadlineExceeded, ClassRetryable},
		{"unknown error", errors.New("backend hiccup"), ClassRetryable},
		{"rate limited", ErrRateLimited, ClassFatal},
		{"authentication", ErrAuthentication, ClassFatal},
		{"configuration", ErrConfiguration, ClassFatal},
		{"duplicate in-flight", ErrDuplicateInFlight, ClassFatal},
		{"circuit open", ErrCircuitOpen, ClassFatal},
		{"context canceled", context.Canceled, ClassFatal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.err); got != tt.want {
				t.Errorf("Classify(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestClassify_WrappedErrors(t *testing.T) {
	wrapped := fmt.Errorf("calling backend: %w", ErrAuthentication)
	if got := Classify(wrapped); got != ClassFatal {
		t.Errorf("wrapped auth error should be fatal, got %v", got)
	}

	wrapped = fmt.Errorf("calling backend: %w", ErrTimeout)
	if got := Classify(wrapped); got != ClassRetryable {
		t.Errorf("wrapped timeout should be retryable, got %v", got)
	}
}

func TestRetryable(t *testing.T) {
	if Retryable(nil) {
		t.Error("nil error is not retryable")
	}
	if !Retryable(ErrNetworkTransient) {
		t.Error("transient network failure is retryable")
	}
	if Retryable(ErrConfiguration) {
		t.Error("configuration error is not retryable")
	}
}
