package scheduler

import (
	"context"
	"time"

	"github.com/hongliangan/inflight/store"
)

// Priority orders pending requests for admission. Within a level admission is
// FIFO by enqueue time; across levels higher priority is admitted first, but
// an already-admitted lower-priority call is never preempted.
type Priority int

const (
	PriorityLow    Priority = -1
	PriorityNormal Priority = 0
	PriorityHigh   Priority = 1
)

// String returns the string representation of the priority.
func (p Priority) String() string {
	switch p {
	case PriorityLow:
		return "low"
	case PriorityNormal:
		return "normal"
	case PriorityHigh:
		return "high"
	default:
		return "unknown"
	}
}

// Executor performs the backend call for a request. The scheduler treats it
// as opaque: it only observes latency and success or failure. The context is
// cancelled when the computed timeout elapses or the last waiter departs.
type Executor func(ctx context.Context) ([]byte, error)

// Request describes one unit of backend work.
type Request struct {
	// Operation names the kind of inference call, e.g. "identify-item".
	// Together with Params it determines the cache fingerprint.
	Operation string

	// Params are the operation inputs. Two requests with equal canonical
	// params share a fingerprint and therefore a backend call.
	Params any

	// Category selects the cache category for the result.
	Category store.Category

	// Priority orders admission. Zero value is PriorityNormal.
	Priority Priority

	// TTL overrides the category default lifetime when positive.
	TTL time.Duration
}
