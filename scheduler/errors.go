package scheduler

import "errors"

var (
	// ErrClosed is returned by operations on a closed scheduler.
	ErrClosed = errors.New("scheduler: closed")

	// ErrNilStore indicates the scheduler was constructed without a store.
	ErrNilStore = errors.New("scheduler: store is required")

	// ErrNilExecutor indicates Enqueue was called without an executor.
	ErrNilExecutor = errors.New("scheduler: executor is required")
)
