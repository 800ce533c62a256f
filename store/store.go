package store

import (
	"context"
	"errors"
	"time"
)

// Sentinel errors for store operations.
var (
	// ErrStorageUnavailable is returned when the backing storage cannot be
	// written. Reads never return it; they degrade to misses.
	ErrStorageUnavailable = errors.New("store: storage unavailable")

	// ErrUnknownCategory is returned when an operation names an invalid category.
	ErrUnknownCategory = errors.New("store: unknown category")

	// ErrClosed is returned when the store has been closed.
	ErrClosed = errors.New("store: store is closed")
)

// Store is the interface for persisting inference results by fingerprint.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Errors: Get never errors; it returns (nil, false) on miss, expiry, or
//   corruption. Remove and the clear operations are idempotent.
// - Atomicity: payload and metadata for a key are written and removed as a
//   pair; readers never observe one without the other.
type Store interface {
	// Put stores a payload under key with the given category and TTL.
	// ttl<=0 selects the category default.
	Put(ctx context.Context, key string, payload []byte, category Category, ttl time.Duration) error

	// Get retrieves a payload. Returns (nil, false) on miss or expiry;
	// expired and corrupted entries are purged as a side effect.
	Get(ctx context.Context, key string) ([]byte, bool)

	// Remove deletes an entry. Idempotent - no error on miss.
	Remove(ctx context.Context, key string) error

	// RemoveCategory deletes all entries in a category.
	RemoveCategory(ctx context.Context, category Category) error

	// Clear deletes all entries.
	Clear(ctx context.Context) error

	// ClearExpired deletes all entries whose TTL has elapsed and returns how
	// many were removed.
	ClearExpired(ctx context.Context) (int, error)

	// Stats returns aggregate statistics computed from metadata only.
	Stats(ctx context.Context) Stats
}

// Stats contains aggregate store statistics.
type Stats struct {
	// TotalSize is the sum of stored (compressed) payload sizes in bytes.
	TotalSize int64

	// EntryCount is the number of live entries.
	EntryCount int

	// PerCategory maps each category to its live entry count.
	PerCategory map[Category]int
}
