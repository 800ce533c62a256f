package store

import (
	"context"
	"sync"
	"time"

	"github.com/hongliangan/inflight/fingerprint"
)

// MemoryStore is an in-memory Store implementation. It honors the same
// category, TTL, and metadata semantics as the disk store without
// persistence or compression. Useful for tests and ephemeral deployments.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	now     func() time.Time
}

type memoryEntry struct {
	payload []byte
	meta    Metadata
}

// MemoryOption configures a MemoryStore.
type MemoryOption func(*MemoryStore)

// WithMemoryClock overrides the clock used for expiry.
func WithMemoryClock(now func() time.Time) MemoryOption {
	return func(s *MemoryStore) { s.now = now }
}

// NewMemoryStore creates a new in-memory store.
func NewMemoryStore(opts ...MemoryOption) *MemoryStore {
	s := &MemoryStore{
		entries: make(map[string]memoryEntry),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Put stores a payload. ttl<=0 selects the category default.
func (s *MemoryStore) Put(_ context.Context, key string, payload []byte, category Category, ttl time.Duration) error {
	if err := fingerprint.ValidateKey(key); err != nil {
		return err
	}
	if !category.Valid() {
		return ErrUnknownCategory
	}
	if ttl <= 0 {
		ttl = category.DefaultTTL()
	}

	buf := make([]byte, len(payload))
	copy(buf, payload)

	now := s.now()
	s.mu.Lock()
	s.entries[key] = memoryEntry{
		payload: buf,
		meta: Metadata{
			Key:       key,
			Category:  category,
			SizeBytes: int64(len(buf)),
			CreatedAt: now,
			ExpiresAt: now.Add(ttl),
		},
	}
	s.mu.Unlock()
	return nil
}

// Get retrieves a payload. Returns (nil, false) on miss or expiry; expired
// entries are purged lazily.
func (s *MemoryStore) Get(_ context.Context, key string) ([]byte, bool) {
	s.mu.RLock()
	entry, ok := s.entries[key]
	s.mu.RUnlock()

	if !ok {
		return nil, false
	}

	if entry.meta.Expired(s.now()) {
		s.mu.Lock()
		delete(s.entries, key)
		s.mu.Unlock()
		return nil, false
	}

	return entry.payload, true
}

// Remove deletes an entry. Idempotent.
func (s *MemoryStore) Remove(_ context.Context, key string) error {
	s.mu.Lock()
	delete(s.entries, key)
	s.mu.Unlock()
	return nil
}

// RemoveCategory deletes all entries in a category.
func (s *MemoryStore) RemoveCategory(_ context.Context, category Category) error {
	if !category.Valid() {
		return ErrUnknownCategory
	}

	s.mu.Lock()
	for key, entry := range s.entries {
		if entry.meta.Category == category {
			delete(s.entries, key)
		}
	}
	s.mu.Unlock()
	return nil
}

// Clear deletes all entries.
func (s *MemoryStore) Clear(_ context.Context) error {
	s.mu.Lock()
	s.entries = make(map[string]memoryEntry)
	s.mu.Unlock()
	return nil
}

// ClearExpired deletes all expired entries and returns the count.
func (s *MemoryStore) ClearExpired(_ context.Context) (int, error) {
	now := s.now()
	removed := 0

	s.mu.Lock()
	for key, entry := range s.entries {
		if entry.meta.Expired(now) {
			delete(s.entries, key)
			removed++
		}
	}
	s.mu.Unlock()
	return removed, nil
}

// Stats returns aggregate statistics. Expired entries are not counted.
func (s *MemoryStore) Stats(_ context.Context) Stats {
	now := s.now()

	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := Stats{PerCategory: make(map[Category]int)}
	for _, entry := range s.entries {
		if entry.meta.Expired(now) {
			continue
		}
		stats.TotalSize += entry.meta.SizeBytes
		stats.EntryCount++
		stats.PerCategory[entry.meta.Category]++
	}
	return stats
}

// Ensure MemoryStore implements Store
var _ Store = (*MemoryStore)(nil)
