package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"hash/fnv"
	"io"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/klauspost/compress/gzip"

	"github.com/hongliangan/inflight/fingerprint"
	"github.com/hongliangan/inflight/observe"
)

const (
	defaultSizeBudget  = 100 * 1024 * 1024 // 100MB
	defaultEvictTarget = 0.7
	defaultIndexFile   = "index.json"
	lockStripes        = 64
)

// DiskConfig configures the disk store.
type DiskConfig struct {
	// Directory is where payload files and the metadata index live.
	Directory string

	// SizeBudget is the aggregate compressed-payload budget in bytes.
	// Default: 100MB.
	SizeBudget int64

	// EvictTarget is the fraction of SizeBudget that eviction reclaims down
	// to. Default: 0.7.
	EvictTarget float64

	// IndexFile is the metadata index filename inside Directory.
	// Default: "index.json".
	IndexFile string

	// CompressionLevel is the gzip level for payloads.
	// Default: gzip.BestSpeed.
	CompressionLevel int

	// Logger receives storage degradation events. Default: no-op.
	Logger observe.Logger

	// Now is the clock used for expiry and eviction scoring.
	// Default: time.Now. Injectable for tests.
	Now func() time.Time
}

// DiskStore is a disk-backed Store with gzip compression and a separate
// metadata index.
type DiskStore struct {
	dir       string
	budget    int64
	target    float64
	indexPath string
	level     int
	logger    observe.Logger
	now       func() time.Time

	mu        sync.RWMutex
	index     map[string]Metadata
	totalSize int64
	closed    bool

	// Striped per-key locks: writes for the same key never interleave,
	// independent keys proceed concurrently.
	locks [lockStripes]sync.Mutex

	evicting atomic.Bool
	wg       sync.WaitGroup
}

// NewDiskStore creates a disk store rooted at cfg.Directory, loading any
// existing metadata index. Entries whose payload file is missing are dropped
// from the index at load time.
func NewDiskStore(cfg DiskConfig) (*DiskStore, error) {
	if cfg.Directory == "" {
		return nil, fmt.Errorf("store: directory is required")
	}
	if cfg.SizeBudget <= 0 {
		cfg.SizeBudget = defaultSizeBudget
	}
	if cfg.EvictTarget <= 0 || cfg.EvictTarget > 1 {
		cfg.EvictTarget = defaultEvictTarget
	}
	if cfg.IndexFile == "" {
		cfg.IndexFile = defaultIndexFile
	}
	if cfg.CompressionLevel == 0 {
		cfg.CompressionLevel = gzip.BestSpeed
	}
	if cfg.Logger == nil {
		cfg.Logger = observe.NopLogger()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	if err := os.MkdirAll(cfg.Directory, 0o750); err != nil {
		return nil, fmt.Errorf("store: failed to create directory: %w", err)
	}

	s := &DiskStore{
		dir:       cfg.Directory,
		budget:    cfg.SizeBudget,
		target:    cfg.EvictTarget,
		indexPath: filepath.Join(cfg.Directory, cfg.IndexFile),
		level:     cfg.CompressionLevel,
		logger:    cfg.Logger,
		now:       cfg.Now,
		index:     make(map[string]Metadata),
	}

	if err := s.loadIndex(); err != nil {
		return nil, fmt.Errorf("store: failed to load index: %w", err)
	}

	return s, nil
}

// Put compresses and writes the payload, then updates the metadata index.
// If the post-write aggregate size exceeds the budget, eviction is triggered
// asynchronously; Put never blocks on it.
func (s *DiskStore) Put(ctx context.Context, key string, payload []byte, category Category, ttl time.Duration) error {
	if err := fingerprint.ValidateKey(key); err != nil {
		return err
	}
	if !category.Valid() {
		return ErrUnknownCategory
	}
	if ttl <= 0 {
		ttl = category.DefaultTTL()
	}

	compressed, err := s.compress(payload)
	if err != nil {
		return fmt.Errorf("store: compression failed: %w", err)
	}

	now := s.now()
	meta := Metadata{
		Key:       key,
		Category:  category,
		SizeBytes: int64(len(compressed)),
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}

	lock := s.lockFor(key)
	lock.Lock()
	err = s.writePayload(key, category, compressed)
	lock.Unlock()
	if err != nil {
		s.logger.Warn(ctx, "cache write failed, degrading to bypass",
			observe.Field{Key: "key", Value: key},
			observe.Field{Key: "error", Value: err.Error()},
		)
		return fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	if old, ok := s.index[key]; ok {
		s.totalSize -= old.SizeBytes
		if old.Category != category {
			// Key moved category: the old payload file is now orphaned.
			_ = os.Remove(s.payloadPath(key, old.Category))
		}
	}
	s.index[key] = meta
	s.totalSize += meta.SizeBytes
	over := s.totalSize > s.budget
	if err := s.writeIndexLocked(); err != nil {
		// Roll back: a metadata write failure must not leave an entry the
		// index does not know about.
		delete(s.index, key)
		s.totalSize -= meta.SizeBytes
		s.mu.Unlock()
		_ = os.Remove(s.payloadPath(key, category))
		s.logger.Warn(ctx, "index write failed, degrading to bypass",
			observe.Field{Key: "key", Value: key},
			observe.Field{Key: "error", Value: err.Error()},
		)
		return fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
	s.mu.Unlock()

	if over {
		s.maybeEvictAsync()
	}
	return nil
}

// Get retrieves and decompresses a payload. Expired entries are purged and
// reported as misses. Unreadable or undecompressable entries are treated as
// corruption: purged, reported as misses, never surfaced as errors.
func (s *DiskStore) Get(ctx context.Context, key string) ([]byte, bool) {
	s.mu.RLock()
	meta, ok := s.index[key]
	s.mu.RUnlock()

	if !ok {
		return nil, false
	}

	if meta.Expired(s.now()) {
		_ = s.Remove(ctx, key)
		return nil, false
	}

	// The per-key lock doubles as the existence check: eviction takes the
	// same lock before deleting the payload file.
	lock := s.lockFor(key)
	lock.Lock()
	compressed, err := os.ReadFile(s.payloadPath(key, meta.Category))
	lock.Unlock()
	if err != nil {
		s.purgeCorrupt(ctx, key, "payload unreadable", err)
		return nil, false
	}

	payload, err := s.decompress(compressed)
	if err != nil {
		s.purgeCorrupt(ctx, key, "payload undecompressable", err)
		return nil, false
	}

	return payload, true
}

// Remove deletes an entry's payload and metadata as a pair. Idempotent.
func (s *DiskStore) Remove(ctx context.Context, key string) error {
	s.mu.RLock()
	meta, ok := s.index[key]
	s.mu.RUnlock()
	if !ok {
		return nil
	}

	s.removePair(key, meta.Category)

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writeIndexLocked()
}

// RemoveCategory deletes all entries in a category. Idempotent.
func (s *DiskStore) RemoveCategory(ctx context.Context, category Category) error {
	if !category.Valid() {
		return ErrUnknownCategory
	}

	for _, meta := range s.snapshot() {
		if meta.Category == category {
			s.removePair(meta.Key, meta.Category)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writeIndexLocked()
}

// Clear deletes all entries.
func (s *DiskStore) Clear(ctx context.Context) error {
	for _, meta := range s.snapshot() {
		s.removePair(meta.Key, meta.Category)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writeIndexLocked()
}

// ClearExpired deletes all entries past their TTL and returns the count.
func (s *DiskStore) ClearExpired(ctx context.Context) (int, error) {
	now := s.now()
	removed := 0
	for _, meta := range s.snapshot() {
		if meta.Expired(now) {
			s.removePair(meta.Key, meta.Category)
			removed++
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return removed, s.writeIndexLocked()
}

// Stats returns aggregate statistics from the metadata index alone. Expired
// entries awaiting lazy purge are not counted.
func (s *DiskStore) Stats(ctx context.Context) Stats {
	now := s.now()

	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := Stats{PerCategory: make(map[Category]int)}
	for _, meta := range s.index {
		if meta.Expired(now) {
			continue
		}
		stats.TotalSize += meta.SizeBytes
		stats.EntryCount++
		stats.PerCategory[meta.Category]++
	}
	return stats
}

// Close waits for any in-flight background eviction and marks the store
// closed. Further writes fail with ErrClosed.
func (s *DiskStore) Close() error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	s.wg.Wait()
	return nil
}

func (s *DiskStore) lockFor(key string) *sync.Mutex {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return &s.locks[h.Sum32()%lockStripes]
}

func (s *DiskStore) payloadPath(key string, category Category) string {
	return filepath.Join(s.dir, fmt.Sprintf("%s--%s.gz", category, key))
}

func (s *DiskStore) compress(payload []byte) ([]byte, error) {
	var buf bytes.Buffer
	w, err := gzip.NewWriterLevel(&buf, s.level)
	if err != nil {
		return nil, err
	}
	if _, err := w.Write(payload); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (s *DiskStore) decompress(compressed []byte) ([]byte, error) {
	r, err := gzip.NewReader(bytes.NewReader(compressed))
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return io.ReadAll(r)
}

// writePayload writes the compressed payload via temp-file rename so readers
// never observe a partial file. Caller holds the per-key lock.
func (s *DiskStore) writePayload(key string, category Category, compressed []byte) error {
	path := s.payloadPath(key, category)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, compressed, 0o640); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

// writeIndexLocked persists the metadata index. Caller holds s.mu.
func (s *DiskStore) writeIndexLocked() error {
	serialized := make(map[string]Metadata, len(s.index))
	for key, meta := range s.index {
		serialized[compositeKey(meta.Category, key)] = meta
	}

	data, err := json.Marshal(serialized)
	if err != nil {
		return err
	}

	tmp := s.indexPath + ".tmp"
	if err := os.WriteFile(tmp, data, 0o640); err != nil {
		return err
	}
	return os.Rename(tmp, s.indexPath)
}

func (s *DiskStore) loadIndex() error {
	data, err := os.ReadFile(s.indexPath)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}

	serialized := make(map[string]Metadata)
	if err := json.Unmarshal(data, &serialized); err != nil {
		// A corrupt index means the cache starts cold, not that we crash.
		s.logger.Warn(context.Background(), "metadata index corrupt, starting cold",
			observe.Field{Key: "error", Value: err.Error()},
		)
		return nil
	}

	for _, meta := range serialized {
		// Metadata without payload is corruption; drop it now.
		if _, err := os.Stat(s.payloadPath(meta.Key, meta.Category)); err != nil {
			continue
		}
		s.index[meta.Key] = meta
		s.totalSize += meta.SizeBytes
	}
	return nil
}

// removePair deletes the payload file and the index entry for a key.
// The index is not persisted here; callers persist once per batch.
func (s *DiskStore) removePair(key string, category Category) {
	lock := s.lockFor(key)
	lock.Lock()
	_ = os.Remove(s.payloadPath(key, category))
	lock.Unlock()

	s.mu.Lock()
	if meta, ok := s.index[key]; ok {
		s.totalSize -= meta.SizeBytes
		delete(s.index, key)
	}
	s.mu.Unlock()
}

func (s *DiskStore) purgeCorrupt(ctx context.Context, key, reason string, err error) {
	s.logger.Warn(ctx, "purging corrupt cache entry",
		observe.Field{Key: "key", Value: key},
		observe.Field{Key: "reason", Value: reason},
		observe.Field{Key: "error", Value: err.Error()},
	)
	_ = s.Remove(ctx, key)
}

func (s *DiskStore) snapshot() []Metadata {
	s.mu.RLock()
	defer s.mu.RUnlock()
	metas := make([]Metadata, 0, len(s.index))
	for _, meta := range s.index {
		metas = append(metas, meta)
	}
	return metas
}

func compositeKey(category Category, key string) string {
	return string(category) + "/" + key
}

// Ensure DiskStore implements Store
var _ Store = (*DiskStore)(nil)
