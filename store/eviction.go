package store

import (
	"context"
	"sort"
	"time"

	"github.com/hongliangan/inflight/observe"
)

// Eviction scoring constants. The four signals are independent and summed;
// higher scores are reclaimed first.
const (
	// scoreExpired dominates every other signal so expired entries always
	// go first.
	scoreExpired = 1e9

	// scorePerAgeDay is added per day since the entry was written.
	scorePerAgeDay = 10.0

	// scorePerKiB is added per KiB of compressed payload.
	scorePerKiB = 1.0
)

// Score computes the eviction score for a metadata entry at the given
// instant. Deterministic: equal inputs always produce equal scores.
func Score(meta Metadata, now time.Time) float64 {
	score := meta.AgeDays(now) * scorePerAgeDay
	score += float64(meta.SizeBytes) / 1024 * scorePerKiB
	score += meta.Category.EvictionWeight()
	if meta.Expired(now) {
		score += scoreExpired
	}
	return score
}

// EvictToTarget removes entries in descending score order until the
// aggregate size is at or below fraction of the configured budget, or the
// store is empty. It is deterministic and idempotent: a second run with no
// intervening writes removes nothing.
func (s *DiskStore) EvictToTarget(ctx context.Context, fraction float64) error {
	if fraction <= 0 || fraction > 1 {
		fraction = s.target
	}
	targetBytes := int64(fraction * float64(s.budget))

	now := s.now()
	metas := s.snapshot()

	sort.Slice(metas, func(i, j int) bool {
		si, sj := Score(metas[i], now), Score(metas[j], now)
		if si != sj {
			return si > sj
		}
		// Stable tie-break: older first, then key order.
		if !metas[i].CreatedAt.Equal(metas[j].CreatedAt) {
			return metas[i].CreatedAt.Before(metas[j].CreatedAt)
		}
		return metas[i].Key < metas[j].Key
	})

	removed := 0
	var freed int64
	for _, meta := range metas {
		if s.currentSize() <= targetBytes {
			break
		}
		s.removePair(meta.Key, meta.Category)
		removed++
		freed += meta.SizeBytes
	}

	if removed > 0 {
		s.logger.Info(ctx, "cache eviction complete",
			observe.Field{Key: "removed", Value: removed},
			observe.Field{Key: "freed_bytes", Value: freed},
			observe.Field{Key: "target_bytes", Value: targetBytes},
		)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writeIndexLocked()
}

// maybeEvictAsync starts a background eviction run unless one is already in
// flight. The triggering write never blocks on eviction.
func (s *DiskStore) maybeEvictAsync() {
	if !s.evicting.CompareAndSwap(false, true) {
		return
	}

	s.mu.RLock()
	closed := s.closed
	s.mu.RUnlock()
	if closed {
		s.evicting.Store(false)
		return
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer s.evicting.Store(false)
		if err := s.EvictToTarget(context.Background(), s.target); err != nil {
			s.logger.Warn(context.Background(), "background eviction failed",
				observe.Field{Key: "error", Value: err.Error()},
			)
		}
	}()
}

func (s *DiskStore) currentSize() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.totalSize
}
