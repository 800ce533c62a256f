// Package store provides persistent, compressed, TTL-aware caching of
// inference results keyed by request fingerprint.
//
// The disk implementation keeps one compressed payload file per entry plus a
// single metadata index, so aggregate size and age queries never read payload
// bytes. A multi-factor eviction scorer reclaims entries when the store
// exceeds its size budget.
//
// Caching is a performance optimization, never a correctness dependency:
// corrupted or unreadable entries are purged and reported as misses, and
// write failures degrade to cache-bypass.
package store
