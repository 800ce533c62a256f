package store

import (
	"bytes"
	"context"
	"fmt"
	"testing"
	"time"
)

// BenchmarkDiskStore_Get_Hit measures hit performance including decompression.
func BenchmarkDiskStore_Get_Hit(b *testing.B) {
	s, err := NewDiskStore(DiskConfig{Directory: b.TempDir()})
	if err != nil {
		b.Fatalf("NewDiskStore failed: %v", err)
	}
	defer s.Close()
	ctx := context.Background()

	payload := bytes.Repeat([]byte("inference result "), 64)
	_ = s.Put(ctx, "key", payload, CategoryIdentification, time.Hour)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = s.Get(ctx, "key")
	}
}

// BenchmarkDiskStore_Put measures write performance including compression.
func BenchmarkDiskStore_Put(b *testing.B) {
	s, err := NewDiskStore(DiskConfig{Directory: b.TempDir()})
	if err != nil {
		b.Fatalf("NewDiskStore failed: %v", err)
	}
	defer s.Close()
	ctx := context.Background()

	payload := bytes.Repeat([]byte("inference result "), 64)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		key := fmt.Sprintf("key-%d", i%128)
		_ = s.Put(ctx, key, payload, CategoryIdentification, time.Hour)
	}
}

// BenchmarkMemoryStore_Get_Hit measures in-memory hit performance.
func BenchmarkMemoryStore_Get_Hit(b *testing.B) {
	s := NewMemoryStore()
	ctx := context.Background()

	_ = s.Put(ctx, "key", []byte("value"), CategorySuggestions, time.Hour)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = s.Get(ctx, "key")
	}
}

// BenchmarkScore measures eviction scoring throughput.
func BenchmarkScore(b *testing.B) {
	now := time.Now()
	meta := Metadata{
		Key:       "key",
		Category:  CategoryIdentification,
		SizeBytes: 4096,
		CreatedAt: now.Add(-36 * time.Hour),
		ExpiresAt: now.Add(36 * time.Hour),
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = Score(meta, now)
	}
}
