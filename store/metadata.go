package store

import "time"

// Metadata describes a stored entry without its payload. It is the
// authoritative source for size and age queries; the store never reads a
// payload just to compute statistics.
type Metadata struct {
	Key       string    `json:"key"`
	Category  Category  `json:"category"`
	SizeBytes int64     `json:"size_bytes"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Expired reports whether the entry is past its TTL at the given instant.
func (m Metadata) Expired(now time.Time) bool {
	return !now.Before(m.ExpiresAt)
}

// AgeDays returns the entry age in fractional days at the given instant.
func (m Metadata) AgeDays(now time.Time) float64 {
	age := now.Sub(m.CreatedAt)
	if age < 0 {
		return 0
	}
	return age.Hours() / 24
}
