package config

import "errors"

var (
	// ErrMissingDirectory indicates no cache directory is configured.
	ErrMissingDirectory = errors.New("config: cache directory is required")

	// ErrInvalidSizeBudget indicates a non-positive cache size budget.
	ErrInvalidSizeBudget = errors.New("config: cache size budget must be positive")

	// ErrInvalidEvictTarget indicates an eviction target outside (0, 1].
	ErrInvalidEvictTarget = errors.New("config: eviction target fraction must be in (0, 1]")

	// ErrUnknownCategory indicates a TTL override for a category that does not exist.
	ErrUnknownCategory = errors.New("config: unknown cache category")

	// ErrInvalidMultiplier indicates a non-positive timeout multiplier.
	ErrInvalidMultiplier = errors.New("config: timeout multiplier must be positive")

	// ErrInvalidRetry indicates an invalid retry setting.
	ErrInvalidRetry = errors.New("config: invalid retry setting")

	// ErrInvalidRateLimit indicates a negative rate limit.
	ErrInvalidRateLimit = errors.New("config: rate limit must not be negative")
)
