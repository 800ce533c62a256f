package store

import "time"

// Category classifies cache entries by the kind of inference that produced
// them. Each category carries its own default TTL and eviction weight.
type Category string

const (
	// CategoryIdentification holds item identification results.
	CategoryIdentification Category = "identification"
	// CategoryPhotoRecognition holds photo recognition results.
	CategoryPhotoRecognition Category = "photo-recognition"
	// CategorySuggestions holds packing suggestion results.
	CategorySuggestions Category = "suggestions"
	// CategoryOptimization holds packing optimization results.
	CategoryOptimization Category = "optimization"
	// CategoryPolicyLookup holds airline policy lookup results.
	CategoryPolicyLookup Category = "policy-lookup"
)

// Categories lists all valid categories.
func Categories() []Category {
	return []Category{
		CategoryIdentification,
		CategoryPhotoRecognition,
		CategorySuggestions,
		CategoryOptimization,
		CategoryPolicyLookup,
	}
}

// Valid reports whether c is a known category.
func (c Category) Valid() bool {
	switch c {
	case CategoryIdentification, CategoryPhotoRecognition,
		CategorySuggestions, CategoryOptimization, CategoryPolicyLookup:
		return true
	}
	return false
}

// DefaultTTL returns the default time-to-live for entries in this category.
func (c Category) DefaultTTL() time.Duration {
	switch c {
	case CategoryIdentification:
		return 7 * 24 * time.Hour
	case CategoryPhotoRecognition:
		return 24 * time.Hour
	case CategorySuggestions:
		return 6 * time.Hour
	case CategoryOptimization:
		return 1 * time.Hour
	case CategoryPolicyLookup:
		return 30 * 24 * time.Hour
	default:
		return 1 * time.Hour
	}
}

// EvictionWeight returns the static eviction priority for this category.
// Higher weight means the entry is reclaimed sooner under size pressure;
// cheaply recomputed categories carry higher weights than expensive ones.
func (c Category) EvictionWeight() float64 {
	switch c {
	case CategorySuggestions:
		return 30
	case CategoryOptimization:
		return 25
	case CategoryPhotoRecognition:
		return 15
	case CategoryIdentification:
		return 10
	case CategoryPolicyLookup:
		return 5
	default:
		return 20
	}
}
