package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
)

// MaxKeyLength is the maximum allowed length for a derived key.
const MaxKeyLength = 512

// Sentinel errors for fingerprint operations.
var (
	ErrEmptyOperation = errors.New("fingerprint: operation is empty")
	ErrInvalidKey     = errors.New("fingerprint: key is invalid")
)

// Generator derives cache keys from an operation kind and its parameters.
//
// Contract:
// - Determinism: same inputs must produce the same key, regardless of map
//   iteration order.
// - Purity: no side effects; the only failure mode is unserializable input.
// - Concurrency: implementations must be safe for concurrent use.
type Generator interface {
	// Fingerprint generates a cache key for the given operation and parameters.
	Fingerprint(operation string, params any) (string, error)
}

// DefaultGenerator generates SHA-256 based fingerprints.
type DefaultGenerator struct{}

// NewDefaultGenerator creates a new default generator.
func NewDefaultGenerator() *DefaultGenerator {
	return &DefaultGenerator{}
}

// Fingerprint generates a deterministic cache key.
// Format: infl:<operation>:<hash>
// where hash is the first 16 bytes of SHA-256(canonical JSON(params)) in hex.
func (g *DefaultGenerator) Fingerprint(operation string, params any) (string, error) {
	if strings.TrimSpace(operation) == "" {
		return "", ErrEmptyOperation
	}

	canonical, err := canonicalize(params)
	if err != nil {
		return "", fmt.Errorf("fingerprint: failed to canonicalize params: %w", err)
	}

	hash := sha256.Sum256(canonical)
	hashStr := hex.EncodeToString(hash[:16])

	return fmt.Sprintf("infl:%s:%s", operation, hashStr), nil
}

// ValidateKey checks if a key is valid for cache storage.
func ValidateKey(key string) error {
	if key == "" || strings.TrimSpace(key) == "" {
		return ErrInvalidKey
	}
	if len(key) > MaxKeyLength {
		return ErrInvalidKey
	}
	// Reject keys with newlines or path separators
	if strings.ContainsAny(key, "\n\r/\\") {
		return ErrInvalidKey
	}
	return nil
}

// canonicalize produces a deterministic JSON representation of the input.
// Maps are sorted by key to ensure consistent ordering.
func canonicalize(v any) ([]byte, error) {
	if v == nil {
		return []byte("null"), nil
	}

	switch val := v.(type) {
	case map[string]any:
		return canonicalizeMap(val)
	case []any:
		return canonicalizeSlice(val)
	default:
		// Structs already serialize with a fixed field order.
		return json.Marshal(v)
	}
}

func canonicalizeMap(m map[string]any) ([]byte, error) {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	result := []byte("{")
	for i, k := range keys {
		if i > 0 {
			result = append(result, ',')
		}

		keyBytes, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		result = append(result, keyBytes...)
		result = append(result, ':')

		valBytes, err := canonicalize(m[k])
		if err != nil {
			return nil, err
		}
		result = append(result, valBytes...)
	}
	result = append(result, '}')

	return result, nil
}

func canonicalizeSlice(s []any) ([]byte, error) {
	result := []byte("[")
	for i, v := range s {
		if i > 0 {
			result = append(result, ',')
		}

		valBytes, err := canonicalize(v)
		if err != nil {
			return nil, err
		}
		result = append(result, valBytes...)
	}
	result = append(result, ']')

	return result, nil
}

// Ensure DefaultGenerator implements Generator
var _ Generator = (*DefaultGenerator)(nil)
