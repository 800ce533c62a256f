// Package fingerprint derives deterministic cache keys from inference requests.
//
// It provides a Generator interface with a SHA-256 based implementation that
// canonicalizes request parameters before hashing, so logically identical
// requests always map to the same key regardless of map iteration order.
package fingerprint
