// Package scheduler coordinates inference requests against a slow,
// rate-limited backend.
//
// Enqueue resolves a request in stages: a cache lookup, attachment to an
// identical in-flight call if one exists, then priority-ordered admission
// under the adaptive concurrency limit. Admitted calls run under a computed
// timeout budget, retry transient failures with exponential backoff, and
// write successful results through to the cache. All callers sharing a
// fingerprint receive the same outcome from a single executor invocation.
package scheduler
