// Package cache provides the bar/meta cache used to avoid redundant
// vendor API calls. Two implementations share one interface: an
// in-process LRU with TTL, and a Redis-backed cache for deployments
// where several scan processes share state.
package cache

import (
	"context"
	"strings"
	"time"
)

// Cache stores JSON-serializable values under string keys with a TTL.
type Cache interface {
	// Get unmarshals the cached value into dest. Returns false on miss
	// or expiry; an error only for decode failures.
	Get(ctx context.Context, key string, dest interface{}) (bool, error)

	// Set stores a value under key for ttl.
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error

	// Delete removes a key.
	Delete(ctx context.Context, key string) error
}

// Key derives a cache key from an operation name and its normalized
// arguments, e.g. Key("bars", "finnhub", "AAPL", "1d", "200").
// Symbols are uppercased so "aapl" and "AAPL" share an entry.
func Key(op string, parts ...string) string {
	norm := make([]string, 0, len(parts)+1)
	norm = append(norm, op)
	for _, p := range parts {
		norm = append(norm, strings.ToUpper(strings.TrimSpace(p)))
	}
	return strings.Join(norm, ":")
}
