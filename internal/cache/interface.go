package cache

import (
	"context"
	"time"

	"github.com/ntousis/aeolus-api/pkg/types"
)

// Cache is the read-side cache for standardized readings and computed
// aggregates. Keys are built with ReadingKey and AggregateKey so both
// drivers and all callers agree on the layout.
type Cache interface {
	// Store appends one standardized reading to a per-day series
	Store(key string, entry types.Entry) error

	// FetchLast retrieves the n most recent entries of a series, newest first
	FetchLast(key string, n int) ([]types.Entry, error)

	// StoreAggregate caches a computed aggregate or AQI response with a TTL
	StoreAggregate(ctx context.Context, key string, data any, ttl time.Duration) error

	// FetchAggregate retrieves a cached aggregate
	FetchAggregate(ctx context.Context, key string) ([]byte, error)

	// Ping checks cache connection
	Ping(ctx context.Context) error

	// Close gracefully closes any connections
	Close()
}
