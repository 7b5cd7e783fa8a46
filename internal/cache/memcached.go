package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/bradfitz/gomemcache/memcache"
	"github.com/ntousis/aeolus-api/pkg/types"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var _ Cache = (*Memcached)(nil)

// memcached has no sorted sets; a reading series is kept as one JSON value
// per day key, newest first, capped to what the read path ever asks for
const seriesCap = 64

type Memcached struct {
	client  *memcache.Client
	metrics *driverMetrics
}

func NewMemcached(addr string) *Memcached {
	client := memcache.New(addr)
	return &Memcached{client, newDriverMetrics("memcached")}
}

func (m *Memcached) set(key string, val []byte, ttl time.Duration) error {
	done := make(chan error, 1)
	go func() {
		done <- m.client.Set(&memcache.Item{Key: key, Value: val, Expiration: int32(ttl.Seconds())})
	}()
	select {
	case err := <-done:
		return err
	case <-time.After(100 * time.Millisecond):
		return context.DeadlineExceeded
	}
}

func (m *Memcached) series(key string) ([]types.Entry, error) {
	item, err := m.client.Get(key)
	if err == memcache.ErrCacheMiss {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var entries []types.Entry
	if err := json.Unmarshal(item.Value, &entries); err != nil {
		return nil, fmt.Errorf("corrupt series %s: %w", key, err)
	}
	return entries, nil
}

// mergeSeries inserts an entry into a newest-first series, dropping the
// oldest entries beyond the cap.
func mergeSeries(entries []types.Entry, entry types.Entry, limit int) []types.Entry {
	entries = append(entries, entry)
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Timestamp.After(entries[j].Timestamp)
	})
	if len(entries) > limit {
		entries = entries[:limit]
	}
	return entries
}

func (m *Memcached) Store(key string, entry types.Entry) error {
	start := time.Now()

	entries, err := m.series(key)
	if err != nil {
		return err
	}

	b, err := json.Marshal(mergeSeries(entries, entry, seriesCap))
	if err != nil {
		return fmt.Errorf("failed to marshal series: %w", err)
	}

	if err := m.set(key, b, seriesRetention); err != nil {
		return err
	}
	m.metrics.write(start)

	return nil
}

func (m *Memcached) FetchLast(key string, n int) ([]types.Entry, error) {
	start := time.Now()

	entries, err := m.series(key)
	if err != nil {
		return nil, err
	}
	if entries == nil {
		m.metrics.miss()
		return nil, nil
	}

	m.metrics.hit(start)
	if len(entries) > n {
		entries = entries[:n]
	}
	return entries, nil
}

func (m *Memcached) StoreAggregate(ctx context.Context, key string, data any, ttl time.Duration) error {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "cache.StoreAggregate")
	defer span.End()

	span.SetAttributes(
		attribute.String("cache.driver", "memcached"),
		attribute.String("cache.key", key),
		attribute.Int64("cache.ttl", int64(ttl.Seconds())),
	)

	b, err := json.Marshal(data)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("failed to marshal aggregate: %w", err)
	}

	start := time.Now()
	if err := m.set(key, b, ttl); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("failed to store aggregate: %w", err)
	}
	m.metrics.write(start)
	span.SetStatus(codes.Ok, "")

	return nil
}

func (m *Memcached) FetchAggregate(ctx context.Context, key string) ([]byte, error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "cache.FetchAggregate")
	defer span.End()

	span.SetAttributes(
		attribute.String("cache.driver", "memcached"),
		attribute.String("cache.key", key),
	)

	start := time.Now()
	val, err := m.client.Get(key)
	switch {
	case err == memcache.ErrCacheMiss:
		m.metrics.miss()
		span.SetAttributes(attribute.String("cache.result", "miss"))
		span.SetStatus(codes.Ok, "")
		return nil, fmt.Errorf("cache miss")
	case err != nil:
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("cache fetch: %w", err)
	default:
		m.metrics.hit(start)
		span.SetAttributes(attribute.String("cache.result", "hit"))
		span.SetStatus(codes.Ok, "")
		return val.Value, nil
	}
}

func (m *Memcached) Ping(ctx context.Context) error {
	return m.client.Ping()
}

func (m *Memcached) Close() {
	m.client.Close()
}
