package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/ntousis/aeolus-api/pkg/types"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var _ Cache = (*Valkey)(nil)

// readings older than this are trimmed from a series key on every write
const seriesRetention = 24 * time.Hour

type Valkey struct {
	client  *redis.ClusterClient
	metrics *driverMetrics
}

func NewValkey(addrs []string) *Valkey {
	opts := &redis.ClusterOptions{Addrs: addrs}
	client := redis.NewClusterClient(opts)
	client.Options().DialTimeout = 2 * time.Second
	return &Valkey{client, newDriverMetrics("valkey")}
}

// encodeMember qualifies the reading value with its timestamp so two equal
// readings at different instants stay distinct ZSET members.
func encodeMember(entry types.Entry) string {
	return strconv.FormatInt(entry.Timestamp.UnixMilli(), 10) + ":" +
		strconv.FormatFloat(entry.Value, 'g', -1, 64)
}

// decodeMember reverses encodeMember. Bare numeric members written before
// timestamp qualification decode using the ZSET score as the timestamp.
func decodeMember(member string, score float64) (types.Entry, error) {
	ts := time.UnixMilli(int64(score)).UTC()
	value := member

	if i := strings.IndexByte(member, ':'); i >= 0 {
		ms, err := strconv.ParseInt(member[:i], 10, 64)
		if err != nil {
			return types.Entry{}, fmt.Errorf("bad member timestamp %q: %w", member, err)
		}
		ts = time.UnixMilli(ms).UTC()
		value = member[i+1:]
	}

	val, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return types.Entry{}, fmt.Errorf("bad member value %q: %w", member, err)
	}

	return types.Entry{Timestamp: ts, Value: val}, nil
}

func (v *Valkey) Store(key string, entry types.Entry) error {
	ctx, cancel := context.WithTimeout(
		context.Background(),
		time.Millisecond*200,
	)
	defer cancel()

	start := time.Now()

	_, err := v.client.ZAdd(ctx, key, redis.Z{
		Score:  float64(entry.Timestamp.UnixMilli()),
		Member: encodeMember(entry),
	}).Result()
	if err != nil {
		return err
	}

	// drop members that fell out of the retention window
	horizon := entry.Timestamp.Add(-seriesRetention).UnixMilli()
	if err := v.client.ZRemRangeByScore(ctx, key, "-inf", strconv.FormatInt(horizon, 10)).Err(); err != nil {
		return err
	}

	if err := v.client.Expire(ctx, key, seriesRetention).Err(); err != nil {
		return err
	}
	v.metrics.write(start)

	return nil
}

func (v *Valkey) FetchLast(key string, n int) ([]types.Entry, error) {
	ctx, cancel := context.WithTimeout(
		context.Background(),
		time.Millisecond*100,
	)
	defer cancel()

	members, err := v.client.ZRevRangeWithScores(ctx, key, 0, int64(n-1)).
		Result()
	if err != nil {
		return nil, err
	}

	ret := make([]types.Entry, 0, len(members))

	for _, m := range members {
		s, ok := m.Member.(string)
		if !ok {
			return nil, fmt.Errorf("expected string member, got %T", m.Member)
		}

		entry, err := decodeMember(s, m.Score)
		if err != nil {
			return nil, err
		}

		ret = append(ret, entry)
	}

	return ret, nil
}

func (v *Valkey) StoreAggregate(ctx context.Context, key string, data any, ttl time.Duration) error {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "cache.StoreAggregate")
	defer span.End()

	span.SetAttributes(
		attribute.String("cache.driver", "valkey"),
		attribute.String("cache.key", key),
		attribute.Int64("cache.ttl", int64(ttl.Seconds())),
	)

	ctx, cancel := context.WithTimeout(
		ctx,
		time.Millisecond*200,
	)
	defer cancel()

	b, err := json.Marshal(data)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("failed to marshal aggregate: %w", err)
	}

	start := time.Now()
	if err := v.client.Set(ctx, key, b, ttl).Err(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("failed to store aggregate: %w", err)
	}
	v.metrics.write(start)
	span.SetStatus(codes.Ok, "")

	return nil
}

func (v *Valkey) FetchAggregate(ctx context.Context, key string) ([]byte, error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "cache.FetchAggregate")
	defer span.End()

	span.SetAttributes(
		attribute.String("cache.driver", "valkey"),
		attribute.String("cache.key", key),
	)

	ctx, cancel := context.WithTimeout(
		ctx,
		time.Millisecond*100,
	)
	defer cancel()

	start := time.Now()
	val, err := v.client.Get(ctx, key).Bytes()
	switch {
	case err == redis.Nil:
		v.metrics.miss()
		span.SetAttributes(attribute.String("cache.result", "miss"))
		span.SetStatus(codes.Ok, "")
		return nil, fmt.Errorf("cache miss")
	case err != nil:
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("cache fetch: %w", err)
	default:
		v.metrics.hit(start)
		span.SetAttributes(attribute.String("cache.result", "hit"))
		span.SetStatus(codes.Ok, "")
		return val, nil
	}
}

func (v *Valkey) Ping(ctx context.Context) error {
	return v.client.Ping(ctx).Err()
}

func (v *Valkey) Close() {
	v.client.Close()
}
