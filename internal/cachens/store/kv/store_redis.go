package kv

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"

	"caseflow/pkg/platform/sentinel"
)

var opDurationMs = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Name:    "caseflow_kv_op_duration_ms",
	Help:    "Latency of cache store operations in milliseconds",
	Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 25},
}, []string{"op"})

// incrIfExists increments an existing key. Returning false makes go-redis
// surface redis.Nil, which we translate to sentinel.ErrNotFound. A plain
// INCR would silently create the key at 0 and make a counter of 1 ambiguous
// with a freshly primed one.
var incrIfExists = redis.NewScript(`
if redis.call("EXISTS", KEYS[1]) == 0 then
	return false
end
return redis.call("INCR", KEYS[1])
`)

// RedisStore is the production KeyValueStore shared by all application
// processes. The client lifecycle is managed by the caller.
type RedisStore struct {
	client *redis.Client
}

// NewRedis constructs a Redis-backed key-value store.
func NewRedis(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Get(ctx context.Context, key string) (string, error) {
	defer observe("get", time.Now())

	value, err := s.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", sentinel.ErrNotFound
	}
	if err != nil {
		return "", err
	}
	return value, nil
}

func (s *RedisStore) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	defer observe("set", time.Now())

	// go-redis treats expiration 0 as "no expiry", matching our contract.
	return s.client.Set(ctx, key, value, ttl).Err()
}

func (s *RedisStore) Add(ctx context.Context, key, value string, ttl time.Duration) (bool, error) {
	defer observe("add", time.Now())

	return s.client.SetNX(ctx, key, value, ttl).Result()
}

func (s *RedisStore) Incr(ctx context.Context, key string) (int64, error) {
	defer observe("incr", time.Now())

	n, err := incrIfExists.Run(ctx, s.client, []string{key}).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, sentinel.ErrNotFound
	}
	if err != nil {
		return 0, err
	}
	return n, nil
}

func (s *RedisStore) Delete(ctx context.Context, key string) error {
	defer observe("delete", time.Now())

	return s.client.Del(ctx, key).Err()
}

func (s *RedisStore) DeleteMany(ctx context.Context, keys []string) error {
	if len(keys) == 0 {
		return nil
	}
	defer observe("delete_many", time.Now())

	return s.client.Del(ctx, keys...).Err()
}

func observe(op string, start time.Time) {
	opDurationMs.WithLabelValues(op).Observe(float64(time.Since(start).Microseconds()) / 1000.0)
}
