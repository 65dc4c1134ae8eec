package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/platinummonkey/tally/pkg/stats"
)

// RedisConfig configures the Redis cache layer.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	PoolSize int
	// TTL is how long cached values live. Zero means one minute.
	TTL time.Duration
}

// Redis is a shared read-through cache over a stats.Source. Values are JSON
// so they stay inspectable with redis-cli.
type Redis struct {
	inner    stats.Source
	redis    *redis.Client
	ttl      time.Duration
	recorder Recorder
}

// NewRedis connects to Redis and wraps inner. The connection is verified
// before returning.
func NewRedis(inner stats.Source, cfg RedisConfig) (*Redis, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	})

	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = 1 * time.Minute
	}

	return &Redis{inner: inner, redis: client, ttl: ttl}, nil
}

// SetRecorder installs a hit/miss recorder. Set before first use.
func (r *Redis) SetRecorder(rec Recorder) {
	r.recorder = rec
}

func (r *Redis) recordHit() {
	if r.recorder != nil {
		r.recorder.CacheHit(redisLayer)
	}
}

func (r *Redis) recordMiss() {
	if r.recorder != nil {
		r.recorder.CacheMiss(redisLayer)
	}
}

// Close closes the Redis connection.
func (r *Redis) Close() error {
	return r.redis.Close()
}

// Ping reports whether the Redis server is reachable, for health checks.
func (r *Redis) Ping(ctx context.Context) error {
	return r.redis.Ping(ctx).Err()
}

// Evaluate returns the cached value for this name and filter context, or
// evaluates and stores it.
func (r *Redis) Evaluate(ctx context.Context, name string, filters stats.Filters) (float64, error) {
	key := Key(name, filters)

	cached, err := r.redis.Get(ctx, key).Result()
	if err == nil {
		var value float64
		if err := json.Unmarshal([]byte(cached), &value); err == nil {
			r.recordHit()
			return value, nil
		}
	}
	r.recordMiss()

	value, err := r.inner.Evaluate(ctx, name, filters)
	if err != nil {
		return 0, err
	}

	if data, err := json.Marshal(value); err == nil {
		r.redis.Set(ctx, key, data, r.ttl)
	}
	return value, nil
}

// EvaluateAll assembles the full result map from cache when every statistic
// is present; otherwise it delegates the whole call and stores each returned
// value.
func (r *Redis) EvaluateAll(ctx context.Context, filters stats.Filters, except ...string) (map[string]float64, error) {
	skip := make(map[string]bool, len(except))
	for _, name := range except {
		skip[name] = true
	}

	results := make(map[string]float64)
	complete := true
	for _, name := range r.inner.Names() {
		if skip[name] {
			continue
		}
		cached, err := r.redis.Get(ctx, Key(name, filters)).Result()
		if err != nil {
			complete = false
			break
		}
		var value float64
		if err := json.Unmarshal([]byte(cached), &value); err != nil {
			complete = false
			break
		}
		results[name] = value
	}
	if complete {
		r.recordHit()
		return results, nil
	}
	r.recordMiss()

	results, err := r.inner.EvaluateAll(ctx, filters, except...)
	if err != nil {
		return nil, err
	}
	for name, value := range results {
		if data, err := json.Marshal(value); err == nil {
			r.redis.Set(ctx, Key(name, filters), data, r.ttl)
		}
	}
	return results, nil
}

// Names delegates to the wrapped source.
func (r *Redis) Names() []string {
	return r.inner.Names()
}
