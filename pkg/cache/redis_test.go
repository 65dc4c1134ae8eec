package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platinummonkey/tally/pkg/stats"
)

// setupTestRedis creates a miniredis-backed Redis layer over the fake source.
func setupTestRedis(t *testing.T, source stats.Source, ttl time.Duration) (*Redis, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("Failed to start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	r := &Redis{inner: source, redis: client, ttl: ttl}
	t.Cleanup(func() { r.Close() })

	return r, mr
}

func TestNewRedis_InvalidAddress(t *testing.T) {
	source := newFakeSource(nil)
	_, err := NewRedis(source, RedisConfig{Addr: "127.0.0.1:0"})
	assert.Error(t, err)
}

func TestRedis_Evaluate(t *testing.T) {
	source := newFakeSource(map[string]float64{"message_count": 42})
	r, mr := setupTestRedis(t, source, time.Minute)
	ctx := context.Background()

	value, err := r.Evaluate(ctx, "message_count", nil)
	require.NoError(t, err)
	assert.Equal(t, 42.0, value)

	// The value landed in redis with the canonical key and a TTL.
	stored, err := mr.Get("tally:stat:message_count")
	require.NoError(t, err)
	assert.Equal(t, "42", stored)
	assert.Greater(t, mr.TTL("tally:stat:message_count"), time.Duration(0))

	// Second call is served from redis.
	value, err = r.Evaluate(ctx, "message_count", nil)
	require.NoError(t, err)
	assert.Equal(t, 42.0, value)
	assert.Equal(t, 1, source.evaluateCount("message_count"))
}

func TestRedis_Evaluate_Expiry(t *testing.T) {
	source := newFakeSource(map[string]float64{"message_count": 42})
	r, mr := setupTestRedis(t, source, time.Minute)
	ctx := context.Background()

	_, err := r.Evaluate(ctx, "message_count", nil)
	require.NoError(t, err)

	mr.FastForward(2 * time.Minute)

	_, err = r.Evaluate(ctx, "message_count", nil)
	require.NoError(t, err)
	assert.Equal(t, 2, source.evaluateCount("message_count"))
}

func TestRedis_Evaluate_FilterContextsAreSeparate(t *testing.T) {
	source := newFakeSource(map[string]float64{"message_count": 42})
	r, _ := setupTestRedis(t, source, time.Minute)
	ctx := context.Background()

	_, err := r.Evaluate(ctx, "message_count", stats.Filters{"channel_id": 1})
	require.NoError(t, err)
	_, err = r.Evaluate(ctx, "message_count", stats.Filters{"channel_id": 2})
	require.NoError(t, err)

	assert.Equal(t, 2, source.evaluateCount("message_count"))
}

func TestRedis_Evaluate_CorruptEntryFallsThrough(t *testing.T) {
	source := newFakeSource(map[string]float64{"message_count": 42})
	r, mr := setupTestRedis(t, source, time.Minute)
	ctx := context.Background()

	require.NoError(t, mr.Set("tally:stat:message_count", "not json"))

	value, err := r.Evaluate(ctx, "message_count", nil)
	require.NoError(t, err)
	assert.Equal(t, 42.0, value)
	assert.Equal(t, 1, source.evaluateCount("message_count"))
}

func TestRedis_EvaluateAll(t *testing.T) {
	source := newFakeSource(map[string]float64{"a": 1, "b": 2})
	r, _ := setupTestRedis(t, source, time.Minute)
	ctx := context.Background()

	results, err := r.EvaluateAll(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, map[string]float64{"a": 1, "b": 2}, results)
	assert.Equal(t, 1, source.allCalls)

	results, err = r.EvaluateAll(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, map[string]float64{"a": 1, "b": 2}, results)
	assert.Equal(t, 1, source.allCalls)
}

func TestRedis_EvaluateAll_Except(t *testing.T) {
	source := newFakeSource(map[string]float64{"a": 1, "b": 2, "c": 3})
	r, _ := setupTestRedis(t, source, time.Minute)
	ctx := context.Background()

	results, err := r.EvaluateAll(ctx, nil, "c")
	require.NoError(t, err)
	assert.Equal(t, map[string]float64{"a": 1, "b": 2}, results)
}

func TestRedis_Names(t *testing.T) {
	source := newFakeSource(map[string]float64{"a": 1})
	r, _ := setupTestRedis(t, source, time.Minute)

	assert.Equal(t, []string{"a"}, r.Names())
}

func TestRedis_Recorder(t *testing.T) {
	source := newFakeSource(map[string]float64{"message_count": 42})
	r, _ := setupTestRedis(t, source, time.Minute)
	rec := newCountingRecorder()
	r.SetRecorder(rec)
	ctx := context.Background()

	_, err := r.Evaluate(ctx, "message_count", nil)
	require.NoError(t, err)
	_, err = r.Evaluate(ctx, "message_count", nil)
	require.NoError(t, err)

	assert.Equal(t, 1, rec.hits["redis"])
	assert.Equal(t, 1, rec.misses["redis"])
}

func TestRedis_Ping(t *testing.T) {
	source := newFakeSource(map[string]float64{"a": 1})
	r, mr := setupTestRedis(t, source, time.Minute)
	ctx := context.Background()

	require.NoError(t, r.Ping(ctx))

	mr.Close()
	assert.Error(t, r.Ping(ctx))
}
