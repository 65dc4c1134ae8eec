// Package cache layers evaluation result caching over a stats.Source.
//
// # Overview
//
// Both layers are read-through: a miss evaluates against the wrapped source
// and stores the result. Keys canonicalize the filter context (sorted filter
// keys), so identical evaluations share entries regardless of map iteration
// order.
//
//   - Memory: in-process expirable LRU, for single-node deployments and as
//     an L1 in front of Redis.
//   - Redis: shared cache for multi-node deployments, JSON values with TTL.
//
// Neither layer invalidates selectively. Definitions are registered at
// process start and replaced wholesale on reload, so entries simply age out
// on their TTL.
//
// # Usage
//
//	eval := stats.NewEvaluator(registry, table)
//	source := cache.NewMemory(eval, 1024, time.Minute)
//
// Layers compose; Redis under Memory gives an L1/L2 arrangement:
//
//	l2, err := cache.NewRedis(eval, cache.RedisConfig{Addr: "localhost:6379", TTL: time.Minute})
//	source := cache.NewMemory(l2, 1024, 30*time.Second)
package cache
