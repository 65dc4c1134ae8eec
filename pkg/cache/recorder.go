package cache

// Recorder counts cache hits and misses for an external metrics system.
// pkg/observability's Metrics satisfies it. Implementations must be safe for
// concurrent use.
type Recorder interface {
	CacheHit(layer string)
	CacheMiss(layer string)
}

// Layer names reported to the Recorder.
const (
	memoryLayer = "memory"
	redisLayer  = "redis"
)
