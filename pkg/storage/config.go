package storage

import "time"

// Config for the storage backends.
type Config struct {
	// PostgreSQL config
	PostgresURL      string
	PostgresMaxConns int
	PostgresMinConns int
	PostgresTimeout  time.Duration

	// Redis config
	RedisURL      string
	RedisPassword string
	RedisDB       int
	RedisPoolSize int

	// Cache config
	CacheEnabled bool
	CacheTTL     time.Duration
	// LocalCacheSize is the entry capacity of the in-process LRU layer.
	LocalCacheSize int
}

// DefaultConfig returns sensible default configuration
func DefaultConfig() Config {
	return Config{
		PostgresMaxConns: 20,
		PostgresMinConns: 2,
		PostgresTimeout:  10 * time.Second,
		RedisDB:          0,
		RedisPoolSize:    10,
		CacheEnabled:     true,
		CacheTTL:         1 * time.Minute,
		LocalCacheSize:   1024,
	}
}
