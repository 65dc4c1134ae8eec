// Package storage holds the shared backend configuration for the tally
// service: the PostgreSQL pool the SQL collection aggregates over and the
// Redis instance the result cache talks to.
//
// # Overview
//
// The statistics engine in pkg/stats is storage-agnostic; it evaluates
// against anything implementing stats.Collection. This package carries the
// knobs for the concrete backends:
//
//   - pkg/storage/sqlstore: the SQL-backed Collection (PostgreSQL in the
//     service, sqlite in unit tests)
//   - pkg/cache: the evaluation result cache (in-process LRU and Redis)
//
// # Configuration
//
//	cfg := storage.DefaultConfig()
//	cfg.PostgresURL = "postgres://localhost/tally?sslmode=disable"
//	cfg.RedisURL = "localhost:6379"
//
//	db, err := sqlstore.Open(cfg)
//
// cmd/tallyd populates Config from the environment; see pkg/config.
package storage
