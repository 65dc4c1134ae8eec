// Package api exposes registered statistics over HTTP.
//
// # Overview
//
// The server answers read-only queries against a stats.Source:
//
//	GET /api/v1/statistics                 list statistic names
//	GET /api/v1/statistics?values=true     evaluate everything
//	GET /api/v1/statistics/{name}          evaluate one statistic
//	GET /api/v1/snapshots/{name}           snapshot history + summary
//	GET /health, /health/live, /health/ready
//	GET /metrics
//
// Query parameters that are not reserved ("values", "except", "since",
// "window") become the filter context for evaluation, so
//
//	GET /api/v1/statistics/message_count?org_id=7
//
// evaluates message_count with the org_id filter bound to "7". The values
// "true" and "false" are passed as booleans; everything else is passed as a
// string and coerced by the database.
//
// The serving source sits behind an atomic pointer. Manifest reloads build
// a fresh evaluator and Swap it in without blocking in-flight requests.
package api
