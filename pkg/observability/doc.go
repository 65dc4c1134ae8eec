// Package observability bundles the service's operational concerns.
//
// # Overview
//
//   - Logger: structured JSON logging over log/slog, with context plumbing
//     for request-scoped fields.
//   - Metrics: Prometheus instruments (tally_ prefix) for evaluations,
//     cache traffic, snapshot runs and HTTP serving.
//   - InitOTel: OTLP gRPC trace and metric providers; spans are emitted by
//     the SQL layer and the HTTP middleware.
//   - HealthChecker: readiness aggregation over named dependency checks.
//   - ShutdownManager: signal handling and ordered teardown.
//
// cmd/tallyd wires all of these; library packages only take what they need.
package observability
