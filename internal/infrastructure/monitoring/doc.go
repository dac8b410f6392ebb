// Package monitoring provides Prometheus metrics for the engine.
//
// Metrics cover the fetch pipeline (per-scheme counts and durations,
// decoded body sizes), the response cache (hits, misses, entry count),
// the connection pool (opened vs reused transports), redirects, and the
// bridge surfaces (HTTP and WebSocket). A JSON snapshot of headline
// values is kept alongside the Prometheus registry for the /health
// endpoint.
package monitoring
