// Package api hosts the HTTP server, middleware wiring, and REST handlers
// for operator access. Notable routes:
//   - GET /healthz and /readyz for liveness and readiness probes.
//   - GET /metrics for Prometheus scraping.
//   - GET /v1/run/status for a live view of the current snapshot run.
//   - GET /v1/index and /v1/failures for the persisted index and ledger.
package api
