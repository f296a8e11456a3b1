// Package http contains the HTTP transport layer for the reservoir data
// API.
//
// The package wires four handler groups under /api:
//
//   - /api/health      liveness, readiness and version probes
//   - /api/operations  pipeline runs: start, poll, list, stop
//   - /api/stats       descriptive statistics, trend, seasonal grouping,
//     correlation and decomposition over the cleaned dataset
//   - /api/quality     data quality report and completeness
//
// Prometheus metrics are served on /metrics outside the /api tree.
//
// Pipeline runs start in the background and return 202 Accepted with an ID;
// callers poll GET /api/operations/{id} for progress. The read-only stats
// and quality endpoints operate on a cached dataset served by DataService,
// independent of any pipeline run.
//
// Errors are rendered as RFC 7807 problem documents by the shared error
// handler.
package http
