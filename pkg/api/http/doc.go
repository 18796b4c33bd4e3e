// Package http provides the HTTP REST API implementation.
//
// The HTTP server exposes endpoints for:
//   - Worker registration
//   - Status queries
//   - Health checks
//   - Prometheus metrics
package http
