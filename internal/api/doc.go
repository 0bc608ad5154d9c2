// Package api hosts the operator HTTP server. Routes:
//   - GET /healthz reports scheduler state and whether a harvest is running.
//   - GET /metrics serves the Prometheus registry.
//   - GET /v1/articles lists stored articles, newest first.
//   - GET /v1/schedule lists registered triggers and their next run.
package api
