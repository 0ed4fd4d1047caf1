// Package server exposes the query pipeline over a small JSON HTTP API:
// POST /chat answers a question, GET /health reports liveness.
package server
