// Package http implements the admin HTTP endpoint of a Memorized server.
// Protocol traffic never goes through HTTP; the endpoint only reports on
// the server next to it.
//
// Routes:
//
//   - GET /ping: "pong" while the server runs, 503 afterwards
//
//   - GET /metrics: server and process metrics in the Prometheus text format
//
//   - GET /repositories: open sessions and the size of every repository as JSON
//
// Requests are logged with ginzap on the process wide zap logger.
package http
