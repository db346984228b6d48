// Package server provides the HTTP server: a Gin engine mounted on a root
// ServeMux, served over HTTP/1.1 and h2c, with lifecycle management through
// component.Component.
//
// # Middleware
//
// ApplyMiddleware wraps the root mux with (server/middleware):
//
//   - RequestID: X-Request-Id generation and context propagation
//   - RequestLogger: one log line per request with status and duration
//   - Recovery: panics become 500 {"detail": ...}
//   - CORS: only when allowed origins are configured
//   - BodySizeLimit: request body cap (default 50MB)
//
// # Endpoints
//
// RegisterDefaultEndpoints adds (server/endpoint):
//
//   - /info: build and service information
//   - /ready: component readiness
package server
