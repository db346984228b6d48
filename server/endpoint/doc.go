// Package endpoint provides the generic HTTP endpoints every service gets:
// /info with build information and /ready aggregating component health.
package endpoint
