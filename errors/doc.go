// Package errors provides the structured error type used across whisperd.
// Each AppError carries a machine-readable code, an HTTP status and a
// client-facing message; API handlers render it as {"detail": message}.
package errors
