// Package api exposes the transcription service over HTTP with gin.
//
//	GET  /health      liveness plus model cache state
//	GET  /models      catalog, current and default model
//	POST /transcribe  base64 audio in, transcript out
//
// Error bodies are {"detail": "..."}.
package api
