// Package logger provides structured logging for whisperd using zerolog.
//
// It supports JSON and console output, level configuration, and
// component-scoped loggers with map-based structured fields.
//
// # Configuration
//
//	logging:
//	  level: "info"
//	  format: "json"
//
// # Usage
//
//	log := logger.Get("model-registry")
//	log.Info("model loaded", logger.Fields("model", "base", "device", "cpu"))
package logger
