// Package observability wires OpenTelemetry tracing and metrics for whisperd.
//
// Telemetry is a lifecycle component: when enabled it installs OTLP HTTP
// exporters as the global providers, otherwise spans and instruments are
// no-ops.
//
//	ctx, span := observability.StartSpan(ctx, observability.SpanTranscribe)
//	defer span.End()
//
//	metrics, err := observability.NewMetrics(observability.Meter("whisperd"))
//	metrics.RecordTranscodeFallback(ctx, "ogg", "ffmpeg_missing")
package observability
