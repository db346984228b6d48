package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"github.com/kbukum/whisperd/logger"
)

// MeterConfig configures the OpenTelemetry meter provider.
type MeterConfig struct {
	// ServiceName is the name of the service.
	ServiceName string
	// ServiceVersion is the version of the service.
	ServiceVersion string
	// Environment is the deployment environment (dev, staging, prod).
	Environment string
	// Endpoint is the OTLP HTTP endpoint host:port (e.g., "localhost:4318").
	Endpoint string
	// Insecure allows insecure connections (for development).
	Insecure bool
	// Interval is the metric export interval.
	Interval time.Duration
}

// InitMeter initializes the OpenTelemetry meter provider.
// Returns a MeterProvider that should be shut down on application exit.
func InitMeter(ctx context.Context, config *MeterConfig) (*sdkmetric.MeterProvider, error) {
	opts := []otlpmetrichttp.Option{
		otlpmetrichttp.WithEndpoint(config.Endpoint),
	}
	if config.Insecure {
		opts = append(opts, otlpmetrichttp.WithInsecure())
	}

	exporter, err := otlpmetrichttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating metric exporter: %w", err)
	}

	res, err := newResource(config.ServiceName, config.ServiceVersion, config.Environment)
	if err != nil {
		return nil, fmt.Errorf("creating resource: %w", err)
	}

	readerOpts := []sdkmetric.PeriodicReaderOption{}
	if config.Interval > 0 {
		readerOpts = append(readerOpts, sdkmetric.WithInterval(config.Interval))
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, readerOpts...)),
		sdkmetric.WithResource(res),
	)

	otel.SetMeterProvider(mp)

	logger.Info("meter initialized", logger.Fields(
		"service", config.ServiceName,
		"endpoint", config.Endpoint,
		"interval", config.Interval.String(),
	))

	return mp, nil
}

// Meter returns a named meter from the global provider.
func Meter(name string) metric.Meter {
	return otel.Meter(name)
}

// Metrics holds the instruments whisperd records. All methods are safe on a
// nil receiver so components can run without telemetry.
type Metrics struct {
	requestTotal          metric.Int64Counter
	requestActive         metric.Int64UpDownCounter
	transcodeFallbacks    metric.Int64Counter
	modelLoads            metric.Int64Counter
	modelLoadDuration     metric.Float64Histogram
	transcriptionDuration metric.Float64Histogram
	audioDuration         metric.Float64Histogram
}

// NewMetrics creates metric instruments on the given meter.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	requestTotal, err := meter.Int64Counter("stt.requests",
		metric.WithDescription("Transcription requests by outcome"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating stt.requests counter: %w", err)
	}

	requestActive, err := meter.Int64UpDownCounter("stt.requests.active",
		metric.WithDescription("Transcription requests in flight"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating stt.requests.active gauge: %w", err)
	}

	transcodeFallbacks, err := meter.Int64Counter("audio.transcode.fallbacks",
		metric.WithDescription("Normalizations that fell back to the original audio"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating audio.transcode.fallbacks counter: %w", err)
	}

	modelLoads, err := meter.Int64Counter("model.loads",
		metric.WithDescription("Engine model loads by outcome"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating model.loads counter: %w", err)
	}

	modelLoadDuration, err := meter.Float64Histogram("model.load.duration",
		metric.WithDescription("Duration of engine model loads in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating model.load.duration histogram: %w", err)
	}

	transcriptionDuration, err := meter.Float64Histogram("stt.transcription.duration",
		metric.WithDescription("Wall time spent in inference in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating stt.transcription.duration histogram: %w", err)
	}

	audioDuration, err := meter.Float64Histogram("stt.audio.duration",
		metric.WithDescription("Duration of transcribed audio in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating stt.audio.duration histogram: %w", err)
	}

	return &Metrics{
		requestTotal:          requestTotal,
		requestActive:         requestActive,
		transcodeFallbacks:    transcodeFallbacks,
		modelLoads:            modelLoads,
		modelLoadDuration:     modelLoadDuration,
		transcriptionDuration: transcriptionDuration,
		audioDuration:         audioDuration,
	}, nil
}

// RecordRequestStart increments the active request count.
func (m *Metrics) RecordRequestStart(ctx context.Context) {
	if m == nil {
		return
	}
	m.requestActive.Add(ctx, 1)
}

// RecordRequestEnd decrements active requests and counts the outcome.
// stage is the last pipeline stage reached.
func (m *Metrics) RecordRequestEnd(ctx context.Context, model, stage, status string) {
	if m == nil {
		return
	}
	m.requestActive.Add(ctx, -1)
	m.requestTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("model", model),
		attribute.String("stage", stage),
		attribute.String("status", status),
	))
}

// RecordTranscodeFallback counts a normalization that kept the original audio.
func (m *Metrics) RecordTranscodeFallback(ctx context.Context, format, reason string) {
	if m == nil {
		return
	}
	m.transcodeFallbacks.Add(ctx, 1, metric.WithAttributes(
		attribute.String("format", format),
		attribute.String("reason", reason),
	))
}

// RecordModelLoad records one engine load attempt.
func (m *Metrics) RecordModelLoad(ctx context.Context, model, device, status string, duration time.Duration) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("model", model),
		attribute.String("device", device),
		attribute.String("status", status),
	)
	m.modelLoads.Add(ctx, 1, attrs)
	m.modelLoadDuration.Record(ctx, duration.Seconds(), attrs)
}

// RecordTranscription records inference latency and the audio length it covered.
func (m *Metrics) RecordTranscription(ctx context.Context, model string, elapsed time.Duration, audioSeconds float64) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("model", model))
	m.transcriptionDuration.Record(ctx, elapsed.Seconds(), attrs)
	m.audioDuration.Record(ctx, audioSeconds, attrs)
}
