package main

import (
	"context"
	"fmt"

	"github.com/kbukum/whisperd/api"
	"github.com/kbukum/whisperd/audio"
	"github.com/kbukum/whisperd/bootstrap"
	"github.com/kbukum/whisperd/engine"
	"github.com/kbukum/whisperd/engine/sidecar"
	"github.com/kbukum/whisperd/engine/whispercpp"
	"github.com/kbukum/whisperd/logger"
	"github.com/kbukum/whisperd/model"
	"github.com/kbukum/whisperd/observability"
	"github.com/kbukum/whisperd/provider"
	"github.com/kbukum/whisperd/server"
	"github.com/kbukum/whisperd/stt"
	"github.com/kbukum/whisperd/transcription"
)

// wire builds the component graph. Components start in registration order
// (telemetry, models, server) and stop in reverse, so the server drains
// before models are closed.
func wire(ctx context.Context, app *bootstrap.App[*Config]) error {
	cfg := app.Cfg

	if err := app.RegisterComponent(observability.NewTelemetry(
		cfg.Observability, cfg.Name, cfg.Version, cfg.Environment)); err != nil {
		return err
	}
	metrics, err := observability.NewMetrics(observability.Meter(serviceName))
	if err != nil {
		return fmt.Errorf("create metrics: %w", err)
	}

	engines, eng, err := selectEngine(ctx, &cfg.Whisper)
	if err != nil {
		return err
	}
	app.OnStop(func(context.Context) error { return engines.Close() })

	registry := model.NewRegistry(cfg.Whisper.Config, eng, model.WithMetrics(metrics))
	if err := app.RegisterComponent(model.NewComponent(registry)); err != nil {
		return err
	}

	svc := stt.NewService(
		audio.NewNormalizer(audio.NewFFmpeg(cfg.Audio.FFmpegBinary, cfg.Audio.TranscodeTimeout), metrics),
		registry,
		transcription.NewInvoker(cfg.Transcription, metrics),
		stt.WithTempDir(cfg.Audio.TempDir),
		stt.WithMetrics(metrics),
	)

	srv := server.New(&cfg.Server, app.Logger)
	api.NewHandler(svc, registry).Register(srv.GinEngine())
	srv.RegisterDefaultEndpoints(cfg.Name, app.Components.HealthAll, func() map[string]any {
		return map[string]any{"engine": eng.Name()}
	})
	srv.ApplyMiddleware()
	return app.RegisterComponent(server.NewComponent(srv))
}

// selectEngine initializes the configured backend, or every backend for
// "auto", and resolves the one models load through.
func selectEngine(ctx context.Context, cfg *WhisperConfig) (*provider.Manager[engine.Engine], engine.Engine, error) {
	mgr := engine.NewManager()
	mgr.Register(engine.WhisperCpp, whispercpp.Factory())
	mgr.Register(engine.Sidecar, sidecar.Factory())

	names := []string{cfg.Engine}
	if cfg.Engine == provider.Auto {
		names = engine.DefaultPriority
	}
	for _, name := range names {
		if err := mgr.Initialize(name, engineSettings(name, cfg)); err != nil {
			return nil, nil, err
		}
	}

	eng, err := mgr.Resolve(ctx, cfg.Engine)
	if err != nil {
		return nil, nil, fmt.Errorf("select engine %q: %w", cfg.Engine, err)
	}
	if !eng.IsAvailable(ctx) {
		logger.Get("engine").Warn("Engine not available yet, model loads will fail until it is",
			logger.Fields("engine", eng.Name()))
	}
	return mgr, eng, nil
}

func engineSettings(name string, cfg *WhisperConfig) map[string]any {
	switch name {
	case engine.WhisperCpp:
		return map[string]any{
			"binary":       cfg.WhisperCpp.Binary,
			"threads":      cfg.WhisperCpp.Threads,
			"base_url":     cfg.WhisperCpp.BaseURL,
			"vad_model":    cfg.WhisperCpp.VADModel,
			"vad_base_url": cfg.WhisperCpp.VADBaseURL,
		}
	case engine.Sidecar:
		return map[string]any{
			"url":     cfg.Sidecar.URL,
			"timeout": cfg.Sidecar.Timeout,
		}
	}
	return nil
}
