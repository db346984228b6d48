package whispercpp

import (
	"context"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/kbukum/whisperd/engine"
	"github.com/kbukum/whisperd/logger"
	"github.com/kbukum/whisperd/process"
	"github.com/kbukum/whisperd/provider"
)

// Engine implements engine.Engine by running whisper-cli.
type Engine struct {
	cfg   Config
	fetch *fetcher
	log   *logger.Logger
}

// New creates a whisper.cpp engine.
func New(cfg Config) *Engine {
	cfg.ApplyDefaults()
	log := logger.Get("whispercpp")
	return &Engine{
		cfg:   cfg,
		fetch: &fetcher{client: &http.Client{}, log: log},
		log:   log,
	}
}

// Factory returns a provider.Factory that creates whisper.cpp engines from a
// generic config map.
func Factory() provider.Factory[engine.Engine] {
	return func(cfg map[string]any) (engine.Engine, error) {
		wc := Config{}
		if v, ok := cfg["binary"].(string); ok {
			wc.Binary = v
		}
		if v, ok := cfg["threads"].(int); ok {
			wc.Threads = v
		}
		if v, ok := cfg["base_url"].(string); ok {
			wc.BaseURL = v
		}
		if v, ok := cfg["vad_model"].(string); ok {
			wc.VADModel = v
		}
		if v, ok := cfg["vad_base_url"].(string); ok {
			wc.VADBaseURL = v
		}
		if wc.Threads < 0 {
			return nil, fmt.Errorf("whispercpp: threads must be >= 0")
		}
		return New(wc), nil
	}
}

// Name returns the backend name.
func (e *Engine) Name() string { return engine.WhisperCpp }

// IsAvailable reports whether the CLI resolves on PATH.
func (e *Engine) IsAvailable(_ context.Context) bool {
	_, err := process.LookPath(e.cfg.Binary)
	return err == nil
}

// Load fetches weights for spec into spec.CacheDir and returns a model that
// runs the CLI against them. A missing VAD model is not fatal; the model
// then runs without voice-activity filtering.
func (e *Engine) Load(ctx context.Context, spec engine.LoadSpec) (engine.Model, error) {
	if _, err := process.LookPath(e.cfg.Binary); err != nil {
		return nil, err
	}

	weights, err := e.fetch.ensure(ctx, spec.CacheDir, e.cfg.BaseURL, WeightsFile(spec.Model, spec.Precision))
	if err != nil {
		return nil, err
	}

	vad, err := e.vadModel(ctx, spec.CacheDir)
	if err != nil {
		e.log.Warn("VAD model unavailable, running without voice-activity filtering",
			logger.ErrorFields("load_vad", err))
		vad = ""
	}

	return &Model{
		binary:  e.cfg.Binary,
		threads: e.cfg.Threads,
		weights: weights,
		vad:     vad,
		gpu:     spec.Device == engine.DeviceCUDA,
		log:     e.log,
	}, nil
}

func (e *Engine) vadModel(ctx context.Context, dir string) (string, error) {
	if filepath.IsAbs(e.cfg.VADModel) {
		return e.fetch.ensure(ctx, filepath.Dir(e.cfg.VADModel), e.cfg.VADBaseURL, filepath.Base(e.cfg.VADModel))
	}
	return e.fetch.ensure(ctx, dir, e.cfg.VADBaseURL, e.cfg.VADModel)
}

// quantized maps identifiers to the ggml quantization published for int8.
var quantized = map[string]string{
	"large-v3": "q5_0",
}

// WeightsFile returns the ggml file name for a model and precision.
func WeightsFile(model, precision string) string {
	if strings.HasPrefix(precision, engine.PrecisionInt8) {
		q, ok := quantized[model]
		if !ok {
			q = "q8_0"
		}
		return fmt.Sprintf("ggml-%s-%s.bin", model, q)
	}
	return fmt.Sprintf("ggml-%s.bin", model)
}
