// Package sidecar is an engine backend that forwards audio to a
// faster-whisper HTTP service.
//
// The service accepts a multipart POST on /transcribe with an "audio" file
// field plus model, language, device, compute_type and VAD fields, and
// answers GET /health with 200 when ready.
package sidecar

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/kbukum/whisperd/engine"
	apperrors "github.com/kbukum/whisperd/errors"
	"github.com/kbukum/whisperd/logger"
	"github.com/kbukum/whisperd/provider"
	"github.com/kbukum/whisperd/util"
	"github.com/kbukum/whisperd/version"
)

const (
	defaultURL     = "http://localhost:8387"
	defaultTimeout = 120 * time.Second

	// maxErrorBody caps how much of a non-200 body ends up in the error.
	maxErrorBody = 512
)

// Config holds configuration for the sidecar backend.
type Config struct {
	URL string `mapstructure:"url" json:"url" yaml:"url" validate:"omitempty,url"`
	// Timeout bounds one HTTP exchange, inference included.
	Timeout time.Duration `mapstructure:"timeout" json:"timeout" yaml:"timeout" validate:"min=0"`
}

// ApplyDefaults fills unset fields.
func (c *Config) ApplyDefaults() {
	if c.URL == "" {
		c.URL = defaultURL
	}
	c.URL = strings.TrimRight(c.URL, "/")
	if c.Timeout == 0 {
		c.Timeout = defaultTimeout
	}
}

// Engine implements engine.Engine against a faster-whisper sidecar.
type Engine struct {
	cfg    Config
	client *http.Client
	log    *logger.Logger
}

// New creates a sidecar engine.
func New(cfg Config) *Engine {
	cfg.ApplyDefaults()
	return &Engine{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		log:    logger.Get("sidecar"),
	}
}

// Factory returns a provider.Factory that creates sidecar engines from a
// generic config map.
func Factory() provider.Factory[engine.Engine] {
	return func(cfg map[string]any) (engine.Engine, error) {
		sc := Config{}
		if v, ok := cfg["url"].(string); ok {
			sc.URL = v
		}
		if v, ok := cfg["timeout"].(time.Duration); ok {
			sc.Timeout = v
		}
		if sc.Timeout < 0 {
			return nil, fmt.Errorf("sidecar: timeout must be >= 0")
		}
		return New(sc), nil
	}
}

// Name returns the backend name.
func (e *Engine) Name() string { return engine.Sidecar }

// IsAvailable checks if the sidecar is reachable.
func (e *Engine) IsAvailable(ctx context.Context) bool {
	return e.ping(ctx) == nil
}

// Load returns a model bound to spec. The sidecar loads weights itself on
// first use; Load only verifies it is reachable.
func (e *Engine) Load(ctx context.Context, spec engine.LoadSpec) (engine.Model, error) {
	if err := e.ping(ctx); err != nil {
		return nil, err
	}
	e.log.Debug("sidecar model bound", logger.Fields(
		logger.FieldModel, spec.Model,
		logger.FieldDevice, spec.Device,
		logger.FieldPrecision, spec.Precision,
	))
	return &Model{engine: e, spec: spec}, nil
}

// Close releases idle connections.
func (e *Engine) Close() error {
	e.client.CloseIdleConnections()
	return nil
}

func (e *Engine) ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, e.cfg.URL+"/health", nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", version.UserAgent("whisperd"))
	resp, err := e.client.Do(req)
	if err != nil {
		return apperrors.ExternalServiceError(engine.Sidecar, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	if resp.StatusCode != http.StatusOK {
		return apperrors.ServiceUnavailable(engine.Sidecar).
			WithDetail("status", resp.StatusCode)
	}
	return nil
}

// Model is a model served by the sidecar.
type Model struct {
	engine *Engine
	spec   engine.LoadSpec
}

// Transcribe sends the audio file to the sidecar and returns its segments.
func (m *Model) Transcribe(ctx context.Context, opts engine.RunOptions) (engine.Segments, error) {
	body, contentType, err := m.form(opts)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.engine.cfg.URL+"/transcribe", body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("User-Agent", version.UserAgent("whisperd"))
	if id := logger.RequestIDFromContext(ctx); id != "" {
		req.Header.Set("X-Request-Id", id)
	}

	resp, err := m.engine.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("sidecar request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, fmt.Errorf("sidecar error (status %d): %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var result response
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode sidecar response: %w", err)
	}
	return result.segments(opts.Language), nil
}

func (m *Model) form(opts engine.RunOptions) (io.Reader, string, error) {
	f, err := os.Open(opts.AudioPath)
	if err != nil {
		return nil, "", fmt.Errorf("read audio file: %w", err)
	}
	defer f.Close()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	part, err := w.CreateFormFile("audio", filepath.Base(opts.AudioPath))
	if err != nil {
		return nil, "", fmt.Errorf("create form file: %w", err)
	}
	if _, err := io.Copy(part, f); err != nil {
		return nil, "", fmt.Errorf("write audio data: %w", err)
	}

	fields := [][2]string{
		{"model", m.spec.Model},
		{"language", opts.Language},
		{"device", m.spec.Device},
		{"compute_type", m.spec.Precision},
		{"vad_filter", strconv.FormatBool(opts.VAD.Enabled)},
	}
	if opts.VAD.Enabled {
		fields = append(fields,
			[2]string{"min_silence_duration_ms", strconv.FormatInt(opts.VAD.MinSilence.Milliseconds(), 10)},
			[2]string{"speech_pad_ms", strconv.FormatInt(opts.VAD.SpeechPad.Milliseconds(), 10)},
		)
	}
	for _, kv := range fields {
		if kv[1] == "" {
			continue
		}
		if err := w.WriteField(kv[0], kv[1]); err != nil {
			return nil, "", fmt.Errorf("write field %s: %w", kv[0], err)
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return &buf, w.FormDataContentType(), nil
}

// --- sidecar API response types ---

type response struct {
	Text                string    `json:"text"`
	Segments            []segment `json:"segments"`
	Language            string    `json:"language"`
	LanguageProbability *float64  `json:"language_probability"`
	Duration            *float64  `json:"duration"`
}

type segment struct {
	Text  string  `json:"text"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

func (r *response) segments(requested string) engine.Segments {
	segs := make([]engine.Segment, len(r.Segments))
	for i, s := range r.Segments {
		segs[i] = engine.Segment{Start: s.Start, End: s.End, Text: s.Text}
	}
	// Older sidecars return only text.
	if len(segs) == 0 && strings.TrimSpace(r.Text) != "" {
		segs = append(segs, engine.Segment{Text: r.Text})
	}

	info := engine.Info{Language: util.Coalesce(r.Language, requested)}
	switch {
	case r.LanguageProbability != nil:
		info.LanguageProbability = *r.LanguageProbability
	case requested != "":
		info.LanguageProbability = 1
	}
	switch {
	case r.Duration != nil:
		info.Duration = *r.Duration
	case len(r.Segments) > 0:
		info.Duration = r.Segments[len(r.Segments)-1].End
	}
	return engine.NewSegments(segs, info)
}
