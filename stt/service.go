package stt

import (
	"context"
	"time"

	"github.com/kbukum/whisperd/audio"
	apperrors "github.com/kbukum/whisperd/errors"
	"github.com/kbukum/whisperd/logger"
	"github.com/kbukum/whisperd/model"
	"github.com/kbukum/whisperd/observability"
	"github.com/kbukum/whisperd/transcription"
	"github.com/kbukum/whisperd/util"
)

// Stage is a step of the request pipeline.
type Stage string

const (
	StageDecoding        Stage = "decoding"
	StageNormalizing     Stage = "normalizing"
	StageModelResolution Stage = "model_resolution"
	StageTranscribing    Stage = "transcribing"
	StageResponding      Stage = "responding"
	StageFailed          Stage = "failed"
)

// Request is a transcription request body.
type Request struct {
	// Audio is base64, optionally as a data URL.
	Audio string `json:"audio"`
	// Model defaults to the registry default; unknown ids fall back to it.
	Model string `json:"model"`
	// Language "" or "auto" detects.
	Language string `json:"language"`
	// Format is the container hint, default "ogg".
	Format string `json:"format"`
}

// Normalizer prepares audio for the engine.
type Normalizer interface {
	Normalize(ctx context.Context, scope *audio.Scope, p audio.Payload) (*audio.Normalized, error)
}

// Models resolves and loads model handles.
type Models interface {
	Resolve(id string) string
	Get(ctx context.Context, id string) (*model.Handle, error)
}

// Transcriber runs a handle over normalized audio.
type Transcriber interface {
	Transcribe(ctx context.Context, h *model.Handle, in *audio.Normalized, language string) (*transcription.Result, error)
}

// Service runs transcription requests.
type Service struct {
	normalizer  Normalizer
	models      Models
	transcriber Transcriber
	tempDir     string
	metrics     *observability.Metrics
	log         *logger.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithTempDir sets where request temp files are created.
func WithTempDir(dir string) Option {
	return func(s *Service) { s.tempDir = dir }
}

// WithMetrics records request metrics.
func WithMetrics(m *observability.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// NewService creates a Service.
func NewService(n Normalizer, models Models, t Transcriber, opts ...Option) *Service {
	s := &Service{
		normalizer:  n,
		models:      models,
		transcriber: t,
		log:         logger.Get("stt"),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Transcribe runs req through the pipeline. Client input problems are 400
// AppErrors; everything after decoding fails with a 500.
func (s *Service) Transcribe(ctx context.Context, req Request) (*transcription.Result, error) {
	ctx, span := observability.StartSpan(ctx, observability.SpanTranscribe)
	defer span.End()
	if id := logger.RequestIDFromContext(ctx); id != "" {
		observability.SetSpanAttribute(ctx, observability.AttrRequestID, id)
	}

	modelID := s.models.Resolve(req.Model)
	p := &pipeline{stage: StageDecoding, start: time.Now()}
	s.metrics.RecordRequestStart(ctx)

	scope := audio.NewScope(s.tempDir)
	defer scope.Release()

	res, err := s.run(ctx, p, scope, modelID, req)
	s.finish(ctx, p, modelID, err)
	return res, err
}

// pipeline tracks the stage reached by one request.
type pipeline struct {
	stage Stage
	start time.Time
}

func (p *pipeline) enter(ctx context.Context, st Stage) {
	p.stage = st
	observability.SetSpanAttribute(ctx, observability.AttrStage, string(st))
}

func (s *Service) run(ctx context.Context, p *pipeline, scope *audio.Scope, modelID string, req Request) (*transcription.Result, error) {
	p.enter(ctx, StageDecoding)
	if req.Audio == "" {
		return nil, apperrors.MissingField("audio", msgNoAudio)
	}
	data, err := DecodeAudio(req.Audio)
	if err != nil {
		return nil, err
	}

	p.enter(ctx, StageNormalizing)
	norm, err := s.normalizer.Normalize(ctx, scope, audio.Payload{
		Data:   data,
		Format: util.Coalesce(req.Format, audio.DefaultFormat),
	})
	if err != nil {
		return nil, err
	}

	p.enter(ctx, StageModelResolution)
	h, err := s.models.Get(ctx, modelID)
	if err != nil {
		return nil, err
	}

	p.enter(ctx, StageTranscribing)
	res, err := s.transcriber.Transcribe(ctx, h, norm, req.Language)
	if err != nil {
		return nil, err
	}

	p.enter(ctx, StageResponding)
	return res, nil
}

func (s *Service) finish(ctx context.Context, p *pipeline, modelID string, err error) {
	log := s.log.WithContext(ctx)
	elapsed := time.Since(p.start)

	if err != nil {
		failed := p.stage
		p.enter(ctx, StageFailed)
		observability.SetSpanError(ctx, err)
		s.metrics.RecordRequestEnd(ctx, modelID, string(failed), "error")

		fields := logger.Fields(
			logger.FieldStage, string(failed),
			logger.FieldModel, modelID,
			logger.FieldError, err.Error(),
			logger.FieldDuration, elapsed.String(),
		)
		if status, _ := apperrors.Resolve(err); status < 500 {
			log.Warn("Transcription rejected", fields)
			return
		}
		log.Error("Transcription failed", fields)
		return
	}

	s.metrics.RecordRequestEnd(ctx, modelID, string(p.stage), "ok")
	log.Info("Transcription completed", logger.Fields(
		logger.FieldStage, string(p.stage),
		logger.FieldModel, modelID,
		logger.FieldDuration, elapsed.String(),
	))
}
