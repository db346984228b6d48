package transcription

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/kbukum/whisperd/audio"
	"github.com/kbukum/whisperd/engine"
	apperrors "github.com/kbukum/whisperd/errors"
	"github.com/kbukum/whisperd/logger"
	"github.com/kbukum/whisperd/model"
	"github.com/kbukum/whisperd/observability"
)

// Result is a finished transcription.
type Result struct {
	Text                string           `json:"text"`
	Language            string           `json:"language"`
	LanguageProbability float64          `json:"language_probability"`
	Duration            float64          `json:"duration"`
	Segments            []engine.Segment `json:"-"`
}

// Invoker runs model handles over audio.
type Invoker struct {
	vad     engine.VADOptions
	metrics *observability.Metrics
	log     *logger.Logger
}

// NewInvoker creates an invoker. metrics may be nil.
func NewInvoker(cfg Config, metrics *observability.Metrics) *Invoker {
	cfg.ApplyDefaults()
	return &Invoker{
		vad:     cfg.VAD.Options(),
		metrics: metrics,
		log:     logger.Get("transcription"),
	}
}

// NormalizeLanguage maps "" and "auto" to unspecified.
func NormalizeLanguage(lang string) string {
	lang = strings.TrimSpace(lang)
	if strings.EqualFold(lang, "auto") {
		return ""
	}
	return lang
}

// Transcribe runs h over in. Language "" or "auto" lets the engine detect it.
// Every engine failure is a TRANSCRIPTION_FAILED error.
func (i *Invoker) Transcribe(ctx context.Context, h *model.Handle, in *audio.Normalized, language string) (*Result, error) {
	ctx, span := observability.StartSpan(ctx, observability.SpanInference)
	defer span.End()
	observability.SetSpanAttribute(ctx, observability.AttrModel, h.ID)

	lang := NormalizeLanguage(language)
	start := time.Now()

	segs, err := h.Model.Transcribe(ctx, engine.RunOptions{
		AudioPath: in.Path,
		Language:  lang,
		VAD:       i.vad,
	})
	if err != nil {
		observability.SetSpanError(ctx, err)
		return nil, apperrors.TranscriptionFailed(err)
	}

	res, err := collect(segs)
	if err != nil {
		observability.SetSpanError(ctx, err)
		return nil, apperrors.TranscriptionFailed(err)
	}
	elapsed := time.Since(start)

	i.metrics.RecordTranscription(ctx, h.ID, elapsed, res.Duration)
	observability.SetSpanAttribute(ctx, observability.AttrLanguage, res.Language)
	observability.SetSpanAttribute(ctx, observability.AttrDurationMs, elapsed.Milliseconds())

	i.log.WithContext(ctx).Debug("Transcription finished", logger.Fields(
		logger.FieldModel, h.ID,
		"language", res.Language,
		"segments", len(res.Segments),
		"audio_seconds", res.Duration,
		logger.FieldDuration, elapsed.String(),
	))
	return res, nil
}

// collect drains segs and only then reads its metadata.
func collect(segs engine.Segments) (*Result, error) {
	var all []engine.Segment
	for {
		s, ok := segs.Next()
		if !ok {
			break
		}
		all = append(all, s)
	}
	if err := segs.Err(); err != nil {
		return nil, err
	}
	info, err := segs.Info()
	if err != nil {
		return nil, fmt.Errorf("read transcription info: %w", err)
	}
	return &Result{
		Text:                MergeText(all),
		Language:            info.Language,
		LanguageProbability: info.LanguageProbability,
		Duration:            info.Duration,
		Segments:            all,
	}, nil
}

// MergeText joins trimmed segment texts with single spaces. Segments that
// are blank after trimming are kept as empty tokens.
func MergeText(segs []engine.Segment) string {
	parts := make([]string, len(segs))
	for i, s := range segs {
		parts[i] = strings.TrimSpace(s.Text)
	}
	return strings.Join(parts, " ")
}
