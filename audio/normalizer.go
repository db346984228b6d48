package audio

import (
	"context"
	"errors"
	"path/filepath"
	"strings"

	apperrors "github.com/kbukum/whisperd/errors"
	"github.com/kbukum/whisperd/logger"
	"github.com/kbukum/whisperd/observability"
)

// Normalizer writes request audio to disk and, for voice-message containers,
// converts it to canonical PCM WAV.
type Normalizer struct {
	transcoder Transcoder
	metrics    *observability.Metrics
	log        *logger.Logger
}

// NewNormalizer creates a Normalizer. A nil transcoder means ffmpeg with the
// default timeout; metrics may be nil.
func NewNormalizer(t Transcoder, metrics *observability.Metrics) *Normalizer {
	if t == nil {
		t = NewFFmpeg("", 0)
	}
	return &Normalizer{transcoder: t, metrics: metrics, log: logger.Get("audio")}
}

// Normalize writes p into scope and converts it when its format requires it.
// The only error is failing to write the input file; conversion problems
// yield the original file with Degraded set.
func (n *Normalizer) Normalize(ctx context.Context, scope *Scope, p Payload) (*Normalized, error) {
	ctx, span := observability.StartSpan(ctx, observability.SpanNormalize)
	defer span.End()

	format := formatLabel(p.Format, p.Data)
	in, err := scope.CreateTemp(format, p.Data)
	if err != nil {
		observability.SetSpanError(ctx, err)
		return nil, apperrors.Internal(err)
	}

	result := &Normalized{Path: in, Original: in, Format: format}
	observability.SetSpanAttribute(ctx, observability.AttrFormat, format)

	if !NeedsConversion(format) {
		observability.SetSpanAttribute(ctx, observability.AttrConverted, false)
		return result, nil
	}

	out := convertedPath(in)
	// Tracked before the run so partial output is removed too.
	scope.Track(out)

	log := n.log.WithContext(ctx)
	if err := n.transcoder.Transcode(ctx, in, out); err != nil {
		reason := ReasonFailed
		fields := map[string]interface{}{
			logger.FieldFormat: format,
			logger.FieldError:  err.Error(),
		}
		var te *TranscodeError
		if errors.As(err, &te) {
			reason = te.Reason
			if te.Stderr != "" {
				fields["stderr"] = te.Stderr
			}
		}
		fields["reason"] = reason
		log.Warn("audio conversion skipped, using original file", fields)
		n.metrics.RecordTranscodeFallback(ctx, format, reason)
		observability.SetSpanAttribute(ctx, observability.AttrConverted, false)

		result.Degraded = true
		result.Reason = reason
		return result, nil
	}

	log.Debug("audio converted", logger.Fields(logger.FieldFormat, format, logger.FieldPath, out))
	observability.SetSpanAttribute(ctx, observability.AttrConverted, true)
	result.Path = out
	result.Converted = true
	return result, nil
}

// convertedPath maps "<dir>/stt-x.ogg" to "<dir>/stt-x_converted.wav".
func convertedPath(in string) string {
	return strings.TrimSuffix(in, filepath.Ext(in)) + "_converted.wav"
}
