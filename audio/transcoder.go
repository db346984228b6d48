package audio

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/kbukum/whisperd/process"
)

// DefaultTranscodeTimeout bounds a single ffmpeg run.
const DefaultTranscodeTimeout = 30 * time.Second

// stderrLimit caps how much transcoder stderr ends up in a log line. ffmpeg
// prints its banner first and the actual failure last, so the tail is kept.
const stderrLimit = 200

// Reasons reported when conversion is skipped or fails.
const (
	ReasonUnavailable = "transcoder_unavailable"
	ReasonTimeout     = "transcoder_timeout"
	ReasonFailed      = "transcoder_failed"
	ReasonNoOutput    = "transcoder_no_output"
)

// TranscodeError describes why a conversion did not produce output.
type TranscodeError struct {
	Reason string
	Stderr string
	Err    error
}

func (e *TranscodeError) Error() string {
	if e.Stderr != "" {
		return fmt.Sprintf("%s: %v: %s", e.Reason, e.Err, e.Stderr)
	}
	return fmt.Sprintf("%s: %v", e.Reason, e.Err)
}

func (e *TranscodeError) Unwrap() error { return e.Err }

// Transcoder converts in to canonical PCM WAV at out.
type Transcoder interface {
	Transcode(ctx context.Context, in, out string) error
}

// FFmpeg is the default Transcoder. The binary is resolved on PATH at call
// time, so installing ffmpeg takes effect without a restart.
type FFmpeg struct {
	Binary  string
	Timeout time.Duration
}

// NewFFmpeg creates an ffmpeg transcoder. Empty binary means "ffmpeg"; zero
// timeout means DefaultTranscodeTimeout.
func NewFFmpeg(binary string, timeout time.Duration) *FFmpeg {
	if binary == "" {
		binary = "ffmpeg"
	}
	if timeout <= 0 {
		timeout = DefaultTranscodeTimeout
	}
	return &FFmpeg{Binary: binary, Timeout: timeout}
}

// Args returns the ffmpeg arguments for converting in to out.
func (f *FFmpeg) Args(in, out string) []string {
	return []string{
		"-y", "-i", in,
		"-ar", strconv.Itoa(SampleRate),
		"-ac", strconv.Itoa(Channels),
		"-c:a", "pcm_s16le",
		out,
	}
}

// Transcode runs ffmpeg. Failures are returned as *TranscodeError.
func (f *FFmpeg) Transcode(ctx context.Context, in, out string) error {
	res, err := process.Run(ctx, process.Command{
		Binary:      f.Binary,
		Args:        f.Args(in, out),
		Timeout:     f.Timeout,
		GracePeriod: time.Second,
	})
	switch {
	case errors.Is(err, process.ErrNotFound):
		return &TranscodeError{Reason: ReasonUnavailable, Err: err}
	case errors.Is(err, process.ErrTimeout):
		return &TranscodeError{Reason: ReasonTimeout, Err: err, Stderr: res.StderrTail(stderrLimit)}
	case err != nil:
		return &TranscodeError{Reason: ReasonFailed, Err: err, Stderr: res.StderrTail(stderrLimit)}
	}
	if _, statErr := os.Stat(out); statErr != nil {
		return &TranscodeError{Reason: ReasonNoOutput, Err: statErr}
	}
	return nil
}
