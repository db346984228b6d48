package engine

import (
	"errors"
	"time"
)

// Devices.
const (
	DeviceAuto = "auto"
	DeviceCPU  = "cpu"
	DeviceCUDA = "cuda"
)

// Precisions (compute types).
const (
	PrecisionAuto    = "auto"
	PrecisionFloat16 = "float16"
	PrecisionFloat32 = "float32"
	PrecisionInt8    = "int8"
)

// LoadSpec selects what to load and where weights are cached.
type LoadSpec struct {
	Model     string
	Device    string
	Precision string
	CacheDir  string
}

// VADOptions configures voice-activity filtering before decoding.
type VADOptions struct {
	Enabled    bool
	MinSilence time.Duration
	SpeechPad  time.Duration
}

// RunOptions configures one transcription. An empty Language means detect.
type RunOptions struct {
	AudioPath string
	Language  string
	VAD       VADOptions
}

// Segment is a time-aligned portion of a transcript.
type Segment struct {
	// Start is the segment start time in seconds.
	Start float64 `json:"start"`
	// End is the segment end time in seconds.
	End float64 `json:"end"`
	// Text is the transcribed text for this segment, untrimmed.
	Text string `json:"text"`
}

// Info is metadata finalized once all segments have been consumed.
type Info struct {
	Language            string  `json:"language"`
	LanguageProbability float64 `json:"language_probability"`
	// Duration is the input audio length in seconds.
	Duration float64 `json:"duration"`
}

// ErrNotConsumed is returned by Segments.Info before Next reported exhaustion.
var ErrNotConsumed = errors.New("engine: segments not fully consumed")

// Segments is a finite, non-restartable sequence of segments.
type Segments interface {
	// Next returns the next segment, or false once the sequence is exhausted
	// or failed. Err reports which.
	Next() (Segment, bool)
	// Err returns the error that ended iteration, if any.
	Err() error
	// Info returns metadata, or ErrNotConsumed before exhaustion.
	Info() (Info, error)
}

// sliceSegments is Segments over an already complete result.
type sliceSegments struct {
	segs []Segment
	pos  int
	info Info
	done bool
}

// NewSegments returns Segments over segs. Backends that produce their
// whole result at once use it.
func NewSegments(segs []Segment, info Info) Segments {
	return &sliceSegments{segs: segs, info: info}
}

func (s *sliceSegments) Next() (Segment, bool) {
	if s.pos >= len(s.segs) {
		s.done = true
		return Segment{}, false
	}
	seg := s.segs[s.pos]
	s.pos++
	return seg, true
}

func (s *sliceSegments) Err() error { return nil }

func (s *sliceSegments) Info() (Info, error) {
	if !s.done {
		return Info{}, ErrNotConsumed
	}
	return s.info, nil
}
