package transcription

import (
	"time"

	"github.com/kbukum/whisperd/engine"
)

const (
	DefaultMinSilenceMs = 500
	DefaultSpeechPadMs  = 400
)

// VADConfig tunes voice-activity filtering.
type VADConfig struct {
	// Enabled defaults to true when unset.
	Enabled      *bool `mapstructure:"enabled" json:"enabled" yaml:"enabled"`
	MinSilenceMs int   `mapstructure:"min_silence_ms" json:"min_silence_ms" yaml:"min_silence_ms" validate:"min=0"`
	SpeechPadMs  int   `mapstructure:"speech_pad_ms" json:"speech_pad_ms" yaml:"speech_pad_ms" validate:"min=0"`
}

// Config configures the invoker.
type Config struct {
	VAD VADConfig `mapstructure:"vad" json:"vad" yaml:"vad"`
}

// ApplyDefaults fills unset fields.
func (c *Config) ApplyDefaults() {
	if c.VAD.MinSilenceMs == 0 {
		c.VAD.MinSilenceMs = DefaultMinSilenceMs
	}
	if c.VAD.SpeechPadMs == 0 {
		c.VAD.SpeechPadMs = DefaultSpeechPadMs
	}
}

// Options returns the engine VAD options c describes.
func (c VADConfig) Options() engine.VADOptions {
	return engine.VADOptions{
		Enabled:    c.Enabled == nil || *c.Enabled,
		MinSilence: time.Duration(c.MinSilenceMs) * time.Millisecond,
		SpeechPad:  time.Duration(c.SpeechPadMs) * time.Millisecond,
	}
}
