package whispercpp

import (
	"runtime"
	"strings"
)

const (
	defaultBinary     = "whisper-cli"
	defaultBaseURL    = "https://huggingface.co/ggerganov/whisper.cpp/resolve/main"
	defaultVADBaseURL = "https://huggingface.co/ggml-org/whisper-vad/resolve/main"
	defaultVADModel   = "ggml-silero-v5.1.2.bin"
	maxDefaultThreads = 4
)

// Config holds configuration for the whisper.cpp backend.
type Config struct {
	// Binary is the whisper.cpp CLI, resolved on PATH.
	Binary  string `mapstructure:"binary" json:"binary" yaml:"binary"`
	Threads int    `mapstructure:"threads" json:"threads" yaml:"threads" validate:"min=0"`
	// BaseURL is where ggml weights are downloaded from.
	BaseURL string `mapstructure:"base_url" json:"base_url" yaml:"base_url" validate:"omitempty,url"`
	// VADModel is a file name in the cache directory or an absolute path.
	VADModel   string `mapstructure:"vad_model" json:"vad_model" yaml:"vad_model"`
	VADBaseURL string `mapstructure:"vad_base_url" json:"vad_base_url" yaml:"vad_base_url" validate:"omitempty,url"`
}

// ApplyDefaults fills unset fields.
func (c *Config) ApplyDefaults() {
	if c.Binary == "" {
		c.Binary = defaultBinary
	}
	if c.Threads == 0 {
		c.Threads = min(runtime.NumCPU(), maxDefaultThreads)
	}
	if c.BaseURL == "" {
		c.BaseURL = defaultBaseURL
	}
	c.BaseURL = strings.TrimRight(c.BaseURL, "/")
	if c.VADModel == "" {
		c.VADModel = defaultVADModel
	}
	if c.VADBaseURL == "" {
		c.VADBaseURL = defaultVADBaseURL
	}
	c.VADBaseURL = strings.TrimRight(c.VADBaseURL, "/")
}
