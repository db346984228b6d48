package audio

import (
	"fmt"
	"os"
	"time"

	"github.com/kbukum/whisperd/util"
)

// Config configures audio normalization.
type Config struct {
	FFmpegBinary     string        `yaml:"ffmpeg_binary" mapstructure:"ffmpeg_binary"`
	TranscodeTimeout time.Duration `yaml:"transcode_timeout" mapstructure:"transcode_timeout"`
	// TempDir holds per-request files. Empty means the system temp dir.
	TempDir string `yaml:"temp_dir" mapstructure:"temp_dir"`
}

// ApplyDefaults sets default values for unset fields.
func (c *Config) ApplyDefaults() {
	if c.FFmpegBinary == "" {
		c.FFmpegBinary = "ffmpeg"
	}
	if c.TranscodeTimeout == 0 {
		c.TranscodeTimeout = DefaultTranscodeTimeout
	}
	c.TempDir = util.ExpandHome(c.TempDir)
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	if c.TranscodeTimeout < 0 {
		return fmt.Errorf("audio.transcode_timeout must be non-negative (got: %s)", c.TranscodeTimeout)
	}
	if c.TempDir != "" {
		info, err := os.Stat(c.TempDir)
		if err != nil {
			return fmt.Errorf("audio.temp_dir: %w", err)
		}
		if !info.IsDir() {
			return fmt.Errorf("audio.temp_dir is not a directory: %s", c.TempDir)
		}
	}
	return nil
}
