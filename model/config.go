package model

import (
	"fmt"
	"strings"

	"github.com/kbukum/whisperd/engine"
	"github.com/kbukum/whisperd/util"
	"github.com/kbukum/whisperd/validation"
)

// Config configures model resolution and loading.
type Config struct {
	// ModelsDir caches downloaded weights.
	ModelsDir    string `mapstructure:"models_dir" json:"models_dir" yaml:"models_dir"`
	DefaultModel string `mapstructure:"default_model" json:"default_model" yaml:"default_model"`
	Device       string `mapstructure:"device" json:"device" yaml:"device" validate:"oneof=auto cpu cuda"`
	ComputeType  string `mapstructure:"compute_type" json:"compute_type" yaml:"compute_type" validate:"oneof=auto float16 float32 int8 int8_float16 int8_float32 int16"`
	// Engine names the backend, or "auto".
	Engine string `mapstructure:"engine" json:"engine" yaml:"engine" validate:"oneof=auto whispercpp sidecar"`
	// Preload loads the default model at startup. Unset means true.
	Preload *bool `mapstructure:"preload" json:"preload" yaml:"preload"`
}

// ApplyDefaults fills unset fields.
func (c *Config) ApplyDefaults() {
	if c.ModelsDir == "" {
		c.ModelsDir = "~/.cache/whisper"
	}
	c.ModelsDir = util.ExpandHome(c.ModelsDir)
	if c.DefaultModel == "" {
		c.DefaultModel = DefaultModel
	}
	c.Device = strings.ToLower(strings.TrimSpace(c.Device))
	c.ComputeType = strings.ToLower(strings.TrimSpace(c.ComputeType))
	if c.Device == "" {
		c.Device = engine.DeviceAuto
	}
	if c.ComputeType == "" {
		c.ComputeType = engine.PrecisionAuto
	}
	if c.Engine == "" {
		c.Engine = engine.WhisperCpp
	}
}

// Validate checks field values. The default model must be in the catalog.
func (c *Config) Validate() error {
	if err := validation.Validate(c); err != nil {
		return err
	}
	if !IsSupported(c.DefaultModel) {
		return fmt.Errorf("whisper.default_model %q is not one of %v", c.DefaultModel, supported)
	}
	return nil
}

// PreloadEnabled reports whether the default model is loaded at startup.
func (c *Config) PreloadEnabled() bool {
	return c.Preload == nil || *c.Preload
}
