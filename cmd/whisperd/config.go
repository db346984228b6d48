package main

import (
	"fmt"

	"github.com/kbukum/whisperd/audio"
	"github.com/kbukum/whisperd/config"
	"github.com/kbukum/whisperd/engine/sidecar"
	"github.com/kbukum/whisperd/engine/whispercpp"
	"github.com/kbukum/whisperd/model"
	"github.com/kbukum/whisperd/observability"
	"github.com/kbukum/whisperd/server"
	"github.com/kbukum/whisperd/transcription"
	"github.com/kbukum/whisperd/validation"
	"github.com/kbukum/whisperd/version"
)

const serviceName = "whisperd"

// Config is the whisperd configuration file layout.
type Config struct {
	config.ServiceConfig `yaml:",inline" mapstructure:",squash"`

	Server        server.Config        `yaml:"server" mapstructure:"server"`
	Whisper       WhisperConfig        `yaml:"whisper" mapstructure:"whisper"`
	Audio         audio.Config         `yaml:"audio" mapstructure:"audio"`
	Transcription transcription.Config `yaml:"transcription" mapstructure:"transcription"`
	Observability observability.Config `yaml:"observability" mapstructure:"observability"`
}

// WhisperConfig is the model registry section plus per-engine settings.
type WhisperConfig struct {
	model.Config `yaml:",inline" mapstructure:",squash"`

	WhisperCpp whispercpp.Config `yaml:"whispercpp" mapstructure:"whispercpp"`
	Sidecar    sidecar.Config    `yaml:"sidecar" mapstructure:"sidecar"`
}

// ApplyDefaults fills every section.
func (c *Config) ApplyDefaults() {
	if c.Name == "" {
		c.Name = serviceName
	}
	if c.Version == "" {
		c.Version = version.GetShortVersion()
	}
	c.ServiceConfig.ApplyDefaults()
	c.Server.ApplyDefaults()
	c.Whisper.Config.ApplyDefaults()
	c.Whisper.WhisperCpp.ApplyDefaults()
	c.Whisper.Sidecar.ApplyDefaults()
	c.Audio.ApplyDefaults()
	c.Transcription.ApplyDefaults()
	c.Observability.ApplyDefaults()
}

// Validate checks every section and names the first one that fails.
func (c *Config) Validate() error {
	if err := c.ServiceConfig.Validate(); err != nil {
		return err
	}
	checks := []struct {
		section string
		check   func() error
	}{
		{"server", c.Server.Validate},
		{"whisper", c.Whisper.Config.Validate},
		{"whisper.whispercpp", func() error { return validation.Validate(&c.Whisper.WhisperCpp) }},
		{"whisper.sidecar", func() error { return validation.Validate(&c.Whisper.Sidecar) }},
		{"audio", c.Audio.Validate},
		{"transcription", func() error { return validation.Validate(&c.Transcription) }},
		{"observability", c.Observability.Validate},
	}
	for _, ch := range checks {
		if err := ch.check(); err != nil {
			return fmt.Errorf("%s: %w", ch.section, err)
		}
	}
	return nil
}

// loadConfig reads config.yml, .env and the environment. The WHISPER_HOST
// and WHISPER_PORT names predate the nested layout and are aliased.
func loadConfig(opts ...config.LoaderOption) (*Config, error) {
	opts = append([]config.LoaderOption{
		config.WithEnvAlias("WHISPER_HOST", "server.host"),
		config.WithEnvAlias("WHISPER_PORT", "server.port"),
	}, opts...)

	var cfg Config
	if err := config.LoadConfig(serviceName, &cfg, opts...); err != nil {
		return nil, err
	}
	return &cfg, nil
}
